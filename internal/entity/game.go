package entity

import (
	"errors"
	"fmt"
)

type Phase string

const (
	PhaseAwaitingSetup Phase = "awaiting_setup"
	PhaseInProgress    Phase = "in_progress"
	PhaseResolved      Phase = "resolved"
)

type OutcomeKind string

const (
	OutcomeNone OutcomeKind = ""
	OutcomeWin  OutcomeKind = "win"
	OutcomeTie  OutcomeKind = "tie"
)

var (
	ErrUnknownPhase    = errors.New("unknown game phase")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

func (that Phase) IsValid() bool {
	switch that {
	case PhaseAwaitingSetup, PhaseInProgress, PhaseResolved:
		return true
	default:
		return false
	}
}

// Outcome - derived from the board every time it is asked for, never stored.
type Outcome struct {
	Kind   OutcomeKind `json:"kind,omitempty"`
	Winner *Player     `json:"winner,omitempty"`
	Line   []int       `json:"line,omitempty"`
}

// DetermineOutcome - X is checked before O; a legal game never has both.
func DetermineOutcome(board Board, players [2]Player) Outcome {
	for i := range players {
		if line, ok := board.WinningLine(players[i].Mark); ok {
			winner := players[i]
			return Outcome{Kind: OutcomeWin, Winner: &winner, Line: line[:]}
		}
	}

	if board.IsFull() {
		return Outcome{Kind: OutcomeTie}
	}

	return Outcome{Kind: OutcomeNone}
}

// Snapshot - read-only copy of a session's game state.
type Snapshot struct {
	Phase   Phase     `json:"phase"`
	Board   Board     `json:"board"`
	Turn    int       `json:"turn"`
	Players [2]Player `json:"players"`
	Outcome Outcome   `json:"outcome"`
}

func (that *Snapshot) CurrentPlayer() Player {
	return that.Players[that.Turn]
}

// Validate - checks a snapshot read back from storage before it is trusted.
func (that *Snapshot) Validate() error {
	if !that.Phase.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, that.Phase)
	}

	if that.Turn != 0 && that.Turn != 1 {
		return fmt.Errorf("%w: turn %d", ErrInvalidSnapshot, that.Turn)
	}

	if that.Players[0].Mark != PlayerX || that.Players[1].Mark != PlayerO {
		return fmt.Errorf("%w: unexpected marks %q/%q", ErrInvalidSnapshot, that.Players[0].Mark, that.Players[1].Mark)
	}

	if that.Players[0].IsComputer {
		return fmt.Errorf("%w: player 1 cannot be computer-controlled", ErrInvalidSnapshot)
	}

	for i, player := range that.Players {
		if player.Score < 0 {
			return fmt.Errorf("%w: negative score for player %d", ErrInvalidSnapshot, i+1)
		}
	}

	for i, cell := range that.Board {
		if cell != EmptyCell && !cell.IsValid() {
			return fmt.Errorf("%w: cell %d holds %q", ErrInvalidSnapshot, i, cell)
		}
	}

	// the phase has to agree with what the board says
	outcome := DetermineOutcome(that.Board, that.Players)
	switch {
	case that.Phase == PhaseAwaitingSetup && that.Board != (Board{}):
		return fmt.Errorf("%w: board is not empty while awaiting setup", ErrInvalidSnapshot)
	case that.Phase == PhaseInProgress && outcome.Kind != OutcomeNone:
		return fmt.Errorf("%w: round in progress is already decided", ErrInvalidSnapshot)
	case that.Phase == PhaseResolved && outcome.Kind == OutcomeNone:
		return fmt.Errorf("%w: resolved round has no outcome", ErrInvalidSnapshot)
	}

	return nil
}
