package tictactoe

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-browser/internal/entity"
)

var ErrComputerToMove = errors.New("computer player is to move")

type ResultKind string

const (
	ResultContinue ResultKind = "continue"
	ResultWin      ResultKind = "win"
	ResultTie      ResultKind = "tie"
)

// Result - what an accepted move led to. Player is the winner for
// ResultWin and the player to move next for ResultContinue.
type Result struct {
	Kind        ResultKind
	PlayerIndex int
	Player      entity.Player
	Line        [3]int
}

// Engine - game state for one session. Every method is safe to call from
// the transport goroutine while a computer move timer is pending.
type Engine struct {
	mu sync.Mutex

	logger    *slog.Logger
	notifier  Notifier
	policy    Policy
	scheduler Scheduler
	delay     time.Duration

	board   entity.Board
	players [2]entity.Player
	turn    int
	phase   entity.Phase

	cancelPending func() bool
	generation    uint64
}

func NewEngine(logger *slog.Logger, policy Policy, scheduler Scheduler, delay time.Duration) *Engine {
	return &Engine{
		logger:    logger.With("component", "engine"),
		notifier:  nopNotifier{},
		policy:    policy,
		scheduler: scheduler,
		delay:     delay,

		players: entity.NewPlayers("", "", false),
		phase:   entity.PhaseAwaitingSetup,
	}
}

// SetNotifier - swaps the presentation sink; nil detaches it.
func (that *Engine) SetNotifier(notifier Notifier) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if notifier == nil {
		notifier = nopNotifier{}
	}

	that.notifier = notifier
}

// Configure - sets names and the computer flag. Scores are left alone.
func (that *Engine) Configure(name1, name2 string, player2IsComputer bool) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmPhase("configure", entity.PhaseAwaitingSetup); err != nil {
		return err
	}

	configured := entity.NewPlayers(name1, name2, player2IsComputer)
	for i := range configured {
		configured[i].Score = that.players[i].Score
	}
	that.players = configured

	that.logger.Debug("players configured",
		"player1", configured[0].Label(),
		"player2", configured[1].Label(),
		"computer", player2IsComputer,
	)

	return nil
}

func (that *Engine) Start() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmPhase("start", entity.PhaseAwaitingSetup); err != nil {
		return err
	}

	that.beginRound()

	return nil
}

// SubmitMove - places the current player's mark. Used for human moves; the
// computer's scheduled move goes through the same applyMove path.
func (that *Engine) SubmitMove(cell int) (Result, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmPhase("submit move", entity.PhaseInProgress); err != nil {
		return Result{}, err
	}

	if that.players[that.turn].IsComputer {
		return Result{}, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, ErrComputerToMove)
	}

	return that.applyMove(cell)
}

// Rematch - new round with the same players and scores.
func (that *Engine) Rematch() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmPhase("rematch", entity.PhaseResolved, entity.PhaseInProgress); err != nil {
		return err
	}

	that.cancelComputerMove()
	that.beginRound()

	return nil
}

// ResetAll - back to setup with scores zeroed. Allowed in every phase.
func (that *Engine) ResetAll() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelComputerMove()

	that.board.Reset()
	that.turn = 0
	for i := range that.players {
		that.players[i].Score = 0
		that.players[i].IsComputer = false
	}

	that.setPhase(entity.PhaseAwaitingSetup)
}

// Restore - loads a stored snapshot into an engine that has not been used yet.
func (that *Engine) Restore(snapshot entity.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmPhase("restore", entity.PhaseAwaitingSetup); err != nil {
		return err
	}

	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	that.board = snapshot.Board
	that.players = snapshot.Players
	that.turn = snapshot.Turn
	that.phase = snapshot.Phase

	if that.phase == entity.PhaseInProgress && that.players[that.turn].IsComputer {
		that.scheduleComputerMove()
	}

	return nil
}

func (that *Engine) Phase() entity.Phase {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.phase
}

func (that *Engine) Board() entity.Board {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.board
}

// CurrentPlayer - the player to move, or the winner once the round is won.
func (that *Engine) CurrentPlayer() (int, entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.turn, that.players[that.turn]
}

func (that *Engine) Players() [2]entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.players
}

func (that *Engine) Outcome() entity.Outcome {
	that.mu.Lock()
	defer that.mu.Unlock()

	return entity.DetermineOutcome(that.board, that.players)
}

func (that *Engine) Snapshot() entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return entity.Snapshot{
		Phase:   that.phase,
		Board:   that.board,
		Turn:    that.turn,
		Players: that.players,
		Outcome: entity.DetermineOutcome(that.board, that.players),
	}
}

// MovePending - true while a computer move is scheduled and not yet played.
func (that *Engine) MovePending() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.cancelPending != nil
}

// Close - drops any pending computer move. The engine stays usable.
func (that *Engine) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.cancelComputerMove()
}

func (that *Engine) applyMove(cell int) (Result, error) {
	current := &that.players[that.turn]

	if err := that.board.Place(cell, current.Mark); err != nil {
		if errors.Is(err, apperror.ErrCellOccupied) {
			return Result{}, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
		}

		return Result{}, fmt.Errorf("failed to place mark: %w", err)
	}

	that.notifier.MovePlaced(cell, current.Mark)

	// win is checked for the mark just placed, before the turn moves on
	if line, ok := that.board.WinningLine(current.Mark); ok {
		current.Score++
		that.notifier.Won(*current)
		that.setPhase(entity.PhaseResolved)

		that.logger.Debug("round won", "player", current.Label(), "score", current.Score)

		return Result{Kind: ResultWin, PlayerIndex: that.turn, Player: *current, Line: line}, nil
	}

	if that.board.IsFull() {
		that.notifier.Tied()
		that.setPhase(entity.PhaseResolved)

		that.logger.Debug("round tied")

		return Result{Kind: ResultTie, PlayerIndex: that.turn, Player: *current}, nil
	}

	that.turn = 1 - that.turn
	that.notifier.TurnChanged(that.turn)

	next := that.players[that.turn]
	if next.IsComputer {
		that.scheduleComputerMove()
	}

	return Result{Kind: ResultContinue, PlayerIndex: that.turn, Player: next}, nil
}

func (that *Engine) beginRound() {
	that.board.Reset()
	that.turn = 0
	that.setPhase(entity.PhaseInProgress)
	that.notifier.TurnChanged(that.turn)
}

func (that *Engine) setPhase(phase entity.Phase) {
	that.phase = phase
	that.notifier.PhaseChanged(phase)
}

func (that *Engine) confirmPhase(operation string, allowed ...entity.Phase) error {
	for _, phase := range allowed {
		if that.phase == phase {
			return nil
		}
	}

	return fmt.Errorf("%w: cannot %s while %s", apperror.ErrOutOfPhase, operation, that.phase)
}

func (that *Engine) scheduleComputerMove() {
	that.cancelComputerMove()

	generation := that.generation
	that.cancelPending = that.scheduler.Schedule(that.delay, func() {
		that.playComputerMove(generation)
	})
}

// cancelComputerMove - the generation bump also covers a timer that already
// fired and is waiting for the lock.
func (that *Engine) cancelComputerMove() {
	if that.cancelPending != nil {
		that.cancelPending()
		that.cancelPending = nil
	}

	that.generation++
}

func (that *Engine) playComputerMove(generation uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "playComputerMove")

	if generation != that.generation {
		log.Debug("discarding stale computer move")
		return
	}

	that.cancelPending = nil

	if that.phase != entity.PhaseInProgress || !that.players[that.turn].IsComputer {
		log.Debug("computer is not to move", "phase", that.phase, "turn", that.turn)
		return
	}

	cell, err := that.policy.ChooseMove(that.board)
	if err != nil {
		log.Error("failed to choose computer move", "error", err)
		return
	}

	if _, err = that.applyMove(cell); err != nil {
		log.Error("failed to apply computer move", "cell", cell, "error", err)
	}
}
