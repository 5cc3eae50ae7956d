package tictactoe

import "github.com/rocketscienceinc/tictactoe-browser/internal/entity"

// Notifier - presentation sink for engine transitions.
// Calls are made while the engine lock is held, so implementations must not
// call back into the engine.
type Notifier interface {
	MovePlaced(cell int, mark entity.Mark)
	TurnChanged(playerIndex int)
	Won(player entity.Player)
	Tied()
	PhaseChanged(phase entity.Phase)
}

type nopNotifier struct{}

func (nopNotifier) MovePlaced(int, entity.Mark) {}
func (nopNotifier) TurnChanged(int)             {}
func (nopNotifier) Won(entity.Player)           {}
func (nopNotifier) Tied()                       {}
func (nopNotifier) PhaseChanged(entity.Phase)   {}
