package tictactoe

import (
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-browser/internal/entity"
)

// Policy - picks the cell for a computer-controlled player. It must not
// modify the board it is given.
type Policy interface {
	ChooseMove(board entity.Board) (int, error)
}

type randomPolicy struct {
	intN func(n int) int
}

// NewRandomPolicy - uniform choice among the empty cells.
func NewRandomPolicy() Policy {
	return &randomPolicy{intN: rand.IntN} //nolint: gosec // it's ok
}

func (that *randomPolicy) ChooseMove(board entity.Board) (int, error) {
	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return 0, apperror.ErrNoLegalMove
	}

	return availableCells[that.intN(len(availableCells))], nil
}
