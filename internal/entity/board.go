package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
)

const BoardSize = 9

type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

var (
	ErrInvalidMark = errors.New("invalid mark")

	// WinCombos - lines are checked in this order, the first match wins.
	WinCombos = [8][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

func (that Mark) IsValid() bool {
	return that == PlayerX || that == PlayerO
}

// Board - cells addressed 0..8 in row-major order.
type Board [BoardSize]Mark

func (that *Board) IsCellEmpty(cell int) (bool, error) {
	if err := validateCell(cell); err != nil {
		return false, err
	}

	return that[cell] == EmptyCell, nil
}

// Place - the only way a mark gets onto the board.
func (that *Board) Place(cell int, mark Mark) error {
	if err := validateCell(cell); err != nil {
		return err
	}

	if !mark.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMark, mark)
	}

	if that[cell] != EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	that[cell] = mark

	return nil
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Board) Reset() {
	for i := range that {
		that[i] = EmptyCell
	}
}

// WinningLine - returns the first line fully owned by mark.
func (that *Board) WinningLine(mark Mark) ([3]int, bool) {
	if !mark.IsValid() {
		return [3]int{}, false
	}

	for _, combo := range WinCombos {
		if that[combo[0]] == mark && that[combo[1]] == mark && that[combo[2]] == mark {
			return combo, true
		}
	}

	return [3]int{}, false
}

// EmptyCells - indices of empty cells in ascending order.
func (that *Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

func validateCell(cell int) error {
	if cell < 0 || cell >= BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidIndex, cell)
	}

	return nil
}
