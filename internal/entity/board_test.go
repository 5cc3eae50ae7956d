package entity

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_IsCellEmpty(t *testing.T) {
	t.Run("Returns true for an empty cell", func(t *testing.T) {
		// Given: a fresh board
		var board Board

		// When: checking a cell
		empty, err := board.IsCellEmpty(4)

		// Then: the cell should be empty
		require.NoError(t, err)
		assert.True(t, empty)
	})

	t.Run("Returns false for an occupied cell", func(t *testing.T) {
		// Given: a board with X in the centre
		var board Board
		require.NoError(t, board.Place(4, PlayerX))

		// When: checking the centre
		empty, err := board.IsCellEmpty(4)

		// Then: the cell should be reported as occupied
		require.NoError(t, err)
		assert.False(t, empty)
	})

	t.Run("Error on invalid index", func(t *testing.T) {
		var board Board

		for _, cell := range []int{-1, 9, 42} {
			_, err := board.IsCellEmpty(cell)
			assert.ErrorIs(t, err, apperror.ErrInvalidIndex, "cell %d", cell)
		}
	})
}

func TestBoard_Place(t *testing.T) {
	t.Run("Places a mark on an empty cell", func(t *testing.T) {
		// Given: a fresh board
		var board Board

		// When: X is placed in cell 0
		err := board.Place(0, PlayerX)

		// Then: only cell 0 changes
		require.NoError(t, err)
		assert.Equal(t, Board{PlayerX, "", "", "", "", "", "", "", ""}, board)
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		// Given: a board where cell 4 holds X
		var board Board
		require.NoError(t, board.Place(4, PlayerX))
		before := board

		// When: O tries the same cell
		err := board.Place(4, PlayerO)

		// Then: ErrCellOccupied is returned and nothing changes
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, before, board)
	})

	t.Run("Error on invalid index", func(t *testing.T) {
		var board Board

		err := board.Place(9, PlayerX)

		require.ErrorIs(t, err, apperror.ErrInvalidIndex)
		assert.Equal(t, Board{}, board)
	})

	t.Run("Error on empty mark", func(t *testing.T) {
		var board Board

		err := board.Place(3, EmptyCell)

		require.ErrorIs(t, err, ErrInvalidMark)
	})
}

func TestBoard_IsFullAndReset(t *testing.T) {
	// Given: a board with every cell taken
	board := Board{
		PlayerX, PlayerO, PlayerX,
		PlayerX, PlayerO, PlayerO,
		PlayerO, PlayerX, PlayerX,
	}
	require.True(t, board.IsFull())

	// When: the board is reset twice
	board.Reset()
	board.Reset()

	// Then: every cell is empty
	assert.False(t, board.IsFull())
	assert.Equal(t, Board{}, board)
	assert.Len(t, board.EmptyCells(), BoardSize)
}

func TestBoard_WinningLine(t *testing.T) {
	t.Run("Finds every line", func(t *testing.T) {
		for _, combo := range WinCombos {
			var board Board
			for _, cell := range combo {
				board[cell] = PlayerO
			}

			line, ok := board.WinningLine(PlayerO)

			require.True(t, ok, "combo %v", combo)
			assert.Equal(t, combo, line)
		}
	})

	t.Run("First line in fixed order wins", func(t *testing.T) {
		// Given: X owns the top row and the left column
		board := Board{
			PlayerX, PlayerX, PlayerX,
			PlayerX, PlayerO, PlayerO,
			PlayerX, PlayerO, PlayerO,
		}

		// When: looking for the X line
		line, ok := board.WinningLine(PlayerX)

		// Then: the top row is reported
		require.True(t, ok)
		assert.Equal(t, [3]int{0, 1, 2}, line)
	})

	t.Run("No line for the other mark", func(t *testing.T) {
		board := Board{
			PlayerX, PlayerX, PlayerX,
			PlayerO, PlayerO, EmptyCell,
			EmptyCell, EmptyCell, EmptyCell,
		}

		_, ok := board.WinningLine(PlayerO)

		assert.False(t, ok)
	})

	t.Run("Empty mark never wins", func(t *testing.T) {
		var board Board

		_, ok := board.WinningLine(EmptyCell)

		assert.False(t, ok)
	})
}

func TestBoard_EmptyCells(t *testing.T) {
	board := Board{
		PlayerX, EmptyCell, PlayerO,
		EmptyCell, PlayerX, PlayerO,
		PlayerO, PlayerX, EmptyCell,
	}

	assert.Equal(t, []int{1, 3, 8}, board.EmptyCells())
}
