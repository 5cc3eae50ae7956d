package apperror

import "errors"

var (
	ErrInvalidIndex    = errors.New("invalid cell index")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrIllegalMove     = errors.New("illegal move")
	ErrOutOfPhase      = errors.New("operation is not allowed in the current phase")
	ErrNoLegalMove     = errors.New("no legal move available")
	ErrSessionNotFound = errors.New("session not found")
)

// IsIgnorable - reports whether the error is a stale or repeated user intent
// that the UI may drop silently.
func IsIgnorable(err error) bool {
	return errors.Is(err, ErrCellOccupied) ||
		errors.Is(err, ErrIllegalMove) ||
		errors.Is(err, ErrOutOfPhase)
}
