package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-browser/internal/entity"
)

// client -> server
const (
	actionConfigure = "game:configure"
	actionStart     = "game:start"
	actionTurn      = "game:turn"
	actionRematch   = "game:rematch"
	actionReset     = "game:reset"
	actionState     = "game:state"
)

// server -> client
const (
	actionSession      = "session"
	actionMovePlaced   = "move:placed"
	actionTurnChanged  = "turn:changed"
	actionWon          = "game:won"
	actionTie          = "game:tie"
	actionPhaseChanged = "phase:changed"
	actionError        = "error"
)

const (
	errorKindIgnorable = "ignorable"
	errorKindInternal  = "internal"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ConfigurePayload struct {
	Player1  string `json:"player1"`
	Player2  string `json:"player2"`
	Computer bool   `json:"computer"`
}

type TurnPayload struct {
	Cell *int `json:"cell"`
}

type SessionPayload struct {
	SessionID string           `json:"session_id"`
	Snapshot  *entity.Snapshot `json:"snapshot"`
}

type MovePayload struct {
	Cell int         `json:"cell"`
	Mark entity.Mark `json:"mark"`
}

type TurnChangedPayload struct {
	Player int `json:"player"`
}

type WonPayload struct {
	Player entity.Player `json:"player"`
}

type PhasePayload struct {
	Phase entity.Phase `json:"phase"`
}

type ErrorPayload struct {
	Action string `json:"action"`
	Error  string `json:"error"`
	Kind   string `json:"kind"`
}
