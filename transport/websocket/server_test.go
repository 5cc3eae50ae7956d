package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-browser/internal/config"
	"github.com/rocketscienceinc/tictactoe-browser/internal/entity"
	"github.com/rocketscienceinc/tictactoe-browser/internal/repository"
	"github.com/rocketscienceinc/tictactoe-browser/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-browser/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-browser/testing/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	url       string
	scheduler *schedule.Manual
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scheduler := schedule.NewManual()
	manager := usecase.NewSessionManager(
		logger,
		repository.NewMemorySessionRepository(time.Hour),
		tictactoe.NewRandomPolicy(),
		scheduler,
		config.Game{ComputerDelay: time.Millisecond, SessionTTL: time.Hour, SweepInterval: time.Minute},
	)

	server := httptest.NewServer(New(logger, manager, time.Hour))
	t.Cleanup(server.Close)

	return &testServer{
		url:       "ws" + strings.TrimPrefix(server.URL, "http"),
		scheduler: scheduler,
	}
}

func (that *testServer) dial(t *testing.T, query string) (*websocket.Conn, SessionPayload) {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(that.url+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionCookie, cookies[0].Name)

	session := decode[SessionPayload](t, expect(t, conn, actionSession))
	assert.Equal(t, cookies[0].Value, session.SessionID)

	return conn, session
}

func send(t *testing.T, conn *websocket.Conn, action string, payload any) {
	t.Helper()

	msg := Message{Action: action}
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = body
	}

	require.NoError(t, conn.WriteJSON(msg))
}

func expect(t *testing.T, conn *websocket.Conn, action string) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, action, msg.Action, string(msg.Payload))

	return msg
}

func decode[T any](t *testing.T, msg Message) T {
	t.Helper()

	var payload T
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))

	return payload
}

func cell(i int) TurnPayload {
	return TurnPayload{Cell: &i}
}

func TestServer_HumanGame(t *testing.T) {
	// Given: a fresh connection
	server := newTestServer(t)
	conn, session := server.dial(t, "")
	assert.Equal(t, entity.PhaseAwaitingSetup, session.Snapshot.Phase)

	// When: two humans are configured
	send(t, conn, actionConfigure, ConfigurePayload{Player1: "Alice", Player2: "Bob"})

	// Then: the new state comes back
	state := decode[entity.Snapshot](t, expect(t, conn, actionState))
	assert.Equal(t, "Alice", state.Players[0].Name)
	assert.Equal(t, "Bob", state.Players[1].Name)

	// When: the round starts
	send(t, conn, actionStart, nil)

	// Then: phase and turn are announced in order
	assert.Equal(t, entity.PhaseInProgress, decode[PhasePayload](t, expect(t, conn, actionPhaseChanged)).Phase)
	assert.Equal(t, 0, decode[TurnChangedPayload](t, expect(t, conn, actionTurnChanged)).Player)

	// When: X completes the top row
	for i, move := range []int{0, 3, 1, 4} {
		send(t, conn, actionTurn, cell(move))

		placed := decode[MovePayload](t, expect(t, conn, actionMovePlaced))
		assert.Equal(t, move, placed.Cell)
		assert.Equal(t, (i+1)%2, decode[TurnChangedPayload](t, expect(t, conn, actionTurnChanged)).Player)
	}

	send(t, conn, actionTurn, cell(2))

	// Then: the win is reported before the phase change
	assert.Equal(t, MovePayload{Cell: 2, Mark: entity.PlayerX}, decode[MovePayload](t, expect(t, conn, actionMovePlaced)))
	won := decode[WonPayload](t, expect(t, conn, actionWon))
	assert.Equal(t, "Alice", won.Player.Name)
	assert.Equal(t, 1, won.Player.Score)
	assert.Equal(t, entity.PhaseResolved, decode[PhasePayload](t, expect(t, conn, actionPhaseChanged)).Phase)

	// When: a rematch is requested
	send(t, conn, actionRematch, nil)
	expect(t, conn, actionPhaseChanged)
	expect(t, conn, actionTurnChanged)

	send(t, conn, actionState, nil)
	state = decode[entity.Snapshot](t, expect(t, conn, actionState))
	assert.Equal(t, entity.Board{}, state.Board)
	assert.Equal(t, 1, state.Players[0].Score)

	// When: everything is reset
	send(t, conn, actionReset, nil)

	// Then: the session is back in setup with scores cleared
	assert.Equal(t, entity.PhaseAwaitingSetup, decode[PhasePayload](t, expect(t, conn, actionPhaseChanged)).Phase)
	state = decode[entity.Snapshot](t, expect(t, conn, actionState))
	assert.Equal(t, entity.PhaseAwaitingSetup, state.Phase)
	for _, player := range state.Players {
		assert.Zero(t, player.Score)
		assert.False(t, player.IsComputer)
	}
}

func TestServer_ComputerGame(t *testing.T) {
	server := newTestServer(t)
	conn, _ := server.dial(t, "")

	send(t, conn, actionConfigure, ConfigurePayload{Player1: "Alice", Computer: true})
	state := decode[entity.Snapshot](t, expect(t, conn, actionState))
	assert.Equal(t, entity.DefaultComputerName, state.Players[1].Name)

	send(t, conn, actionStart, nil)
	expect(t, conn, actionPhaseChanged)
	expect(t, conn, actionTurnChanged)

	// Given: the human has moved
	send(t, conn, actionTurn, cell(4))
	expect(t, conn, actionMovePlaced)
	assert.Equal(t, 1, decode[TurnChangedPayload](t, expect(t, conn, actionTurnChanged)).Player)

	// When: the human tries to move again before the computer
	send(t, conn, actionTurn, cell(0))
	rejected := decode[ErrorPayload](t, expect(t, conn, actionError))
	assert.Equal(t, errorKindIgnorable, rejected.Kind)

	// When: the computer's delay elapses
	require.Eventually(t, func() bool { return server.scheduler.Pending() == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, server.scheduler.Fire())

	// Then: its move arrives and the turn returns to the human
	placed := decode[MovePayload](t, expect(t, conn, actionMovePlaced))
	assert.Equal(t, entity.PlayerO, placed.Mark)
	assert.NotEqual(t, 4, placed.Cell)
	assert.Equal(t, 0, decode[TurnChangedPayload](t, expect(t, conn, actionTurnChanged)).Player)
}

func TestServer_Errors(t *testing.T) {
	server := newTestServer(t)
	conn, _ := server.dial(t, "")

	tests := []struct {
		name    string
		action  string
		payload any
		kind    string
	}{
		{name: "Turn before start", action: actionTurn, payload: cell(0), kind: errorKindIgnorable},
		{name: "Rematch before start", action: actionRematch, kind: errorKindIgnorable},
		{name: "Unknown action", action: "game:fly", kind: errorKindInternal},
		{name: "Configure without payload", action: actionConfigure, kind: errorKindInternal},
		{name: "Turn without cell", action: actionTurn, payload: struct{}{}, kind: errorKindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.action, tt.payload)

			reply := decode[ErrorPayload](t, expect(t, conn, actionError))
			assert.Equal(t, tt.action, reply.Action)
			assert.Equal(t, tt.kind, reply.Kind)
			assert.NotEmpty(t, reply.Error)
		})
	}

	t.Run("Occupied and out of range cells", func(t *testing.T) {
		send(t, conn, actionStart, nil)
		expect(t, conn, actionPhaseChanged)
		expect(t, conn, actionTurnChanged)

		send(t, conn, actionTurn, cell(9))
		assert.Equal(t, errorKindInternal, decode[ErrorPayload](t, expect(t, conn, actionError)).Kind)

		send(t, conn, actionTurn, cell(0))
		expect(t, conn, actionMovePlaced)
		expect(t, conn, actionTurnChanged)

		send(t, conn, actionTurn, cell(0))
		assert.Equal(t, errorKindIgnorable, decode[ErrorPayload](t, expect(t, conn, actionError)).Kind)
	})
}

func TestServer_Resume(t *testing.T) {
	// Given: a configured session whose connection went away
	server := newTestServer(t)
	first, session := server.dial(t, "")

	send(t, first, actionConfigure, ConfigurePayload{Player1: "Alice", Player2: "Bob"})
	expect(t, first, actionState)
	require.NoError(t, first.Close())

	// When: the browser reconnects with the session ID
	_, resumed := server.dial(t, "?session="+session.SessionID)

	// Then: the same session with its players is handed back
	assert.Equal(t, session.SessionID, resumed.SessionID)
	assert.Equal(t, "Alice", resumed.Snapshot.Players[0].Name)

	// When: an unknown ID is used
	_, fresh := server.dial(t, "?session=unknown")

	// Then: a new session is started
	assert.NotEqual(t, "unknown", fresh.SessionID)
	assert.NotEqual(t, session.SessionID, fresh.SessionID)
}
