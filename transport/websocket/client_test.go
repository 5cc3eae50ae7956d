package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http"
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

// newStalledClient - a client whose writer never runs, as if the browser
// stopped reading.
func newStalledClient(t *testing.T) *client {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	conns := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(server.Close)

	browser, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { browser.Close() })

	manager := usecase.NewSessionManager(
		logger,
		repository.NewMemorySessionRepository(time.Hour),
		tictactoe.NewRandomPolicy(),
		schedule.NewManual(),
		config.Game{ComputerDelay: time.Millisecond, SessionTTL: time.Hour, SweepInterval: time.Minute},
	)
	session, err := manager.Open(context.Background(), "")
	require.NoError(t, err)

	client := newClient(logger, <-conns, session)
	t.Cleanup(client.close)

	session.Attach(client)

	return client
}

func TestClient_StalledConnection(t *testing.T) {
	// Given: a browser that reads nothing
	client := newStalledClient(t)
	engine := client.session.Engine
	require.NoError(t, engine.Start())

	// When: the engine keeps producing notifications past the queue size
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < sendQueueSize; i++ {
			client.TurnChanged(0)
		}
	}()

	// Then: nothing blocks the engine
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("notifications blocked")
	}

	_, err := engine.SubmitMove(4)
	require.NoError(t, err)
	assert.Equal(t, entity.PlayerX, engine.Board()[4])

	// And: the connection is dropped instead of growing the queue
	select {
	case <-client.done:
	default:
		t.Fatal("client was not closed")
	}
	require.ErrorIs(t, client.sendMessage(actionState, nil), ErrConnectionClosed)
}

func TestClient_SendQueueFull(t *testing.T) {
	client := newStalledClient(t)

	for i := 0; i < sendQueueSize; i++ {
		require.NoError(t, client.sendMessage(actionTie, nil))
	}

	require.ErrorIs(t, client.sendMessage(actionTie, nil), ErrSendQueueFull)
	require.ErrorIs(t, client.sendMessage(actionTie, nil), ErrConnectionClosed)
}
