package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-browser/internal/entity"
	"github.com/rocketscienceinc/tictactoe-browser/internal/usecase"
)

var (
	ErrConnectionClosed = errors.New("connection is closed")
	ErrSendQueueFull    = errors.New("send queue is full")
)

// client - one browser connection. Engine notifications arrive while the
// engine lock is held, so they are only queued here and written by
// writePump.
type client struct {
	logger  *slog.Logger
	conn    *websocket.Conn
	session *usecase.Session

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(logger *slog.Logger, conn *websocket.Conn, session *usecase.Session) *client {
	return &client{
		logger:  logger.With("sessionID", session.ID),
		conn:    conn,
		session: session,

		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (that *client) MovePlaced(cell int, mark entity.Mark) {
	that.notify(actionMovePlaced, MovePayload{Cell: cell, Mark: mark})
}

func (that *client) TurnChanged(playerIndex int) {
	that.notify(actionTurnChanged, TurnChangedPayload{Player: playerIndex})
}

func (that *client) Won(player entity.Player) {
	that.notify(actionWon, WonPayload{Player: player})
}

func (that *client) Tied() {
	that.notify(actionTie, nil)
}

func (that *client) PhaseChanged(phase entity.Phase) {
	that.notify(actionPhaseChanged, PhasePayload{Phase: phase})
}

// notify - notifications have nobody to return an error to; a broken
// connection is noticed by the read loop.
func (that *client) notify(action string, payload any) {
	if err := that.sendMessage(action, payload); err != nil {
		that.logger.Warn("failed to send notification", "action", action, "error", err)
	}
}

func (that *client) sendSession() error {
	snapshot := that.session.Engine.Snapshot()

	return that.sendMessage(actionSession, SessionPayload{
		SessionID: that.session.ID,
		Snapshot:  &snapshot,
	})
}

func (that *client) sendState() error {
	snapshot := that.session.Engine.Snapshot()

	return that.sendMessage(actionState, snapshot)
}

// sendErrorResponse - reports a failed action back to the browser.
func (that *client) sendErrorResponse(action string, err error) error {
	kind := errorKindInternal
	if apperror.IsIgnorable(err) {
		kind = errorKindIgnorable
	}

	return that.sendMessage(actionError, ErrorPayload{
		Action: action,
		Error:  err.Error(),
		Kind:   kind,
	})
}

// sendMessage - queues a message for writePump. A browser that falls
// sendQueueSize messages behind is disconnected.
func (that *client) sendMessage(action string, payload any) error {
	response := Message{Action: action}

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}

		response.Payload = body
	}

	message, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	select {
	case <-that.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case that.send <- message:
		return nil
	default:
		that.close()
		return ErrSendQueueFull
	}
}

// writePump - the only writer of data frames; also pings the browser so
// dead connections time out on read.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-that.done:
			return
		case message := <-that.send:
			if err := that.write(websocket.TextMessage, message); err != nil {
				that.logger.Debug("failed to write message", "error", err)
				that.close()
				return
			}
		case <-ticker.C:
			if err := that.write(websocket.PingMessage, nil); err != nil {
				that.logger.Debug("failed to ping", "error", err)
				that.close()
				return
			}
		}
	}
}

func (that *client) write(messageType int, data []byte) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// close - stops writePump and unblocks the read loop.
func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
		_ = that.conn.Close()
	})
}
