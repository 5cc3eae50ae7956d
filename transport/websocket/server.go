package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-browser/internal/usecase"
)

const (
	sessionCookie = "user_session"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

var ErrUnknownAction = errors.New("unknown action")

type sessionManager interface {
	Open(ctx context.Context, id string) (*usecase.Session, error)
}

type handlerFunc func(ctx context.Context, client *client, msg *Message) error

type Server struct {
	logger    *slog.Logger
	sessions  sessionManager
	cookieTTL time.Duration

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

// New - WebSocket endpoint; cookieTTL should match the session TTL.
func New(logger *slog.Logger, sessions sessionManager, cookieTTL time.Duration) *Server {
	server := &Server{
		logger:    logger.With("component", "websocket"),
		sessions:  sessions,
		cookieTTL: cookieTTL,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionConfigure] = server.handleConfigure
	server.handlers[actionStart] = server.handleStart
	server.handlers[actionTurn] = server.handleTurn
	server.handlers[actionRematch] = server.handleRematch
	server.handlers[actionReset] = server.handleReset
	server.handlers[actionState] = server.handleState

	return server
}

// ServeHTTP - upgrades the connection to WebSocket and serves it until the
// browser goes away.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	session, err := that.sessions.Open(req.Context(), that.sessionID(req))
	if err != nil {
		log.Error("failed to open session", "error", err)
		http.Error(writer, "failed to open session", http.StatusInternalServerError)
		return
	}

	header := http.Header{}
	header.Add("Set-Cookie", (&http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Expires:  time.Now().Add(that.cookieTTL),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}).String())

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		// the upgrader has already replied to the browser
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that.logger, conn, session)
	defer client.close()

	detach := session.Attach(client)
	defer detach()

	log.Info("WebSocket connection established", "sessionID", session.ID)

	if err = client.sendSession(); err != nil {
		log.Error("failed to send session", "sessionID", session.ID, "error", err)
		return
	}

	go client.writePump()

	if err = that.handleMessages(req.Context(), client); err != nil {
		log.Info("WebSocket connection closed", "sessionID", session.ID, "reason", err)
	}
}

// sessionID - the query parameter wins over the cookie so a link can
// resume a specific session.
func (that *Server) sessionID(req *http.Request) string {
	if id := req.URL.Query().Get("session"); id != "" {
		return id
	}

	if cookie, err := req.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}

	return ""
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, client *client) error {
	log := client.logger.With("method", "handleMessages")

	client.conn.SetReadLimit(maxMessageSize)
	if err := client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}

	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, body, err := client.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		if err = client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		client.session.Touch(time.Now())

		var message Message
		if err = json.Unmarshal(body, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			continue
		}

		if err = that.dispatch(ctx, client, &message); err != nil {
			if sendErr := client.sendErrorResponse(message.Action, err); sendErr != nil {
				return fmt.Errorf("failed to send error response: %w", sendErr)
			}
		}
	}
}

func (that *Server) dispatch(ctx context.Context, client *client, msg *Message) error {
	log := client.logger.With("method", "dispatch", "action", msg.Action)

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Warn("unknown action")
		return fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
	}

	err := handler(ctx, client, msg)
	if err == nil {
		return nil
	}

	if apperror.IsIgnorable(err) {
		log.Debug("action rejected", "error", err)
	} else {
		log.Error("error processing message", "error", err)
	}

	return err
}
