package rest

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-browser/internal/entity"
)

//go:embed static/index.html
var indexPage []byte

type Handlers interface {
	Index(w http.ResponseWriter, _ *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	DeleteSession(w http.ResponseWriter, r *http.Request)
}

type sessionService interface {
	Snapshot(ctx context.Context, id string) (*entity.Snapshot, error)
	End(ctx context.Context, id string) error
}

type handlers struct {
	logger   *slog.Logger
	sessions sessionService
}

func NewHandlers(logger *slog.Logger, sessions sessionService) Handlers {
	return &handlers{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
	}
}

// Index - the single page UI.
func (that *handlers) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(indexPage); err != nil {
		that.logger.Warn("failed to write index page", "error", err)
	}
}

func (that *handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetSession")
	id := chi.URLParam(r, "id")

	snapshot, err := that.sessions.Snapshot(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		log.Error("failed to get session", "sessionID", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err = json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Warn("failed to write session", "sessionID", id, "error", err)
	}
}

func (that *handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "DeleteSession")
	id := chi.URLParam(r, "id")

	if err := that.sessions.End(r.Context(), id); err != nil {
		if errors.Is(err, apperror.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		log.Error("failed to end session", "sessionID", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
