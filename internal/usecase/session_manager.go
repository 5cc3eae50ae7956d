package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-browser/internal/config"
	"github.com/rocketscienceinc/tictactoe-browser/internal/entity"
	"github.com/rocketscienceinc/tictactoe-browser/internal/tictactoe"
)

const saveTimeout = 5 * time.Second

type sessionRepo interface {
	Save(ctx context.Context, id string, snapshot *entity.Snapshot) error
	GetByID(ctx context.Context, id string) (*entity.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

// SessionManager - owns one engine per browser session and keeps the
// session snapshots in the repository up to date.
type SessionManager struct {
	logger      *slog.Logger
	sessionRepo sessionRepo

	policy    tictactoe.Policy
	scheduler tictactoe.Scheduler
	conf      config.Game

	sessions *xsync.MapOf[string, *Session]
	now      func() time.Time
	newID    func() string
}

func NewSessionManager(
	logger *slog.Logger,
	sessionRepo sessionRepo,
	policy tictactoe.Policy,
	scheduler tictactoe.Scheduler,
	conf config.Game,
) *SessionManager {
	return &SessionManager{
		logger:      logger,
		sessionRepo: sessionRepo,

		policy:    policy,
		scheduler: scheduler,
		conf:      conf,

		sessions: xsync.NewMapOf[string, *Session](),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Open - returns the live session for id, restores it from the repository,
// or starts a new one under a fresh ID when id is empty or unknown.
func (that *SessionManager) Open(ctx context.Context, id string) (*Session, error) {
	log := that.logger.With("method", "Open")

	if id != "" {
		if session, ok := that.sessions.Load(id); ok {
			session.Touch(that.now())
			return session, nil
		}

		snapshot, err := that.sessionRepo.GetByID(ctx, id)
		switch {
		case err == nil:
			session, err := that.restore(id, snapshot)
			if err != nil {
				log.Warn("discarding unusable snapshot", "sessionID", id, "error", err)
				break
			}

			log.Info("session restored",
				"sessionID", session.ID,
				"phase", snapshot.Phase,
				"toMove", snapshot.CurrentPlayer().Label(),
			)

			return session, nil
		case errors.Is(err, apperror.ErrSessionNotFound):
			log.Debug("session not found, starting a new one", "sessionID", id)
		default:
			return nil, fmt.Errorf("failed to get session by id: %w", err)
		}
	}

	session := that.register(that.newID(), that.newEngine())
	session.RequestSave()

	log.Info("session created", "sessionID", session.ID)

	return session, nil
}

// Get - live sessions only.
func (that *SessionManager) Get(id string) (*Session, error) {
	session, ok := that.sessions.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	return session, nil
}

// Snapshot - state of a live session, or the stored one if it is not loaded.
func (that *SessionManager) Snapshot(ctx context.Context, id string) (*entity.Snapshot, error) {
	if session, ok := that.sessions.Load(id); ok {
		snapshot := session.Engine.Snapshot()
		return &snapshot, nil
	}

	snapshot, err := that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session snapshot: %w", err)
	}

	return snapshot, nil
}

// End - stops a session and removes its stored snapshot.
func (that *SessionManager) End(ctx context.Context, id string) error {
	log := that.logger.With("method", "End", "sessionID", id)

	session, loaded := that.sessions.LoadAndDelete(id)
	if loaded {
		that.stop(session)
	}

	err := that.sessionRepo.DeleteByID(ctx, id)
	if errors.Is(err, apperror.ErrSessionNotFound) && loaded {
		err = nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	log.Info("session ended")

	return nil
}

// Run - evicts idle sessions until ctx is done, then stops all of them.
func (that *SessionManager) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	ticker := time.NewTicker(that.conf.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			that.closeAll()
			log.Info("session manager stopped")
			return nil
		case <-ticker.C:
			if evicted := that.Sweep(); evicted > 0 {
				log.Info("idle sessions evicted", "count", evicted)
			}
		}
	}
}

// Sweep - drops sessions with no connection that have been idle for longer
// than the session TTL. Returns how many were dropped.
func (that *SessionManager) Sweep() int {
	deadline := that.now().Add(-that.conf.SessionTTL)

	evicted := 0
	that.sessions.Range(func(id string, session *Session) bool {
		if session.Attached() || session.LastSeen().After(deadline) {
			return true
		}

		if that.evict(id, session) {
			evicted++
		}

		return true
	})

	return evicted
}

func (that *SessionManager) closeAll() {
	that.sessions.Range(func(id string, session *Session) bool {
		that.evict(id, session)
		return true
	})
}

// evict - removes id only while it still maps to session; End or a new
// Open may have replaced it since it was read.
func (that *SessionManager) evict(id string, session *Session) bool {
	removed := false
	that.sessions.Compute(id, func(current *Session, loaded bool) (*Session, bool) {
		removed = loaded && current == session
		return current, !loaded || removed
	})

	if removed {
		that.stop(session)
	}

	return removed
}

func (that *SessionManager) restore(id string, snapshot *entity.Snapshot) (*Session, error) {
	engine := that.newEngine()
	if err := engine.Restore(*snapshot); err != nil {
		return nil, fmt.Errorf("failed to restore engine: %w", err)
	}

	return that.register(id, engine), nil
}

// register - stores a new session unless one with the same ID appeared in
// the meantime, in which case that one wins.
func (that *SessionManager) register(id string, engine *tictactoe.Engine) *Session {
	session := newSession(id, engine, that.now())

	existing, loaded := that.sessions.LoadOrStore(id, session)
	if loaded {
		engine.Close()
		existing.Touch(that.now())
		return existing
	}

	go that.persist(session)

	return session
}

func (that *SessionManager) newEngine() *tictactoe.Engine {
	return tictactoe.NewEngine(that.logger, that.policy, that.scheduler, that.conf.ComputerDelay)
}

// persist - saves the session whenever it asks for it; a final save runs
// when the session is stopped.
func (that *SessionManager) persist(session *Session) {
	defer close(session.done)

	for {
		select {
		case <-session.saveCh:
			that.save(session)
		case <-session.stop:
			that.save(session)
			return
		}
	}
}

func (that *SessionManager) save(session *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	snapshot := session.Engine.Snapshot()
	if err := that.sessionRepo.Save(ctx, session.ID, &snapshot); err != nil {
		that.logger.Error("failed to save session", "sessionID", session.ID, "error", err)
	}
}

// stop - safe to call more than once; every caller waits for the final save.
func (that *SessionManager) stop(session *Session) {
	session.Engine.Close()
	session.stopOnce.Do(func() { close(session.stop) })
	<-session.done
}
