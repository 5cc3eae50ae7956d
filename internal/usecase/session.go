package usecase

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/tictactoe-browser/internal/entity"
	"github.com/rocketscienceinc/tictactoe-browser/internal/tictactoe"
)

// Session - one browser session: its engine and the connection currently
// watching it.
type Session struct {
	ID     string
	Engine *tictactoe.Engine

	lastSeen atomic.Int64

	mu         sync.Mutex
	notifier   tictactoe.Notifier
	attachment uint64

	saveCh   chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newSession(id string, engine *tictactoe.Engine, now time.Time) *Session {
	session := &Session{
		ID:     id,
		Engine: engine,
		saveCh: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	session.lastSeen.Store(now.UnixNano())

	engine.SetNotifier(session)

	return session
}

// Attach - routes engine notifications to notifier until the returned
// detach func is called or another notifier is attached.
func (that *Session) Attach(notifier tictactoe.Notifier) (detach func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.attachment++
	attachment := that.attachment
	that.notifier = notifier

	return func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		if that.attachment == attachment {
			that.notifier = nil
		}
	}
}

func (that *Session) Attached() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.notifier != nil
}

func (that *Session) Touch(now time.Time) {
	that.lastSeen.Store(now.UnixNano())
}

func (that *Session) LastSeen() time.Time {
	return time.Unix(0, that.lastSeen.Load())
}

func (that *Session) MovePlaced(cell int, mark entity.Mark) {
	if notifier := that.current(); notifier != nil {
		notifier.MovePlaced(cell, mark)
	}
	that.RequestSave()
}

func (that *Session) TurnChanged(playerIndex int) {
	if notifier := that.current(); notifier != nil {
		notifier.TurnChanged(playerIndex)
	}
}

func (that *Session) Won(player entity.Player) {
	if notifier := that.current(); notifier != nil {
		notifier.Won(player)
	}
	that.RequestSave()
}

func (that *Session) Tied() {
	if notifier := that.current(); notifier != nil {
		notifier.Tied()
	}
	that.RequestSave()
}

func (that *Session) PhaseChanged(phase entity.Phase) {
	if notifier := that.current(); notifier != nil {
		notifier.PhaseChanged(phase)
	}
	that.RequestSave()
}

// RequestSave - asks the background saver to store the current snapshot.
// Repeated requests before the saver runs collapse into one.
func (that *Session) RequestSave() {
	select {
	case that.saveCh <- struct{}{}:
	default:
	}
}

func (that *Session) current() tictactoe.Notifier {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.notifier
}
