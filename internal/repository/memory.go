package repository

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rocketscienceinc/tictactoe-browser/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-browser/internal/entity"
)

type memoryRecord struct {
	snapshot  entity.Snapshot
	expiresAt time.Time
}

type memorySession struct {
	records *xsync.MapOf[string, memoryRecord]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySessionRepository - process-local store with the same expiry
// rules as the Redis one.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySession{
		records: xsync.NewMapOf[string, memoryRecord](),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (that *memorySession) Save(_ context.Context, id string, snapshot *entity.Snapshot) error {
	that.records.Store(id, memoryRecord{
		snapshot:  *snapshot,
		expiresAt: that.now().Add(that.ttl),
	})

	return nil
}

func (that *memorySession) GetByID(_ context.Context, id string) (*entity.Snapshot, error) {
	record, ok := that.records.Load(id)
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	if that.expired(record) {
		that.records.Delete(id)
		return nil, apperror.ErrSessionNotFound
	}

	snapshot := record.snapshot

	return &snapshot, nil
}

func (that *memorySession) DeleteByID(_ context.Context, id string) error {
	record, ok := that.records.LoadAndDelete(id)
	if !ok || that.expired(record) {
		return apperror.ErrSessionNotFound
	}

	return nil
}

func (that *memorySession) expired(record memoryRecord) bool {
	return that.ttl > 0 && !that.now().Before(record.expiresAt)
}
