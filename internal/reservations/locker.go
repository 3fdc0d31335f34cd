package reservations

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Locker serializes check-then-write sections per (tenant, resource).
// Keys must be acquired in sorted order; the returned release func runs after
// the surrounding transaction has finished.
type Locker interface {
	Lock(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, resourceIDs []uuid.UUID) (func(), error)
}

// NewLocker picks the advisory locker on Postgres and the in-process locker elsewhere.
func NewLocker(dialect string) Locker {
	if dialect == "postgres" {
		return AdvisoryLocker{}
	}
	return NewKeyedMutexLocker()
}

// AdvisoryLocker takes pg_advisory_xact_lock per key. Postgres releases the
// locks at commit or rollback, so the release func is a no-op.
type AdvisoryLocker struct{}

func (AdvisoryLocker) Lock(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, resourceIDs []uuid.UUID) (func(), error) {
	if tx == nil {
		return nil, fmt.Errorf("advisory lock requires a transaction")
	}
	for _, id := range resourceIDs {
		if err := tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", lockKey(tenantID, id)).Error; err != nil {
			return nil, fmt.Errorf("lock resource %s: %w", id, err)
		}
	}
	return func() {}, nil
}

// KeyedMutexLocker is a single-process stand-in used with sqlite.
type KeyedMutexLocker struct {
	mu    sync.Mutex
	locks map[int64]*keyedMutex
}

type keyedMutex struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutexLocker() *KeyedMutexLocker {
	return &KeyedMutexLocker{locks: make(map[int64]*keyedMutex)}
}

func (l *KeyedMutexLocker) Lock(ctx context.Context, _ *gorm.DB, tenantID uuid.UUID, resourceIDs []uuid.UUID) (func(), error) {
	held := make([]int64, 0, len(resourceIDs))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}
	for _, id := range resourceIDs {
		if err := ctx.Err(); err != nil {
			release()
			return nil, err
		}
		key := lockKey(tenantID, id)
		if containsKey(held, key) {
			continue
		}
		l.lock(key)
		held = append(held, key)
	}
	return release, nil
}

func (l *KeyedMutexLocker) lock(key int64) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyedMutex{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *KeyedMutexLocker) unlock(key int64) {
	l.mu.Lock()
	entry := l.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}

func containsKey(keys []int64, key int64) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func lockKey(tenantID, resourceID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write(tenantID[:])
	_, _ = h.Write(resourceID[:])
	return int64(h.Sum64())
}
