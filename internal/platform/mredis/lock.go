package mredis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
)

// LockFactory builds per-key distributed locks backed by redsync, used by
// the saga recovery loop to ensure a single worker processes a stuck saga.
type LockFactory struct {
	rs *redsync.Redsync
}

// NewLockFactory builds a LockFactory from a live redis client.
func NewLockFactory(conn *Connection) *LockFactory {
	pool := goredis.NewPool(conn.Client)
	return &LockFactory{rs: redsync.New(pool)}
}

// Lock is a held distributed lock; callers must call Unlock when done.
type Lock struct {
	mutex *redsync.Mutex
}

// Acquire tries up to 8 times (redsync's internal retry) to obtain the lock
// for key, holding it for at most ttl; it returns an error if the lock is
// still held by someone else after the last try or ctx is done.
func (f *LockFactory) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	mutex := f.rs.NewMutex(key, redsync.WithExpiry(ttl), redsync.WithTries(8))

	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("mredis: acquire lock %q: %w", key, err)
	}

	return &Lock{mutex: mutex}, nil
}

// Unlock releases the lock. Callers should log, not panic, on error — the
// lock will still expire via its TTL.
func (l *Lock) Unlock(ctx context.Context) (bool, error) {
	ok, err := l.mutex.UnlockContext(ctx)
	if err != nil {
		return ok, fmt.Errorf("mredis: unlock: %w", err)
	}

	return ok, nil
}
