package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLoginAttemptStore struct {
	counters map[string]int
	locked   map[string]bool
}

func newMemoryLoginAttemptStore() *memoryLoginAttemptStore {
	return &memoryLoginAttemptStore{counters: map[string]int{}, locked: map[string]bool{}}
}

func (s *memoryLoginAttemptStore) FailedAttempts(_ context.Context, subject string) (int, bool, error) {
	return s.counters[subject], s.locked[subject], nil
}

func (s *memoryLoginAttemptStore) RecordFailure(_ context.Context, subject string, threshold int) (bool, error) {
	s.counters[subject]++
	if s.counters[subject] >= threshold {
		s.locked[subject] = true
		return true, nil
	}

	return false, nil
}

func (s *memoryLoginAttemptStore) Reset(_ context.Context, subject string) error {
	delete(s.counters, subject)
	delete(s.locked, subject)

	return nil
}

func (s *memoryLoginAttemptStore) AdminUnlock(ctx context.Context, subject string) error {
	return s.Reset(ctx, subject)
}

func TestLoginGuardLocksAtThreshold(t *testing.T) {
	store := newMemoryLoginAttemptStore()
	guard := NewLoginGuard(store, 5)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, guard.RecordFailure(ctx, "alice"))
		require.NoError(t, guard.CheckLocked(ctx, "alice"))
	}

	require.NoError(t, guard.RecordFailure(ctx, "alice"))

	err := guard.CheckLocked(ctx, "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestLoginGuardResetsOnSuccess(t *testing.T) {
	store := newMemoryLoginAttemptStore()
	guard := NewLoginGuard(store, 5)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, guard.RecordFailure(ctx, "bob"))
	}

	require.NoError(t, guard.RecordSuccess(ctx, "bob"))

	n, locked, err := store.FailedAttempts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, locked)
}

func TestLoginGuardAdminUnlock(t *testing.T) {
	store := newMemoryLoginAttemptStore()
	guard := NewLoginGuard(store, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, guard.RecordFailure(ctx, "carol"))
	}

	require.Error(t, guard.CheckLocked(ctx, "carol"))

	require.NoError(t, guard.AdminUnlock(ctx, "carol"))
	require.NoError(t, guard.CheckLocked(ctx, "carol"))
}
