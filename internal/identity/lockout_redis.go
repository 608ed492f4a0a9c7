package identity

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLoginAttemptStore backs the failed-login counter and lock flag in
// redis, keyed by subject.
type RedisLoginAttemptStore struct {
	client *redis.Client
}

// NewRedisLoginAttemptStore builds a LoginAttemptStore over a live redis
// client.
func NewRedisLoginAttemptStore(client *redis.Client) *RedisLoginAttemptStore {
	return &RedisLoginAttemptStore{client: client}
}

// FailedAttempts returns the current counter value and whether the subject
// is locked.
func (s *RedisLoginAttemptStore) FailedAttempts(ctx context.Context, subject string) (int, bool, error) {
	locked, err := s.client.Exists(ctx, lockKey(subject)).Result()
	if err != nil {
		return 0, false, fmt.Errorf("identity: check lock: %w", err)
	}

	n, err := s.client.Get(ctx, counterKey(subject)).Int()
	if err != nil && err != redis.Nil {
		return 0, false, fmt.Errorf("identity: get counter: %w", err)
	}

	return n, locked > 0, nil
}

// RecordFailure increments the counter and sets the lock flag once it
// reaches threshold.
func (s *RedisLoginAttemptStore) RecordFailure(ctx context.Context, subject string, threshold int) (bool, error) {
	n, err := s.client.Incr(ctx, counterKey(subject)).Result()
	if err != nil {
		return false, fmt.Errorf("identity: incr counter: %w", err)
	}

	if int(n) >= threshold {
		if err := s.client.Set(ctx, lockKey(subject), "1", 0).Err(); err != nil {
			return false, fmt.Errorf("identity: set lock: %w", err)
		}

		return true, nil
	}

	return false, nil
}

// Reset clears the counter and lock flag after a successful login.
func (s *RedisLoginAttemptStore) Reset(ctx context.Context, subject string) error {
	if err := s.client.Del(ctx, counterKey(subject), lockKey(subject)).Err(); err != nil {
		return fmt.Errorf("identity: reset: %w", err)
	}

	return nil
}

// AdminUnlock clears the lock flag and counter regardless of their values.
func (s *RedisLoginAttemptStore) AdminUnlock(ctx context.Context, subject string) error {
	return s.Reset(ctx, subject)
}

func counterKey(subject string) string { return "identity:failcount:" + subject }
func lockKey(subject string) string    { return "identity:locked:" + subject }
