package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocationStore backs the revocation set with redis, each key
// carrying the token's own remaining lifetime as its TTL so revoked
// entries expire exactly when the token itself would have.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore builds a RevocationStore over a live redis client.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// Revoke marks tokenID as revoked for ttl (the token's remaining lifetime).
func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, revocationKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("identity: revoke token: %w", err)
	}

	return nil
}

// IsRevoked reports whether tokenID is in the revocation set. A store
// error is reported as "not revoked", so every caller fails open on a
// store outage.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) bool {
	n, err := s.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false
	}

	return n > 0
}

func revocationKey(tokenID string) string {
	return "identity:revoked:" + tokenID
}
