package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOTPStore backs the one-time-code store with redis: one key per
// subject, expiring on the server-assigned TTL, consumed atomically on
// verification.
type RedisOTPStore struct {
	client *redis.Client
}

// NewRedisOTPStore builds an OTPStore over a live redis client.
func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

// Put stores code for subject, replacing any outstanding one.
func (s *RedisOTPStore) Put(ctx context.Context, subject, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, otpKey(subject), code, ttl).Err(); err != nil {
		return fmt.Errorf("identity: store otp: %w", err)
	}

	return nil
}

// consumeScript compares and deletes in one round trip so two concurrent
// verifications can't both succeed on the same code.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// Consume reports whether code matches the outstanding one for subject,
// deleting it on a match.
func (s *RedisOTPStore) Consume(ctx context.Context, subject, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{otpKey(subject)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("identity: consume otp: %w", err)
	}

	return n == 1, nil
}

func otpKey(subject string) string { return "identity:otp:" + subject }
