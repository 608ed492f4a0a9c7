package mredis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and drains a token bucket atomically. KEYS[1] is
// the bucket key; ARGV are capacity, refill rate per second, and the current
// unix time in milliseconds. Returns 1 if a token was taken, 0 if the bucket
// was empty.
const tokenBucketScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refillPerSec = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local bucket = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(bucket[1])
local ts = tonumber(bucket[2])

if tokens == nil then
  tokens = capacity
  ts = now
end

local elapsed = math.max(0, now - ts) / 1000
tokens = math.min(capacity, tokens + elapsed * refillPerSec)

if tokens < 1 then
  redis.call("HMSET", key, "tokens", tokens, "ts", now)
  redis.call("PEXPIRE", key, 60000)
  return 0
end

tokens = tokens - 1
redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, 60000)
return 1
`

// RateLimiter is a token-bucket limiter keyed by (sourceIdentity,
// endpoint); the per-minute rates come from configuration.
type RateLimiter struct {
	client *redis.Client
	script *redis.Script
}

// NewRateLimiter builds a RateLimiter over a live redis client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, script: redis.NewScript(tokenBucketScript)}
}

// Allow consumes one token from the bucket identified by key, where
// ratePerMinute tokens are refilled per minute up to the same capacity. A
// script or connection error is left to the caller's outage policy;
// Allow itself just reports the error.
func (rl *RateLimiter) Allow(ctx context.Context, key string, ratePerMinute int, now time.Time) (bool, error) {
	capacity := float64(ratePerMinute)
	refillPerSec := capacity / 60.0

	res, err := rl.script.Run(ctx, rl.client, []string{"ratelimit:" + key},
		capacity, refillPerSec, now.UnixMilli()).Int()
	if err != nil {
		return false, fmt.Errorf("mredis: rate limit script: %w", err)
	}

	return res == 1, nil
}
