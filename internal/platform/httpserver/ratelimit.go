package httpserver

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/mredis"
)

// ErrRateLimited is the typed 429 error every limited request surfaces.
var ErrRateLimited = apperr.New(apperr.KindRateLimited, "Request", "RATE_LIMITED", "Rate Limited", "too many requests")

// Clock is injected so rate-limit bucket timestamps are deterministically
// controllable in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// RateLimiter gates requests through a token-bucket store keyed by
// (source identity, endpoint). On store outage, ordinary endpoints fail
// open and the auth surface fails closed.
type RateLimiter struct {
	Store      *mredis.RateLimiter
	Clock      Clock
	DefaultRPM int
	AuthRPM    int
}

// Limit builds a fiber middleware enforcing ratePerMinute requests per
// minute per caller, failing open on a store error unless failClosed is
// set (used for the unauthenticated /auth/login endpoint).
func (rl *RateLimiter) Limit(ratePerMinute int, failClosed bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.Store == nil {
			return c.Next()
		}

		key := rl.bucketKey(c)

		allowed, err := rl.Store.Allow(c.UserContext(), key, ratePerMinute, rl.now())
		if err != nil {
			if failClosed {
				return WithError(c, ErrRateLimited)
			}

			return c.Next()
		}

		if !allowed {
			return WithError(c, ErrRateLimited)
		}

		return c.Next()
	}
}

// Default builds the middleware for business endpoints at the configured
// default rate, fail-open on store outage.
func (rl *RateLimiter) Default() fiber.Handler {
	return rl.Limit(rl.DefaultRPM, false)
}

// Auth builds the middleware for the auth surface at the configured auth
// rate, fail-closed on store outage.
func (rl *RateLimiter) Auth() fiber.Handler {
	return rl.Limit(rl.AuthRPM, true)
}

func (rl *RateLimiter) bucketKey(c *fiber.Ctx) string {
	caller := c.IP()

	if principal, ok := PrincipalFromContext(c); ok {
		caller = principal.Subject
	}

	return caller + ":" + c.Route().Path
}

func (rl *RateLimiter) now() time.Time {
	if rl.Clock != nil {
		return rl.Clock.Now()
	}

	return time.Now().UTC()
}
