package identity

import (
	"context"
	"fmt"
)

// LoginAttemptStore persists the per-subject failed-login counter and
// lock state: increment on bad password, lock at N consecutive failures,
// reset on success, unlock is an admin action.
type LoginAttemptStore interface {
	FailedAttempts(ctx context.Context, subject string) (int, bool, error)
	RecordFailure(ctx context.Context, subject string, threshold int) (locked bool, err error)
	Reset(ctx context.Context, subject string) error
	AdminUnlock(ctx context.Context, subject string) error
}

// LoginGuard enforces the lockout policy in front of a credential check.
type LoginGuard struct {
	store     LoginAttemptStore
	threshold int
}

// NewLoginGuard builds a LoginGuard that locks an account after threshold
// consecutive failures (default N=5).
func NewLoginGuard(store LoginAttemptStore, threshold int) *LoginGuard {
	return &LoginGuard{store: store, threshold: threshold}
}

// CheckLocked returns ErrAccountLocked if subject is currently locked out.
func (g *LoginGuard) CheckLocked(ctx context.Context, subject string) error {
	_, locked, err := g.store.FailedAttempts(ctx, subject)
	if err != nil {
		return fmt.Errorf("identity: check lockout: %w", err)
	}

	if locked {
		return ErrAccountLocked
	}

	return nil
}

// RecordFailure increments the failure counter, locking the account once it
// reaches the configured threshold.
func (g *LoginGuard) RecordFailure(ctx context.Context, subject string) error {
	if _, err := g.store.RecordFailure(ctx, subject, g.threshold); err != nil {
		return fmt.Errorf("identity: record failure: %w", err)
	}

	return nil
}

// RecordSuccess resets the failure counter.
func (g *LoginGuard) RecordSuccess(ctx context.Context, subject string) error {
	if err := g.store.Reset(ctx, subject); err != nil {
		return fmt.Errorf("identity: reset lockout: %w", err)
	}

	return nil
}

// AdminUnlock clears a lock regardless of the current counter; unlocking
// is an operator-initiated action, not something the guard does on its own.
func (g *LoginGuard) AdminUnlock(ctx context.Context, subject string) error {
	if err := g.store.AdminUnlock(ctx, subject); err != nil {
		return fmt.Errorf("identity: admin unlock: %w", err)
	}

	return nil
}
