package transfer

import (
	"context"
	"time"
)

// Transactor runs fn inside one database transaction; every repository
// call made with the context fn receives joins it. A nil Transactor runs
// fn directly, which the in-memory test doubles rely on.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repository is the persistence port for Transfer, implemented by
// internal/transfer/postgres.
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	Update(ctx context.Context, t *Transfer) error
	FindByReference(ctx context.Context, ref string) (*Transfer, error)

	// FindByIdempotencyKey is the API-edge idempotency check: if the key
	// matches an existing transfer, that aggregate is returned unchanged.
	// Returns (nil, nil) if absent.
	FindByIdempotencyKey(ctx context.Context, key string) (*Transfer, error)

	// FindStuck returns transfers older than olderThan still in a
	// *_PENDING status, for the reconciliation sweep.
	FindStuck(ctx context.Context, olderThan time.Time, limit int) ([]*Transfer, error)
}
