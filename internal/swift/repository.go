package swift

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

// Repository persists Transfer aggregates, mirroring internal/transfer and
// internal/sepa's Repository shape.
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	Update(ctx context.Context, t *Transfer) error
	FindByReference(ctx context.Context, ref string) (*Transfer, error)
	FindStuck(ctx context.Context, olderThan time.Time, limit int) ([]*Transfer, error)
}
