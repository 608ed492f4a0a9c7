package sepa

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

// Repository persists Transfer aggregates, mirroring internal/transfer's
// Repository shape.
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	Update(ctx context.Context, t *Transfer) error
	FindByReference(ctx context.Context, ref string) (*Transfer, error)
	FindStuck(ctx context.Context, olderThan time.Time, limit int) ([]*Transfer, error)
}

// MandateRepository persists SDD Mandate aggregates.
type MandateRepository interface {
	Create(ctx context.Context, m *Mandate) error
	Update(ctx context.Context, m *Mandate) error
	FindByUMR(ctx context.Context, umr string) (*Mandate, error)
}

// BatchRepository persists Batch aggregates.
type BatchRepository interface {
	Create(ctx context.Context, b *Batch) error
	Update(ctx context.Context, b *Batch) error
	FindByMessageID(ctx context.Context, messageID string) (*Batch, error)
}

// ReturnRepository persists Return aggregates.
type ReturnRepository interface {
	Create(ctx context.Context, r *Return) error
	Update(ctx context.Context, r *Return) error
	FindByID(ctx context.Context, id string) (*Return, error)
	SumAmountByReasonCode(ctx context.Context, code ReasonCode) (string, error)
}
