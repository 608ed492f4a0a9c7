package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Transactor runs fn inside one database transaction; every repository
// call made with the context fn receives joins it. A nil Transactor runs
// fn directly, which the in-memory test doubles rely on.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repository is the persistence port for the ledger, implemented by
// internal/ledger/postgres. A posting's balance update, its line insert
// and its staged outbox row all run inside the one transaction the
// Service opens around them.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	FindByAccountNumber(ctx context.Context, accountNumber string) (*Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// UpdateWithVersion performs a compare-and-swap update: the WHERE clause
	// includes both accountNumber and the expected version. rowsAffected==0
	// signals a lost race the caller should retry, bounded, before giving
	// up with ConcurrencyAborted.
	UpdateWithVersion(ctx context.Context, account *Account, expectedVersion int64) (rowsAffected int64, err error)

	// FindPosting looks up an existing posting by its idempotency key
	// (accountID, direction, referenceID), returning (nil, nil) if absent.
	FindPosting(ctx context.Context, accountID uuid.UUID, direction Direction, referenceID string) (*PostingLine, error)
	InsertPosting(ctx context.Context, posting *PostingLine) error

	History(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]PostingLine, error)
}
