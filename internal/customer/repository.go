package customer

import "context"

// Transactor runs fn inside one database transaction; every repository
// call made with the context fn receives joins it. A nil Transactor runs
// fn directly, which the in-memory test doubles rely on.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repository is the persistence port for Customer, implemented by
// internal/customer/postgres.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id string) (*Customer, error)
}

// DocumentRepository is the persistence port for Document.
type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	Update(ctx context.Context, d *Document) error
	FindByID(ctx context.Context, id string) (*Document, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*Document, error)
}

// HistoryRepository appends and lists immutable transition records.
type HistoryRepository interface {
	Append(ctx context.Context, e *HistoryEntry) error
	FindByCustomerID(ctx context.Context, customerID string) ([]*HistoryEntry, error)
}
