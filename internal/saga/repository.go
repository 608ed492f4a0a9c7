package saga

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the durable store for saga Records, implemented by
// internal/saga/postgres. Every write the orchestrator makes goes through
// this interface so a crash between any two steps leaves a resumable
// record.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	Update(ctx context.Context, record *Record) error
	FindByID(ctx context.Context, sagaID uuid.UUID) (*Record, error)

	// FindStuck returns non-terminal records whose UpdatedAt is older than
	// olderThan, for the recovery loop to re-drive.
	FindStuck(ctx context.Context, olderThan time.Time, limit int) ([]*Record, error)
}
