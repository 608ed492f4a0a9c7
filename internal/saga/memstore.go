package saga

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// MemoryRepository is an in-memory Repository, used by unit tests across
// internal/transfer, internal/sepa and internal/swift so saga behavior can
// be exercised without a database.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
}

// NewMemoryRepository builds an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]*Record)}
}

// Create implements Repository.
func (m *MemoryRepository) Create(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *record
	cp.ExecutedStepIDs = append([]string(nil), record.ExecutedStepIDs...)
	m.records[record.SagaID] = &cp

	return nil
}

// Update implements Repository.
func (m *MemoryRepository) Update(_ context.Context, record *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[record.SagaID]; !ok {
		return apperr.NotFound("Saga", record.SagaID.String())
	}

	cp := *record
	cp.ExecutedStepIDs = append([]string(nil), record.ExecutedStepIDs...)
	m.records[record.SagaID] = &cp

	return nil
}

// FindByID implements Repository.
func (m *MemoryRepository) FindByID(_ context.Context, sagaID uuid.UUID) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[sagaID]
	if !ok {
		return nil, apperr.NotFound("Saga", sagaID.String())
	}

	cp := *record

	return &cp, nil
}

// FindStuck implements Repository.
func (m *MemoryRepository) FindStuck(_ context.Context, olderThan time.Time, limit int) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Record

	for _, record := range m.records {
		if record.State.Terminal() {
			continue
		}

		if record.UpdatedAt.After(olderThan) {
			continue
		}

		cp := *record
		out = append(out, &cp)

		if len(out) >= limit {
			break
		}
	}

	return out, nil
}
