package transfer_test

import (
	"context"
	"sync"
	"time"

	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/transfer"
)

// memRepository is an in-memory transfer.Repository used only by this
// package's tests.
type memRepository struct {
	mu        sync.Mutex
	byRef     map[string]*transfer.Transfer
	byIdemKey map[string]*transfer.Transfer
}

func newMemRepository() *memRepository {
	return &memRepository{
		byRef:     make(map[string]*transfer.Transfer),
		byIdemKey: make(map[string]*transfer.Transfer),
	}
}

func (m *memRepository) Create(_ context.Context, t *transfer.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.byRef[t.TransferReference] = &cp

	if t.IdempotencyKey != "" {
		m.byIdemKey[t.IdempotencyKey] = &cp
	}

	return nil
}

func (m *memRepository) Update(_ context.Context, t *transfer.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.byRef[t.TransferReference] = &cp

	if t.IdempotencyKey != "" {
		m.byIdemKey[t.IdempotencyKey] = &cp
	}

	return nil
}

func (m *memRepository) FindByReference(_ context.Context, ref string) (*transfer.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byRef[ref]
	if !ok {
		return nil, transfer.ErrTransferNotFound(ref)
	}

	cp := *t

	return &cp, nil
}

func (m *memRepository) FindByIdempotencyKey(_ context.Context, key string) (*transfer.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byIdemKey[key]
	if !ok {
		return nil, nil
	}

	cp := *t

	return &cp, nil
}

func (m *memRepository) FindStuck(_ context.Context, olderThan time.Time, limit int) ([]*transfer.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*transfer.Transfer

	for _, t := range m.byRef {
		switch t.Status {
		case transfer.StatusValidating, transfer.StatusDebitPending, transfer.StatusDebitCompleted, transfer.StatusCreditPending:
		default:
			continue
		}

		if t.InitiatedAt.After(olderThan) {
			continue
		}

		cp := *t
		out = append(out, &cp)

		if len(out) >= limit {
			break
		}
	}

	return out, nil
}

// memOutbox records staged events for assertions without a real publisher.
type memOutbox struct {
	mu     sync.Mutex
	events []eventbus.DomainEvent
}

func (m *memOutbox) StageEvent(_ context.Context, evt eventbus.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, evt)

	return nil
}
