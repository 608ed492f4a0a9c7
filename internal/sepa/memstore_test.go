package sepa_test

import (
	"context"
	"sync"
	"time"

	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/sepa"
)

type memRepository struct {
	mu    sync.Mutex
	byRef map[string]*sepa.Transfer
}

func newMemRepository() *memRepository {
	return &memRepository{byRef: make(map[string]*sepa.Transfer)}
}

func (m *memRepository) Create(_ context.Context, t *sepa.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.byRef[t.TransferReference] = &cp

	return nil
}

func (m *memRepository) Update(_ context.Context, t *sepa.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.byRef[t.TransferReference] = &cp

	return nil
}

func (m *memRepository) FindByReference(_ context.Context, ref string) (*sepa.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byRef[ref]
	if !ok {
		return nil, sepa.ErrSCTTransferNotFound(ref)
	}

	cp := *t

	return &cp, nil
}

func (m *memRepository) FindStuck(_ context.Context, olderThan time.Time, limit int) ([]*sepa.Transfer, error) {
	return nil, nil
}

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

// fakeAcknowledger is a deterministic Acknowledger double for tests: it
// settles immediately unless configured to fail Submit or never settle.
type fakeAcknowledger struct {
	failSubmit bool
	settled    bool
}

func (f *fakeAcknowledger) Submit(context.Context, string, []byte) (string, error) {
	if f.failSubmit {
		return "", errSubmitFailed
	}

	return "ACK-1", nil
}

func (f *fakeAcknowledger) PollAck(context.Context, string) (bool, error) {
	return f.settled, nil
}

type submitError struct{ s string }

func (e *submitError) Error() string { return e.s }

var errSubmitFailed = &submitError{"network unavailable"}
