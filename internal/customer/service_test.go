package customer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/customer"
)

type memRepository struct {
	mu   sync.Mutex
	byID map[string]*customer.Customer
}

func newMemRepository() *memRepository {
	return &memRepository{byID: make(map[string]*customer.Customer)}
}

func (m *memRepository) Create(_ context.Context, c *customer.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *c
	m.byID[c.ID] = &cp

	return nil
}

func (m *memRepository) Update(_ context.Context, c *customer.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *c
	m.byID[c.ID] = &cp

	return nil
}

func (m *memRepository) FindByID(_ context.Context, id string) (*customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrCustomerNotFound(id)
	}

	cp := *c

	return &cp, nil
}

type memDocumentRepo struct {
	mu   sync.Mutex
	byID map[string]*customer.Document
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{byID: make(map[string]*customer.Document)}
}

func (m *memDocumentRepo) Create(_ context.Context, d *customer.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *d
	m.byID[d.ID] = &cp

	return nil
}

func (m *memDocumentRepo) Update(_ context.Context, d *customer.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *d
	m.byID[d.ID] = &cp

	return nil
}

func (m *memDocumentRepo) FindByID(_ context.Context, id string) (*customer.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrDocumentNotFound(id)
	}

	cp := *d

	return &cp, nil
}

func (m *memDocumentRepo) FindByCustomerID(_ context.Context, customerID string) ([]*customer.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*customer.Document

	for _, d := range m.byID {
		if d.CustomerID == customerID {
			cp := *d
			out = append(out, &cp)
		}
	}

	return out, nil
}

type memHistoryRepo struct {
	mu      sync.Mutex
	entries []*customer.HistoryEntry
}

func (m *memHistoryRepo) Append(_ context.Context, e *customer.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, e)

	return nil
}

func (m *memHistoryRepo) FindByCustomerID(_ context.Context, customerID string) ([]*customer.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*customer.HistoryEntry

	for _, e := range m.entries {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}

	return out, nil
}

type fakeRiskTrigger struct {
	mu      sync.Mutex
	invoked []string
}

func (f *fakeRiskTrigger) TriggerRecompute(_ context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.invoked = append(f.invoked, customerID)

	return nil
}

func newTestService() (*customer.Service, *memHistoryRepo, *fakeRiskTrigger) {
	history := &memHistoryRepo{}
	trigger := &fakeRiskTrigger{}

	svc := customer.NewService(newMemRepository(), newMemDocumentRepo(), history)
	svc.RiskTrigger = trigger

	return svc, history, trigger
}

func TestOnboardingFlow_HappyPath(t *testing.T) {
	svc, history, trigger := newTestService()
	ctx := context.Background()

	c, err := svc.OpenCustomer(ctx, "Ada Lovelace", "ada@example.com", "GB")
	require.NoError(t, err)
	assert.Equal(t, customer.StatusPendingVerification, c.Status)

	doc, err := svc.UploadDocument(ctx, c.ID, customer.DocumentPassport, time.Now().Add(365*24*time.Hour))
	require.NoError(t, err)

	_, err = svc.VerifyDocument(ctx, doc.ID)
	require.NoError(t, err)

	c, err = svc.VerifyCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.StatusVerified, c.Status)

	c, err = svc.ApproveCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.StatusApproved, c.Status)

	entries, err := history.FindByCustomerID(ctx, c.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	assert.Contains(t, trigger.invoked, c.ID)
}

func TestSuspendAndReinstate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	c, err := svc.OpenCustomer(ctx, "Grace Hopper", "grace@example.com", "US")
	require.NoError(t, err)

	_, err = svc.VerifyCustomer(ctx, c.ID)
	require.NoError(t, err)

	_, err = svc.ApproveCustomer(ctx, c.ID)
	require.NoError(t, err)

	c, err = svc.SuspendCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.StatusSuspended, c.Status)

	c, err = svc.ReinstateCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.StatusApproved, c.Status)
}

func TestRejectDocument_RecordsReason(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	c, err := svc.OpenCustomer(ctx, "Alan Turing", "alan@example.com", "GB")
	require.NoError(t, err)

	doc, err := svc.UploadDocument(ctx, c.ID, customer.DocumentProofOfAddress, time.Now().Add(30*24*time.Hour))
	require.NoError(t, err)

	doc, err = svc.RejectDocument(ctx, doc.ID, "address does not match")
	require.NoError(t, err)
	assert.Equal(t, customer.DocumentStatusRejected, doc.Status)
	assert.Equal(t, "address does not match", doc.RejectReason)
}
