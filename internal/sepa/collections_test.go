package sepa_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/sepa"
)

type memMandateRepo struct {
	mu    sync.Mutex
	byUMR map[string]*sepa.Mandate
}

func newMemMandateRepo() *memMandateRepo {
	return &memMandateRepo{byUMR: make(map[string]*sepa.Mandate)}
}

func (m *memMandateRepo) Create(_ context.Context, md *sepa.Mandate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *md
	m.byUMR[md.UMR] = &cp

	return nil
}

func (m *memMandateRepo) Update(_ context.Context, md *sepa.Mandate) error {
	return m.Create(context.Background(), md)
}

func (m *memMandateRepo) FindByUMR(_ context.Context, umr string) (*sepa.Mandate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	md, ok := m.byUMR[umr]
	if !ok {
		return nil, sepa.ErrMandateNotFound(umr)
	}

	cp := *md

	return &cp, nil
}

type memBatchRepo struct {
	mu   sync.Mutex
	byID map[string]*sepa.Batch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{byID: make(map[string]*sepa.Batch)}
}

func (m *memBatchRepo) Create(_ context.Context, b *sepa.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *b
	m.byID[b.MessageID] = &cp

	return nil
}

func (m *memBatchRepo) Update(_ context.Context, b *sepa.Batch) error {
	return m.Create(context.Background(), b)
}

func (m *memBatchRepo) FindByMessageID(_ context.Context, messageID string) (*sepa.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.byID[messageID]
	if !ok {
		return nil, sepa.ErrBatchNotFound(messageID)
	}

	cp := *b

	return &cp, nil
}

type memReturnRepo struct {
	mu   sync.Mutex
	byID map[string]*sepa.Return
}

func newMemReturnRepo() *memReturnRepo {
	return &memReturnRepo{byID: make(map[string]*sepa.Return)}
}

func (m *memReturnRepo) Create(_ context.Context, r *sepa.Return) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	m.byID[r.ID] = &cp

	return nil
}

func (m *memReturnRepo) Update(_ context.Context, r *sepa.Return) error {
	return m.Create(context.Background(), r)
}

func (m *memReturnRepo) FindByID(_ context.Context, id string) (*sepa.Return, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, sepa.ErrReturnNotFound(id)
	}

	cp := *r

	return &cp, nil
}

func (m *memReturnRepo) SumAmountByReasonCode(_ context.Context, code sepa.ReasonCode) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := decimal.Zero

	for _, r := range m.byID {
		if r.ReasonCode == code {
			total = total.Add(r.Amount.Value)
		}
	}

	return total.StringFixed(money.Scale), nil
}

func newCollectionsService(t *testing.T) (*sepa.Service, *ledger.Service) {
	t.Helper()

	svc, ledgerSvc := newTestService(t, &fakeAcknowledger{settled: true})
	svc.Mandates = newMemMandateRepo()
	svc.Batches = newMemBatchRepo()
	svc.Returns = newMemReturnRepo()

	return svc, ledgerSvc
}

func TestMandateService_CollectionLifecycle(t *testing.T) {
	svc, _ := newCollectionsService(t)
	ctx := context.Background()

	maxAmount, err := money.New("EUR", "100.00")
	require.NoError(t, err)

	yesterday := time.Now().UTC().AddDate(0, 0, -1)

	m, err := svc.CreateMandate(ctx, "UMR-1", "DE89370400440532013000", "FR1420041010050500013M02606",
		"DE98ZZZ09999999999", sepa.MandateSDDCore, yesterday, "EUR", &maxAmount)
	require.NoError(t, err)
	assert.Equal(t, sepa.MandateStatusPending, m.Status)
	assert.Equal(t, sepa.SequenceFirst, m.Sequence)

	m, err = svc.ActivateMandate(ctx, "UMR-1")
	require.NoError(t, err)
	assert.Equal(t, sepa.MandateStatusActive, m.Status)

	fifty, err := money.New("EUR", "50.00")
	require.NoError(t, err)

	m, err = svc.RecordCollection(ctx, "UMR-1", fifty, true)
	require.NoError(t, err)
	assert.Equal(t, sepa.SequenceRecurring, m.Sequence)
	assert.True(t, m.TotalAmountCollected.Value.Equal(fifty.Value))

	over, err := money.New("EUR", "100.01")
	require.NoError(t, err)

	_, err = svc.RecordCollection(ctx, "UMR-1", over, true)
	require.Error(t, err)
}

func TestBatchService_SubmitRendersDocumentAndCounts(t *testing.T) {
	svc, ledgerSvc := newCollectionsService(t)
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "EUR", "1000.00")

	amount, err := money.New("EUR", "100.00")
	require.NoError(t, err)

	tr1, err := svc.InitiateTransfer(ctx, sepa.SchemeSCT, "A", "DE89370400440532013000", "Acme", "", amount)
	require.NoError(t, err)

	tr2, err := svc.InitiateTransfer(ctx, sepa.SchemeSCT, "A", "FR1420041010050500013M02606", "Umbrella", "", amount)
	require.NoError(t, err)

	b, err := svc.CreateBatch(ctx, sepa.BatchSCT, []string{tr1.TransferReference, tr2.TransferReference})
	require.NoError(t, err)
	assert.Equal(t, 2, b.NumberOfTransactions)
	assert.True(t, b.TotalAmount.Value.Equal(mustDecimal(t, "200.00")))

	b, err = svc.ValidateBatch(ctx, b.MessageID)
	require.NoError(t, err)
	assert.Equal(t, sepa.BatchStatusValidated, b.Status)

	b, err = svc.SubmitBatch(ctx, b.MessageID)
	require.NoError(t, err)
	assert.Equal(t, sepa.BatchStatusProcessing, b.Status)
	assert.Contains(t, string(b.Document), "pain.001")

	b, err = svc.RecordBatchResult(ctx, b.MessageID, true)
	require.NoError(t, err)
	assert.Equal(t, sepa.BatchStatusProcessing, b.Status)

	b, err = svc.RecordBatchResult(ctx, b.MessageID, false)
	require.NoError(t, err)
	assert.Equal(t, sepa.BatchStatusPartiallyComplete, b.Status)
	assert.Equal(t, b.NumberOfTransactions, b.SuccessfulCount+b.FailedCount)
}

func TestReturnService_RefundRestoresSourceBalance(t *testing.T) {
	svc, ledgerSvc := newCollectionsService(t)
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "EUR", "1000.00")

	amount, err := money.New("EUR", "250.00")
	require.NoError(t, err)

	tr, err := svc.InitiateTransfer(ctx, sepa.SchemeSCT, "A", "DE89370400440532013000", "Acme", "", amount)
	require.NoError(t, err)
	require.Equal(t, sepa.TransferStatusCompleted, tr.Status)

	r, err := svc.InitiateReturn(ctx, tr.TransferReference, sepa.ReasonAC04)
	require.NoError(t, err)

	_, err = svc.ValidateReturn(ctx, r.ID)
	require.NoError(t, err)

	_, err = svc.ProcessReturn(ctx, r.ID)
	require.NoError(t, err)

	_, err = svc.CompleteReturn(ctx, r.ID)
	require.NoError(t, err)

	r, err = svc.RefundReturn(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, sepa.ReturnStatusRefunded, r.Status)
	require.NotNil(t, r.RefundedAt)

	bal, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, bal.Value.Equal(mustDecimal(t, "1000.00")))

	// Re-driving the refund posts nothing new: the credit is idempotent
	// under its reference, and the status gate rejects the replay.
	_, err = svc.RefundReturn(ctx, r.ID)
	require.Error(t, err)

	bal, err = ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, bal.Value.Equal(mustDecimal(t, "1000.00")))
}

func TestReturnService_SumByReasonCode(t *testing.T) {
	svc, ledgerSvc := newCollectionsService(t)
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "EUR", "1000.00")

	for _, amt := range []string{"100.00", "50.00"} {
		amount, err := money.New("EUR", amt)
		require.NoError(t, err)

		tr, err := svc.InitiateTransfer(ctx, sepa.SchemeSCT, "A", "DE89370400440532013000", "Acme", "", amount)
		require.NoError(t, err)

		_, err = svc.InitiateReturn(ctx, tr.TransferReference, sepa.ReasonAM05)
		require.NoError(t, err)
	}

	total, err := svc.SumReturnAmountByReasonCode(ctx, sepa.ReasonAM05)
	require.NoError(t, err)
	assert.Equal(t, "150.00", total)

	none, err := svc.SumReturnAmountByReasonCode(ctx, sepa.ReasonMD07)
	require.NoError(t, err)
	assert.Equal(t, "0.00", none)
}
