package swift_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/saga"
	"github.com/meridianledger/corebank/internal/swift"
)

type fakeLedgerRepo struct {
	accounts map[string]*ledger.Account
	postings map[string]*ledger.PostingLine
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{accounts: map[string]*ledger.Account{}, postings: map[string]*ledger.PostingLine{}}
}

func (r *fakeLedgerRepo) Create(_ context.Context, a *ledger.Account) error {
	r.accounts[a.AccountNumber] = a
	return nil
}

func (r *fakeLedgerRepo) FindByAccountNumber(_ context.Context, accountNumber string) (*ledger.Account, error) {
	a, ok := r.accounts[accountNumber]
	if !ok {
		return nil, ledger.ErrAccountNotFound(accountNumber)
	}

	cp := *a

	return &cp, nil
}

func (r *fakeLedgerRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Account, error) {
	for _, a := range r.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}

	return nil, ledger.ErrAccountNotFound(id.String())
}

func (r *fakeLedgerRepo) UpdateWithVersion(_ context.Context, a *ledger.Account, expectedVersion int64) (int64, error) {
	current, ok := r.accounts[a.AccountNumber]
	if !ok || current.Version != expectedVersion {
		return 0, nil
	}

	cp := *a
	r.accounts[a.AccountNumber] = &cp

	return 1, nil
}

func postingKey(accountID uuid.UUID, direction ledger.Direction, ref string) string {
	return accountID.String() + "|" + string(direction) + "|" + ref
}

func (r *fakeLedgerRepo) FindPosting(_ context.Context, accountID uuid.UUID, direction ledger.Direction, referenceID string) (*ledger.PostingLine, error) {
	p, ok := r.postings[postingKey(accountID, direction, referenceID)]
	if !ok {
		return nil, nil
	}

	return p, nil
}

func (r *fakeLedgerRepo) InsertPosting(_ context.Context, p *ledger.PostingLine) error {
	r.postings[postingKey(p.AccountID, p.Direction, p.ReferenceID)] = p
	return nil
}

func (r *fakeLedgerRepo) History(context.Context, uuid.UUID, time.Time, time.Time) ([]ledger.PostingLine, error) {
	return nil, nil
}

func openAccount(t *testing.T, ledgerSvc *ledger.Service, number, currency, balance string) {
	t.Helper()

	ctx := context.Background()

	amount, err := money.New(currency, balance)
	require.NoError(t, err)

	_, err = ledgerSvc.OpenAccount(ctx, uuid.Must(uuid.NewV7()), number, currency, ledger.AccountTypeChecking, amount)
	require.NoError(t, err)

	_, err = ledgerSvc.SetStatus(ctx, number, ledger.StatusActive)
	require.NoError(t, err)
}

type memRepository struct {
	mu    sync.Mutex
	byRef map[string]*swift.Transfer
}

func newMemRepository() *memRepository {
	return &memRepository{byRef: make(map[string]*swift.Transfer)}
}

func (m *memRepository) Create(_ context.Context, t *swift.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.byRef[t.TransferReference] = &cp

	return nil
}

func (m *memRepository) Update(_ context.Context, t *swift.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.byRef[t.TransferReference] = &cp

	return nil
}

func (m *memRepository) FindByReference(_ context.Context, ref string) (*swift.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byRef[ref]
	if !ok {
		return nil, swift.ErrTransferNotFound(ref)
	}

	cp := *t

	return &cp, nil
}

func (m *memRepository) FindStuck(_ context.Context, olderThan time.Time, limit int) ([]*swift.Transfer, error) {
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

type fakeSubmitter struct{ fail bool }

func (f *fakeSubmitter) Submit(context.Context, string, string) (string, error) {
	if f.fail {
		return "", errors.New("network down")
	}

	return "NET-1", nil
}

func newTestService(t *testing.T, gate swift.ComplianceGate, submitter swift.Submitter) (*swift.Service, *ledger.Service) {
	t.Helper()

	ledgerRepo := newFakeLedgerRepo()
	ledgerSvc := ledger.NewService(ledgerRepo, nil)

	repo := newMemRepository()
	orc := saga.NewOrchestrator(saga.NewMemoryRepository())
	gateway := swift.NewNetworkGateway("test", submitter)
	gateway.RetryWindow = 50 * time.Millisecond

	fees := swift.FeeSchedule{FixedFee: mustAmount(t, "EUR", "10.00"), PercentageFee: decimal.NewFromFloat(0.5)}

	svc := swift.NewService(repo, ledgerSvc, orc, gate, gateway, fees, &memOutbox{})

	return svc, ledgerSvc
}

func mustAmount(t *testing.T, ccy, v string) money.Amount {
	t.Helper()

	amt, err := money.New(ccy, v)
	require.NoError(t, err)

	return amt
}

func TestSwiftTransfer_HappyPath(t *testing.T) {
	svc, ledgerSvc := newTestService(t, swift.AlwaysClearGate{}, &fakeSubmitter{})
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "EUR", "1000.00")

	amount := mustAmount(t, "EUR", "500.00")

	tr, err := svc.InitiateTransfer(ctx, swift.InitiateRequest{
		FromAccount:        "A",
		SenderBIC:          "DEUTDEFF",
		ReceiverBIC:        "BARCGB22",
		BeneficiaryAccount: "GB29NWBK60161331926819",
		BeneficiaryName:    "Acme Ltd",
		OrderingCustomer:   "Jane Doe",
		ChargeType:         swift.ChargeSHA,
		Amount:             amount,
	})
	require.NoError(t, err)
	assert.Equal(t, swift.StatusCompleted, tr.Status)
	assert.True(t, tr.Fee.Value.Equal(mustAmount(t, "EUR", "12.50").Value))

	bal, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, bal.Value.Equal(mustAmount(t, "EUR", "487.50").Value))
}

func TestSwiftTransfer_ComplianceBlocked_NoDebit(t *testing.T) {
	blocking := complianceGateFunc(func(context.Context, string, string) (bool, string, error) {
		return false, "sanctions match", nil
	})

	svc, ledgerSvc := newTestService(t, blocking, &fakeSubmitter{})
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "EUR", "1000.00")

	tr, err := svc.InitiateTransfer(ctx, swift.InitiateRequest{
		FromAccount:     "A",
		SenderBIC:       "DEUTDEFF",
		ReceiverBIC:     "BARCGB22",
		BeneficiaryName: "Blocked Corp",
		ChargeType:      swift.ChargeOUR,
		Amount:          mustAmount(t, "EUR", "200.00"),
	})
	require.Error(t, err)
	assert.Equal(t, swift.StatusFailed, tr.Status)

	bal, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, bal.Value.Equal(mustAmount(t, "EUR", "1000.00").Value), "a compliance block must leave the ledger untouched")
}

func TestSwiftTransfer_NetworkFailure_CompensatesDebit(t *testing.T) {
	svc, ledgerSvc := newTestService(t, swift.AlwaysClearGate{}, &fakeSubmitter{fail: true})
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "EUR", "1000.00")

	tr, err := svc.InitiateTransfer(ctx, swift.InitiateRequest{
		FromAccount:      "A",
		SenderBIC:        "DEUTDEFF",
		ReceiverBIC:      "BARCGB22",
		BeneficiaryName:  "Acme Ltd",
		OrderingCustomer: "Jane Doe",
		ChargeType:       swift.ChargeSHA,
		Amount:           mustAmount(t, "EUR", "500.00"),
	})
	require.Error(t, err)
	assert.Equal(t, swift.StatusCompensated, tr.Status)

	bal, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, bal.Value.Equal(mustAmount(t, "EUR", "1000.00").Value), "source balance must be restored once the network submit fails")
}

type complianceGateFunc func(ctx context.Context, beneficiaryName, orderingCustomer string) (bool, string, error)

func (f complianceGateFunc) Screen(ctx context.Context, beneficiaryName, orderingCustomer string) (bool, string, error) {
	return f(ctx, beneficiaryName, orderingCustomer)
}
