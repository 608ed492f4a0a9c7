package sepa_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/saga"
	"github.com/meridianledger/corebank/internal/sepa"
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

func newTestService(t *testing.T, ack sepa.Acknowledger) (*sepa.Service, *ledger.Service) {
	t.Helper()

	ledgerRepo := newFakeLedgerRepo()
	ledgerSvc := ledger.NewService(ledgerRepo, nil)

	repo := newMemRepository()
	orc := saga.NewOrchestrator(saga.NewMemoryRepository())
	gw := sepa.NewNetworkGateway("test", ack)

	svc := sepa.NewService(repo, ledgerSvc, orc, gw, &memOutbox{})
	svc.AckWait = 500 * time.Millisecond

	return svc, ledgerSvc
}

func TestSctTransfer_HappyPath(t *testing.T) {
	svc, ledgerSvc := newTestService(t, &fakeAcknowledger{settled: true})
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "EUR", "1000.00")

	amount, err := money.New("EUR", "250.00")
	require.NoError(t, err)

	tr, err := svc.InitiateTransfer(ctx, sepa.SchemeSCT, "A", "DE89370400440532013000", "Acme GmbH", "invoice 42", amount)
	require.NoError(t, err)
	assert.Equal(t, sepa.TransferStatusCompleted, tr.Status)

	bal, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, bal.Value.Equal(mustDecimal(t, "750.00")))
}

func TestSctTransfer_AckNeverArrives_Compensates(t *testing.T) {
	svc, ledgerSvc := newTestService(t, &fakeAcknowledger{settled: false})
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "EUR", "1000.00")

	amount, err := money.New("EUR", "100.00")
	require.NoError(t, err)

	tr, err := svc.InitiateTransfer(ctx, sepa.SchemeSCTInst, "A", "DE89370400440532013000", "Acme GmbH", "", amount)
	require.Error(t, err)
	assert.Equal(t, sepa.TransferStatusCompensated, tr.Status)

	bal, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, bal.Value.Equal(mustDecimal(t, "1000.00")), "source balance must be restored once the network never acknowledges")
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	amt, err := money.New("EUR", s)
	require.NoError(t, err)

	return amt.Value
}
