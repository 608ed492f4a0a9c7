package transfer_test

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
	"github.com/meridianledger/corebank/internal/transfer"
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

func (r *fakeLedgerRepo) History(_ context.Context, accountID uuid.UUID, from, to time.Time) ([]ledger.PostingLine, error) {
	var out []ledger.PostingLine

	for _, p := range r.postings {
		if p.AccountID == accountID && !p.PostedAt.Before(from) && p.PostedAt.Before(to) {
			out = append(out, *p)
		}
	}

	return out, nil
}

func openAccount(t *testing.T, ledgerSvc *ledger.Service, number, currency, balance string, status ledger.Status) {
	t.Helper()

	ctx := context.Background()

	amount, err := money.New(currency, balance)
	require.NoError(t, err)

	acc, err := ledgerSvc.OpenAccount(ctx, uuid.Must(uuid.NewV7()), number, currency, ledger.AccountTypeChecking, amount)
	require.NoError(t, err)

	if status != ledger.StatusPending {
		_, err = ledgerSvc.SetStatus(ctx, number, ledger.StatusActive)
		require.NoError(t, err)
	}

	if status == ledger.StatusFrozen {
		_, err = ledgerSvc.SetStatus(ctx, number, ledger.StatusFrozen)
		require.NoError(t, err)
	}

	_ = acc
}

func newTestService(t *testing.T) (*transfer.Service, *ledger.Service) {
	t.Helper()

	ledgerRepo := newFakeLedgerRepo()
	ledgerSvc := ledger.NewService(ledgerRepo, nil)

	xferRepo := newMemRepository()
	orc := saga.NewOrchestrator(saga.NewMemoryRepository())
	svc := transfer.NewService(xferRepo, ledgerSvc, orc, nil)

	return svc, ledgerSvc
}

func TestInitiateTransfer_HappyPath(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "TRY", "1000.00", ledger.StatusActive)
	openAccount(t, ledgerSvc, "B", "TRY", "0.00", ledger.StatusActive)

	amount, err := money.New("TRY", "300.00")
	require.NoError(t, err)

	tr, err := svc.InitiateTransfer(ctx, "A", "B", amount, "k1")
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusCompleted, tr.Status)

	balA, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, balA.Value.Equal(mustDecimal(t, "700.00")))

	balB, err := ledgerSvc.GetBalance(ctx, "B")
	require.NoError(t, err)
	assert.True(t, balB.Value.Equal(mustDecimal(t, "300.00")))

	// Replay with the same idempotency key returns the same record, no new
	// saga, no balance change.
	replay, err := svc.InitiateTransfer(ctx, "A", "B", amount, "k1")
	require.NoError(t, err)
	assert.Equal(t, tr.TransferReference, replay.TransferReference)

	balA2, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, balA2.Value.Equal(mustDecimal(t, "700.00")))
}

func TestInitiateTransfer_ValidateFailure_NoSideEffects(t *testing.T) {
	svc, ledgerSvc := newTestService(t)
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "TRY", "100.00", ledger.StatusActive)
	openAccount(t, ledgerSvc, "B", "TRY", "0.00", ledger.StatusActive)

	amount, err := money.New("TRY", "150.00")
	require.NoError(t, err)

	tr, err := svc.InitiateTransfer(ctx, "A", "B", amount, "")
	require.Error(t, err)
	assert.Equal(t, transfer.StatusFailed, tr.Status)

	balA, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, balA.Value.Equal(mustDecimal(t, "100.00")), "balance must be untouched on a Validate failure")
}

// freezeOnSecondRead wraps the ledger repo and freezes target on its second
// read, so the validate step sees it ACTIVE and the credit step finds it
// FROZEN.
type freezeOnSecondRead struct {
	*fakeLedgerRepo
	target string
	reads  int
}

func (f *freezeOnSecondRead) FindByAccountNumber(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	if accountNumber == f.target {
		f.reads++

		if f.reads == 2 {
			f.fakeLedgerRepo.accounts[accountNumber].Status = ledger.StatusFrozen
		}
	}

	return f.fakeLedgerRepo.FindByAccountNumber(ctx, accountNumber)
}

func TestInitiateTransfer_CreditFailure_CompensatesDebit(t *testing.T) {
	freezing := &freezeOnSecondRead{fakeLedgerRepo: newFakeLedgerRepo()}
	ledgerSvc := ledger.NewService(freezing, nil)
	svc := transfer.NewService(newMemRepository(), ledgerSvc, saga.NewOrchestrator(saga.NewMemoryRepository()), nil)
	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "TRY", "500.00", ledger.StatusActive)
	openAccount(t, ledgerSvc, "B", "TRY", "0.00", ledger.StatusActive)
	freezing.target = "B" // only count reads made by the saga itself

	amount, err := money.New("TRY", "100.00")
	require.NoError(t, err)

	tr, err := svc.InitiateTransfer(ctx, "A", "B", amount, "")
	require.Error(t, err)
	assert.Equal(t, transfer.StatusCompensated, tr.Status)

	balA, err := ledgerSvc.GetBalance(ctx, "A")
	require.NoError(t, err)
	assert.True(t, balA.Value.Equal(mustDecimal(t, "500.00")), "source balance must be restored by compensation")

	history, err := ledgerSvc.History(ctx, "A", time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, history, 2, "debit and its reversal credit must both appear in history")
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	amt, err := money.New("TRY", s)
	require.NoError(t, err)

	return amt.Value
}

// drainAfterReads wraps the ledger repo and empties the source account
// after the validate step's reads, simulating a concurrent drain landing
// between Validate and Debit.
type drainAfterReads struct {
	*fakeLedgerRepo
	target     string
	afterReads int
	reads      int
}

func (d *drainAfterReads) FindByAccountNumber(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	d.reads++

	if d.reads == d.afterReads {
		if acc, ok := d.fakeLedgerRepo.accounts[d.target]; ok {
			acc.Balance = money.Zero(acc.Balance.Currency)
			acc.Version++
		}
	}

	return d.fakeLedgerRepo.FindByAccountNumber(ctx, accountNumber)
}

func TestInitiateTransfer_DebitFailure_Compensated(t *testing.T) {
	ledgerRepo := newFakeLedgerRepo()
	drained := &drainAfterReads{fakeLedgerRepo: ledgerRepo, target: "A", afterReads: 2}
	ledgerSvc := ledger.NewService(drained, nil)

	xferRepo := newMemRepository()
	orc := saga.NewOrchestrator(saga.NewMemoryRepository())
	svc := transfer.NewService(xferRepo, ledgerSvc, orc, nil)

	ctx := context.Background()

	openAccount(t, ledgerSvc, "A", "TRY", "100.00", ledger.StatusActive)
	openAccount(t, ledgerSvc, "B", "TRY", "0.00", ledger.StatusActive)
	drained.reads = 0 // only count reads made by the saga itself

	amount, err := money.New("TRY", "100.00")
	require.NoError(t, err)

	tr, err := svc.InitiateTransfer(ctx, "A", "B", amount, "")
	require.Error(t, err)
	assert.Equal(t, transfer.StatusCompensated, tr.Status)

	balB, err := ledgerSvc.GetBalance(ctx, "B")
	require.NoError(t, err)
	assert.True(t, balB.Value.IsZero(), "destination must not be credited")

	history, err := ledgerSvc.History(ctx, "A", time.Time{}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, history, "a debit that never landed leaves no postings to unwind")
}
