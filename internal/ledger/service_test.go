package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/money"
)

type fakeRepo struct {
	accounts map[string]*Account
	postings map[string]*PostingLine
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: map[string]*Account{}, postings: map[string]*PostingLine{}}
}

func (r *fakeRepo) Create(_ context.Context, account *Account) error {
	r.accounts[account.AccountNumber] = account
	return nil
}

func (r *fakeRepo) FindByAccountNumber(_ context.Context, accountNumber string) (*Account, error) {
	a, ok := r.accounts[accountNumber]
	if !ok {
		return nil, ErrAccountNotFound(accountNumber)
	}

	cp := *a

	return &cp, nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*Account, error) {
	for _, a := range r.accounts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}

	return nil, ErrAccountNotFound(id.String())
}

func (r *fakeRepo) UpdateWithVersion(_ context.Context, account *Account, expectedVersion int64) (int64, error) {
	current, ok := r.accounts[account.AccountNumber]
	if !ok || current.Version != expectedVersion {
		return 0, nil
	}

	cp := *account
	r.accounts[account.AccountNumber] = &cp

	return 1, nil
}

func postingKey(accountID uuid.UUID, direction Direction, ref string) string {
	return accountID.String() + "|" + string(direction) + "|" + ref
}

func (r *fakeRepo) FindPosting(_ context.Context, accountID uuid.UUID, direction Direction, referenceID string) (*PostingLine, error) {
	p, ok := r.postings[postingKey(accountID, direction, referenceID)]
	if !ok {
		return nil, nil
	}

	return p, nil
}

func (r *fakeRepo) InsertPosting(_ context.Context, posting *PostingLine) error {
	r.postings[postingKey(posting.AccountID, posting.Direction, posting.ReferenceID)] = posting
	return nil
}

func (r *fakeRepo) History(_ context.Context, accountID uuid.UUID, from, to time.Time) ([]PostingLine, error) {
	var out []PostingLine

	for _, p := range r.postings {
		if p.AccountID == accountID && !p.PostedAt.Before(from) && p.PostedAt.Before(to) {
			out = append(out, *p)
		}
	}

	return out, nil
}

type fakeOutbox struct {
	staged []eventbus.DomainEvent
}

func (o *fakeOutbox) StageEvent(_ context.Context, evt eventbus.DomainEvent) error {
	o.staged = append(o.staged, evt)
	return nil
}

func newTestService() (*Service, *fakeRepo, *fakeOutbox) {
	repo := newFakeRepo()
	outbox := &fakeOutbox{}
	svc := NewService(repo, outbox)

	return svc, repo, outbox
}

func activeAccount(t *testing.T, svc *Service, repo *fakeRepo, number string, balance string) {
	t.Helper()

	amt, err := money.New("EUR", balance)
	require.NoError(t, err)

	acc, err := svc.OpenAccount(context.Background(), uuid.Must(uuid.NewV7()), number, "EUR", AccountTypeChecking, amt)
	require.NoError(t, err)

	acc.Status = StatusActive
	repo.accounts[number] = acc
}

func TestCreditDebitBalanceInvariant(t *testing.T) {
	svc, repo, _ := newTestService()
	activeAccount(t, svc, repo, "ACC1", "100.00")

	amt, _ := money.New("EUR", "40.00")
	_, err := svc.Credit(context.Background(), "ACC1", amt, "ref-1", "deposit")
	require.NoError(t, err)

	amt2, _ := money.New("EUR", "25.00")
	_, err = svc.Debit(context.Background(), "ACC1", amt2, "ref-2", "withdrawal")
	require.NoError(t, err)

	balance, err := svc.GetBalance(context.Background(), "ACC1")
	require.NoError(t, err)
	assert.Equal(t, "115.00", balance.Value.StringFixed(money.Scale))
}

func TestDebitExactBalanceSucceedsOneCentOverFails(t *testing.T) {
	svc, repo, _ := newTestService()
	activeAccount(t, svc, repo, "ACC2", "100.00")

	exact, _ := money.New("EUR", "100.00")
	_, err := svc.Debit(context.Background(), "ACC2", exact, "ref-exact", "")
	require.NoError(t, err)

	activeAccount(t, svc, repo, "ACC3", "100.00")
	over, _ := money.New("EUR", "100.01")
	_, err = svc.Debit(context.Background(), "ACC3", over, "ref-over", "")
	require.Error(t, err)

	kind, ok := kindOf(err)
	require.True(t, ok)
	assert.Equal(t, "INSUFFICIENT_FUNDS", kind)
}

func TestPostingIsIdempotentByReferenceID(t *testing.T) {
	svc, repo, outbox := newTestService()
	activeAccount(t, svc, repo, "ACC4", "50.00")

	amt, _ := money.New("EUR", "10.00")

	first, err := svc.Credit(context.Background(), "ACC4", amt, "ref-idem", "")
	require.NoError(t, err)

	second, err := svc.Credit(context.Background(), "ACC4", amt, "ref-idem", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	balance, err := svc.GetBalance(context.Background(), "ACC4")
	require.NoError(t, err)
	assert.Equal(t, "60.00", balance.Value.StringFixed(money.Scale))

	// Only one account.posted.v1 event staged — the replay is side-effect free.
	assert.Len(t, outbox.staged, 1)
}

func TestFrozenAccountRejectsPosting(t *testing.T) {
	svc, repo, _ := newTestService()
	activeAccount(t, svc, repo, "ACC5", "10.00")

	_, err := svc.SetStatus(context.Background(), "ACC5", StatusFrozen)
	require.NoError(t, err)

	amt, _ := money.New("EUR", "1.00")
	_, err = svc.Credit(context.Background(), "ACC5", amt, "ref-frozen", "")
	require.Error(t, err)
}

func TestCloseRequiresZeroBalance(t *testing.T) {
	svc, repo, _ := newTestService()
	activeAccount(t, svc, repo, "ACC6", "5.00")

	_, err := svc.Close(context.Background(), "ACC6")
	require.Error(t, err)

	amt, _ := money.New("EUR", "5.00")
	_, err = svc.Debit(context.Background(), "ACC6", amt, "ref-drain", "")
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), "ACC6")
	require.NoError(t, err)
}

func TestIllegalStatusTransitionRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	activeAccount(t, svc, repo, "ACC7", "0.00")

	_, err := svc.Close(context.Background(), "ACC7")
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), "ACC7", StatusActive)
	require.Error(t, err)
}

func kindOf(err error) (string, bool) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return string(appErr.Kind), true
	}

	return "", false
}
