package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/mlog"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/platform/mtrace"
)

// maxConcurrencyRetries bounds the optimistic-concurrency retry loop before
// a posting gives up with ConcurrencyAborted.
const maxConcurrencyRetries = 5

// Clock is injected so every timestamp the service stamps is
// deterministically controllable in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Service implements the posting operations over a Repository: logger and
// tracer span per operation, repo call, typed error translation.
type Service struct {
	Repo   Repository
	Outbox OutboxStager
	Clock  Clock
	IDGen  func() uuid.UUID

	// Tx wraps each posting's balance update, line insert and outbox
	// stage in one database transaction; nil (tests) runs them directly.
	Tx Transactor
}

// OutboxStager stages an outbox row in the same transaction as a domain
// write; implemented by internal/ledger/postgres alongside Repository.
type OutboxStager interface {
	StageEvent(ctx context.Context, evt eventbus.DomainEvent) error
}

// NewService builds a Service with production defaults for Clock/IDGen.
func NewService(repo Repository, outbox OutboxStager) *Service {
	return &Service{
		Repo:   repo,
		Outbox: outbox,
		Clock:  SystemClock{},
		IDGen:  func() uuid.UUID { return uuid.Must(uuid.NewV7()) },
	}
}

// OpenAccount creates a new account in PENDING status with the given
// initial balance.
func (s *Service) OpenAccount(ctx context.Context, customerID uuid.UUID, accountNumber, currency string, accType AccountType, initialBalance money.Amount) (*Account, error) {
	logger := mlog.FromContext(ctx)
	tracer := mtrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "ledger.open_account")
	defer span.End()

	logger.Infof("opening account %s for customer %s", accountNumber, customerID)

	now := s.Clock.Now()

	account := &Account{
		ID:            s.IDGen(),
		AccountNumber: accountNumber,
		CustomerID:    customerID,
		Currency:      currency,
		Type:          accType,
		Status:        StatusPending,
		Balance:       initialBalance,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.Repo.Create(ctx, account); err != nil {
		mtrace.HandleSpanError(&span, "failed to create account", err)
		return nil, err
	}

	return account, nil
}

// SetStatus transitions an account's status, enforcing the transition
// DAG.
func (s *Service) SetStatus(ctx context.Context, accountNumber string, newStatus Status) (*Account, error) {
	tracer := mtrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "ledger.set_status")
	defer span.End()

	return s.withRetry(ctx, accountNumber, func(account *Account) error {
		if !CanTransition(account.Status, newStatus) {
			return ErrIllegalStateTransition(accountNumber, account.Status, newStatus)
		}

		if newStatus == StatusClosed && !account.Balance.IsZero() {
			return ErrCloseNonZeroBalance(accountNumber)
		}

		account.Status = newStatus

		return nil
	})
}

// Close is SetStatus(CLOSED), exposed under its own name.
func (s *Service) Close(ctx context.Context, accountNumber string) (*Account, error) {
	return s.SetStatus(ctx, accountNumber, StatusClosed)
}

// GetBalance returns the account's current balance.
func (s *Service) GetBalance(ctx context.Context, accountNumber string) (money.Amount, error) {
	account, err := s.Repo.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return money.Amount{}, err
	}

	return account.Balance, nil
}

// GetAccount returns the full account by its number, used by callers
// (e.g. internal/transfer's Validate step) that need more than the
// balance: status, currency, customerId. Linkage to a customer goes
// through account.customerId, never derived from the account number
// string.
func (s *Service) GetAccount(ctx context.Context, accountNumber string) (*Account, error) {
	return s.Repo.FindByAccountNumber(ctx, accountNumber)
}

// History returns posting lines for accountNumber within [from, to).
func (s *Service) History(ctx context.Context, accountNumber string, from, to time.Time) ([]PostingLine, error) {
	account, err := s.Repo.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	return s.Repo.History(ctx, account.ID, from, to)
}

// withinTx runs fn under the configured Transactor, or directly when
// none is wired.
func (s *Service) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Tx == nil {
		return fn(ctx)
	}

	return s.Tx.WithinTx(ctx, fn)
}

// withRetry re-reads the account and applies mutate, retrying on a lost
// optimistic-concurrency race up to maxConcurrencyRetries times before
// surfacing ConcurrencyAborted.
func (s *Service) withRetry(ctx context.Context, accountNumber string, mutate func(*Account) error) (*Account, error) {
	for attempt := 0; attempt < maxConcurrencyRetries; attempt++ {
		account, err := s.Repo.FindByAccountNumber(ctx, accountNumber)
		if err != nil {
			return nil, err
		}

		expectedVersion := account.Version

		if err := mutate(account); err != nil {
			return nil, err
		}

		account.Version = expectedVersion + 1
		account.UpdatedAt = s.Clock.Now()

		rows, err := s.Repo.UpdateWithVersion(ctx, account, expectedVersion)
		if err != nil {
			return nil, err
		}

		if rows > 0 {
			return account, nil
		}
	}

	return nil, ErrConcurrencyAborted(accountNumber)
}
