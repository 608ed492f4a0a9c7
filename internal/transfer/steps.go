package transfer

import (
	"context"

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
)

// stepBase carries the shared dependencies every concrete step needs. It
// depends on *ledger.Service concretely rather than through a narrow
// interface: both packages live in the same module and the saga drives
// the ledger directly.
type stepBase struct {
	transfer *Transfer
	repo     Repository
	ledger   *ledger.Service
	outbox   OutboxStager
	clock    Clock
	tx       Transactor
}

func (s stepBase) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}

	return s.tx.WithinTx(ctx, fn)
}

func (s stepBase) saveStatus(ctx context.Context, status Status) error {
	s.transfer.Status = status
	s.transfer.Version++

	return s.repo.Update(ctx, s.transfer)
}

// validateStep is step 1: both accounts exist, distinct,
// active, currency-matched, source balance >= amount, amount > 0.
// Compensation is a no-op — nothing has happened yet.
type validateStep struct{ stepBase }

func (s validateStep) Name() string { return "validate" }

func (s validateStep) Execute(ctx context.Context) error {
	t := s.transfer

	if t.FromAccount == t.ToAccount {
		return ErrSameAccount
	}

	if t.Amount.IsZero() || t.Amount.IsNegative() {
		return ErrInvalidAmount()
	}

	from, err := s.ledger.GetAccount(ctx, t.FromAccount)
	if err != nil {
		return err
	}

	to, err := s.ledger.GetAccount(ctx, t.ToAccount)
	if err != nil {
		return err
	}

	if err := from.AssertActive(); err != nil {
		return err
	}

	if err := to.AssertActive(); err != nil {
		return err
	}

	if from.Currency != t.Amount.Currency || to.Currency != t.Amount.Currency {
		return ledger.ErrCurrencyMismatch(t.FromAccount)
	}

	if from.Balance.LessThan(t.Amount) {
		return ledger.ErrInsufficientFunds(t.FromAccount)
	}

	return s.saveStatus(ctx, StatusValidating)
}

func (s validateStep) Compensate(context.Context) error { return nil }

// debitStep is step 2: debit source with ref=transferRef. Compensation
// credits source back with ref=transferRef+":REVERSAL".
type debitStep struct{ stepBase }

func (s debitStep) Name() string { return "debit_source" }

func (s debitStep) Execute(ctx context.Context) error {
	t := s.transfer

	if err := s.saveStatus(ctx, StatusDebitPending); err != nil {
		return err
	}

	posting, err := s.ledger.Debit(ctx, t.FromAccount, t.Amount, t.TransferReference,
		"transfer "+t.TransferReference+" to "+t.ToAccount)
	if err != nil {
		return err
	}

	id := posting.ID
	t.DebitPostingID = &id

	return s.saveStatus(ctx, StatusDebitCompleted)
}

func (s debitStep) Compensate(ctx context.Context) error {
	t := s.transfer

	_, err := s.ledger.Credit(ctx, t.FromAccount, t.Amount, t.ReversalRef(),
		"reversal of "+t.TransferReference)

	return err
}

// creditStep is step 3: credit destination with ref=transferRef.
// Compensation debits destination back with ref=transferRef+":REVERSAL".
type creditStep struct{ stepBase }

func (s creditStep) Name() string { return "credit_destination" }

func (s creditStep) Execute(ctx context.Context) error {
	t := s.transfer

	if err := s.saveStatus(ctx, StatusCreditPending); err != nil {
		return err
	}

	posting, err := s.ledger.Credit(ctx, t.ToAccount, t.Amount, t.TransferReference,
		"transfer "+t.TransferReference+" from "+t.FromAccount)
	if err != nil {
		return err
	}

	id := posting.ID
	t.CreditPostingID = &id

	return nil
}

func (s creditStep) Compensate(ctx context.Context) error {
	t := s.transfer

	_, err := s.ledger.Debit(ctx, t.ToAccount, t.Amount, t.ReversalRef(),
		"reversal of "+t.TransferReference)

	return err
}

// confirmStep is step 4: set status=COMPLETED, completedAt=now, publish
// transfer.completed.
type confirmStep struct{ stepBase }

func (s confirmStep) Name() string { return "confirm" }

func (s confirmStep) Execute(ctx context.Context) error {
	t := s.transfer
	now := s.clock.Now()
	t.CompletedAt = &now
	t.Status = StatusCompleted
	t.Version++

	return s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, t); err != nil {
			return err
		}

		if s.outbox == nil {
			return nil
		}

		evt := eventbus.NewEvent("transfer.completed.v1", t.TransferReference, "Transfer", CompletedEvent{
			TransferReference: t.TransferReference,
			FromAccount:       t.FromAccount,
			ToAccount:         t.ToAccount,
			Amount:            t.Amount.Value.StringFixed(2),
			Currency:          t.Amount.Currency,
		}, now)

		return s.outbox.StageEvent(ctx, evt)
	})
}

func (s confirmStep) Compensate(context.Context) error {
	return apperr.New(apperr.KindCompensation, "Transfer", "CONFIRM_NOT_COMPENSABLE", "Not Compensable",
		"confirm is the terminal step and has no compensation")
}

// InitiatedEvent is the payload of "transfer.initiated.v1".
type InitiatedEvent struct {
	TransferReference string `json:"transferReference"`
	FromAccount       string `json:"fromAccount"`
	ToAccount         string `json:"toAccount"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
}

// FailedEvent is the payload of "transfer.failed.v1", covering both the
// FAILED and COMPENSATED terminal positions.
type FailedEvent struct {
	TransferReference string `json:"transferReference"`
	Status            string `json:"status"`
	FailureReason     string `json:"failureReason"`
}

// CompletedEvent is the payload of "transfer.completed.v1".
type CompletedEvent struct {
	TransferReference string `json:"transferReference"`
	FromAccount       string `json:"fromAccount"`
	ToAccount         string `json:"toAccount"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
}

// OutboxStager stages an outbox row in the same transaction as a domain
// write; implemented by internal/transfer/postgres alongside Repository.
type OutboxStager interface {
	StageEvent(ctx context.Context, evt eventbus.DomainEvent) error
}
