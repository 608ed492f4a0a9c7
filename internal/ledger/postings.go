package ledger

import (
	"context"

	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/mlog"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/platform/mtrace"
)

// AccountPostedEvent is the payload of "account.posted.v1".
type AccountPostedEvent struct {
	AccountNumber string `json:"accountNumber"`
	Direction     string `json:"direction"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ReferenceID   string `json:"referenceId"`
	BalanceAfter  string `json:"balanceAfter"`
}

// Credit posts a CREDIT line to accountNumber. Idempotent keyed by
// (accountNumber, CREDIT, referenceID): a replay returns the original
// posting without side effects.
func (s *Service) Credit(ctx context.Context, accountNumber string, amount money.Amount, referenceID, description string) (*PostingLine, error) {
	return s.post(ctx, accountNumber, DirectionCredit, amount, referenceID, description)
}

// Debit posts a DEBIT line to accountNumber, failing with InsufficientFunds
// if it would take the balance negative.
func (s *Service) Debit(ctx context.Context, accountNumber string, amount money.Amount, referenceID, description string) (*PostingLine, error) {
	return s.post(ctx, accountNumber, DirectionDebit, amount, referenceID, description)
}

func (s *Service) post(ctx context.Context, accountNumber string, direction Direction, amount money.Amount, referenceID, description string) (*PostingLine, error) {
	logger := mlog.FromContext(ctx)
	tracer := mtrace.FromContext(ctx)

	ctx, span := tracer.Start(ctx, "ledger.post")
	defer span.End()

	account, err := s.Repo.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		mtrace.HandleSpanError(&span, "account lookup failed", err)
		return nil, err
	}

	if existing, err := s.Repo.FindPosting(ctx, account.ID, direction, referenceID); err != nil {
		return nil, err
	} else if existing != nil {
		logger.Infof("replaying posting %s on %s (%s)", referenceID, accountNumber, direction)
		return existing, nil
	}

	if err := account.AssertActive(); err != nil {
		return nil, err
	}

	if account.Currency != amount.Currency {
		return nil, ErrCurrencyMismatch(accountNumber)
	}

	var posting *PostingLine

	// The balance CAS, the posting line and the staged event land in one
	// transaction: a crash can never leave a moved balance without its
	// line, or a line without its account.posted.v1 event.
	err = s.withinTx(ctx, func(ctx context.Context) error {
		updated, err := s.withRetry(ctx, accountNumber, func(acc *Account) error {
			if err := acc.AssertActive(); err != nil {
				return err
			}

			if acc.Currency != amount.Currency {
				return ErrCurrencyMismatch(accountNumber)
			}

			var newBalance money.Amount

			switch direction {
			case DirectionDebit:
				newBalance = acc.Balance.Sub(amount)
				if newBalance.IsNegative() {
					return ErrInsufficientFunds(accountNumber)
				}
			case DirectionCredit:
				newBalance = acc.Balance.Add(amount)
			}

			acc.Balance = newBalance

			posting = &PostingLine{
				ID:           s.IDGen(),
				AccountID:    acc.ID,
				Direction:    direction,
				Amount:       amount,
				ReferenceID:  referenceID,
				Description:  description,
				BalanceAfter: newBalance,
				PostedAt:     s.Clock.Now(),
			}

			return nil
		})
		if err != nil {
			return err
		}

		if err := s.Repo.InsertPosting(ctx, posting); err != nil {
			return err
		}

		if s.Outbox == nil {
			return nil
		}

		evt := eventbus.NewEvent("account.posted.v1", accountNumber, "Account", AccountPostedEvent{
			AccountNumber: accountNumber,
			Direction:     string(direction),
			Amount:        amount.Value.StringFixed(money.Scale),
			Currency:      amount.Currency,
			ReferenceID:   referenceID,
			BalanceAfter:  updated.Balance.Value.StringFixed(money.Scale),
		}, s.Clock.Now())

		return s.Outbox.StageEvent(ctx, evt)
	})
	if err != nil {
		return nil, err
	}

	return posting, nil
}
