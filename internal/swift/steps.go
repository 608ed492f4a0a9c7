package swift

import (
	"context"

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
)

// stepBase carries dependencies shared by every concrete saga step.
type stepBase struct {
	transfer *Transfer
	repo     Repository
	ledger   *ledger.Service
	gate     ComplianceGate
	gateway  *NetworkGateway
	fees     FeeSchedule
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

// validateStep is step 1, the PENDING -> VALIDATING transition: the
// source account exists, is active, has sufficient funds for amount+fee,
// and both BICs are well-formed.
type validateStep struct{ stepBase }

func (s validateStep) Name() string { return "validate" }

func (s validateStep) Execute(ctx context.Context) error {
	t := s.transfer

	if t.Amount.IsZero() || t.Amount.IsNegative() {
		return ErrInvalidAmount()
	}

	from, err := s.ledger.GetAccount(ctx, t.FromAccount)
	if err != nil {
		return err
	}

	if err := from.AssertActive(); err != nil {
		return err
	}

	t.Fee = s.fees.Compute(t.Amount)
	total := t.Amount.Add(t.Fee)

	if from.Currency != t.Amount.Currency {
		return ledger.ErrCurrencyMismatch(t.FromAccount)
	}

	if from.Balance.LessThan(total) {
		return ledger.ErrInsufficientFunds(t.FromAccount)
	}

	return s.saveStatus(ctx, StatusValidating)
}

func (s validateStep) Compensate(context.Context) error { return nil }

// complianceStep is step 2: screen beneficiary/ordering customer against
// sanctions.
type complianceStep struct{ stepBase }

func (s complianceStep) Name() string { return "compliance_check" }

func (s complianceStep) Execute(ctx context.Context) error {
	t := s.transfer

	if err := s.saveStatus(ctx, StatusComplianceCheck); err != nil {
		return err
	}

	cleared, reason, err := s.gate.Screen(ctx, t.BeneficiaryName, t.OrderingCustomer)
	if err != nil {
		return err
	}

	if !cleared {
		t.FailureReason = reason
		return ErrComplianceBlocked(t.TransferReference)
	}

	t.ComplianceCleared = true

	return nil
}

func (s complianceStep) Compensate(context.Context) error { return nil }

// debitStep debits the source account for amount+fee.
type debitStep struct{ stepBase }

func (s debitStep) Name() string { return "debit_source" }

func (s debitStep) Execute(ctx context.Context) error {
	t := s.transfer
	total := t.Amount.Add(t.Fee)

	if err := s.saveStatus(ctx, StatusProcessing); err != nil {
		return err
	}

	posting, err := s.ledger.Debit(ctx, t.FromAccount, total, t.TransferReference,
		"SWIFT transfer "+t.TransferReference+" to "+string(t.ReceiverBIC))
	if err != nil {
		return err
	}

	id := posting.ID
	t.DebitPostingID = &id

	return nil
}

func (s debitStep) Compensate(ctx context.Context) error {
	t := s.transfer
	total := t.Amount.Add(t.Fee)

	_, err := s.ledger.Credit(ctx, t.FromAccount, total, t.ReversalRef(),
		"reversal of "+t.TransferReference)

	return err
}

// submitStep builds the MT103 and hands it to the correspondent-banking
// network.
type submitStep struct{ stepBase }

func (s submitStep) Name() string { return "submit" }

func (s submitStep) Execute(ctx context.Context) error {
	t := s.transfer

	mt103, err := BuildMT103(MT103Fields{
		SenderBIC:           t.SenderBIC,
		ReceiverBIC:         t.ReceiverBIC,
		Reference:           t.TransferReference,
		OperationCode:       "CRED",
		ValueDate:           s.clock.Now(),
		Amount:              t.Amount,
		OrderingCustomer:    t.OrderingCustomer,
		OrderingInstitution: string(t.SenderBIC),
		BeneficiaryBank:     string(t.ReceiverBIC),
		Beneficiary:         t.BeneficiaryName + "/" + t.BeneficiaryAccount,
		RemittanceInfo:      t.RemittanceInfo,
		ChargeType:          t.ChargeType,
	})
	if err != nil {
		return err
	}

	t.MT103 = mt103

	if _, err := s.gateway.Submit(ctx, t.TransferReference, mt103); err != nil {
		return err
	}

	return s.saveStatus(ctx, StatusSubmitted)
}

func (s submitStep) Compensate(ctx context.Context) error {
	t := s.transfer
	total := t.Amount.Add(t.Fee)

	_, err := s.ledger.Credit(ctx, t.FromAccount, total, t.ReversalRef(),
		"reversal of unconfirmed SWIFT transfer "+t.TransferReference)

	return err
}

// confirmStep finalizes the transfer as COMPLETED.
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

		evt := eventbus.NewEvent("swift.transfer.completed.v1", t.TransferReference, "SwiftTransfer", CompletedEvent{
			TransferReference: t.TransferReference,
			FromAccount:       t.FromAccount,
			BeneficiaryBIC:    string(t.ReceiverBIC),
			Amount:            t.Amount.Value.StringFixed(2),
			Fee:               t.Fee.Value.StringFixed(2),
			Currency:          t.Amount.Currency,
		}, now)

		return s.outbox.StageEvent(ctx, evt)
	})
}

func (s confirmStep) Compensate(context.Context) error {
	return apperr.New(apperr.KindCompensation, "SwiftTransfer", "CONFIRM_NOT_COMPENSABLE", "Not Compensable",
		"confirm is the terminal step and has no compensation")
}

// CompletedEvent is the payload of "swift.transfer.completed.v1".
type CompletedEvent struct {
	TransferReference string `json:"transferReference"`
	FromAccount       string `json:"fromAccount"`
	BeneficiaryBIC    string `json:"beneficiaryBic"`
	Amount            string `json:"amount"`
	Fee               string `json:"fee"`
	Currency          string `json:"currency"`
}

// OutboxStager stages an outbox row alongside a domain write.
type OutboxStager interface {
	StageEvent(ctx context.Context, evt eventbus.DomainEvent) error
}
