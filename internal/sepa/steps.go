package sepa

import (
	"context"
	"time"

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
)

// stepBase carries dependencies shared by every concrete SCT/SCT_INST saga
// step, following internal/transfer/steps.go's stepBase shape.
type stepBase struct {
	transfer *Transfer
	repo     Repository
	ledger   *ledger.Service
	gateway  *NetworkGateway
	outbox   OutboxStager
	clock    Clock
	ackWait  time.Duration
	tx       Transactor
}

func (s stepBase) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}

	return s.tx.WithinTx(ctx, fn)
}

func (s stepBase) saveStatus(ctx context.Context, status TransferStatus) error {
	s.transfer.Status = status
	s.transfer.Version++

	return s.repo.Update(ctx, s.transfer)
}

// validateStep checks the source account and amount, mirroring
// internal/transfer's validateStep but without a destination account (the
// creditor lives outside the ledger).
type validateStep struct{ stepBase }

func (s validateStep) Name() string { return "validate" }

func (s validateStep) Execute(ctx context.Context) error {
	t := s.transfer

	if t.Amount.IsZero() || t.Amount.IsNegative() {
		return ErrSCTInvalidAmount(t.TransferReference)
	}

	from, err := s.ledger.GetAccount(ctx, t.FromAccount)
	if err != nil {
		return err
	}

	if err := from.AssertActive(); err != nil {
		return err
	}

	if from.Currency != t.Amount.Currency {
		return ledger.ErrCurrencyMismatch(t.FromAccount)
	}

	if from.Balance.LessThan(t.Amount) {
		return ledger.ErrInsufficientFunds(t.FromAccount)
	}

	return s.saveStatus(ctx, TransferStatusValidating)
}

func (s validateStep) Compensate(context.Context) error { return nil }

// debitStep debits the source account, identically to the internal
// transfer's debit step.
type debitStep struct{ stepBase }

func (s debitStep) Name() string { return "debit_source" }

func (s debitStep) Execute(ctx context.Context) error {
	t := s.transfer

	posting, err := s.ledger.Debit(ctx, t.FromAccount, t.Amount, t.TransferReference,
		"SEPA "+string(t.Scheme)+" "+t.TransferReference+" to "+t.CreditorIBAN)
	if err != nil {
		return err
	}

	id := posting.ID
	t.DebitPostingID = &id

	return s.saveStatus(ctx, TransferStatusDebitCompleted)
}

func (s debitStep) Compensate(ctx context.Context) error {
	t := s.transfer

	_, err := s.ledger.Credit(ctx, t.FromAccount, t.Amount, t.ReversalRef(),
		"reversal of "+t.TransferReference)

	return err
}

// submitNetworkStep builds the ISO 20022 instruction and hands it to the
// SEPA network.
type submitNetworkStep struct{ stepBase }

func (s submitNetworkStep) Name() string { return "submit_network" }

func (s submitNetworkStep) Execute(ctx context.Context) error {
	t := s.transfer

	var (
		doc []byte
		err error
	)

	if t.Scheme == SchemeSCTInst {
		doc, err = BuildPacs008(t.TransferReference, t.TransferReference, t.FromAccount, t.CreditorIBAN, t.Amount, s.clock.Now())
	} else {
		doc, err = BuildPain001(t.TransferReference, []Instruction{{
			EndToEndID:   t.TransferReference,
			CreditorIBAN: t.CreditorIBAN,
			Amount:       t.Amount,
		}}, s.clock.Now())
	}

	if err != nil {
		return err
	}

	ackRef, err := s.gateway.Submit(ctx, t.TransferReference, doc)
	if err != nil {
		return err
	}

	t.NetworkAckID = ackRef

	return s.saveStatus(ctx, TransferStatusSubmitted)
}

// Compensate is a best-effort no-op: once submitted, unwinding a transfer
// that the network may already be processing is left to debitStep's
// compensating credit, not a network recall.
func (s submitNetworkStep) Compensate(context.Context) error { return nil }

// awaitAckStep polls for settlement acknowledgment from the network.
type awaitAckStep struct {
	stepBase
}

func (s awaitAckStep) Name() string { return "await_ack" }

func (s awaitAckStep) Execute(ctx context.Context) error {
	t := s.transfer

	if err := s.saveStatus(ctx, TransferStatusAwaitingAck); err != nil {
		return err
	}

	wait := s.ackWait
	if wait <= 0 {
		wait = defaultAckWait
	}

	if err := s.gateway.AwaitAck(ctx, t.NetworkAckID, wait); err != nil {
		return err
	}

	return nil
}

func (s awaitAckStep) Compensate(ctx context.Context) error {
	t := s.transfer

	_, err := s.ledger.Credit(ctx, t.FromAccount, t.Amount, t.ReversalRef(),
		"reversal of unsettled SEPA transfer "+t.TransferReference)

	return err
}

// defaultAckWait bounds how long awaitAckStep polls before giving up and
// letting the saga compensate.
const defaultAckWait = 30 * time.Second

// confirmStep marks the transfer COMPLETED and publishes the completion
// event, mirroring internal/transfer's confirmStep.
type confirmStep struct{ stepBase }

func (s confirmStep) Name() string { return "confirm" }

func (s confirmStep) Execute(ctx context.Context) error {
	t := s.transfer
	now := s.clock.Now()
	t.CompletedAt = &now
	t.Status = TransferStatusCompleted
	t.Version++

	return s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, t); err != nil {
			return err
		}

		if s.outbox == nil {
			return nil
		}

		evt := eventbus.NewEvent("sepa.transfer.completed.v1", t.TransferReference, "SepaTransfer", CompletedEvent{
			TransferReference: t.TransferReference,
			Scheme:            string(t.Scheme),
			FromAccount:       t.FromAccount,
			CreditorIBAN:      t.CreditorIBAN,
			Amount:            t.Amount.Value.StringFixed(2),
			Currency:          t.Amount.Currency,
		}, now)

		return s.outbox.StageEvent(ctx, evt)
	})
}

func (s confirmStep) Compensate(context.Context) error {
	return apperr.New(apperr.KindCompensation, "SepaTransfer", "CONFIRM_NOT_COMPENSABLE", "Not Compensable",
		"confirm is the terminal step and has no compensation")
}

// CompletedEvent is the payload of "sepa.transfer.completed.v1".
type CompletedEvent struct {
	TransferReference string `json:"transferReference"`
	Scheme            string `json:"scheme"`
	FromAccount       string `json:"fromAccount"`
	CreditorIBAN      string `json:"creditorIban"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
}

// OutboxStager stages an outbox row alongside a domain write.
type OutboxStager interface {
	StageEvent(ctx context.Context, evt eventbus.DomainEvent) error
}
