package sepa

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianledger/corebank/internal/platform/mlog"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// CreateMandate registers a PENDING SDD mandate under its UMR.
func (s *Service) CreateMandate(ctx context.Context, umr, debtorIBAN, creditorIBAN, creditorID string, mtype MandateType, signatureDate time.Time, currency string, maxAmount *money.Amount) (*Mandate, error) {
	m := NewMandate(umr, debtorIBAN, creditorIBAN, creditorID, mtype, signatureDate, currency, maxAmount)

	if err := s.Mandates.Create(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// ActivateMandate moves a PENDING mandate to ACTIVE, rejecting a signature
// date in the future.
func (s *Service) ActivateMandate(ctx context.Context, umr string) (*Mandate, error) {
	return s.mutateMandate(ctx, umr, func(m *Mandate) error {
		return m.Activate(s.Clock.Now())
	})
}

// SuspendMandate moves an ACTIVE mandate to SUSPENDED.
func (s *Service) SuspendMandate(ctx context.Context, umr string) (*Mandate, error) {
	return s.mutateMandate(ctx, umr, func(m *Mandate) error { return m.Suspend() })
}

// ResumeMandate moves a SUSPENDED mandate back to ACTIVE.
func (s *Service) ResumeMandate(ctx context.Context, umr string) (*Mandate, error) {
	return s.mutateMandate(ctx, umr, func(m *Mandate) error { return m.Resume() })
}

// CancelMandate terminally cancels a mandate.
func (s *Service) CancelMandate(ctx context.Context, umr string) (*Mandate, error) {
	return s.mutateMandate(ctx, umr, func(m *Mandate) error { return m.Cancel() })
}

// RecordCollection applies one SDD collection attempt against the mandate,
// advancing its sequence FRST -> RCUR on the first success.
func (s *Service) RecordCollection(ctx context.Context, umr string, amount money.Amount, success bool) (*Mandate, error) {
	return s.mutateMandate(ctx, umr, func(m *Mandate) error {
		return m.RecordCollection(amount, success, s.Clock.Now())
	})
}

// GetMandate returns the mandate stored under umr.
func (s *Service) GetMandate(ctx context.Context, umr string) (*Mandate, error) {
	return s.Mandates.FindByUMR(ctx, umr)
}

func (s *Service) mutateMandate(ctx context.Context, umr string, mutate func(*Mandate) error) (*Mandate, error) {
	m, err := s.Mandates.FindByUMR(ctx, umr)
	if err != nil {
		return nil, err
	}

	if err := mutate(m); err != nil {
		return nil, err
	}

	m.Version++

	if err := s.Mandates.Update(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// CreateBatch groups already-created transfers into a PENDING batch,
// summing the total from the referenced transfers themselves so the
// declared total can never drift from its parts.
func (s *Service) CreateBatch(ctx context.Context, btype BatchType, refs []string) (*Batch, error) {
	var total money.Amount

	for i, ref := range refs {
		t, err := s.Repo.FindByReference(ctx, ref)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			total = t.Amount
		} else {
			total = total.Add(t.Amount)
		}
	}

	b := NewBatch(fmt.Sprintf("BATCH-%s", s.IDGen().String()), btype, refs, total, s.Clock.Now())

	if err := s.Batches.Create(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// ValidateBatch moves a PENDING batch through VALIDATING to VALIDATED.
func (s *Service) ValidateBatch(ctx context.Context, messageID string) (*Batch, error) {
	return s.mutateBatch(ctx, messageID, func(b *Batch) error { return b.Validate() })
}

// SubmitBatch renders the batch's canonical pain.001 document, persists it
// on the batch row, and hands it to the SEPA network. On acceptance the
// batch begins PROCESSING.
func (s *Service) SubmitBatch(ctx context.Context, messageID string) (*Batch, error) {
	logger := mlog.FromContext(ctx)

	return s.mutateBatch(ctx, messageID, func(b *Batch) error {
		instructions := make([]Instruction, 0, len(b.TransactionReferences))

		for _, ref := range b.TransactionReferences {
			t, err := s.Repo.FindByReference(ctx, ref)
			if err != nil {
				return err
			}

			instructions = append(instructions, Instruction{
				EndToEndID:   t.TransferReference,
				CreditorIBAN: t.CreditorIBAN,
				Amount:       t.Amount,
			})
		}

		doc, err := BuildPain001(b.MessageID, instructions, s.Clock.Now())
		if err != nil {
			return err
		}

		if err := b.Submit(s.Clock.Now()); err != nil {
			return err
		}

		b.Document = doc

		if _, err := s.Gateway.Submit(ctx, b.MessageID, doc); err != nil {
			return err
		}

		logger.Infof("sepa: batch %s submitted (%d transactions)", b.MessageID, b.NumberOfTransactions)

		return b.BeginProcessing()
	})
}

// RecordBatchResult applies one underlying transaction outcome to the
// batch counters, advancing it to PARTIALLY_COMPLETE/COMPLETED once every
// transaction has reported.
func (s *Service) RecordBatchResult(ctx context.Context, messageID string, success bool) (*Batch, error) {
	return s.mutateBatch(ctx, messageID, func(b *Batch) error { return b.RecordResult(success) })
}

// GetBatch returns the batch stored under messageID.
func (s *Service) GetBatch(ctx context.Context, messageID string) (*Batch, error) {
	return s.Batches.FindByMessageID(ctx, messageID)
}

func (s *Service) mutateBatch(ctx context.Context, messageID string, mutate func(*Batch) error) (*Batch, error) {
	b, err := s.Batches.FindByMessageID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if err := mutate(b); err != nil {
		return nil, err
	}

	b.Version++

	if err := s.Batches.Update(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// InitiateReturn opens an R-transaction against a settled transfer,
// carrying the original amount.
func (s *Service) InitiateReturn(ctx context.Context, originalRef string, reason ReasonCode) (*Return, error) {
	original, err := s.Repo.FindByReference(ctx, originalRef)
	if err != nil {
		return nil, err
	}

	r := Initiate(s.IDGen().String(), originalRef, reason, original.Amount, s.Clock.Now())

	if err := s.Returns.Create(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

// ValidateReturn rejects unknown reason codes and moves the return to
// VALIDATED.
func (s *Service) ValidateReturn(ctx context.Context, id string) (*Return, error) {
	return s.mutateReturn(ctx, id, func(r *Return) error { return r.Validate() })
}

// ProcessReturn moves a VALIDATED return to PROCESSING.
func (s *Service) ProcessReturn(ctx context.Context, id string) (*Return, error) {
	return s.mutateReturn(ctx, id, func(r *Return) error { return r.BeginProcessing() })
}

// CompleteReturn moves a PROCESSING return to COMPLETED.
func (s *Service) CompleteReturn(ctx context.Context, id string) (*Return, error) {
	return s.mutateReturn(ctx, id, func(r *Return) error { return r.Complete() })
}

// RefundReturn makes the debtor whole: it credits the original source
// account with an inverse posting keyed by the return id, then moves the
// return to REFUNDED. The credit is idempotent under its reference, so a
// crashed refund can be re-driven safely.
func (s *Service) RefundReturn(ctx context.Context, id string) (*Return, error) {
	r, err := s.Returns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	original, err := s.Repo.FindByReference(ctx, r.OriginalReference)
	if err != nil {
		return nil, err
	}

	refundRef := r.OriginalReference + ":RETURN:" + r.ID

	if _, err := s.Ledger.Credit(ctx, original.FromAccount, r.Amount, refundRef,
		"SEPA return "+string(r.ReasonCode)+" of "+r.OriginalReference); err != nil {
		return nil, err
	}

	return s.mutateReturn(ctx, id, func(r *Return) error { return r.Refund(s.Clock.Now()) })
}

// GetReturn returns the R-transaction stored under id.
func (s *Service) GetReturn(ctx context.Context, id string) (*Return, error) {
	return s.Returns.FindByID(ctx, id)
}

// SumReturnAmountByReasonCode totals stored return amounts per reason
// code, the reconciliation figure compliance reporting asks for.
func (s *Service) SumReturnAmountByReasonCode(ctx context.Context, code ReasonCode) (string, error) {
	return s.Returns.SumAmountByReasonCode(ctx, code)
}

func (s *Service) mutateReturn(ctx context.Context, id string, mutate func(*Return) error) (*Return, error) {
	r, err := s.Returns.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := mutate(r); err != nil {
		return nil, err
	}

	r.Version++

	if err := s.Returns.Update(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}
