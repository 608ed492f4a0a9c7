package sepa

import (
	"time"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// BatchType is the SEPA scheme a Batch carries.
type BatchType string

const (
	BatchSCT      BatchType = "SCT"
	BatchSCTInst  BatchType = "SCT_INST"
	BatchSDDCore  BatchType = "SDD_CORE"
	BatchSDDB2B   BatchType = "SDD_B2B"
)

// BatchStatus is a batch's lifecycle position.
type BatchStatus string

const (
	BatchStatusPending            BatchStatus = "PENDING"
	BatchStatusValidating         BatchStatus = "VALIDATING"
	BatchStatusValidated          BatchStatus = "VALIDATED"
	BatchStatusSubmitted          BatchStatus = "SUBMITTED"
	BatchStatusProcessing         BatchStatus = "PROCESSING"
	BatchStatusPartiallyComplete  BatchStatus = "PARTIALLY_COMPLETE"
	BatchStatusCompleted          BatchStatus = "COMPLETED"
)

// Batch groups transfer or collection references bound for one SEPA network
// submission. Its per-transaction counters (successful,
// failed, pending) must always sum to NumberOfTransactions, the invariant
// RecordResult enforces.
type Batch struct {
	MessageID            string
	Type                 BatchType
	Status               BatchStatus
	TransactionReferences []string
	NumberOfTransactions int
	TotalAmount          money.Amount
	SuccessfulCount      int
	FailedCount          int

	// Document is the canonical pain.001 XML rendered at submission;
	// every persisted batch keeps it for audit.
	Document []byte

	CreatedAt   time.Time
	SubmittedAt *time.Time
	Version     int64
}

// NewBatch creates a PENDING batch over refs, whose total amount the caller
// has already summed from the underlying transfers/collections.
func NewBatch(messageID string, btype BatchType, refs []string, total money.Amount, createdAt time.Time) *Batch {
	return &Batch{
		MessageID:             messageID,
		Type:                  btype,
		Status:                BatchStatusPending,
		TransactionReferences: refs,
		NumberOfTransactions:  len(refs),
		TotalAmount:           total,
		CreatedAt:             createdAt,
	}
}

// Validate moves PENDING -> VALIDATING -> VALIDATED, rejecting an empty
// batch or one whose declared count disagrees with its reference list.
func (b *Batch) Validate() error {
	if b.Status != BatchStatusPending {
		return ErrBatchIllegalTransition(b.MessageID, b.Status, BatchStatusValidated)
	}

	b.Status = BatchStatusValidating

	if b.NumberOfTransactions == 0 || len(b.TransactionReferences) != b.NumberOfTransactions {
		return ErrBatchEmpty(b.MessageID)
	}

	b.Status = BatchStatusValidated

	return nil
}

// Submit moves VALIDATED -> SUBMITTED, stamping submittedAt.
func (b *Batch) Submit(submittedAt time.Time) error {
	if b.Status != BatchStatusValidated {
		return ErrBatchIllegalTransition(b.MessageID, b.Status, BatchStatusSubmitted)
	}

	b.Status = BatchStatusSubmitted
	t := submittedAt
	b.SubmittedAt = &t

	return nil
}

// BeginProcessing moves SUBMITTED -> PROCESSING, once the network has
// acknowledged receipt.
func (b *Batch) BeginProcessing() error {
	if b.Status != BatchStatusSubmitted {
		return ErrBatchIllegalTransition(b.MessageID, b.Status, BatchStatusProcessing)
	}

	b.Status = BatchStatusProcessing

	return nil
}

// RecordResult applies the outcome of one underlying transaction, advancing
// the batch to COMPLETED once every transaction has reported, or
// PARTIALLY_COMPLETE if any failed but all have reported.
func (b *Batch) RecordResult(success bool) error {
	if b.Status != BatchStatusProcessing {
		return ErrBatchIllegalTransition(b.MessageID, b.Status, b.Status)
	}

	if success {
		b.SuccessfulCount++
	} else {
		b.FailedCount++
	}

	reported := b.SuccessfulCount + b.FailedCount
	if reported < b.NumberOfTransactions {
		return nil
	}

	if b.FailedCount > 0 {
		b.Status = BatchStatusPartiallyComplete
	} else {
		b.Status = BatchStatusCompleted
	}

	return nil
}

func ErrBatchIllegalTransition(messageID string, from, to BatchStatus) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "SepaBatch", "BATCH_ILLEGAL_TRANSITION", "Illegal Batch Transition",
		"batch "+messageID+" cannot transition from "+string(from)+" to "+string(to))
}

func ErrBatchEmpty(messageID string) *apperr.Error {
	return apperr.New(apperr.KindValidation, "SepaBatch", "BATCH_EMPTY", "Empty Batch",
		"batch "+messageID+" declares no valid transaction references")
}

func ErrBatchNotFound(messageID string) *apperr.Error {
	return apperr.NotFound("SepaBatch", messageID)
}
