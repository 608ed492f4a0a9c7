package sepa

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// SagaType identifies a SEPA credit-transfer saga to internal/saga.
const SagaType = "sepa_credit_transfer"

// TransferStatus is an SCT/SCT_INST transfer's lifecycle position: the
// internal transfer status machine plus the two network steps.
type TransferStatus string

const (
	TransferStatusPending            TransferStatus = "PENDING"
	TransferStatusValidating         TransferStatus = "VALIDATING"
	TransferStatusDebitCompleted     TransferStatus = "DEBIT_COMPLETED"
	TransferStatusSubmitted          TransferStatus = "SUBMITTED"
	TransferStatusAwaitingAck        TransferStatus = "AWAITING_ACK"
	TransferStatusCompleted          TransferStatus = "COMPLETED"
	TransferStatusFailed             TransferStatus = "FAILED"
	TransferStatusCompensated        TransferStatus = "COMPENSATED"
)

// Scheme is SCT (next business day) or SCT_INST (near-instant).
type Scheme string

const (
	SchemeSCT     Scheme = "SCT"
	SchemeSCTInst Scheme = "SCT_INST"
)

// Transfer is a SEPA credit-transfer aggregate carried through a saga that
// debits the source account locally, then hands settlement to the SEPA
// network via an Acknowledger.
type Transfer struct {
	ID              uuid.UUID
	TransferReference string
	Scheme          Scheme
	FromAccount     string
	CreditorIBAN    string
	CreditorName    string
	Amount          money.Amount
	RemittanceInfo  string
	Status          TransferStatus
	DebitPostingID  *uuid.UUID
	NetworkAckID    string
	SagaID          uuid.UUID
	InitiatedAt     time.Time
	CompletedAt     *time.Time
	FailureReason   string
	Version         int64
}

// ReversalRef is the idempotency reference used by the compensating credit
// that restores FromAccount after a network-leg failure.
func (t *Transfer) ReversalRef() string {
	return t.TransferReference + ":REVERSAL"
}

func ErrSCTInvalidAmount(ref string) *apperr.Error {
	return apperr.New(apperr.KindValidation, "SepaTransfer", "SCT_INVALID_AMOUNT", "Invalid Amount",
		"transfer "+ref+" amount must be positive")
}

func ErrSCTTransferNotFound(ref string) *apperr.Error {
	return apperr.NotFound("SepaTransfer", ref)
}

func ErrSCTInstLimitExceeded(ref string, limit money.Amount) *apperr.Error {
	return apperr.New(apperr.KindLimitExceeded, "SepaTransfer", "SCT_INST_LIMIT_EXCEEDED", "SCT Inst Limit Exceeded",
		"transfer "+ref+" exceeds the SCT Inst per-transaction limit of "+limit.String())
}
