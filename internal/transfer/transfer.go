// Package transfer implements the Transfer aggregate and the service
// that drives internal/saga against internal/ledger to execute internal
// money movement.
package transfer

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// Status is the Transfer's position in its state machine.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusValidating     Status = "VALIDATING"
	StatusDebitPending   Status = "DEBIT_PENDING"
	StatusDebitCompleted Status = "DEBIT_COMPLETED"
	StatusCreditPending  Status = "CREDIT_PENDING"
	StatusCompleted      Status = "COMPLETED"
	StatusCompensating   Status = "COMPENSATING"
	StatusCompensated    Status = "COMPENSATED"
	StatusFailed         Status = "FAILED"
)

// SagaType is the internal/saga.Record.SagaType this package registers its
// recovery resolver under.
const SagaType = "transfer"

// Transfer is the aggregate root of this package, identified by a globally unique
// TransferReference.
type Transfer struct {
	ID              uuid.UUID
	TransferReference string
	FromAccount     string
	ToAccount       string
	Amount          money.Amount
	Status          Status
	IdempotencyKey  string
	SagaID          uuid.UUID
	DebitPostingID  *uuid.UUID
	CreditPostingID *uuid.UUID
	InitiatedAt     time.Time
	CompletedAt     *time.Time
	FailureReason   string
	Version         int64
}

// ReversalRef builds the compensation reference id for a completed
// step's reversal: the transfer reference with a ":REVERSAL" suffix.
func (t *Transfer) ReversalRef() string {
	return t.TransferReference + ":REVERSAL"
}

// Errors surfaced by the transfer service, each a stable *apperr.Error.
var (
	// ErrSameAccount rejects a transfer where source and destination are
	// identical.
	ErrSameAccount = apperr.New(apperr.KindValidation, "Transfer", "SAME_ACCOUNT", "Same Account",
		"fromAccount and toAccount must be distinct")
)

// ErrInvalidAmount builds the typed error for a non-positive transfer
// amount.
func ErrInvalidAmount() *apperr.Error {
	return apperr.New(apperr.KindValidation, "Transfer", "INVALID_AMOUNT", "Invalid Amount",
		"transfer amount must be greater than zero")
}

// ErrTransferNotFound builds the typed error for a lookup that matched no
// row.
func ErrTransferNotFound(ref string) *apperr.Error {
	return apperr.NotFound("Transfer", ref)
}

// ErrDuplicateTransferReference builds the typed error for a
// transferReference collision.
func ErrDuplicateTransferReference(ref string) *apperr.Error {
	return apperr.New(apperr.KindDuplicate, "Transfer", "DUPLICATE_TRANSFER_REFERENCE", "Duplicate Transfer",
		"transfer reference "+ref+" already exists")
}
