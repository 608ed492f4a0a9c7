package swift

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// SagaType identifies a SWIFT cross-border transfer saga to internal/saga.
const SagaType = "swift_transfer"

// Status is a SWIFT transfer's lifecycle position.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusValidating      Status = "VALIDATING"
	StatusComplianceCheck Status = "COMPLIANCE_CHECK"
	StatusProcessing      Status = "PROCESSING"
	StatusSubmitted       Status = "SUBMITTED"
	StatusCompleted       Status = "COMPLETED"
	StatusFailed          Status = "FAILED"
	StatusCompensated     Status = "COMPENSATED"
)

// Transfer is the SWIFT cross-border credit-transfer aggregate.
type Transfer struct {
	ID                  uuid.UUID
	TransferReference   string
	FromAccount         string
	SenderBIC           BIC
	ReceiverBIC         BIC
	BeneficiaryAccount  string
	BeneficiaryName     string
	OrderingCustomer    string
	RemittanceInfo      string
	ChargeType          ChargeType
	Amount              money.Amount
	Fee                 money.Amount
	Status              Status
	DebitPostingID      *uuid.UUID
	ComplianceCleared   bool
	MT103               string
	SagaID              uuid.UUID
	InitiatedAt         time.Time
	CompletedAt         *time.Time
	FailureReason       string
	Version             int64
}

// ReversalRef is the idempotency reference for the compensating credit that
// restores FromAccount after a post-debit failure.
func (t *Transfer) ReversalRef() string {
	return t.TransferReference + ":REVERSAL"
}

// FeeSchedule is a fixed-plus-percentage fee, percentageFee being a
// percent: fee = fixedFee + amount * percentageFee / 100.
type FeeSchedule struct {
	FixedFee      money.Amount
	PercentageFee decimal.Decimal
}

// Compute returns the fee for amount under this schedule. The fixed part
// is re-denominated into the transfer's currency: the schedule is a plain
// number pair, not a priced instrument per currency.
func (f FeeSchedule) Compute(amount money.Amount) money.Amount {
	fixed := money.FromDecimal(amount.Currency, f.FixedFee.Value)

	return fixed.Add(amount.ApplyPercentage(f.PercentageFee))
}

func ErrInvalidAmount() *apperr.Error {
	return apperr.New(apperr.KindValidation, "SwiftTransfer", "INVALID_AMOUNT", "Invalid Amount",
		"transfer amount must be positive")
}

func ErrTransferNotFound(ref string) *apperr.Error {
	return apperr.NotFound("SwiftTransfer", ref)
}

func ErrComplianceBlocked(ref string) *apperr.Error {
	return apperr.New(apperr.KindValidation, "SwiftTransfer", "COMPLIANCE_BLOCKED", "Compliance Blocked",
		"transfer "+ref+" was blocked by compliance screening")
}
