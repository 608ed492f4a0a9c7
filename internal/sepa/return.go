package sepa

import (
	"time"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// ReasonCode is one of the closed set of SEPA R-transaction reason
// codes; any other code is rejected at Validate.
type ReasonCode string

const (
	ReasonAC01 ReasonCode = "AC01" // incorrect account number
	ReasonAC04 ReasonCode = "AC04" // closed account
	ReasonAC06 ReasonCode = "AC06" // blocked account
	ReasonAM04 ReasonCode = "AM04" // insufficient funds
	ReasonAM05 ReasonCode = "AM05" // duplication
	ReasonMD01 ReasonCode = "MD01" // no mandate
	ReasonMD02 ReasonCode = "MD02" // mandate data missing or incorrect
	ReasonMD06 ReasonCode = "MD06" // refund requested by debtor
	ReasonMD07 ReasonCode = "MD07" // debtor deceased
	ReasonMS02 ReasonCode = "MS02" // refused by debtor
	ReasonMS03 ReasonCode = "MS03" // reason not specified
	ReasonRR01 ReasonCode = "RR01" // missing debtor account or id
	ReasonRR02 ReasonCode = "RR02" // missing debtor name or address
	ReasonRR03 ReasonCode = "RR03" // missing creditor name or address
	ReasonRR04 ReasonCode = "RR04" // regulatory reason
)

func validReasonCode(c ReasonCode) bool {
	switch c {
	case ReasonAC01, ReasonAC04, ReasonAC06, ReasonAM04, ReasonAM05,
		ReasonMD01, ReasonMD02, ReasonMD06, ReasonMD07,
		ReasonMS02, ReasonMS03,
		ReasonRR01, ReasonRR02, ReasonRR03, ReasonRR04:
		return true
	default:
		return false
	}
}

// ReturnStatus is a Return's lifecycle position.
type ReturnStatus string

const (
	ReturnStatusInitiated ReturnStatus = "INITIATED"
	ReturnStatusValidated ReturnStatus = "VALIDATED"
	ReturnStatusProcessing ReturnStatus = "PROCESSING"
	ReturnStatusCompleted ReturnStatus = "COMPLETED"
	ReturnStatusRefunded  ReturnStatus = "REFUNDED"
)

// Return is an R-transaction unwinding a previously settled SEPA
// transfer or collection. Refund (Service.RefundReturn) posts one credit
// of the returned amount back to the original source account through the
// ledger.
type Return struct {
	ID                string
	OriginalReference string
	ReasonCode        ReasonCode
	Amount            money.Amount
	Status            ReturnStatus
	InitiatedAt       time.Time
	RefundedAt        *time.Time
	Version           int64
}

// Initiate creates an INITIATED return against originalReference.
func Initiate(id, originalReference string, reason ReasonCode, amount money.Amount, now time.Time) *Return {
	return &Return{
		ID:                id,
		OriginalReference: originalReference,
		ReasonCode:        reason,
		Amount:            amount,
		Status:            ReturnStatusInitiated,
		InitiatedAt:       now,
	}
}

// Validate rejects a reason code outside the closed set and moves
// INITIATED -> VALIDATED.
func (r *Return) Validate() error {
	if r.Status != ReturnStatusInitiated {
		return ErrReturnIllegalTransition(r.ID, r.Status, ReturnStatusValidated)
	}

	if !validReasonCode(r.ReasonCode) {
		return ErrReturnUnknownReasonCode(r.ID, r.ReasonCode)
	}

	r.Status = ReturnStatusValidated

	return nil
}

// BeginProcessing moves VALIDATED -> PROCESSING.
func (r *Return) BeginProcessing() error {
	if r.Status != ReturnStatusValidated {
		return ErrReturnIllegalTransition(r.ID, r.Status, ReturnStatusProcessing)
	}

	r.Status = ReturnStatusProcessing

	return nil
}

// Complete moves PROCESSING -> COMPLETED; the refund credit itself is
// booked afterwards, by Service.RefundReturn.
func (r *Return) Complete() error {
	if r.Status != ReturnStatusProcessing {
		return ErrReturnIllegalTransition(r.ID, r.Status, ReturnStatusCompleted)
	}

	r.Status = ReturnStatusCompleted

	return nil
}

// Refund moves COMPLETED -> REFUNDED once the debtor has been made whole.
func (r *Return) Refund(now time.Time) error {
	if r.Status != ReturnStatusCompleted {
		return ErrReturnIllegalTransition(r.ID, r.Status, ReturnStatusRefunded)
	}

	r.Status = ReturnStatusRefunded
	t := now
	r.RefundedAt = &t

	return nil
}

func ErrReturnIllegalTransition(id string, from, to ReturnStatus) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "SepaReturn", "RETURN_ILLEGAL_TRANSITION", "Illegal Return Transition",
		"return "+id+" cannot transition from "+string(from)+" to "+string(to))
}

func ErrReturnUnknownReasonCode(id string, code ReasonCode) *apperr.Error {
	return apperr.New(apperr.KindValidation, "SepaReturn", "RETURN_UNKNOWN_REASON", "Unknown Reason Code",
		"return "+id+" carries unrecognized reason code "+string(code))
}

func ErrReturnNotFound(id string) *apperr.Error {
	return apperr.NotFound("SepaReturn", id)
}
