// Package sepa implements SEPA mandates, batches, credit-transfer
// settlement, and R-transaction returns.
package sepa

import (
	"time"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// MandateType is the SDD scheme the mandate was signed under.
type MandateType string

const (
	MandateSDDCore MandateType = "SDD_CORE"
	MandateSDDB2B  MandateType = "SDD_B2B"
)

// Sequence is a mandate's collection sequence position.
type Sequence string

const (
	SequenceFirst     Sequence = "FRST"
	SequenceRecurring Sequence = "RCUR"
	SequenceFinal     Sequence = "FNAL"
	SequenceOneOff    Sequence = "OOFF"
)

// MandateStatus is a mandate's position in its lifecycle.
type MandateStatus string

const (
	MandateStatusPending   MandateStatus = "PENDING"
	MandateStatusActive    MandateStatus = "ACTIVE"
	MandateStatusSuspended MandateStatus = "SUSPENDED"
	MandateStatusCancelled MandateStatus = "CANCELLED"
	MandateStatusExpired   MandateStatus = "EXPIRED"
)

// Mandate is the SDD mandate aggregate, identified by its UMR (Unique
// Mandate Reference).
//
// The running total of collections is TotalAmountCollected, stored as
// total_amount_collected (see internal/sepa/postgres).
type Mandate struct {
	UMR                  string
	DebtorIBAN           string
	CreditorIBAN         string
	CreditorID           string
	Type                 MandateType
	Sequence             Sequence
	Status               MandateStatus
	SignatureDate        time.Time
	ActivationDate       *time.Time
	MaxAmount            *money.Amount
	LastCollectionDate   *time.Time
	TotalAmountCollected money.Amount
	CollectionCount      int
	Version              int64
}

// NewMandate creates a PENDING mandate whose first collection must carry
// sequence FRST.
func NewMandate(umr, debtorIBAN, creditorIBAN, creditorID string, mtype MandateType, signatureDate time.Time, currency string, maxAmount *money.Amount) *Mandate {
	return &Mandate{
		UMR:                  umr,
		DebtorIBAN:           debtorIBAN,
		CreditorIBAN:         creditorIBAN,
		CreditorID:           creditorID,
		Type:                 mtype,
		Sequence:             SequenceFirst,
		Status:               MandateStatusPending,
		SignatureDate:        signatureDate,
		MaxAmount:            maxAmount,
		TotalAmountCollected: money.Zero(currency),
	}
}

// Activate transitions a PENDING mandate to ACTIVE; the signature date
// must not lie in the future.
func (m *Mandate) Activate(today time.Time) error {
	if m.Status != MandateStatusPending {
		return ErrMandateIllegalTransition(m.UMR, m.Status, MandateStatusActive)
	}

	if m.SignatureDate.After(today) {
		return ErrMandateNotYetSigned(m.UMR)
	}

	m.Status = MandateStatusActive
	activated := today
	m.ActivationDate = &activated

	return nil
}

// Suspend and Resume move a mandate between ACTIVE and SUSPENDED.
func (m *Mandate) Suspend() error {
	if m.Status != MandateStatusActive {
		return ErrMandateIllegalTransition(m.UMR, m.Status, MandateStatusSuspended)
	}

	m.Status = MandateStatusSuspended

	return nil
}

// Resume reactivates a SUSPENDED mandate.
func (m *Mandate) Resume() error {
	if m.Status != MandateStatusSuspended {
		return ErrMandateIllegalTransition(m.UMR, m.Status, MandateStatusActive)
	}

	m.Status = MandateStatusActive

	return nil
}

// Cancel is terminal from any non-terminal state.
func (m *Mandate) Cancel() error {
	if m.Status == MandateStatusCancelled || m.Status == MandateStatusExpired {
		return ErrMandateIllegalTransition(m.UMR, m.Status, MandateStatusCancelled)
	}

	m.Status = MandateStatusCancelled

	return nil
}

// RecordCollection applies the outcome of one SDD collection attempt:
// valid only if status=ACTIVE, amount <= MaxAmount (if set), and today is
// within the mandate's activation window. On the first successful
// collection, sequence transitions FRST -> RCUR.
func (m *Mandate) RecordCollection(amount money.Amount, success bool, today time.Time) error {
	if m.Status != MandateStatusActive {
		return ErrMandateNotActive(m.UMR)
	}

	if m.ActivationDate == nil || today.Before(*m.ActivationDate) {
		return ErrMandateOutsideValidityWindow(m.UMR)
	}

	if m.MaxAmount != nil && amount.GreaterThan(*m.MaxAmount) {
		return ErrMandateLimitExceeded(m.UMR, *m.MaxAmount)
	}

	if !success {
		return nil
	}

	m.TotalAmountCollected = m.TotalAmountCollected.Add(amount)
	m.CollectionCount++
	collectedAt := today
	m.LastCollectionDate = &collectedAt

	if m.Sequence == SequenceFirst {
		m.Sequence = SequenceRecurring
	}

	return nil
}

// Errors surfaced by mandate operations.

func ErrMandateNotYetSigned(umr string) *apperr.Error {
	return apperr.New(apperr.KindValidation, "SepaMandate", "MANDATE_NOT_YET_SIGNED", "Mandate Not Yet Signed",
		"mandate "+umr+" has a signature date in the future")
}

func ErrMandateIllegalTransition(umr string, from, to MandateStatus) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "SepaMandate", "MANDATE_ILLEGAL_TRANSITION", "Illegal Mandate Transition",
		"mandate "+umr+" cannot transition from "+string(from)+" to "+string(to))
}

func ErrMandateNotActive(umr string) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "SepaMandate", "MANDATE_NOT_ACTIVE", "Mandate Not Active",
		"mandate "+umr+" is not ACTIVE and authorizes no collection")
}

func ErrMandateOutsideValidityWindow(umr string) *apperr.Error {
	return apperr.New(apperr.KindValidation, "SepaMandate", "MANDATE_OUTSIDE_WINDOW", "Outside Validity Window",
		"mandate "+umr+" is not yet within its activation window")
}

func ErrMandateLimitExceeded(umr string, max money.Amount) *apperr.Error {
	return apperr.New(apperr.KindLimitExceeded, "SepaMandate", "MANDATE_LIMIT_EXCEEDED", "Mandate Limit Exceeded",
		"mandate "+umr+" collection exceeds its max amount of "+max.String())
}

func ErrMandateNotFound(umr string) *apperr.Error {
	return apperr.NotFound("SepaMandate", umr)
}
