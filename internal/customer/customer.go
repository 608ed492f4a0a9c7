// Package customer implements the customer registry status machine,
// KYC document lifecycle and immutable transition history.
package customer

import (
	"time"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// Status is a Customer's lifecycle position:
// PENDING_VERIFICATION -> VERIFIED -> APPROVED -> {SUSPENDED <-> APPROVED, CLOSED}.
type Status string

const (
	StatusPendingVerification Status = "PENDING_VERIFICATION"
	StatusVerified            Status = "VERIFIED"
	StatusApproved            Status = "APPROVED"
	StatusSuspended           Status = "SUSPENDED"
	StatusClosed              Status = "CLOSED"
)

// Customer is the identity/onboarding aggregate behind every account the
// ledger opens.
type Customer struct {
	ID          string
	FullName    string
	Email       string
	CountryCode string
	Status      Status
	// PEP and HighRiskBusiness are CDD flags a KYC reviewer records
	// against the customer, read by internal/aml's CustomerRiskProfile
	// formula.
	PEP              bool
	HighRiskBusiness bool
	CreatedAt        time.Time
	Version          int64
}

// NewCustomer opens a customer record in PENDING_VERIFICATION.
func NewCustomer(id, fullName, email, countryCode string, now time.Time) *Customer {
	return &Customer{
		ID:          id,
		FullName:    fullName,
		Email:       email,
		CountryCode: countryCode,
		Status:      StatusPendingVerification,
		CreatedAt:   now,
	}
}

// Verify moves PENDING_VERIFICATION -> VERIFIED, once identity documents
// have cleared (see Document.Verify).
func (c *Customer) Verify() error {
	if c.Status != StatusPendingVerification {
		return ErrIllegalTransition(c.ID, c.Status, StatusVerified)
	}

	c.Status = StatusVerified

	return nil
}

// Approve moves VERIFIED -> APPROVED, the status required to open a
// ledger account in this customer's name.
func (c *Customer) Approve() error {
	if c.Status != StatusVerified {
		return ErrIllegalTransition(c.ID, c.Status, StatusApproved)
	}

	c.Status = StatusApproved

	return nil
}

// Suspend moves APPROVED -> SUSPENDED.
func (c *Customer) Suspend() error {
	if c.Status != StatusApproved {
		return ErrIllegalTransition(c.ID, c.Status, StatusSuspended)
	}

	c.Status = StatusSuspended

	return nil
}

// Reinstate moves SUSPENDED -> APPROVED.
func (c *Customer) Reinstate() error {
	if c.Status != StatusSuspended {
		return ErrIllegalTransition(c.ID, c.Status, StatusApproved)
	}

	c.Status = StatusApproved

	return nil
}

// Close moves APPROVED|SUSPENDED -> CLOSED, a terminal state.
func (c *Customer) Close() error {
	if c.Status != StatusApproved && c.Status != StatusSuspended {
		return ErrIllegalTransition(c.ID, c.Status, StatusClosed)
	}

	c.Status = StatusClosed

	return nil
}

// SetRiskAttributes records the CDD flags a KYC reviewer surfaces: PEP
// status and whether the customer's declared business is a high-risk
// category.
func (c *Customer) SetRiskAttributes(pep, highRiskBusiness bool) {
	c.PEP = pep
	c.HighRiskBusiness = highRiskBusiness
}

// highRiskJurisdictions is a closed set of country codes treated as
// high-risk for the "highRiskJurisdiction" term, the same style of
// static code-set check internal/swift/bic.go uses for BIC country codes.
var highRiskJurisdictions = map[string]bool{
	"KP": true,
	"IR": true,
	"SY": true,
	"MM": true,
	"AF": true,
}

// IsHighRiskJurisdiction reports whether countryCode is in the high-risk
// set.
func IsHighRiskJurisdiction(countryCode string) bool {
	return highRiskJurisdictions[countryCode]
}

func ErrIllegalTransition(id string, from, to Status) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "Customer", "CUSTOMER_ILLEGAL_TRANSITION", "Illegal Customer Transition",
		"customer "+id+" cannot transition from "+string(from)+" to "+string(to))
}

func ErrCustomerNotFound(id string) *apperr.Error {
	return apperr.NotFound("Customer", id)
}
