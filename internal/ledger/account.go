// Package ledger is the authoritative posting engine: accounts, balances,
// the status DAG, idempotent keyed postings and optimistic concurrency.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// AccountType is the product type an account is opened as.
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
)

// Status is an account's position in the status DAG: PENDING -> ACTIVE ->
// {FROZEN <-> ACTIVE, CLOSED}.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusFrozen  Status = "FROZEN"
	StatusClosed  Status = "CLOSED"
)

// legalTransitions encodes the status DAG; a transition not in this set
// fails with IllegalStateTransition.
var legalTransitions = map[Status]map[Status]bool{
	StatusPending: {StatusActive: true},
	StatusActive:  {StatusFrozen: true, StatusClosed: true},
	StatusFrozen:  {StatusActive: true, StatusClosed: true},
	StatusClosed:  {},
}

// CanTransition reports whether moving from 'from' to 'to' is legal.
func CanTransition(from, to Status) bool {
	if from == to {
		return false
	}

	return legalTransitions[from][to]
}

// Account is the aggregate root of the ledger, identified by its IBAN-style
// account number.
type Account struct {
	ID             uuid.UUID
	AccountNumber  string
	CustomerID     uuid.UUID
	Currency       string
	Type           AccountType
	Status         Status
	Balance        money.Amount
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AssertActive returns AccountInactive unless the account accepts postings.
func (a *Account) AssertActive() error {
	if a.Status != StatusActive {
		return ErrAccountInactive(a.AccountNumber, a.Status)
	}

	return nil
}

// Domain errors for the ledger, each a stable *apperr.Error so the HTTP layer and
// saga steps can branch on Kind without string matching.
var (
	ErrCurrencyMismatchKind = apperr.KindValidation
)

// ErrAccountInactive builds the typed error for a posting attempt against a
// non-ACTIVE account.
func ErrAccountInactive(accountNumber string, status Status) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "Account", "ACCOUNT_INACTIVE", "Account Inactive",
		"account "+accountNumber+" is "+string(status)+", not ACTIVE")
}

// ErrInsufficientFunds builds the typed error for a debit that would take
// the balance negative.
func ErrInsufficientFunds(accountNumber string) *apperr.Error {
	return apperr.New(apperr.KindInsufficientFunds, "Account", "INSUFFICIENT_FUNDS", "Insufficient Funds",
		"account "+accountNumber+" does not have sufficient funds for this debit")
}

// ErrCurrencyMismatch builds the typed error for a posting whose currency
// doesn't match the account.
func ErrCurrencyMismatch(accountNumber string) *apperr.Error {
	return apperr.New(ErrCurrencyMismatchKind, "Account", "CURRENCY_MISMATCH", "Currency Mismatch",
		"posting currency does not match account "+accountNumber)
}

// ErrIllegalStateTransition builds the typed error for a status change
// outside the DAG.
func ErrIllegalStateTransition(accountNumber string, from, to Status) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "Account", "ILLEGAL_STATE_TRANSITION", "Illegal State Transition",
		"account "+accountNumber+" cannot transition from "+string(from)+" to "+string(to))
}

// ErrCloseNonZeroBalance builds the typed error for closing an account whose
// balance isn't zero.
func ErrCloseNonZeroBalance(accountNumber string) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "Account", "CLOSE_NONZERO_BALANCE", "Balance Not Zero",
		"account "+accountNumber+" must have a zero balance to close")
}

// ErrAccountNotFound builds the typed error for a lookup that matched no
// row.
func ErrAccountNotFound(key string) *apperr.Error {
	return apperr.NotFound("Account", key)
}

// ErrDuplicateAccount builds the typed error for a unique-constraint
// violation on account creation.
func ErrDuplicateAccount(entityType string) *apperr.Error {
	return apperr.New(apperr.KindDuplicate, entityType, "DUPLICATE_ACCOUNT", "Duplicate Account",
		"an account with this number already exists")
}

// ErrConcurrencyAborted builds the typed error surfaced after K failed
// optimistic-concurrency retries.
func ErrConcurrencyAborted(accountNumber string) *apperr.Error {
	return apperr.New(apperr.KindConcurrency, "Account", "CONCURRENCY_ABORTED", "Concurrency Aborted",
		"too many concurrent writers on account "+accountNumber)
}
