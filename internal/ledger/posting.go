package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/platform/money"
)

// Direction is the side of a posting, debit or credit.
type Direction string

const (
	DirectionDebit  Direction = "DEBIT"
	DirectionCredit Direction = "CREDIT"
)

// PostingLine is an append-only record of one movement against an account.
// referenceId is unique per (accountId, direction), which is what makes
// Credit/Debit idempotent.
type PostingLine struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	Direction     Direction
	Amount        money.Amount
	ReferenceID   string
	Description   string
	BalanceAfter  money.Amount
	PostedAt      time.Time
}
