package sepa

import "time"

// Clock abstracts time.Now for deterministic tests, per the pattern
// established in internal/ledger and internal/transfer.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
