package identity

import "time"

// Clock is injected so token issuance/expiry timestamps are deterministic
// in tests, matching the pattern used across every other component.
type Clock interface { Now() time.Time }

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
