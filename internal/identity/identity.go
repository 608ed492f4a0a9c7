// Package identity implements bearer-credential issuance with role
// claims, a revocation set, and brute-force login lockout. Tokens are
// self-issued HMAC JWTs verified locally.
package identity

import (
	"context"
	"time"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// Role is one of the closed set of role claims a token may carry.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleOperator   Role = "OPERATOR"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleCompliance Role = "COMPLIANCE"
)

// rank gives roles a partial order for "OPERATOR+"-style endpoint
// gates: a higher rank satisfies any gate with a lower-or-equal minimum. Roles outside the OPERATOR/MANAGER/ADMIN ladder
// (CUSTOMER, COMPLIANCE) are lateral, not ranked against it.
var rank = map[Role]int{
	RoleOperator: 1,
	RoleManager:  2,
	RoleAdmin:    3,
}

// AtLeast reports whether r satisfies a minimum role requirement on the
// OPERATOR < MANAGER < ADMIN ladder.
func (r Role) AtLeast(min Role) bool {
	return rank[r] >= rank[min] && rank[r] > 0
}

// Principal is the authenticated caller attached to the request context by
// the JWT middleware.
type Principal struct {
	Subject  string
	Role     Role
	TokenID  string
	IssuedAt time.Time
}

// Errors surfaced by authentication, mapped to HTTP 401/403 by
// internal/platform/httpserver.
var (
	ErrMissingToken  = apperr.New(apperr.KindUnauthenticated, "Principal", "AUTH_MISSING_TOKEN", "Missing Token", "authorization header is missing a bearer token")
	ErrInvalidToken  = apperr.New(apperr.KindUnauthenticated, "Principal", "AUTH_INVALID_TOKEN", "Invalid Token", "bearer token is malformed or has an invalid signature")
	ErrTokenRevoked  = apperr.New(apperr.KindUnauthenticated, "Principal", "AUTH_TOKEN_REVOKED", "Token Revoked", "bearer token has been revoked")
	ErrForbiddenRole = apperr.New(apperr.KindUnauthorized, "Principal", "AUTH_FORBIDDEN_ROLE", "Forbidden", "caller's role does not satisfy this endpoint's requirement")
	ErrAccountLocked = apperr.New(apperr.KindUnauthorized, "Principal", "AUTH_ACCOUNT_LOCKED", "Account Locked", "account is locked after repeated failed login attempts")
)

// RevocationChecker is consulted by the JWT middleware before trusting an
// otherwise-valid token.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// RevocationStore records and checks revoked token ids, each expiring after
// its own remaining lifetime.
type RevocationStore interface {
	RevocationChecker
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}
