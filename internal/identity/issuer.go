package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload corebank issues and verifies: a role claim set
// alongside the registered subject/expiry claims.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenIssuer mints bearer credentials carrying a subject and a role
// claim, signed with an HMAC secret shared across the process.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds a TokenIssuer signing with secret; tokens are valid
// for ttl.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue mints a signed JWT for subject with role, returning the raw token
// string and its id (needed for later revocation).
func (i *TokenIssuer) Issue(subject string, role Role, now time.Time) (tokenString, tokenID string, err error) {
	tokenID = fmt.Sprintf("%s-%d", subject, now.UnixNano())

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Role: string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", "", fmt.Errorf("identity: sign token: %w", err)
	}

	return signed, tokenID, nil
}

// RemainingLifetime returns how long until now+ttl from issuedAt, used when
// revoking a token so its revocation-set entry expires exactly when the
// token itself would have.
func (i *TokenIssuer) RemainingLifetime(issuedAt, now time.Time) time.Duration {
	expiry := issuedAt.Add(i.ttl)
	if expiry.Before(now) {
		return 0
	}

	return expiry.Sub(now)
}
