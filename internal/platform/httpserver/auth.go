package httpserver

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/meridianledger/corebank/internal/identity"
)

// principalContextKey is the fiber Locals key the Protect middleware stores
// the authenticated identity.Principal under.
const principalContextKey = "principal"

// JWTMiddleware verifies bearer tokens signed with an HMAC secret and
// attaches the resulting identity.Principal to the request context.
type JWTMiddleware struct {
	secret  []byte
	revoked identity.RevocationChecker
}

// NewJWTMiddleware builds a JWTMiddleware over the given signing secret and
// revocation checker (the identity session revocation set).
func NewJWTMiddleware(secret []byte, revoked identity.RevocationChecker) *JWTMiddleware {
	return &JWTMiddleware{secret: secret, revoked: revoked}
}

// Protect rejects requests without a valid, unrevoked bearer token.
func (m *JWTMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return WithError(c, identity.ErrMissingToken)
		}

		claims := &identity.Claims{}

		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, identity.ErrInvalidToken
			}

			return m.secret, nil
		})
		if err != nil || !token.Valid {
			return WithError(c, identity.ErrInvalidToken)
		}

		if m.revoked != nil && m.revoked.IsRevoked(c.UserContext(), claims.ID) {
			return WithError(c, identity.ErrTokenRevoked)
		}

		principal := identity.Principal{
			Subject:  claims.Subject,
			Role:     identity.Role(claims.Role),
			TokenID:  claims.ID,
			IssuedAt: claims.IssuedAt.Time,
		}

		c.Locals(principalContextKey, principal)

		return c.Next()
	}
}

// RequireRole rejects requests whose authenticated principal is not one of
// roles, per the role hierarchy {CUSTOMER, OPERATOR, MANAGER, ADMIN,
// COMPLIANCE}.
func RequireRole(roles ...identity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return WithError(c, identity.ErrMissingToken)
		}

		for _, r := range roles {
			if principal.Role == r {
				return c.Next()
			}
		}

		return WithError(c, identity.ErrForbiddenRole)
	}
}

// RequireMinRole rejects requests whose principal does not satisfy min on
// the OPERATOR < MANAGER < ADMIN ladder, for the "OPERATOR+"-style
// endpoint gates.
func RequireMinRole(min identity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return WithError(c, identity.ErrMissingToken)
		}

		if !principal.Role.AtLeast(min) {
			return WithError(c, identity.ErrForbiddenRole)
		}

		return c.Next()
	}
}

// PrincipalFromContext extracts the identity.Principal Protect attached.
func PrincipalFromContext(c *fiber.Ctx) (identity.Principal, bool) {
	p, ok := c.Locals(principalContextKey).(identity.Principal)
	return p, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
