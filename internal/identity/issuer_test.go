package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	now := time.Now().UTC()

	tokenString, tokenID, err := issuer.Issue("alice", RoleOperator, now)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenString)
	assert.Contains(t, tokenID, "alice-")

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, string(RoleOperator), claims.Role)
	assert.Equal(t, tokenID, claims.ID)
}

func TestTokenIssuerRemainingLifetime(t *testing.T) {
	issuer := NewTokenIssuer([]byte("s"), time.Hour)
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 30*time.Minute, issuer.RemainingLifetime(issuedAt, issuedAt.Add(30*time.Minute)))
	assert.Equal(t, time.Duration(0), issuer.RemainingLifetime(issuedAt, issuedAt.Add(2*time.Hour)))
}
