package identity

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// Credential is the stored login record for a principal's subject: a
// bcrypt hash alongside the role it authenticates as.
type Credential struct {
	Subject      string
	PasswordHash string
	Role         Role
}

// CredentialStore is the persistence port for Credential, checked by
// AuthService before a token is issued.
type CredentialStore interface {
	FindBySubject(ctx context.Context, subject string) (*Credential, error)
}

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("identity: hash password: %w", err)
	}

	return string(hash), nil
}

// verifyPassword reports whether plaintext matches the stored bcrypt hash.
func verifyPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// ErrInvalidCredentials is returned for an unknown subject or a password
// mismatch; both cases look identical to the caller to avoid user
// enumeration.
var ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "Principal", "AUTH_INVALID_CREDENTIALS",
	"Invalid Credentials", "subject or password is incorrect")
