package identity

import (
	"context"
	"time"
)

// AuthService drives the login/logout flow: check
// lockout, verify a bcrypt password, issue a bearer token, and revoke one
// on logout.
type AuthService struct {
	Credentials CredentialStore
	Guard       *LoginGuard
	Issuer      *TokenIssuer
	Revocation  RevocationStore
	Clock       Clock
}

// NewAuthService wires a ready-to-use AuthService.
func NewAuthService(creds CredentialStore, guard *LoginGuard, issuer *TokenIssuer, revocation RevocationStore) *AuthService {
	return &AuthService{Credentials: creds, Guard: guard, Issuer: issuer, Revocation: revocation, Clock: SystemClock{}}
}

// TokenPair is the response of a successful login: the bearer token and
// its id, exposed so a caller can log tokenID without ever logging the
// token itself.
type TokenPair struct {
	Token   string
	TokenID string
}

// Login checks the lockout state, verifies the password, and on success
// issues a new bearer token and resets the failure counter.
func (s *AuthService) Login(ctx context.Context, subject, password string) (*TokenPair, error) {
	if err := s.Guard.CheckLocked(ctx, subject); err != nil {
		return nil, err
	}

	cred, err := s.Credentials.FindBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}

	if cred == nil || !verifyPassword(cred.PasswordHash, password) {
		if recErr := s.Guard.RecordFailure(ctx, subject); recErr != nil {
			return nil, recErr
		}

		return nil, ErrInvalidCredentials
	}

	if err := s.Guard.RecordSuccess(ctx, subject); err != nil {
		return nil, err
	}

	now := s.Clock.Now()

	token, tokenID, err := s.Issuer.Issue(cred.Subject, cred.Role, now)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Token: token, TokenID: tokenID}, nil
}

// Logout revokes tokenID for the remainder of its lifetime, issuedAt being
// the token's original IssuedAt claim.
func (s *AuthService) Logout(ctx context.Context, tokenID string, issuedAt time.Time) error {
	now := s.Clock.Now()
	return s.Revocation.Revoke(ctx, tokenID, s.Issuer.RemainingLifetime(issuedAt, now))
}
