package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// OTPStore holds one-time codes under a server-assigned TTL. Consume is
// destructive: a code verifies at most once.
type OTPStore interface {
	Put(ctx context.Context, subject, code string, ttl time.Duration) error
	Consume(ctx context.Context, subject, code string) (bool, error)
}

// OTPService issues and verifies one-time codes. Delivery (SMS/email) is a
// separate channel's concern; RequestOTP hands the code back to the caller
// so the delivery adapter can send it.
type OTPService struct {
	Store   OTPStore
	TTL     time.Duration
	CodeGen func() string
	Clock   Clock
}

// NewOTPService builds an OTPService with a crypto/rand six-digit code
// generator; CodeGen is swappable so tests stay deterministic.
func NewOTPService(store OTPStore, ttl time.Duration) *OTPService {
	return &OTPService{
		Store:   store,
		TTL:     ttl,
		CodeGen: sixDigitCode,
		Clock:   SystemClock{},
	}
}

// RequestOTP generates and stores a fresh code for subject, replacing any
// outstanding one, and returns it with its expiry.
func (s *OTPService) RequestOTP(ctx context.Context, subject string) (code string, expiresAt time.Time, err error) {
	code = s.CodeGen()

	if err := s.Store.Put(ctx, subject, code, s.TTL); err != nil {
		return "", time.Time{}, err
	}

	return code, s.Clock.Now().Add(s.TTL), nil
}

// VerifyOTP consumes the outstanding code for subject; a mismatch, an
// expired code, or a replay all fail identically.
func (s *OTPService) VerifyOTP(ctx context.Context, subject, code string) error {
	ok, err := s.Store.Consume(ctx, subject, code)
	if err != nil {
		return err
	}

	if !ok {
		return ErrInvalidOTP
	}

	return nil
}

func sixDigitCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand only fails when the platform's entropy source is
		// broken; there is no degraded mode worth running in.
		panic(fmt.Sprintf("identity: otp entropy: %v", err))
	}

	return fmt.Sprintf("%06d", n.Int64())
}

// ErrInvalidOTP covers a wrong, expired, or already-consumed code.
var ErrInvalidOTP = apperr.New(apperr.KindUnauthenticated, "Principal", "AUTH_INVALID_OTP",
	"Invalid One-Time Code", "one-time code is wrong, expired, or already used")
