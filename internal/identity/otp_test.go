package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryOTPStore struct {
	codes map[string]string
}

func newMemoryOTPStore() *memoryOTPStore {
	return &memoryOTPStore{codes: map[string]string{}}
}

func (s *memoryOTPStore) Put(_ context.Context, subject, code string, _ time.Duration) error {
	s.codes[subject] = code
	return nil
}

func (s *memoryOTPStore) Consume(_ context.Context, subject, code string) (bool, error) {
	stored, ok := s.codes[subject]
	if !ok || stored != code {
		return false, nil
	}

	delete(s.codes, subject)

	return true, nil
}

func TestOTPRequestAndVerify(t *testing.T) {
	svc := NewOTPService(newMemoryOTPStore(), 5*time.Minute)
	svc.CodeGen = func() string { return "123456" }
	ctx := context.Background()

	code, expiresAt, err := svc.RequestOTP(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
	assert.False(t, expiresAt.IsZero())

	require.NoError(t, svc.VerifyOTP(ctx, "alice", "123456"))
}

func TestOTPVerifyConsumesTheCode(t *testing.T) {
	svc := NewOTPService(newMemoryOTPStore(), 5*time.Minute)
	svc.CodeGen = func() string { return "654321" }
	ctx := context.Background()

	_, _, err := svc.RequestOTP(ctx, "bob")
	require.NoError(t, err)

	require.NoError(t, svc.VerifyOTP(ctx, "bob", "654321"))

	err = svc.VerifyOTP(ctx, "bob", "654321")
	require.Error(t, err, "a code verifies at most once")
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestOTPVerifyRejectsWrongCode(t *testing.T) {
	svc := NewOTPService(newMemoryOTPStore(), 5*time.Minute)
	svc.CodeGen = func() string { return "111111" }
	ctx := context.Background()

	_, _, err := svc.RequestOTP(ctx, "carol")
	require.NoError(t, err)

	err = svc.VerifyOTP(ctx, "carol", "222222")
	require.Error(t, err)
}

func TestSixDigitCodeShape(t *testing.T) {
	code := sixDigitCode()
	assert.Len(t, code, 6)

	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}
