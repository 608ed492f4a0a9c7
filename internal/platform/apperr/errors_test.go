package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("Account", "acc-123")
	assert.Equal(t, KindNotFound, err.Kind)
	assert.Contains(t, err.Error(), "acc-123")
}

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	base := New(KindValidation, "Transfer", "BAD_AMOUNT", "Bad Amount", "amount must be positive")
	wrapped := fmt.Errorf("initiate transfer: %w", base)

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, kind)
}

func TestKindOfFalseForPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindDependency, "Ledger", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Equal(t, "connection reset", err.Error())
}
