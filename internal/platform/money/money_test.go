package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoundsToScale(t *testing.T) {
	a, err := New("EUR", "10.005")
	require.NoError(t, err)
	assert.Equal(t, "10.00", a.Value.StringFixed(Scale))
}

func TestAddAndSub(t *testing.T) {
	a, _ := New("EUR", "100.00")
	b, _ := New("EUR", "40.25")

	assert.Equal(t, "140.25", a.Add(b).Value.StringFixed(Scale))
	assert.Equal(t, "59.75", a.Sub(b).Value.StringFixed(Scale))
}

func TestAddDifferentCurrencyPanics(t *testing.T) {
	a, _ := New("EUR", "10.00")
	b, _ := New("USD", "10.00")

	assert.Panics(t, func() { a.Add(b) })
}

func TestCmpBoundary(t *testing.T) {
	balance, _ := New("EUR", "100.00")
	exact, _ := New("EUR", "100.00")
	over, _ := New("EUR", "100.01")

	assert.False(t, exact.GreaterThan(balance))
	assert.True(t, over.GreaterThan(balance))
}

func TestApplyPercentage(t *testing.T) {
	amount, _ := New("EUR", "1000.00")
	fee := amount.ApplyPercentage(decimal.NewFromFloat(0.1))

	assert.Equal(t, "1.00", fee.Value.StringFixed(Scale))
}
