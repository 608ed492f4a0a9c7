package customer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/customer"
)

func TestCustomer_FullLifecycle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := customer.NewCustomer("CUST-1", "Ada Lovelace", "ada@example.com", "GB", now)

	require.NoError(t, c.Verify())
	require.NoError(t, c.Approve())
	require.NoError(t, c.Suspend())
	require.NoError(t, c.Reinstate())
	require.NoError(t, c.Close())

	assert.Equal(t, customer.StatusClosed, c.Status)
}

func TestCustomer_CannotApproveBeforeVerification(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := customer.NewCustomer("CUST-1", "Ada Lovelace", "ada@example.com", "GB", now)

	err := c.Approve()
	require.Error(t, err)
}

func TestCustomer_CannotCloseFromPendingVerification(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := customer.NewCustomer("CUST-1", "Ada Lovelace", "ada@example.com", "GB", now)

	err := c.Close()
	require.Error(t, err)
}
