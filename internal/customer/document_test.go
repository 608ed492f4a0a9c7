package customer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/customer"
)

func TestUploadDocument_ExpiredRejectedAtUpload(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	expired := now.Add(-24 * time.Hour)

	_, err := customer.UploadDocument("DOC-1", "CUST-1", customer.DocumentPassport, expired, now)
	require.Error(t, err)
}

func TestUploadDocument_FutureExpiryAccepted(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	expiresAt := now.Add(365 * 24 * time.Hour)

	d, err := customer.UploadDocument("DOC-1", "CUST-1", customer.DocumentPassport, expiresAt, now)
	require.NoError(t, err)
	assert.Equal(t, customer.DocumentStatusUploaded, d.Status)
}

func TestDocument_VerifyAndReject(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	expiresAt := now.Add(365 * 24 * time.Hour)

	d, err := customer.UploadDocument("DOC-1", "CUST-1", customer.DocumentNationalID, expiresAt, now)
	require.NoError(t, err)

	require.NoError(t, d.Verify())
	assert.Equal(t, customer.DocumentStatusVerified, d.Status)

	d2, err := customer.UploadDocument("DOC-2", "CUST-1", customer.DocumentNationalID, expiresAt, now)
	require.NoError(t, err)

	require.NoError(t, d2.Reject("illegible scan"))
	assert.Equal(t, customer.DocumentStatusRejected, d2.Status)
	assert.Equal(t, "illegible scan", d2.RejectReason)
}

func TestDocument_CannotReVerifyAlreadyVerified(t *testing.T) {
	now := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	expiresAt := now.Add(365 * 24 * time.Hour)

	d, err := customer.UploadDocument("DOC-1", "CUST-1", customer.DocumentPassport, expiresAt, now)
	require.NoError(t, err)
	require.NoError(t, d.Verify())

	err = d.Verify()
	require.Error(t, err)
}
