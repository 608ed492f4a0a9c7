package aml_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/aml"
)

func newDraftReport() *aml.Report {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return aml.NewReport("REP-1", "CASE-1", "preparer-1", "suspicious structuring pattern", now)
}

func TestReport_FourEyes_ReviewerCannotBePreparer(t *testing.T) {
	r := newDraftReport()
	require.NoError(t, r.SubmitForReview())

	err := r.Review("preparer-1", true)
	require.Error(t, err)
}

func TestReport_FourEyes_ApproverCannotBePreparerOrReviewer(t *testing.T) {
	r := newDraftReport()
	require.NoError(t, r.SubmitForReview())
	require.NoError(t, r.Review("reviewer-1", true))

	require.Error(t, r.Approve("preparer-1"))
	require.Error(t, r.Approve("reviewer-1"))
	require.NoError(t, r.Approve("approver-1"))
}

func TestReport_RejectedByReviewer(t *testing.T) {
	r := newDraftReport()
	require.NoError(t, r.SubmitForReview())
	require.NoError(t, r.Review("reviewer-1", false))

	assert.Equal(t, aml.ReportStatusRejected, r.Status)
}

func TestReport_FullLifecycleToAcknowledged(t *testing.T) {
	r := newDraftReport()
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.SubmitForReview())
	require.NoError(t, r.Review("reviewer-1", true))
	require.NoError(t, r.Approve("approver-1"))
	require.NoError(t, r.File(now))
	require.NotNil(t, r.FiledAt)
	require.NoError(t, r.Acknowledge())

	assert.Equal(t, aml.ReportStatusAcknowledged, r.Status)
}
