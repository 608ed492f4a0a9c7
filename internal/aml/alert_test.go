package aml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/aml"
)

func TestAlertStatus_UnderReviewThenCleared(t *testing.T) {
	a := &aml.Alert{Status: aml.AlertStatusOpen}

	require.NoError(t, a.MarkUnderReview())
	assert.Equal(t, aml.AlertStatusUnderReview, a.Status)

	require.NoError(t, a.Clear())
	assert.Equal(t, aml.AlertStatusCleared, a.Status)
}

func TestAlertStatus_EscalateIsTerminal(t *testing.T) {
	a := &aml.Alert{Status: aml.AlertStatusOpen}
	require.NoError(t, a.MarkUnderReview())
	require.NoError(t, a.Escalate())
	assert.Equal(t, aml.AlertStatusEscalated, a.Status)

	// Clear is a no-op once escalated: escalation is the terminal
	// disposition.
	require.NoError(t, a.Clear())
	assert.Equal(t, aml.AlertStatusEscalated, a.Status)
}

func TestAlertStatus_DoubleReviewRejected(t *testing.T) {
	a := &aml.Alert{Status: aml.AlertStatusOpen}
	require.NoError(t, a.MarkUnderReview())

	err := a.MarkUnderReview()
	require.Error(t, err)
}
