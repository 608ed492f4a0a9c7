package sepa_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/sepa"
)

func TestBatch_LifecycleToCompleted(t *testing.T) {
	total, err := money.New("EUR", "300.00")
	require.NoError(t, err)

	b := sepa.NewBatch("MSG1", sepa.BatchSCT, []string{"SCT-1", "SCT-2"}, total, time.Now())

	require.NoError(t, b.Validate())
	assert.Equal(t, sepa.BatchStatusValidated, b.Status)

	require.NoError(t, b.Submit(time.Now()))
	require.NoError(t, b.BeginProcessing())

	require.NoError(t, b.RecordResult(true))
	assert.Equal(t, sepa.BatchStatusProcessing, b.Status, "batch stays PROCESSING until every transaction reports")

	require.NoError(t, b.RecordResult(true))
	assert.Equal(t, sepa.BatchStatusCompleted, b.Status)
}

func TestBatch_PartialFailureYieldsPartiallyComplete(t *testing.T) {
	total, err := money.New("EUR", "300.00")
	require.NoError(t, err)

	b := sepa.NewBatch("MSG2", sepa.BatchSCT, []string{"SCT-1", "SCT-2"}, total, time.Now())
	require.NoError(t, b.Validate())
	require.NoError(t, b.Submit(time.Now()))
	require.NoError(t, b.BeginProcessing())

	require.NoError(t, b.RecordResult(true))
	require.NoError(t, b.RecordResult(false))

	assert.Equal(t, sepa.BatchStatusPartiallyComplete, b.Status)
	assert.Equal(t, 1, b.SuccessfulCount)
	assert.Equal(t, 1, b.FailedCount)
}

func TestBatch_Validate_RejectsEmpty(t *testing.T) {
	total := money.Zero("EUR")

	b := sepa.NewBatch("MSG3", sepa.BatchSCT, nil, total, time.Now())

	err := b.Validate()
	require.Error(t, err)
}
