package sepa_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/sepa"
)

func TestReturn_FullLifecycle(t *testing.T) {
	amount, err := money.New("EUR", "75.00")
	require.NoError(t, err)

	now := time.Now()

	r := sepa.Initiate("RET1", "SCT-1", sepa.ReasonAM04, amount, now)
	require.NoError(t, r.Validate())
	require.NoError(t, r.BeginProcessing())
	require.NoError(t, r.Complete())
	require.NoError(t, r.Refund(now.Add(time.Minute)))

	assert.Equal(t, sepa.ReturnStatusRefunded, r.Status)
}

func TestReturn_Validate_RejectsUnknownReasonCode(t *testing.T) {
	amount, err := money.New("EUR", "75.00")
	require.NoError(t, err)

	r := sepa.Initiate("RET2", "SCT-1", sepa.ReasonCode("ZZ99"), amount, time.Now())

	err = r.Validate()
	require.Error(t, err)
	assert.Equal(t, sepa.ReturnStatusInitiated, r.Status)
}

func TestReturn_CannotSkipStates(t *testing.T) {
	amount, err := money.New("EUR", "10.00")
	require.NoError(t, err)

	r := sepa.Initiate("RET3", "SCT-1", sepa.ReasonAC01, amount, time.Now())

	err = r.Complete()
	require.Error(t, err, "cannot Complete before Validate/BeginProcessing")
}
