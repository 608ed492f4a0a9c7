package aml_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/aml"
)

type stubAccountLookup struct {
	customerID string
}

func (s stubAccountLookup) CustomerIDFor(context.Context, string) (string, error) {
	return s.customerID, nil
}

func (s stubAccountLookup) RiskContextFor(context.Context, string) (aml.RiskContext, error) {
	return aml.RiskContext{TotalTransactions: 1}, nil
}

func TestSweepWorker_RescoresAccountsWithOpenAlerts(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	txn := aml.MonitoredTransaction{
		AccountNumber:   "ACC-9",
		Amount:          mustAmount(t, "USD", "20000.00"),
		TransactionTime: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}

	alert, err := svc.EvaluateTransaction(ctx, "ACC-9", "TXN-9", txn)
	require.NoError(t, err)
	require.NotNil(t, alert)

	worker := aml.NewSweepWorker(svc, stubAccountLookup{customerID: "CUST-9"}, time.Minute)

	require.NoError(t, worker.Sweep(ctx))

	profile, err := svc.RiskProfiles.FindByCustomerID(ctx, "CUST-9")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 1, profile.FlaggedTransactions)
}
