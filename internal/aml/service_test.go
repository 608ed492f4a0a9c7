package aml_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/aml"
	"github.com/meridianledger/corebank/internal/platform/money"
)

func mustAmount(t *testing.T, currency, amount string) money.Amount {
	t.Helper()

	a, err := money.New(currency, amount)
	require.NoError(t, err)

	return a
}

func newTestService() *aml.Service {
	threshold, _ := money.New("USD", "10000.00")

	engine := aml.Engine{Rules: []aml.Rule{
		{Kind: aml.RuleAmount, Enabled: true, RiskPoints: 40, ThresholdAmount: threshold},
	}}

	screener := aml.Screener{FuzzyThreshold: 85}

	return aml.NewService(
		newMemAlertRepo(),
		newMemCaseRepo(),
		newMemReportRepo(),
		newMemRiskProfileRepo(),
		newMemMatchRepo(),
		engine,
		screener,
		&memOutbox{},
	)
}

func TestEvaluateTransaction_FlaggedRaisesAlert(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	txn := aml.MonitoredTransaction{
		AccountNumber:   "ACC-1",
		Amount:          mustAmount(t, "USD", "15000.00"),
		TransactionTime: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}

	alert, err := svc.EvaluateTransaction(ctx, "ACC-1", "TXN-1", txn)
	require.NoError(t, err)
	require.NotNil(t, alert)

	assert.Equal(t, "AMOUNT", alert.AlertType)
	assert.Equal(t, 40, alert.RiskScore)
	assert.Equal(t, aml.RiskLevelMedium, alert.RiskLevel)

	stored, err := svc.Alerts.FindByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.ID, stored.ID)
}

func TestEvaluateTransaction_BelowThreshold_NoAlert(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	txn := aml.MonitoredTransaction{
		AccountNumber:   "ACC-1",
		Amount:          mustAmount(t, "USD", "100.00"),
		TransactionTime: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}

	alert, err := svc.EvaluateTransaction(ctx, "ACC-1", "TXN-2", txn)
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestCaseAndReportWorkflow_HappyPath(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	txn := aml.MonitoredTransaction{
		AccountNumber:   "ACC-1",
		Amount:          mustAmount(t, "USD", "15000.00"),
		TransactionTime: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	alert, err := svc.EvaluateTransaction(ctx, "ACC-1", "TXN-1", txn)
	require.NoError(t, err)
	require.NotNil(t, alert)

	c, err := svc.OpenCase(ctx, "ACC-1", []string{alert.ID})
	require.NoError(t, err)
	assert.Equal(t, aml.CaseStatusOpen, c.Status)

	gotAlert, err := svc.Alerts.FindByID(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, aml.AlertStatusUnderReview, gotAlert.Status)

	c, err = svc.BeginInvestigation(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, aml.CaseStatusInvestigating, c.Status)

	c, err = svc.SubmitCaseForReview(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, aml.CaseStatusPendingReview, c.Status)

	rep, err := svc.PrepareReport(ctx, c.ID, "analyst-1", "structuring pattern observed")
	require.NoError(t, err)

	rep, err = svc.SubmitReportForReview(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, aml.ReportStatusPendingReview, rep.Status)

	_, err = svc.ReviewReport(ctx, rep.ID, "analyst-1", true)
	require.Error(t, err, "same-actor review must be rejected by the four-eyes rule")

	rep, err = svc.ReviewReport(ctx, rep.ID, "reviewer-1", true)
	require.NoError(t, err)
	assert.Equal(t, aml.ReportStatusPendingApproval, rep.Status)

	_, err = svc.ApproveReport(ctx, rep.ID, "reviewer-1")
	require.Error(t, err, "approver must differ from the reviewer too")

	rep, err = svc.ApproveReport(ctx, rep.ID, "approver-1")
	require.NoError(t, err)
	assert.Equal(t, aml.ReportStatusApproved, rep.Status)

	rep, err = svc.FileReport(ctx, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, aml.ReportStatusFiled, rep.Status)

	filedCase, err := svc.Cases.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, filedCase.SARFiled)
	assert.Equal(t, rep.ID, filedCase.SARReportID)
}

func TestScreenSubject_ExactAndFuzzyMatch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	svc.Screener.Entities = []aml.SanctionedEntity{
		{ListEntryID: "SDN-1", FullName: "JOHN Q PUBLIC", NationalID: "ID-999"},
	}

	matches, err := svc.ScreenSubject(ctx, "John Q. Public", "ID-999", "")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(matches), 1)

	for _, m := range matches {
		assert.Equal(t, aml.MatchStatusPotential, m.Status)
	}
}

func TestRecomputeRiskProfile_SanctionHitDrivesCritical(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	p, err := svc.RecomputeRiskProfile(ctx, "CUST-1", aml.RiskFactors{
		FlaggedTransactions:       2,
		TotalTransactions:         2,
		BlockedTransactions:       2,
		HasConfirmedSanctionMatch: true,
		PEP:                       true,
		HighRiskJurisdiction:      true,
		HighRiskBusiness:          true,
		SARFiledCount:             5,
	})
	require.NoError(t, err)

	assert.Equal(t, aml.RiskLevelCritical, p.Level)
	assert.Equal(t, 100, p.Score)
}

func TestEvaluateTransaction_StructuringScenario(t *testing.T) {
	threshold := mustAmount(t, "USD", "10000.00")

	svc := aml.NewService(
		newMemAlertRepo(),
		newMemCaseRepo(),
		newMemReportRepo(),
		newMemRiskProfileRepo(),
		newMemMatchRepo(),
		aml.Engine{Rules: []aml.Rule{
			{Kind: aml.RuleStructuring, Enabled: true, RiskPoints: 30, ThresholdAmount: threshold},
		}},
		aml.Screener{FuzzyThreshold: 85},
		&memOutbox{},
	)
	ctx := context.Background()

	txn := aml.MonitoredTransaction{
		AccountNumber:   "ACC-7",
		Amount:          mustAmount(t, "USD", "9500.00"),
		TransactionTime: time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC),
	}

	alert, err := svc.EvaluateTransaction(ctx, "ACC-7", "TXN-7", txn)
	require.NoError(t, err)
	require.NotNil(t, alert)

	assert.Equal(t, "STRUCTURING", alert.AlertType)
	assert.GreaterOrEqual(t, alert.RiskScore, 30)
	assert.Contains(t, alert.Reasons, "Potential structuring detected")
}
