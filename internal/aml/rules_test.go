package aml_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/aml"
)

func TestRule_Velocity(t *testing.T) {
	rule := aml.Rule{Kind: aml.RuleVelocity, Enabled: true, RiskPoints: 20, WindowMinutes: 60, ThresholdCount: 3}

	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	txn := aml.MonitoredTransaction{
		TransactionTime: now,
		PriorTransactions: []aml.PriorTransaction{
			{At: now.Add(-10 * time.Minute)},
			{At: now.Add(-90 * time.Minute)}, // outside the window
		},
	}

	assert.False(t, rule.Evaluate(txn), "only 2 of 3 required transactions fall in the window")

	txn.PriorTransactions = append(txn.PriorTransactions, aml.PriorTransaction{At: now.Add(-5 * time.Minute)})
	assert.True(t, rule.Evaluate(txn))
}

func TestRule_Structuring(t *testing.T) {
	threshold := mustAmount(t, "USD", "10000.00")
	rule := aml.Rule{Kind: aml.RuleStructuring, Enabled: true, RiskPoints: 35, ThresholdAmount: threshold}

	txn := aml.MonitoredTransaction{Amount: mustAmount(t, "USD", "9800.00")}
	assert.True(t, rule.Evaluate(txn), "9800 sits in the 90-100% band below the reporting threshold")

	txn.Amount = mustAmount(t, "USD", "9000.00")
	assert.True(t, rule.Evaluate(txn), "exactly 90% of the threshold is inside the band")

	txn.Amount = mustAmount(t, "USD", "8999.99")
	assert.False(t, rule.Evaluate(txn), "a cent below the band edge does not trigger")

	txn.Amount = mustAmount(t, "USD", "8000.00")
	assert.False(t, rule.Evaluate(txn), "8000 is well clear of the threshold band")

	txn.Amount = mustAmount(t, "USD", "10000.00")
	assert.False(t, rule.Evaluate(txn), "at or above the threshold is AMOUNT's concern, not STRUCTURING's")
}

func TestRule_RoundAmount(t *testing.T) {
	rule := aml.Rule{Kind: aml.RuleRoundAmount, Enabled: true, RiskPoints: 10}

	txn := aml.MonitoredTransaction{Amount: mustAmount(t, "USD", "5000.00")}
	assert.True(t, rule.Evaluate(txn))

	txn.Amount = mustAmount(t, "USD", "5000.01")
	assert.False(t, rule.Evaluate(txn))

	txn.Amount = mustAmount(t, "USD", "500.00")
	assert.False(t, rule.Evaluate(txn), "below the 1000 floor even though it's round")
}

func TestRule_DailyLimit(t *testing.T) {
	threshold := mustAmount(t, "USD", "5000.00")
	rule := aml.Rule{Kind: aml.RuleDailyLimit, Enabled: true, RiskPoints: 25, ThresholdAmount: threshold}

	day := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

	txn := aml.MonitoredTransaction{
		Amount:          mustAmount(t, "USD", "3000.00"),
		TransactionTime: day,
		PriorTransactions: []aml.PriorTransaction{
			{Amount: mustAmount(t, "USD", "2500.00"), At: day.Add(-2 * time.Hour)},
		},
	}

	assert.True(t, rule.Evaluate(txn), "3000+2500 same-day sum exceeds 5000")
}

func TestRule_TimeBased(t *testing.T) {
	threshold := mustAmount(t, "USD", "1000.00")
	rule := aml.Rule{Kind: aml.RuleTimeBased, Enabled: true, RiskPoints: 15, ThresholdAmount: threshold}

	txn := aml.MonitoredTransaction{
		Amount:          mustAmount(t, "USD", "2000.00"),
		TransactionTime: time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC),
	}
	assert.True(t, rule.Evaluate(txn))

	txn.TransactionTime = time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC)
	assert.False(t, rule.Evaluate(txn), "daytime transactions never trigger TIME_BASED")
}

func TestRule_Disabled_NeverTriggers(t *testing.T) {
	rule := aml.Rule{Kind: aml.RuleRoundAmount, Enabled: false}

	assert.False(t, rule.Evaluate(aml.MonitoredTransaction{Amount: mustAmount(t, "USD", "5000.00")}))
}

func TestEngine_ScoreCapsAt100(t *testing.T) {
	threshold := mustAmount(t, "USD", "100.00")

	engine := aml.Engine{Rules: []aml.Rule{
		{Kind: aml.RuleAmount, Enabled: true, RiskPoints: 60, ThresholdAmount: threshold},
		{Kind: aml.RuleRoundAmount, Enabled: true, RiskPoints: 60},
	}}

	txn := aml.MonitoredTransaction{Amount: mustAmount(t, "USD", "5000.00")}

	result := engine.Evaluate(txn)
	require.True(t, result.Flagged())
	assert.Equal(t, 100, result.RiskScore)
	assert.Len(t, result.Triggered, 2)
}

func TestClassifyRiskLevel_Boundaries(t *testing.T) {
	assert.Equal(t, aml.RiskLevelCritical, aml.ClassifyRiskLevel(80))
	assert.Equal(t, aml.RiskLevelHigh, aml.ClassifyRiskLevel(79))
	assert.Equal(t, aml.RiskLevelHigh, aml.ClassifyRiskLevel(60))
	assert.Equal(t, aml.RiskLevelMedium, aml.ClassifyRiskLevel(59))
	assert.Equal(t, aml.RiskLevelMedium, aml.ClassifyRiskLevel(30))
	assert.Equal(t, aml.RiskLevelLow, aml.ClassifyRiskLevel(29))
}

func TestHighestPriority_StructuringOutranksAmount(t *testing.T) {
	triggered := []aml.Rule{{Kind: aml.RuleAmount}, {Kind: aml.RuleStructuring}, {Kind: aml.RuleVelocity}}

	top, ok := aml.HighestPriority(triggered)
	require.True(t, ok)
	assert.Equal(t, aml.RuleStructuring, top.Kind)
}
