// Package aml implements rule-based transaction monitoring, sanction
// screening, case workflow, and regulatory reporting.
package aml

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridianledger/corebank/internal/platform/money"
)

// RuleKind is one of the closed set of AML detection rules.
type RuleKind string

const (
	RuleVelocity    RuleKind = "VELOCITY"
	RuleAmount      RuleKind = "AMOUNT"
	RuleDailyLimit  RuleKind = "DAILY_LIMIT"
	RuleTimeBased   RuleKind = "TIME_BASED"
	RuleStructuring RuleKind = "STRUCTURING"
	RuleRoundAmount RuleKind = "ROUND_AMOUNT"
)

// Rule is one configured, enabled AML rule instance. Not every field
// applies to every kind; Evaluate reads only the ones its kind needs.
type Rule struct {
	Kind            RuleKind
	Enabled         bool
	RiskPoints      int
	WindowMinutes   int
	ThresholdCount  int
	ThresholdAmount money.Amount
}

// MonitoredTransaction is the transaction-shaped input every rule
// evaluates against, plus the account context VELOCITY/DAILY_LIMIT need.
type MonitoredTransaction struct {
	AccountNumber     string
	Amount            money.Amount
	TransactionTime   time.Time
	PriorTransactions []PriorTransaction // same account, any currency, used for VELOCITY/DAILY_LIMIT
}

// PriorTransaction is a minimal record of a previous transaction on the
// same account, enough for VELOCITY (count in window) and DAILY_LIMIT (sum
// same-currency, same-day).
type PriorTransaction struct {
	Amount money.Amount
	At     time.Time
}

// threshold re-denominates the configured threshold into the
// transaction's currency: thresholds are numeric levels, not priced
// per-currency instruments.
func (r Rule) threshold(currency string) money.Amount {
	return money.FromDecimal(currency, r.ThresholdAmount.Value)
}

// Evaluate reports whether txn triggers r; every trigger is a
// deterministic function of the transaction and the rule's thresholds.
func (r Rule) Evaluate(txn MonitoredTransaction) bool {
	if !r.Enabled {
		return false
	}

	switch r.Kind {
	case RuleVelocity:
		return r.evaluateVelocity(txn)
	case RuleAmount:
		return txn.Amount.GreaterThan(r.threshold(txn.Amount.Currency))
	case RuleDailyLimit:
		return r.evaluateDailyLimit(txn)
	case RuleTimeBased:
		return r.evaluateTimeBased(txn)
	case RuleStructuring:
		return r.evaluateStructuring(txn)
	case RuleRoundAmount:
		return r.evaluateRoundAmount(txn)
	default:
		return false
	}
}

func (r Rule) evaluateVelocity(txn MonitoredTransaction) bool {
	windowStart := txn.TransactionTime.Add(-time.Duration(r.WindowMinutes) * time.Minute)

	count := 1 // the transaction itself counts

	for _, p := range txn.PriorTransactions {
		if !p.At.Before(windowStart) {
			count++
		}
	}

	return count >= r.ThresholdCount
}

func (r Rule) evaluateDailyLimit(txn MonitoredTransaction) bool {
	sum := txn.Amount

	for _, p := range txn.PriorTransactions {
		if !p.Amount.SameCurrency(txn.Amount) {
			continue
		}

		if sameDay(p.At, txn.TransactionTime) {
			sum = sum.Add(p.Amount)
		}
	}

	return sum.GreaterThan(r.threshold(sum.Currency))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}

func (r Rule) evaluateTimeBased(txn MonitoredTransaction) bool {
	h, _, _ := txn.TransactionTime.Clock()

	return h < 6 && txn.Amount.GreaterThan(r.threshold(txn.Amount.Currency))
}

func (r Rule) evaluateStructuring(txn MonitoredTransaction) bool {
	threshold := r.threshold(txn.Amount.Currency)
	lower := threshold.ApplyPercentage(decimal.NewFromInt(90))

	return !txn.Amount.LessThan(lower) && txn.Amount.LessThan(threshold)
}

func (r Rule) evaluateRoundAmount(txn MonitoredTransaction) bool {
	thousand, _ := money.New(txn.Amount.Currency, "1000.00")

	if txn.Amount.LessThan(thousand) {
		return false
	}

	mod := txn.Amount.Value.Mod(decimal.NewFromInt(1000))

	return mod.IsZero()
}

// Engine evaluates a set of enabled rules against a transaction and scores
// the result.
type Engine struct {
	Rules []Rule

	// FlagThreshold is the score at or above which Evaluate's result is
	// flagged, operator-tunable (AML_FLAG_THRESHOLD). Zero means unset
	// and falls back to the default of 30.
	FlagThreshold int
}

// EvaluationResult is the outcome of running every rule against one
// transaction.
type EvaluationResult struct {
	Triggered     []Rule
	RiskScore     int
	flagThreshold int
}

// Flagged reports whether the score cleared the engine's flag threshold,
// 30 by default.
func (r EvaluationResult) Flagged() bool {
	threshold := r.flagThreshold
	if threshold == 0 {
		threshold = 30
	}

	return r.RiskScore >= threshold
}

// Evaluate runs every enabled rule and sums riskPoints of the triggered
// ones, capped at 100.
func (e Engine) Evaluate(txn MonitoredTransaction) EvaluationResult {
	result := EvaluationResult{flagThreshold: e.FlagThreshold}

	for _, rule := range e.Rules {
		if rule.Evaluate(txn) {
			result.Triggered = append(result.Triggered, rule)
			result.RiskScore += rule.RiskPoints
		}
	}

	if result.RiskScore > 100 {
		result.RiskScore = 100
	}

	return result
}

// rulePriority is the deterministic ordering used to map the
// highest-priority triggered rule to an alert type: structuring
// and round-amount patterns indicate deliberate evasion and so outrank
// simple threshold breaches.
var rulePriority = map[RuleKind]int{
	RuleStructuring: 1,
	RuleRoundAmount: 2,
	RuleVelocity:    3,
	RuleDailyLimit:  4,
	RuleTimeBased:   5,
	RuleAmount:      6,
}

// HighestPriority returns the triggered rule that drives alertType
// derivation; ties are broken by rulePriority (lower wins).
func HighestPriority(triggered []Rule) (Rule, bool) {
	if len(triggered) == 0 {
		return Rule{}, false
	}

	best := triggered[0]

	for _, r := range triggered[1:] {
		if rulePriority[r.Kind] < rulePriority[best.Kind] {
			best = r
		}
	}

	return best, true
}
