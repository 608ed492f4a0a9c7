package aml

import (
	"time"

	"github.com/iancoleman/strcase"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// RiskLevel buckets a risk score into four bands with thresholds at 30,
// 60 and 80.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

// ClassifyRiskLevel maps a 0-100 risk score to its band, with thresholds
// at 30, 60 and 80.
func ClassifyRiskLevel(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskLevelCritical
	case score >= 60:
		return RiskLevelHigh
	case score >= 30:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// alertTypeForRule derives an alert's alertType from the
// highest-priority triggered rule: the rule kind itself, rendered in
// SCREAMING_SNAKE_CASE via strcase so it reads the same whether it
// started life as a Go const or a config-driven string loaded from
// elsewhere.
func alertTypeForRule(kind RuleKind) string {
	return strcase.ToScreamingSnake(string(kind))
}

// ruleReasons renders the human-readable reason line each triggered rule
// contributes to an alert.
var ruleReasons = map[RuleKind]string{
	RuleVelocity:    "High transaction velocity detected",
	RuleAmount:      "Transaction amount exceeds reporting threshold",
	RuleDailyLimit:  "Daily cumulative amount limit exceeded",
	RuleTimeBased:   "Large transaction outside business hours",
	RuleStructuring: "Potential structuring detected",
	RuleRoundAmount: "Suspicious round-amount pattern",
}

// ReasonsFor renders one reason line per triggered rule kind, in the order
// the rules triggered.
func ReasonsFor(kinds []RuleKind) []string {
	out := make([]string, 0, len(kinds))

	for _, k := range kinds {
		if reason, ok := ruleReasons[k]; ok {
			out = append(out, reason)
		}
	}

	return out
}

// AlertStatus is an AmlAlert's disposition:
// OPEN -> UNDER_REVIEW -> {CLEARED, ESCALATED}.
type AlertStatus string

const (
	AlertStatusOpen        AlertStatus = "OPEN"
	AlertStatusUnderReview AlertStatus = "UNDER_REVIEW"
	AlertStatusCleared     AlertStatus = "CLEARED"
	AlertStatusEscalated   AlertStatus = "ESCALATED"
)

// Alert is the output of a flagged transaction evaluation.
type Alert struct {
	ID            string
	AccountNumber string
	TransactionID string
	AlertType     string
	RiskScore     int
	RiskLevel     RiskLevel
	TriggeredRules []RuleKind

	// Reasons is one line per triggered rule; derived from TriggeredRules,
	// never stored separately.
	Reasons []string
	Amount        money.Amount
	Status        AlertStatus
	CreatedAt     time.Time
}

// MarkUnderReview moves an alert OPEN -> UNDER_REVIEW when a Case is opened
// against it.
func (a *Alert) MarkUnderReview() error {
	if a.Status != AlertStatusOpen {
		return ErrAlertIllegalTransition(a.ID, a.Status, AlertStatusUnderReview)
	}

	a.Status = AlertStatusUnderReview

	return nil
}

// Escalate moves an alert UNDER_REVIEW -> ESCALATED when its case escalates.
func (a *Alert) Escalate() error {
	if a.Status != AlertStatusUnderReview {
		return ErrAlertIllegalTransition(a.ID, a.Status, AlertStatusEscalated)
	}

	a.Status = AlertStatusEscalated

	return nil
}

// Clear moves an alert UNDER_REVIEW -> CLEARED when its case closes without
// escalation; an already-ESCALATED alert is left untouched since escalation
// is its terminal disposition.
func (a *Alert) Clear() error {
	if a.Status == AlertStatusEscalated {
		return nil
	}

	if a.Status != AlertStatusUnderReview {
		return ErrAlertIllegalTransition(a.ID, a.Status, AlertStatusCleared)
	}

	a.Status = AlertStatusCleared

	return nil
}

// NewAlert builds an Alert from an EvaluationResult that Flagged().
func NewAlert(id, accountNumber, transactionID string, amount money.Amount, result EvaluationResult, now time.Time) *Alert {
	kinds := make([]RuleKind, 0, len(result.Triggered))
	for _, r := range result.Triggered {
		kinds = append(kinds, r.Kind)
	}

	alertType := "OTHER"
	if top, ok := HighestPriority(result.Triggered); ok {
		alertType = alertTypeForRule(top.Kind)
	}

	return &Alert{
		ID:             id,
		AccountNumber:  accountNumber,
		TransactionID:  transactionID,
		AlertType:      alertType,
		RiskScore:      result.RiskScore,
		RiskLevel:      ClassifyRiskLevel(result.RiskScore),
		TriggeredRules: kinds,
		Reasons:        ReasonsFor(kinds),
		Amount:         amount,
		Status:         AlertStatusOpen,
		CreatedAt:      now,
	}
}

func ErrAlertNotFound(id string) *apperr.Error {
	return apperr.NotFound("AmlAlert", id)
}

func ErrAlertIllegalTransition(id string, from, to AlertStatus) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "AmlAlert", "ALERT_ILLEGAL_TRANSITION", "Illegal Alert Transition",
		"alert "+id+" cannot transition from "+string(from)+" to "+string(to))
}
