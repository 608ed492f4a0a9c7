package aml

import (
	"time"

	"github.com/shopspring/decimal"
)

// weightSARFiledCap, weightSanctionConfirmed and friends are the named
// constants behind the weighted sum:
//
//	flagged/total ratio x30 + sanctions x{20|50} + pep x15 +
//	highRiskJurisdiction x10 + highRiskBusiness x10 +
//	min(sarFiledCount x5, 15) + blockedRatio x10
const (
	weightFlaggedRatio         = 30
	weightSanctionPotential    = 20
	weightSanctionConfirmed    = 50
	weightPEP                  = 15
	weightHighRiskJurisdiction = 10
	weightHighRiskBusiness     = 10
	weightSARFiledPerReport    = 5
	weightSARFiledCap          = 15
	weightBlockedRatio         = 10
)

// RiskFactors are the inputs the CustomerRiskProfile formula weighs;
// callers (the sanctions-driven sweep, the KYC-triggered recompute) gather
// these from their own data and hand the counts/flags to
// Service.RecomputeRiskProfile, which persists them on the profile and
// recomputes Score/Level.
type RiskFactors struct {
	// FlaggedTransactions and TotalTransactions form the "flagged/total
	// ratio" term; TotalTransactions=0 contributes zero rather than
	// dividing by zero.
	FlaggedTransactions int
	TotalTransactions   int

	// BlockedTransactions is the numerator of "blockedRatio", over the
	// same TotalTransactions denominator.
	BlockedTransactions int

	// HasConfirmedSanctionMatch/HasPotentialSanctionMatch drive the
	// sanctions x{20|50} term: a CONFIRMED match outweighs a merely
	// POTENTIAL one; neither contributes if both are false.
	HasConfirmedSanctionMatch bool
	HasPotentialSanctionMatch bool

	PEP                  bool
	HighRiskJurisdiction bool
	HighRiskBusiness     bool

	// SARFiledCount is the customer's lifetime count of filed SARs;
	// contributes min(count x5, 15).
	SARFiledCount int
}

// CustomerRiskProfile is a recomputable weighted risk score for one
// customer: alongside per-transaction scoring, the program maintains a
// standing, periodically recomputed per-customer risk posture. Nothing in
// internal/customer reads it back.
type CustomerRiskProfile struct {
	CustomerID string
	Score      int
	Level      RiskLevel

	RiskFactors

	RecomputedAt time.Time
	Version      int64
}

// Recompute recalculates Score/Level from the profile's current
// RiskFactors using the weighted-sum formula, capped at 100.
func (p *CustomerRiskProfile) Recompute(now time.Time) {
	total := decimal.NewFromInt(int64(weightSanctionWeight(p.RiskFactors)))

	total = total.Add(ratio(p.FlaggedTransactions, p.TotalTransactions).Mul(decimal.NewFromInt(weightFlaggedRatio)))
	total = total.Add(ratio(p.BlockedTransactions, p.TotalTransactions).Mul(decimal.NewFromInt(weightBlockedRatio)))

	if p.PEP {
		total = total.Add(decimal.NewFromInt(weightPEP))
	}

	if p.HighRiskJurisdiction {
		total = total.Add(decimal.NewFromInt(weightHighRiskJurisdiction))
	}

	if p.HighRiskBusiness {
		total = total.Add(decimal.NewFromInt(weightHighRiskBusiness))
	}

	sarContribution := p.SARFiledCount * weightSARFiledPerReport
	if sarContribution > weightSARFiledCap {
		sarContribution = weightSARFiledCap
	}

	total = total.Add(decimal.NewFromInt(int64(sarContribution)))

	score := total.IntPart()

	switch {
	case score > 100:
		score = 100
	case score < 0:
		score = 0
	}

	p.Score = int(score)
	p.Level = ClassifyRiskLevel(p.Score)
	p.RecomputedAt = now
}

// weightSanctionWeight picks the sanctions x{20|50} term: CONFIRMED
// outranks POTENTIAL.
func weightSanctionWeight(f RiskFactors) int {
	switch {
	case f.HasConfirmedSanctionMatch:
		return weightSanctionConfirmed
	case f.HasPotentialSanctionMatch:
		return weightSanctionPotential
	default:
		return 0
	}
}

// ratio returns numerator/denominator as a decimal, or zero when
// denominator is zero (an untracked customer contributes no ratio term
// rather than dividing by zero).
func ratio(numerator, denominator int) decimal.Decimal {
	if denominator <= 0 {
		return decimal.Zero
	}

	return decimal.NewFromInt(int64(numerator)).Div(decimal.NewFromInt(int64(denominator)))
}

// NewCustomerRiskProfile builds a zero-factor profile for customerID.
func NewCustomerRiskProfile(customerID string) *CustomerRiskProfile {
	return &CustomerRiskProfile{CustomerID: customerID, Level: RiskLevelLow}
}
