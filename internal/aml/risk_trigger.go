package aml

import "context"

// RiskTrigger adapts Service to internal/customer's RiskRecomputeTrigger
// port, the same adapter-wrapper shape aml/postgres uses to narrow
// *postgres.Repository onto each repository interface. Customer-facing
// events (KYC approval) carry only a customerID, so this recompute only
// refreshes the standing profile row; the alert/sanction counts themselves
// are still driven by EvaluateTransaction/ScreenSubject, which key on
// accountNumber rather than customerID.
type RiskTrigger struct {
	Svc *Service
}

// NewRiskTrigger builds a RiskTrigger over svc.
func NewRiskTrigger(svc *Service) *RiskTrigger {
	return &RiskTrigger{Svc: svc}
}

// TriggerRecompute implements customer.RiskRecomputeTrigger.
func (t *RiskTrigger) TriggerRecompute(ctx context.Context, customerID string) error {
	existing, err := t.Svc.RiskProfiles.FindByCustomerID(ctx, customerID)
	if err != nil {
		return err
	}

	factors := RiskFactors{}
	if existing != nil {
		factors = existing.RiskFactors
	}

	_, err = t.Svc.RecomputeRiskProfile(ctx, customerID, factors)

	return err
}
