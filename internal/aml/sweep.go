package aml

import (
	"context"
	"time"

	"github.com/meridianledger/corebank/internal/platform/app"
	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// AccountLookup resolves the customer owning an account number and the
// customer-level context the CustomerRiskProfile formula needs beyond
// what this package itself tracks. Kept as a narrow interface rather than an import of
// internal/ledger and internal/customer so the packages stay decoupled;
// cmd/corebank wires the concrete adapter.
type AccountLookup interface {
	CustomerIDFor(ctx context.Context, accountNumber string) (string, error)
	RiskContextFor(ctx context.Context, accountNumber string) (RiskContext, error)
}

// RiskContext is the customer/transaction context the sweep can't derive
// from this package's own repositories: lifetime transaction volume (the
// "flagged/total ratio" denominator) and the KYC-side PEP/jurisdiction/
// business flags.
type RiskContext struct {
	TotalTransactions    int
	PEP                  bool
	HighRiskJurisdiction bool
	HighRiskBusiness     bool
}

// SweepWorker periodically rescores every account still carrying an open
// alert, so a customer's risk posture doesn't go stale between triggering
// transactions.
type SweepWorker struct {
	Service  *Service
	Accounts AccountLookup
	Interval time.Duration
	Logger   mlog.Logger
}

// NewSweepWorker builds a SweepWorker polling at interval; a non-positive
// interval falls back to 15 minutes.
func NewSweepWorker(svc *Service, accounts AccountLookup, interval time.Duration) *SweepWorker {
	return &SweepWorker{
		Service:  svc,
		Accounts: accounts,
		Interval: interval,
		Logger:   &mlog.NoneLogger{},
	}
}

// Run implements app.Component: it polls until the process exits.
func (w *SweepWorker) Run(*app.Launcher) error {
	ctx := context.Background()

	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()

	for range ticker.C {
		if err := w.Sweep(ctx); err != nil {
			w.Logger.Errorf("aml sweep: failed: %v", err)
		}
	}

	return nil
}

func (w *SweepWorker) interval() time.Duration {
	if w.Interval <= 0 {
		return 15 * time.Minute
	}

	return w.Interval
}

// Sweep runs one rescoring pass immediately; Run calls it on each tick,
// exported so callers (and tests) can trigger it outside the ticker.
func (w *SweepWorker) Sweep(ctx context.Context) error {
	accountNumbers, err := w.Service.Alerts.FindOpenAccountNumbers(ctx)
	if err != nil {
		return err
	}

	for _, accountNumber := range accountNumbers {
		if err := w.rescoreAccount(ctx, accountNumber); err != nil {
			w.Logger.Warnf("aml sweep: rescore account %s: %v", accountNumber, err)
		}
	}

	return nil
}

func (w *SweepWorker) rescoreAccount(ctx context.Context, accountNumber string) error {
	customerID, err := w.Accounts.CustomerIDFor(ctx, accountNumber)
	if err != nil {
		return err
	}

	alerts, err := w.Service.Alerts.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return err
	}

	riskCtx, err := w.Accounts.RiskContextFor(ctx, accountNumber)
	if err != nil {
		return err
	}

	sarFiled, err := w.Service.Cases.CountSARFiledByAccountNumber(ctx, accountNumber)
	if err != nil {
		return err
	}

	factors := RiskFactors{
		FlaggedTransactions:  len(alerts),
		TotalTransactions:    riskCtx.TotalTransactions,
		PEP:                  riskCtx.PEP,
		HighRiskJurisdiction: riskCtx.HighRiskJurisdiction,
		HighRiskBusiness:     riskCtx.HighRiskBusiness,
		SARFiledCount:        sarFiled,
	}

	sanctionAlertType := alertTypeForRule(RuleKind("SANCTION_SCREENING"))

	for _, a := range alerts {
		if a.Status == AlertStatusEscalated {
			factors.BlockedTransactions++
		}

		if a.AlertType != sanctionAlertType {
			continue
		}

		if a.Status == AlertStatusEscalated {
			factors.HasConfirmedSanctionMatch = true
		} else {
			factors.HasPotentialSanctionMatch = true
		}
	}

	_, err = w.Service.RecomputeRiskProfile(ctx, customerID, factors)

	return err
}
