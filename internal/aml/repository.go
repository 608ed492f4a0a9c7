package aml

import "context"

// Transactor runs fn inside one database transaction; every repository
// call made with the context fn receives joins it. A nil Transactor runs
// fn directly, which the in-memory test doubles rely on.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AlertRepository persists Alert aggregates.
type AlertRepository interface {
	Create(ctx context.Context, a *Alert) error
	Update(ctx context.Context, a *Alert) error
	FindByID(ctx context.Context, id string) (*Alert, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) ([]*Alert, error)
	// FindOpenAccountNumbers returns the distinct account numbers carrying
	// at least one alert still in OPEN or UNDER_REVIEW, the population the
	// scheduled risk-rescoring sweep walks.
	FindOpenAccountNumbers(ctx context.Context) ([]string, error)
}

// CaseRepository persists Case aggregates.
type CaseRepository interface {
	Create(ctx context.Context, c *Case) error
	Update(ctx context.Context, c *Case) error
	FindByID(ctx context.Context, id string) (*Case, error)
	// CountSARFiledByAccountNumber counts SARFiled cases against
	// accountNumber, the "sarFiledCount" term of the
	// CustomerRiskProfile formula.
	CountSARFiledByAccountNumber(ctx context.Context, accountNumber string) (int, error)
}

// ReportRepository persists Report aggregates.
type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	Update(ctx context.Context, r *Report) error
	FindByID(ctx context.Context, id string) (*Report, error)
}

// RiskProfileRepository persists CustomerRiskProfile aggregates.
type RiskProfileRepository interface {
	Upsert(ctx context.Context, p *CustomerRiskProfile) error
	FindByCustomerID(ctx context.Context, customerID string) (*CustomerRiskProfile, error)
}

// SanctionMatchRepository persists SanctionMatch records produced by
// screening.
type SanctionMatchRepository interface {
	Create(ctx context.Context, m *SanctionMatch) error
	Update(ctx context.Context, m *SanctionMatch) error
	FindByID(ctx context.Context, id string) (*SanctionMatch, error)
}
