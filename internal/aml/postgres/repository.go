// Package postgres is the pgx/squirrel-backed persistence layer for
// internal/aml's alert, case, report, risk-profile and sanction-match
// aggregates, following internal/transfer/postgres's conventions.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridianledger/corebank/internal/aml"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/platform/mpostgres"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository is the postgres-backed aml.AlertRepository,
// aml.CaseRepository, aml.ReportRepository, aml.RiskProfileRepository,
// aml.SanctionMatchRepository and aml.OutboxStager, all sharing one pool
// the way internal/transfer/postgres.Repository does.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over a live pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new alert row.
func (r *Repository) Create(ctx context.Context, a *aml.Alert) error {
	query, args, err := psql.Insert("aml_alert").
		Columns("id", "account_number", "transaction_id", "alert_type", "risk_score", "risk_level",
			"triggered_rules", "amount", "currency", "status", "created_at").
		Values(a.ID, a.AccountNumber, a.TransactionID, a.AlertType, a.RiskScore, string(a.RiskLevel),
			joinRuleKinds(a.TriggeredRules), a.Amount.Value, a.Amount.Currency, string(a.Status), a.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build create alert: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: create alert: %w", err)
	}

	return nil
}

// Update persists a status transition on an existing alert row.
func (r *Repository) Update(ctx context.Context, a *aml.Alert) error {
	query, args, err := psql.Update("aml_alert").
		Set("status", string(a.Status)).
		Where(sq.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build update alert: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: update alert: %w", err)
	}

	return nil
}

// FindOpenAccountNumbers returns the distinct accounts carrying an alert
// still in OPEN or UNDER_REVIEW, the population the scheduled risk-rescoring
// sweep walks.
func (r *Repository) FindOpenAccountNumbers(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("DISTINCT account_number").
		From("aml_alert").
		Where(sq.Eq{"status": []string{string(aml.AlertStatusOpen), string(aml.AlertStatusUnderReview)}}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: build find open accounts: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: query find open accounts: %w", err)
	}
	defer rows.Close()

	var out []string

	for rows.Next() {
		var accountNumber string
		if err := rows.Scan(&accountNumber); err != nil {
			return nil, err
		}

		out = append(out, accountNumber)
	}

	return out, rows.Err()
}

// FindByID looks up an alert by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*aml.Alert, error) {
	query, args, err := psql.Select(alertColumns()...).From("aml_alert").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: build find alert: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, aml.ErrAlertNotFound(id)
		}

		return nil, err
	}

	return a, nil
}

// FindByAccountNumber returns every alert raised against accountNumber.
func (r *Repository) FindByAccountNumber(ctx context.Context, accountNumber string) ([]*aml.Alert, error) {
	query, args, err := psql.Select(alertColumns()...).
		From("aml_alert").
		Where(sq.Eq{"account_number": accountNumber}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: build find alerts by account: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: query find alerts by account: %w", err)
	}
	defer rows.Close()

	var out []*aml.Alert

	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, a)
	}

	return out, rows.Err()
}

func alertColumns() []string {
	return []string{"id", "account_number", "transaction_id", "alert_type", "risk_score", "risk_level",
		"triggered_rules", "amount", "currency", "status", "created_at"}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*aml.Alert, error) {
	var (
		a         aml.Alert
		riskLevel string
		rules     string
		amountVal decimal.Decimal
		currency  string
		status    string
	)

	if err := row.Scan(&a.ID, &a.AccountNumber, &a.TransactionID, &a.AlertType, &a.RiskScore, &riskLevel,
		&rules, &amountVal, &currency, &status, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.RiskLevel = aml.RiskLevel(riskLevel)
	a.Amount = money.FromDecimal(currency, amountVal)
	a.TriggeredRules = splitRuleKinds(rules)
	a.Reasons = aml.ReasonsFor(a.TriggeredRules)
	a.Status = aml.AlertStatus(status)

	return &a, nil
}

// joinRuleKinds/splitRuleKinds store TriggeredRules as a comma-joined text
// column rather than a native array type: the values are a closed,
// small-cardinality set, so a delimited string
// avoids a driver-specific array codec for no real benefit.
func joinRuleKinds(kinds []aml.RuleKind) string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}

	return strings.Join(out, ",")
}

func splitRuleKinds(value string) []aml.RuleKind {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]aml.RuleKind, len(parts))

	for i, p := range parts {
		out[i] = aml.RuleKind(p)
	}

	return out
}

// CreateCase inserts a new case row.
func (r *Repository) CreateCase(ctx context.Context, c *aml.Case) error {
	query, args, err := psql.Insert("aml_case").
		Columns("id", "alert_ids", "account_number", "status", "priority", "due_date",
			"escalated", "escalated_by", "resolution", "requires_sar_filing",
			"sar_filed", "sar_report_id", "sar_filed_at", "opened_at", "closed_at", "version").
		Values(c.ID, strings.Join(c.AlertIDs, ","), c.AccountNumber, string(c.Status), string(c.Priority), c.DueDate,
			c.Escalated, c.EscalatedBy, c.Resolution, c.RequiresSARFiling,
			c.SARFiled, c.SARReportID, c.SARFiledAt, c.OpenedAt, c.ClosedAt, c.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build create case: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: create case: %w", err)
	}

	return nil
}

// UpdateCase persists c's current state.
func (r *Repository) UpdateCase(ctx context.Context, c *aml.Case) error {
	query, args, err := psql.Update("aml_case").
		Set("status", string(c.Status)).
		Set("escalated", c.Escalated).
		Set("escalated_by", c.EscalatedBy).
		Set("resolution", c.Resolution).
		Set("requires_sar_filing", c.RequiresSARFiling).
		Set("sar_filed", c.SARFiled).
		Set("sar_report_id", c.SARReportID).
		Set("sar_filed_at", c.SARFiledAt).
		Set("closed_at", c.ClosedAt).
		Set("version", c.Version).
		Where(sq.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build update case: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: update case: %w", err)
	}

	return nil
}

// FindCaseByID looks up a case by id.
func (r *Repository) FindCaseByID(ctx context.Context, id string) (*aml.Case, error) {
	query, args, err := psql.Select(
		"id", "alert_ids", "account_number", "status", "priority", "due_date",
		"escalated", "escalated_by", "resolution", "requires_sar_filing",
		"sar_filed", "sar_report_id", "sar_filed_at", "opened_at", "closed_at", "version").
		From("aml_case").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: build find case: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		c        aml.Case
		status   string
		priority string
		alertIDs string
	)

	if err := row.Scan(&c.ID, &alertIDs, &c.AccountNumber, &status, &priority, &c.DueDate,
		&c.Escalated, &c.EscalatedBy, &c.Resolution, &c.RequiresSARFiling,
		&c.SARFiled, &c.SARReportID, &c.SARFiledAt, &c.OpenedAt, &c.ClosedAt, &c.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, aml.ErrCaseNotFound(id)
		}

		return nil, fmt.Errorf("aml/postgres: scan case: %w", err)
	}

	c.Status = aml.CaseStatus(status)
	c.Priority = aml.CasePriority(priority)
	if alertIDs != "" {
		c.AlertIDs = strings.Split(alertIDs, ",")
	}

	return &c, nil
}

// CountSARFiledByAccountNumber counts cases against accountNumber whose SAR
// has been filed, the "sarFiledCount" term of the CustomerRiskProfile
// formula.
func (r *Repository) CountSARFiledByAccountNumber(ctx context.Context, accountNumber string) (int, error) {
	query, args, err := psql.Select("count(*)").
		From("aml_case").
		Where(sq.Eq{"account_number": accountNumber, "sar_filed": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("aml/postgres: build count sar filed: %w", err)
	}

	var count int
	if err := r.db(ctx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("aml/postgres: count sar filed: %w", err)
	}

	return count, nil
}

// CreateReport inserts a new report row.
func (r *Repository) CreateReport(ctx context.Context, rep *aml.Report) error {
	query, args, err := psql.Insert("aml_report").
		Columns("id", "case_id", "status", "prepared_by", "reviewed_by", "approved_by",
			"narrative", "created_at", "filed_at", "version").
		Values(rep.ID, rep.CaseID, string(rep.Status), rep.PreparedBy, rep.ReviewedBy, rep.ApprovedBy,
			rep.Narrative, rep.CreatedAt, rep.FiledAt, rep.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build create report: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: create report: %w", err)
	}

	return nil
}

// UpdateReport persists rep's current state.
func (r *Repository) UpdateReport(ctx context.Context, rep *aml.Report) error {
	query, args, err := psql.Update("aml_report").
		Set("status", string(rep.Status)).
		Set("reviewed_by", rep.ReviewedBy).
		Set("approved_by", rep.ApprovedBy).
		Set("filed_at", rep.FiledAt).
		Set("version", rep.Version).
		Where(sq.Eq{"id": rep.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build update report: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: update report: %w", err)
	}

	return nil
}

// FindReportByID looks up a report by id.
func (r *Repository) FindReportByID(ctx context.Context, id string) (*aml.Report, error) {
	query, args, err := psql.Select(
		"id", "case_id", "status", "prepared_by", "reviewed_by", "approved_by",
		"narrative", "created_at", "filed_at", "version").
		From("aml_report").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: build find report: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		rep    aml.Report
		status string
	)

	if err := row.Scan(&rep.ID, &rep.CaseID, &status, &rep.PreparedBy, &rep.ReviewedBy, &rep.ApprovedBy,
		&rep.Narrative, &rep.CreatedAt, &rep.FiledAt, &rep.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, aml.ErrReportNotFound(id)
		}

		return nil, fmt.Errorf("aml/postgres: scan report: %w", err)
	}

	rep.Status = aml.ReportStatus(status)

	return &rep, nil
}

// UpsertRiskProfile inserts or replaces a customer's standing risk profile.
func (r *Repository) UpsertRiskProfile(ctx context.Context, p *aml.CustomerRiskProfile) error {
	query, args, err := psql.Insert("aml_customer_risk_profile").
		Columns("customer_id", "score", "level",
			"flagged_transactions", "total_transactions", "blocked_transactions",
			"has_confirmed_sanction_match", "has_potential_sanction_match",
			"pep", "high_risk_jurisdiction", "high_risk_business", "sar_filed_count",
			"recomputed_at", "version").
		Values(p.CustomerID, p.Score, string(p.Level),
			p.FlaggedTransactions, p.TotalTransactions, p.BlockedTransactions,
			p.HasConfirmedSanctionMatch, p.HasPotentialSanctionMatch,
			p.PEP, p.HighRiskJurisdiction, p.HighRiskBusiness, p.SARFiledCount,
			p.RecomputedAt, p.Version).
		Suffix(`ON CONFLICT (customer_id) DO UPDATE SET
			score = EXCLUDED.score, level = EXCLUDED.level,
			flagged_transactions = EXCLUDED.flagged_transactions,
			total_transactions = EXCLUDED.total_transactions,
			blocked_transactions = EXCLUDED.blocked_transactions,
			has_confirmed_sanction_match = EXCLUDED.has_confirmed_sanction_match,
			has_potential_sanction_match = EXCLUDED.has_potential_sanction_match,
			pep = EXCLUDED.pep, high_risk_jurisdiction = EXCLUDED.high_risk_jurisdiction,
			high_risk_business = EXCLUDED.high_risk_business, sar_filed_count = EXCLUDED.sar_filed_count,
			recomputed_at = EXCLUDED.recomputed_at, version = EXCLUDED.version`).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build upsert risk profile: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: upsert risk profile: %w", err)
	}

	return nil
}

// FindRiskProfileByCustomerID returns (nil, nil) if customerID has no
// profile yet.
func (r *Repository) FindRiskProfileByCustomerID(ctx context.Context, customerID string) (*aml.CustomerRiskProfile, error) {
	query, args, err := psql.Select("customer_id", "score", "level",
		"flagged_transactions", "total_transactions", "blocked_transactions",
		"has_confirmed_sanction_match", "has_potential_sanction_match",
		"pep", "high_risk_jurisdiction", "high_risk_business", "sar_filed_count",
		"recomputed_at", "version").
		From("aml_customer_risk_profile").Where(sq.Eq{"customer_id": customerID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: build find risk profile: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		p     aml.CustomerRiskProfile
		level string
	)

	if err := row.Scan(&p.CustomerID, &p.Score, &level,
		&p.FlaggedTransactions, &p.TotalTransactions, &p.BlockedTransactions,
		&p.HasConfirmedSanctionMatch, &p.HasPotentialSanctionMatch,
		&p.PEP, &p.HighRiskJurisdiction, &p.HighRiskBusiness, &p.SARFiledCount,
		&p.RecomputedAt, &p.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("aml/postgres: scan risk profile: %w", err)
	}

	p.Level = aml.RiskLevel(level)

	return &p, nil
}

// CreateSanctionMatch inserts a new sanction-match row.
func (r *Repository) CreateSanctionMatch(ctx context.Context, m *aml.SanctionMatch) error {
	query, args, err := psql.Insert("aml_sanction_match").
		Columns("id", "list_entry_id", "subject_name", "match_score", "status").
		Values(m.ID, m.ListEntryID, m.SubjectName, m.MatchScore, string(m.Status)).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build create sanction match: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: create sanction match: %w", err)
	}

	return nil
}

// UpdateSanctionMatch persists a reviewer's disposition on a match.
func (r *Repository) UpdateSanctionMatch(ctx context.Context, m *aml.SanctionMatch) error {
	query, args, err := psql.Update("aml_sanction_match").
		Set("status", string(m.Status)).
		Where(sq.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build update sanction match: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: update sanction match: %w", err)
	}

	return nil
}

// FindSanctionMatchByID looks up a sanction match by id.
func (r *Repository) FindSanctionMatchByID(ctx context.Context, id string) (*aml.SanctionMatch, error) {
	query, args, err := psql.Select("id", "list_entry_id", "subject_name", "match_score", "status").
		From("aml_sanction_match").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: build find sanction match: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		m      aml.SanctionMatch
		status string
	)

	if err := row.Scan(&m.ID, &m.ListEntryID, &m.SubjectName, &m.MatchScore, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, aml.ErrSanctionMatchNotFound(id)
		}

		return nil, fmt.Errorf("aml/postgres: scan sanction match: %w", err)
	}

	m.Status = aml.MatchStatus(status)

	return &m, nil
}

// StageEvent implements aml.OutboxStager.
func (r *Repository) StageEvent(ctx context.Context, evt eventbus.DomainEvent) error {
	payload, err := eventbus.Marshal(evt)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("aml_outbox_event").
		Columns("id", "routing_key", "payload", "created_at").
		Values(evt.ID, evt.Type, payload, evt.OccurredAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build stage event: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("aml/postgres: stage event: %w", err)
	}

	return nil
}

// ClaimPending implements eventbus.OutboxStore.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]eventbus.OutboxEvent, error) {
	query, args, err := psql.Select("id", "routing_key", "payload", "created_at").
		From("aml_outbox_event").
		Where(sq.Eq{"dispatched_at": nil}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: build claim pending: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aml/postgres: query claim pending: %w", err)
	}
	defer rows.Close()

	var out []eventbus.OutboxEvent

	for rows.Next() {
		var e eventbus.OutboxEvent
		if err := rows.Scan(&e.ID, &e.RoutingKey, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("aml/postgres: scan outbox row: %w", err)
		}

		out = append(out, e)
	}

	return out, rows.Err()
}

// MarkDispatched implements eventbus.OutboxStore.
func (r *Repository) MarkDispatched(ctx context.Context, id uuid.UUID, dispatchedAt time.Time) error {
	query, args, err := psql.Update("aml_outbox_event").
		Set("dispatched_at", dispatchedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build mark dispatched: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

// MarkFailed implements eventbus.OutboxStore.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Update("aml_outbox_event").
		Set("attempts", sq.Expr("attempts + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("aml/postgres: build mark failed: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

// CaseRepository adapts Repository's case methods to aml.CaseRepository's
// narrower, per-aggregate method names, the way a single pool-backed
// Repository serves several narrow ports.
type CaseRepository struct{ *Repository }

func (r CaseRepository) Create(ctx context.Context, c *aml.Case) error { return r.CreateCase(ctx, c) }
func (r CaseRepository) Update(ctx context.Context, c *aml.Case) error { return r.UpdateCase(ctx, c) }
func (r CaseRepository) FindByID(ctx context.Context, id string) (*aml.Case, error) {
	return r.FindCaseByID(ctx, id)
}

// ReportRepository adapts Repository's report methods to
// aml.ReportRepository.
type ReportRepository struct{ *Repository }

func (r ReportRepository) Create(ctx context.Context, rep *aml.Report) error {
	return r.CreateReport(ctx, rep)
}

func (r ReportRepository) Update(ctx context.Context, rep *aml.Report) error {
	return r.UpdateReport(ctx, rep)
}

func (r ReportRepository) FindByID(ctx context.Context, id string) (*aml.Report, error) {
	return r.FindReportByID(ctx, id)
}

// RiskProfileRepository adapts Repository's risk-profile methods to
// aml.RiskProfileRepository.
type RiskProfileRepository struct{ *Repository }

func (r RiskProfileRepository) Upsert(ctx context.Context, p *aml.CustomerRiskProfile) error {
	return r.UpsertRiskProfile(ctx, p)
}

func (r RiskProfileRepository) FindByCustomerID(ctx context.Context, customerID string) (*aml.CustomerRiskProfile, error) {
	return r.FindRiskProfileByCustomerID(ctx, customerID)
}

// SanctionMatchRepository adapts Repository's sanction-match methods to
// aml.SanctionMatchRepository.
type SanctionMatchRepository struct{ *Repository }

func (r SanctionMatchRepository) Create(ctx context.Context, m *aml.SanctionMatch) error {
	return r.CreateSanctionMatch(ctx, m)
}

func (r SanctionMatchRepository) Update(ctx context.Context, m *aml.SanctionMatch) error {
	return r.UpdateSanctionMatch(ctx, m)
}

func (r SanctionMatchRepository) FindByID(ctx context.Context, id string) (*aml.SanctionMatch, error) {
	return r.FindSanctionMatchByID(ctx, id)
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *Repository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
