// Package postgres is the pgx/squirrel-backed persistence layer for
// internal/customer, following internal/transfer/postgres's conventions.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianledger/corebank/internal/customer"
	"github.com/meridianledger/corebank/internal/platform/mpostgres"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository is the postgres-backed customer.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over a live pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new customer row.
func (r *Repository) Create(ctx context.Context, c *customer.Customer) error {
	query, args, err := psql.Insert("customer").
		Columns("id", "full_name", "email", "country_code", "status", "pep", "high_risk_business", "created_at", "version").
		Values(c.ID, c.FullName, c.Email, c.CountryCode, string(c.Status), c.PEP, c.HighRiskBusiness, c.CreatedAt, c.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("customer/postgres: build create: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("customer/postgres: create: %w", err)
	}

	return nil
}

// Update persists c's current state.
func (r *Repository) Update(ctx context.Context, c *customer.Customer) error {
	query, args, err := psql.Update("customer").
		Set("status", string(c.Status)).
		Set("pep", c.PEP).
		Set("high_risk_business", c.HighRiskBusiness).
		Set("version", c.Version).
		Where(sq.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("customer/postgres: build update: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("customer/postgres: update: %w", err)
	}

	return nil
}

// FindByID looks up a customer by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	query, args, err := psql.Select("id", "full_name", "email", "country_code", "status", "pep", "high_risk_business", "created_at", "version").
		From("customer").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("customer/postgres: build find: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		c      customer.Customer
		status string
	)

	if err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.CountryCode, &status, &c.PEP, &c.HighRiskBusiness, &c.CreatedAt, &c.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrCustomerNotFound(id)
		}

		return nil, fmt.Errorf("customer/postgres: scan: %w", err)
	}

	c.Status = customer.Status(status)

	return &c, nil
}

// DocumentRepository is the postgres-backed customer.DocumentRepository.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository builds a DocumentRepository over a live pgx pool.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

func (r *DocumentRepository) Create(ctx context.Context, d *customer.Document) error {
	query, args, err := psql.Insert("customer_document").
		Columns("id", "customer_id", "type", "status", "expires_at", "reject_reason", "uploaded_at", "version").
		Values(d.ID, d.CustomerID, string(d.Type), string(d.Status), d.ExpiresAt, d.RejectReason, d.UploadedAt, d.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("customer/postgres: build create document: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("customer/postgres: create document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) Update(ctx context.Context, d *customer.Document) error {
	query, args, err := psql.Update("customer_document").
		Set("status", string(d.Status)).
		Set("reject_reason", d.RejectReason).
		Set("version", d.Version).
		Where(sq.Eq{"id": d.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("customer/postgres: build update document: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("customer/postgres: update document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*customer.Document, error) {
	query, args, err := psql.Select(documentColumns()...).
		From("customer_document").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("customer/postgres: build find document: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrDocumentNotFound(id)
		}

		return nil, err
	}

	return d, nil
}

func (r *DocumentRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*customer.Document, error) {
	query, args, err := psql.Select(documentColumns()...).
		From("customer_document").
		Where(sq.Eq{"customer_id": customerID}).
		OrderBy("uploaded_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("customer/postgres: build find documents by customer: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customer/postgres: query find documents by customer: %w", err)
	}
	defer rows.Close()

	var out []*customer.Document

	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, d)
	}

	return out, rows.Err()
}

func documentColumns() []string {
	return []string{"id", "customer_id", "type", "status", "expires_at", "reject_reason", "uploaded_at", "version"}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*customer.Document, error) {
	var (
		d        customer.Document
		docType  string
		status   string
	)

	if err := row.Scan(&d.ID, &d.CustomerID, &docType, &status, &d.ExpiresAt, &d.RejectReason, &d.UploadedAt, &d.Version); err != nil {
		return nil, fmt.Errorf("customer/postgres: scan document: %w", err)
	}

	d.Type = customer.DocumentType(docType)
	d.Status = customer.DocumentStatus(status)

	return &d, nil
}

// HistoryRepository is the postgres-backed customer.HistoryRepository,
// writing to the append-only customer_history table.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds a HistoryRepository over a live pgx pool.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Append(ctx context.Context, e *customer.HistoryEntry) error {
	query, args, err := psql.Insert("customer_history").
		Columns("id", "customer_id", "entity", "entity_id", "from_status", "to_status", "recorded_at").
		Values(e.ID, e.CustomerID, e.Entity, e.EntityID, e.FromStatus, e.ToStatus, e.RecordedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("customer/postgres: build append history: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("customer/postgres: append history: %w", err)
	}

	return nil
}

func (r *HistoryRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*customer.HistoryEntry, error) {
	query, args, err := psql.Select("id", "customer_id", "entity", "entity_id", "from_status", "to_status", "recorded_at").
		From("customer_history").
		Where(sq.Eq{"customer_id": customerID}).
		OrderBy("recorded_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("customer/postgres: build find history: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("customer/postgres: query find history: %w", err)
	}
	defer rows.Close()

	var out []*customer.HistoryEntry

	for rows.Next() {
		var e customer.HistoryEntry
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Entity, &e.EntityID, &e.FromStatus, &e.ToStatus, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("customer/postgres: scan history row: %w", err)
		}

		out = append(out, &e)
	}

	return out, rows.Err()
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *Repository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}

func (r *DocumentRepository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}

func (r *HistoryRepository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
