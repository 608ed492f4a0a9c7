// Package postgres is the pgx/squirrel-backed saga.Repository, following
// internal/ledger/postgres's mapping conventions and storing
// ExecutedStepIDs as a text[] column.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianledger/corebank/internal/platform/mpostgres"
	"github.com/meridianledger/corebank/internal/saga"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository is the postgres-backed saga.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over a live pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new saga_record row.
func (r *Repository) Create(ctx context.Context, record *saga.Record) error {
	query, args, err := psql.Insert("saga_record").
		Columns("saga_id", "saga_type", "aggregate_ref", "executed_step_ids", "state",
			"last_error", "created_at", "updated_at", "version").
		Values(record.SagaID, record.SagaType, record.AggregateRef, record.ExecutedStepIDs,
			string(record.State), record.LastError, record.CreatedAt, record.UpdatedAt, record.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("saga/postgres: build create: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("saga/postgres: create: %w", err)
	}

	return nil
}

// Update persists record's current progress, bumping Version.
func (r *Repository) Update(ctx context.Context, record *saga.Record) error {
	record.Version++

	query, args, err := psql.Update("saga_record").
		Set("executed_step_ids", record.ExecutedStepIDs).
		Set("state", string(record.State)).
		Set("last_error", record.LastError).
		Set("updated_at", record.UpdatedAt).
		Set("version", record.Version).
		Where(sq.Eq{"saga_id": record.SagaID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("saga/postgres: build update: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("saga/postgres: update: %w", err)
	}

	return nil
}

// FindByID looks up a saga record by id.
func (r *Repository) FindByID(ctx context.Context, sagaID uuid.UUID) (*saga.Record, error) {
	query, args, err := psql.Select("saga_id", "saga_type", "aggregate_ref", "executed_step_ids",
		"state", "last_error", "created_at", "updated_at", "version").
		From("saga_record").
		Where(sq.Eq{"saga_id": sagaID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("saga/postgres: build find: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	return scanRecord(row)
}

// FindStuck returns non-terminal records last updated before olderThan.
func (r *Repository) FindStuck(ctx context.Context, olderThan time.Time, limit int) ([]*saga.Record, error) {
	query, args, err := psql.Select("saga_id", "saga_type", "aggregate_ref", "executed_step_ids",
		"state", "last_error", "created_at", "updated_at", "version").
		From("saga_record").
		Where(sq.And{
			sq.Lt{"updated_at": olderThan},
			sq.NotEq{"state": []string{"COMPLETED", "COMPENSATED", "FAILED"}},
		}).
		OrderBy("updated_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("saga/postgres: build find stuck: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("saga/postgres: query find stuck: %w", err)
	}
	defer rows.Close()

	var out []*saga.Record

	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, record)
	}

	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*saga.Record, error) {
	var (
		record saga.Record
		state  string
	)

	if err := row.Scan(&record.SagaID, &record.SagaType, &record.AggregateRef, &record.ExecutedStepIDs,
		&state, &record.LastError, &record.CreatedAt, &record.UpdatedAt, &record.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("saga/postgres: %w", err)
		}

		return nil, fmt.Errorf("saga/postgres: scan: %w", err)
	}

	record.State = saga.State(state)

	return &record, nil
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *Repository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
