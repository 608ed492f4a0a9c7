// Package postgres is the pgx/squirrel-backed transfer.Repository,
// following internal/ledger/postgres's conventions, plus an outbox table
// in the same shape as internal/ledger/postgres/outbox_repository.go.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/platform/mpostgres"
	"github.com/meridianledger/corebank/internal/transfer"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository is the postgres-backed transfer.Repository and
// transfer.OutboxStager.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over a live pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new transfer row.
func (r *Repository) Create(ctx context.Context, t *transfer.Transfer) error {
	query, args, err := psql.Insert("transfer").
		Columns("id", "transfer_reference", "from_account", "to_account", "amount", "currency",
			"status", "idempotency_key", "saga_id", "initiated_at", "version").
		Values(t.ID, t.TransferReference, t.FromAccount, t.ToAccount, t.Amount.Value, t.Amount.Currency,
			string(t.Status), nullableKey(t.IdempotencyKey), t.SagaID, t.InitiatedAt, t.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("transfer/postgres: build create: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return mapPgError(err)
	}

	return nil
}

// Update persists t's current state, bumping Version.
func (r *Repository) Update(ctx context.Context, t *transfer.Transfer) error {
	query, args, err := psql.Update("transfer").
		Set("status", string(t.Status)).
		Set("debit_posting_id", t.DebitPostingID).
		Set("credit_posting_id", t.CreditPostingID).
		Set("completed_at", t.CompletedAt).
		Set("failure_reason", t.FailureReason).
		Set("version", t.Version).
		Where(sq.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("transfer/postgres: build update: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return mapPgError(err)
	}

	return nil
}

// FindByReference looks up a transfer by its natural key.
func (r *Repository) FindByReference(ctx context.Context, ref string) (*transfer.Transfer, error) {
	return r.findWhere(ctx, sq.Eq{"transfer_reference": ref})
}

// FindByIdempotencyKey returns (nil, nil) if no transfer used key.
func (r *Repository) FindByIdempotencyKey(ctx context.Context, key string) (*transfer.Transfer, error) {
	t, err := r.findWhere(ctx, sq.Eq{"idempotency_key": key})
	if err != nil {
		if kind, ok := apperr.KindOf(err); ok && kind == apperr.KindNotFound {
			return nil, nil
		}

		return nil, err
	}

	return t, nil
}

// FindStuck returns transfers in a *_PENDING status older than olderThan.
func (r *Repository) FindStuck(ctx context.Context, olderThan time.Time, limit int) ([]*transfer.Transfer, error) {
	query, args, err := psql.Select(transferColumns()...).
		From("transfer").
		Where(sq.And{
			sq.Lt{"initiated_at": olderThan},
			sq.Eq{"status": []string{"VALIDATING", "DEBIT_PENDING", "DEBIT_COMPLETED", "CREDIT_PENDING"}},
		}).
		OrderBy("initiated_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("transfer/postgres: build find stuck: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transfer/postgres: query find stuck: %w", err)
	}
	defer rows.Close()

	var out []*transfer.Transfer

	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, t)
	}

	return out, rows.Err()
}

func transferColumns() []string {
	return []string{"id", "transfer_reference", "from_account", "to_account", "amount", "currency",
		"status", "idempotency_key", "saga_id", "debit_posting_id", "credit_posting_id",
		"initiated_at", "completed_at", "failure_reason", "version"}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*transfer.Transfer, error) {
	var (
		t             transfer.Transfer
		status        string
		amountVal     decimal.Decimal
		currency      string
		idempotencyKey *string
	)

	if err := row.Scan(&t.ID, &t.TransferReference, &t.FromAccount, &t.ToAccount, &amountVal, &currency,
		&status, &idempotencyKey, &t.SagaID, &t.DebitPostingID, &t.CreditPostingID,
		&t.InitiatedAt, &t.CompletedAt, &t.FailureReason, &t.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrTransferNotFound("")
		}

		return nil, fmt.Errorf("transfer/postgres: scan: %w", err)
	}

	t.Status = transfer.Status(status)
	t.Amount = money.FromDecimal(currency, amountVal)

	if idempotencyKey != nil {
		t.IdempotencyKey = *idempotencyKey
	}

	return &t, nil
}

func (r *Repository) findWhere(ctx context.Context, pred sq.Eq) (*transfer.Transfer, error) {
	query, args, err := psql.Select(transferColumns()...).
		From("transfer").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("transfer/postgres: build find: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	return scanTransfer(row)
}

func nullableKey(key string) any {
	if key == "" {
		return nil
	}

	return key
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return transfer.ErrDuplicateTransferReference("")
	}

	return fmt.Errorf("transfer/postgres: %w", err)
}

// StageEvent implements transfer.OutboxStager by writing an outbox_event
// row in the same table family as internal/ledger/postgres's outbox.
func (r *Repository) StageEvent(ctx context.Context, evt eventbus.DomainEvent) error {
	payload, err := eventbus.Marshal(evt)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("transfer_outbox_event").
		Columns("id", "routing_key", "payload", "created_at").
		Values(evt.ID, evt.Type, payload, evt.OccurredAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("transfer/postgres: build stage event: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("transfer/postgres: stage event: %w", err)
	}

	return nil
}

// ClaimPending implements eventbus.OutboxStore.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]eventbus.OutboxEvent, error) {
	query, args, err := psql.Select("id", "routing_key", "payload", "created_at").
		From("transfer_outbox_event").
		Where(sq.Eq{"dispatched_at": nil}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("transfer/postgres: build claim pending: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("transfer/postgres: query claim pending: %w", err)
	}
	defer rows.Close()

	var out []eventbus.OutboxEvent

	for rows.Next() {
		var e eventbus.OutboxEvent
		if err := rows.Scan(&e.ID, &e.RoutingKey, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("transfer/postgres: scan outbox row: %w", err)
		}

		out = append(out, e)
	}

	return out, rows.Err()
}

// MarkDispatched implements eventbus.OutboxStore.
func (r *Repository) MarkDispatched(ctx context.Context, id uuid.UUID, dispatchedAt time.Time) error {
	query, args, err := psql.Update("transfer_outbox_event").
		Set("dispatched_at", dispatchedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("transfer/postgres: build mark dispatched: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

// MarkFailed implements eventbus.OutboxStore.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Update("transfer_outbox_event").
		Set("attempts", sq.Expr("attempts + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("transfer/postgres: build mark failed: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *Repository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
