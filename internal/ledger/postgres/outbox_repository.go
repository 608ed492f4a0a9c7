package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/mpostgres"
)

// OutboxRepository implements both ledger.OutboxStager (stage a row inside
// the posting transaction) and eventbus.OutboxStore (the pump's polling
// contract).
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository builds an OutboxRepository over a live pgx pool.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// StageEvent writes evt as an undispatched outbox_event row, keyed by
// event type as its topic-exchange routing key.
func (r *OutboxRepository) StageEvent(ctx context.Context, evt eventbus.DomainEvent) error {
	payload, err := eventbus.Marshal(evt)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert("outbox_event").
		Columns("id", "routing_key", "payload", "created_at").
		Values(evt.ID, evt.Type, payload, evt.OccurredAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("ledger/postgres: build stage event: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ledger/postgres: stage event: %w", err)
	}

	return nil
}

// ClaimPending returns up to limit undispatched rows, oldest first.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]eventbus.OutboxEvent, error) {
	query, args, err := psql.Select("id", "routing_key", "payload", "created_at", "attempts").
		From("outbox_event").
		Where(sq.Eq{"dispatched_at": nil}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: build claim pending: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: query pending: %w", err)
	}
	defer rows.Close()

	var events []eventbus.OutboxEvent

	for rows.Next() {
		var evt eventbus.OutboxEvent
		if err := rows.Scan(&evt.ID, &evt.RoutingKey, &evt.Payload, &evt.CreatedAt, &evt.Attempts); err != nil {
			return nil, fmt.Errorf("ledger/postgres: scan pending row: %w", err)
		}

		events = append(events, evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger/postgres: iterate pending: %w", err)
	}

	return events, nil
}

// MarkDispatched records a row as published.
func (r *OutboxRepository) MarkDispatched(ctx context.Context, id uuid.UUID, dispatchedAt time.Time) error {
	query, args, err := psql.Update("outbox_event").
		Set("dispatched_at", dispatchedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ledger/postgres: build mark dispatched: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ledger/postgres: mark dispatched: %w", err)
	}

	return nil
}

// MarkFailed increments the attempt counter after a publish error.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Update("outbox_event").
		Set("attempts", sq.Expr("attempts + 1")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ledger/postgres: build mark failed: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ledger/postgres: mark failed: %w", err)
	}

	return nil
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *OutboxRepository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
