package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/platform/mpostgres"
	"github.com/meridianledger/corebank/internal/sepa"
)

// BatchRepository is the postgres-backed sepa.BatchRepository.
type BatchRepository struct {
	pool *pgxpool.Pool
}

// NewBatchRepository builds a BatchRepository over a live pgx pool.
func NewBatchRepository(pool *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{pool: pool}
}

func (r *BatchRepository) Create(ctx context.Context, b *sepa.Batch) error {
	query, args, err := psql.Insert("sepa_batch").
		Columns("message_id", "type", "status", "transfer_references", "number_of_transactions",
			"total_amount", "currency", "successful_count", "failed_count", "document",
			"created_at", "submitted_at", "version").
		Values(b.MessageID, string(b.Type), string(b.Status), b.TransactionReferences, b.NumberOfTransactions,
			b.TotalAmount.Value, b.TotalAmount.Currency, b.SuccessfulCount, b.FailedCount, string(b.Document),
			b.CreatedAt, b.SubmittedAt, b.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("sepa/postgres: build batch create: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *BatchRepository) Update(ctx context.Context, b *sepa.Batch) error {
	query, args, err := psql.Update("sepa_batch").
		Set("status", string(b.Status)).
		Set("successful_count", b.SuccessfulCount).
		Set("failed_count", b.FailedCount).
		Set("document", string(b.Document)).
		Set("submitted_at", b.SubmittedAt).
		Set("version", b.Version).
		Where(sq.Eq{"message_id": b.MessageID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sepa/postgres: build batch update: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *BatchRepository) FindByMessageID(ctx context.Context, messageID string) (*sepa.Batch, error) {
	query, args, err := psql.Select("message_id", "type", "status", "transfer_references",
		"number_of_transactions", "total_amount", "currency", "successful_count", "failed_count",
		"document", "created_at", "submitted_at", "version").
		From("sepa_batch").
		Where(sq.Eq{"message_id": messageID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sepa/postgres: build batch find: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		b            sepa.Batch
		btype        string
		status       string
		totalVal     decimal.Decimal
		currency     string
		document     string
	)

	if err := row.Scan(&b.MessageID, &btype, &status, &b.TransactionReferences, &b.NumberOfTransactions,
		&totalVal, &currency, &b.SuccessfulCount, &b.FailedCount, &document,
		&b.CreatedAt, &b.SubmittedAt, &b.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sepa.ErrBatchNotFound(messageID)
		}

		return nil, fmt.Errorf("sepa/postgres: batch scan: %w", err)
	}

	b.Type = sepa.BatchType(btype)
	b.Status = sepa.BatchStatus(status)
	b.TotalAmount = money.FromDecimal(currency, totalVal)
	b.Document = []byte(document)

	return &b, nil
}

// ReturnRepository is the postgres-backed sepa.ReturnRepository.
type ReturnRepository struct {
	pool *pgxpool.Pool
}

// NewReturnRepository builds a ReturnRepository over a live pgx pool.
func NewReturnRepository(pool *pgxpool.Pool) *ReturnRepository {
	return &ReturnRepository{pool: pool}
}

func (r *ReturnRepository) Create(ctx context.Context, ret *sepa.Return) error {
	query, args, err := psql.Insert("sepa_return").
		Columns("id", "original_ref", "reason_code", "status", "amount", "currency",
			"initiated_at", "refunded_at", "version").
		Values(ret.ID, ret.OriginalReference, string(ret.ReasonCode), string(ret.Status),
			ret.Amount.Value, ret.Amount.Currency, ret.InitiatedAt, ret.RefundedAt, ret.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("sepa/postgres: build return create: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *ReturnRepository) Update(ctx context.Context, ret *sepa.Return) error {
	query, args, err := psql.Update("sepa_return").
		Set("status", string(ret.Status)).
		Set("refunded_at", ret.RefundedAt).
		Set("version", ret.Version).
		Where(sq.Eq{"id": ret.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sepa/postgres: build return update: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *ReturnRepository) FindByID(ctx context.Context, id string) (*sepa.Return, error) {
	query, args, err := psql.Select("id", "original_ref", "reason_code", "status", "amount", "currency",
		"initiated_at", "refunded_at", "version").
		From("sepa_return").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sepa/postgres: build return find: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		ret       sepa.Return
		reason    string
		status    string
		amountVal decimal.Decimal
		currency  string
	)

	if err := row.Scan(&ret.ID, &ret.OriginalReference, &reason, &status, &amountVal, &currency,
		&ret.InitiatedAt, &ret.RefundedAt, &ret.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sepa.ErrReturnNotFound(id)
		}

		return nil, fmt.Errorf("sepa/postgres: return scan: %w", err)
	}

	ret.ReasonCode = sepa.ReasonCode(reason)
	ret.Status = sepa.ReturnStatus(status)
	ret.Amount = money.FromDecimal(currency, amountVal)

	return &ret, nil
}

// SumAmountByReasonCode totals stored return amounts carrying code,
// returning "0.00" when none exist.
func (r *ReturnRepository) SumAmountByReasonCode(ctx context.Context, code sepa.ReasonCode) (string, error) {
	query, args, err := psql.Select("COALESCE(SUM(amount), 0)").
		From("sepa_return").
		Where(sq.Eq{"reason_code": string(code)}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("sepa/postgres: build return sum: %w", err)
	}

	var total decimal.Decimal
	if err := r.db(ctx).QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return "", fmt.Errorf("sepa/postgres: return sum scan: %w", err)
	}

	return total.StringFixed(money.Scale), nil
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *BatchRepository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}

func (r *ReturnRepository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
