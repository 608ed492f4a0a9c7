// Package postgres is the pgx/squirrel-backed swift.Repository, following
// internal/transfer/postgres and internal/sepa/postgres's conventions.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/platform/mpostgres"
	"github.com/meridianledger/corebank/internal/swift"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository is the postgres-backed swift.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over a live pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, t *swift.Transfer) error {
	query, args, err := psql.Insert("swift_transfer").
		Columns("id", "transfer_reference", "from_account", "sender_bic", "receiver_bic",
			"beneficiary_account", "beneficiary_name", "ordering_customer", "remittance_info",
			"charge_type", "amount", "fee", "currency", "status", "saga_id", "initiated_at", "version").
		Values(t.ID, t.TransferReference, t.FromAccount, string(t.SenderBIC), string(t.ReceiverBIC),
			t.BeneficiaryAccount, t.BeneficiaryName, t.OrderingCustomer, t.RemittanceInfo,
			string(t.ChargeType), t.Amount.Value, t.Fee.Value, t.Amount.Currency, string(t.Status),
			t.SagaID, t.InitiatedAt, t.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("swift/postgres: build create: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *Repository) Update(ctx context.Context, t *swift.Transfer) error {
	query, args, err := psql.Update("swift_transfer").
		Set("status", string(t.Status)).
		Set("fee", t.Fee.Value).
		Set("debit_posting_id", t.DebitPostingID).
		Set("compliance_cleared", t.ComplianceCleared).
		Set("mt103", t.MT103).
		Set("completed_at", t.CompletedAt).
		Set("failure_reason", t.FailureReason).
		Set("version", t.Version).
		Where(sq.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("swift/postgres: build update: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *Repository) FindByReference(ctx context.Context, ref string) (*swift.Transfer, error) {
	query, args, err := psql.Select(transferColumns()...).
		From("swift_transfer").
		Where(sq.Eq{"transfer_reference": ref}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("swift/postgres: build find: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	return scanTransfer(row)
}

func (r *Repository) FindStuck(ctx context.Context, olderThan time.Time, limit int) ([]*swift.Transfer, error) {
	query, args, err := psql.Select(transferColumns()...).
		From("swift_transfer").
		Where(sq.And{
			sq.Lt{"initiated_at": olderThan},
			sq.Eq{"status": []string{"VALIDATING", "COMPLIANCE_CHECK", "PROCESSING", "SUBMITTED"}},
		}).
		OrderBy("initiated_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("swift/postgres: build find stuck: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("swift/postgres: query find stuck: %w", err)
	}
	defer rows.Close()

	var out []*swift.Transfer

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
	return []string{"id", "transfer_reference", "from_account", "sender_bic", "receiver_bic",
		"beneficiary_account", "beneficiary_name", "ordering_customer", "remittance_info",
		"charge_type", "amount", "fee", "currency", "status", "saga_id", "debit_posting_id",
		"compliance_cleared", "mt103", "initiated_at", "completed_at", "failure_reason", "version"}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*swift.Transfer, error) {
	var (
		t                                                   swift.Transfer
		senderBIC, receiverBIC, chargeType, status          string
		amountVal, feeVal                                   decimal.Decimal
		currency                                            string
	)

	if err := row.Scan(&t.ID, &t.TransferReference, &t.FromAccount, &senderBIC, &receiverBIC,
		&t.BeneficiaryAccount, &t.BeneficiaryName, &t.OrderingCustomer, &t.RemittanceInfo,
		&chargeType, &amountVal, &feeVal, &currency, &status, &t.SagaID, &t.DebitPostingID,
		&t.ComplianceCleared, &t.MT103, &t.InitiatedAt, &t.CompletedAt, &t.FailureReason, &t.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, swift.ErrTransferNotFound("")
		}

		return nil, fmt.Errorf("swift/postgres: scan: %w", err)
	}

	t.SenderBIC = swift.BIC(senderBIC)
	t.ReceiverBIC = swift.BIC(receiverBIC)
	t.ChargeType = swift.ChargeType(chargeType)
	t.Status = swift.Status(status)
	t.Amount = money.FromDecimal(currency, amountVal)
	t.Fee = money.FromDecimal(currency, feeVal)

	return &t, nil
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *Repository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
