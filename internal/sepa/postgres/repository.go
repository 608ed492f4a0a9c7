// Package postgres is the pgx/squirrel-backed SEPA persistence, following
// internal/transfer/postgres's conventions.
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
	"github.com/meridianledger/corebank/internal/sepa"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// TransferRepository is the postgres-backed sepa.Repository.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository builds a TransferRepository over a live pgx pool.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

func (r *TransferRepository) Create(ctx context.Context, t *sepa.Transfer) error {
	query, args, err := psql.Insert("sepa_transfer").
		Columns("id", "transfer_reference", "scheme", "from_account", "creditor_iban", "creditor_name",
			"amount", "currency", "remittance_info", "status", "saga_id", "initiated_at", "version").
		Values(t.ID, t.TransferReference, string(t.Scheme), t.FromAccount, t.CreditorIBAN, t.CreditorName,
			t.Amount.Value, t.Amount.Currency, t.RemittanceInfo, string(t.Status), t.SagaID, t.InitiatedAt, t.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("sepa/postgres: build create: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *TransferRepository) Update(ctx context.Context, t *sepa.Transfer) error {
	query, args, err := psql.Update("sepa_transfer").
		Set("status", string(t.Status)).
		Set("debit_posting_id", t.DebitPostingID).
		Set("network_ack_id", t.NetworkAckID).
		Set("completed_at", t.CompletedAt).
		Set("failure_reason", t.FailureReason).
		Set("version", t.Version).
		Where(sq.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sepa/postgres: build update: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *TransferRepository) FindByReference(ctx context.Context, ref string) (*sepa.Transfer, error) {
	query, args, err := psql.Select(transferColumns()...).
		From("sepa_transfer").
		Where(sq.Eq{"transfer_reference": ref}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sepa/postgres: build find: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	return scanTransfer(row)
}

func (r *TransferRepository) FindStuck(ctx context.Context, olderThan time.Time, limit int) ([]*sepa.Transfer, error) {
	query, args, err := psql.Select(transferColumns()...).
		From("sepa_transfer").
		Where(sq.And{
			sq.Lt{"initiated_at": olderThan},
			sq.Eq{"status": []string{"VALIDATING", "DEBIT_COMPLETED", "SUBMITTED", "AWAITING_ACK"}},
		}).
		OrderBy("initiated_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sepa/postgres: build find stuck: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sepa/postgres: query find stuck: %w", err)
	}
	defer rows.Close()

	var out []*sepa.Transfer

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
	return []string{"id", "transfer_reference", "scheme", "from_account", "creditor_iban", "creditor_name",
		"amount", "currency", "remittance_info", "status", "saga_id", "debit_posting_id", "network_ack_id",
		"initiated_at", "completed_at", "failure_reason", "version"}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row rowScanner) (*sepa.Transfer, error) {
	var (
		t         sepa.Transfer
		scheme    string
		status    string
		amountVal decimal.Decimal
		currency  string
	)

	if err := row.Scan(&t.ID, &t.TransferReference, &scheme, &t.FromAccount, &t.CreditorIBAN, &t.CreditorName,
		&amountVal, &currency, &t.RemittanceInfo, &status, &t.SagaID, &t.DebitPostingID, &t.NetworkAckID,
		&t.InitiatedAt, &t.CompletedAt, &t.FailureReason, &t.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sepa.ErrSCTTransferNotFound("")
		}

		return nil, fmt.Errorf("sepa/postgres: scan: %w", err)
	}

	t.Scheme = sepa.Scheme(scheme)
	t.Status = sepa.TransferStatus(status)
	t.Amount = money.FromDecimal(currency, amountVal)

	return &t, nil
}

// MandateRepository is the postgres-backed sepa.MandateRepository.
type MandateRepository struct {
	pool *pgxpool.Pool
}

// NewMandateRepository builds a MandateRepository over a live pgx pool.
func NewMandateRepository(pool *pgxpool.Pool) *MandateRepository {
	return &MandateRepository{pool: pool}
}

func (r *MandateRepository) Create(ctx context.Context, m *sepa.Mandate) error {
	query, args, err := psql.Insert("sepa_mandate").
		Columns("umr", "debtor_iban", "creditor_iban", "creditor_id", "type", "sequence", "status",
			"signature_date", "max_amount_value", "max_amount_currency", "total_amount_collected",
			"collection_count", "version").
		Values(m.UMR, m.DebtorIBAN, m.CreditorIBAN, m.CreditorID, string(m.Type), string(m.Sequence), string(m.Status),
			m.SignatureDate, maxAmountValue(m), maxAmountCurrency(m), m.TotalAmountCollected.Value,
			m.CollectionCount, m.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("sepa/postgres: build mandate create: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *MandateRepository) Update(ctx context.Context, m *sepa.Mandate) error {
	query, args, err := psql.Update("sepa_mandate").
		Set("status", string(m.Status)).
		Set("sequence", string(m.Sequence)).
		Set("activation_date", m.ActivationDate).
		Set("last_collection_date", m.LastCollectionDate).
		Set("total_amount_collected", m.TotalAmountCollected.Value).
		Set("collection_count", m.CollectionCount).
		Set("version", m.Version).
		Where(sq.Eq{"umr": m.UMR}).
		ToSql()
	if err != nil {
		return fmt.Errorf("sepa/postgres: build mandate update: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx, query, args...)

	return err
}

func (r *MandateRepository) FindByUMR(ctx context.Context, umr string) (*sepa.Mandate, error) {
	query, args, err := psql.Select("umr", "debtor_iban", "creditor_iban", "creditor_id", "type", "sequence",
		"status", "signature_date", "activation_date", "max_amount_value", "max_amount_currency",
		"last_collection_date", "total_amount_collected", "collection_count", "version").
		From("sepa_mandate").
		Where(sq.Eq{"umr": umr}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sepa/postgres: build mandate find: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		m                                            sepa.Mandate
		mtype, sequence, status                      string
		currency                                     string
		maxVal                                       *decimal.Decimal
		maxCcy                                       *string
		totalCollected                               decimal.Decimal
	)

	if err := row.Scan(&m.UMR, &m.DebtorIBAN, &m.CreditorIBAN, &m.CreditorID, &mtype, &sequence, &status,
		&m.SignatureDate, &m.ActivationDate, &maxVal, &maxCcy, &m.LastCollectionDate, &totalCollected,
		&m.CollectionCount, &m.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sepa.ErrMandateNotFound(umr)
		}

		return nil, fmt.Errorf("sepa/postgres: mandate scan: %w", err)
	}

	m.Type = sepa.MandateType(mtype)
	m.Sequence = sepa.Sequence(sequence)
	m.Status = sepa.MandateStatus(status)

	if maxVal != nil && maxCcy != nil {
		amt := money.FromDecimal(*maxCcy, *maxVal)
		m.MaxAmount = &amt
		currency = *maxCcy
	} else if maxCcy != nil {
		currency = *maxCcy
	}

	if currency == "" {
		currency = "EUR"
	}

	m.TotalAmountCollected = money.FromDecimal(currency, totalCollected)

	return &m, nil
}

func maxAmountValue(m *sepa.Mandate) any {
	if m.MaxAmount == nil {
		return nil
	}

	return m.MaxAmount.Value
}

func maxAmountCurrency(m *sepa.Mandate) any {
	if m.MaxAmount == nil {
		return m.TotalAmountCollected.Currency
	}

	return m.MaxAmount.Currency
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *TransferRepository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}

func (r *MandateRepository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
