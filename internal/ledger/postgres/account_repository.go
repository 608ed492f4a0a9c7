// Package postgres is the pgx/squirrel-backed ledger.Repository
// implementation over a single flat account table.
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

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/platform/mpostgres"
)

// Repository is the postgres-backed ledger.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a Repository over a live pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Create inserts a new account row.
func (r *Repository) Create(ctx context.Context, account *ledger.Account) error {
	query, args, err := psql.Insert("account").
		Columns("id", "account_number", "customer_id", "currency", "type", "status",
			"balance", "version", "created_at", "updated_at").
		Values(account.ID, account.AccountNumber, account.CustomerID, account.Currency,
			string(account.Type), string(account.Status), account.Balance.Value,
			account.Version, account.CreatedAt, account.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("ledger/postgres: build create: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return mapPgError(err, "Account")
	}

	return nil
}

// FindByAccountNumber looks up an account by its natural key.
func (r *Repository) FindByAccountNumber(ctx context.Context, accountNumber string) (*ledger.Account, error) {
	return r.findWhere(ctx, sq.Eq{"account_number": accountNumber})
}

// FindByID looks up an account by its surrogate key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	return r.findWhere(ctx, sq.Eq{"id": id})
}

func (r *Repository) findWhere(ctx context.Context, pred sq.Eq) (*ledger.Account, error) {
	query, args, err := psql.Select("id", "account_number", "customer_id", "currency", "type",
		"status", "balance", "version", "created_at", "updated_at").
		From("account").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: build find: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		account     ledger.Account
		accType     string
		status      string
		balanceVal  decimal.Decimal
	)

	if err := row.Scan(&account.ID, &account.AccountNumber, &account.CustomerID, &account.Currency,
		&accType, &status, &balanceVal, &account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound(fmt.Sprintf("%v", pred))
		}

		return nil, fmt.Errorf("ledger/postgres: scan account: %w", err)
	}

	account.Type = ledger.AccountType(accType)
	account.Status = ledger.Status(status)
	account.Balance = money.FromDecimal(account.Currency, balanceVal)

	return &account, nil
}

// UpdateWithVersion performs the optimistic-concurrency CAS update.
func (r *Repository) UpdateWithVersion(ctx context.Context, account *ledger.Account, expectedVersion int64) (int64, error) {
	query, args, err := psql.Update("account").
		Set("status", string(account.Status)).
		Set("balance", account.Balance.Value).
		Set("version", account.Version).
		Set("updated_at", account.UpdatedAt).
		Where(sq.Eq{"account_number": account.AccountNumber, "version": expectedVersion}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ledger/postgres: build update: %w", err)
	}

	tag, err := r.db(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, mapPgError(err, "Account")
	}

	return tag.RowsAffected(), nil
}

// FindPosting looks up a posting by its idempotency key.
func (r *Repository) FindPosting(ctx context.Context, accountID uuid.UUID, direction ledger.Direction, referenceID string) (*ledger.PostingLine, error) {
	query, args, err := psql.Select("id", "account_id", "direction", "amount", "reference_id",
		"description", "balance_after", "posted_at", "currency").
		From("posting_line").
		Where(sq.Eq{"account_id": accountID, "direction": string(direction), "reference_id": referenceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: build find posting: %w", err)
	}

	row := r.db(ctx).QueryRow(ctx, query, args...)

	var (
		posting       ledger.PostingLine
		direct        string
		amountVal     decimal.Decimal
		balanceVal    decimal.Decimal
		currency      string
	)

	if err := row.Scan(&posting.ID, &posting.AccountID, &direct, &amountVal, &posting.ReferenceID,
		&posting.Description, &balanceVal, &posting.PostedAt, &currency); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("ledger/postgres: scan posting: %w", err)
	}

	posting.Direction = ledger.Direction(direct)
	posting.Amount = money.FromDecimal(currency, amountVal)
	posting.BalanceAfter = money.FromDecimal(currency, balanceVal)

	return &posting, nil
}

// InsertPosting appends a new posting line.
func (r *Repository) InsertPosting(ctx context.Context, posting *ledger.PostingLine) error {
	query, args, err := psql.Insert("posting_line").
		Columns("id", "account_id", "direction", "amount", "currency", "reference_id",
			"description", "balance_after", "posted_at").
		Values(posting.ID, posting.AccountID, string(posting.Direction), posting.Amount.Value,
			posting.Amount.Currency, posting.ReferenceID, posting.Description,
			posting.BalanceAfter.Value, posting.PostedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("ledger/postgres: build insert posting: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return mapPgError(err, "PostingLine")
	}

	return nil
}

// History returns posting lines for accountID within [from, to).
func (r *Repository) History(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]ledger.PostingLine, error) {
	query, args, err := psql.Select("id", "account_id", "direction", "amount", "currency",
		"reference_id", "description", "balance_after", "posted_at").
		From("posting_line").
		Where(sq.And{
			sq.Eq{"account_id": accountID},
			sq.GtOrEq{"posted_at": from},
			sq.Lt{"posted_at": to},
		}).
		OrderBy("posted_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: build history: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: query history: %w", err)
	}
	defer rows.Close()

	var lines []ledger.PostingLine

	for rows.Next() {
		var (
			line       ledger.PostingLine
			direct     string
			currency   string
			amountVal  decimal.Decimal
			balanceVal decimal.Decimal
		)

		if err := rows.Scan(&line.ID, &line.AccountID, &direct, &amountVal, &currency,
			&line.ReferenceID, &line.Description, &balanceVal, &line.PostedAt); err != nil {
			return nil, fmt.Errorf("ledger/postgres: scan history row: %w", err)
		}

		line.Direction = ledger.Direction(direct)
		line.Amount = money.FromDecimal(currency, amountVal)
		line.BalanceAfter = money.FromDecimal(currency, balanceVal)

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger/postgres: iterate history: %w", err)
	}

	return lines, nil
}

func mapPgError(err error, entityType string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ledger.ErrDuplicateAccount(entityType)
	}

	return fmt.Errorf("ledger/postgres: %w", err)
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *Repository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
