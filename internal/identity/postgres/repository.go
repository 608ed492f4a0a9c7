// Package postgres is the pgx/squirrel-backed persistence layer for
// internal/identity's CredentialStore, following
// internal/customer/postgres's conventions.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridianledger/corebank/internal/identity"
	"github.com/meridianledger/corebank/internal/platform/mpostgres"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CredentialRepository is the postgres-backed identity.CredentialStore.
type CredentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository builds a CredentialRepository over a live pgx
// pool.
func NewCredentialRepository(pool *pgxpool.Pool) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

// FindBySubject implements identity.CredentialStore. A missing subject
// returns (nil, nil): AuthService treats an absent credential and a
// password mismatch identically, to avoid user enumeration.
func (r *CredentialRepository) FindBySubject(ctx context.Context, subject string) (*identity.Credential, error) {
	query, args, err := psql.Select("subject", "password_hash", "role").
		From("credential").
		Where(sq.Eq{"subject": subject}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("identity/postgres: build find: %w", err)
	}

	var cred identity.Credential
	var role string

	row := r.db(ctx).QueryRow(ctx, query, args...)
	if err := row.Scan(&cred.Subject, &cred.PasswordHash, &role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("identity/postgres: find: %w", err)
	}

	cred.Role = identity.Role(role)

	return &cred, nil
}

// Create inserts a new credential row; used by onboarding to provision a
// principal's login alongside its role claim.
func (r *CredentialRepository) Create(ctx context.Context, cred *identity.Credential) error {
	query, args, err := psql.Insert("credential").
		Columns("subject", "password_hash", "role").
		Values(cred.Subject, cred.PasswordHash, string(cred.Role)).
		ToSql()
	if err != nil {
		return fmt.Errorf("identity/postgres: build create: %w", err)
	}

	if _, err := r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("identity/postgres: create: %w", err)
	}

	return nil
}

// db resolves the executor for ctx: the transaction it carries, or the
// pool when the call runs standalone.
func (r *CredentialRepository) db(ctx context.Context) mpostgres.DB {
	return mpostgres.Executor(ctx, r.pool)
}
