package mpostgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx, so a
// repository method runs the same whether it executes standalone or inside
// a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txContextKey struct{}

// Transactor begins a database transaction and carries it through the
// context, so every repository call made with the context fn receives joins
// the same transaction. This is what keeps a domain write and its staged
// outbox row atomic: both land, or neither does.
type Transactor struct {
	pool *pgxpool.Pool
}

// NewTransactor builds a Transactor over a live pgx pool.
func NewTransactor(pool *pgxpool.Pool) *Transactor {
	return &Transactor{pool: pool}
}

// WithinTx runs fn inside one transaction, committing on nil and rolling
// back on error. A nested call joins the transaction already carried by
// ctx instead of opening a second one.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("mpostgres: begin tx: %w", err)
	}

	if err := fn(context.WithValue(ctx, txContextKey{}, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("mpostgres: commit tx: %w", err)
	}

	return nil
}

// Executor returns the transaction carried by ctx, or fallback when the
// call runs outside any transaction.
func Executor(ctx context.Context, fallback DB) DB {
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}

	return fallback
}
