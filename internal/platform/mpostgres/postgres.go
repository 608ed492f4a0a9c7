// Package mpostgres wraps a pgx connection pool and golang-migrate schema
// migrations. A single primary pool serves reads and writes; there is no
// replica split.
package mpostgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// Connection is a hub for the postgres connection pool plus migration
// bookkeeping.
type Connection struct {
	ConnectionString string
	DBName            string
	MigrationsPath    string
	Pool              *pgxpool.Pool
	Connected         bool

	Logger mlog.Logger
}

// Connect opens the pgx pool and applies pending migrations. Safe to call
// once at process startup; callers should treat a non-nil error as fatal.
func (c *Connection) Connect(ctx context.Context) error {
	logger := c.logger()
	logger.Info("connecting to postgres")

	pool, err := pgxpool.New(ctx, c.ConnectionString)
	if err != nil {
		return fmt.Errorf("mpostgres: open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("mpostgres: ping: %w", err)
	}

	if c.MigrationsPath != "" {
		if err := c.migrate(); err != nil {
			return fmt.Errorf("mpostgres: migrate: %w", err)
		}
	}

	c.Pool = pool
	c.Connected = true

	logger.Info("connected to postgres")

	return nil
}

func (c *Connection) migrate() error {
	sqlDB, err := sql.Open("pgx", c.ConnectionString)
	if err != nil {
		return fmt.Errorf("open stdlib handle for migrations: %w", err)
	}
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MultiStatementEnabled: true,
		DatabaseName:          c.DBName,
		SchemaName:            "public",
	})
	if err != nil {
		return fmt.Errorf("postgres migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+c.MigrationsPath, c.DBName, driver)
	if err != nil {
		return fmt.Errorf("new migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// GetPool returns the live pool, connecting lazily if needed.
func (c *Connection) GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	if c.Pool == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.Pool, nil
}

func (c *Connection) logger() mlog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return &mlog.NoneLogger{}
}
