// Package mmongo wraps a mongo-driver client, used by the AML case-note
// store and the KYC document scan store.
package mmongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// Connection is a hub for the mongo client, connecting lazily on first
// use.
type Connection struct {
	ConnectionString string
	Database         string
	Client           *mongo.Client
	Connected        bool

	Logger mlog.Logger
}

// Connect opens the mongo client and pings it.
func (c *Connection) Connect(ctx context.Context) error {
	logger := c.logger()
	logger.Info("connecting to mongodb")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.ConnectionString))
	if err != nil {
		return fmt.Errorf("mmongo: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mmongo: ping: %w", err)
	}

	c.Client = client
	c.Connected = true

	logger.Info("connected to mongodb")

	return nil
}

// GetDatabase returns the named database handle, connecting lazily if needed.
func (c *Connection) GetDatabase(ctx context.Context) (*mongo.Database, error) {
	if c.Client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.Client.Database(c.Database), nil
}

func (c *Connection) logger() mlog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return &mlog.NoneLogger{}
}
