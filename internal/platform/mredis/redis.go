// Package mredis wraps a go-redis client plus the redsync distributed lock
// and a token-bucket rate limiter built on top of it.
package mredis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// Connection is a hub for the redis client.
type Connection struct {
	ConnectionString string
	Client           *redis.Client
	Connected        bool

	Logger mlog.Logger
}

// Connect opens the redis client and pings it.
func (c *Connection) Connect(ctx context.Context) error {
	logger := c.logger()
	logger.Info("connecting to redis")

	opts, err := redis.ParseURL(c.ConnectionString)
	if err != nil {
		return fmt.Errorf("mredis: parse url: %w", err)
	}

	client := redis.NewClient(opts)

	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("mredis: ping: %w", err)
	}

	c.Client = client
	c.Connected = true

	logger.Info("connected to redis")

	return nil
}

// GetClient returns the live client, connecting lazily if needed.
func (c *Connection) GetClient(ctx context.Context) (*redis.Client, error) {
	if c.Client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.Client, nil
}

func (c *Connection) logger() mlog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return &mlog.NoneLogger{}
}
