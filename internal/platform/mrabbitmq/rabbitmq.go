// Package mrabbitmq wraps an AMQP 0.9.1 connection over
// rabbitmq/amqp091-go.
package mrabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// Connection is a hub for the rabbitmq connection and channel.
type Connection struct {
	ConnectionString string
	Exchange         string
	Conn             *amqp.Connection
	Channel          *amqp.Channel
	Connected        bool

	Logger mlog.Logger
}

// Connect dials rabbitmq, opens a channel and declares the topic exchange
// every event publish/consume uses.
func (c *Connection) Connect(_ context.Context) error {
	logger := c.logger()
	logger.Info("connecting to rabbitmq")

	conn, err := amqp.Dial(c.ConnectionString)
	if err != nil {
		return fmt.Errorf("mrabbitmq: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("mrabbitmq: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(c.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()

		return fmt.Errorf("mrabbitmq: declare exchange: %w", err)
	}

	c.Conn = conn
	c.Channel = ch
	c.Connected = true

	logger.Info("connected to rabbitmq")

	return nil
}

// GetChannel returns the live channel, connecting lazily if needed.
func (c *Connection) GetChannel(ctx context.Context) (*amqp.Channel, error) {
	if !c.Connected {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.Channel, nil
}

// Close tears down the channel and connection.
func (c *Connection) Close() error {
	if c.Channel != nil {
		_ = c.Channel.Close()
	}

	if c.Conn != nil {
		return c.Conn.Close()
	}

	return nil
}

func (c *Connection) logger() mlog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return &mlog.NoneLogger{}
}
