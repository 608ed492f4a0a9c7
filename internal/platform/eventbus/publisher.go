package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/meridianledger/corebank/internal/platform/mrabbitmq"
)

// Publisher publishes a DomainEvent to the bus. Components depend on this
// interface, not on RabbitMQ directly, so tests can substitute a recording
// fake.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
}

// RabbitMQPublisher publishes onto the shared topic exchange declared by
// mrabbitmq.Connection.
type RabbitMQPublisher struct {
	conn *mrabbitmq.Connection
}

// NewRabbitMQPublisher builds a Publisher bound to conn's exchange.
func NewRabbitMQPublisher(conn *mrabbitmq.Connection) *RabbitMQPublisher {
	return &RabbitMQPublisher{conn: conn}
}

// Publish sends payload as a persistent message with routingKey on the
// configured exchange.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	ch, err := p.conn.GetChannel(ctx)
	if err != nil {
		return fmt.Errorf("eventbus: get channel: %w", err)
	}

	err = ch.PublishWithContext(ctx, p.conn.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("eventbus: publish %s: %w", routingKey, err)
	}

	return nil
}

// Marshal is a small helper so callers staging an OutboxEvent and callers
// publishing directly share the same encoding.
func Marshal(evt DomainEvent) ([]byte, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("eventbus: marshal event %s: %w", evt.Type, err)
	}

	return b, nil
}
