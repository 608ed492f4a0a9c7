// Package eventbus implements the transactional outbox: domain writes
// stage an OutboxEvent row in the same transaction as the write; a
// separate Pump polls undispatched rows and publishes them to RabbitMQ,
// then marks them dispatched.
package eventbus

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the envelope published on the bus for every business
// fact, e.g. "account.posted.v1", "transfer.completed.v1",
// "aml.alert.created.v1". AggregateID doubles as the partition key:
// events sharing it are delivered in publish order to a single consumer.
type DomainEvent struct {
	ID            uuid.UUID `json:"eventId"`
	Type          string    `json:"eventType"`
	AggregateID   string    `json:"partitionKey"`
	AggregateType string    `json:"aggregateType"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       any       `json:"payload"`
}

// OutboxEvent is the durable row written alongside a domain mutation inside
// the same database transaction. RoutingKey is the event type by default
// (topic exchange), letting consumers bind on a wildcard prefix such as
// "aml.#".
type OutboxEvent struct {
	ID          uuid.UUID
	RoutingKey  string
	Payload     []byte
	CreatedAt   time.Time
	DispatchedAt *time.Time
	Attempts    int
}

// NewEvent builds a DomainEvent with a fresh id and the current occurrence
// time. now is injected so tests and the ledger's deterministic clock stay
// in control of time.
func NewEvent(eventType, aggregateID, aggregateType string, payload any, now time.Time) DomainEvent {
	return DomainEvent{
		ID:            uuid.Must(uuid.NewV7()),
		Type:          eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		OccurredAt:    now,
		Payload:       payload,
	}
}
