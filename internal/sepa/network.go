package sepa

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// Acknowledger is the opaque SEPA network boundary. Submit hands a built
// ISO 20022 message to the scheme operator; PollAck asks whether
// settlement has been acknowledged.
type Acknowledger interface {
	Submit(ctx context.Context, messageID string, document []byte) (ackRef string, err error)
	PollAck(ctx context.Context, ackRef string) (settled bool, err error)
}

// NetworkGateway wraps an Acknowledger with a circuit breaker (so a
// flapping scheme operator fails fast rather than piling up saga retries)
// and a bounded exponential backoff for the await-ack poll.
type NetworkGateway struct {
	ack     Acknowledger
	breaker *gobreaker.CircuitBreaker
}

// NewNetworkGateway builds a gateway named for logs/metrics, opening its
// breaker after 5 consecutive failures and half-opening after 30s.
func NewNetworkGateway(name string, ack Acknowledger) *NetworkGateway {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &NetworkGateway{ack: ack, breaker: gobreaker.NewCircuitBreaker(st)}
}

// Submit hands the document to the network through the breaker.
func (g *NetworkGateway) Submit(ctx context.Context, messageID string, document []byte) (string, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.ack.Submit(ctx, messageID, document)
	})
	if err != nil {
		return "", ErrNetworkUnavailable(messageID, err)
	}

	return result.(string), nil
}

// AwaitAck polls PollAck with bounded exponential backoff until settled,
// timeout, or ctx cancellation.
func (g *NetworkGateway) AwaitAck(ctx context.Context, ackRef string, maxElapsed time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	bo.InitialInterval = 200 * time.Millisecond

	operation := func() error {
		result, err := g.breaker.Execute(func() (interface{}, error) {
			return g.ack.PollAck(ctx, ackRef)
		})
		if err != nil {
			return ErrNetworkUnavailable(ackRef, err)
		}

		if !result.(bool) {
			return ErrAckPending(ackRef)
		}

		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}

func ErrNetworkUnavailable(ref string, cause error) *apperr.Error {
	e := apperr.Wrap(apperr.KindDependency, "SepaNetwork", cause)
	e.Code = "NETWORK_UNAVAILABLE"
	e.Title = "Network Unavailable"
	e.Message = "SEPA network unavailable while processing " + ref

	return e
}

func ErrAckPending(ref string) *apperr.Error {
	return apperr.New(apperr.KindDependency, "SepaNetwork", "ACK_PENDING", "Acknowledgment Pending",
		"settlement acknowledgment for "+ref+" has not yet arrived")
}
