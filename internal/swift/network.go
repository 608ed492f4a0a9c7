package swift

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// Submitter hands a built MT103 to the correspondent-banking network;
// the network integration itself is an opaque boundary behind this
// interface.
type Submitter interface {
	Submit(ctx context.Context, reference, mt103 string) (networkRef string, err error)
}

// NetworkGateway wraps a Submitter with a circuit breaker and a bounded
// retry, mirroring internal/sepa's NetworkGateway so both settlement
// pipelines guard their outbound call the same way.
type NetworkGateway struct {
	submitter Submitter
	breaker   *gobreaker.CircuitBreaker

	// RetryWindow bounds Submit's backoff; tests set it short so a
	// permanently failing fake doesn't block on real time.
	RetryWindow time.Duration
}

func NewNetworkGateway(name string, submitter Submitter) *NetworkGateway {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &NetworkGateway{submitter: submitter, breaker: gobreaker.NewCircuitBreaker(st)}
}

// Submit hands the MT103 to the network, retrying a transient failure
// with bounded exponential backoff before the saga gives up and
// compensates. An open breaker short-circuits the retry: backing off
// against a tripped circuit would only sit out the cool-down.
func (g *NetworkGateway) Submit(ctx context.Context, reference, mt103 string) (string, error) {
	window := g.RetryWindow
	if window <= 0 {
		window = 5 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = window

	var networkRef string

	operation := func() error {
		result, err := g.breaker.Execute(func() (interface{}, error) {
			return g.submitter.Submit(ctx, reference, mt103)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}

			return err
		}

		networkRef = result.(string)

		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		e := apperr.Wrap(apperr.KindDependency, "SwiftNetwork", err)
		e.Code = "NETWORK_UNAVAILABLE"
		e.Title = "Network Unavailable"
		e.Message = "SWIFT network unavailable while processing " + reference

		return "", e
	}

	return networkRef, nil
}
