package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// OutboxStore is implemented by each component's postgres repository (the
// outbox table lives alongside the domain tables it serves, so each
// component owns its own store rather than sharing one global table).
type OutboxStore interface {
	// ClaimPending returns up to limit undispatched rows, oldest first.
	ClaimPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	// MarkDispatched records a row as published.
	MarkDispatched(ctx context.Context, id uuid.UUID, dispatchedAt time.Time) error
	// MarkFailed increments the attempt counter after a publish error.
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// Pump polls an OutboxStore and publishes each undispatched row. One
// Pump runs per component that writes to an outbox (ledger, transfer,
// sepa, swift, aml).
type Pump struct {
	Store     OutboxStore
	Publisher Publisher
	Interval  time.Duration
	BatchSize int
	Logger    mlog.Logger
}

// Run polls until ctx is done. Intended to be launched as a goroutine by
// internal/platform/app.Launcher.
func (p *Pump) Run(ctx context.Context) {
	logger := p.logger()
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}

	batch := p.BatchSize
	if batch <= 0 {
		batch = 50
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.drain(ctx, batch); err != nil {
				logger.Errorf("outbox pump: %v", err)
			}
		}
	}
}

func (p *Pump) drain(ctx context.Context, batch int) error {
	rows, err := p.Store.ClaimPending(ctx, batch)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := p.Publisher.Publish(ctx, row.RoutingKey, row.Payload); err != nil {
			p.logger().Warnf("outbox pump: publish %s failed: %v", row.ID, err)

			if markErr := p.Store.MarkFailed(ctx, row.ID); markErr != nil {
				return markErr
			}

			continue
		}

		if err := p.Store.MarkDispatched(ctx, row.ID, time.Now()); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pump) logger() mlog.Logger {
	if p.Logger != nil {
		return p.Logger
	}

	return &mlog.NoneLogger{}
}
