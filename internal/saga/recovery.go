package saga

import (
	"context"
	"time"

	"github.com/meridianledger/corebank/internal/platform/app"
	"github.com/meridianledger/corebank/internal/platform/mlog"
	"github.com/meridianledger/corebank/internal/platform/mredis"
)

// DefinitionResolver rebuilds the Definition (and the closures its Steps
// capture) for a previously persisted Record, since a Definition's steps are
// not themselves serializable — only SagaType and AggregateRef are. Each
// saga-producing component (internal/transfer, internal/sepa, internal/swift)
// registers a resolver keyed by its SagaType.
type DefinitionResolver func(ctx context.Context, record *Record) (Definition, error)

// RecoveryLoop is the standalone crash-recovery component: it polls for
// sagas stuck in a non-terminal state past StuckThreshold and re-invokes
// the orchestrator against them, picking the resolver registered for the
// record's SagaType.
type RecoveryLoop struct {
	Orchestrator    *Orchestrator
	Repo            Repository
	Resolvers       map[string]DefinitionResolver
	Interval        time.Duration
	StuckThreshold  time.Duration
	BatchSize       int
	Logger          mlog.Logger

	// Locks, when set, serializes resumption per saga across replicas: a
	// record is only re-driven by the worker holding its lock. Without it
	// (single-instance deployments, tests) resumption still works, relying
	// on step idempotency alone.
	Locks *mredis.LockFactory
}

// NewRecoveryLoop builds a RecoveryLoop polling at interval for records
// stuck past stuckThreshold.
func NewRecoveryLoop(orc *Orchestrator, interval, stuckThreshold time.Duration) *RecoveryLoop {
	return &RecoveryLoop{
		Orchestrator:   orc,
		Repo:           orc.Repo,
		Resolvers:      make(map[string]DefinitionResolver),
		Interval:       interval,
		StuckThreshold: stuckThreshold,
		BatchSize:      25,
		Logger:         &mlog.NoneLogger{},
	}
}

// RegisterResolver wires sagaType's DefinitionResolver.
func (l *RecoveryLoop) RegisterResolver(sagaType string, resolver DefinitionResolver) {
	l.Resolvers[sagaType] = resolver
}

// Run implements app.Component: it polls for the lifetime of the
// process.
func (l *RecoveryLoop) Run(*app.Launcher) error {
	ctx := context.Background()

	ticker := time.NewTicker(l.interval())
	defer ticker.Stop()

	for range ticker.C {
		if err := l.sweep(ctx); err != nil {
			l.Logger.Errorf("saga recovery: sweep failed: %v", err)
		}
	}

	return nil
}

func (l *RecoveryLoop) interval() time.Duration {
	if l.Interval <= 0 {
		return time.Minute
	}

	return l.Interval
}

func (l *RecoveryLoop) sweep(ctx context.Context) error {
	threshold := l.StuckThreshold
	if threshold <= 0 {
		threshold = time.Hour
	}

	cutoff := l.Orchestrator.Clock.Now().Add(-threshold)

	batch := l.BatchSize
	if batch <= 0 {
		batch = 25
	}

	stuck, err := l.Repo.FindStuck(ctx, cutoff, batch)
	if err != nil {
		return err
	}

	for _, record := range stuck {
		resolver, ok := l.Resolvers[record.SagaType]
		if !ok {
			l.Logger.Warnf("saga recovery: no resolver registered for type %s (saga %s)", record.SagaType, record.SagaID)
			continue
		}

		def, err := resolver(ctx, record)
		if err != nil {
			l.Logger.Errorf("saga recovery: resolve saga %s: %v", record.SagaID, err)
			continue
		}

		l.Logger.Infof("saga recovery: resuming saga %s (%s) in state %s", record.SagaID, record.SagaType, record.State)

		l.resume(ctx, record, def)
	}

	return nil
}

// resume re-drives one record, under the per-saga lock when Locks is set.
func (l *RecoveryLoop) resume(ctx context.Context, record *Record, def Definition) {
	if l.Locks != nil {
		lock, err := l.Locks.Acquire(ctx, "saga:resume:"+record.SagaID.String(), time.Minute)
		if err != nil {
			l.Logger.Debugf("saga recovery: saga %s is locked by another worker: %v", record.SagaID, err)
			return
		}

		defer func() {
			if _, err := lock.Unlock(ctx); err != nil {
				l.Logger.Warnf("saga recovery: unlock saga %s: %v", record.SagaID, err)
			}
		}()
	}

	if err := l.Orchestrator.Resume(ctx, record, def); err != nil {
		l.Logger.Warnf("saga recovery: saga %s resumed with outcome: %v", record.SagaID, err)
	}
}
