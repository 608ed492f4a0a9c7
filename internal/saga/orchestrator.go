package saga

import (
	"context"
	"time"

	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// Clock is injected so saga timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Orchestrator runs a Definition's steps against a durable Record:
// execute in order, and on the first failure compensate every executed
// step in reverse.
type Orchestrator struct {
	Repo   Repository
	Clock  Clock
	Logger mlog.Logger

	// StepTimeout bounds each Execute/Compensate call; zero means no
	// per-step deadline beyond what the inbound ctx already carries.
	StepTimeout time.Duration
}

// NewOrchestrator builds an Orchestrator with production defaults for
// Clock/Logger.
func NewOrchestrator(repo Repository) *Orchestrator {
	return &Orchestrator{Repo: repo, Clock: SystemClock{}, Logger: &mlog.NoneLogger{}}
}

// Definition is an ordered, named list of steps executed in sequence.
type Definition struct {
	Type  string
	Steps []Step
}

// Run persists record (if it is new) and executes steps in order. On the
// first step failure it switches the record to COMPENSATING and unwinds
// previously executed steps in reverse order.
//
// Run returns the terminal error, if any: nil on COMPLETED, the original
// step failure itself on COMPENSATED, or a
// *apperr.Error of KindCompensation on FAILED. Callers inspect record.State
// for the authoritative outcome; the returned error is for logging/http
// mapping convenience.
func (o *Orchestrator) Run(ctx context.Context, record *Record, def Definition) error {
	if err := o.persist(ctx, record, true); err != nil {
		return err
	}

	return o.resume(ctx, record, def)
}

// Resume re-enters an existing, already persisted, possibly partially
// executed record; the recovery loop uses it to pick a crashed saga back up.
// Run shares the same step loop after creating the record.
func (o *Orchestrator) Resume(ctx context.Context, record *Record, def Definition) error {
	return o.resume(ctx, record, def)
}

func (o *Orchestrator) resume(ctx context.Context, record *Record, def Definition) error {
	switch record.State {
	case StateCompleted, StateCompensated, StateFailed:
		return nil
	case StateCompensating:
		// Compensation is idempotent per step, so it is
		// safe to re-drive every step that had executed before the crash,
		// even ones a prior compensation pass already unwound.
		return o.runCompensation(ctx, record, def, len(record.ExecutedStepIDs))
	}

	for i, step := range def.Steps {
		if record.HasExecuted(step.Name()) {
			continue
		}

		if ctx.Err() != nil {
			o.Logger.Warnf("saga %s: cancelled before step %s, entering compensation", record.SagaID, step.Name())
			return o.beginCompensation(ctx, record, def, i, ctx.Err())
		}

		o.Logger.Infof("saga %s: step %s started", record.SagaID, step.Name())

		stepCtx, cancel := o.stepContext(ctx)
		err := step.Execute(stepCtx)
		cancel()

		if err != nil {
			o.Logger.Warnf("saga %s: step %s failed: %v", record.SagaID, step.Name(), err)
			return o.beginCompensation(ctx, record, def, i, err)
		}

		o.Logger.Infof("saga %s: step %s succeeded", record.SagaID, step.Name())

		record.ExecutedStepIDs = append(record.ExecutedStepIDs, step.Name())

		if err := o.persist(ctx, record, false); err != nil {
			return err
		}
	}

	record.State = StateCompleted

	return o.persist(ctx, record, false)
}

// beginCompensation records the failure reason, flips the record to
// COMPENSATING, and unwinds executed steps in reverse order. failedIndex is
// the index of the step that failed (and therefore never entered
// ExecutedStepIDs), so compensation starts at failedIndex-1.
func (o *Orchestrator) beginCompensation(ctx context.Context, record *Record, def Definition, failedIndex int, cause error) error {
	record.State = StateCompensating
	record.LastError = cause.Error()

	if err := o.persist(ctx, record, false); err != nil {
		return err
	}

	if err := o.runCompensation(ctx, record, def, failedIndex); err != nil {
		return err
	}

	return cause
}

func (o *Orchestrator) runCompensation(ctx context.Context, record *Record, def Definition, failedIndex int) error {
	for i := failedIndex - 1; i >= 0; i-- {
		step := def.Steps[i]

		o.Logger.Infof("saga %s: compensating step %s", record.SagaID, step.Name())

		stepCtx, cancel := o.stepContext(context.WithoutCancel(ctx))
		err := step.Compensate(stepCtx)
		cancel()

		if err != nil {
			record.State = StateFailed
			record.LastError = "compensation of " + step.Name() + " failed: " + err.Error()

			if persistErr := o.persist(ctx, record, false); persistErr != nil {
				return persistErr
			}

			return ErrCompensationFailed(record.SagaID.String(), step.Name(), err)
		}
	}

	record.State = StateCompensated

	return o.persist(ctx, record, false)
}

func (o *Orchestrator) persist(ctx context.Context, record *Record, create bool) error {
	record.UpdatedAt = o.Clock.Now()

	if create {
		return o.Repo.Create(ctx, record)
	}

	return o.Repo.Update(ctx, record)
}

func (o *Orchestrator) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.StepTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, o.StepTimeout)
}
