// Package saga is a generic step-wise orchestrator with durable
// progress and reverse-order compensation. The
// package is domain-agnostic: a Step is an ordinary function closing over
// whatever aggregate it mutates; the orchestrator is just a loop over a
// step list with a durable progress record.
package saga

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// State is the saga record's lifecycle position.
type State string

const (
	StateRunning      State = "RUNNING"
	StateCompensating State = "COMPENSATING"
	StateCompleted    State = "COMPLETED"
	StateCompensated  State = "COMPENSATED"
	StateFailed       State = "FAILED"
)

// Terminal reports whether s is a state the recovery loop should no longer
// touch.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCompensated || s == StateFailed
}

// Record is the durable saga progress row. It is the atomic unit of
// recovery: every write to it is what a crash-recovery loop resumes from.
type Record struct {
	SagaID          uuid.UUID
	SagaType        string
	AggregateRef    string
	ExecutedStepIDs []string
	State           State
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// HasExecuted reports whether stepName already ran to completion, used on
// recovery to skip steps a crash happened after.
func (r *Record) HasExecuted(stepName string) bool {
	for _, id := range r.ExecutedStepIDs {
		if id == stepName {
			return true
		}
	}

	return false
}

// NewRecord builds a fresh RUNNING saga record for aggregateRef.
func NewRecord(id uuid.UUID, sagaType, aggregateRef string, now time.Time) *Record {
	return &Record{
		SagaID:       id,
		SagaType:     sagaType,
		AggregateRef: aggregateRef,
		State:        StateRunning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Step is one unit of saga work. Execute performs the forward action;
// Compensate undoes it. Both MUST be idempotent — in
// this codebase that's achieved by the downstream referenceId discipline
// each concrete step follows (e.g. internal/transfer's debit/credit steps).
type Step interface {
	// Name identifies the step in the durable ExecutedStepIDs list; it must
	// be stable across process restarts.
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}
