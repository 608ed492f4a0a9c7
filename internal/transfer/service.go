package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/mlog"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/saga"
)

// Service implements InitiateTransfer over internal/saga and
// internal/ledger.
type Service struct {
	Repo         Repository
	Ledger       *ledger.Service
	Orchestrator *saga.Orchestrator
	Outbox       OutboxStager
	Clock        Clock
	IDGen        func() uuid.UUID

	// Tx keeps each aggregate write and its staged event in one database
	// transaction; nil (tests) runs them directly.
	Tx Transactor
}

// NewService builds a Service with production defaults for Clock/IDGen.
func NewService(repo Repository, ledgerSvc *ledger.Service, orc *saga.Orchestrator, outbox OutboxStager) *Service {
	return &Service{
		Repo:         repo,
		Ledger:       ledgerSvc,
		Orchestrator: orc,
		Outbox:       outbox,
		Clock:        SystemClock{},
		IDGen:        func() uuid.UUID { return uuid.Must(uuid.NewV7()) },
	}
}

// InitiateTransfer creates and drives a Transfer saga. If
// idempotencyKey matches an existing transfer the existing aggregate is
// returned unchanged and no new saga runs.
func (s *Service) InitiateTransfer(ctx context.Context, fromAccount, toAccount string, amount money.Amount, idempotencyKey string) (*Transfer, error) {
	logger := mlog.FromContext(ctx)

	if idempotencyKey != "" {
		existing, err := s.Repo.FindByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			logger.Infof("transfer: idempotency replay for key %s -> %s", idempotencyKey, existing.TransferReference)
			return existing, nil
		}
	}

	now := s.Clock.Now()
	id := s.IDGen()

	t := &Transfer{
		ID:                id,
		TransferReference: fmt.Sprintf("TRF-%s", id.String()),
		FromAccount:       fromAccount,
		ToAccount:         toAccount,
		Amount:            amount,
		Status:            StatusPending,
		IdempotencyKey:    idempotencyKey,
		SagaID:            s.IDGen(),
		InitiatedAt:       now,
	}

	err := s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.Repo.Create(ctx, t); err != nil {
			return err
		}

		if s.Outbox == nil {
			return nil
		}

		evt := eventbus.NewEvent("transfer.initiated.v1", t.TransferReference, "Transfer", InitiatedEvent{
			TransferReference: t.TransferReference,
			FromAccount:       t.FromAccount,
			ToAccount:         t.ToAccount,
			Amount:            t.Amount.Value.StringFixed(money.Scale),
			Currency:          t.Amount.Currency,
		}, now)

		return s.Outbox.StageEvent(ctx, evt)
	})
	if err != nil {
		return nil, err
	}

	record := saga.NewRecord(t.SagaID, SagaType, t.TransferReference, now)
	def := s.definition(t)

	runErr := s.Orchestrator.Run(ctx, record, def)

	s.reflectSagaState(t, record, runErr)

	err = s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.Repo.Update(ctx, t); err != nil {
			return err
		}

		if s.Outbox == nil || (t.Status != StatusFailed && t.Status != StatusCompensated) {
			return nil
		}

		evt := eventbus.NewEvent("transfer.failed.v1", t.TransferReference, "Transfer", FailedEvent{
			TransferReference: t.TransferReference,
			Status:            string(t.Status),
			FailureReason:     t.FailureReason,
		}, s.Clock.Now())

		return s.Outbox.StageEvent(ctx, evt)
	})
	if err != nil {
		return nil, err
	}

	return t, runErr
}

// reflectSagaState mirrors the saga record's terminal state onto t.Status,
// since the saga engine itself only tracks saga.State; the Transfer's own
// COMPENSATING/COMPENSATED/FAILED position is this package's concern.
func (s *Service) reflectSagaState(t *Transfer, record *saga.Record, runErr error) {
	switch record.State {
	case saga.StateCompensating, saga.StateCompensated:
		if len(record.ExecutedStepIDs) == 0 {
			// No step had executed before the failure, i.e. Validate
			// itself rejected the transfer: FAILED with no side effects,
			// distinct from a Debit/Credit failure, which genuinely has
			// work to unwind and so lands on COMPENSATED.
			t.Status = StatusFailed
		} else {
			t.Status = StatusCompensated
		}
	case saga.StateFailed:
		t.Status = StatusFailed
	}

	if runErr != nil && t.FailureReason == "" {
		t.FailureReason = runErr.Error()
	}
}

// withinTx runs fn under the configured Transactor, or directly when
// none is wired.
func (s *Service) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Tx == nil {
		return fn(ctx)
	}

	return s.Tx.WithinTx(ctx, fn)
}

// definition builds the four-step saga for t.
func (s *Service) definition(t *Transfer) saga.Definition {
	base := stepBase{transfer: t, repo: s.Repo, ledger: s.Ledger, outbox: s.Outbox, clock: s.Clock, tx: s.Tx}

	return saga.Definition{
		Type: SagaType,
		Steps: []saga.Step{
			validateStep{base},
			debitStep{base},
			creditStep{base},
			confirmStep{base},
		},
	}
}

// StuckThreshold is how long a transfer may sit in a *_PENDING status
// before reconciliation picks it up.
const StuckThreshold = time.Hour

// RecoveryResolver rebuilds the saga.Definition for a Transfer saga record,
// registered with the shared saga.RecoveryLoop under SagaType.
func (s *Service) RecoveryResolver() saga.DefinitionResolver {
	return func(ctx context.Context, record *saga.Record) (saga.Definition, error) {
		t, err := s.Repo.FindByReference(ctx, record.AggregateRef)
		if err != nil {
			return saga.Definition{}, err
		}

		return s.definition(t), nil
	}
}

// ReconcileStuck re-drives transfers that have sat in a *_PENDING status
// past StuckThreshold. This is the API-edge
// complement to the generic saga.RecoveryLoop: it finds the Transfer rows
// themselves (rather than only saga records) so a crash before the saga
// record was even written is still reconciled.
func (s *Service) ReconcileStuck(ctx context.Context, now time.Time) error {
	logger := mlog.FromContext(ctx)

	stuck, err := s.Repo.FindStuck(ctx, now.Add(-StuckThreshold), 50)
	if err != nil {
		return err
	}

	for _, t := range stuck {
		logger.Warnf("transfer: reconciling stuck transfer %s in status %s", t.TransferReference, t.Status)

		record := saga.NewRecord(t.SagaID, SagaType, t.TransferReference, t.InitiatedAt)
		record.State = saga.StateCompensating
		record.ExecutedStepIDs = stepsCompletedFor(t)

		if err := s.Orchestrator.Repo.Create(ctx, record); err != nil {
			// Already exists from the original Run's Create; fall back to
			// resuming the persisted one.
			existing, findErr := s.Orchestrator.Repo.FindByID(ctx, t.SagaID)
			if findErr != nil {
				return findErr
			}

			record = existing
		}

		resumeErr := s.Orchestrator.Resume(ctx, record, s.definition(t))
		if resumeErr != nil {
			logger.Warnf("transfer: reconcile of %s resumed with outcome: %v", t.TransferReference, resumeErr)
		}

		s.reflectSagaState(t, record, resumeErr)

		if err := s.Repo.Update(ctx, t); err != nil {
			return err
		}
	}

	return nil
}

// stepsCompletedFor infers which saga steps already ran from the transfer's
// own status, used only by the stuck-transfer reconciliation path when the
// saga record itself may be unavailable.
func stepsCompletedFor(t *Transfer) []string {
	switch t.Status {
	case StatusCreditPending, StatusCompleted:
		return []string{"validate", "debit_source", "credit_destination"}
	case StatusDebitCompleted:
		return []string{"validate", "debit_source"}
	case StatusDebitPending, StatusValidating:
		return []string{"validate"}
	default:
		return nil
	}
}
