package sepa

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/mlog"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/saga"
)

// Service drives SCT/SCT_INST credit transfers through internal/saga over
// internal/ledger and a NetworkGateway.
type Service struct {
	Repo         Repository
	Ledger       *ledger.Service
	Orchestrator *saga.Orchestrator
	Gateway      *NetworkGateway
	Outbox       OutboxStager
	Clock        Clock
	IDGen        func() uuid.UUID

	// Mandates/Batches/Returns back the SDD and R-transaction operations;
	// cmd/corebank wires the postgres implementations.
	Mandates MandateRepository
	Batches  BatchRepository
	Returns  ReturnRepository

	// Tx keeps each aggregate write and its staged event in one database
	// transaction; nil (tests) runs them directly.
	Tx Transactor

	// SCTInstLimit caps the per-transaction amount for SCT_INST; nil means
	// unbounded (SCT has no per-transaction cap).
	SCTInstLimit *money.Amount

	// AckWait overrides the default 30s settlement-ack polling window; tests
	// set this short so a never-settling fake doesn't block on real time.
	AckWait time.Duration
}

// NewService builds a Service with production defaults.
func NewService(repo Repository, ledgerSvc *ledger.Service, orc *saga.Orchestrator, gateway *NetworkGateway, outbox OutboxStager) *Service {
	return &Service{
		Repo:         repo,
		Ledger:       ledgerSvc,
		Orchestrator: orc,
		Gateway:      gateway,
		Outbox:       outbox,
		Clock:        SystemClock{},
		IDGen:        func() uuid.UUID { return uuid.Must(uuid.NewV7()) },
	}
}

// InitiateTransfer creates and drives an SCT/SCT_INST saga.
func (s *Service) InitiateTransfer(ctx context.Context, scheme Scheme, fromAccount, creditorIBAN, creditorName, remittanceInfo string, amount money.Amount) (*Transfer, error) {
	logger := mlog.FromContext(ctx)

	if scheme == SchemeSCTInst && s.SCTInstLimit != nil && amount.GreaterThan(*s.SCTInstLimit) {
		return nil, ErrSCTInstLimitExceeded("", *s.SCTInstLimit)
	}

	now := s.Clock.Now()
	id := s.IDGen()

	t := &Transfer{
		ID:                id,
		TransferReference: fmt.Sprintf("SCT-%s", id.String()),
		Scheme:            scheme,
		FromAccount:       fromAccount,
		CreditorIBAN:      creditorIBAN,
		CreditorName:      creditorName,
		RemittanceInfo:    remittanceInfo,
		Amount:            amount,
		Status:            TransferStatusPending,
		SagaID:            s.IDGen(),
		InitiatedAt:       now,
	}

	if err := s.Repo.Create(ctx, t); err != nil {
		return nil, err
	}

	record := saga.NewRecord(t.SagaID, SagaType, t.TransferReference, now)
	def := s.definition(t)

	runErr := s.Orchestrator.Run(ctx, record, def)

	s.reflectSagaState(t, record, runErr)

	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, err
	}

	logger.Infof("sepa: transfer %s finished in status %s", t.TransferReference, t.Status)

	return t, runErr
}

// reflectSagaState mirrors internal/transfer's status-reflection logic: a
// Validate-stage rejection (no executed steps) surfaces as FAILED, while a
// failure after the debit has genuinely executed surfaces as COMPENSATED.
func (s *Service) reflectSagaState(t *Transfer, record *saga.Record, runErr error) {
	switch record.State {
	case saga.StateCompensating, saga.StateCompensated:
		if len(record.ExecutedStepIDs) == 0 {
			t.Status = TransferStatusFailed
		} else {
			t.Status = TransferStatusCompensated
		}
	case saga.StateFailed:
		t.Status = TransferStatusFailed
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

func (s *Service) definition(t *Transfer) saga.Definition {
	base := stepBase{transfer: t, repo: s.Repo, ledger: s.Ledger, gateway: s.Gateway, outbox: s.Outbox, clock: s.Clock, ackWait: s.AckWait, tx: s.Tx}

	return saga.Definition{
		Type: SagaType,
		Steps: []saga.Step{
			validateStep{base},
			debitStep{base},
			submitNetworkStep{base},
			awaitAckStep{base},
			confirmStep{base},
		},
	}
}

// StuckThreshold mirrors the internal transfer recovery window.
const StuckThreshold = time.Hour

// RecoveryResolver rebuilds the saga.Definition for a persisted record.
func (s *Service) RecoveryResolver() saga.DefinitionResolver {
	return func(ctx context.Context, record *saga.Record) (saga.Definition, error) {
		t, err := s.Repo.FindByReference(ctx, record.AggregateRef)
		if err != nil {
			return saga.Definition{}, err
		}

		return s.definition(t), nil
	}
}
