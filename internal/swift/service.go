package swift

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/mlog"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/saga"
)

// Service drives SWIFT cross-border transfers through internal/saga over
// internal/ledger, a ComplianceGate, and a NetworkGateway.
type Service struct {
	Repo         Repository
	Ledger       *ledger.Service
	Orchestrator *saga.Orchestrator
	Gate         ComplianceGate
	Gateway      *NetworkGateway
	Fees         FeeSchedule
	Outbox       OutboxStager
	Clock        Clock
	IDGen        func() uuid.UUID

	// Tx keeps each aggregate write and its staged event in one database
	// transaction; nil (tests) runs them directly.
	Tx Transactor
}

// NewService builds a Service with production defaults.
func NewService(repo Repository, ledgerSvc *ledger.Service, orc *saga.Orchestrator, gate ComplianceGate, gateway *NetworkGateway, fees FeeSchedule, outbox OutboxStager) *Service {
	return &Service{
		Repo:         repo,
		Ledger:       ledgerSvc,
		Orchestrator: orc,
		Gate:         gate,
		Gateway:      gateway,
		Fees:         fees,
		Outbox:       outbox,
		Clock:        SystemClock{},
		IDGen:        func() uuid.UUID { return uuid.Must(uuid.NewV7()) },
	}
}

// InitiateRequest carries the fields needed to start a SWIFT transfer.
type InitiateRequest struct {
	FromAccount        string
	SenderBIC          string
	ReceiverBIC        string
	BeneficiaryAccount string
	BeneficiaryName    string
	OrderingCustomer   string
	RemittanceInfo     string
	ChargeType         ChargeType
	Amount             money.Amount
}

// InitiateTransfer creates and drives a SWIFT transfer saga.
func (s *Service) InitiateTransfer(ctx context.Context, req InitiateRequest) (*Transfer, error) {
	logger := mlog.FromContext(ctx)

	senderBIC, err := ParseBIC(req.SenderBIC)
	if err != nil {
		return nil, err
	}

	receiverBIC, err := ParseBIC(req.ReceiverBIC)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	id := s.IDGen()

	t := &Transfer{
		ID:                 id,
		TransferReference:  newTransferReference(id),
		FromAccount:        req.FromAccount,
		SenderBIC:          senderBIC,
		ReceiverBIC:        receiverBIC,
		BeneficiaryAccount: req.BeneficiaryAccount,
		BeneficiaryName:    req.BeneficiaryName,
		OrderingCustomer:   req.OrderingCustomer,
		RemittanceInfo:     req.RemittanceInfo,
		ChargeType:         req.ChargeType,
		Amount:             req.Amount,
		Fee:                money.Zero(req.Amount.Currency),
		Status:             StatusPending,
		SagaID:             s.IDGen(),
		InitiatedAt:        now,
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

	logger.Infof("swift: transfer %s finished in status %s", t.TransferReference, t.Status)

	return t, runErr
}

// reflectSagaState mirrors internal/transfer's status-reflection logic,
// with one refinement: a rejection before the debit executed (validation or
// the compliance gate) moved no money and surfaces as FAILED; only a
// failure after the debit has something to unwind and lands on COMPENSATED.
func (s *Service) reflectSagaState(t *Transfer, record *saga.Record, runErr error) {
	switch record.State {
	case saga.StateCompensating, saga.StateCompensated:
		if record.HasExecuted("debit_source") {
			t.Status = StatusCompensated
		} else {
			t.Status = StatusFailed
		}
	case saga.StateFailed:
		t.Status = StatusFailed
	}

	if runErr != nil && t.FailureReason == "" {
		t.FailureReason = runErr.Error()
	}
}

func (s *Service) definition(t *Transfer) saga.Definition {
	base := stepBase{
		transfer: t, repo: s.Repo, ledger: s.Ledger, gate: s.Gate, gateway: s.Gateway,
		fees: s.Fees, outbox: s.Outbox, clock: s.Clock, tx: s.Tx,
	}

	return saga.Definition{
		Type: SagaType,
		Steps: []saga.Step{
			validateStep{base},
			complianceStep{base},
			debitStep{base},
			submitStep{base},
			confirmStep{base},
		},
	}
}

// newTransferReference derives the SWIFT :20: sender reference from the
// aggregate id: 16 characters, the field's maximum length.
func newTransferReference(id uuid.UUID) string {
	return fmt.Sprintf("MT%.14s", strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")))
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
