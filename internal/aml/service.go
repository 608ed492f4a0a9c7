package aml

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/platform/eventbus"
	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// OutboxStager stages an outbox row in the same transaction as a domain
// write.
type OutboxStager interface {
	StageEvent(ctx context.Context, evt eventbus.DomainEvent) error
}

// AlertCreatedEvent is the payload of "aml.alert.created.v1".
type AlertCreatedEvent struct {
	AlertID       string `json:"alertId"`
	AccountNumber string `json:"accountNumber"`
	TransactionID string `json:"transactionId"`
	AlertType     string `json:"alertType"`
	RiskScore     int    `json:"riskScore"`
	RiskLevel     RiskLevel `json:"riskLevel"`
}

// SARFiledEvent is the payload of "aml.report.sar_filed.v1".
type SARFiledEvent struct {
	ReportID string `json:"reportId"`
	CaseID   string `json:"caseId"`
}

// CaseNoteStore persists free-text investigator notes against a case;
// kept optional so a Service built without one still runs the full case
// workflow.
type CaseNoteStore interface {
	AddNote(ctx context.Context, note CaseNote) error
	ListNotes(ctx context.Context, caseID string) ([]CaseNote, error)
}

// CaseNote is one investigator annotation on a case.
type CaseNote struct {
	CaseID    string
	Author    string
	Text      string
	CreatedAt time.Time
}

// Service implements the rule evaluation, sanction screening, case
// workflow and regulatory reporting.
type Service struct {
	Alerts       AlertRepository
	Cases        CaseRepository
	Reports      ReportRepository
	RiskProfiles RiskProfileRepository
	Matches      SanctionMatchRepository
	Notes        CaseNoteStore

	Engine   Engine
	Screener Screener

	Outbox OutboxStager
	Clock  Clock
	IDGen  func() uuid.UUID

	// Tx keeps each write and whatever it must land with (a staged event,
	// a linked-alert transition, the case's SAR fields) in one database
	// transaction; nil (tests) runs them directly.
	Tx Transactor
}

// NewService builds a Service with production defaults for Clock/IDGen.
func NewService(alerts AlertRepository, cases CaseRepository, reports ReportRepository, profiles RiskProfileRepository, matches SanctionMatchRepository, engine Engine, screener Screener, outbox OutboxStager) *Service {
	return &Service{
		Alerts:       alerts,
		Cases:        cases,
		Reports:      reports,
		RiskProfiles: profiles,
		Matches:      matches,
		Engine:       engine,
		Screener:     screener,
		Outbox:       outbox,
		Clock:        SystemClock{},
		IDGen:        func() uuid.UUID { return uuid.Must(uuid.NewV7()) },
	}
}

// EvaluateTransaction runs every enabled rule against txn and, if the
// resulting score clears the flagging threshold, raises and persists an
// Alert, publishing "aml.alert.created.v1".
func (s *Service) EvaluateTransaction(ctx context.Context, accountNumber, transactionID string, txn MonitoredTransaction) (*Alert, error) {
	logger := mlog.FromContext(ctx)

	result := s.Engine.Evaluate(txn)
	if !result.Flagged() {
		return nil, nil
	}

	now := s.Clock.Now()
	alert := NewAlert(s.IDGen().String(), accountNumber, transactionID, txn.Amount, result, now)

	err := s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.Alerts.Create(ctx, alert); err != nil {
			return err
		}

		evt := eventbus.NewEvent("aml.alert.created.v1", alert.ID, "AmlAlert", AlertCreatedEvent{
			AlertID:       alert.ID,
			AccountNumber: alert.AccountNumber,
			TransactionID: alert.TransactionID,
			AlertType:     alert.AlertType,
			RiskScore:     alert.RiskScore,
			RiskLevel:     alert.RiskLevel,
		}, now)

		return s.Outbox.StageEvent(ctx, evt)
	})
	if err != nil {
		return nil, err
	}

	logger.Warnf("aml: alert %s raised for account %s, score %d (%s)", alert.ID, accountNumber, alert.RiskScore, alert.RiskLevel)

	return alert, nil
}

// ImportSanctionList bulk-loads sanctions entities from CSV into the
// screener, per row: a malformed row is counted and skipped, the rest of
// the batch still lands.
func (s *Service) ImportSanctionList(ctx context.Context, r io.Reader) (IngestResult, error) {
	return s.Screener.IngestCSV(ctx, r)
}

// ScreenSubject screens name/nationalID/passportNo against the sanctions
// list, persisting every candidate match.
func (s *Service) ScreenSubject(ctx context.Context, name, nationalID, passportNo string) ([]SanctionMatch, error) {
	var matches []SanctionMatch

	matches = append(matches, s.Screener.ScreenByID(nationalID, passportNo)...)
	matches = append(matches, s.Screener.ScreenByName(name)...)

	for i := range matches {
		matches[i].ID = s.IDGen().String()
		matches[i].SubjectName = name

		if err := s.Matches.Create(ctx, &matches[i]); err != nil {
			return nil, err
		}
	}

	return matches, nil
}

// OpenCase opens an investigation case from one or more alert IDs, moving
// each linked alert OPEN -> UNDER_REVIEW. Priority follows the most severe
// linked alert's risk level.
func (s *Service) OpenCase(ctx context.Context, accountNumber string, alertIDs []string) (*Case, error) {
	priority := CasePriorityMedium

	for _, id := range alertIDs {
		a, err := s.Alerts.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if p := priorityForRiskLevel(a.RiskLevel); priorityRank(p) > priorityRank(priority) {
			priority = p
		}
	}

	c := NewCase(s.IDGen().String(), accountNumber, alertIDs, priority, s.Clock.Now())

	err := s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.Cases.Create(ctx, c); err != nil {
			return err
		}

		return s.transitionAlerts(ctx, alertIDs, (*Alert).MarkUnderReview)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// transitionAlerts applies transition to every alert in ids and persists
// the result, used to keep Alert.Status in lockstep with its owning Case's
// lifecycle.
func (s *Service) transitionAlerts(ctx context.Context, ids []string, transition func(*Alert) error) error {
	for _, id := range ids {
		a, err := s.Alerts.FindByID(ctx, id)
		if err != nil {
			return err
		}

		if err := transition(a); err != nil {
			return err
		}

		if err := s.Alerts.Update(ctx, a); err != nil {
			return err
		}
	}

	return nil
}

// BeginInvestigation moves a case OPEN|REOPENED -> INVESTIGATING.
func (s *Service) BeginInvestigation(ctx context.Context, caseID string) (*Case, error) {
	return s.mutateCase(ctx, caseID, func(c *Case) error { return c.BeginInvestigation() })
}

// SubmitCaseForReview moves a case INVESTIGATING -> PENDING_REVIEW.
func (s *Service) SubmitCaseForReview(ctx context.Context, caseID string) (*Case, error) {
	return s.mutateCase(ctx, caseID, func(c *Case) error { return c.SubmitForReview() })
}

// CaseEscalatedEvent is the payload of "aml.case.escalated.v1".
type CaseEscalatedEvent struct {
	CaseID      string `json:"caseId"`
	EscalatedBy string `json:"escalatedBy"`
}

// EscalateCase moves a case PENDING_REVIEW -> ESCALATED, escalating every
// linked alert along with it and publishing "aml.case.escalated.v1".
func (s *Service) EscalateCase(ctx context.Context, caseID, actor string) (*Case, error) {
	var c *Case

	err := s.withinTx(ctx, func(ctx context.Context) error {
		var err error

		c, err = s.mutateCase(ctx, caseID, func(c *Case) error { return c.Escalate(actor) })
		if err != nil {
			return err
		}

		if err := s.transitionAlerts(ctx, c.AlertIDs, (*Alert).Escalate); err != nil {
			return err
		}

		evt := eventbus.NewEvent("aml.case.escalated.v1", c.ID, "AmlCase", CaseEscalatedEvent{
			CaseID:      c.ID,
			EscalatedBy: actor,
		}, s.Clock.Now())

		return s.Outbox.StageEvent(ctx, evt)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// CloseCase moves a case PENDING_CLOSURE -> CLOSED with a resolution,
// clearing every linked alert that was not separately escalated.
func (s *Service) CloseCase(ctx context.Context, caseID, resolution string) (*Case, error) {
	now := s.Clock.Now()

	var c *Case

	err := s.withinTx(ctx, func(ctx context.Context) error {
		var err error

		c, err = s.mutateCase(ctx, caseID, func(c *Case) error { return c.Close(resolution, now) })
		if err != nil {
			return err
		}

		return s.transitionAlerts(ctx, c.AlertIDs, (*Alert).Clear)
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// MoveCaseToPendingClosure moves a reviewed or escalated case to
// PENDING_CLOSURE, the gate Close requires.
func (s *Service) MoveCaseToPendingClosure(ctx context.Context, caseID string) (*Case, error) {
	return s.mutateCase(ctx, caseID, func(c *Case) error { return c.MoveToPendingClosure() })
}

// ReopenCase moves a CLOSED case back to REOPENED and then INVESTIGATING.
func (s *Service) ReopenCase(ctx context.Context, caseID string) (*Case, error) {
	return s.mutateCase(ctx, caseID, func(c *Case) error { return c.Reopen() })
}

func (s *Service) mutateCase(ctx context.Context, caseID string, mutate func(c *Case) error) (*Case, error) {
	c, err := s.Cases.FindByID(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if err := mutate(c); err != nil {
		return nil, err
	}

	c.Version++

	if err := s.Cases.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// PrepareReport drafts a SAR for a case.
func (s *Service) PrepareReport(ctx context.Context, caseID, preparedBy, narrative string) (*Report, error) {
	r := NewReport(s.IDGen().String(), caseID, preparedBy, narrative, s.Clock.Now())

	if err := s.Reports.Create(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

// SubmitReportForReview moves a drafted report to PENDING_REVIEW.
func (s *Service) SubmitReportForReview(ctx context.Context, reportID string) (*Report, error) {
	return s.mutateReport(ctx, reportID, func(r *Report) error { return r.SubmitForReview() })
}

// ReviewReport applies a reviewer's decision to a report, enforcing the
// four-eyes rule against the preparer.
func (s *Service) ReviewReport(ctx context.Context, reportID, reviewedBy string, approve bool) (*Report, error) {
	return s.mutateReport(ctx, reportID, func(r *Report) error { return r.Review(reviewedBy, approve) })
}

// ApproveReport applies an approver's decision, enforcing the four-eyes
// rule against both the preparer and the reviewer.
func (s *Service) ApproveReport(ctx context.Context, reportID, approvedBy string) (*Report, error) {
	return s.mutateReport(ctx, reportID, func(r *Report) error { return r.Approve(approvedBy) })
}

// FileReport moves a report to FILED, updates the originating case's SAR
// fields, and publishes "aml.report.sar_filed.v1".
func (s *Service) FileReport(ctx context.Context, reportID string) (*Report, error) {
	now := s.Clock.Now()

	var r *Report

	err := s.withinTx(ctx, func(ctx context.Context) error {
		var err error

		r, err = s.mutateReport(ctx, reportID, func(r *Report) error { return r.File(now) })
		if err != nil {
			return err
		}

		c, err := s.Cases.FindByID(ctx, r.CaseID)
		if err != nil {
			return err
		}

		c.RecordSARFiling(r.ID, now)
		c.Version++

		if err := s.Cases.Update(ctx, c); err != nil {
			return err
		}

		evt := eventbus.NewEvent("aml.report.sar_filed.v1", r.ID, "RegulatoryReport", SARFiledEvent{
			ReportID: r.ID,
			CaseID:   r.CaseID,
		}, now)

		return s.Outbox.StageEvent(ctx, evt)
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// AcknowledgeReport moves a report FILED -> ACKNOWLEDGED.
func (s *Service) AcknowledgeReport(ctx context.Context, reportID string) (*Report, error) {
	return s.mutateReport(ctx, reportID, func(r *Report) error { return r.Acknowledge() })
}

func (s *Service) mutateReport(ctx context.Context, reportID string, mutate func(r *Report) error) (*Report, error) {
	r, err := s.Reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if err := mutate(r); err != nil {
		return nil, err
	}

	r.Version++

	if err := s.Reports.Update(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

// AddCaseNote appends an investigator note to a case's log. Notes is
// optional; a Service without one rejects the call rather than silently
// dropping it.
func (s *Service) AddCaseNote(ctx context.Context, caseID, author, text string) error {
	if s.Notes == nil {
		return ErrCaseNotesDisabled()
	}

	return s.Notes.AddNote(ctx, CaseNote{CaseID: caseID, Author: author, Text: text, CreatedAt: s.Clock.Now()})
}

// ListCaseNotes returns every note recorded against caseID, oldest first.
func (s *Service) ListCaseNotes(ctx context.Context, caseID string) ([]CaseNote, error) {
	if s.Notes == nil {
		return nil, nil
	}

	return s.Notes.ListNotes(ctx, caseID)
}

// RecomputeRiskProfile recomputes and persists a customer's standing
// risk posture from factors.
func (s *Service) RecomputeRiskProfile(ctx context.Context, customerID string, factors RiskFactors) (*CustomerRiskProfile, error) {
	p, err := s.RiskProfiles.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if p == nil {
		p = NewCustomerRiskProfile(customerID)
	}

	p.RiskFactors = factors
	p.Recompute(s.Clock.Now())
	p.Version++

	if err := s.RiskProfiles.Upsert(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// withinTx runs fn under the configured Transactor, or directly when
// none is wired.
func (s *Service) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Tx == nil {
		return fn(ctx)
	}

	return s.Tx.WithinTx(ctx, fn)
}

// priorityForRiskLevel maps an alert's risk band to a case priority.
func priorityForRiskLevel(level RiskLevel) CasePriority {
	switch level {
	case RiskLevelCritical:
		return CasePriorityCritical
	case RiskLevelHigh:
		return CasePriorityHigh
	case RiskLevelLow:
		return CasePriorityLow
	default:
		return CasePriorityMedium
	}
}

func priorityRank(p CasePriority) int {
	switch p {
	case CasePriorityCritical:
		return 4
	case CasePriorityHigh:
		return 3
	case CasePriorityMedium:
		return 2
	default:
		return 1
	}
}
