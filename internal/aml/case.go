package aml

import (
	"time"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// CaseStatus is an AmlCase's lifecycle position:
// OPEN -> INVESTIGATING -> {PENDING_REVIEW -> ESCALATED? -> PENDING_CLOSURE -> CLOSED} | REOPENED -> INVESTIGATING.
type CaseStatus string

const (
	CaseStatusOpen            CaseStatus = "OPEN"
	CaseStatusInvestigating   CaseStatus = "INVESTIGATING"
	CaseStatusPendingReview   CaseStatus = "PENDING_REVIEW"
	CaseStatusEscalated       CaseStatus = "ESCALATED"
	CaseStatusPendingClosure  CaseStatus = "PENDING_CLOSURE"
	CaseStatusClosed          CaseStatus = "CLOSED"
	CaseStatusReopened        CaseStatus = "REOPENED"
)

// CasePriority orders cases for investigation; it also picks the SLA
// window the due date is computed from.
type CasePriority string

const (
	CasePriorityLow      CasePriority = "LOW"
	CasePriorityMedium   CasePriority = "MEDIUM"
	CasePriorityHigh     CasePriority = "HIGH"
	CasePriorityCritical CasePriority = "CRITICAL"
)

// slaWindow is the investigation window granted per priority.
func slaWindow(p CasePriority) time.Duration {
	switch p {
	case CasePriorityCritical:
		return 48 * time.Hour
	case CasePriorityHigh:
		return 5 * 24 * time.Hour
	case CasePriorityLow:
		return 20 * 24 * time.Hour
	default:
		return 10 * 24 * time.Hour
	}
}

// Case is the investigation aggregate opened from one or more Alerts.
type Case struct {
	ID                string
	AlertIDs          []string
	AccountNumber     string
	Status            CaseStatus
	Priority          CasePriority
	DueDate           time.Time
	Escalated         bool
	EscalatedBy       string
	Resolution        string
	RequiresSARFiling bool
	SARFiled          bool
	SARReportID       string
	SARFiledAt        *time.Time
	OpenedAt          time.Time
	ClosedAt          *time.Time
	Version           int64
}

// NewCase opens a case from the given alert IDs, with a due date derived
// from the priority's SLA window.
func NewCase(id, accountNumber string, alertIDs []string, priority CasePriority, now time.Time) *Case {
	if priority == "" {
		priority = CasePriorityMedium
	}

	return &Case{
		ID:            id,
		AlertIDs:      alertIDs,
		AccountNumber: accountNumber,
		Status:        CaseStatusOpen,
		Priority:      priority,
		DueDate:       now.Add(slaWindow(priority)),
		OpenedAt:      now,
	}
}

// Overdue reports whether the case blew its SLA: past the due date and
// still not CLOSED.
func (c *Case) Overdue(now time.Time) bool {
	return now.After(c.DueDate) && c.Status != CaseStatusClosed
}

// SLAStatus renders the SLA position for reporting.
func (c *Case) SLAStatus(now time.Time) string {
	if c.Overdue(now) {
		return "OVERDUE"
	}

	return "ON_TRACK"
}

// BeginInvestigation moves OPEN|REOPENED -> INVESTIGATING.
func (c *Case) BeginInvestigation() error {
	if c.Status != CaseStatusOpen && c.Status != CaseStatusReopened {
		return ErrCaseIllegalTransition(c.ID, c.Status, CaseStatusInvestigating)
	}

	c.Status = CaseStatusInvestigating

	return nil
}

// SubmitForReview moves INVESTIGATING -> PENDING_REVIEW.
func (c *Case) SubmitForReview() error {
	if c.Status != CaseStatusInvestigating {
		return ErrCaseIllegalTransition(c.ID, c.Status, CaseStatusPendingReview)
	}

	c.Status = CaseStatusPendingReview

	return nil
}

// Escalate sets escalated=true and records actor.
func (c *Case) Escalate(actor string) error {
	if c.Status != CaseStatusPendingReview {
		return ErrCaseIllegalTransition(c.ID, c.Status, CaseStatusEscalated)
	}

	c.Status = CaseStatusEscalated
	c.Escalated = true
	c.EscalatedBy = actor
	c.RequiresSARFiling = true

	return nil
}

// MoveToPendingClosure moves PENDING_REVIEW|ESCALATED -> PENDING_CLOSURE.
func (c *Case) MoveToPendingClosure() error {
	if c.Status != CaseStatusPendingReview && c.Status != CaseStatusEscalated {
		return ErrCaseIllegalTransition(c.ID, c.Status, CaseStatusPendingClosure)
	}

	c.Status = CaseStatusPendingClosure

	return nil
}

// Close requires a non-empty resolution.
func (c *Case) Close(resolution string, now time.Time) error {
	if c.Status != CaseStatusPendingClosure {
		return ErrCaseIllegalTransition(c.ID, c.Status, CaseStatusClosed)
	}

	if resolution == "" {
		return ErrCaseResolutionRequired(c.ID)
	}

	c.Status = CaseStatusClosed
	c.Resolution = resolution
	closed := now
	c.ClosedAt = &closed

	return nil
}

// Reopen resets closedAt and returns to INVESTIGATING by way of
// REOPENED.
func (c *Case) Reopen() error {
	if c.Status != CaseStatusClosed {
		return ErrCaseIllegalTransition(c.ID, c.Status, CaseStatusReopened)
	}

	c.Status = CaseStatusReopened
	c.ClosedAt = nil

	return c.BeginInvestigation()
}

// RecordSARFiling stamps the case once its regulatory report has been
// filed: sarFiled, the report id and the filing time.
func (c *Case) RecordSARFiling(reportID string, filedAt time.Time) {
	c.SARFiled = true
	c.SARReportID = reportID
	filed := filedAt
	c.SARFiledAt = &filed
}

func ErrCaseIllegalTransition(id string, from, to CaseStatus) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "AmlCase", "CASE_ILLEGAL_TRANSITION", "Illegal Case Transition",
		"case "+id+" cannot transition from "+string(from)+" to "+string(to))
}

func ErrCaseResolutionRequired(id string) *apperr.Error {
	return apperr.New(apperr.KindValidation, "AmlCase", "CASE_RESOLUTION_REQUIRED", "Resolution Required",
		"case "+id+" cannot close without a resolution")
}

func ErrCaseNotesDisabled() *apperr.Error {
	return apperr.New(apperr.KindValidation, "AmlCase", "CASE_NOTES_DISABLED", "Case Notes Disabled",
		"no case-note store is configured for this deployment")
}

func ErrCaseNotFound(id string) *apperr.Error {
	return apperr.NotFound("AmlCase", id)
}
