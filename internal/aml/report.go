package aml

import (
	"time"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// ReportStatus is a RegulatoryReport's lifecycle position:
// DRAFT -> PENDING_REVIEW -> {APPROVE|REJECT} -> PENDING_APPROVAL -> APPROVED -> FILED -> ACKNOWLEDGED.
type ReportStatus string

const (
	ReportStatusDraft           ReportStatus = "DRAFT"
	ReportStatusPendingReview   ReportStatus = "PENDING_REVIEW"
	ReportStatusRejected        ReportStatus = "REJECTED"
	ReportStatusPendingApproval ReportStatus = "PENDING_APPROVAL"
	ReportStatusApproved        ReportStatus = "APPROVED"
	ReportStatusFiled           ReportStatus = "FILED"
	ReportStatusAcknowledged    ReportStatus = "ACKNOWLEDGED"
)

// Report is a SAR (Suspicious Activity Report) aggregate, built from one
// AmlCase. Its four-eyes rule requires preparedBy, reviewedBy and
// approvedBy to all be distinct actors.
type Report struct {
	ID          string
	CaseID      string
	Status      ReportStatus
	PreparedBy  string
	ReviewedBy  string
	ApprovedBy  string
	Narrative   string
	CreatedAt   time.Time
	FiledAt     *time.Time
	Version     int64
}

// NewReport drafts a report prepared by preparedBy.
func NewReport(id, caseID, preparedBy, narrative string, now time.Time) *Report {
	return &Report{
		ID:         id,
		CaseID:     caseID,
		Status:     ReportStatusDraft,
		PreparedBy: preparedBy,
		Narrative:  narrative,
		CreatedAt:  now,
	}
}

// SubmitForReview moves DRAFT -> PENDING_REVIEW.
func (r *Report) SubmitForReview() error {
	if r.Status != ReportStatusDraft {
		return ErrReportIllegalTransition(r.ID, r.Status, ReportStatusPendingReview)
	}

	r.Status = ReportStatusPendingReview

	return nil
}

// Review applies a reviewer's decision. approve=false moves to REJECTED;
// approve=true moves to PENDING_APPROVAL, recording reviewedBy. reviewedBy
// must differ from preparedBy, per the four-eyes invariant.
func (r *Report) Review(reviewedBy string, approve bool) error {
	if r.Status != ReportStatusPendingReview {
		return ErrReportIllegalTransition(r.ID, r.Status, ReportStatusPendingApproval)
	}

	if reviewedBy == r.PreparedBy {
		return ErrReportSameActor(r.ID, "reviewedBy", reviewedBy)
	}

	if !approve {
		r.Status = ReportStatusRejected
		r.ReviewedBy = reviewedBy

		return nil
	}

	r.Status = ReportStatusPendingApproval
	r.ReviewedBy = reviewedBy

	return nil
}

// Approve moves PENDING_APPROVAL -> APPROVED. approvedBy must differ from
// both preparedBy and reviewedBy.
func (r *Report) Approve(approvedBy string) error {
	if r.Status != ReportStatusPendingApproval {
		return ErrReportIllegalTransition(r.ID, r.Status, ReportStatusApproved)
	}

	if approvedBy == r.PreparedBy || approvedBy == r.ReviewedBy {
		return ErrReportSameActor(r.ID, "approvedBy", approvedBy)
	}

	r.Status = ReportStatusApproved
	r.ApprovedBy = approvedBy

	return nil
}

// File moves APPROVED -> FILED, stamping filedAt.
func (r *Report) File(now time.Time) error {
	if r.Status != ReportStatusApproved {
		return ErrReportIllegalTransition(r.ID, r.Status, ReportStatusFiled)
	}

	r.Status = ReportStatusFiled
	filed := now
	r.FiledAt = &filed

	return nil
}

// Acknowledge moves FILED -> ACKNOWLEDGED, once the regulator confirms
// receipt.
func (r *Report) Acknowledge() error {
	if r.Status != ReportStatusFiled {
		return ErrReportIllegalTransition(r.ID, r.Status, ReportStatusAcknowledged)
	}

	r.Status = ReportStatusAcknowledged

	return nil
}

func ErrReportIllegalTransition(id string, from, to ReportStatus) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "RegulatoryReport", "REPORT_ILLEGAL_TRANSITION", "Illegal Report Transition",
		"report "+id+" cannot transition from "+string(from)+" to "+string(to))
}

func ErrReportSameActor(id, role, actor string) *apperr.Error {
	return apperr.New(apperr.KindUnauthorized, "RegulatoryReport", "REPORT_SAME_ACTOR", "Four-Eyes Violation",
		"report "+id+" rejects "+actor+" as "+role+": must differ from every prior actor in the chain")
}

func ErrReportNotFound(id string) *apperr.Error {
	return apperr.NotFound("RegulatoryReport", id)
}
