package customer

import (
	"time"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// DocumentType is the closed set of KYC document kinds this registry
// accepts.
type DocumentType string

const (
	DocumentPassport      DocumentType = "PASSPORT"
	DocumentNationalID    DocumentType = "NATIONAL_ID"
	DocumentDriversLicense DocumentType = "DRIVERS_LICENSE"
	DocumentProofOfAddress DocumentType = "PROOF_OF_ADDRESS"
)

// DocumentStatus is a Document's lifecycle position:
// UPLOADED -> {VERIFIED, REJECTED}.
type DocumentStatus string

const (
	DocumentStatusUploaded DocumentStatus = "UPLOADED"
	DocumentStatusVerified DocumentStatus = "VERIFIED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// Document is one KYC document submitted against a Customer.
type Document struct {
	ID          string
	CustomerID  string
	Type        DocumentType
	Status      DocumentStatus
	ExpiresAt   time.Time
	RejectReason string
	UploadedAt  time.Time
	Version     int64
}

// UploadDocument creates a Document in UPLOADED, rejecting at the door
// any document whose expiry already lies in the past.
func UploadDocument(id, customerID string, docType DocumentType, expiresAt, now time.Time) (*Document, error) {
	if expiresAt.Before(now) {
		return nil, ErrDocumentExpired(id)
	}

	return &Document{
		ID:         id,
		CustomerID: customerID,
		Type:       docType,
		Status:     DocumentStatusUploaded,
		ExpiresAt:  expiresAt,
		UploadedAt: now,
	}, nil
}

// Verify moves UPLOADED -> VERIFIED.
func (d *Document) Verify() error {
	if d.Status != DocumentStatusUploaded {
		return ErrDocumentIllegalTransition(d.ID, d.Status, DocumentStatusVerified)
	}

	d.Status = DocumentStatusVerified

	return nil
}

// Reject moves UPLOADED -> REJECTED, recording reason.
func (d *Document) Reject(reason string) error {
	if d.Status != DocumentStatusUploaded {
		return ErrDocumentIllegalTransition(d.ID, d.Status, DocumentStatusRejected)
	}

	d.Status = DocumentStatusRejected
	d.RejectReason = reason

	return nil
}

func ErrDocumentExpired(id string) *apperr.Error {
	return apperr.New(apperr.KindValidation, "Document", "DOCUMENT_EXPIRED", "Document Already Expired",
		"document "+id+" has an expiry date in the past and cannot be uploaded")
}

func ErrDocumentIllegalTransition(id string, from, to DocumentStatus) *apperr.Error {
	return apperr.New(apperr.KindInvalidStateTransition, "Document", "DOCUMENT_ILLEGAL_TRANSITION", "Illegal Document Transition",
		"document "+id+" cannot transition from "+string(from)+" to "+string(to))
}

func ErrScansDisabled() *apperr.Error {
	return apperr.New(apperr.KindValidation, "Document", "SCAN_STORE_DISABLED", "Scan Store Disabled",
		"no document scan store is configured for this deployment")
}

func ErrDocumentNotFound(id string) *apperr.Error {
	return apperr.NotFound("Document", id)
}
