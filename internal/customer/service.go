package customer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/platform/mlog"
)

// RiskRecomputeTrigger is the narrow port to internal/aml's
// CustomerRiskProfile recompute, invoked after KYC changes. Kept as an
// interface rather than an import of internal/aml so the two packages
// stay decoupled; cmd/corebank wires the concrete adapter.
type RiskRecomputeTrigger interface {
	TriggerRecompute(ctx context.Context, customerID string) error
}

// DocumentScanStore persists the raw uploaded scan behind a Document
// record; the relational side tracks document metadata and status but not
// the captured image/PDF itself. Kept optional so a Service built without
// one still runs the full registry flow.
type DocumentScanStore interface {
	Put(ctx context.Context, scan DocumentScan) error
	Get(ctx context.Context, documentID string) (*DocumentScan, error)
}

// DocumentScan is the raw capture behind a Document.
type DocumentScan struct {
	DocumentID string
	Filename   string
	MimeType   string
	Data       []byte
	CapturedAt time.Time
}

// Service implements the onboarding, KYC document and history
// operations.
type Service struct {
	Repo        Repository
	Documents   DocumentRepository
	History     HistoryRepository
	RiskTrigger RiskRecomputeTrigger
	Scans       DocumentScanStore

	Clock Clock
	IDGen func() uuid.UUID

	// Tx keeps each status transition and its appended history row in one
	// database transaction; nil (tests) runs them directly.
	Tx Transactor
}

// NewService builds a Service with production defaults for Clock/IDGen.
func NewService(repo Repository, documents DocumentRepository, history HistoryRepository) *Service {
	return &Service{
		Repo:      repo,
		Documents: documents,
		History:   history,
		Clock:     SystemClock{},
		IDGen:     func() uuid.UUID { return uuid.Must(uuid.NewV7()) },
	}
}

// OpenCustomer onboards a new customer in PENDING_VERIFICATION.
func (s *Service) OpenCustomer(ctx context.Context, fullName, email, countryCode string) (*Customer, error) {
	now := s.Clock.Now()
	c := NewCustomer(s.IDGen().String(), fullName, email, countryCode, now)

	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// UploadDocument attaches a KYC document to a customer, enforcing the
// upload-time expiry check.
func (s *Service) UploadDocument(ctx context.Context, customerID string, docType DocumentType, expiresAt time.Time) (*Document, error) {
	now := s.Clock.Now()

	d, err := UploadDocument(s.IDGen().String(), customerID, docType, expiresAt, now)
	if err != nil {
		return nil, err
	}

	if err := s.Documents.Create(ctx, d); err != nil {
		return nil, err
	}

	return d, nil
}

// AttachScan stores the raw capture behind an already-uploaded document.
// Scans is optional; a Service without one rejects the call rather than
// silently dropping it.
func (s *Service) AttachScan(ctx context.Context, documentID, filename, mimeType string, data []byte) error {
	if s.Scans == nil {
		return ErrScansDisabled()
	}

	return s.Scans.Put(ctx, DocumentScan{
		DocumentID: documentID,
		Filename:   filename,
		MimeType:   mimeType,
		Data:       data,
		CapturedAt: s.Clock.Now(),
	})
}

// GetScan returns the stored capture behind documentID, or (nil, nil) if
// none was attached.
func (s *Service) GetScan(ctx context.Context, documentID string) (*DocumentScan, error) {
	if s.Scans == nil {
		return nil, nil
	}

	return s.Scans.Get(ctx, documentID)
}

// VerifyDocument moves a document UPLOADED -> VERIFIED, recording history.
func (s *Service) VerifyDocument(ctx context.Context, documentID string) (*Document, error) {
	return s.mutateDocument(ctx, documentID, func(d *Document) error { return d.Verify() })
}

// RejectDocument moves a document UPLOADED -> REJECTED, recording history.
func (s *Service) RejectDocument(ctx context.Context, documentID, reason string) (*Document, error) {
	return s.mutateDocument(ctx, documentID, func(d *Document) error { return d.Reject(reason) })
}

func (s *Service) mutateDocument(ctx context.Context, documentID string, mutate func(d *Document) error) (*Document, error) {
	d, err := s.Documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	from := d.Status

	if err := mutate(d); err != nil {
		return nil, err
	}

	d.Version++

	err = s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.Documents.Update(ctx, d); err != nil {
			return err
		}

		return s.recordHistory(ctx, d.CustomerID, "Document", d.ID, string(from), string(d.Status))
	})
	if err != nil {
		return nil, err
	}

	return d, nil
}

// VerifyCustomer moves a customer PENDING_VERIFICATION -> VERIFIED.
func (s *Service) VerifyCustomer(ctx context.Context, customerID string) (*Customer, error) {
	return s.mutateCustomer(ctx, customerID, func(c *Customer) error { return c.Verify() })
}

// ApproveCustomer moves a customer VERIFIED -> APPROVED.
func (s *Service) ApproveCustomer(ctx context.Context, customerID string) (*Customer, error) {
	c, err := s.mutateCustomer(ctx, customerID, func(c *Customer) error { return c.Approve() })
	if err != nil {
		return nil, err
	}

	if s.RiskTrigger != nil {
		if err := s.RiskTrigger.TriggerRecompute(ctx, customerID); err != nil {
			logger := mlog.FromContext(ctx)
			logger.Warnf("customer: risk recompute trigger failed for %s: %v", customerID, err)
		}
	}

	return c, nil
}

// GetCustomer returns a customer by id.
func (s *Service) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	return s.Repo.FindByID(ctx, customerID)
}

// SetRiskAttributes records a customer's PEP/high-risk-business CDD flags,
// typically surfaced during KYC review, and triggers a risk recompute
// since both feed the CustomerRiskProfile formula.
func (s *Service) SetRiskAttributes(ctx context.Context, customerID string, pep, highRiskBusiness bool) (*Customer, error) {
	c, err := s.Repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	c.SetRiskAttributes(pep, highRiskBusiness)
	c.Version++

	if err := s.Repo.Update(ctx, c); err != nil {
		return nil, err
	}

	if s.RiskTrigger != nil {
		if err := s.RiskTrigger.TriggerRecompute(ctx, customerID); err != nil {
			logger := mlog.FromContext(ctx)
			logger.Warnf("customer: risk recompute trigger failed for %s: %v", customerID, err)
		}
	}

	return c, nil
}

// SuspendCustomer moves a customer APPROVED -> SUSPENDED.
func (s *Service) SuspendCustomer(ctx context.Context, customerID string) (*Customer, error) {
	return s.mutateCustomer(ctx, customerID, func(c *Customer) error { return c.Suspend() })
}

// ReinstateCustomer moves a customer SUSPENDED -> APPROVED.
func (s *Service) ReinstateCustomer(ctx context.Context, customerID string) (*Customer, error) {
	return s.mutateCustomer(ctx, customerID, func(c *Customer) error { return c.Reinstate() })
}

// CloseCustomer moves a customer APPROVED|SUSPENDED -> CLOSED.
func (s *Service) CloseCustomer(ctx context.Context, customerID string) (*Customer, error) {
	return s.mutateCustomer(ctx, customerID, func(c *Customer) error { return c.Close() })
}

func (s *Service) mutateCustomer(ctx context.Context, customerID string, mutate func(c *Customer) error) (*Customer, error) {
	c, err := s.Repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	from := c.Status

	if err := mutate(c); err != nil {
		return nil, err
	}

	c.Version++

	err = s.withinTx(ctx, func(ctx context.Context) error {
		if err := s.Repo.Update(ctx, c); err != nil {
			return err
		}

		return s.recordHistory(ctx, c.ID, "Customer", c.ID, string(from), string(c.Status))
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// withinTx runs fn under the configured Transactor, or directly when
// none is wired.
func (s *Service) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.Tx == nil {
		return fn(ctx)
	}

	return s.Tx.WithinTx(ctx, fn)
}

func (s *Service) recordHistory(ctx context.Context, customerID, entity, entityID, from, to string) error {
	entry := &HistoryEntry{
		ID:         s.IDGen().String(),
		CustomerID: customerID,
		Entity:     entity,
		EntityID:   entityID,
		FromStatus: from,
		ToStatus:   to,
		RecordedAt: s.Clock.Now(),
	}

	return s.History.Append(ctx, entry)
}
