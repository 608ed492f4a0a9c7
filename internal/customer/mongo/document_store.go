// Package mongo stores uploaded KYC document scans in MongoDB: the scan
// itself is an opaque blob with a handful of capture-time fields, a shape
// that has no business in the relational schema.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meridianledger/corebank/internal/customer"
	"github.com/meridianledger/corebank/internal/platform/mmongo"
)

// scanDocument is the bson-tagged storage shape for a customer.DocumentScan.
type scanDocument struct {
	DocumentID string    `bson:"documentId"`
	Filename   string    `bson:"filename"`
	MimeType   string    `bson:"mimeType"`
	Data       []byte    `bson:"data"`
	CapturedAt time.Time `bson:"capturedAt"`
}

// ScanStore persists customer.DocumentScan documents in a "document_scans"
// collection, implementing customer.DocumentScanStore.
type ScanStore struct {
	conn *mmongo.Connection
}

// NewScanStore builds a ScanStore over conn.
func NewScanStore(conn *mmongo.Connection) *ScanStore {
	return &ScanStore{conn: conn}
}

// Put stores or replaces the scan for a document.
func (s *ScanStore) Put(ctx context.Context, scan customer.DocumentScan) error {
	db, err := s.conn.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("customer/mongo: get database: %w", err)
	}

	doc := scanDocument{
		DocumentID: scan.DocumentID,
		Filename:   scan.Filename,
		MimeType:   scan.MimeType,
		Data:       scan.Data,
		CapturedAt: scan.CapturedAt,
	}

	opts := options.Replace().SetUpsert(true)

	_, err = db.Collection("document_scans").ReplaceOne(ctx, bson.M{"documentId": scan.DocumentID}, doc, opts)
	if err != nil {
		return fmt.Errorf("customer/mongo: put scan: %w", err)
	}

	return nil
}

// Get returns the scan for a document, or (nil, nil) if none was uploaded.
func (s *ScanStore) Get(ctx context.Context, documentID string) (*customer.DocumentScan, error) {
	db, err := s.conn.GetDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("customer/mongo: get database: %w", err)
	}

	var doc scanDocument

	err = db.Collection("document_scans").FindOne(ctx, bson.M{"documentId": documentID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}

		return nil, fmt.Errorf("customer/mongo: get scan: %w", err)
	}

	scan := customer.DocumentScan{
		DocumentID: doc.DocumentID,
		Filename:   doc.Filename,
		MimeType:   doc.MimeType,
		Data:       doc.Data,
		CapturedAt: doc.CapturedAt,
	}

	return &scan, nil
}
