// Package mongo stores free-text AmlCase investigator notes in MongoDB:
// a working investigation case accumulates a running log of analyst notes
// the relational aml_case table has no good column for.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meridianledger/corebank/internal/aml"
	"github.com/meridianledger/corebank/internal/platform/mmongo"
)

// noteDocument is the bson-tagged storage shape for an aml.CaseNote.
type noteDocument struct {
	CaseID    string    `bson:"caseId"`
	Author    string    `bson:"author"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"createdAt"`
}

// CaseNoteStore persists aml.CaseNote documents in a "case_notes"
// collection, implementing aml.CaseNoteStore.
type CaseNoteStore struct {
	conn *mmongo.Connection
}

// NewCaseNoteStore builds a CaseNoteStore over conn.
func NewCaseNoteStore(conn *mmongo.Connection) *CaseNoteStore {
	return &CaseNoteStore{conn: conn}
}

// AddNote appends a note to a case's investigation log.
func (s *CaseNoteStore) AddNote(ctx context.Context, n aml.CaseNote) error {
	db, err := s.conn.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("aml/mongo: get database: %w", err)
	}

	doc := noteDocument{CaseID: n.CaseID, Author: n.Author, Text: n.Text, CreatedAt: n.CreatedAt}
	if _, err := db.Collection("case_notes").InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("aml/mongo: insert note: %w", err)
	}

	return nil
}

// ListNotes returns every note recorded against caseID, oldest first.
func (s *CaseNoteStore) ListNotes(ctx context.Context, caseID string) ([]aml.CaseNote, error) {
	db, err := s.conn.GetDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("aml/mongo: get database: %w", err)
	}

	cur, err := db.Collection("case_notes").Find(ctx, bson.M{"caseId": caseID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("aml/mongo: find notes: %w", err)
	}
	defer cur.Close(ctx)

	var docs []noteDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("aml/mongo: decode notes: %w", err)
	}

	notes := make([]aml.CaseNote, len(docs))
	for i, d := range docs {
		notes[i] = aml.CaseNote{CaseID: d.CaseID, Author: d.Author, Text: d.Text, CreatedAt: d.CreatedAt}
	}

	return notes, nil
}
