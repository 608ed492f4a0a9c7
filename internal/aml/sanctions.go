package aml

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/meridianledger/corebank/internal/platform/apperr"
)

// MatchStatus is a SanctionMatch's disposition.
type MatchStatus string

const (
	MatchStatusPotential     MatchStatus = "POTENTIAL"
	MatchStatusConfirmed     MatchStatus = "CONFIRMED"
	MatchStatusFalsePositive MatchStatus = "FALSE_POSITIVE"
)

// SanctionedEntity is one row of a sanctions list, ingested via CSV
// bulk import.
type SanctionedEntity struct {
	ListEntryID  string
	FullName     string
	NationalID   string
	PassportNo   string
	CountryCode  string
}

// SanctionMatch is a candidate hit between a screened subject and a
// SanctionedEntity.
type SanctionMatch struct {
	ID              string
	ListEntryID     string
	SubjectName     string
	MatchScore      int
	Status          MatchStatus
}

// Screener screens subjects against an in-memory sanctions list: exact
// match on national id/passport, fuzzy match on name.
//
// The list is held as a plain slice rather than behind a search index:
// deployments screen against a bounded thousands-of-entries list, not a
// live global registry.
type Screener struct {
	Entities []SanctionedEntity
	// FuzzyThreshold is the minimum name-similarity score (0..100) for a
	// fuzzy match to surface as a SanctionMatch candidate.
	FuzzyThreshold int
}

// ScreenByID returns a score-100 match if nationalID or passportNo exactly
// matches a list entry; like every other candidate it is recorded as
// POTENTIAL.
func (s Screener) ScreenByID(nationalID, passportNo string) []SanctionMatch {
	var out []SanctionMatch

	for _, e := range s.Entities {
		if (nationalID != "" && e.NationalID == nationalID) || (passportNo != "" && e.PassportNo == passportNo) {
			out = append(out, SanctionMatch{
				ListEntryID: e.ListEntryID,
				MatchScore:  100,
				Status:      MatchStatusPotential,
			})
		}
	}

	return out
}

// ScreenByName fuzzy-matches name against every entity's full name, using a
// normalized Levenshtein similarity, and returns candidates at or above
// FuzzyThreshold.
func (s Screener) ScreenByName(name string) []SanctionMatch {
	var out []SanctionMatch

	normalized := normalizeName(name)

	for _, e := range s.Entities {
		score := nameSimilarity(normalized, normalizeName(e.FullName))
		if score >= s.FuzzyThreshold {
			out = append(out, SanctionMatch{
				ListEntryID: e.ListEntryID,
				SubjectName: name,
				MatchScore:  score,
				Status:      MatchStatusPotential,
			})
		}
	}

	return out
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// nameSimilarity returns a 0..100 score derived from normalized
// Levenshtein edit distance.
func nameSimilarity(a, b string) int {
	if a == "" && b == "" {
		return 100
	}

	dist := levenshtein(a, b)
	maxLen := len(a)

	if len(b) > maxLen {
		maxLen = len(b)
	}

	if maxLen == 0 {
		return 0
	}

	similarity := 100 - (dist*100)/maxLen
	if similarity < 0 {
		similarity = 0
	}

	return similarity
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)

	prev := make([]int, m+1)
	curr := make([]int, m+1)

	for j := 0; j <= m; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		curr[0] = i

		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[m]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}

// IngestResult reports per-row outcomes of a bulk CSV sanctions-list
// load: one bad row is counted and skipped, never aborting the batch.
type IngestResult struct {
	SuccessCount int
	FailureCount int
	Failures     []string
}

// IngestCSV reads rows of listEntryId,fullName,nationalId,passportNo,countryCode
// from r, appending each valid row to Entities and counting failures,
// per-row, without aborting the whole batch on one bad row.
func (s *Screener) IngestCSV(ctx context.Context, r io.Reader) (IngestResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var result IngestResult

	for {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			result.FailureCount++
			result.Failures = append(result.Failures, err.Error())

			continue
		}

		if len(record) != 5 {
			result.FailureCount++
			result.Failures = append(result.Failures, fmt.Sprintf("expected 5 columns, got %d", len(record)))

			continue
		}

		s.Entities = append(s.Entities, SanctionedEntity{
			ListEntryID: record[0],
			FullName:    record[1],
			NationalID:  record[2],
			PassportNo:  record[3],
			CountryCode: record[4],
		})

		result.SuccessCount++
	}

	return result, nil
}

func ErrSanctionMatchNotFound(id string) *apperr.Error {
	return apperr.NotFound("SanctionMatch", id)
}
