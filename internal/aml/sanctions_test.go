package aml_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianledger/corebank/internal/aml"
)

func TestScreener_ScreenByID_ExactMatch(t *testing.T) {
	s := aml.Screener{
		Entities: []aml.SanctionedEntity{
			{ListEntryID: "SDN-42", NationalID: "A123", PassportNo: "P999"},
		},
	}

	matches := s.ScreenByID("A123", "")
	require.Len(t, matches, 1)
	assert.Equal(t, 100, matches[0].MatchScore)
	assert.Equal(t, aml.MatchStatusPotential, matches[0].Status)

	assert.Empty(t, s.ScreenByID("unknown", ""))
}

func TestScreener_ScreenByName_FuzzyMatchAboveThreshold(t *testing.T) {
	s := aml.Screener{
		FuzzyThreshold: 80,
		Entities: []aml.SanctionedEntity{
			{ListEntryID: "SDN-1", FullName: "Vladimir Petrovich"},
		},
	}

	matches := s.ScreenByName("Vladimir Petrovitch")
	require.Len(t, matches, 1)
	assert.GreaterOrEqual(t, matches[0].MatchScore, 80)
}

func TestScreener_ScreenByName_BelowThresholdNoMatch(t *testing.T) {
	s := aml.Screener{
		FuzzyThreshold: 90,
		Entities: []aml.SanctionedEntity{
			{ListEntryID: "SDN-1", FullName: "Completely Different Name"},
		},
	}

	assert.Empty(t, s.ScreenByName("Someone Else Entirely"))
}

func TestScreener_IngestCSV_PerRowFailureDoesNotAbortBatch(t *testing.T) {
	csvData := "SDN-1,John Smith,ID-1,P-1,US\n" +
		"bad row with too many,columns,here,one,two,three\n" +
		"SDN-2,Jane Doe,ID-2,P-2,GB\n"

	var s aml.Screener

	result, err := s.IngestCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Len(t, s.Entities, 2)
}
