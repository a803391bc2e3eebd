// File path: internal/pipeline/extraction_test.go
package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCandidateExtraction(t *testing.T) {
	response := "Tables: Product Inquiries, MIR\n" +
		"Amount of Tables: 2\n" +
		"Columns: Date Opened, CIC, Status\n" +
		"Amount of Columns: 3\n"
	got := ParseCandidateExtraction(response)
	assert.Equal(t, []string{"Product Inquiries", "MIR"}, got.TableNames)
	assert.Equal(t, 2, got.TableCount)
	assert.Equal(t, []string{"Date Opened", "CIC", "Status"}, got.ColumnNames)
	assert.Equal(t, 3, got.ColumnCount)
}

func TestParseCandidateExtractionCaseAndDecoration(t *testing.T) {
	// Models decorate keys with markdown; the parser strips it.
	response := "**tables**: Product Inquiries\n" +
		"AMOUNT OF TABLES: 1\n" +
		"\"Columns\": \"Date Opened\"\n" +
		"amount of columns: 1.\n"
	got := ParseCandidateExtraction(response)
	assert.Equal(t, []string{"Product Inquiries"}, got.TableNames)
	assert.Equal(t, 1, got.TableCount)
	assert.Equal(t, []string{"Date Opened"}, got.ColumnNames)
	assert.Equal(t, 1, got.ColumnCount)
}

func TestParseCandidateExtractionNeverFails(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{name: "empty", response: ""},
		{name: "prose only", response: "I could not find any relevant tables for this question."},
		{name: "malformed counts", response: "Tables: A\nAmount of Tables: several\nColumns:\nAmount of Columns: -1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseCandidateExtraction(tc.response)
			assert.Equal(t, 0, got.TableCount)
			assert.Equal(t, 0, got.ColumnCount)
			assert.Empty(t, got.ColumnNames)
		})
	}
}

func TestParseCandidateExtractionCountMismatchTolerated(t *testing.T) {
	got := ParseCandidateExtraction("Tables: A, B, C\nAmount of Tables: 1")
	assert.Len(t, got.TableNames, 3)
	assert.Equal(t, 1, got.TableCount)
}

func TestParseCandidateExtractionLastLineWins(t *testing.T) {
	got := ParseCandidateExtraction("Tables: A\nTables: B")
	assert.Equal(t, []string{"B"}, got.TableNames)
}
