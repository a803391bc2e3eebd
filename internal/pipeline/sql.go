// File path: internal/pipeline/sql.go
package pipeline

import (
	"strings"
)

const fence = "```"

// ExtractionFormatError reports a model response whose fenced SQL block is
// absent or malformed. Surfacing it explicitly beats handing a sliced-up
// fragment of prose to the database.
type ExtractionFormatError struct {
	Response string
}

func (e *ExtractionFormatError) Error() string {
	return "sql extraction: no fenced sql block in model response"
}

// ExtractSQL pulls the SQL statement out of a model response fenced with
// triple backticks and cleans it for execution: the leading `sql` language
// tag is dropped (case-sensitive), trailing semicolons are stripped, newlines
// collapse to single spaces and escaped single quotes are unescaped. A
// response without a well-formed fence pair returns *ExtractionFormatError.
func ExtractSQL(response string) (string, error) {
	first := strings.Index(response, fence)
	if first < 0 {
		return "", &ExtractionFormatError{Response: response}
	}
	start := first + len(fence)
	// The closing fence must start after the opening one ends; a run of four
	// or five backticks makes the two occurrences overlap.
	last := strings.LastIndex(response, fence)
	if last < start {
		return "", &ExtractionFormatError{Response: response}
	}
	inner := response[start:last]
	inner = strings.TrimLeft(inner, " \t")
	if strings.HasPrefix(inner, "sql") {
		inner = inner[len("sql"):]
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return "", &ExtractionFormatError{Response: response}
	}
	inner = strings.TrimRight(inner, ";")
	inner = strings.ReplaceAll(inner, "\r\n", "\n")
	inner = strings.ReplaceAll(inner, "\n", " ")
	inner = strings.ReplaceAll(inner, `\'`, "'")
	return strings.TrimSpace(inner), nil
}
