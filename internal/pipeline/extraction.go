// File path: internal/pipeline/extraction.go
package pipeline

import (
	"strconv"
	"strings"
)

// CandidateExtraction holds the free-text table and column mentions parsed
// from the first LLM response. The counts are the model's self-reported
// totals and may disagree with the parsed lists; they are advisory only and
// never validated against the sequence lengths.
type CandidateExtraction struct {
	TableNames  []string
	TableCount  int
	ColumnNames []string
	ColumnCount int
}

// ParseCandidateExtraction applies a line-oriented grammar to the model
// response:
//
//	Tables: <name>[, <name>...]
//	Amount of Tables: <int>
//	Columns: <name>[, <name>...]
//	Amount of Columns: <int>
//
// Keys match case-insensitively; missing lines leave the zero value and a
// malformed count parses as zero. Parsing never fails: the downstream
// resolver tolerates empty candidate lists.
func ParseCandidateExtraction(text string) CandidateExtraction {
	var out CandidateExtraction
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		switch key {
		case "tables":
			out.TableNames = splitList(value)
		case "amount of tables":
			out.TableCount = parseCount(value)
		case "columns":
			out.ColumnNames = splitList(value)
		case "amount of columns":
			out.ColumnCount = parseCount(value)
		}
	}
	return out
}

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(strings.Trim(line[:idx], `"*# `)))
	value = strings.TrimSpace(line[idx+1:])
	return key, value, true
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"`))
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func parseCount(value string) int {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.Trim(fields[0], `".`))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
