// File path: internal/schema/resolver.go
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/embedding"
	"github.com/mattlimsiaco/trackwise-search/internal/llm"
)

// Resolver grounds free-text table and column mentions produced by the LLM in
// the exact identifiers of the real schema. Nearest-neighbor search over name
// embeddings bridges synonyms, casing and spacing differences that defeat
// exact or substring matching.
type Resolver struct {
	index    *Index
	provider llm.Provider
}

func NewResolver(index *Index, provider llm.Provider) (*Resolver, error) {
	if index == nil {
		return nil, errors.New("schema index required")
	}
	if provider == nil {
		return nil, errors.New("llm provider required")
	}
	return &Resolver{index: index, provider: provider}, nil
}

// FindTables maps each candidate name to its nearest real table by cosine
// distance, deduplicating across candidates. countHint comes from the LLM's
// self-reported table count and only bounds how many distinct tables are
// accepted; zero or a mismatch with the candidate list is tolerated.
func (r *Resolver) FindTables(ctx context.Context, candidates []string, countHint int) ([]string, error) {
	logger := common.Logger()
	tables := r.index.Tables()
	if len(tables) == 0 || len(candidates) == 0 {
		return nil, nil
	}
	cleaned, keep := cleanCandidates(candidates)
	if len(cleaned) == 0 {
		return nil, nil
	}
	vectors, err := r.provider.Embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("embed table candidates: %w", err)
	}
	if len(vectors) != len(cleaned) {
		return nil, fmt.Errorf("embed table candidates: expected %d vectors, got %d", len(cleaned), len(vectors))
	}
	var resolved []string
	seen := make(map[string]struct{})
	for i := range vectors {
		if countHint > 0 && len(resolved) >= countHint {
			break
		}
		best := nearestTable(tables, vectors[i])
		if best == "" {
			continue
		}
		if _, dup := seen[best]; dup {
			continue
		}
		seen[best] = struct{}{}
		resolved = append(resolved, best)
	}
	logger.Debug("schema: tables resolved", "candidates", keep, "resolved", resolved, "count_hint", countHint)
	return resolved, nil
}

// FindColumns maps each candidate column name to its nearest real column
// restricted to the already-resolved table set. Duplicate (table, column)
// pairs collapse; every returned column belongs to one of the given tables.
func (r *Resolver) FindColumns(ctx context.Context, candidates []string, countHint int, tables []string) ([]ColumnEmbedding, error) {
	logger := common.Logger()
	scope := r.index.TableColumns(tables)
	if len(scope) == 0 || len(candidates) == 0 {
		return nil, nil
	}
	cleaned, _ := cleanCandidates(candidates)
	if len(cleaned) == 0 {
		return nil, nil
	}
	vectors, err := r.provider.Embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("embed column candidates: %w", err)
	}
	if len(vectors) != len(cleaned) {
		return nil, fmt.Errorf("embed column candidates: expected %d vectors, got %d", len(cleaned), len(vectors))
	}
	var resolved []ColumnEmbedding
	seen := make(map[string]struct{})
	for i := range vectors {
		if countHint > 0 && len(resolved) >= countHint {
			break
		}
		best, ok := nearestColumn(scope, vectors[i])
		if !ok {
			continue
		}
		key := best.TableName + "\x00" + best.ColumnName
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		resolved = append(resolved, best)
	}
	logger.Debug("schema: columns resolved", "resolved", len(resolved), "tables", tables, "count_hint", countHint)
	return resolved, nil
}

// DescribeColumns renders the grounding list passed verbatim into the SQL
// generation prompt, one ("column_name", datatype, table_name) tuple per line.
func DescribeColumns(cols []ColumnEmbedding) string {
	var b strings.Builder
	for _, col := range cols {
		fmt.Fprintf(&b, "(%q, %s, %s)\n", col.ColumnName, col.Datatype, col.TableName)
	}
	return b.String()
}

func cleanCandidates(candidates []string) (cleaned []string, kept []string) {
	for _, candidate := range candidates {
		normalized := embedding.Normalize(candidate)
		if normalized == "" {
			continue
		}
		cleaned = append(cleaned, normalized)
		kept = append(kept, candidate)
	}
	return cleaned, kept
}

// nearestTable picks the table at minimum cosine distance; equal distances
// resolve to the lexicographically smallest table name.
func nearestTable(tables []TableEmbedding, vector []float64) string {
	best := ""
	bestDist := 0.0
	for _, table := range tables {
		dist := embedding.CosineDistance(vector, table.Embedding)
		switch {
		case best == "" || dist < bestDist:
			best = table.TableName
			bestDist = dist
		case dist == bestDist && table.TableName < best:
			best = table.TableName
		}
	}
	return best
}

func nearestColumn(columns []ColumnEmbedding, vector []float64) (ColumnEmbedding, bool) {
	var best ColumnEmbedding
	found := false
	bestDist := 0.0
	for _, col := range columns {
		dist := embedding.CosineDistance(vector, col.Embedding)
		switch {
		case !found || dist < bestDist:
			best = col
			bestDist = dist
			found = true
		case dist == bestDist && columnKey(col) < columnKey(best):
			best = col
		}
	}
	return best, found
}

func columnKey(col ColumnEmbedding) string {
	return col.TableName + "\x00" + col.ColumnName
}
