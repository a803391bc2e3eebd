// File path: internal/retriever/retriever.go
package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/embedding"
	"github.com/mattlimsiaco/trackwise-search/internal/llm"
	"github.com/mattlimsiaco/trackwise-search/internal/verified"
)

const DefaultTopN = 3

// Match pairs a verified record with its cosine distance to the query.
type Match struct {
	Record   verified.Record
	Distance float64
}

// Retriever finds the verified queries most similar to a new user query so
// they can be replayed as in-context examples.
type Retriever struct {
	store    *verified.Store
	provider llm.Provider
}

func New(store *verified.Store, provider llm.Provider) (*Retriever, error) {
	if store == nil {
		return nil, errors.New("verified store required")
	}
	if provider == nil {
		return nil, errors.New("llm provider required")
	}
	return &Retriever{store: store, provider: provider}, nil
}

// Retrieve returns the topN closest verified records in ascending distance
// order. Ties keep the original index order. An empty index yields no matches
// and no error; topN greater than the index size returns every record.
func (r *Retriever) Retrieve(ctx context.Context, userQuery string, topN int) ([]Match, error) {
	logger := common.Logger()
	if topN <= 0 {
		topN = DefaultTopN
	}
	records := r.store.Records()
	if len(records) == 0 {
		logger.Debug("retriever: verified index empty")
		return nil, nil
	}
	vectors, err := r.provider.Embed(ctx, []string{embedding.Normalize(userQuery)})
	if err != nil {
		return nil, fmt.Errorf("embed user query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed user query: expected 1 vector, got %d", len(vectors))
	}
	queryVector := vectors[0]
	matches := make([]Match, len(records))
	for i, rec := range records {
		matches[i] = Match{Record: rec, Distance: embedding.CosineDistance(queryVector, rec.UserQueryEmbedding)}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if topN < len(matches) {
		matches = matches[:topN]
	}
	logger.Debug("retriever: matches selected", "index_size", len(records), "returned", len(matches))
	return matches, nil
}

// RenderContext formats matches as the textual example block handed to the
// LLM, in ascending distance order. No matches renders an empty string.
func RenderContext(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Here are some closely related queries to provide context:\n")
	for _, match := range matches {
		fmt.Fprintf(&b, "User Query: %s\nSQL Query: %s\n\n", match.Record.UserQuery, match.Record.SQLQuery)
	}
	return b.String()
}
