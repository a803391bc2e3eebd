// File path: internal/verified/recorder.go
package verified

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/embedding"
	"github.com/mattlimsiaco/trackwise-search/internal/llm"
)

// Recorder embeds and stores verified (question, SQL) pairs. The user query
// is normalized before embedding so later retrieval compares like with like;
// the SQL text is embedded as provided since it never enters a comparison.
type Recorder struct {
	store    *Store
	provider llm.Provider
}

func NewRecorder(store *Store, provider llm.Provider) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("verified store required")
	}
	if provider == nil {
		return nil, errors.New("llm provider required")
	}
	return &Recorder{store: store, provider: provider}, nil
}

func (r *Recorder) Verify(ctx context.Context, userQuery, sqlQuery string) (Outcome, error) {
	logger := common.Logger()
	vectors, err := r.provider.Embed(ctx, []string{embedding.Normalize(userQuery), sqlQuery})
	if err != nil {
		return "", fmt.Errorf("embed verified pair: %w", err)
	}
	if len(vectors) != 2 {
		return "", fmt.Errorf("embed verified pair: expected 2 vectors, got %d", len(vectors))
	}
	rec := Record{
		UserQuery:          userQuery,
		SQLQuery:           sqlQuery,
		UserQueryEmbedding: vectors[0],
		SQLQueryEmbedding:  vectors[1],
	}
	outcome, err := r.store.Append(ctx, rec)
	if err != nil {
		return "", err
	}
	logger.Info("verified: submission processed", "outcome", string(outcome), "index_size", r.store.Len())
	return outcome, nil
}
