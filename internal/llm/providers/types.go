// File path: internal/llm/providers/types.go
package providers

import (
	"context"
	"fmt"
)

type Message struct {
	Role    string
	Content string
}

// ChatRequest carries a full prompt for a single completion call. Temperature
// is optional; nil leaves the model default in place.
type ChatRequest struct {
	Messages    []Message
	Temperature *float64
}

type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
	Embed(ctx context.Context, input []string) ([][]float64, error)
	Name() string
}

// ProviderError wraps a failed remote call (network, auth, rate limit). The
// failure is scoped to the request that triggered it; callers surface it and
// move on.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
