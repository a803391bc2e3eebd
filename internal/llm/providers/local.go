// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

const localVectorDim = 64

// LocalProvider is an offline stand-in used when no API key is configured.
// Embeddings are deterministic bag-of-trigram hashes, so identical text maps
// to identical vectors and lexically similar text lands nearby.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	last := req.Messages[len(req.Messages)-1].Content
	return "[local-stub] " + strings.TrimSpace(last), nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float64, error) {
	vectors := make([][]float64, len(input))
	for i, text := range input {
		vectors[i] = localVector(text)
	}
	return vectors, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}

func localVector(text string) []float64 {
	vec := make([]float64, localVectorDim)
	runes := []rune(text)
	if len(runes) == 0 {
		return vec
	}
	for i := 0; i < len(runes); i++ {
		end := i + 3
		if end > len(runes) {
			end = len(runes)
		}
		h := fnv.New32a()
		h.Write([]byte(string(runes[i:end])))
		vec[h.Sum32()%localVectorDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		scale := 1 / math.Sqrt(norm)
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
