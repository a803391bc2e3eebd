// File path: internal/embedding/embedding.go
package embedding

import (
	"math"
	"strings"
)

// Normalize reduces free text to the canonical key used for every embedding
// comparison in the system: lower-cased with every rune outside [a-z0-9_]
// removed. The same key must be produced before embedding a query and before
// embedding the corpus it is compared against, otherwise cosine distances
// between the two sides are not comparable.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CosineDistance returns 1 minus the cosine similarity of the two vectors;
// smaller means more similar. Vectors of mismatched length are compared over
// the shorter prefix. A zero-norm operand yields the maximum distance of 1.
func CosineDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
