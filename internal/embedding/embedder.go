// Package embedding maps text to unit vectors, persists them, and answers
// nearest-neighbor queries through an ANN or brute-force backend chosen once
// at startup.
package embedding

import (
	"context"
	"math"
)

// Embedder turns text into fixed-dimension vectors. Implementations must be
// safe for concurrent use and return unit-normalized vectors.
type Embedder interface {
	// EmbedText embeds a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds texts in order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of every returned vector.
	Dimensions() int

	// Model identifies the embedding model for stored rows.
	Model() string
}

// Normalize scales v to unit length in place and returns it. A zero vector
// is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Dot returns the dot product of a and b over their common length. For
// unit vectors this is the cosine similarity.
func Dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
