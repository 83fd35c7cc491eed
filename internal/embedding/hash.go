package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashModel prefixes the model identifier of HashEmbedder vectors.
const HashModel = "feature-hash"

// HashEmbedder is a local, deterministic embedder. It hashes lowercase word
// unigrams and adjacent bigrams into a signed feature vector and normalizes
// it. No network is involved, so it is safe on the request path.
type HashEmbedder struct {
	dims int
}

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder returns a HashEmbedder producing dims-length vectors.
func NewHashEmbedder(dims int) (*HashEmbedder, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("hash embedder dimensions %d: must be positive", dims)
	}
	return &HashEmbedder{dims: dims}, nil
}

// Dimensions implements Embedder.
func (h *HashEmbedder) Dimensions() int { return h.dims }

// Model implements Embedder.
func (h *HashEmbedder) Model() string { return fmt.Sprintf("%s-%d", HashModel, h.dims) }

// EmbedText implements Embedder.
func (h *HashEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return h.vector(text), nil
}

// EmbedTexts implements Embedder.
func (h *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dims)
	words := Tokenize(text)
	for i, w := range words {
		h.add(v, w, 1)
		if i > 0 {
			h.add(v, words[i-1]+" "+w, 0.5)
		}
	}
	return Normalize(v)
}

// add hashes feature into one bucket; a second hash bit picks the sign so
// collisions tend to cancel.
func (h *HashEmbedder) add(v []float32, feature string, weight float32) {
	f := fnv.New64a()
	f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

// Tokenize lowercases text and splits it on anything that is not a letter
// or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
