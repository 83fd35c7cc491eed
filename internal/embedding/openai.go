package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. It is only
// built when configured and is meant for offline indexing, not the request
// path.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder returns an embedder for model. baseURL may be empty for
// the public API. A missing key is a configuration error.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dims int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, &types.ConfigurationError{
			Capability: "openai embedder",
			Err:        fmt.Errorf("missing API key: %w", types.ErrEmbedderUnavailable),
		}
	}
	if dims <= 0 {
		return nil, fmt.Errorf("openai embedder dimensions %d: must be positive", dims)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dims:   dims,
	}, nil
}

// Dimensions implements Embedder.
func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

// Model implements Embedder.
func (e *OpenAIEmbedder) Model() string { return e.model }

// EmbedText implements Embedder.
func (e *OpenAIEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts implements Embedder. Returned vectors are renormalized locally.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dims,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch: expected %d, received %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, errors.New("embedding response index out of range")
		}
		if len(d.Embedding) != e.dims {
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d: %w",
				d.Index, len(d.Embedding), e.dims, types.ErrDimensionMismatch)
		}
		out[d.Index] = Normalize(d.Embedding)
	}
	return out, nil
}
