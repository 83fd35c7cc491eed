package types

import "time"

// Source types for embeddings.
const (
	SourceComponent   = "component"
	SourceComposition = "composition"
	SourcePattern     = "pattern"
	SourcePrompt      = "prompt"
)

// Embedding is a persisted text vector keyed by (SourceID, SourceType).
// Vector is unit-normalized, so cosine similarity is a dot product.
type Embedding struct {
	SourceID   string    `json:"source_id"`
	SourceType string    `json:"source_type"`
	Text       string    `json:"text"`
	Vector     []float32 `json:"vector"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks key fields and that Dimensions agrees with the vector.
func (e *Embedding) Validate() error {
	if e.SourceID == "" || e.SourceType == "" {
		return ErrInvalidID
	}
	if len(e.Vector) == 0 {
		return ErrEmptyVector
	}
	if e.Dimensions != 0 && e.Dimensions != len(e.Vector) {
		return ErrDimensionMismatch
	}
	return nil
}

// Match is one nearest-neighbor hit.
type Match struct {
	SourceID   string  `json:"source_id"`
	SourceType string  `json:"source_type"`
	Similarity float64 `json:"similarity"`
}
