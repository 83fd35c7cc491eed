package types

import "context"

// GraphStore holds components, compositions, and their attribute edges.
// The SQLite backend and the in-memory snapshot both implement it with
// identical query semantics.
type GraphStore interface {
	// Seed inserts components only when the store holds none. The check and
	// the insert are atomic. Returns the number inserted (0 when already
	// populated).
	Seed(ctx context.Context, components []Component) (int, error)

	// SeedCompositions is Seed for compositions.
	SeedCompositions(ctx context.Context, compositions []Composition) (int, error)

	// GetAll returns every component in catalog insertion order.
	GetAll(ctx context.Context) ([]Component, error)

	// Get returns the component with id, or nil when there is none.
	Get(ctx context.Context, id string) (*Component, error)

	// Query returns components matching filter in insertion order.
	Query(ctx context.Context, filter Filter) ([]Component, error)

	// Count returns the number of stored components.
	Count(ctx context.Context) (int, error)

	// Compositions returns every composition in registration order.
	Compositions(ctx context.Context) ([]Composition, error)

	// GetComposition returns the composition with id, or nil when there is none.
	GetComposition(ctx context.Context, id string) (*Composition, error)
}

// FeedbackStore is the append-only outcome ledger.
type FeedbackStore interface {
	// Record appends rec and returns its ID. Records are never mutated.
	Record(ctx context.Context, rec FeedbackRecord) (string, error)

	// Aggregate summarizes rows for componentType. A nil style aggregates
	// across all styles; a non-nil style matches by exact equality.
	Aggregate(ctx context.Context, componentType string, style *string) (FeedbackAggregate, error)

	// AggregateExact summarizes rows whose style equals style exactly; a nil
	// style matches only rows recorded without a style.
	AggregateExact(ctx context.Context, componentType string, style *string) (FeedbackAggregate, error)

	// Counts returns the feedback volume counters.
	Counts(ctx context.Context) (FeedbackVolume, error)
}

// PatternStore persists code patterns for the promotion loop.
type PatternStore interface {
	// ObservePattern records one sighting of a skeleton with its score and
	// applies the promotion rule atomically. Returns the updated pattern and
	// whether this sighting promoted it.
	ObservePattern(ctx context.Context, p CodePattern, score float64) (*CodePattern, bool, error)

	// GetPattern returns the pattern for hash, or nil when there is none.
	GetPattern(ctx context.Context, hash string) (*CodePattern, error)

	// ListPatterns returns patterns, optionally only the promoted ones,
	// ordered by frequency descending.
	ListPatterns(ctx context.Context, promotedOnly bool) ([]CodePattern, error)
}

// VectorStore persists embeddings keyed by (sourceID, sourceType).
type VectorStore interface {
	// UpsertEmbeddings writes all embeddings in one transaction; replays
	// overwrite.
	UpsertEmbeddings(ctx context.Context, embs []Embedding) error

	// GetEmbedding returns the embedding, or nil when there is none.
	GetEmbedding(ctx context.Context, sourceID, sourceType string) (*Embedding, error)

	// LoadEmbeddings returns all embeddings of sourceType; an empty
	// sourceType loads every embedding.
	LoadEmbeddings(ctx context.Context, sourceType string) ([]Embedding, error)

	// EmbeddingDimensions returns the dimension of stored vectors, or 0 when
	// none are stored.
	EmbeddingDimensions(ctx context.Context) (int, error)
}
