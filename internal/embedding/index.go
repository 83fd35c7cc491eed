package embedding

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// DefaultBatchSize is how many texts one pool task embeds.
const DefaultBatchSize = 32

// Item is one text to embed under a key.
type Item struct {
	SourceID   string
	SourceType string
	Text       string
}

// Index persists embeddings and answers similarity queries through the
// backend chosen at startup.
type Index struct {
	store     types.VectorStore
	backend   Backend
	embedder  Embedder
	pool      *ants.Pool
	batchSize int
	minSim    float64
	logger    *zap.Logger
}

// IndexOption configures an Index.
type IndexOption func(*Index) error

// WithIndexLogger sets the logger.
func WithIndexLogger(l *zap.Logger) IndexOption {
	return func(ix *Index) error {
		if l != nil {
			ix.logger = l.Named("embedding")
		}
		return nil
	}
}

// WithPoolSize sets the number of concurrent embedding workers.
func WithPoolSize(n int) IndexOption {
	return func(ix *Index) error {
		if n <= 0 {
			return nil
		}
		ix.pool.Release()
		pool, err := ants.NewPool(n)
		if err != nil {
			return fmt.Errorf("creating embedding pool: %w", err)
		}
		ix.pool = pool
		return nil
	}
}

// WithBatchSize sets how many texts a single worker embeds at once.
func WithBatchSize(n int) IndexOption {
	return func(ix *Index) error {
		if n > 0 {
			ix.batchSize = n
		}
		return nil
	}
}

// WithMinSimilarity sets the threshold Similar uses when the caller passes
// a negative minSim.
func WithMinSimilarity(v float64) IndexOption {
	return func(ix *Index) error {
		ix.minSim = v
		return nil
	}
}

// NewIndex returns an Index. Call Close to release the worker pool and
// the backend.
func NewIndex(store types.VectorStore, backend Backend, embedder Embedder, opts ...IndexOption) (*Index, error) {
	if store == nil {
		return nil, types.ErrStoreRequired
	}
	if embedder == nil {
		return nil, &types.ConfigurationError{Capability: "embedder", Err: types.ErrEmbedderUnavailable}
	}
	if backend == nil {
		backend = NewBruteForce(store)
	}

	size := runtime.NumCPU() / 2
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("creating embedding pool: %w", err)
	}

	ix := &Index{
		store:     store,
		backend:   backend,
		embedder:  embedder,
		pool:      pool,
		batchSize: DefaultBatchSize,
		minSim:    types.DefaultMinSimilarity,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			ix.pool.Release()
			return nil, err
		}
	}
	return ix, nil
}

// Backend returns the name of the active backend.
func (ix *Index) Backend() string { return ix.backend.Name() }

// Store persists e, replacing any row with the same key.
func (ix *Index) Store(ctx context.Context, e types.Embedding) error {
	return ix.StoreBatch(ctx, []types.Embedding{e})
}

// StoreBatch persists embs in one transaction and then hands them to the
// backend.
func (ix *Index) StoreBatch(ctx context.Context, embs []types.Embedding) error {
	if len(embs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range embs {
		if embs[i].Dimensions == 0 {
			embs[i].Dimensions = len(embs[i].Vector)
		}
		if embs[i].CreatedAt.IsZero() {
			embs[i].CreatedAt = now
		}
	}
	if err := ix.store.UpsertEmbeddings(ctx, embs); err != nil {
		return fmt.Errorf("storing embeddings: %w", err)
	}
	if err := ix.backend.Insert(ctx, embs); err != nil {
		ix.logger.Warn("backend insert failed; rebuild to resync", zap.Error(err))
	}
	return nil
}

// Embed vectorizes text and stores it under (sourceID, sourceType).
func (ix *Index) Embed(ctx context.Context, sourceID, sourceType, text string) (*types.Embedding, error) {
	vec, err := ix.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding %s/%s: %w", sourceType, sourceID, err)
	}
	e := types.Embedding{
		SourceID:   sourceID,
		SourceType: sourceType,
		Text:       text,
		Vector:     vec,
		Model:      ix.embedder.Model(),
	}
	if err := ix.Store(ctx, e); err != nil {
		return nil, err
	}
	return &e, nil
}

// EmbedBatch vectorizes items in chunks on the worker pool, then stores the
// whole batch in one transaction. Nothing is stored if any chunk fails.
func (ix *Index) EmbedBatch(ctx context.Context, items []Item) ([]types.Embedding, error) {
	if len(items) == 0 {
		return []types.Embedding{}, nil
	}

	vectors := make([][]float32, len(items))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for start := 0; start < len(items); start += ix.batchSize {
		end := min(start+ix.batchSize, len(items))
		texts := make([]string, 0, end-start)
		for _, it := range items[start:end] {
			texts = append(texts, it.Text)
		}

		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			vecs, err := ix.embedder.EmbedTexts(ctx, texts)
			if err == nil && len(vecs) != len(texts) {
				err = fmt.Errorf("embedding result mismatch: expected %d, received %d", len(texts), len(vecs))
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			copy(vectors[start:], vecs)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submitting embedding task: %w", err)
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, fmt.Errorf("embedding batch: %w", firstErr)
	}

	embs := make([]types.Embedding, len(items))
	model := ix.embedder.Model()
	for i, it := range items {
		embs[i] = types.Embedding{
			SourceID:   it.SourceID,
			SourceType: it.SourceType,
			Text:       it.Text,
			Vector:     vectors[i],
			Model:      model,
		}
	}
	if err := ix.StoreBatch(ctx, embs); err != nil {
		return nil, err
	}
	ix.logger.Debug("embedded batch", zap.Int("items", len(items)))
	return embs, nil
}

// IndexCatalog embeds the descriptor text of every component.
func (ix *Index) IndexCatalog(ctx context.Context, comps []types.Component) (int, error) {
	items := make([]Item, len(comps))
	for i := range comps {
		items[i] = Item{SourceID: comps[i].ID, SourceType: types.SourceComponent, Text: comps[i].Describe()}
	}
	embs, err := ix.EmbedBatch(ctx, items)
	if err != nil {
		return 0, err
	}
	ix.logger.Info("indexed catalog", zap.Int("components", len(embs)), zap.String("backend", ix.backend.Name()))
	return len(embs), nil
}

// Similar embeds text and returns up to k nearest stored sources of
// sourceType. k <= 0 returns every match above the threshold. A negative
// minSim selects the index default.
func (ix *Index) Similar(ctx context.Context, text, sourceType string, k int, minSim float64) ([]types.Match, error) {
	vec, err := ix.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if minSim < 0 {
		minSim = ix.minSim
	}
	return ix.SimilarVector(ctx, vec, sourceType, k, minSim)
}

// SimilarVector searches with an already computed query vector. A vector
// whose length differs from the stored vectors is rejected with
// ErrDimensionMismatch.
func (ix *Index) SimilarVector(ctx context.Context, vec []float32, sourceType string, k int, minSim float64) ([]types.Match, error) {
	dim, err := ix.store.EmbeddingDimensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stored dimension: %w", err)
	}
	if dim > 0 && len(vec) != dim {
		return nil, fmt.Errorf("query vector has %d dimensions, stored vectors have %d: %w",
			len(vec), dim, types.ErrDimensionMismatch)
	}
	matches, err := ix.backend.Search(ctx, vec, sourceType, k, minSim)
	if err != nil {
		return nil, fmt.Errorf("searching %s backend: %w", ix.backend.Name(), err)
	}
	return matches, nil
}

// Rebuild recreates the backend state from persisted vectors. Callers must
// not run two rebuilds at once.
func (ix *Index) Rebuild(ctx context.Context) error {
	start := time.Now()
	if err := ix.backend.Rebuild(ctx); err != nil {
		return err
	}
	ix.logger.Info("index rebuilt", zap.String("backend", ix.backend.Name()), zap.Duration("took", time.Since(start)))
	return nil
}

// Get returns the stored embedding for the key, or nil.
func (ix *Index) Get(ctx context.Context, sourceID, sourceType string) (*types.Embedding, error) {
	return ix.store.GetEmbedding(ctx, sourceID, sourceType)
}

// Close releases the worker pool and the backend.
func (ix *Index) Close() error {
	ix.pool.Release()
	return ix.backend.Close()
}
