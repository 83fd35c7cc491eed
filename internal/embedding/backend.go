package embedding

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// Backend names.
const (
	BackendBruteForce = "bruteforce"
	BackendANN        = "ann"
)

// Backend answers nearest-neighbor queries over persisted embeddings. The
// vectors themselves live in a types.VectorStore; a backend may keep its own
// acceleration structure on top.
type Backend interface {
	// Name identifies the backend.
	Name() string

	// Insert notifies the backend of embeddings that were just persisted.
	Insert(ctx context.Context, embs []types.Embedding) error

	// Search returns up to k matches of sourceType with similarity >= minSim,
	// most similar first. k <= 0 returns every match. An empty corpus yields
	// an empty slice.
	Search(ctx context.Context, vec []float32, sourceType string, k int, minSim float64) ([]types.Match, error)

	// Rebuild recreates the backend state from the persisted vectors.
	Rebuild(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// NewBackend chooses the backend once for the process. "bruteforce" always
// yields brute force. "ann" and "auto" try the ANN index on db and fall back
// to brute force permanently when it cannot be created; the returned error
// is then a *types.ConfigurationError describing the downgrade, and the
// backend is still usable.
func NewBackend(mode string, db *sql.DB, store types.VectorStore, logger *zap.Logger) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	brute := NewBruteForce(store)
	if mode == types.VectorBruteForce {
		return brute, nil
	}

	ann, err := NewANN(db, store, logger)
	if err != nil {
		logger.Warn("ANN index unavailable, using brute force for this process",
			zap.String("mode", mode), zap.Error(err))
		var cfgErr *types.ConfigurationError
		if !errors.As(err, &cfgErr) {
			err = &types.ConfigurationError{Capability: BackendANN, Err: err}
		}
		return brute, err
	}
	return ann, nil
}

// BruteForce scans every stored vector of the requested source type.
type BruteForce struct {
	store types.VectorStore
}

var _ Backend = (*BruteForce)(nil)

// NewBruteForce returns a brute-force backend over store.
func NewBruteForce(store types.VectorStore) *BruteForce {
	return &BruteForce{store: store}
}

// Name implements Backend.
func (b *BruteForce) Name() string { return BackendBruteForce }

// Insert implements Backend. Brute force reads the store directly, so there
// is nothing to update.
func (b *BruteForce) Insert(context.Context, []types.Embedding) error { return nil }

// Rebuild implements Backend.
func (b *BruteForce) Rebuild(context.Context) error { return nil }

// Close implements Backend.
func (b *BruteForce) Close() error { return nil }

// Search implements Backend.
func (b *BruteForce) Search(ctx context.Context, vec []float32, sourceType string, k int, minSim float64) ([]types.Match, error) {
	embs, err := b.store.LoadEmbeddings(ctx, sourceType)
	if err != nil {
		return nil, err
	}
	matches := make([]types.Match, 0, len(embs))
	for i := range embs {
		sim := Dot(vec, embs[i].Vector)
		if sim < minSim {
			continue
		}
		matches = append(matches, types.Match{
			SourceID:   embs[i].SourceID,
			SourceType: embs[i].SourceType,
			Similarity: sim,
		})
	}
	return topK(matches, k), nil
}

// topK sorts matches by similarity descending, keeping load order on ties,
// and truncates to k when k > 0.
func topK(matches []types.Match, k int) []types.Match {
	slices.SortStableFunc(matches, func(a, b types.Match) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
