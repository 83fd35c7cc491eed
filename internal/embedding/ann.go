package embedding

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/hazyhaar/horosvec"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// annOverfetch widens the ANN candidate set before exact rescoring and
// source-type filtering.
const annOverfetch = 4

// ANN wraps a horosvec Vamana index stored in the shared database. Graph
// candidates are rescored exactly against the persisted vectors, so results
// agree with brute force on the vectors they return. Until the first Rebuild
// creates the graph, searches go to brute force.
type ANN struct {
	mu     sync.RWMutex
	idx    *horosvec.Index
	store  types.VectorStore
	brute  *BruteForce
	built  bool
	logger *zap.Logger
}

var _ Backend = (*ANN)(nil)

// NewANN opens the horosvec index on db. Any failure means the capability
// is unavailable for this process.
func NewANN(db *sql.DB, store types.VectorStore, logger *zap.Logger) (*ANN, error) {
	if db == nil {
		return nil, &types.ConfigurationError{Capability: BackendANN, Err: types.ErrANNUnavailable}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	idx, err := horosvec.New(db, horosvec.DefaultConfig())
	if err != nil {
		return nil, &types.ConfigurationError{
			Capability: BackendANN,
			Err:        fmt.Errorf("%w: %w", types.ErrANNUnavailable, err),
		}
	}
	return &ANN{
		idx:    idx,
		store:  store,
		brute:  NewBruteForce(store),
		built:  idx.Count() > 0,
		logger: logger.Named("ann"),
	}, nil
}

// Name implements Backend.
func (a *ANN) Name() string { return BackendANN }

// Insert implements Backend. Before the first build the vectors only live
// in the store; Rebuild picks them up.
func (a *ANN) Insert(_ context.Context, embs []types.Embedding) error {
	if len(embs) == 0 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.built {
		return nil
	}
	vecs := make([][]float32, len(embs))
	ids := make([][]byte, len(embs))
	for i := range embs {
		vecs[i] = embs[i].Vector
		ids[i] = extID(embs[i].SourceType, embs[i].SourceID)
	}
	if err := a.idx.Insert(vecs, ids); err != nil {
		return fmt.Errorf("inserting into ANN index: %w", err)
	}
	return nil
}

// Search implements Backend.
func (a *ANN) Search(ctx context.Context, vec []float32, sourceType string, k int, minSim float64) ([]types.Match, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.built || k <= 0 {
		return a.brute.Search(ctx, vec, sourceType, k, minSim)
	}

	results, err := a.idx.Search(vec, k*annOverfetch)
	if err != nil {
		return nil, fmt.Errorf("searching ANN index: %w", err)
	}

	seen := make(map[string]bool, len(results))
	matches := make([]types.Match, 0, len(results))
	for _, r := range results {
		st, id, ok := splitExtID(r.ID)
		if !ok || (sourceType != "" && st != sourceType) {
			continue
		}
		key := st + "\x00" + id
		if seen[key] {
			continue
		}
		seen[key] = true

		emb, err := a.store.GetEmbedding(ctx, id, st)
		if err != nil {
			return nil, err
		}
		if emb == nil {
			continue
		}
		sim := Dot(vec, emb.Vector)
		if sim < minSim {
			continue
		}
		matches = append(matches, types.Match{SourceID: id, SourceType: st, Similarity: sim})
	}
	return topK(matches, k), nil
}

// Rebuild implements Backend. It rebuilds the graph from every stored
// vector while holding the write lock, so searches see either the old
// graph or the new one.
func (a *ANN) Rebuild(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	embs, err := a.store.LoadEmbeddings(ctx, "")
	if err != nil {
		return fmt.Errorf("loading vectors for rebuild: %w", err)
	}
	if len(embs) == 0 {
		a.built = false
		return nil
	}
	if err := a.idx.Build(ctx, &embeddingIter{embs: embs}); err != nil {
		return fmt.Errorf("building ANN index: %w", err)
	}
	a.built = true
	a.logger.Info("ANN index rebuilt", zap.Int("vectors", len(embs)))
	return nil
}

// Close implements Backend.
func (a *ANN) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.idx.Close()
}

// embeddingIter feeds stored embeddings to horosvec.Build.
type embeddingIter struct {
	embs []types.Embedding
	pos  int
}

func (it *embeddingIter) Next() ([]byte, []float32, bool) {
	if it.pos >= len(it.embs) {
		return nil, nil, false
	}
	e := &it.embs[it.pos]
	it.pos++
	return extID(e.SourceType, e.SourceID), e.Vector, true
}

func (it *embeddingIter) Reset() error {
	it.pos = 0
	return nil
}

// extID encodes the composite embedding key as a horosvec external ID.
func extID(sourceType, sourceID string) []byte {
	return []byte(sourceType + "\x00" + sourceID)
}

func splitExtID(b []byte) (sourceType, sourceID string, ok bool) {
	st, id, found := strings.Cut(string(b), "\x00")
	if !found || st == "" || id == "" {
		return "", "", false
	}
	return st, id, true
}
