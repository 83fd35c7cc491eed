// Package engine wires the stores, the indexes and the ranking components
// into one handle with explicit Open and Close.
package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/internal/catalog"
	"github.com/mesh-intelligence/motif/internal/embedding"
	"github.com/mesh-intelligence/motif/internal/memstore"
	"github.com/mesh-intelligence/motif/internal/pattern"
	"github.com/mesh-intelligence/motif/internal/rerank"
	"github.com/mesh-intelligence/motif/internal/search"
	"github.com/mesh-intelligence/motif/internal/sqlite"
	"github.com/mesh-intelligence/motif/pkg/types"
)

// Engine holds every component of one process. Its components are safe
// for concurrent use once Open returns.
type Engine struct {
	Config types.Config

	// Graph serves components and compositions. It is the SQLite store
	// unless the backend is "memory" or a catalog load fell back.
	Graph types.GraphStore

	// Store holds feedback, patterns and vectors. It is nil when the engine
	// is degraded.
	Store *sqlite.Backend

	// Feedback and Pattern are Store, or empty read-only stand-ins while
	// degraded.
	Feedback types.FeedbackStore
	Pattern  types.PatternStore

	// Index is nil while degraded; search then skips semantic annotation.
	Index    *embedding.Index
	Search   *search.Searcher
	Resolver *search.Resolver
	Rerank   *rerank.Reranker
	Patterns *pattern.Detector

	// Loaded reports the catalog load performed by Open.
	Loaded catalog.LoadResult

	// Degraded is set when the durable store could not be attached and the
	// catalog is served from memory.
	Degraded bool

	attachErr error
	logger    *zap.Logger
}

// ErrDegraded is returned by operations that need the durable store while
// the engine serves the catalog from memory.
var ErrDegraded = errors.New("durable store unavailable, serving catalog from memory")

// Option configures Open.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	embedder embedding.Embedder
	baseURL  string
}

// WithLogger sets the root logger. Components log under named children.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEmbedder overrides the embedder chosen from the configuration.
func WithEmbedder(e embedding.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithOpenAIBaseURL points the remote embedder at a compatible endpoint.
func WithOpenAIBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// Open attaches the store in cfg.DataDir and builds the engine. When cat
// is non-nil it is loaded into the graph store first; a populated store is
// left alone. The memory backend requires a catalog.
func Open(ctx context.Context, cfg types.Config, cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg = cfg.WithDefaults()
	if cfg.Backend == types.BackendMemory && cat == nil {
		return nil, types.ErrCatalogMissing
	}

	store := sqlite.NewBackend(sqlite.WithLogger(o.logger))
	storeCfg := cfg
	storeCfg.Backend = types.BackendSQLite
	if err := store.Attach(storeCfg); err != nil {
		var transient *types.TransientStoreError
		if cat == nil || !errors.As(err, &transient) {
			return nil, fmt.Errorf("attaching store: %w", err)
		}
		return openDegraded(ctx, cfg, cat, err, o.logger)
	}

	e := &Engine{Config: cfg, Graph: store, Store: store, Feedback: store, Pattern: store, logger: o.logger}
	if cfg.Backend == types.BackendMemory {
		e.Graph = memstore.New()
	}
	if cat != nil {
		res, err := e.load(ctx, cat)
		if err != nil {
			store.Detach()
			return nil, err
		}
		e.Loaded = res
	}

	emb := o.embedder
	if emb == nil {
		emb = e.newEmbedder(o.baseURL)
	}
	backend, err := embedding.NewBackend(cfg.VectorBackend, store.DB(), store, o.logger)
	var cfgErr *types.ConfigurationError
	if err != nil && !errors.As(err, &cfgErr) {
		store.Detach()
		return nil, fmt.Errorf("creating vector backend: %w", err)
	}
	if err != nil && cfg.VectorBackend == types.VectorANN {
		e.logger.Warn("ANN requested but unavailable", zap.Error(err))
	}

	ix, err := embedding.NewIndex(store, backend, emb,
		embedding.WithIndexLogger(o.logger),
		embedding.WithPoolSize(cfg.PoolSize),
		embedding.WithMinSimilarity(cfg.MinSimilarity))
	if err != nil {
		backend.Close()
		store.Detach()
		return nil, fmt.Errorf("creating embedding index: %w", err)
	}
	e.Index = ix
	e.bind()

	e.logger.Info("engine open",
		zap.String("graph", cfg.Backend),
		zap.String("vectors", ix.Backend()),
		zap.String("embedder", emb.Model()))
	return e, nil
}

// openDegraded serves cat from memory after the durable store failed to
// attach. Rankings carry no feedback boost and the semantic path is off.
func openDegraded(ctx context.Context, cfg types.Config, cat *catalog.Catalog, cause error, logger *zap.Logger) (*Engine, error) {
	logger.Warn("durable store unavailable, serving catalog from memory",
		zap.String("data_dir", cfg.DataDir), zap.Error(cause))
	off := offline{cause: cause}
	e := &Engine{
		Config:    cfg,
		Graph:     memstore.New(),
		Feedback:  off,
		Pattern:   off,
		Degraded:  true,
		attachErr: cause,
		logger:    logger,
	}
	res, err := e.load(ctx, cat)
	if err != nil {
		return nil, err
	}
	res.Fallback = true
	e.Loaded = res
	e.bind()
	return e, nil
}

// Durable returns the attached store, or an error wrapping ErrDegraded.
func (e *Engine) Durable() (*sqlite.Backend, error) {
	if e.Store == nil {
		return nil, fmt.Errorf("%w: %w", ErrDegraded, e.attachErr)
	}
	return e.Store, nil
}

// Semantic returns the embedding index, or an error wrapping ErrDegraded.
func (e *Engine) Semantic() (*embedding.Index, error) {
	if e.Index == nil {
		return nil, fmt.Errorf("%w: %w", ErrDegraded, e.attachErr)
	}
	return e.Index, nil
}

// newEmbedder builds the configured embedder, downgrading to the local
// hash embedder when the remote one cannot be configured.
func (e *Engine) newEmbedder(baseURL string) embedding.Embedder {
	cfg := e.Config
	if cfg.Embedder == types.EmbedderOpenAI {
		remote, err := embedding.NewOpenAIEmbedder(cfg.OpenAIAPIKey, baseURL, cfg.OpenAIModel, cfg.EmbeddingDimensions)
		if err == nil {
			return remote
		}
		e.logger.Warn("remote embedder unavailable, using hash embedder", zap.Error(err))
	}
	local, err := embedding.NewHashEmbedder(cfg.EmbeddingDimensions)
	if err != nil {
		// Dimensions were validated; fall back to the default size.
		local, _ = embedding.NewHashEmbedder(types.DefaultEmbeddingDimensions)
	}
	return local
}

// bind rebuilds the graph-facing components after Graph changes.
func (e *Engine) bind() {
	opts := []search.Option{search.WithLogger(e.logger)}
	if e.Index != nil {
		opts = append(opts, search.WithSimilarity(e.Index))
	}
	e.Search = search.New(e.Graph, opts...)
	e.Resolver = search.NewResolver(e.Graph)
	e.Rerank = rerank.New(e.Search, e.Feedback,
		rerank.WithLogger(e.logger),
		rerank.WithTrainingThreshold(e.Config.TrainingThreshold))
	e.Patterns = pattern.NewDetector(e.Pattern, e.Feedback, pattern.WithLogger(e.logger))
}

// Load seeds the graph store from cat. When the store is unreachable the
// engine switches to an in-memory graph for the rest of the process. Load
// replaces the graph-facing components and must not run concurrently with
// queries.
func (e *Engine) Load(ctx context.Context, cat *catalog.Catalog) (catalog.LoadResult, error) {
	res, err := e.load(ctx, cat)
	if err != nil {
		return res, err
	}
	e.Loaded = res
	e.bind()
	return res, nil
}

func (e *Engine) load(ctx context.Context, cat *catalog.Catalog) (catalog.LoadResult, error) {
	if cat == nil {
		return catalog.LoadResult{}, types.ErrCatalogMissing
	}
	if err := cat.Validate(); err != nil {
		return catalog.LoadResult{}, fmt.Errorf("validating catalog: %w", err)
	}
	res, err := catalog.Load(ctx, e.Graph, cat, e.logger)
	if err != nil {
		return res, fmt.Errorf("loading catalog: %w", err)
	}
	e.Graph = res.Store
	return res, nil
}

// IndexCatalog embeds every component in the graph store and rebuilds the
// vector backend. Returns the number of components embedded.
func (e *Engine) IndexCatalog(ctx context.Context) (int, error) {
	ix, err := e.Semantic()
	if err != nil {
		return 0, err
	}
	comps, err := e.Graph.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing components: %w", err)
	}
	n, err := ix.IndexCatalog(ctx, comps)
	if err != nil {
		return 0, err
	}
	if err := ix.Rebuild(ctx); err != nil {
		return n, fmt.Errorf("rebuilding index: %w", err)
	}
	return n, nil
}

// Close releases the index and detaches the store.
func (e *Engine) Close() error {
	var errs []error
	if e.Index != nil {
		errs = append(errs, e.Index.Close())
	}
	if e.Store != nil {
		errs = append(errs, e.Store.Detach())
	}
	e.logger.Debug("engine closed")
	return errors.Join(errs...)
}
