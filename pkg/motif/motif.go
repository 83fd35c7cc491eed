// Package motif is the public entry point for embedding the component
// retrieval engine in another program.
//
// Example:
//
//	cat, err := motif.ReadCatalog("catalog.yaml")
//	eng, err := motif.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".motif",
//	}, cat)
//	defer eng.Close()
//	results, err := eng.Rerank.Rerank(ctx, types.Query{Type: "button", Mood: "bold"})
package motif

import (
	"context"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/internal/catalog"
	"github.com/mesh-intelligence/motif/internal/engine"
	"github.com/mesh-intelligence/motif/internal/sqlite"
	"github.com/mesh-intelligence/motif/pkg/types"
)

// Version is the release version.
const Version = "0.3.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/motif"

// Engine is an open engine. Close it to release the store.
type Engine = engine.Engine

// Catalog is a parsed static catalog.
type Catalog = catalog.Catalog

// Option configures Open.
type Option = engine.Option

// WithLogger sets the logger the engine and its components use.
func WithLogger(l *zap.Logger) Option { return engine.WithLogger(l) }

// Open attaches the store in cfg.DataDir, loads cat into it when the store
// is empty and wires every component. cat may be nil for an existing store.
func Open(ctx context.Context, cfg types.Config, cat *Catalog, opts ...Option) (*Engine, error) {
	return engine.Open(ctx, cfg, cat, opts...)
}

// ReadCatalog parses and validates a YAML, JSON or JSONL catalog file.
func ReadCatalog(path string) (*Catalog, error) {
	return catalog.ReadFile(path)
}

// Store is the combined durable store: graph, feedback, patterns and
// vectors.
type Store interface {
	types.GraphStore
	types.FeedbackStore
	types.PatternStore
	types.VectorStore
	Attach(types.Config) error
	Detach() error
}

// NewStore creates an unattached SQLite store. Call Attach before use.
func NewStore() Store {
	return sqlite.NewBackend()
}
