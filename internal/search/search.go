// Package search ranks catalog components against a structured query and
// resolves composition sections to concrete components.
package search

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// Soft-score weights. A component that passes the hard filters always
// scores at least FloorScore.
const (
	FloorScore        = 0.1
	VariantWeight     = 0.25
	MoodWeight        = 0.2
	IndustryWeight    = 0.2
	VisualStyleWeight = 0.15
	TagOverlapWeight  = 0.2
)

// SimilarityFinder is the slice of the embedding index the searcher uses to
// annotate results when a query carries free text.
type SimilarityFinder interface {
	Similar(ctx context.Context, text, sourceType string, k int, minSim float64) ([]types.Match, error)
}

// Searcher scores components from a graph store.
type Searcher struct {
	store   types.GraphStore
	similar SimilarityFinder
	logger  *zap.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l.Named("search")
		}
	}
}

// WithSimilarity fills ScoredComponent.Similarity from the embedding index
// when Query.Text is set. Similarity never changes Score or ordering.
func WithSimilarity(f SimilarityFinder) Option {
	return func(s *Searcher) { s.similar = f }
}

// New returns a Searcher over store.
func New(store types.GraphStore, opts ...Option) *Searcher {
	s := &Searcher{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns components passing q's hard filters (category, type),
// ranked by soft score descending with catalog order breaking ties. Soft
// dimensions only score; they never exclude.
func (s *Searcher) Search(ctx context.Context, q types.Query) ([]types.ScoredComponent, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q = q.Normalize()

	comps, err := s.store.Query(ctx, q.HardFilter())
	if err != nil {
		return nil, fmt.Errorf("querying graph store: %w", err)
	}

	results := make([]types.ScoredComponent, len(comps))
	for i := range comps {
		score := Score(q, &comps[i])
		results[i] = types.ScoredComponent{Component: comps[i], Score: score, BaseScore: score}
		if !q.IncludeContent {
			results[i].Component.Content = types.Content{}
		}
	}
	slices.SortStableFunc(results, func(a, b types.ScoredComponent) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}

	if q.Text != "" && s.similar != nil && len(results) > 0 {
		s.annotate(ctx, q.Text, results)
	}
	return results, nil
}

// annotate is best effort: a failing index leaves Similarity at zero.
func (s *Searcher) annotate(ctx context.Context, text string, results []types.ScoredComponent) {
	matches, err := s.similar.Similar(ctx, text, types.SourceComponent, 0, -1)
	if err != nil {
		s.logger.Warn("similarity lookup failed", zap.Error(err))
		return
	}
	sims := make(map[string]float64, len(matches))
	for _, m := range matches {
		sims[m.SourceID] = m.Similarity
	}
	for i := range results {
		results[i].Similarity = sims[results[i].Component.ID]
	}
}

// Score computes the soft attribute score of c for q.
func Score(q types.Query, c *types.Component) float64 {
	score := FloorScore
	if q.Variant != "" && c.Variant == q.Variant {
		score += VariantWeight
	}
	if q.Mood != "" && c.HasMood(q.Mood) {
		score += MoodWeight
	}
	if q.Industry != "" && c.HasIndustry(q.Industry) {
		score += IndustryWeight
	}
	if q.VisualStyle != "" && c.HasVisualStyle(q.VisualStyle) {
		score += VisualStyleWeight
	}
	if len(q.Tags) > 0 {
		overlap := 0
		for _, t := range q.Tags {
			if c.HasTag(t) {
				overlap++
			}
		}
		score += float64(overlap) / float64(len(q.Tags)) * TagOverlapWeight
	}
	return score
}
