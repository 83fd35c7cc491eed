// Package rerank adjusts attribute-search rankings with aggregated feedback.
// Feedback only reorders; it never adds or removes results.
package rerank

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// Boost weights and bounds.
const (
	TypeBoostWeight    = 0.3
	SnippetBoostWeight = 0.15
	MinBoostFactor     = 0.7
	MaxBoostFactor     = 1.3
)

// maxConcurrentAggregates bounds the aggregate queries one Rerank issues.
const maxConcurrentAggregates = 8

// BaseSearcher produces the attribute ranking that gets reranked.
type BaseSearcher interface {
	Search(ctx context.Context, q types.Query) ([]types.ScoredComponent, error)
}

// Reranker multiplies base scores by feedback-derived boosts.
type Reranker struct {
	search    BaseSearcher
	feedback  types.FeedbackStore
	threshold int
	logger    *zap.Logger
}

// Option configures a Reranker.
type Option func(*Reranker)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reranker) {
		if l != nil {
			r.logger = l.Named("rerank")
		}
	}
}

// WithTrainingThreshold sets the explicit-feedback count at which Readiness
// reports ready.
func WithTrainingThreshold(n int) Option {
	return func(r *Reranker) {
		if n > 0 {
			r.threshold = n
		}
	}
}

// New returns a Reranker.
func New(search BaseSearcher, feedback types.FeedbackStore, opts ...Option) *Reranker {
	r := &Reranker{
		search:    search,
		feedback:  feedback,
		threshold: types.DefaultTrainingThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize maps a score from the feedback domain [-1, 2] onto [-1, 1].
func Normalize(avg float64) float64 {
	return (avg-types.MinFeedbackScore)/(types.MaxFeedbackScore-types.MinFeedbackScore)*2 - 1
}

// boost returns normalized(avg) * weight for a significant aggregate and
// 0 otherwise.
func boost(agg types.FeedbackAggregate, weight float64) float64 {
	if !agg.Significant() {
		return 0
	}
	return Normalize(agg.AvgScore) * weight
}

// Rerank runs attribute search for q, then sets each result's score to
// base * (1 + typeBoost + styleBoost). The type aggregate covers all
// styles; the style aggregate uses q.VisualStyle as given, so a query
// without a style only sees feedback recorded without one. The sort is
// stable, so exact ties keep the attribute order. q.Limit applies after
// reranking. When feedback cannot be aggregated the attribute ranking is
// returned unboosted.
func (r *Reranker) Rerank(ctx context.Context, q types.Query) ([]types.ScoredComponent, error) {
	limit := q.Limit
	q.Limit = 0
	base, err := r.search.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(base) == 0 {
		return base, nil
	}

	var typeNames []string
	for i := range base {
		if !slices.Contains(typeNames, base[i].Component.Type) {
			typeNames = append(typeNames, base[i].Component.Type)
		}
	}

	style := types.StringPtr(q.Normalize().VisualStyle)
	boosts := make(map[string]float64, len(typeNames))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAggregates)
	for _, name := range typeNames {
		g.Go(func() error {
			typeAgg, err := r.feedback.Aggregate(gctx, name, nil)
			if err != nil {
				return fmt.Errorf("aggregating feedback for %s: %w", name, err)
			}
			styleAgg, err := r.feedback.AggregateExact(gctx, name, style)
			if err != nil {
				return fmt.Errorf("aggregating feedback for %s/%v: %w", name, q.VisualStyle, err)
			}
			mu.Lock()
			boosts[name] = boost(typeAgg, TypeBoostWeight) + boost(styleAgg, SnippetBoostWeight)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("feedback unavailable, returning attribute ranking", zap.Error(err))
		return unboosted(base, limit), nil
	}

	out := make([]types.ScoredComponent, len(base))
	for i := range base {
		sc := base[i]
		sc.Boost = boosts[sc.Component.Type]
		sc.Score = sc.BaseScore * (1 + sc.Boost)
		out[i] = sc
	}
	slices.SortStableFunc(out, func(a, b types.ScoredComponent) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	r.logger.Debug("reranked",
		zap.Int("results", len(out)),
		zap.Int("types", len(typeNames)))
	return out, nil
}

// unboosted returns base in attribute order with every boost at zero.
func unboosted(base []types.ScoredComponent, limit int) []types.ScoredComponent {
	if limit > 0 && len(base) > limit {
		base = base[:limit]
	}
	for i := range base {
		base[i].Boost = 0
		base[i].Score = base[i].BaseScore
	}
	return base
}

// BoostFactor returns 1 + typeBoost for componentType clamped to
// [MinBoostFactor, MaxBoostFactor]. Types with fewer than three feedback
// rows return exactly 1.
func (r *Reranker) BoostFactor(ctx context.Context, componentType string) (float64, error) {
	agg, err := r.feedback.Aggregate(ctx, componentType, nil)
	if err != nil {
		return 0, fmt.Errorf("aggregating feedback for %s: %w", componentType, err)
	}
	if !agg.Significant() {
		return 1.0, nil
	}
	return min(max(1+boost(agg, TypeBoostWeight), MinBoostFactor), MaxBoostFactor), nil
}

// Readiness is the read-only view the external training pipeline polls.
type Readiness struct {
	Volume    types.FeedbackVolume `json:"volume"`
	Threshold int                  `json:"threshold"`
	Ready     bool                 `json:"ready"`
}

// Readiness reports feedback volume and whether explicit feedback reached
// the training threshold.
func (r *Reranker) Readiness(ctx context.Context) (Readiness, error) {
	vol, err := r.feedback.Counts(ctx)
	if err != nil {
		return Readiness{}, fmt.Errorf("counting feedback: %w", err)
	}
	return Readiness{
		Volume:    vol,
		Threshold: r.threshold,
		Ready:     vol.Explicit >= r.threshold,
	}, nil
}
