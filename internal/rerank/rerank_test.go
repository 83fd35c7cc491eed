package rerank

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/motif/internal/memstore"
	"github.com/mesh-intelligence/motif/internal/search"
	"github.com/mesh-intelligence/motif/internal/sqlite"
	"github.com/mesh-intelligence/motif/pkg/types"
)

type env struct {
	searcher *search.Searcher
	feedback *sqlite.Backend
	reranker *Reranker
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	_, err := store.Seed(ctx, []types.Component{
		{ID: "btn-a", Category: types.CategoryAtom, Type: "button", Moods: []string{"bold"}},
		{ID: "btn-b", Category: types.CategoryAtom, Type: "button"},
		{ID: "card-a", Category: types.CategoryMolecule, Type: "card", Moods: []string{"bold"}},
		{ID: "card-b", Category: types.CategoryMolecule, Type: "card", VisualStyles: []string{"glass"}},
		{ID: "hero-a", Category: types.CategoryOrganism, Type: "hero", Moods: []string{"bold"}},
	})
	require.NoError(t, err)

	fb := sqlite.NewBackend()
	require.NoError(t, fb.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { fb.Detach() })

	s := search.New(store)
	return &env{searcher: s, feedback: fb, reranker: New(s, fb, opts...)}
}

func (e *env) record(t *testing.T, compType, style string, score float64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := e.feedback.Record(context.Background(), types.FeedbackRecord{
			ComponentType: compType,
			Style:         types.StringPtr(style),
			Score:         score,
			FeedbackType:  types.FeedbackExplicit,
		})
		require.NoError(t, err)
	}
}

func idSet(rs []types.ScoredComponent) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].Component.ID
	}
	sort.Strings(out)
	return out
}

func TestNormalize(t *testing.T) {
	assert.InDelta(t, -1.0, Normalize(-1), 1e-9)
	assert.InDelta(t, 1.0, Normalize(2), 1e-9)
	assert.InDelta(t, 0.0, Normalize(0.5), 1e-9)
}

func TestRerank_PreservesSetAndBounds(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.record(t, "card", "", 2, 4)
	e.record(t, "button", "", -1, 3)
	e.record(t, "hero", "", 1, 2)

	q := types.Query{Mood: "bold"}
	base, err := e.searcher.Search(ctx, q)
	require.NoError(t, err)
	got, err := e.reranker.Rerank(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, idSet(base), idSet(got), "reranking never changes membership")
	for _, r := range got {
		assert.GreaterOrEqual(t, r.Score, r.BaseScore*(1-TypeBoostWeight-SnippetBoostWeight)-1e-9)
		assert.LessOrEqual(t, r.Score, r.BaseScore*(1+TypeBoostWeight+SnippetBoostWeight)+1e-9)
	}
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}

	assert.Equal(t, "card-a", got[0].Component.ID, "positive feedback lifts cards")
	assert.Equal(t, "hero-a", got[1].Component.ID, "two rows carry no signal")
	assert.Zero(t, got[1].Boost)
}

func TestRerank_StyleBoostUsesRequestStyle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.record(t, "card", "glass", 2, 3)

	withStyle, err := e.reranker.Rerank(ctx, types.Query{Type: "card", VisualStyle: "glass"})
	require.NoError(t, err)
	require.Len(t, withStyle, 2)
	// type boost 0.3 plus style boost 0.15
	assert.InDelta(t, 0.45, withStyle[0].Boost, 1e-9)

	noStyle, err := e.reranker.Rerank(ctx, types.Query{Type: "card"})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, noStyle[0].Boost, 1e-9, "no style only matches rows recorded without style")
}

func TestRerank_EmptyAndLimit(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	got, err := e.reranker.Rerank(ctx, types.Query{Type: "carousel"})
	require.NoError(t, err)
	assert.Empty(t, got)

	e.record(t, "hero", "", 2, 3)
	got, err = e.reranker.Rerank(ctx, types.Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hero-a", got[0].Component.ID, "limit applies after reranking")
}

func TestBoostFactor(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		score float64
		n     int
		want  float64
	}{
		{"no feedback", 0, 0, 1.0},
		{"below statistical floor", 2, 2, 1.0},
		{"card at 1.5", 1.5, 5, 1.2},
		{"maximum", 2, 3, 1.3},
		{"minimum", -1, 3, 0.7},
		{"neutral", 0.5, 3, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.record(t, "card", "", tt.score, tt.n)

			got, err := e.reranker.BoostFactor(ctx, "card")
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, MinBoostFactor)
			assert.LessOrEqual(t, got, MaxBoostFactor)
		})
	}
}

func TestBoostFactor_CardFeedback(t *testing.T) {
	e := newEnv(t)
	e.record(t, "card", "glass", 1.5, 5)

	agg, err := e.feedback.Aggregate(context.Background(), "card", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, agg.Count)
	assert.InDelta(t, 1.5, agg.AvgScore, 1e-9)

	got, err := e.reranker.BoostFactor(context.Background(), "card")
	require.NoError(t, err)
	assert.Greater(t, got, 1.0)
	assert.LessOrEqual(t, got, 1.3)
}

func TestReadiness(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithTrainingThreshold(3))

	r, err := e.reranker.Readiness(ctx)
	require.NoError(t, err)
	assert.False(t, r.Ready)
	assert.Equal(t, 3, r.Threshold)

	e.record(t, "card", "", 1, 3)
	r, err = e.reranker.Readiness(ctx)
	require.NoError(t, err)
	assert.True(t, r.Ready)
	assert.Equal(t, 3, r.Volume.Explicit)
}

type failingFeedback struct{ types.FeedbackStore }

func (failingFeedback) Aggregate(context.Context, string, *string) (types.FeedbackAggregate, error) {
	return types.FeedbackAggregate{}, errors.New("store down")
}

func TestRerank_FeedbackOutageKeepsAttributeRanking(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	r := New(e.searcher, failingFeedback{})

	tests := []struct {
		name  string
		query types.Query
		want  int
	}{
		{"all components", types.Query{}, 5},
		{"type filter", types.Query{Type: "card"}, 2},
		{"limit applies", types.Query{Mood: "bold", Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := e.searcher.Search(ctx, tt.query)
			require.NoError(t, err)

			got, err := r.Rerank(ctx, tt.query)
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			for i, sc := range got {
				assert.Equal(t, base[i].Component.ID, sc.Component.ID)
				assert.Zero(t, sc.Boost)
				assert.Equal(t, sc.BaseScore, sc.Score)
			}
		})
	}
}
