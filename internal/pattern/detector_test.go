package pattern

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/motif/internal/sqlite"
	"github.com/mesh-intelligence/motif/pkg/types"
)

const heroA = `<section><h1>Launch week</h1><p>Five new features.</p><a class="btn" href="#">Read</a></section>`
const heroB = `<section class="dark"><h1>Pricing</h1><p>Simple plans.</p><a class="button-lg" href="/p">See plans</a></section>`

func newDetector(t *testing.T) (*Detector, *sqlite.Backend) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return NewDetector(b, b), b
}

func TestDetector_PromotionIsMonotonic(t *testing.T) {
	ctx := context.Background()
	d, _ := newDetector(t)

	p, err := d.Observe(ctx, heroA, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "section>(heading+text+link)", p.Skeleton)
	assert.Equal(t, 1, p.Frequency)
	assert.False(t, p.Promoted)

	p, err = d.Observe(ctx, heroB, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Frequency, "same structure, different copy")
	assert.False(t, p.Promoted)

	p, err = d.Observe(ctx, heroA, 0.0)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Frequency)
	assert.True(t, p.Promoted, "frequency 3 and average above 0.5")

	for i := 0; i < 4; i++ {
		p, err = d.Observe(ctx, heroB, -1.0)
		require.NoError(t, err)
		assert.True(t, p.Promoted, "never demoted")
	}
	assert.Less(t, p.AvgScore, 0.5)

	cands, err := d.Candidates(ctx)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, Hash(p.Skeleton), cands[0].SkeletonHash)
}

func TestDetector_LowScoresNeverPromote(t *testing.T) {
	ctx := context.Background()
	d, _ := newDetector(t)

	for i := 0; i < 5; i++ {
		p, err := d.Observe(ctx, heroA, 0.2)
		require.NoError(t, err)
		assert.False(t, p.Promoted)
	}
	cands, err := d.Candidates(ctx)
	require.NoError(t, err)
	assert.Empty(t, cands)

	all, err := d.Patterns(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDetector_ObserveFeedback(t *testing.T) {
	ctx := context.Background()
	d, store := newDetector(t)

	id, p, err := d.ObserveFeedback(ctx, types.FeedbackRecord{
		GenerationID:  "gen-7",
		ComponentType: "hero",
		Score:         1.5,
		FeedbackType:  types.FeedbackExplicit,
	}, heroA)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NotNil(t, p)

	recs, err := store.ListFeedback(ctx, "hero", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, p.SkeletonHash, recs[0].CodeHash)

	got, err := d.Get(ctx, p.SkeletonHash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 1.5, got.AvgScore, 1e-9)
}

func TestDetector_ObserveFeedbackIsAtomic(t *testing.T) {
	ctx := context.Background()
	d, store := newDetector(t)
	rec := types.FeedbackRecord{ComponentType: "hero", Score: 2, FeedbackType: types.FeedbackExplicit}

	id, p, err := d.ObserveFeedback(ctx, rec, heroA)
	require.NoError(t, err)

	rec.ID = id
	_, _, err = d.ObserveFeedback(ctx, rec, heroB)
	require.Error(t, err)

	got, err := d.Get(ctx, p.SkeletonHash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Frequency, "the failed record did not count as a sighting")

	recs, err := store.ListFeedback(ctx, "hero", 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestDetector_Errors(t *testing.T) {
	ctx := context.Background()
	d, _ := newDetector(t)

	_, err := d.Observe(ctx, "no markup here", 1)
	assert.ErrorIs(t, err, ErrNoStructure)

	_, err = d.Observe(ctx, heroA, math.NaN())
	assert.ErrorIs(t, err, types.ErrInvalidScore)

	noFeedback := NewDetector(d.patterns, nil)
	_, _, err = noFeedback.ObserveFeedback(ctx, types.FeedbackRecord{}, heroA)
	assert.ErrorIs(t, err, types.ErrStoreRequired)
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("é", MaxSnippetBytes)
	s := snippet(long)
	assert.LessOrEqual(t, len(s), MaxSnippetBytes)
	assert.True(t, strings.HasSuffix(s, "é"))
	assert.Equal(t, "<p>x</p>", snippet("<p>x</p>"))
}
