package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/motif/internal/memstore"
	"github.com/mesh-intelligence/motif/pkg/types"
)

// fixture holds 5 buttons followed by 10 components of other types.
func fixture(t *testing.T) *memstore.Store {
	t.Helper()
	comps := []types.Component{
		{ID: "btn-1", Category: types.CategoryAtom, Type: "button", Variant: "primary", Moods: []string{"bold"}, Tags: []string{"cta", "solid"}},
		{ID: "btn-2", Category: types.CategoryAtom, Type: "button", Variant: "ghost", Moods: []string{"calm"}, Industries: []string{"saas"}},
		{ID: "btn-3", Category: types.CategoryAtom, Type: "button", Variant: "primary", VisualStyles: []string{"glass"}, Tags: []string{"cta"}},
		{ID: "btn-4", Category: types.CategoryAtom, Type: "button", Variant: "link"},
		{ID: "btn-5", Category: types.CategoryAtom, Type: "button", Variant: "ghost", Moods: []string{"bold"}, Industries: []string{"saas"}, VisualStyles: []string{"glass"}},
	}
	others := []string{"card", "card", "hero", "hero", "navbar", "footer", "badge", "input", "modal", "pricing"}
	for i, typ := range others {
		comps = append(comps, types.Component{
			ID: fmt.Sprintf("%s-%d", typ, i), Category: types.CategoryMolecule, Type: typ,
			Moods: []string{"bold"}, Content: types.Content{Template: "<div></div>"},
		})
	}
	s := memstore.New()
	_, err := s.Seed(context.Background(), comps)
	require.NoError(t, err)
	return s
}

func TestSearch_HardFilter(t *testing.T) {
	s := New(fixture(t))

	got, err := s.Search(context.Background(), types.Query{Type: "button"})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, r := range got {
		assert.Equal(t, "button", r.Component.Type)
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestSearch_UnknownTypeIsEmpty(t *testing.T) {
	s := New(fixture(t))

	got, err := s.Search(context.Background(), types.Query{Type: "carousel", Mood: "bold"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_EmptyQueryReturnsFloor(t *testing.T) {
	s := New(fixture(t))

	got, err := s.Search(context.Background(), types.Query{})
	require.NoError(t, err)
	require.Len(t, got, 15)
	for i, r := range got {
		assert.InDelta(t, FloorScore, r.Score, 1e-9)
		if i > 0 {
			assert.Less(t, indexOf(t, got[i-1].Component.ID), indexOf(t, r.Component.ID), "ties keep catalog order")
		}
	}
}

func indexOf(t *testing.T, id string) int {
	t.Helper()
	order := []string{"btn-1", "btn-2", "btn-3", "btn-4", "btn-5", "card-0", "card-1", "hero-2", "hero-3", "navbar-4", "footer-5", "badge-6", "input-7", "modal-8", "pricing-9"}
	for i, o := range order {
		if o == id {
			return i
		}
	}
	t.Fatalf("unknown id %s", id)
	return -1
}

func TestSearch_Ranking(t *testing.T) {
	s := New(fixture(t))

	got, err := s.Search(context.Background(), types.Query{
		Type: "button", Variant: "ghost", Mood: "bold", Industry: "saas", VisualStyle: "glass", Tags: []string{"cta"},
	})
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, "btn-5", got[0].Component.ID)
	assert.InDelta(t, FloorScore+VariantWeight+MoodWeight+IndustryWeight+VisualStyleWeight, got[0].Score, 1e-9)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score, "descending")
	}
	assert.Equal(t, "btn-4", got[len(got)-1].Component.ID)
	assert.InDelta(t, FloorScore, got[len(got)-1].Score, 1e-9, "hard-filter-only match keeps the floor")
}

func TestSearch_LimitAndContent(t *testing.T) {
	s := New(fixture(t))

	got, err := s.Search(context.Background(), types.Query{Category: types.CategoryMolecule, Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Empty(t, got[0].Component.Content.Template)

	got, err = s.Search(context.Background(), types.Query{Category: types.CategoryMolecule, IncludeContent: true})
	require.NoError(t, err)
	assert.Equal(t, "<div></div>", got[0].Component.Content.Template)
}

func TestSearch_InvalidQuery(t *testing.T) {
	s := New(fixture(t))

	_, err := s.Search(context.Background(), types.Query{Category: "widget"})
	assert.ErrorIs(t, err, types.ErrInvalidCategory)
	_, err = s.Search(context.Background(), types.Query{Limit: -1})
	assert.ErrorIs(t, err, types.ErrInvalidLimit)
}

func TestScore_TagOverlapRatio(t *testing.T) {
	c := &types.Component{Tags: []string{"a", "b"}}
	got := Score(types.Query{Tags: []string{"a", "b", "c", "d"}}, c)
	assert.InDelta(t, FloorScore+0.5*TagOverlapWeight, got, 1e-9)
}

type fakeSimilar struct {
	matches []types.Match
	err     error
}

func (f fakeSimilar) Similar(context.Context, string, string, int, float64) ([]types.Match, error) {
	return f.matches, f.err
}

func TestSearch_SimilarityAnnotatesOnly(t *testing.T) {
	store := fixture(t)
	plain, err := New(store).Search(context.Background(), types.Query{Type: "button", Text: "big bold button"})
	require.NoError(t, err)

	s := New(store, WithSimilarity(fakeSimilar{matches: []types.Match{{SourceID: "btn-4", SourceType: types.SourceComponent, Similarity: 0.9}}}))
	got, err := s.Search(context.Background(), types.Query{Type: "button", Text: "big bold button"})
	require.NoError(t, err)
	require.Len(t, got, len(plain))
	for i := range got {
		assert.Equal(t, plain[i].Component.ID, got[i].Component.ID)
		if got[i].Component.ID == "btn-4" {
			assert.InDelta(t, 0.9, got[i].Similarity, 1e-9)
		}
	}

	failing := New(store, WithSimilarity(fakeSimilar{err: errors.New("index down")}))
	got, err = failing.Search(context.Background(), types.Query{Type: "button", Text: "x"})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
