package sqlite

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/motif/pkg/types"
)

func feedback(compType, style string, score float64, kind string) types.FeedbackRecord {
	return types.FeedbackRecord{
		GenerationID:  "gen-1",
		Prompt:        "landing page for a bakery",
		ComponentType: compType,
		Style:         types.StringPtr(style),
		Score:         score,
		FeedbackType:  kind,
	}
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	id, err := b.Record(ctx, feedback("card", "glass", 1.5, types.FeedbackExplicit))
	require.NoError(t, err)
	assert.Len(t, id, 36)

	tests := []struct {
		name    string
		score   float64
		wantErr error
	}{
		{"below range", -1.5, types.ErrInvalidScore},
		{"above range", 2.1, types.ErrInvalidScore},
		{"nan", math.NaN(), types.ErrInvalidScore},
		{"inf", math.Inf(1), types.ErrInvalidScore},
		{"lower bound", -1, nil},
		{"upper bound", 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Record(ctx, feedback("card", "", tt.score, types.FeedbackImplicit))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	for i := 0; i < 5; i++ {
		_, err := b.Record(ctx, feedback("card", "glass", 1.5, types.FeedbackExplicit))
		require.NoError(t, err)
	}
	_, err := b.Record(ctx, feedback("card", "", -1, types.FeedbackImplicit))
	require.NoError(t, err)
	_, err = b.Record(ctx, feedback("button", "minimal", 2, types.FeedbackExplicit))
	require.NoError(t, err)

	glass := "glass"
	tests := []struct {
		name      string
		compType  string
		style     *string
		exact     bool
		wantCount int
		wantAvg   float64
	}{
		{"style match", "card", &glass, false, 5, 1.5},
		{"all styles", "card", nil, false, 6, (5*1.5 - 1) / 6},
		{"null style only", "card", nil, true, 1, -1},
		{"unknown style", "card", types.StringPtr("neon"), true, 0, 0},
		{"unknown type", "carousel", nil, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var agg types.FeedbackAggregate
			var err error
			if tt.exact {
				agg, err = b.AggregateExact(ctx, tt.compType, tt.style)
			} else {
				agg, err = b.Aggregate(ctx, tt.compType, tt.style)
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, agg.Count)
			assert.InDelta(t, tt.wantAvg, agg.AvgScore, 1e-9)
		})
	}
}

func TestCountsAndList(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	var last string
	for i, kind := range []string{types.FeedbackExplicit, types.FeedbackExplicit, types.FeedbackImplicit} {
		rec := feedback("card", "", float64(i), kind)
		if i == 2 {
			rec.ComponentType = "hero"
		}
		id, err := b.Record(ctx, rec)
		require.NoError(t, err)
		last = id
	}

	vol, err := b.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, vol.Total)
	assert.Equal(t, 2, vol.Explicit)
	assert.Equal(t, 1, vol.Implicit)
	assert.Equal(t, map[string]int{"card": 2, "hero": 1}, vol.ByType)

	all, err := b.ListFeedback(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, last, all[0].ID, "newest first")
	assert.Nil(t, all[0].Style)

	cards, err := b.ListFeedback(ctx, "card", 1)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.InDelta(t, 1.0, cards[0].Score, 1e-9)
}
