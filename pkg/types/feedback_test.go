package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedbackRecordValidate(t *testing.T) {
	base := FeedbackRecord{ComponentType: "card", Score: 1, FeedbackType: FeedbackExplicit}

	tests := []struct {
		name    string
		mutate  func(r *FeedbackRecord)
		wantErr error
	}{
		{name: "valid", mutate: func(r *FeedbackRecord) {}},
		{name: "lower bound inclusive", mutate: func(r *FeedbackRecord) { r.Score = -1 }},
		{name: "upper bound inclusive", mutate: func(r *FeedbackRecord) { r.Score = 2 }},
		{name: "below range", mutate: func(r *FeedbackRecord) { r.Score = -1.01 }, wantErr: ErrInvalidScore},
		{name: "above range", mutate: func(r *FeedbackRecord) { r.Score = 2.5 }, wantErr: ErrInvalidScore},
		{name: "NaN", mutate: func(r *FeedbackRecord) { r.Score = math.NaN() }, wantErr: ErrInvalidScore},
		{name: "infinite", mutate: func(r *FeedbackRecord) { r.Score = math.Inf(1) }, wantErr: ErrInvalidScore},
		{name: "missing type", mutate: func(r *FeedbackRecord) { r.ComponentType = "" }, wantErr: ErrInvalidType},
		{name: "unknown feedback type", mutate: func(r *FeedbackRecord) { r.FeedbackType = "survey" }, wantErr: ErrInvalidFeedbackType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFeedbackAggregateSignificant(t *testing.T) {
	assert.False(t, FeedbackAggregate{Count: 2, AvgScore: 2}.Significant())
	assert.True(t, FeedbackAggregate{Count: 3}.Significant())
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	if p := StringPtr("minimal"); assert.NotNil(t, p) {
		assert.Equal(t, "minimal", *p)
	}
}

func TestCodePatternPromotionCandidate(t *testing.T) {
	tests := []struct {
		name string
		p    CodePattern
		want bool
	}{
		{name: "thresholds crossed", p: CodePattern{Frequency: 3, AvgScore: 0.6}, want: true},
		{name: "too rare", p: CodePattern{Frequency: 2, AvgScore: 1.5}},
		{name: "average must exceed half", p: CodePattern{Frequency: 10, AvgScore: 0.5}},
		{name: "already promoted", p: CodePattern{Frequency: 9, AvgScore: 1.9, Promoted: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.PromotionCandidate())
		})
	}
}

func TestEmbeddingValidate(t *testing.T) {
	assert.NoError(t, (&Embedding{SourceID: "a", SourceType: SourceComponent, Vector: []float32{1}}).Validate())
	assert.ErrorIs(t, (&Embedding{SourceType: SourceComponent, Vector: []float32{1}}).Validate(), ErrInvalidID)
	assert.ErrorIs(t, (&Embedding{SourceID: "a", SourceType: SourceComponent}).Validate(), ErrEmptyVector)
	assert.ErrorIs(t, (&Embedding{SourceID: "a", SourceType: SourceComponent, Vector: []float32{1, 0}, Dimensions: 3}).Validate(), ErrDimensionMismatch)
}
