package types

import (
	"math"
	"time"
)

// Feedback types.
const (
	FeedbackExplicit = "explicit"
	FeedbackImplicit = "implicit"
)

// Score bounds for feedback records.
const (
	MinFeedbackScore = -1.0
	MaxFeedbackScore = 2.0
)

// MinAggregateCount is the number of rows an aggregate needs before it
// carries any ranking signal.
const MinAggregateCount = 3

// FeedbackRecord is one outcome signal about a generated component.
// Records are append-only. Style is nil when the generation had no style.
type FeedbackRecord struct {
	ID            string    `json:"id"`
	GenerationID  string    `json:"generation_id"`
	Prompt        string    `json:"prompt,omitempty"`
	ComponentType string    `json:"component_type"`
	Variant       string    `json:"variant,omitempty"`
	Mood          string    `json:"mood,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	Style         *string   `json:"style,omitempty"`
	Score         float64   `json:"score"`
	FeedbackType  string    `json:"feedback_type"`
	CodeHash      string    `json:"code_hash,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks the record before it is appended.
func (r *FeedbackRecord) Validate() error {
	if r.ComponentType == "" {
		return ErrInvalidType
	}
	if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) ||
		r.Score < MinFeedbackScore || r.Score > MaxFeedbackScore {
		return ErrInvalidScore
	}
	if r.FeedbackType != FeedbackExplicit && r.FeedbackType != FeedbackImplicit {
		return ErrInvalidFeedbackType
	}
	return nil
}

// FeedbackAggregate is the on-demand summary of matching feedback rows.
type FeedbackAggregate struct {
	AvgScore float64 `json:"avg_score"`
	Count    int     `json:"count"`
}

// Significant reports whether the aggregate has enough rows to rank with.
func (a FeedbackAggregate) Significant() bool {
	return a.Count >= MinAggregateCount
}

// FeedbackVolume is the read-only counter set consumed by the external
// training pipeline.
type FeedbackVolume struct {
	Total    int            `json:"total"`
	Explicit int            `json:"explicit"`
	Implicit int            `json:"implicit"`
	ByType   map[string]int `json:"by_type"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
