package engine

import (
	"context"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// offline stands in for the feedback and pattern stores while the durable
// store is unreachable. Reads see an empty ledger, so every boost is
// neutral; writes report the outage.
type offline struct {
	cause error
}

var (
	_ types.FeedbackStore = offline{}
	_ types.PatternStore  = offline{}
)

func (o offline) unavailable(op string) error {
	return &types.TransientStoreError{Op: op, Err: o.cause}
}

func (o offline) Record(context.Context, types.FeedbackRecord) (string, error) {
	return "", o.unavailable("record feedback")
}

func (offline) Aggregate(context.Context, string, *string) (types.FeedbackAggregate, error) {
	return types.FeedbackAggregate{}, nil
}

func (offline) AggregateExact(context.Context, string, *string) (types.FeedbackAggregate, error) {
	return types.FeedbackAggregate{}, nil
}

func (offline) Counts(context.Context) (types.FeedbackVolume, error) {
	return types.FeedbackVolume{ByType: map[string]int{}}, nil
}

func (o offline) ObservePattern(context.Context, types.CodePattern, float64) (*types.CodePattern, bool, error) {
	return nil, false, o.unavailable("observe pattern")
}

func (offline) GetPattern(context.Context, string) (*types.CodePattern, error) {
	return nil, nil
}

func (offline) ListPatterns(context.Context, bool) ([]types.CodePattern, error) {
	return []types.CodePattern{}, nil
}
