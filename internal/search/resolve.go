package search

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// Relaxable query dimensions, in the order the resolver drops them.
const (
	DimTags        = "tags"
	DimVisualStyle = "visual_style"
	DimIndustry    = "industry"
	DimMood        = "mood"
	DimVariant     = "variant"
)

var relaxOrder = []string{DimTags, DimVisualStyle, DimIndustry, DimMood, DimVariant}

// Resolver fills composition sections by cascading filter rather than
// weighted scoring.
type Resolver struct {
	store types.GraphStore
}

// NewResolver returns a Resolver over store.
func NewResolver(store types.GraphStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve resolves every section of the composition with id. It returns
// nil, nil when the composition does not exist.
func (r *Resolver) Resolve(ctx context.Context, id string) ([]types.ResolvedSection, error) {
	comp, err := r.store.GetComposition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting composition %s: %w", id, err)
	}
	if comp == nil {
		return nil, nil
	}

	out := make([]types.ResolvedSection, len(comp.Sections))
	for i, sec := range comp.Sections {
		c, relaxed, err := r.ResolveQuery(ctx, sec.Query)
		if err != nil {
			return nil, fmt.Errorf("resolving section %s: %w", sec.ID, err)
		}
		out[i] = types.ResolvedSection{Section: sec, Component: c, Relaxed: relaxed}
	}
	return out, nil
}

// ResolveQuery returns the first component, in catalog order, matching
// every dimension of q. When nothing matches it drops tags, visual style,
// industry, mood and variant one at a time and retries. Category and type
// are never dropped. relaxed lists what was dropped.
func (r *Resolver) ResolveQuery(ctx context.Context, q types.Query) (*types.Component, []string, error) {
	q = q.Normalize()
	c, err := r.first(ctx, q)
	if err != nil || c != nil {
		return c, nil, err
	}

	var relaxed []string
	for _, dim := range relaxOrder {
		if !drop(&q, dim) {
			continue
		}
		relaxed = append(relaxed, dim)
		c, err := r.first(ctx, q)
		if err != nil || c != nil {
			return c, relaxed, err
		}
	}
	return nil, relaxed, nil
}

func (r *Resolver) first(ctx context.Context, q types.Query) (*types.Component, error) {
	comps, err := r.store.Query(ctx, filterFor(q))
	if err != nil {
		return nil, err
	}
	if len(comps) == 0 {
		return nil, nil
	}
	return &comps[0], nil
}

// drop clears dim on q and reports whether it was set.
func drop(q *types.Query, dim string) bool {
	var was bool
	switch dim {
	case DimTags:
		was, q.Tags = len(q.Tags) > 0, nil
	case DimVisualStyle:
		was, q.VisualStyle = q.VisualStyle != "", ""
	case DimIndustry:
		was, q.Industry = q.Industry != "", ""
	case DimMood:
		was, q.Mood = q.Mood != "", ""
	case DimVariant:
		was, q.Variant = q.Variant != "", ""
	}
	return was
}

func filterFor(q types.Query) types.Filter {
	f := types.Filter{Category: q.Category, Type: q.Type, Variant: q.Variant, Tags: q.Tags}
	if q.Mood != "" {
		f.Moods = []string{q.Mood}
	}
	if q.Industry != "" {
		f.Industries = []string{q.Industry}
	}
	if q.VisualStyle != "" {
		f.VisualStyles = []string{q.VisualStyle}
	}
	return f
}
