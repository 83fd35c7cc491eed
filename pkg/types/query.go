package types

import (
	"slices"
	"strings"
)

// Query is the structured filter shared by attribute search and the
// reranker. Every field is optional; a zero Query matches the whole catalog.
type Query struct {
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	Variant     string   `json:"variant,omitempty" yaml:"variant,omitempty"`
	Mood        string   `json:"mood,omitempty" yaml:"mood,omitempty"`
	Industry    string   `json:"industry,omitempty" yaml:"industry,omitempty"`
	VisualStyle string   `json:"visual_style,omitempty" yaml:"visual_style,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Text is free text for the embedding path. Attribute search ignores it.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Limit truncates the ranked result when positive.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`

	// IncludeContent asks for the stored content payload in results.
	IncludeContent bool `json:"include_content,omitempty" yaml:"include_content,omitempty"`
}

// Validate checks the query at the boundary. Unknown values for known
// dimensions are not errors; they simply match nothing.
func (q *Query) Validate() error {
	if q.Category != "" && !ValidCategory(q.Category) {
		return ErrInvalidCategory
	}
	if q.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// Normalize trims whitespace and removes empty and duplicate tags, keeping
// first-seen order.
func (q Query) Normalize() Query {
	q.Category = strings.TrimSpace(q.Category)
	q.Type = strings.TrimSpace(q.Type)
	q.Variant = strings.TrimSpace(q.Variant)
	q.Mood = strings.TrimSpace(q.Mood)
	q.Industry = strings.TrimSpace(q.Industry)
	q.VisualStyle = strings.TrimSpace(q.VisualStyle)
	q.Text = strings.TrimSpace(q.Text)
	if len(q.Tags) > 0 {
		tags := make([]string, 0, len(q.Tags))
		for _, t := range q.Tags {
			t = strings.TrimSpace(t)
			if t == "" || slices.Contains(tags, t) {
				continue
			}
			tags = append(tags, t)
		}
		q.Tags = tags
	}
	return q
}

// IsEmpty reports whether the query sets no attribute dimension.
func (q Query) IsEmpty() bool {
	return q.Category == "" && q.Type == "" && q.Variant == "" && q.Mood == "" &&
		q.Industry == "" && q.VisualStyle == "" && len(q.Tags) == 0
}

// HardFilter returns the store filter for the dimensions that exclude.
func (q Query) HardFilter() Filter {
	return Filter{Category: q.Category, Type: q.Type}
}

// Filter selects components from a graph store. Dimensions are ANDed;
// values within a multi-valued dimension are ORed. Scalars match exactly.
// An empty Filter matches every component.
type Filter struct {
	Category     string   `json:"category,omitempty"`
	Type         string   `json:"type,omitempty"`
	Variant      string   `json:"variant,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Moods        []string `json:"moods,omitempty"`
	Industries   []string `json:"industries,omitempty"`
	VisualStyles []string `json:"visual_styles,omitempty"`
}

// Matches applies the filter to a single component. Both store
// implementations agree with this function.
func (f Filter) Matches(c *Component) bool {
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Type != "" && c.Type != f.Type {
		return false
	}
	if f.Variant != "" && c.Variant != f.Variant {
		return false
	}
	return anyOf(f.Tags, c.Tags) && anyOf(f.Moods, c.Moods) &&
		anyOf(f.Industries, c.Industries) && anyOf(f.VisualStyles, c.VisualStyles)
}

// anyOf reports whether want is empty or shares at least one value with have.
func anyOf(want, have []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}
