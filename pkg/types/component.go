package types

import (
	"slices"
	"strings"
	"time"
)

// Component categories, smallest to largest.
const (
	CategoryAtom     = "atom"
	CategoryMolecule = "molecule"
	CategoryOrganism = "organism"
)

// validCategories is the set of recognized component categories.
var validCategories = map[string]bool{
	CategoryAtom:     true,
	CategoryMolecule: true,
	CategoryOrganism: true,
}

// ValidCategory reports whether c is a recognized component category.
func ValidCategory(c string) bool {
	return validCategories[c]
}

// Component is a single catalog entry that can be rendered into a UI.
type Component struct {
	ID           string        `json:"id" yaml:"id"`
	Category     string        `json:"category" yaml:"category"`
	Type         string        `json:"type" yaml:"type"`
	Variant      string        `json:"variant,omitempty" yaml:"variant,omitempty"`
	Tags         []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	Moods        []string      `json:"moods,omitempty" yaml:"moods,omitempty"`
	Industries   []string      `json:"industries,omitempty" yaml:"industries,omitempty"`
	VisualStyles []string      `json:"visual_styles,omitempty" yaml:"visual_styles,omitempty"`
	Content      Content       `json:"content" yaml:"content"`
	Accessible   Accessibility `json:"accessibility" yaml:"accessibility"`
	Quality      Quality       `json:"quality" yaml:"quality"`
	CreatedAt    time.Time     `json:"created_at" yaml:"created_at"`
}

// Content is the payload handed to the renderer. The core stores and returns
// it but never interprets it.
type Content struct {
	Classes  map[string]string `json:"classes,omitempty" yaml:"classes,omitempty"`
	Template string            `json:"template,omitempty" yaml:"template,omitempty"`
}

// Accessibility describes how the component behaves for assistive tech.
type Accessibility struct {
	Role          string  `json:"role,omitempty" yaml:"role,omitempty"`
	AriaLabel     string  `json:"aria_label,omitempty" yaml:"aria_label,omitempty"`
	KeyboardNav   bool    `json:"keyboard_nav,omitempty" yaml:"keyboard_nav,omitempty"`
	ContrastRatio float64 `json:"contrast_ratio,omitempty" yaml:"contrast_ratio,omitempty"`
	Notes         string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Quality carries the craft markers that keep a component from looking generic.
type Quality struct {
	AntiGenericMarkers []string `json:"anti_generic_markers,omitempty" yaml:"anti_generic_markers,omitempty"`
	CraftDetails       []string `json:"craft_details,omitempty" yaml:"craft_details,omitempty"`
	InspirationSource  string   `json:"inspiration_source,omitempty" yaml:"inspiration_source,omitempty"`
}

// Validate checks the fields every stored component must carry.
func (c *Component) Validate() error {
	if c.ID == "" {
		return ErrInvalidID
	}
	if !ValidCategory(c.Category) {
		return ErrInvalidCategory
	}
	if c.Type == "" {
		return ErrInvalidType
	}
	return nil
}

// HasTag reports whether the component carries tag.
func (c *Component) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// HasMood reports whether the component lists mood.
func (c *Component) HasMood(mood string) bool {
	return slices.Contains(c.Moods, mood)
}

// HasIndustry reports whether the component lists industry.
func (c *Component) HasIndustry(industry string) bool {
	return slices.Contains(c.Industries, industry)
}

// HasVisualStyle reports whether the component lists style.
func (c *Component) HasVisualStyle(style string) bool {
	return slices.Contains(c.VisualStyles, style)
}

// Describe returns the text used to embed the component for semantic search.
func (c *Component) Describe() string {
	parts := []string{c.Category, c.Type}
	if c.Variant != "" {
		parts = append(parts, c.Variant)
	}
	parts = append(parts, c.Tags...)
	parts = append(parts, c.Moods...)
	parts = append(parts, c.Industries...)
	parts = append(parts, c.VisualStyles...)
	parts = append(parts, c.Quality.CraftDetails...)
	if c.Quality.InspirationSource != "" {
		parts = append(parts, c.Quality.InspirationSource)
	}
	return strings.Join(parts, " ")
}

// ScoredComponent pairs a component with its relevance score.
// Score is the final score; BaseScore is the attribute-match score before
// feedback, and Boost is the additive multiplier delta applied to it.
type ScoredComponent struct {
	Component  Component `json:"component"`
	Score      float64   `json:"score"`
	BaseScore  float64   `json:"base_score"`
	Boost      float64   `json:"boost"`
	Similarity float64   `json:"similarity,omitempty"`
}
