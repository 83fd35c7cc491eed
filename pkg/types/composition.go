package types

import "time"

// Composition is an ordered set of section queries that together form a
// full-page template.
type Composition struct {
	ID           string    `json:"id" yaml:"id"`
	TemplateType string    `json:"template_type" yaml:"template_type"`
	Sections     []Section `json:"sections" yaml:"sections"`
	Layout       Layout    `json:"layout" yaml:"layout"`
	Moods        []string  `json:"moods,omitempty" yaml:"moods,omitempty"`
	Industries   []string  `json:"industries,omitempty" yaml:"industries,omitempty"`
	VisualStyles []string  `json:"visual_styles,omitempty" yaml:"visual_styles,omitempty"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}

// Section is one slot of a composition. Its Query selects the component
// that fills the slot.
type Section struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Query          Query             `json:"query" yaml:"query"`
	ContainerClass string            `json:"container_class,omitempty" yaml:"container_class,omitempty"`
	ModeClasses    map[string]string `json:"mode_classes,omitempty" yaml:"mode_classes,omitempty"`
}

// Layout holds page-level layout hints for a composition.
type Layout struct {
	Grid     string `json:"grid,omitempty" yaml:"grid,omitempty"`
	MaxWidth string `json:"max_width,omitempty" yaml:"max_width,omitempty"`
	Spacing  string `json:"spacing,omitempty" yaml:"spacing,omitempty"`
}

// Validate checks that the composition has an ID and well-formed sections.
func (c *Composition) Validate() error {
	if c.ID == "" {
		return ErrInvalidID
	}
	if c.TemplateType == "" {
		return ErrInvalidType
	}
	seen := make(map[string]bool, len(c.Sections))
	for _, s := range c.Sections {
		if s.ID == "" || seen[s.ID] {
			return ErrInvalidSection
		}
		seen[s.ID] = true
		if err := s.Query.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ResolvedSection is a section together with the component chosen for it.
// Component is nil when no catalog entry matched even after relaxing the query.
type ResolvedSection struct {
	Section   Section    `json:"section"`
	Component *Component `json:"component,omitempty"`
	// Relaxed lists the query dimensions dropped before a match was found.
	Relaxed []string `json:"relaxed,omitempty"`
}
