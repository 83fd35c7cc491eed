// Package memstore is the in-memory graph store used when the embedded
// database is unreachable. It is built straight from the static catalog and
// answers every query with the same semantics as the SQLite store.
package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/mesh-intelligence/motif/pkg/types"
)

var _ types.GraphStore = (*Store)(nil)

// Store holds components and compositions in catalog insertion order.
type Store struct {
	mu           sync.RWMutex
	components   []types.Component
	byID         map[string]int
	compositions []types.Composition
	compByID     map[string]int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byID:     map[string]int{},
		compByID: map[string]int{},
	}
}

// Seed loads components when the store is empty and returns how many were
// loaded. Validation or duplicate IDs leave the store unchanged.
func (s *Store) Seed(_ context.Context, components []types.Component) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.components) > 0 || len(components) == 0 {
		return 0, nil
	}
	byID := make(map[string]int, len(components))
	loaded := make([]types.Component, len(components))
	now := time.Now().UTC()
	for i := range components {
		c := components[i]
		if err := c.Validate(); err != nil {
			return 0, err
		}
		if _, dup := byID[c.ID]; dup {
			return 0, &types.IntegrityError{Entity: "component", ID: c.ID, Err: types.ErrDuplicateID}
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		loaded[i] = cloneComponent(c)
		byID[c.ID] = i
	}
	s.components = loaded
	s.byID = byID
	return len(loaded), nil
}

// SeedCompositions loads compositions when none are present.
func (s *Store) SeedCompositions(_ context.Context, compositions []types.Composition) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.compositions) > 0 || len(compositions) == 0 {
		return 0, nil
	}
	byID := make(map[string]int, len(compositions))
	loaded := make([]types.Composition, len(compositions))
	now := time.Now().UTC()
	for i := range compositions {
		c := compositions[i]
		if err := c.Validate(); err != nil {
			return 0, err
		}
		if _, dup := byID[c.ID]; dup {
			return 0, &types.IntegrityError{Entity: "composition", ID: c.ID, Err: types.ErrDuplicateID}
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.Sections = slices.Clone(c.Sections)
		loaded[i] = c
		byID[c.ID] = i
	}
	s.compositions = loaded
	s.compByID = byID
	return len(loaded), nil
}

// GetAll returns a copy of every component in insertion order.
func (s *Store) GetAll(ctx context.Context) ([]types.Component, error) {
	return s.Query(ctx, types.Filter{})
}

// Get returns the component with id, or nil when there is none.
func (s *Store) Get(_ context.Context, id string) (*types.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	c := cloneComponent(s.components[i])
	return &c, nil
}

// Query returns the components for which filter.Matches holds.
func (s *Store) Query(_ context.Context, filter types.Filter) ([]types.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []types.Component{}
	for i := range s.components {
		if filter.Matches(&s.components[i]) {
			out = append(out, cloneComponent(s.components[i]))
		}
	}
	return out, nil
}

// Count returns the number of components.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.components), nil
}

// Compositions returns every composition in insertion order.
func (s *Store) Compositions(_ context.Context) ([]types.Composition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Composition, len(s.compositions))
	for i := range s.compositions {
		out[i] = s.compositions[i]
		out[i].Sections = slices.Clone(s.compositions[i].Sections)
	}
	return out, nil
}

// GetComposition returns the composition with id, or nil.
func (s *Store) GetComposition(_ context.Context, id string) (*types.Composition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.compByID[id]
	if !ok {
		return nil, nil
	}
	c := s.compositions[i]
	c.Sections = slices.Clone(c.Sections)
	return &c, nil
}

// Delete removes a component. Missing IDs are a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return nil
	}
	s.components = slices.Delete(s.components, i, i+1)
	delete(s.byID, id)
	for j := i; j < len(s.components); j++ {
		s.byID[s.components[j].ID] = j
	}
	return nil
}

// cloneComponent copies the slices so callers cannot mutate stored state.
func cloneComponent(c types.Component) types.Component {
	c.Tags = slices.Clone(c.Tags)
	c.Moods = slices.Clone(c.Moods)
	c.Industries = slices.Clone(c.Industries)
	c.VisualStyles = slices.Clone(c.VisualStyles)
	return c
}
