// Package catalog reads the static component catalog from YAML, JSON or
// JSONL files, validates it, and loads it into a graph store.
package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// Catalog file formats.
const (
	FormatYAML  = "yaml"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// JSONL line kinds. A line without a kind is a component.
const (
	KindComponent   = "component"
	KindComposition = "composition"
)

// Catalog is the static snapshot the stores are seeded from.
type Catalog struct {
	Components   []types.Component   `json:"components" yaml:"components"`
	Compositions []types.Composition `json:"compositions,omitempty" yaml:"compositions,omitempty"`
}

// FormatFor returns the format implied by a file extension.
func FormatFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("catalog %s: unsupported extension %q", path, filepath.Ext(path))
	}
}

// ReadFile parses and validates the catalog at path. A missing file wraps
// types.ErrCatalogMissing.
func ReadFile(path string) (*Catalog, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("reading catalog %s: %w", path, types.ErrCatalogMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	cat, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("validating catalog %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes data in the given format. JSON accepts either an object
// with components and compositions or a bare array of components.
func Parse(data []byte, format string) (*Catalog, error) {
	var cat Catalog
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &cat.Components); err != nil {
				return nil, fmt.Errorf("decoding json array: %w", err)
			}
		} else if err := json.Unmarshal(trimmed, &cat); err != nil {
			return nil, fmt.Errorf("decoding json: %w", err)
		}
	case FormatJSONL:
		if err := parseJSONL(data, &cat); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
	return &cat, nil
}

func parseJSONL(data []byte, cat *Catalog) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var head struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		switch head.Kind {
		case "", KindComponent:
			var c types.Component
			if err := json.Unmarshal(raw, &c); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			cat.Components = append(cat.Components, c)
		case KindComposition:
			var c types.Composition
			if err := json.Unmarshal(raw, &c); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			cat.Compositions = append(cat.Compositions, c)
		default:
			return fmt.Errorf("line %d: unknown kind %q", line, head.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning jsonl: %w", err)
	}
	return nil
}

// Validate checks every entry, that IDs are unique, and that each
// composition section names a component type the catalog contains.
func (c *Catalog) Validate() error {
	if len(c.Components) == 0 {
		return fmt.Errorf("catalog has no components: %w", types.ErrCatalogMissing)
	}

	typesSeen := map[string]bool{}
	ids := map[string]bool{}
	for i := range c.Components {
		comp := &c.Components[i]
		if err := comp.Validate(); err != nil {
			return fmt.Errorf("component %d (%q): %w", i, comp.ID, err)
		}
		if ids[comp.ID] {
			return &types.IntegrityError{Entity: "component", ID: comp.ID, Err: types.ErrDuplicateID}
		}
		ids[comp.ID] = true
		typesSeen[comp.Type] = true
	}

	compIDs := map[string]bool{}
	for i := range c.Compositions {
		comp := &c.Compositions[i]
		if err := comp.Validate(); err != nil {
			return fmt.Errorf("composition %d (%q): %w", i, comp.ID, err)
		}
		if compIDs[comp.ID] {
			return &types.IntegrityError{Entity: "composition", ID: comp.ID, Err: types.ErrDuplicateID}
		}
		compIDs[comp.ID] = true
		for _, s := range comp.Sections {
			if s.Query.Type != "" && !typesSeen[s.Query.Type] {
				return &types.IntegrityError{
					Entity: "composition",
					ID:     comp.ID + "/" + s.ID,
					Err:    fmt.Errorf("section type %q: %w", s.Query.Type, types.ErrDanglingReference),
				}
			}
		}
	}
	return nil
}
