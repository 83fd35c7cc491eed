// This file implements composition reads. Compositions are registered once
// from the catalog and resolved by the search package.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/motif/pkg/types"
)

const selectComposition = `SELECT composition_id, template_type, layout, moods, industries, visual_styles, created_at FROM compositions`

// Compositions returns every composition in registration order.
func (b *Backend) Compositions(ctx context.Context) ([]types.Composition, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, selectComposition+" ORDER BY ordinal ASC")
	if err != nil {
		return nil, &types.TransientStoreError{Op: "query compositions", Err: err}
	}
	defer rows.Close()

	results := []types.Composition{}
	for rows.Next() {
		c, err := hydrateComposition(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating composition: %w", err)
		}
		results = append(results, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating compositions: %w", err)
	}
	rows.Close()

	for i := range results {
		if err := loadSections(ctx, db, &results[i]); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// GetComposition returns the composition with id, or nil when there is none.
func (b *Backend) GetComposition(ctx context.Context, id string) (*types.Composition, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, selectComposition+" WHERE composition_id = ?", id)
	c, err := hydrateComposition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting composition %s: %w", id, err)
	}
	if err := loadSections(ctx, db, c); err != nil {
		return nil, err
	}
	return c, nil
}

func hydrateComposition(row scanner) (*types.Composition, error) {
	var c types.Composition
	var layout, moods, industries, styles, createdAt string
	if err := row.Scan(&c.ID, &c.TemplateType, &layout, &moods, &industries, &styles, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(layout), &c.Layout); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{moods, &c.Moods},
		{industries, &c.Industries},
		{styles, &c.VisualStyles},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return nil, fmt.Errorf("parsing affinities: %w", err)
		}
		if len(*f.dst) == 0 {
			*f.dst = nil
		}
	}
	var err error
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &c, nil
}

func loadSections(ctx context.Context, db *sql.DB, c *types.Composition) error {
	rows, err := db.QueryContext(ctx,
		`SELECT section_id, name, query, container_class, mode_classes
		 FROM composition_sections WHERE composition_id = ? ORDER BY position ASC`, c.ID)
	if err != nil {
		return fmt.Errorf("loading sections for %s: %w", c.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s types.Section
		var query, modes string
		if err := rows.Scan(&s.ID, &s.Name, &query, &s.ContainerClass, &modes); err != nil {
			return fmt.Errorf("scanning section: %w", err)
		}
		if err := json.Unmarshal([]byte(query), &s.Query); err != nil {
			return fmt.Errorf("parsing section query: %w", err)
		}
		if err := json.Unmarshal([]byte(modes), &s.ModeClasses); err != nil {
			return fmt.Errorf("parsing mode classes: %w", err)
		}
		c.Sections = append(c.Sections, s)
	}
	return rows.Err()
}
