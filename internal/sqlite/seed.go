package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// execer is satisfied by *sql.Conn, *sql.Tx, and *sql.DB.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Seed inserts components when the components table is empty. The emptiness
// check and every insert share one BEGIN IMMEDIATE transaction, so under
// concurrent cold starts exactly one caller seeds and the rest see a
// populated store and return 0.
func (b *Backend) Seed(ctx context.Context, components []types.Component) (int, error) {
	if len(components) == 0 {
		return 0, nil
	}
	for i := range components {
		if err := components[i].Validate(); err != nil {
			return 0, fmt.Errorf("validating component %q: %w", components[i].ID, err)
		}
	}

	seeded := 0
	err := b.withImmediateTx(ctx, func(conn *sql.Conn) error {
		var count int
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM components").Scan(&count); err != nil {
			return fmt.Errorf("counting components: %w", err)
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for i := range components {
			if err := insertComponent(ctx, conn, &components[i], i, now); err != nil {
				return err
			}
		}
		seeded = len(components)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if seeded > 0 {
		b.logger.Info("seeded components", zap.Int("count", seeded))
	}
	return seeded, nil
}

// SeedCompositions inserts compositions when the compositions table is
// empty, with the same atomicity as Seed.
func (b *Backend) SeedCompositions(ctx context.Context, compositions []types.Composition) (int, error) {
	if len(compositions) == 0 {
		return 0, nil
	}
	for i := range compositions {
		if err := compositions[i].Validate(); err != nil {
			return 0, fmt.Errorf("validating composition %q: %w", compositions[i].ID, err)
		}
	}

	seeded := 0
	err := b.withImmediateTx(ctx, func(conn *sql.Conn) error {
		var count int
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM compositions").Scan(&count); err != nil {
			return fmt.Errorf("counting compositions: %w", err)
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for i := range compositions {
			if err := insertComposition(ctx, conn, &compositions[i], i, now); err != nil {
				return err
			}
		}
		seeded = len(compositions)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if seeded > 0 {
		b.logger.Info("seeded compositions", zap.Int("count", seeded))
	}
	return seeded, nil
}

func insertComponent(ctx context.Context, ex execer, c *types.Component, ordinal int, now time.Time) error {
	content, err := json.Marshal(c.Content)
	if err != nil {
		return fmt.Errorf("marshaling content for %s: %w", c.ID, err)
	}
	access, err := json.Marshal(c.Accessible)
	if err != nil {
		return fmt.Errorf("marshaling accessibility for %s: %w", c.ID, err)
	}
	quality, err := json.Marshal(c.Quality)
	if err != nil {
		return fmt.Errorf("marshaling quality for %s: %w", c.ID, err)
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO components (component_id, ordinal, category, type, variant, content, accessibility, quality, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, ordinal, c.Category, c.Type, c.Variant, string(content), string(access), string(quality), formatTime(createdAt),
	)
	if err != nil {
		return &types.IntegrityError{Entity: "component", ID: c.ID, Err: err}
	}

	edges := map[string][]string{
		edgeTags:         c.Tags,
		edgeMoods:        c.Moods,
		edgeIndustries:   c.Industries,
		edgeVisualStyles: c.VisualStyles,
	}
	for _, table := range edgeTableNames {
		if err := insertEdges(ctx, ex, table, c.ID, edges[table]); err != nil {
			return err
		}
	}
	return nil
}

// insertEdges writes one junction row per distinct value. Duplicate values
// in the catalog collapse to the first occurrence.
func insertEdges(ctx context.Context, ex execer, table, componentID string, values []string) error {
	stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (component_id, position, value) VALUES (?, ?, ?)", table)
	for pos, v := range values {
		if _, err := ex.ExecContext(ctx, stmt, componentID, pos, v); err != nil {
			return &types.IntegrityError{Entity: table, ID: componentID, Err: err}
		}
	}
	return nil
}

func insertComposition(ctx context.Context, ex execer, c *types.Composition, ordinal int, now time.Time) error {
	layout, err := json.Marshal(c.Layout)
	if err != nil {
		return fmt.Errorf("marshaling layout for %s: %w", c.ID, err)
	}
	moods, industries, styles, err := marshalStringSets(c.Moods, c.Industries, c.VisualStyles)
	if err != nil {
		return fmt.Errorf("marshaling affinities for %s: %w", c.ID, err)
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err = ex.ExecContext(ctx,
		`INSERT INTO compositions (composition_id, ordinal, template_type, layout, moods, industries, visual_styles, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, ordinal, c.TemplateType, string(layout), moods, industries, styles, formatTime(createdAt),
	)
	if err != nil {
		return &types.IntegrityError{Entity: "composition", ID: c.ID, Err: err}
	}

	for pos, s := range c.Sections {
		query, err := json.Marshal(s.Query)
		if err != nil {
			return fmt.Errorf("marshaling section query %s/%s: %w", c.ID, s.ID, err)
		}
		modes, err := json.Marshal(s.ModeClasses)
		if err != nil {
			return fmt.Errorf("marshaling mode classes %s/%s: %w", c.ID, s.ID, err)
		}
		_, err = ex.ExecContext(ctx,
			`INSERT INTO composition_sections (composition_id, position, section_id, name, query, container_class, mode_classes)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, pos, s.ID, s.Name, string(query), s.ContainerClass, string(modes),
		)
		if err != nil {
			return &types.IntegrityError{Entity: "composition_section", ID: c.ID + "/" + s.ID, Err: err}
		}
	}
	return nil
}

func marshalStringSets(sets ...[]string) (string, string, string, error) {
	out := make([]string, 3)
	for i := 0; i < 3 && i < len(sets); i++ {
		v := sets[i]
		if v == nil {
			v = []string{}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return "", "", "", err
		}
		out[i] = string(data)
	}
	return out[0], out[1], out[2], nil
}
