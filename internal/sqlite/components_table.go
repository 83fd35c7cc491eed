// This file implements the component graph reads: point lookup, filtered
// scan, and full snapshot, hydrating attribute edges from the junction tables.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mesh-intelligence/motif/pkg/types"
)

const selectComponent = `SELECT component_id, category, type, variant, content, accessibility, quality, created_at FROM components`

// GetAll returns every component in insertion order.
func (b *Backend) GetAll(ctx context.Context) ([]types.Component, error) {
	return b.Query(ctx, types.Filter{})
}

// Get returns the component with id, or nil when there is none.
func (b *Backend) Get(ctx context.Context, id string) (*types.Component, error) {
	if id == "" {
		return nil, nil
	}
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, selectComponent+" WHERE component_id = ?", id)
	c, err := hydrateComponent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting component %s: %w", id, err)
	}
	comps := []types.Component{*c}
	if err := hydrateEdges(ctx, db, comps); err != nil {
		return nil, err
	}
	return &comps[0], nil
}

// Query returns components matching filter in insertion order. Scalar
// dimensions compare exactly; each multi-valued dimension matches when any
// of its values is present, and dimensions are ANDed together.
func (b *Backend) Query(ctx context.Context, filter types.Filter) ([]types.Component, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	var conditions []string
	var args []any
	if filter.Category != "" {
		conditions = append(conditions, "c.category = ?")
		args = append(args, filter.Category)
	}
	if filter.Type != "" {
		conditions = append(conditions, "c.type = ?")
		args = append(args, filter.Type)
	}
	if filter.Variant != "" {
		conditions = append(conditions, "c.variant = ?")
		args = append(args, filter.Variant)
	}
	for table, values := range map[string][]string{
		edgeTags:         filter.Tags,
		edgeMoods:        filter.Moods,
		edgeIndustries:   filter.Industries,
		edgeVisualStyles: filter.VisualStyles,
	} {
		if len(values) == 0 {
			continue
		}
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s e WHERE e.component_id = c.component_id AND e.value IN (%s))",
			table, placeholders(len(values)),
		))
		for _, v := range values {
			args = append(args, v)
		}
	}

	query := strings.Replace(selectComponent, "FROM components", "FROM components c", 1)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.ordinal ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &types.TransientStoreError{Op: "query components", Err: err}
	}
	defer rows.Close()

	results := []types.Component{}
	for rows.Next() {
		c, err := hydrateComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating component: %w", err)
		}
		results = append(results, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating components: %w", err)
	}
	rows.Close()

	if err := hydrateEdges(ctx, db, results); err != nil {
		return nil, err
	}
	return results, nil
}

// Count returns the number of stored components.
func (b *Backend) Count(ctx context.Context) (int, error) {
	db, err := b.handle()
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM components").Scan(&n); err != nil {
		return 0, &types.TransientStoreError{Op: "count components", Err: err}
	}
	return n, nil
}

// Delete removes a component; its edge rows go with it through ON DELETE
// CASCADE. Deleting a missing component is a no-op.
func (b *Backend) Delete(ctx context.Context, id string) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM components WHERE component_id = ?", id); err != nil {
		return fmt.Errorf("deleting component %s: %w", id, err)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func hydrateComponent(row scanner) (*types.Component, error) {
	var c types.Component
	var content, access, quality, createdAt string
	if err := row.Scan(&c.ID, &c.Category, &c.Type, &c.Variant, &content, &access, &quality, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &c.Content); err != nil {
		return nil, fmt.Errorf("parsing content: %w", err)
	}
	if err := json.Unmarshal([]byte(access), &c.Accessible); err != nil {
		return nil, fmt.Errorf("parsing accessibility: %w", err)
	}
	if err := json.Unmarshal([]byte(quality), &c.Quality); err != nil {
		return nil, fmt.Errorf("parsing quality: %w", err)
	}
	var err error
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &c, nil
}

// edgeBatchSize bounds the IN list of one edge query well below SQLite's
// host parameter limit.
var edgeBatchSize = 500

// hydrateEdges fills the multi-valued attributes of comps in place, keeping
// catalog order within each set.
func hydrateEdges(ctx context.Context, db *sql.DB, comps []types.Component) error {
	if len(comps) == 0 {
		return nil
	}
	index := make(map[string]int, len(comps))
	ids := make([]any, len(comps))
	for i := range comps {
		index[comps[i].ID] = i
		ids[i] = comps[i].ID
	}

	for _, table := range edgeTableNames {
		for batch := range slices.Chunk(ids, edgeBatchSize) {
			if err := loadEdges(ctx, db, table, batch, comps, index); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadEdges appends the values of table for the components in ids. Every
// row of one component lands in the same batch, so positions stay ordered.
func loadEdges(ctx context.Context, db *sql.DB, table string, ids []any, comps []types.Component, index map[string]int) error {
	q := fmt.Sprintf(
		"SELECT component_id, value FROM %s WHERE component_id IN (%s) ORDER BY component_id, position",
		table, placeholders(len(ids)),
	)
	rows, err := db.QueryContext(ctx, q, ids...)
	if err != nil {
		return fmt.Errorf("loading %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, value string
		if err := rows.Scan(&id, &value); err != nil {
			return fmt.Errorf("scanning %s: %w", table, err)
		}
		c := &comps[index[id]]
		switch table {
		case edgeTags:
			c.Tags = append(c.Tags, value)
		case edgeMoods:
			c.Moods = append(c.Moods, value)
		case edgeIndustries:
			c.Industries = append(c.Industries, value)
		case edgeVisualStyles:
			c.VisualStyles = append(c.VisualStyles, value)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s: %w", table, err)
	}
	return nil
}

// placeholders returns n comma-separated question marks.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
