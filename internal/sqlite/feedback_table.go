// This file implements the append-only feedback ledger and its on-demand
// aggregates. Rows are inserted and read; nothing here updates or deletes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/motif/pkg/types"
)

const selectFeedback = `SELECT feedback_id, generation_id, prompt, component_type, variant, mood, industry, style, score, feedback_type, code_hash, created_at FROM feedback`

// Record appends rec to the ledger and returns its ID. A UUID v7 is
// generated when rec.ID is empty.
func (b *Backend) Record(ctx context.Context, rec types.FeedbackRecord) (string, error) {
	rec, err := prepareFeedback(rec)
	if err != nil {
		return "", err
	}
	db, err := b.handle()
	if err != nil {
		return "", err
	}
	if err := insertFeedback(ctx, db, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// prepareFeedback validates rec and fills the ID and timestamp.
func prepareFeedback(rec types.FeedbackRecord) (types.FeedbackRecord, error) {
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return rec, fmt.Errorf("generating UUID v7: %w", err)
		}
		rec.ID = id.String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Style != nil && *rec.Style == "" {
		rec.Style = nil
	}
	return rec, nil
}

func insertFeedback(ctx context.Context, db execer, rec types.FeedbackRecord) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO feedback (feedback_id, generation_id, prompt, component_type, variant, mood, industry, style, score, feedback_type, code_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.GenerationID, rec.Prompt, rec.ComponentType, rec.Variant, rec.Mood, rec.Industry,
		nullString(rec.Style), rec.Score, rec.FeedbackType, rec.CodeHash, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return &types.IntegrityError{Entity: "feedback", ID: rec.ID, Err: err}
	}
	return nil
}

// Aggregate returns the average score and row count for componentType. A
// nil style aggregates across every style; otherwise the style must match
// exactly.
func (b *Backend) Aggregate(ctx context.Context, componentType string, style *string) (types.FeedbackAggregate, error) {
	if style == nil {
		return b.aggregate(ctx, "SELECT AVG(score), COUNT(*) FROM feedback WHERE component_type = ?", componentType)
	}
	return b.AggregateExact(ctx, componentType, style)
}

// AggregateExact compares style with SQL IS, so a nil style selects only
// rows stored without one.
func (b *Backend) AggregateExact(ctx context.Context, componentType string, style *string) (types.FeedbackAggregate, error) {
	if style != nil && *style == "" {
		style = nil
	}
	return b.aggregate(ctx,
		"SELECT AVG(score), COUNT(*) FROM feedback WHERE component_type = ? AND style IS ?",
		componentType, nullString(style))
}

func (b *Backend) aggregate(ctx context.Context, query string, args ...any) (types.FeedbackAggregate, error) {
	db, err := b.handle()
	if err != nil {
		return types.FeedbackAggregate{}, err
	}
	var avg sql.NullFloat64
	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&avg, &count); err != nil {
		return types.FeedbackAggregate{}, &types.TransientStoreError{Op: "aggregate feedback", Err: err}
	}
	return types.FeedbackAggregate{AvgScore: avg.Float64, Count: count}, nil
}

// Counts returns the ledger volume counters read by the training pipeline.
func (b *Backend) Counts(ctx context.Context) (types.FeedbackVolume, error) {
	db, err := b.handle()
	if err != nil {
		return types.FeedbackVolume{}, err
	}

	vol := types.FeedbackVolume{ByType: map[string]int{}}
	rows, err := db.QueryContext(ctx,
		"SELECT component_type, feedback_type, COUNT(*) FROM feedback GROUP BY component_type, feedback_type")
	if err != nil {
		return vol, &types.TransientStoreError{Op: "count feedback", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var compType, fbType string
		var n int
		if err := rows.Scan(&compType, &fbType, &n); err != nil {
			return vol, fmt.Errorf("scanning feedback counts: %w", err)
		}
		vol.Total += n
		vol.ByType[compType] += n
		switch fbType {
		case types.FeedbackExplicit:
			vol.Explicit += n
		case types.FeedbackImplicit:
			vol.Implicit += n
		}
	}
	return vol, rows.Err()
}

// ListFeedback returns ledger rows newest first. An empty componentType
// lists every type; limit <= 0 means no limit.
func (b *Backend) ListFeedback(ctx context.Context, componentType string, limit int) ([]types.FeedbackRecord, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	query := selectFeedback
	var args []any
	if componentType != "" {
		query += " WHERE component_type = ?"
		args = append(args, componentType)
	}
	query += " ORDER BY rowid DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &types.TransientStoreError{Op: "list feedback", Err: err}
	}
	defer rows.Close()

	out := []types.FeedbackRecord{}
	for rows.Next() {
		r, err := hydrateFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating feedback: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func hydrateFeedback(row scanner) (*types.FeedbackRecord, error) {
	var r types.FeedbackRecord
	var style sql.NullString
	var createdAt string
	if err := row.Scan(&r.ID, &r.GenerationID, &r.Prompt, &r.ComponentType, &r.Variant, &r.Mood,
		&r.Industry, &style, &r.Score, &r.FeedbackType, &r.CodeHash, &createdAt); err != nil {
		return nil, err
	}
	if style.Valid {
		r.Style = &style.String
	}
	var err error
	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
