// This file implements the code_patterns table used by the promotion loop.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/pkg/types"
)

const selectPattern = `SELECT skeleton_hash, skeleton, snippet, frequency, avg_score, promoted, first_seen, last_seen FROM code_patterns`

// ObservePattern records one sighting of p.SkeletonHash scored score. The
// read, the running-average update and the promotion check share one
// immediate transaction. The promoted column is only ever set to 1.
func (b *Backend) ObservePattern(ctx context.Context, p types.CodePattern, score float64) (*types.CodePattern, bool, error) {
	if err := checkSighting(p, score); err != nil {
		return nil, false, err
	}

	var out *types.CodePattern
	promotedNow := false
	err := b.withImmediateTx(ctx, func(conn *sql.Conn) error {
		var err error
		out, promotedNow, err = observePattern(ctx, conn, p, score)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	b.logPromotion(out, promotedNow)
	return out, promotedNow, nil
}

// RecordObserved appends rec and records one sighting of p scored
// rec.Score in a single transaction: either both land or neither does.
// rec.CodeHash is set to p.SkeletonHash.
func (b *Backend) RecordObserved(ctx context.Context, rec types.FeedbackRecord, p types.CodePattern) (string, *types.CodePattern, bool, error) {
	rec.CodeHash = p.SkeletonHash
	rec, err := prepareFeedback(rec)
	if err != nil {
		return "", nil, false, err
	}
	if err := checkSighting(p, rec.Score); err != nil {
		return "", nil, false, err
	}

	var out *types.CodePattern
	promotedNow := false
	err = b.withImmediateTx(ctx, func(conn *sql.Conn) error {
		var err error
		if out, promotedNow, err = observePattern(ctx, conn, p, rec.Score); err != nil {
			return err
		}
		return insertFeedback(ctx, conn, rec)
	})
	if err != nil {
		return "", nil, false, err
	}
	b.logPromotion(out, promotedNow)
	return rec.ID, out, promotedNow, nil
}

func checkSighting(p types.CodePattern, score float64) error {
	if p.SkeletonHash == "" {
		return types.ErrInvalidID
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return types.ErrInvalidScore
	}
	return nil
}

// observePattern applies one sighting inside the caller's transaction.
func observePattern(ctx context.Context, conn *sql.Conn, p types.CodePattern, score float64) (*types.CodePattern, bool, error) {
	now := time.Now().UTC()
	cur, err := hydratePattern(conn.QueryRowContext(ctx, selectPattern+" WHERE skeleton_hash = ?", p.SkeletonHash))
	if errors.Is(err, sql.ErrNoRows) {
		cur = &types.CodePattern{
			SkeletonHash: p.SkeletonHash,
			Skeleton:     p.Skeleton,
			Snippet:      p.Snippet,
			Frequency:    1,
			AvgScore:     score,
			FirstSeen:    now,
			LastSeen:     now,
		}
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO code_patterns (skeleton_hash, skeleton, snippet, frequency, avg_score, promoted, first_seen, last_seen)
			 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
			cur.SkeletonHash, cur.Skeleton, cur.Snippet, cur.Frequency, cur.AvgScore,
			formatTime(now), formatTime(now)); err != nil {
			return nil, false, &types.IntegrityError{Entity: "code_pattern", ID: p.SkeletonHash, Err: err}
		}
	} else if err != nil {
		return nil, false, fmt.Errorf("reading pattern %s: %w", p.SkeletonHash, err)
	} else {
		cur.AvgScore = (cur.AvgScore*float64(cur.Frequency) + score) / float64(cur.Frequency+1)
		cur.Frequency++
		cur.LastSeen = now
		if _, err := conn.ExecContext(ctx,
			`UPDATE code_patterns SET frequency = ?, avg_score = ?, last_seen = ? WHERE skeleton_hash = ?`,
			cur.Frequency, cur.AvgScore, formatTime(now), cur.SkeletonHash); err != nil {
			return nil, false, fmt.Errorf("updating pattern %s: %w", cur.SkeletonHash, err)
		}
	}

	if !cur.PromotionCandidate() {
		return cur, false, nil
	}
	if _, err := conn.ExecContext(ctx,
		`UPDATE code_patterns SET promoted = 1 WHERE skeleton_hash = ?`, cur.SkeletonHash); err != nil {
		return nil, false, fmt.Errorf("promoting pattern %s: %w", cur.SkeletonHash, err)
	}
	cur.Promoted = true
	return cur, true, nil
}

func (b *Backend) logPromotion(p *types.CodePattern, promoted bool) {
	if !promoted {
		return
	}
	b.logger.Info("pattern promoted",
		zap.String("hash", p.SkeletonHash),
		zap.Int("frequency", p.Frequency),
		zap.Float64("avg_score", p.AvgScore))
}

// GetPattern returns the pattern for hash, or nil when it has never been seen.
func (b *Backend) GetPattern(ctx context.Context, hash string) (*types.CodePattern, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	p, err := hydratePattern(db.QueryRowContext(ctx, selectPattern+" WHERE skeleton_hash = ?", hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting pattern %s: %w", hash, err)
	}
	return p, nil
}

// ListPatterns returns patterns by frequency descending, then first sighting.
func (b *Backend) ListPatterns(ctx context.Context, promotedOnly bool) ([]types.CodePattern, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	query := selectPattern
	if promotedOnly {
		query += " WHERE promoted = 1"
	}
	query += " ORDER BY frequency DESC, first_seen, skeleton_hash"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, &types.TransientStoreError{Op: "list patterns", Err: err}
	}
	defer rows.Close()

	out := []types.CodePattern{}
	for rows.Next() {
		p, err := hydratePattern(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating pattern: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func hydratePattern(row scanner) (*types.CodePattern, error) {
	var p types.CodePattern
	var promoted int
	var firstSeen, lastSeen string
	if err := row.Scan(&p.SkeletonHash, &p.Skeleton, &p.Snippet, &p.Frequency, &p.AvgScore,
		&promoted, &firstSeen, &lastSeen); err != nil {
		return nil, err
	}
	p.Promoted = promoted != 0
	var err error
	if p.FirstSeen, err = parseTime(firstSeen); err != nil {
		return nil, fmt.Errorf("parsing first_seen: %w", err)
	}
	if p.LastSeen, err = parseTime(lastSeen); err != nil {
		return nil, fmt.Errorf("parsing last_seen: %w", err)
	}
	return &p, nil
}
