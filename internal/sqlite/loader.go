// This file imports a learned-state export produced by ExportLearned.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// ImportResult counts what ImportLearned inserted and skipped.
type ImportResult struct {
	Feedback int `json:"feedback"`
	Patterns int `json:"patterns"`
	Skipped  int `json:"skipped"`
}

// ImportLearned loads feedback.jsonl and code_patterns.jsonl from dir in one
// transaction: either every valid row lands or none does. Malformed lines,
// invalid records and feedback IDs already present are skipped. An exported
// pattern is a cumulative snapshot, so one already present only contributes
// the sightings beyond the local frequency; a snapshot that is neither newer
// nor larger is skipped. Re-importing the same export is a no-op and
// promotion stays monotonic. Unknown JSON fields are ignored.
func (b *Backend) ImportLearned(ctx context.Context, dir string) (ImportResult, error) {
	var res ImportResult

	feedback, err := readOptionalJSONL(filepath.Join(dir, FeedbackJSONL))
	if err != nil {
		return res, err
	}
	patterns, err := readOptionalJSONL(filepath.Join(dir, PatternsJSONL))
	if err != nil {
		return res, err
	}

	err = b.withImmediateTx(ctx, func(conn *sql.Conn) error {
		for _, raw := range feedback {
			var rec types.FeedbackRecord
			if err := json.Unmarshal(raw, &rec); err != nil || rec.ID == "" || rec.Validate() != nil {
				res.Skipped++
				continue
			}
			if rec.Style != nil && *rec.Style == "" {
				rec.Style = nil
			}
			r, err := conn.ExecContext(ctx,
				`INSERT OR IGNORE INTO feedback (feedback_id, generation_id, prompt, component_type, variant, mood, industry, style, score, feedback_type, code_hash, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rec.ID, rec.GenerationID, rec.Prompt, rec.ComponentType, rec.Variant, rec.Mood, rec.Industry,
				nullString(rec.Style), rec.Score, rec.FeedbackType, rec.CodeHash, formatTime(rec.CreatedAt))
			if err != nil {
				return fmt.Errorf("importing feedback %s: %w", rec.ID, err)
			}
			if n, _ := r.RowsAffected(); n == 0 {
				res.Skipped++
				continue
			}
			res.Feedback++
		}

		for _, raw := range patterns {
			var p types.CodePattern
			if err := json.Unmarshal(raw, &p); err != nil || p.SkeletonHash == "" || p.Frequency <= 0 {
				res.Skipped++
				continue
			}
			merged, err := mergePattern(ctx, conn, p)
			if err != nil {
				return err
			}
			if !merged {
				res.Skipped++
				continue
			}
			res.Patterns++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	b.logger.Info("imported learned state",
		zap.String("dir", dir),
		zap.Int("feedback", res.Feedback),
		zap.Int("patterns", res.Patterns),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

func mergePattern(ctx context.Context, conn *sql.Conn, p types.CodePattern) (bool, error) {
	cur, err := hydratePattern(conn.QueryRowContext(ctx, selectPattern+" WHERE skeleton_hash = ?", p.SkeletonHash))
	if errors.Is(err, sql.ErrNoRows) {
		if p.FirstSeen.IsZero() {
			return false, fmt.Errorf("importing pattern %s: %w", p.SkeletonHash, types.ErrInvalidID)
		}
		if p.LastSeen.IsZero() {
			p.LastSeen = p.FirstSeen
		}
		if !p.Promoted && p.PromotionCandidate() {
			p.Promoted = true
		}
		_, err := conn.ExecContext(ctx,
			`INSERT INTO code_patterns (skeleton_hash, skeleton, snippet, frequency, avg_score, promoted, first_seen, last_seen)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.SkeletonHash, p.Skeleton, p.Snippet, p.Frequency, p.AvgScore, boolInt(p.Promoted),
			formatTime(p.FirstSeen), formatTime(p.LastSeen))
		if err != nil {
			return false, fmt.Errorf("importing pattern %s: %w", p.SkeletonHash, err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading pattern %s: %w", p.SkeletonHash, err)
	}

	if !p.LastSeen.After(cur.LastSeen) && p.Frequency <= cur.Frequency && !(p.Promoted && !cur.Promoted) {
		return false, nil
	}

	// A larger snapshot already counts every local sighting, so adopting its
	// running totals adds exactly the sightings past the local count.
	if p.Frequency > cur.Frequency {
		cur.Frequency = p.Frequency
		cur.AvgScore = p.AvgScore
	}
	if p.LastSeen.After(cur.LastSeen) {
		cur.LastSeen = p.LastSeen
	}
	if !p.FirstSeen.IsZero() && p.FirstSeen.Before(cur.FirstSeen) {
		cur.FirstSeen = p.FirstSeen
	}
	cur.Promoted = cur.Promoted || p.Promoted || cur.PromotionCandidate()

	_, err = conn.ExecContext(ctx,
		`UPDATE code_patterns SET frequency = ?, avg_score = ?, promoted = MAX(promoted, ?), first_seen = ?, last_seen = ?
		 WHERE skeleton_hash = ?`,
		cur.Frequency, cur.AvgScore, boolInt(cur.Promoted), formatTime(cur.FirstSeen), formatTime(cur.LastSeen),
		cur.SkeletonHash)
	if err != nil {
		return false, fmt.Errorf("merging pattern %s: %w", p.SkeletonHash, err)
	}
	return true, nil
}

// readOptionalJSONL is readJSONL that treats a missing file as empty.
func readOptionalJSONL(path string) ([]json.RawMessage, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return readJSONL(path)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
