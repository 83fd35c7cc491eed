// This file provides JSONL read/write helpers with atomic persistence, used
// to export and import the learned state (feedback and code patterns).
package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Learned-state file names inside an export directory.
const (
	FeedbackJSONL = "feedback.jsonl"
	PatternsJSONL = "code_patterns.jsonl"
)

// ExportLearned writes the feedback ledger and code patterns to dir as
// JSONL, oldest feedback first. Each file is replaced atomically.
func (b *Backend) ExportLearned(ctx context.Context, dir string) (feedback, patterns int, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("creating export directory: %w", err)
	}

	recs, err := b.ListFeedback(ctx, "", 0)
	if err != nil {
		return 0, 0, err
	}
	lines := make([]json.RawMessage, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		raw, err := json.Marshal(recs[i])
		if err != nil {
			return 0, 0, fmt.Errorf("marshaling feedback %s: %w", recs[i].ID, err)
		}
		lines = append(lines, raw)
	}
	if err := writeJSONL(filepath.Join(dir, FeedbackJSONL), lines); err != nil {
		return 0, 0, fmt.Errorf("writing %s: %w", FeedbackJSONL, err)
	}

	pats, err := b.ListPatterns(ctx, false)
	if err != nil {
		return 0, 0, err
	}
	lines = lines[:0]
	for _, p := range pats {
		raw, err := json.Marshal(p)
		if err != nil {
			return 0, 0, fmt.Errorf("marshaling pattern %s: %w", p.SkeletonHash, err)
		}
		lines = append(lines, raw)
	}
	if err := writeJSONL(filepath.Join(dir, PatternsJSONL), lines); err != nil {
		return 0, 0, fmt.Errorf("writing %s: %w", PatternsJSONL, err)
	}

	b.logger.Info("exported learned state",
		zap.String("dir", dir), zap.Int("feedback", len(recs)), zap.Int("patterns", len(pats)))
	return len(recs), len(pats), nil
}
