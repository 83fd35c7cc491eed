// This file implements the vectors table: upsert by (source_id, source_type),
// point lookup, and bulk load for brute-force search and index rebuilds.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// UpsertEmbeddings writes embs in a single transaction. Writing the same
// (source_id, source_type) again replaces the row. All vectors must share
// the dimension of the vectors already stored.
func (b *Backend) UpsertEmbeddings(ctx context.Context, embs []types.Embedding) error {
	if len(embs) == 0 {
		return nil
	}
	for i := range embs {
		if err := embs[i].Validate(); err != nil {
			return fmt.Errorf("validating embedding %s/%s: %w", embs[i].SourceType, embs[i].SourceID, err)
		}
	}

	return b.withImmediateTx(ctx, func(conn *sql.Conn) error {
		dim, err := storedDimensions(ctx, conn)
		if err != nil {
			return err
		}
		if dim == 0 {
			dim = len(embs[0].Vector)
		}

		now := time.Now().UTC()
		for i := range embs {
			e := &embs[i]
			if len(e.Vector) != dim {
				return fmt.Errorf("embedding %s/%s has %d dimensions, index has %d: %w",
					e.SourceType, e.SourceID, len(e.Vector), dim, types.ErrDimensionMismatch)
			}
			createdAt := e.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			_, err := conn.ExecContext(ctx,
				`INSERT INTO embeddings (source_id, source_type, text, vector, dimensions, model, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(source_id, source_type) DO UPDATE SET
				   text = excluded.text,
				   vector = excluded.vector,
				   dimensions = excluded.dimensions,
				   model = excluded.model,
				   created_at = excluded.created_at`,
				e.SourceID, e.SourceType, e.Text, EncodeVector(e.Vector), len(e.Vector), e.Model, formatTime(createdAt),
			)
			if err != nil {
				return &types.IntegrityError{Entity: "embedding", ID: e.SourceType + "/" + e.SourceID, Err: err}
			}
		}
		return nil
	})
}

// GetEmbedding returns the embedding for the key, or nil when there is none.
func (b *Backend) GetEmbedding(ctx context.Context, sourceID, sourceType string) (*types.Embedding, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		`SELECT source_id, source_type, text, vector, dimensions, model, created_at
		 FROM embeddings WHERE source_id = ? AND source_type = ?`, sourceID, sourceType)
	e, err := hydrateEmbedding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting embedding %s/%s: %w", sourceType, sourceID, err)
	}
	return e, nil
}

// LoadEmbeddings returns every embedding of sourceType, or every embedding
// when sourceType is empty, ordered by key.
func (b *Backend) LoadEmbeddings(ctx context.Context, sourceType string) ([]types.Embedding, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	query := `SELECT source_id, source_type, text, vector, dimensions, model, created_at FROM embeddings`
	var args []any
	if sourceType != "" {
		query += " WHERE source_type = ?"
		args = append(args, sourceType)
	}
	query += " ORDER BY source_type, source_id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &types.TransientStoreError{Op: "load embeddings", Err: err}
	}
	defer rows.Close()

	var out []types.Embedding
	for rows.Next() {
		e, err := hydrateEmbedding(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating embedding: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// EmbeddingDimensions returns the stored vector dimension, or 0 when the
// table is empty.
func (b *Backend) EmbeddingDimensions(ctx context.Context) (int, error) {
	db, err := b.handle()
	if err != nil {
		return 0, err
	}
	return storedDimensions(ctx, db)
}

// DeleteEmbedding removes one embedding. Missing keys are a no-op.
func (b *Backend) DeleteEmbedding(ctx context.Context, sourceID, sourceType string) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, "DELETE FROM embeddings WHERE source_id = ? AND source_type = ?", sourceID, sourceType)
	if err != nil {
		return fmt.Errorf("deleting embedding %s/%s: %w", sourceType, sourceID, err)
	}
	return nil
}

func storedDimensions(ctx context.Context, ex execer) (int, error) {
	var dim int
	err := ex.QueryRowContext(ctx, "SELECT dimensions FROM embeddings LIMIT 1").Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading stored dimensions: %w", err)
	}
	return dim, nil
}

func hydrateEmbedding(row scanner) (*types.Embedding, error) {
	var e types.Embedding
	var blob []byte
	var createdAt string
	if err := row.Scan(&e.SourceID, &e.SourceType, &e.Text, &blob, &e.Dimensions, &e.Model, &createdAt); err != nil {
		return nil, err
	}
	e.Vector = DecodeVector(blob)
	if len(e.Vector) != e.Dimensions {
		return nil, fmt.Errorf("vector blob for %s/%s: %w", e.SourceType, e.SourceID, types.ErrDimensionMismatch)
	}
	var err error
	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &e, nil
}

// EncodeVector packs v as little-endian float32s.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector unpacks a little-endian float32 blob. Trailing bytes that do
// not form a whole float are ignored.
func DecodeVector(blob []byte) []float32 {
	n := len(blob) / 4
	v := make([]float32, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return v
}
