package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/motif/pkg/types"
)

func TestUpsertEmbeddings_Idempotent(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	e := types.Embedding{SourceID: "btn-primary", SourceType: types.SourceComponent, Text: "button", Vector: []float32{1, 0, 0}, Model: "hash"}
	require.NoError(t, b.UpsertEmbeddings(ctx, []types.Embedding{e}))
	e.Text = "primary button"
	e.Vector = []float32{0, 1, 0}
	require.NoError(t, b.UpsertEmbeddings(ctx, []types.Embedding{e}))

	all, err := b.LoadEmbeddings(ctx, types.SourceComponent)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "primary button", all[0].Text)
	assert.Equal(t, []float32{0, 1, 0}, all[0].Vector)
	assert.Equal(t, 3, all[0].Dimensions)
}

func TestUpsertEmbeddings_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.UpsertEmbeddings(ctx, []types.Embedding{
		{SourceID: "a", SourceType: types.SourceComponent, Vector: []float32{1, 0}},
	}))
	err := b.UpsertEmbeddings(ctx, []types.Embedding{
		{SourceID: "b", SourceType: types.SourceComponent, Vector: []float32{1, 0, 0}},
	})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	dim, err := b.EmbeddingDimensions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dim)
}

func TestUpsertEmbeddings_BatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	err := b.UpsertEmbeddings(ctx, []types.Embedding{
		{SourceID: "a", SourceType: types.SourceComponent, Vector: []float32{1, 0}},
		{SourceID: "b", SourceType: types.SourceComponent, Vector: []float32{1, 0, 0}},
	})
	require.ErrorIs(t, err, types.ErrDimensionMismatch)

	got, err := b.GetEmbedding(ctx, "a", types.SourceComponent)
	require.NoError(t, err)
	assert.Nil(t, got, "first row rolled back with the batch")
}

func TestLoadEmbeddings_FiltersBySourceType(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.UpsertEmbeddings(ctx, []types.Embedding{
		{SourceID: "x", SourceType: types.SourceComponent, Vector: []float32{1, 0}},
		{SourceID: "x", SourceType: types.SourcePrompt, Vector: []float32{0, 1}},
	}))

	comps, err := b.LoadEmbeddings(ctx, types.SourceComponent)
	require.NoError(t, err)
	assert.Len(t, comps, 1)

	all, err := b.LoadEmbeddings(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, b.DeleteEmbedding(ctx, "x", types.SourcePrompt))
	got, err := b.GetEmbedding(ctx, "x", types.SourcePrompt)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0.5, -1.25, 3e-7, 0}
	blob := EncodeVector(v)
	assert.Len(t, blob, 16)
	assert.Equal(t, v, DecodeVector(blob))
	assert.Empty(t, DecodeVector(nil))
}
