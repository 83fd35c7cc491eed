package motif_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/motif/pkg/motif"
	"github.com/mesh-intelligence/motif/pkg/types"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cat, err := motif.ReadCatalog("../../internal/catalog/testdata/catalog.yaml")
	require.NoError(t, err)

	eng, err := motif.Open(ctx, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, cat)
	require.NoError(t, err)
	defer eng.Close()

	res, err := eng.Rerank.Rerank(ctx, types.Query{Type: "button", Mood: "bold"})
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "btn-primary", res[0].Component.ID)
}

func TestNewStore(t *testing.T) {
	s := motif.NewStore()
	require.NoError(t, s.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer s.Detach()

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
