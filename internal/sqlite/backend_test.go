package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/motif/pkg/types"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func sampleComponents() []types.Component {
	return []types.Component{
		{
			ID: "btn-primary", Category: types.CategoryAtom, Type: "button", Variant: "primary",
			Tags: []string{"cta", "solid"}, Moods: []string{"bold"}, Industries: []string{"saas"},
			VisualStyles: []string{"minimal"},
			Content:      types.Content{Classes: map[string]string{"root": "px-4 py-2"}, Template: "<button>{{label}}</button>"},
			Accessible:   types.Accessibility{Role: "button", KeyboardNav: true, ContrastRatio: 4.8},
			Quality:      types.Quality{CraftDetails: []string{"focus ring"}},
		},
		{
			ID: "btn-ghost", Category: types.CategoryAtom, Type: "button", Variant: "ghost",
			Tags: []string{"cta"}, Moods: []string{"playful", "calm"}, Industries: []string{"retail"},
		},
		{
			ID: "card-feature", Category: types.CategoryMolecule, Type: "card", Variant: "feature",
			Tags: []string{"grid"}, Moods: []string{"calm"}, Industries: []string{"saas", "fintech"},
			VisualStyles: []string{"glass"},
		},
		{
			ID: "hero-split", Category: types.CategoryOrganism, Type: "hero", Variant: "split",
			Moods: []string{"bold"}, VisualStyles: []string{"minimal", "editorial"},
		},
	}
}

func TestBackend_Attach(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	require.NoError(t, b.Attach(cfg))
	_, err := os.Stat(filepath.Join(dir, DatabaseFile))
	assert.NoError(t, err, "database file created")

	assert.ErrorIs(t, b.Attach(cfg), types.ErrAlreadyOpen)
	require.NoError(t, b.Detach())
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{DataDir: t.TempDir()}), types.ErrBackendEmpty)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "detach is idempotent")
	assert.Nil(t, b.DB())

	ctx := context.Background()
	_, err := b.GetAll(ctx)
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	_, err = b.Record(ctx, types.FeedbackRecord{ComponentType: "card", Score: 1, FeedbackType: types.FeedbackExplicit})
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	n, err := b.Seed(ctx, sampleComponents())
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(cfg))
	defer b2.Detach()
	count, err := b2.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
