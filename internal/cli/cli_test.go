package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/motif/pkg/types"
)

const catalogPath = "../catalog/testdata/catalog.yaml"

type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("MOTIF_CATALOG", "")
	t.Setenv("MOTIF_BACKEND", "")
	t.Setenv("MOTIF_VECTOR_BACKEND", "")
	return &cliEnv{configDir: t.TempDir(), dataDir: t.TempDir()}
}

// run executes one motif invocation and returns stdout.
func (c *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", c.configDir, "--data-dir", c.dataDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestInit_WritesDefaultConfig(t *testing.T) {
	c := newCLIEnv(t)
	out := c.mustRun(t, "init")
	assert.Contains(t, out, "motif initialized")

	data, err := os.ReadFile(filepath.Join(c.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.FileExists(t, filepath.Join(c.dataDir, "motif.db"))
}

func TestSeedSearchRerank(t *testing.T) {
	c := newCLIEnv(t)

	var seeded seedResult
	require.NoError(t, json.Unmarshal([]byte(c.mustRun(t, "--json", "seed", catalogPath)), &seeded))
	assert.Equal(t, 5, seeded.Components)
	assert.Equal(t, 1, seeded.Compositions)

	out := c.mustRun(t, "seed", catalogPath)
	assert.Contains(t, out, "already populated")

	var res []types.ScoredComponent
	require.NoError(t, json.Unmarshal([]byte(c.mustRun(t, "--json", "search", "--type", "button", "--mood", "bold")), &res))
	require.Len(t, res, 2)
	assert.Equal(t, "btn-primary", res[0].Component.ID)
	assert.Empty(t, res[0].Component.Content.Template, "content only on request")

	for i := 0; i < 5; i++ {
		c.mustRun(t, "feedback", "record", "--type", "button", "--score", "2")
	}
	res = nil
	require.NoError(t, json.Unmarshal([]byte(c.mustRun(t, "--json", "rerank", "--type", "button")), &res))
	require.Len(t, res, 2)
	assert.Greater(t, res[0].Boost, 0.0)
}

func TestFeedback_RejectsOutOfRangeScore(t *testing.T) {
	c := newCLIEnv(t)
	_, err := c.run(t, "feedback", "record", "--type", "card", "--score", "3")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestFeedback_ExportImport(t *testing.T) {
	c := newCLIEnv(t)
	c.mustRun(t, "feedback", "record", "--type", "hero", "--style", "glass", "--score", "1")
	c.mustRun(t, "feedback", "record", "--type", "hero", "--score", "-1", "--kind", "implicit")

	dir := t.TempDir()
	out := c.mustRun(t, "feedback", "export", dir)
	assert.Contains(t, out, "exported 2 feedback records")

	other := newCLIEnv(t)
	out = other.mustRun(t, "--json", "feedback", "import", dir)
	var res struct{ Feedback int }
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Feedback)

	var r struct {
		Volume types.FeedbackVolume
	}
	require.NoError(t, json.Unmarshal([]byte(other.mustRun(t, "--json", "readiness")), &r))
	assert.Equal(t, 1, r.Volume.Explicit)
	assert.Equal(t, 1, r.Volume.Implicit)
}

func TestPattern_ObserveAndCandidates(t *testing.T) {
	c := newCLIEnv(t)
	file := filepath.Join(t.TempDir(), "out.html")
	require.NoError(t, os.WriteFile(file, []byte(`<nav><ul><li><a href="/">Home</a></li></ul></nav>`), 0o644))

	for i := 0; i < 3; i++ {
		c.mustRun(t, "pattern", "observe", file, "--score", "1")
	}
	var pats []types.CodePattern
	require.NoError(t, json.Unmarshal([]byte(c.mustRun(t, "--json", "pattern", "candidates")), &pats))
	require.Len(t, pats, 1)
	assert.Equal(t, "navigation>list>item>link", pats[0].Skeleton)
	assert.True(t, pats[0].Promoted)
}

func TestCompose(t *testing.T) {
	c := newCLIEnv(t)
	c.mustRun(t, "seed", catalogPath)

	out := c.mustRun(t, "compose", "landing-saas")
	assert.Contains(t, out, "hero-split")

	_, err := c.run(t, "compose", "missing")
	assert.ErrorIs(t, err, errUsage)
}

func TestSimilar_AfterIndexing(t *testing.T) {
	c := newCLIEnv(t)
	t.Setenv("MOTIF_VECTOR_BACKEND", types.VectorBruteForce)
	out := c.mustRun(t, "seed", catalogPath, "--index")
	assert.Contains(t, out, "indexed 5 components")

	var matches []types.Match
	require.NoError(t, json.Unmarshal([]byte(c.mustRun(t, "--json", "similar", "organism", "hero", "split", "-k", "1", "--min", "0")), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "hero-split", matches[0].SourceID)
}

func TestVersion(t *testing.T) {
	c := newCLIEnv(t)
	out := c.mustRun(t, "version")
	assert.Contains(t, out, "motif v"+Version)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitSuccess},
		{name: "usage", err: usagef("bad"), want: exitUserError},
		{name: "integrity", err: &types.IntegrityError{Entity: "component", ID: "x", Err: types.ErrDuplicateID}, want: exitUserError},
		{name: "transient", err: &types.TransientStoreError{Op: "open", Err: os.ErrPermission}, want: exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
