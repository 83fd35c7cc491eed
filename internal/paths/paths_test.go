package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform pins the platform lookups for one test.
func fakePlatform(t *testing.T, goos, home, configDir string) {
	t.Helper()
	saved := platformDir
	t.Cleanup(func() { platformDir = saved })
	platformDir.goos = goos
	platformDir.homeDir = func() (string, error) { return home, nil }
	platformDir.userConfigDir = func() (string, error) { return configDir, nil }
}

func TestDefaultDirs(t *testing.T) {
	tests := []struct {
		name       string
		goos       string
		xdgConfig  string
		xdgData    string
		wantConfig string
		wantData   string
	}{
		{
			name:       "linux with XDG",
			goos:       "linux",
			xdgConfig:  "/xdg/config",
			xdgData:    "/xdg/data",
			wantConfig: "/xdg/config/motif",
			wantData:   "/xdg/data/motif",
		},
		{
			name:       "linux without XDG",
			goos:       "linux",
			wantConfig: "/home/ana/.config/motif",
			wantData:   "/home/ana/.local/share/motif",
		},
		{
			name:       "darwin shares one directory",
			goos:       "darwin",
			xdgConfig:  "/ignored",
			wantConfig: "/home/ana/Library/Application Support/motif",
			wantData:   "/home/ana/Library/Application Support/motif",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakePlatform(t, tt.goos, "/home/ana", "/home/ana/Library/Application Support")
			t.Setenv("XDG_CONFIG_HOME", tt.xdgConfig)
			t.Setenv("XDG_DATA_HOME", tt.xdgData)

			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantConfig), got)

			got, err = DefaultDataDir()
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.wantData), got)
		})
	}
}

func TestDefaultConfigDir_HomeError(t *testing.T) {
	fakePlatform(t, "linux", "", "")
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
	t.Setenv("XDG_CONFIG_HOME", "")

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	fakePlatform(t, "linux", "/home/ana", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	flagDir := t.TempDir()
	envDir := t.TempDir()

	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "flag wins", flag: flagDir, env: envDir, want: flagDir},
		{name: "env when no flag", env: envDir, want: envDir},
		{name: "platform default", want: "/home/ana/.config/motif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	fakePlatform(t, "linux", "/home/ana", "")
	t.Setenv("XDG_DATA_HOME", "")
	flagDir := t.TempDir()
	cfgDir := t.TempDir()
	envDir := t.TempDir()

	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{name: "flag wins", flag: flagDir, config: cfgDir, env: envDir, want: flagDir},
		{name: "config over env", config: cfgDir, env: envDir, want: cfgDir},
		{name: "env when nothing else", env: envDir, want: envDir},
		{name: "platform default", want: "/home/ana/.local/share/motif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestResolve_RelativeBecomesAbsolute(t *testing.T) {
	got, err := ResolveConfigDir("rel/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, filepath.Join(got, "config.yaml"), ConfigFile(got))
	assert.Equal(t, filepath.Join(got, ".env"), EnvFile(got))
}
