// Package paths resolves the configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "motif"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "MOTIF_CONFIG_DIR"
	EnvDataDir   = "MOTIF_DATA_DIR"
)

// File names inside the configuration directory.
const (
	ConfigFileName = "config.yaml"
	EnvFileName    = ".env"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// xdg returns $envVar/motif, or home/fallback.../motif when envVar is unset.
func xdg(envVar string, fallback ...string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/motif (fallback ~/.config/motif)
// macOS:   ~/Library/Application Support/motif
// Windows: %APPDATA%/motif
func DefaultConfigDir() (string, error) {
	if platformDir.goos == "linux" {
		return xdg("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the platform data directory. Outside Linux it is
// the configuration directory.
//
// Linux:   $XDG_DATA_HOME/motif (fallback ~/.local/share/motif)
func DefaultDataDir() (string, error) {
	if platformDir.goos == "linux" {
		return xdg("XDG_DATA_HOME", ".local", "share")
	}
	return DefaultConfigDir()
}

// ResolveConfigDir applies flag > MOTIF_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	return first(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir applies flag > config.yaml data_dir > MOTIF_DATA_DIR >
// DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return first(DefaultDataDir, flag, configValue, os.Getenv(EnvDataDir))
}

// first returns the absolute form of the first non-empty candidate, or the
// fallback.
func first(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}

// ConfigFile returns the config.yaml path inside dir.
func ConfigFile(dir string) string { return filepath.Join(dir, ConfigFileName) }

// EnvFile returns the .env path inside dir.
func EnvFile(dir string) string { return filepath.Join(dir, EnvFileName) }
