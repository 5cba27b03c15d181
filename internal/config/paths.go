package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Application directory name used across all platforms.
const appName = "ghive"

// File names inside the config and data directories.
const (
	configFileName = "config.toml"
	stateFileName  = "ledger.db"
	lockFileName   = "ghive.pid"
)

// DefaultConfigDir returns the directory holding config.toml:
// $XDG_CONFIG_HOME/ghive (default ~/.config/ghive), or
// ~/Library/Application Support/ghive on macOS. Empty if the home directory
// is unknown.
func DefaultConfigDir() string {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the directory holding the ledger and the run lock:
// $XDG_DATA_HOME/ghive (default ~/.local/share/ghive). On macOS config and
// data share one directory.
func DefaultDataDir() string {
	return appDir("XDG_DATA_HOME", ".local", "share")
}

func appDir(xdgVar string, fallback ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", appName)
	}

	return xdgDir(home, xdgVar, fallback...)
}

// xdgDir resolves an XDG base directory for ghive: the variable if set,
// otherwise home joined with fallback.
func xdgDir(home, xdgVar string, fallback ...string) string {
	if base := os.Getenv(xdgVar); base != "" {
		return filepath.Join(base, appName)
	}

	return filepath.Join(append(append([]string{home}, fallback...), appName)...)
}

// DefaultConfigPath returns the config file used when neither GHIVE_CONFIG
// nor --config is given.
func DefaultConfigPath() string {
	return inDir(DefaultConfigDir(), configFileName)
}

// DefaultStateDBPath returns the default ledger database path.
func DefaultStateDBPath() string {
	return inDir(DefaultDataDir(), stateFileName)
}

func inDir(dir, name string) string {
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, name)
}
