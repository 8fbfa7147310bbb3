package config

import (
	"os"
	"path/filepath"
)

const appName = "calificador"

// xdgDir returns $env, or home joined with fallback. Without a home
// directory it degrades to the working directory.
func xdgDir(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// XDGConfigHome returns $XDG_CONFIG_HOME or ~/.config.
func XDGConfigHome() string { return xdgDir("XDG_CONFIG_HOME", ".config") }

// XDGDataHome returns $XDG_DATA_HOME or ~/.local/share.
func XDGDataHome() string { return xdgDir("XDG_DATA_HOME", ".local", "share") }

// DefaultDBPath is where graded batches are stored unless --db says otherwise.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultEnvPaths lists the .env files read at startup, in load order.
// Values already set in the environment win over later files.
func DefaultEnvPaths() []string {
	return []string{".env", filepath.Join(XDGConfigHome(), appName, ".env")}
}
