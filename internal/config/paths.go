package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appName        = "pkgdeck"
	configFile     = "config.toml"
	historyFile    = "history.json"
	snapshotFile   = "snapshot.json"
	enrichmentFile = "enrichment.json"
	listingFile    = "packages.json"
	scheduleFile   = "schedule.db"
)

// ConfigDir returns the platform-specific configuration directory for pkgdeck.
func ConfigDir() string {
	if runtime.GOOS == "darwin" {
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, "Library", "Application Support", appName)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir() //nolint:errcheck
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the platform-specific data directory for pkgdeck.
func DataDir() string {
	if runtime.GOOS == "darwin" {
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, "Library", "Application Support", appName)
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir() //nolint:errcheck
	return filepath.Join(home, ".local", "share", appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}

// HistoryPath returns the full path to the operation history file.
func HistoryPath() string {
	return filepath.Join(DataDir(), historyFile)
}

// SnapshotPath returns the full path to the package snapshot file.
func SnapshotPath() string {
	return filepath.Join(DataDir(), snapshotFile)
}

// EnrichmentPath returns the full path to the enrichment cache file.
func EnrichmentPath() string {
	return filepath.Join(DataDir(), enrichmentFile)
}

// ListingPath returns the full path to the cached package listing.
func ListingPath() string {
	return filepath.Join(DataDir(), listingFile)
}

// SchedulePath returns the full path to the scheduled task database.
func SchedulePath() string {
	return filepath.Join(DataDir(), scheduleFile)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0755)
}
