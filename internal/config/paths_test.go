package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDataFilePaths(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("XDG not used on this platform")
	}
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	tests := []struct {
		name string
		got  string
		file string
	}{
		{"history", HistoryPath(), "history.json"},
		{"snapshot", SnapshotPath(), "snapshot.json"},
		{"enrichment", EnrichmentPath(), "enrichment.json"},
		{"listing", ListingPath(), "packages.json"},
		{"schedule", SchedulePath(), "schedule.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := filepath.Join(dataHome, "pkgdeck", tt.file)
			if tt.got != want {
				t.Errorf("path = %s, want %s", tt.got, want)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if !strings.HasSuffix(path, filepath.Join("pkgdeck", "config.toml")) {
		t.Errorf("ConfigPath() should end with 'pkgdeck/config.toml': %s", path)
	}
}

func TestEnsureDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if err := EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir() error: %v", err)
	}

	info, err := os.Stat(DataDir())
	if err != nil {
		t.Fatalf("Data directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("DataDir is not a directory")
	}
}

func TestXDGOverride(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("XDG not used on this platform")
	}

	tmpDir := t.TempDir()
	customConfig := filepath.Join(tmpDir, "custom_config")
	customData := filepath.Join(tmpDir, "custom_data")
	t.Setenv("XDG_CONFIG_HOME", customConfig)
	t.Setenv("XDG_DATA_HOME", customData)

	if dir := ConfigDir(); !strings.HasPrefix(dir, customConfig) {
		t.Errorf("ConfigDir should use XDG_CONFIG_HOME: %s", dir)
	}
	if dir := DataDir(); !strings.HasPrefix(dir, customData) {
		t.Errorf("DataDir should use XDG_DATA_HOME: %s", dir)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/Applications", filepath.Join(home, "Applications")},
		{"/opt/apps", "/opt/apps"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandHome(tt.in); got != tt.want {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
