package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.General.HistoryLimit != 1000 {
		t.Errorf("expected HistoryLimit 1000, got %d", cfg.General.HistoryLimit)
	}
	if !cfg.General.Snapshots {
		t.Error("expected Snapshots to be true by default")
	}
	if cfg.General.DryRun {
		t.Error("expected DryRun to be false by default")
	}
	if len(cfg.Sources.Disabled) != 0 {
		t.Errorf("expected no disabled sources, got %v", cfg.Sources.Disabled)
	}
	if got := cfg.GetManagerConfig("aur").AURHelper; got != "yay" {
		t.Errorf("expected aur helper 'yay', got %q", got)
	}
	if cfg.EnrichmentTTL() != 7*24*time.Hour {
		t.Errorf("expected 7 day TTL, got %v", cfg.EnrichmentTTL())
	}
}

func TestGetManagerConfig(t *testing.T) {
	cfg := &Config{
		Managers: map[string]ManagerConfig{
			"aur":  {AURHelper: "paru"},
			"dart": {PreferFlutter: true},
		},
	}

	if got := cfg.GetManagerConfig("aur").AURHelper; got != "paru" {
		t.Errorf("expected AURHelper 'paru', got '%s'", got)
	}
	if !cfg.GetManagerConfig("dart").PreferFlutter {
		t.Error("expected PreferFlutter for dart")
	}

	// Non-existing manager returns empty config
	if got := cfg.GetManagerConfig("dnf"); got != (ManagerConfig{}) {
		t.Errorf("expected empty config, got %+v", got)
	}
}

func TestIsDisabled(t *testing.T) {
	cfg := Default()
	cfg.Sources.Disabled = []string{"snap", "pip"}

	tests := []struct {
		name string
		want bool
	}{
		{"snap", true},
		{"pip", true},
		{"pipx", false},
		{"apt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.IsDisabled(tt.name); got != tt.want {
				t.Errorf("IsDisabled(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestEnrichmentDurations(t *testing.T) {
	cfg := &Config{}
	if cfg.EnrichmentTTL() != 7*24*time.Hour {
		t.Errorf("zero TTL should fall back to 7 days, got %v", cfg.EnrichmentTTL())
	}
	if cfg.EnrichmentTimeout() != 10*time.Second {
		t.Errorf("zero timeout should fall back to 10s, got %v", cfg.EnrichmentTimeout())
	}

	cfg.Enrichment = EnrichmentConfig{TTLHours: 2, TimeoutSeconds: 3}
	if cfg.EnrichmentTTL() != 2*time.Hour {
		t.Errorf("EnrichmentTTL() = %v, want 2h", cfg.EnrichmentTTL())
	}
	if cfg.EnrichmentTimeout() != 3*time.Second {
		t.Errorf("EnrichmentTimeout() = %v, want 3s", cfg.EnrichmentTimeout())
	}
}

func TestShouldUseColor(t *testing.T) {
	cfg := &Config{
		Output: OutputConfig{Color: true},
	}

	t.Setenv("NO_COLOR", "")
	if !cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return true")
	}

	t.Setenv("NO_COLOR", "1")
	if cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return false when NO_COLOR is set")
	}
}

func TestLoadSaveConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configPath := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.Sources.Disabled = []string{"snap"}
	cfg.General.HistoryLimit = 25

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	if !loaded.IsDisabled("snap") {
		t.Error("loaded config lost the disabled source")
	}
	if loaded.General.HistoryLimit != 25 {
		t.Errorf("HistoryLimit = %d, want 25", loaded.General.HistoryLimit)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[general]\ndry_run = true\n\n[managers.aur]\naur_helper = \"paru\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if !cfg.General.DryRun {
		t.Error("expected dry_run from file")
	}
	if cfg.General.HistoryLimit != 1000 {
		t.Errorf("default history limit lost, got %d", cfg.General.HistoryLimit)
	}
	if cfg.GetManagerConfig("aur").AURHelper != "paru" {
		t.Error("expected aur helper override")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	cfg, err := LoadFrom("/non/existent/path/config.toml")
	if err != nil {
		t.Fatalf("LoadFrom() should not error for non-existent file: %v", err)
	}
	if !cfg.Output.Color {
		t.Error("expected default Color to be true")
	}
}
