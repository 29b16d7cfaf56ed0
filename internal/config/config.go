package config

import (
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete pkgdeck configuration.
type Config struct {
	General    GeneralConfig            `toml:"general"`
	Output     OutputConfig             `toml:"output"`
	Sources    SourcesConfig            `toml:"sources"`
	Managers   map[string]ManagerConfig `toml:"managers"`
	Enrichment EnrichmentConfig         `toml:"enrichment"`
}

// GeneralConfig contains general pkgdeck settings.
type GeneralConfig struct {
	// AutoConfirm skips confirmation prompts when true (like -y flag).
	AutoConfirm bool `toml:"auto_confirm"`

	// DryRun shows what would happen without executing when true.
	DryRun bool `toml:"dry_run"`

	// HistoryLimit bounds the number of retained history entries.
	HistoryLimit int `toml:"history_limit"`

	// Snapshots enables snapshot reconciliation after every listing.
	Snapshots bool `toml:"snapshots"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Verbose enables detailed output and debug logging.
	Verbose bool `toml:"verbose"`
}

// SourcesConfig selects which package sources take part.
type SourcesConfig struct {
	// Disabled lists sources that are never queried, by name ("snap", "pip").
	Disabled []string `toml:"disabled"`

	// Priority orders sources when the same package exists in several.
	Priority []string `toml:"priority"`
}

// ManagerConfig contains per-source settings.
type ManagerConfig struct {
	// AURHelper specifies which AUR helper to prefer (yay, paru). AUR only.
	AURHelper string `toml:"aur_helper"`

	// DefaultRemote specifies the default remote for Flatpak.
	DefaultRemote string `toml:"default_remote"`

	// AllowClassic allows classic confinement for Snap packages.
	AllowClassic bool `toml:"allow_classic"`

	// Directory is scanned for package files. deb and appimage only.
	Directory string `toml:"directory"`

	// InstallDirectory receives installed AppImages.
	InstallDirectory string `toml:"install_directory"`

	// PreferFlutter uses flutter instead of dart for pub commands.
	PreferFlutter bool `toml:"prefer_flutter"`
}

// EnrichmentConfig controls online metadata lookups.
type EnrichmentConfig struct {
	Enabled        bool `toml:"enabled"`
	TTLHours       int  `toml:"ttl_hours"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			HistoryLimit: 1000,
			Snapshots:    true,
		},
		Output: OutputConfig{
			Color: true,
		},
		Sources: SourcesConfig{
			Priority: []string{"apt", "dnf", "pacman", "zypper", "flatpak", "snap"},
		},
		Managers: map[string]ManagerConfig{
			"aur": {
				AURHelper: "yay",
			},
			"flatpak": {
				DefaultRemote: "flathub",
			},
			"deb": {
				Directory: "~/Downloads",
			},
			"appimage": {
				Directory:        "~/Downloads",
				InstallDirectory: "~/Applications",
			},
		},
		Enrichment: EnrichmentConfig{
			Enabled:        true,
			TTLHours:       7 * 24,
			TimeoutSeconds: 10,
		},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}

// GetManagerConfig returns the configuration for a specific source.
// Returns an empty config if no configuration exists for the source.
func (c *Config) GetManagerConfig(name string) ManagerConfig {
	if cfg, ok := c.Managers[name]; ok {
		return cfg
	}
	return ManagerConfig{}
}

// IsDisabled reports whether the named source is switched off.
func (c *Config) IsDisabled(name string) bool {
	return slices.Contains(c.Sources.Disabled, name)
}

// EnrichmentTTL returns the enrichment cache lifetime.
func (c *Config) EnrichmentTTL() time.Duration {
	if c.Enrichment.TTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(c.Enrichment.TTLHours) * time.Hour
}

// EnrichmentTimeout returns the per-request timeout for metadata lookups.
func (c *Config) EnrichmentTimeout() time.Duration {
	if c.Enrichment.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Enrichment.TimeoutSeconds) * time.Second
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}
