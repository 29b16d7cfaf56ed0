// Package cli implements the command-line interface for pkgdeck.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"pkgdeck/internal/config"
	"pkgdeck/internal/executor"
	"pkgdeck/internal/fetch"
	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
)

var (
	// Global flags
	cfgFile string
	source  string
	dryRun  bool
	yes     bool
	verbose bool
	noColor bool

	// Global state
	cfg      *config.Config
	logger   *slog.Logger
	runner   *executor.Executor
	client   *fetch.Client
	registry *manager.Registry
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pkgdeck",
	Short: "One front end for every package manager on the system",
	Long: `pkgdeck lists, searches, installs, removes and updates packages from
the distribution's package manager, Flatpak, Snap, the AUR, language
package managers and package files on disk, all through one interface.

Every operation is recorded in a local history. Changes made outside
pkgdeck are detected by comparing each listing with the last snapshot.

Supported sources:
  System:    apt, dnf, pacman, zypper
  Sandbox:   flatpak, snap
  Meta:      aur (yay, paru)
  Language:  npm, pip, pipx, cargo, brew, conda, mamba, dart
  Files:     deb, appimage

Examples:
  pkgdeck list                         # Installed packages from all sources
  pkgdeck search ripgrep               # Search every source
  pkgdeck install firefox -s flatpak   # Install from Flatpak
  pkgdeck updates                      # Show available updates
  pkgdeck schedule add apt/vim update --at tonight`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&source, "source", "s", "", "package source (apt, flatpak, npm, ...)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would happen without executing")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(downgradeCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(watchCmd)
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err != nil {
		if !ui.ReportError(err) {
			return nil
		}
		if cmd != nil && isUsageError(err) {
			ui.MutedMsg("Run '%s --help' for usage.", cmd.CommandPath())
		}
	}
	return err
}

// initializeApp sets up the application state.
func initializeApp() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Apply global flag overrides
	if yes {
		cfg.General.AutoConfirm = true
	}
	if dryRun {
		cfg.General.DryRun = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.Color = false
	}

	ui.Init(cfg.ShouldUseColor(), true)
	logger = newLogger(cfg.Output.Verbose)
	slog.SetDefault(logger)

	runner = executor.New(cfg.General.DryRun, cfg.Output.Verbose)
	client = fetch.New(cfg.EnrichmentTimeout())

	registry = manager.NewRegistry(cfg, logger)
	registerBackends(registry, cfg, runner, client)
	return nil
}

// newLogger installs a text handler on stderr. Diagnostics stay out of the
// way unless --verbose is given.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// getBackend returns the backend named by --source, or the native one.
func getBackend() (manager.Backend, error) {
	if source != "" {
		src, err := manager.ParseSource(source)
		if err != nil {
			return nil, err
		}
		return registry.Backend(src)
	}

	native, ok := registry.Native()
	if !ok {
		return nil, ErrNoManager
	}
	return registry.Backend(native.Source())
}

// confirm asks unless auto-confirm or dry-run is active.
func confirm(prompt string) (bool, error) {
	if cfg.General.AutoConfirm || cfg.General.DryRun {
		return true, nil
	}
	return ui.Confirm(prompt, true)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pkgdeck version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("pkgdeck version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}
