package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
)

var infoOffline bool

var infoCmd = &cobra.Command{
	Use:   "info <package>",
	Short: "Show details about a package",
	Long: `Show what the source reports about a package. Installed packages are
looked up first, then every source is searched for the exact name.

Homepage, license, maintainer and popularity are fetched from the AUR,
npm, PyPI and crates.io indexes and cached for a week.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoOffline, "offline", false, "skip online metadata lookups")
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name := args[0]
	if err := manager.ValidateName(name); err != nil {
		return err
	}

	p, err := findPackage(ctx, name)
	if err != nil {
		return err
	}

	if cfg.Enrichment.Enabled && !infoOffline {
		enricher, done := openEnricher(ctx)
		if enricher.Supports(p.Source) {
			if out := enricher.Enrich(ctx, []manager.Package{p}); len(out) == 1 {
				p = out[0]
			}
		}
		done()
	}

	ui.PrintPackageInfo(p)
	return nil
}

// findPackage returns the installed record of name, or the first exact
// search match.
func findPackage(ctx context.Context, name string) (manager.Package, error) {
	if pkgs, err := listInstalled(ctx, false); err == nil {
		if matches := exactMatches(pkgs, name); len(matches) > 0 {
			chosen, err := ui.SelectPackage(matches, fmt.Sprintf("%s is installed from several sources", name))
			if err != nil {
				return manager.Package{}, err
			}
			return *chosen, nil
		}
	}

	backends, err := selectedBackends()
	if err != nil {
		return manager.Package{}, err
	}
	agg := registry.SearchFrom(ctx, backends, name)
	matches := exactMatches(agg.Packages, name)
	if len(matches) == 0 {
		return manager.Package{}, fmt.Errorf("%s: %w", name, ErrNotFoundAnywhere)
	}
	return matches[0], nil
}
