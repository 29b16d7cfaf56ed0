package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
)

var searchOffline bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for packages",
	Long: `Search every enabled source, or the one named by --source. Results are
capped per source and grouped in source order.

With --offline only the cached listing of installed packages is searched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchOffline, "offline", false, "search installed packages in the cached listing")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	listing, err := listingStore().Load()
	if err != nil {
		logger.Debug("cached listing unreadable", "err", err)
	}

	if searchOffline {
		if listing == nil {
			ui.WarningMsg("No cached listing; run 'pkgdeck list' first")
			return nil
		}
		matches := listing.Match(query)
		ui.PrintSearchResults(matches, manager.Index(matches))
		return nil
	}

	backends, err := selectedBackends()
	if err != nil {
		return err
	}
	var agg manager.Aggregate
	err = ui.WithSpinner("Searching for "+query+"...", func() error {
		agg = registry.SearchFrom(ctx, backends, query)
		return ctx.Err()
	})
	if err != nil {
		return err
	}
	reportFailures(agg.Failures)

	var installed map[manager.Key]manager.Package
	if listing != nil {
		installed = manager.Index(listing.Packages)
	}
	ui.PrintSearchResults(agg.Packages, installed)
	return nil
}
