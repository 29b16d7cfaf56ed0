package cli

import (
	"github.com/spf13/cobra"

	"pkgdeck/internal/ui"
)

var (
	listRefresh bool
	listEnrich  bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed packages",
	Long: `List installed packages from every enabled source, or from the one
named by --source.

A listing younger than an hour is reused unless --refresh is given. Each
fresh listing is compared with the last snapshot and changes made outside
pkgdeck are recorded in the history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pkgs, err := listInstalled(ctx, listRefresh)
		if err != nil {
			return err
		}
		if listEnrich && cfg.Enrichment.Enabled {
			enricher, done := openEnricher(ctx)
			err = ui.WithSpinner("Fetching package metadata...", func() error {
				pkgs = enricher.Enrich(ctx, pkgs)
				return nil
			})
			done()
			if err != nil {
				return err
			}
		}
		ui.PrintPackages(pkgs)
		ui.MutedMsg("\n%d packages", len(pkgs))
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listRefresh, "refresh", "r", false, "ignore the cached listing")
	listCmd.Flags().BoolVar(&listEnrich, "enrich", false, "fetch homepage, license and maintainer from online indexes")
}
