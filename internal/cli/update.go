package cli

import (
	"context"

	"github.com/spf13/cobra"

	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
)

var updatesCmd = &cobra.Command{
	Use:     "updates",
	Aliases: []string{"outdated"},
	Short:   "Show available updates",
	Long: `Check every enabled source, or the one named by --source, for newer
versions of installed packages.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		updates, err := checkUpdates(cmd.Context())
		if err != nil {
			return err
		}
		ui.PrintUpdates(updates)
		return nil
	},
}

// checkUpdates collects available updates. Sources that do not report the
// installed version have it filled in from the cached listing.
func checkUpdates(ctx context.Context) ([]manager.Package, error) {
	backends, err := selectedBackends()
	if err != nil {
		return nil, err
	}

	var agg manager.Aggregate
	err = ui.WithSpinner("Checking for updates...", func() error {
		agg = registry.CheckFrom(ctx, backends)
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}
	reportFailures(agg.Failures)

	if l, err := listingStore().Load(); err == nil && l != nil {
		backfillVersions(agg.Packages, manager.Index(l.Packages))
	}
	return agg.Packages, nil
}

// backfillVersions sets missing installed versions from installed.
func backfillVersions(updates []manager.Package, installed map[manager.Key]manager.Package) {
	for i := range updates {
		if updates[i].Version != "" {
			continue
		}
		if p, ok := installed[updates[i].Key()]; ok {
			updates[i].Version = p.Version
		}
	}
}

var updateCmd = &cobra.Command{
	Use:   "update <packages...>",
	Short: "Update specific packages",
	Long: `Update packages to the newest version their source offers.
Use 'pkgdeck upgrade' to update everything.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		targets, err := resolveAll(ctx, args, resolveInstalled)
		if err != nil {
			return err
		}
		if err := printPlan("Update plan", targets); err != nil {
			return err
		}
		return runBatch(ctx, openTracker(), manager.OpUpdate, targets, "Updating")
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Update every package that has a newer version",
	Long: `Check all enabled sources for updates and apply them one package at
a time. A failing package does not stop the others.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		updates, err := checkUpdates(ctx)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			ui.SuccessMsg("Everything is up to date")
			return nil
		}
		ui.PrintUpdates(updates)

		targets := make([]target, 0, len(updates))
		for _, p := range updates {
			b, err := registry.Backend(p.Source)
			if err != nil {
				ui.ReportError(err)
				continue
			}
			targets = append(targets, target{name: p.Name, backend: b})
		}

		ok, err := confirm("Apply these updates?")
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
		return runBatch(ctx, openTracker(), manager.OpUpdate, targets, "Updating")
	},
}
