package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"pkgdeck/internal/history"
	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage the package snapshot",
	Long: `The snapshot is the last known set of installed packages. Listings are
compared against it to find changes made outside pkgdeck, and it can be
restored to reinstall or remove packages that changed since.`,
}

var snapshotTakeCmd = &cobra.Command{
	Use:   "take",
	Short: "Replace the snapshot with the current installed packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pkgs, agg, err := listFresh(cmd)
		if err != nil {
			return err
		}
		if len(agg.Failures) > 0 {
			return fmt.Errorf("%w: not every source could be listed", ErrOperationsFailed)
		}
		openTracker().TakeSnapshot(pkgs)
		ui.SuccessMsg("Snapshot taken (%d packages)", len(pkgs))
		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := snapshotStore().Load()
		if err != nil {
			return err
		}
		if snap == nil {
			ui.MutedMsg("No snapshot yet; run 'pkgdeck list' or 'pkgdeck snapshot take'")
			return nil
		}

		ui.HeaderMsg("Snapshot %s", snap.Summary())
		counts := snap.CountBySource()
		t := ui.NewTable("source", "packages")
		for _, src := range manager.AllSources() {
			if n := counts[src]; n > 0 {
				t.AddRow(ui.SourceBadge(src), fmt.Sprint(n))
			}
		}
		t.Render()
		return nil
	},
}

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show what changed since the snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := snapshotStore().Load()
		if err != nil {
			return err
		}
		if snap == nil {
			ui.MutedMsg("No snapshot to compare against")
			return nil
		}
		pkgs, agg, err := listFresh(cmd)
		if err != nil {
			return err
		}
		current := snapshot.Capture(pkgs, time.Now())
		diff := snapshot.Compare(snap.Only(answered(registry.Enabled(), agg.Failures)...), current)
		printDiff(diff)
		return nil
	},
}

var restoreSources []string

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Return installed packages to the snapshot",
	Long: `Reinstall packages removed since the snapshot, remove packages added
since, and install the recorded version of packages that changed version
where the source supports it. Use --source or --only to limit the sources.`,
	Args: cobra.NoArgs,
	RunE: runSnapshotRestore,
}

func init() {
	snapshotRestoreCmd.Flags().StringSliceVar(&restoreSources, "only", nil, "restrict to these sources")

	snapshotCmd.AddCommand(snapshotTakeCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)
	snapshotCmd.AddCommand(snapshotDiffCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)
}

func runSnapshotRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	want, err := snapshotStore().Load()
	if err != nil {
		return err
	}
	if want == nil {
		return fmt.Errorf("no snapshot to restore")
	}

	sources, err := restoreScope()
	if err != nil {
		return err
	}
	pkgs, agg, err := listFresh(cmd)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		// Sources that failed to list are left alone.
		sources = answered(registry.Enabled(), agg.Failures)
	}
	for src := range agg.Failures {
		if slices.Contains(sources, src) {
			return fmt.Errorf("%s could not be listed", src)
		}
	}

	plan := snapshot.PlanRestore(snapshot.Capture(pkgs, time.Now()), want, sources...)
	if plan.IsEmpty() {
		ui.SuccessMsg("Installed packages already match the snapshot")
		return nil
	}

	ui.InfoMsg("Restore plan:")
	for _, a := range plan.Actions() {
		ui.MutedMsg("  - %s", a)
	}
	ok, err := confirm("Proceed?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}

	tracker := openTracker()
	resolve := func(src manager.Source) (manager.Backend, error) {
		b, err := registry.Backend(src)
		if err != nil {
			return nil, err
		}
		return recordingBackend{Backend: b, tracker: tracker}, nil
	}
	results := snapshot.Execute(ctx, plan, resolve, snapshot.RestoreOpts{
		DryRun:   cfg.General.DryRun,
		Progress: func(a snapshot.Action) { ui.InfoMsg("%s", a) },
	})

	failed := snapshot.Failed(results)
	for _, r := range failed {
		ui.ReportError(r.Err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrOperationsFailed, len(failed), len(results))
	}
	if !cfg.General.DryRun {
		ui.SuccessMsg("Restored %d change(s)", len(results))
	}
	return nil
}

// recordingBackend routes restore steps through perform so each one lands
// in the history.
type recordingBackend struct {
	manager.Backend
	tracker *history.Tracker
}

func (r recordingBackend) Install(ctx context.Context, name string) error {
	return perform(ctx, r.tracker, r.Backend, manager.OpInstall, name, "")
}

func (r recordingBackend) Remove(ctx context.Context, name string) error {
	return perform(ctx, r.tracker, r.Backend, manager.OpRemove, name, "")
}

func (r recordingBackend) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	vd, ok := r.Backend.(manager.VersionDowngrader)
	if !ok {
		return nil, unsupportedDowngrade(target{name: name, backend: r.Backend})
	}
	return vd.AvailableVersions(ctx, name)
}

func (r recordingBackend) DowngradeTo(ctx context.Context, name, version string) error {
	return perform(ctx, r.tracker, r.Backend, manager.OpDowngrade, name, version)
}

func restoreScope() ([]manager.Source, error) {
	names := restoreSources
	if source != "" {
		names = append(names, source)
	}
	var out []manager.Source
	for _, n := range names {
		src, err := manager.ParseSource(n)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// listFresh lists every enabled source, bypassing the cached listing and
// without reconciling.
func listFresh(cmd *cobra.Command) ([]manager.Package, manager.Aggregate, error) {
	ctx := cmd.Context()
	var agg manager.Aggregate
	err := ui.WithSpinner("Listing installed packages...", func() error {
		agg = registry.ListAll(ctx)
		return ctx.Err()
	})
	if err != nil {
		return nil, agg, err
	}
	reportFailures(agg.Failures)
	if len(agg.Failures) == 0 {
		if _, err := listingStore().Save(agg.Packages); err != nil {
			logger.Warn("failed to cache listing", "err", err)
		}
	}
	return agg.Packages, agg, nil
}

func printDiff(diff *snapshot.Diff) {
	if diff.IsEmpty() {
		ui.SuccessMsg("No changes since the snapshot")
		return
	}
	ui.HeaderMsg("%s", diff.Summary())
	for _, c := range diff.All() {
		line := c.String()
		switch c.Type {
		case snapshot.ChangeAdded:
			line = ui.OK(line)
		case snapshot.ChangeRemoved:
			line = ui.Bad(line)
		case snapshot.ChangeUpdated:
			line = ui.Warn(line)
		}
		ui.Println("  %s", line)
	}
}
