package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
)

var cleanupCmd = &cobra.Command{
	Use:     "cleanup",
	Aliases: []string{"clean"},
	Short:   "Remove cached downloads and unused runtimes",
	Long: `Ask every source that keeps a download cache, or the one named by
--source, to clear it.`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	backends, err := selectedBackends()
	if err != nil {
		return err
	}
	var cleaners []manager.Backend
	for _, b := range backends {
		if _, ok := b.(manager.Cleaner); ok {
			cleaners = append(cleaners, b)
		}
	}
	if len(cleaners) == 0 {
		ui.MutedMsg("No source with a cache to clean")
		return nil
	}

	ui.InfoMsg("Cleaning:")
	for _, b := range cleaners {
		ui.MutedMsg("  - %s", b.Source().DisplayName())
	}
	ok, err := confirm("Proceed?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}

	tracker := openTracker()
	failed := 0
	for _, b := range cleaners {
		err := ui.WithSpinner(fmt.Sprintf("Cleaning %s...", b.Source()), func() error {
			return b.(manager.Cleaner).Cleanup(ctx)
		})
		if err != nil {
			if ui.ReportError(manager.NewOperationError(manager.OpCleanup, b.Source(), "", err)) {
				failed++
			}
			continue
		}
		if cfg.General.DryRun {
			continue
		}
		tracker.RecordCleanup(b.Source(), 0)
		ui.SuccessMsg("Cleaned %s", b.Source())
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrOperationsFailed, failed, len(cleaners))
	}
	return nil
}
