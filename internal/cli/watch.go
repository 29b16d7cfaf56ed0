package cli

import (
	"github.com/spf13/cobra"

	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Record package changes as they happen",
	Long: `Watch the package databases of every enabled source and reconcile the
history whenever one changes, so installs made with other tools are
recorded right away. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	backends, err := selectedBackends()
	if err != nil {
		return err
	}
	sources := make([]manager.Source, 0, len(backends))
	for _, b := range backends {
		sources = append(sources, b.Source())
	}

	changes := make(chan []string, 1)
	w, err := watch.New(watch.Paths(sources), watch.DefaultDebounce, func(changed []string) {
		select {
		case changes <- changed:
		default: // a reconcile is already queued
		}
	}, logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	ui.InfoMsg("Watching %d package database(s); press Ctrl+C to stop", len(w.Watched()))
	for _, p := range w.Watched() {
		ui.MutedMsg("  %s", p)
	}
	w.Start()

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-changes:
			logger.Debug("package database changed", "paths", changed)
			if _, err := listInstalled(ctx, true); err != nil {
				ui.ReportError(err)
			}
		}
	}
}
