package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pkgdeck/internal/history"
	"pkgdeck/internal/ui"
)

var (
	historyLimit    int
	historyExternal bool
	exportFormat    string
	exportOutput    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the operation history",
	Long: `Show recorded operations, most recent first. Entries marked external
were found by comparing package listings rather than run by pkgdeck.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history as JSON or CSV",
	Args:  cobra.NoArgs,
	RunE:  runHistoryExport,
}

var historySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Record changes made outside pkgdeck",
	Long: `List every source afresh, compare the result with the last snapshot
and record each difference as an external history entry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.General.Snapshots {
			ui.WarningMsg("Snapshots are disabled in configuration; nothing to compare against")
			return nil
		}
		before := len(openTracker().Entries())
		if _, err := listInstalled(cmd.Context(), true); err != nil {
			return err
		}
		if len(openTracker().Entries()) == before {
			ui.SuccessMsg("No changes since the last snapshot")
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every history entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := confirm("Delete the whole history?")
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
		openTracker().Clear()
		ui.SuccessMsg("History cleared")
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "number of entries to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyExternal, "external", false, "only show changes made outside pkgdeck")

	historyExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "output format (json, csv)")
	historyExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")

	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historySyncCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(newUndoCmd())
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	entries := filterHistory(openTracker().Entries(), source, historyExternal)
	if len(entries) == 0 {
		ui.MutedMsg("No history entries")
		return nil
	}

	total := len(entries)
	if historyLimit > 0 && len(entries) > historyLimit {
		entries = entries[:historyLimit]
	}

	t := ui.NewTable("id", "time", "operation", "package", "versions", "size", "")
	for _, e := range entries {
		t.AddRow(
			shortID(e.ID),
			e.FormatTime(),
			string(e.Operation),
			entryTarget(e),
			e.Versions(),
			sizeChange(e.SizeChange),
			entryFlags(e),
		)
	}
	t.Render()
	if total > len(entries) {
		ui.MutedMsg("\nShowing %d of %d entries (use --limit 0 for all)", len(entries), total)
	}
	return nil
}

// filterHistory keeps entries of the named source, if any, and only
// external ones when external is set.
func filterHistory(entries []history.Entry, sourceName string, external bool) []history.Entry {
	var out []history.Entry
	for _, e := range entries {
		if sourceName != "" && !strings.EqualFold(e.Source.String(), sourceName) {
			continue
		}
		if external && !e.External {
			continue
		}
		out = append(out, e)
	}
	return out
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	var w io.Writer = ui.Out
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	tracker := openTracker()
	var err error
	switch strings.ToLower(exportFormat) {
	case "json":
		err = tracker.ExportJSON(w)
	case "csv":
		err = tracker.ExportCSV(w)
	default:
		return fmt.Errorf("unknown export format %q: want json or csv", exportFormat)
	}
	if err != nil {
		return err
	}
	if exportOutput != "" {
		ui.SuccessMsg("Exported %d entries to %s", len(tracker.Entries()), exportOutput)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func entryTarget(e history.Entry) string {
	if e.Package == "" {
		return ui.SourceBadge(e.Source)
	}
	return ui.PackageName.Sprint(e.Package) + " " + ui.SourceBadge(e.Source)
}

func entryFlags(e history.Entry) string {
	var flags []string
	if e.External {
		flags = append(flags, ui.Dim("external"))
	}
	if e.Undone {
		flags = append(flags, ui.Warn("undone"))
	}
	return strings.Join(flags, " ")
}

func sizeChange(n int64) string {
	switch {
	case n > 0:
		return "+" + ui.Size(n)
	case n < 0:
		return "-" + ui.Size(-n)
	}
	return ""
}

// findEntry resolves an id or a unique id prefix, as printed by history.
func findEntry(tracker *history.Tracker, id string) (history.Entry, error) {
	if e, err := tracker.Get(id); err == nil {
		return e, nil
	}
	var found []history.Entry
	for _, e := range tracker.Entries() {
		if strings.HasPrefix(e.ID, id) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return history.Entry{}, fmt.Errorf("%w: %s", history.ErrEntryNotFound, id)
	case 1:
		return found[0], nil
	}
	return history.Entry{}, fmt.Errorf("id prefix %q matches %d entries", id, len(found))
}

// undoEntry runs the inverse of e and marks it undone. The reversal is
// itself recorded as a new entry.
func undoEntry(cmd *cobra.Command, tracker *history.Tracker, e history.Entry) error {
	ctx := cmd.Context()

	u, err := history.Inverse(e)
	if err != nil {
		return err
	}
	b, err := registry.Backend(u.Key.Source)
	if err != nil {
		return err
	}

	ui.InfoMsg("Undo %s: %s", shortID(e.ID), e.Summary())
	ui.MutedMsg("  will %s", u)
	ok, err := confirm("Proceed?")
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}

	err = ui.WithSpinner(fmt.Sprintf("Reverting %s...", u.Key), func() error {
		return perform(ctx, tracker, b, u.Op, u.Key.Name, u.Version)
	})
	if err != nil {
		return err
	}
	if cfg.General.DryRun {
		return nil
	}
	if err := tracker.MarkUndone(e.ID); err != nil {
		return err
	}
	ui.SuccessMsg("Reverted %s", u.Key)
	return nil
}

func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo <id>",
		Short: "Reverse a recorded operation",
		Long: `Reverse the history entry with the given id, or unique id prefix.
Installs are undone by removal and removals by reinstalling. Updates are
undone by installing the previous version, where the source supports it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker := openTracker()
			e, err := findEntry(tracker, args[0])
			if err != nil {
				return err
			}
			return undoEntry(cmd, tracker, e)
		},
	}
}

var undoCmd = newUndoCmd()
