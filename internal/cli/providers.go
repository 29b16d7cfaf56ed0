package cli

import (
	"encoding/json"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/probe"
)

var providersJSON bool

var providersCmd = &cobra.Command{
	Use:     "providers",
	Aliases: []string{"doctor"},
	Short:   "Show which package sources are usable on this system",
	Long: `Probe every supported source for its executables and report whether it
is available, enabled, which version is installed, and what is missing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := probe.Run(cmd.Context(), registry.All(), probe.Options{
			LookPath: exec.LookPath,
			Exec:     runner,
			Disabled: func(src manager.Source) bool { return cfg.IsDisabled(src.String()) },
			Logger:   logger,
		})

		if providersJSON {
			enc := json.NewEncoder(ui.Out)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		printProviders(rows)
		return nil
	},
}

func init() {
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "print the report as JSON")
}

func printProviders(rows []probe.Status) {
	ui.Println("%s", ui.Title("Package sources"))

	native, hasNative := registry.Native()
	t := ui.NewTable("source", "status", "version", "details")
	usable := 0
	for _, r := range rows {
		status := ui.Bad("unavailable")
		switch {
		case r.Available && r.Enabled:
			status = ui.OK("ready")
			usable++
		case r.Available:
			status = ui.Warn("disabled")
		}

		name := ui.SourceBadge(r.Source)
		if hasNative && native.Source() == r.Source {
			name += " " + ui.Dim("(native)")
		}

		details := r.Reason
		if details == "" {
			details = strings.Join(sortedPaths(r.Paths), ", ")
		}
		t.AddRow(name, status, r.Version, details)
	}
	t.Render()
	ui.MutedMsg("\n%d of %d sources ready", usable, len(rows))
}

func sortedPaths(paths map[string]string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
