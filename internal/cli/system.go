package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"pkgdeck/internal/config"
	"pkgdeck/internal/executor"
	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager/detector"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show detected system information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := detector.Detect()
		if err != nil && info == nil {
			return err
		}

		ui.HeaderMsg("System Information")
		field("Operating System", info.PrettyName)
		field("Architecture", info.Arch)
		field("Distribution", info.Distribution)
		if info.VersionID != "" {
			field("Version", info.VersionID)
		}
		if len(info.Family) > 0 {
			field("Based on", strings.Join(info.Family, ", "))
		}
		if native, ok := registry.Native(); ok {
			field("Native Source", native.Source().DisplayName())
		}

		var enabled []string
		for _, b := range registry.Enabled() {
			enabled = append(enabled, b.Source().String())
		}
		if len(enabled) > 0 {
			field("Enabled Sources", strings.Join(enabled, ", "))
		}

		switch {
		case executor.IsRoot():
			field("Privileges", "root")
		case executor.CheckPrivileges(true) == nil:
			field("Privileges", "via "+executor.Launcher)
		default:
			field("Privileges", ui.Warning.Sprint("none (pkexec not found)"))
		}

		ui.HeaderMsg("Paths")
		field("Config", config.ConfigPath())
		field("Data", config.DataDir())
		return nil
	},
}

func field(label, value string) {
	ui.Println("  %s: %s", ui.Cyan(label), value)
}
