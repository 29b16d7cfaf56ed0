package cli

import (
	"github.com/spf13/cobra"

	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
)

var (
	downgradeVersion string
	downgradeList    bool
)

var downgradeCmd = &cobra.Command{
	Use:   "downgrade <package>",
	Short: "Install an older version of a package",
	Long: `Install an older version of an installed package.

Sources that keep the previous revision (snap, dnf) can step back without
a version. Others offer a list of versions to choose from.

Examples:
  pkgdeck downgrade vim --list          # Show installable versions
  pkgdeck downgrade vim --version 9.0   # Install 9.0
  pkgdeck downgrade firefox -s snap     # Revert to the previous revision`,
	Args: cobra.ExactArgs(1),
	RunE: runDowngrade,
}

func init() {
	downgradeCmd.Flags().StringVar(&downgradeVersion, "version", "", "version to install")
	downgradeCmd.Flags().BoolVar(&downgradeList, "list", false, "list versions the source offers")
}

func runDowngrade(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	t, err := resolveInstalled(ctx, args[0])
	if err != nil {
		return err
	}
	vd, canPick := t.backend.(manager.VersionDowngrader)
	_, canStep := t.backend.(manager.Downgrader)

	if downgradeList {
		if !canPick {
			return unsupportedDowngrade(t)
		}
		versions, err := vd.AvailableVersions(ctx, t.name)
		if err != nil {
			return manager.NewOperationError(manager.OpDowngrade, t.backend.Source(), t.name, err)
		}
		ui.HeaderMsg("Versions of %s in %s", t.name, t.backend.Source())
		for _, v := range versions {
			ui.Println("  %s", v)
		}
		return nil
	}

	version := downgradeVersion
	if version == "" && !canStep {
		if !canPick {
			return unsupportedDowngrade(t)
		}
		versions, err := vd.AvailableVersions(ctx, t.name)
		if err != nil {
			return manager.NewOperationError(manager.OpDowngrade, t.backend.Source(), t.name, err)
		}
		if version, err = ui.SelectVersion(t.name, versions); err != nil {
			return err
		}
	}

	if err := perform(ctx, openTracker(), t.backend, manager.OpDowngrade, t.name, version); err != nil {
		return err
	}
	if !cfg.General.DryRun {
		ui.SuccessMsg("Downgraded %s", t.name)
	}
	return nil
}

func unsupportedDowngrade(t target) error {
	return &manager.OperationError{
		Op:      manager.OpDowngrade,
		Package: t.name,
		Source:  t.backend.Source(),
		Details: "the source cannot install older versions",
		Kind:    manager.ErrUnsupported,
	}
}
