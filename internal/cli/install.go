package cli

import (
	"context"

	"github.com/spf13/cobra"

	"pkgdeck/pkg/manager"
)

var installCmd = &cobra.Command{
	Use:   "install <packages...>",
	Short: "Install one or more packages",
	Long: `Install packages from a specific source or from whichever source
offers them.

Without --source every enabled source is searched for an exact name
match. When several sources offer the package you are asked to pick one;
with --yes the highest-priority source wins.

Examples:
  pkgdeck install vim git curl          # Search all sources
  pkgdeck install firefox -s flatpak    # Install from Flatpak
  pkgdeck install -y ripgrep            # No prompts`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	targets, err := resolveAll(ctx, args, resolveAvailable)
	if err != nil {
		return err
	}
	if err := printPlan("Installation plan", targets); err != nil {
		return err
	}
	return runBatch(ctx, openTracker(), manager.OpInstall, targets, "Installing")
}

var removeCmd = &cobra.Command{
	Use:     "remove <packages...>",
	Aliases: []string{"uninstall", "rm"},
	Short:   "Remove one or more packages",
	Long: `Remove installed packages. The source each package was installed from
is looked up in the installed listing unless --source is given.

Examples:
  pkgdeck remove vim
  pkgdeck remove typescript -s npm`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	targets, err := resolveAll(ctx, args, resolveInstalled)
	if err != nil {
		return err
	}
	if err := printPlan("Removal plan", targets); err != nil {
		return err
	}
	return runBatch(ctx, openTracker(), manager.OpRemove, targets, "Removing")
}

// resolveAll resolves every name, stopping at the first failure.
func resolveAll(ctx context.Context, names []string, resolve func(context.Context, string) (target, error)) ([]target, error) {
	targets := make([]target, 0, len(names))
	for _, name := range names {
		t, err := resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}
