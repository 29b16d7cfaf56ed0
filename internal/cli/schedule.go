package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pkgdeck/internal/ui"
	"pkgdeck/pkg/manager"
	"pkgdeck/pkg/schedule"
)

var scheduleAt string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Defer package operations",
	Long: `Schedule installs, updates and removals for later. Tasks are run by
'pkgdeck schedule run', typically from a cron job or systemd timer.

Times may be a preset (in-1h, in-3h, tonight, early-morning), a relative
time ("in 90m", "in 2 hours"), a clock time (22:30) or RFC 3339.`,
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add <source/package> <install|update|remove>",
	Short: "Schedule an operation",
	Example: `  pkgdeck schedule add apt/vim update --at tonight
  pkgdeck schedule add flatpak/org.gimp.GIMP install --at "in 2h"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := manager.ParseKey(args[0])
		if err != nil {
			return err
		}
		op, err := parseScheduledOp(args[1])
		if err != nil {
			return err
		}
		at, err := schedule.ParseWhen(scheduleAt, time.Now())
		if err != nil {
			return err
		}

		s, err := openScheduler()
		if err != nil {
			return err
		}
		defer s.Close()

		task, err := s.Add(key.Source, key.Name, op, at)
		if err != nil {
			return err
		}
		ui.SuccessMsg("Scheduled %s", task.Summary())
		ui.MutedMsg("  id %s", shortID(task.ID))
		return nil
	},
}

var scheduleAll bool

var scheduleListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List scheduled tasks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openScheduler()
		if err != nil {
			return err
		}
		defer s.Close()

		now := time.Now()
		due, err := s.Due(now)
		if err != nil {
			return err
		}
		pending, err := s.Pending(now)
		if err != nil {
			return err
		}
		tasks := append(due, pending...)
		if scheduleAll {
			done, err := s.Completed()
			if err != nil {
				return err
			}
			tasks = append(tasks, done...)
		}
		if len(tasks) == 0 {
			ui.MutedMsg("No scheduled tasks")
			return nil
		}
		printTasks(tasks, now)
		return nil
	},
}

var scheduleCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a pending task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openScheduler()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := resolveTaskID(s, args[0])
		if err != nil {
			return err
		}
		if err := s.Cancel(id); err != nil {
			return err
		}
		ui.SuccessMsg("Cancelled %s", shortID(id))
		return nil
	},
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every task that is due",
	Long: `Run due tasks one at a time. Each outcome is recorded in the history
and on the task itself. Failed tasks are not retried.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openScheduler()
		if err != nil {
			return err
		}
		defer s.Close()

		tracker := openTracker()
		ran, err := s.RunDue(cmd.Context(), func(ctx context.Context, t schedule.Task) error {
			ui.InfoMsg("Running %s", t.Summary())
			b, err := registry.Backend(t.Source)
			if err != nil {
				return err
			}
			return perform(ctx, tracker, b, t.Operation, t.Package, "")
		})
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			ui.MutedMsg("No tasks are due")
			return nil
		}

		failed := 0
		for _, t := range ran {
			if t.Failed() {
				failed++
				ui.ErrorMsg("%s", t.Summary())
				continue
			}
			ui.SuccessMsg("%s", t.Summary())
		}
		if failed > 0 {
			return fmt.Errorf("%w: %d of %d tasks", ErrOperationsFailed, failed, len(ran))
		}
		return nil
	},
}

func init() {
	scheduleAddCmd.Flags().StringVar(&scheduleAt, "at", string(schedule.PresetTonight), "when to run")
	scheduleListCmd.Flags().BoolVarP(&scheduleAll, "all", "a", false, "include completed tasks")

	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleCancelCmd)
	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(schedulePresetsCmd)
}

var schedulePresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List time presets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		now := time.Now()
		t := ui.NewTable("preset", "description", "next")
		for _, p := range schedule.Presets() {
			next, _ := p.Resolve(now) //nolint:errcheck
			t.AddRow(string(p), p.Description(), next.Local().Format("2006-01-02 15:04"))
		}
		t.Render()
	},
}

func parseScheduledOp(s string) (manager.Op, error) {
	switch op := manager.Op(strings.ToLower(s)); op {
	case manager.OpInstall, manager.OpUpdate, manager.OpRemove:
		return op, nil
	}
	return "", fmt.Errorf("cannot schedule %q: want install, update or remove", s)
}

// resolveTaskID expands a unique id prefix.
func resolveTaskID(s *schedule.Scheduler, id string) (string, error) {
	tasks, err := s.List()
	if err != nil {
		return "", err
	}
	var found []string
	for _, t := range tasks {
		if t.ID == id {
			return id, nil
		}
		if strings.HasPrefix(t.ID, id) {
			found = append(found, t.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: %s", schedule.ErrTaskNotFound, id)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("id prefix %q matches %d tasks", id, len(found))
}

func printTasks(tasks []schedule.Task, now time.Time) {
	t := ui.NewTable("id", "when", "operation", "package", "state")
	for _, task := range tasks {
		state := ui.Dim("pending")
		switch {
		case task.Failed():
			state = ui.Bad("failed: " + task.Error)
		case task.Completed:
			state = ui.OK("done")
		case !task.ScheduledAt.After(now):
			state = ui.Warn("due")
		}
		t.AddRow(
			shortID(task.ID),
			task.ScheduledAt.Local().Format("2006-01-02 15:04"),
			string(task.Operation),
			ui.PackageName.Sprint(task.Package)+" "+ui.SourceBadge(task.Source),
			state,
		)
	}
	t.Render()
}
