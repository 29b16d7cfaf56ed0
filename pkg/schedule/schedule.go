// Package schedule holds package operations deferred to a later time. Tasks
// are persisted in a bbolt database and executed by whoever calls RunDue.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"pkgdeck/internal/clock"
	"pkgdeck/pkg/manager"
)

const bucketTasks = "tasks"

// MaxCompleted is the number of finished tasks kept for display.
const MaxCompleted = 50

var (
	// ErrTaskNotFound is returned for an unknown task id.
	ErrTaskNotFound = errors.New("scheduled task not found")

	// ErrTaskCompleted is returned when cancelling a task that already ran.
	ErrTaskCompleted = errors.New("scheduled task already completed")
)

// Task is a package operation deferred to ScheduledAt.
type Task struct {
	ID          string         `json:"id"`
	Source      manager.Source `json:"source"`
	Package     string         `json:"package"`
	Operation   manager.Op     `json:"operation"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	CreatedAt   time.Time      `json:"created_at"`
	Completed   bool           `json:"completed"`
	CompletedAt time.Time      `json:"completed_at,omitzero"`
	Error       string         `json:"error,omitempty"`
}

// Key returns the identity of the target package.
func (t Task) Key() manager.Key {
	return manager.Key{Source: t.Source, Name: t.Package}
}

// Failed reports whether the task ran and failed.
func (t Task) Failed() bool {
	return t.Completed && t.Error != ""
}

// Summary returns a brief description of the task.
func (t Task) Summary() string {
	s := fmt.Sprintf("%s %s at %s", t.Operation, t.Key(), t.ScheduledAt.Local().Format("2006-01-02 15:04"))
	switch {
	case t.Failed():
		s += " (failed: " + t.Error + ")"
	case t.Completed:
		s += " (done)"
	}
	return s
}

// Options configures a Scheduler.
type Options struct {
	Clock  clock.Clock
	IDs    clock.IDGenerator
	Logger *slog.Logger
}

// Scheduler manages deferred tasks.
type Scheduler struct {
	db    *bbolt.DB
	clock clock.Clock
	ids   clock.IDGenerator
	log   *slog.Logger
}

// Open opens or creates the task database at path.
func Open(path string, opts Options) (*Scheduler, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open schedule database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketTasks))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	s := &Scheduler{
		db:    db,
		clock: clock.OrReal(opts.Clock),
		ids:   clock.OrUUIDs(opts.IDs),
		log:   opts.Logger,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s, nil
}

// Close closes the database.
func (s *Scheduler) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func validOp(op manager.Op) bool {
	return op == manager.OpInstall || op == manager.OpUpdate || op == manager.OpRemove
}

// Add schedules op on a package at the given time. Any other pending task
// for the same package and operation is replaced; tasks already due are
// left to run.
func (s *Scheduler) Add(source manager.Source, pkg string, op manager.Op, at time.Time) (Task, error) {
	if err := manager.ValidateName(pkg); err != nil {
		return Task{}, err
	}
	if !validOp(op) {
		return Task{}, fmt.Errorf("operation %q cannot be scheduled", op)
	}

	task := Task{
		ID:          s.ids.NewID(),
		Source:      source,
		Package:     pkg,
		Operation:   op,
		ScheduledAt: at.UTC(),
		CreatedAt:   s.clock.Now().UTC(),
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketTasks))
		tasks, err := decodeAll(b)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		for _, t := range tasks {
			if !t.Completed && t.ScheduledAt.After(now) && t.Key() == task.Key() && t.Operation == op {
				if err := b.Delete([]byte(t.ID)); err != nil {
					return err
				}
				s.log.Debug("replaced scheduled task", "id", t.ID, "package", t.Key().String())
			}
		}
		return put(b, task)
	})
	if err != nil {
		return Task{}, fmt.Errorf("failed to save task: %w", err)
	}
	return task, nil
}

// List returns every task, pending and completed, ordered by scheduled time.
func (s *Scheduler) List() ([]Task, error) {
	var tasks []Task
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		tasks, err = decodeAll(tx.Bucket([]byte(bucketTasks)))
		return err
	})
	if err != nil {
		return nil, err
	}
	sortByScheduled(tasks)
	return tasks, nil
}

// Due returns pending tasks scheduled at or before now, earliest first.
func (s *Scheduler) Due(now time.Time) ([]Task, error) {
	return s.filter(func(t Task) bool {
		return !t.Completed && !t.ScheduledAt.After(now)
	})
}

// Pending returns pending tasks scheduled after now, earliest first.
func (s *Scheduler) Pending(now time.Time) ([]Task, error) {
	return s.filter(func(t Task) bool {
		return !t.Completed && t.ScheduledAt.After(now)
	})
}

// Completed returns finished tasks, most recently completed first.
func (s *Scheduler) Completed() ([]Task, error) {
	tasks, err := s.filter(func(t Task) bool { return t.Completed })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CompletedAt.After(tasks[j].CompletedAt)
	})
	return tasks, nil
}

func (s *Scheduler) filter(keep func(Task) bool) ([]Task, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []Task
	for _, t := range all {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Get returns the task with the given id.
func (s *Scheduler) Get(id string) (Task, error) {
	var task Task
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketTasks)).Get([]byte(id))
		if v == nil {
			return ErrTaskNotFound
		}
		return json.Unmarshal(v, &task)
	})
	return task, err
}

// Complete marks a task finished with the outcome of running it, then prunes
// the oldest completed tasks beyond MaxCompleted.
func (s *Scheduler) Complete(id string, runErr error) (Task, error) {
	var task Task
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketTasks))
		v := b.Get([]byte(id))
		if v == nil {
			return ErrTaskNotFound
		}
		if err := json.Unmarshal(v, &task); err != nil {
			return err
		}
		task.Completed = true
		task.CompletedAt = s.clock.Now().UTC()
		task.Error = ""
		if runErr != nil {
			task.Error = runErr.Error()
		}
		if err := put(b, task); err != nil {
			return err
		}
		return prune(b)
	})
	return task, err
}

// Cancel deletes a pending task.
func (s *Scheduler) Cancel(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketTasks))
		v := b.Get([]byte(id))
		if v == nil {
			return ErrTaskNotFound
		}
		var task Task
		if err := json.Unmarshal(v, &task); err != nil {
			return err
		}
		if task.Completed {
			return ErrTaskCompleted
		}
		return b.Delete([]byte(id))
	})
}

// RunFunc performs a task's operation.
type RunFunc func(ctx context.Context, task Task) error

// RunDue runs every due task in order, one at a time, and completes each with
// its outcome. It stops early when ctx is cancelled, leaving the remaining
// tasks pending.
func (s *Scheduler) RunDue(ctx context.Context, run RunFunc) ([]Task, error) {
	due, err := s.Due(s.clock.Now())
	if err != nil {
		return nil, err
	}

	var done []Task
	for _, task := range due {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		s.log.Info("running scheduled task", "id", task.ID, "op", string(task.Operation), "package", task.Key().String())
		runErr := run(ctx, task)
		if runErr != nil {
			s.log.Warn("scheduled task failed", "id", task.ID, "err", runErr)
		}
		completed, err := s.Complete(task.ID, runErr)
		if err != nil {
			return done, fmt.Errorf("failed to complete task %s: %w", task.ID, err)
		}
		done = append(done, completed)
	}
	return done, nil
}

func put(b *bbolt.Bucket, task Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	return b.Put([]byte(task.ID), data)
}

func decodeAll(b *bbolt.Bucket) ([]Task, error) {
	var tasks []Task
	err := b.ForEach(func(_, v []byte) error {
		var t Task
		if err := json.Unmarshal(v, &t); err != nil {
			return nil // Skip malformed entries
		}
		tasks = append(tasks, t)
		return nil
	})
	return tasks, err
}

// prune deletes the oldest completed tasks beyond MaxCompleted. Pending
// tasks are never touched.
func prune(b *bbolt.Bucket) error {
	tasks, err := decodeAll(b)
	if err != nil {
		return err
	}
	var completed []Task
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		}
	}
	if len(completed) <= MaxCompleted {
		return nil
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].CompletedAt.Before(completed[j].CompletedAt)
	})
	for _, t := range completed[:len(completed)-MaxCompleted] {
		if err := b.Delete([]byte(t.ID)); err != nil {
			return err
		}
	}
	return nil
}

func sortByScheduled(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].ScheduledAt.Equal(tasks[j].ScheduledAt) {
			return tasks[i].ScheduledAt.Before(tasks[j].ScheduledAt)
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}
