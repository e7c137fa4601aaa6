package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LukasKalbertodt/watchboi/internal/metrics"
	"github.com/LukasKalbertodt/watchboi/internal/notify"
)

// Runner executes the configured tasks in declaration order and emits a
// refresh trigger when a pipeline run finishes, so connected browsers get
// reloaded. Tasks are independent pipelines: one task failing does not stop
// the tasks after it (within a task, operations still fail fast).
type Runner struct {
	tasks    []*Task
	baseDir  string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	notifier notify.Notifier
	refresh  chan<- struct{}

	// Overlapping triggers (e.g. a SIGHUP during the startup run) serialize
	// here instead of running pipelines concurrently.
	mu sync.Mutex
}

// NewRunner creates a runner over the loaded task list.
func NewRunner(
	tasks []*Task,
	baseDir string,
	logger *slog.Logger,
	m *metrics.Metrics,
	notifier notify.Notifier,
	refresh chan<- struct{},
) *Runner {
	if notifier == nil {
		notifier = &notify.NoOpNotifier{}
	}
	return &Runner{
		tasks:    tasks,
		baseDir:  baseDir,
		logger:   logger,
		metrics:  m,
		notifier: notifier,
		refresh:  refresh,
	}
}

// ValidateAll statically checks every task once, before the first run.
func (r *Runner) ValidateAll() error {
	ctx := NewContext(r.baseDir, r.logger)
	for _, t := range r.tasks {
		if err := t.Validate(ctx); err != nil {
			return fmt.Errorf("task '%s': %w", t.Name, err)
		}
	}
	return nil
}

// RunAll runs every task once and fires the refresh trigger afterwards. Each
// run gets a fresh context, so working-directory changes never leak between
// pipeline runs.
func (r *Runner) RunAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tasks {
		if ctx.Err() != nil {
			return
		}

		execCtx := NewContext(r.baseDir, r.logger)
		outcome, err := t.Run(execCtx)
		if err != nil {
			r.logger.Error("task aborted", "task", t.Name, "err", err)
			r.notifyFailure(ctx, t.Name, err.Error())
		} else if outcome.IsFailure() {
			r.notifyFailure(ctx, t.Name, "an operation failed")
		}

		if r.metrics != nil {
			r.metrics.TaskRuns.WithLabelValues(t.Name, outcome.String()).Inc()
		}
	}

	select {
	case r.refresh <- struct{}{}:
	default:
		// A refresh is already pending; triggers are idempotent.
	}
}

func (r *Runner) notifyFailure(ctx context.Context, taskName, reason string) {
	err := r.notifier.Send(ctx, "watchboi: task failed",
		fmt.Sprintf("task '%s' failed: %s", taskName, reason))
	if err != nil {
		r.logger.Warn("failure notification not delivered", "task", taskName, "err", err)
	}
}
