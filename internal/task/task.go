// Package task implements the declarative task engine: named sequences of
// operations (run a command, copy files, change the scoped working directory)
// executed in order with fail-fast semantics.
package task

import (
	"fmt"
)

// Task is a named, ordered sequence of operations. It is immutable after
// loading and can be run any number of times.
type Task struct {
	Name       string
	Operations []Operation
}

// Validate statically checks every operation's configuration. It is called
// once after loading, before the first run.
func (t *Task) Validate(ctx *Context) error {
	for _, op := range t.Operations {
		if err := op.Validate(ctx); err != nil {
			return fmt.Errorf("invalid configuration for operation '%s': %w", op.Keyword(), err)
		}
	}
	return nil
}

// Run executes the operations in declaration order inside a fresh context
// frame. The first failure outcome stops the task; remaining operations are
// skipped. A hard error (e.g. a program that cannot be spawned) aborts the
// run and is returned alongside a failure outcome.
func (t *Task) Run(ctx *Context) (Outcome, error) {
	ctx.PushFrame()
	defer ctx.PopFrame()

	ctx.Logger().Debug("starting task", "task", t.Name)

	for _, op := range t.Operations {
		running, err := op.Start(ctx)
		if err != nil {
			return OutcomeFailure, fmt.Errorf(
				"failed to run operation '%s' for task '%s': %w", op.Keyword(), t.Name, err,
			)
		}

		outcome, err := running.Finish()
		if err != nil {
			return OutcomeFailure, fmt.Errorf(
				"failed to run operation '%s' for task '%s': %w", op.Keyword(), t.Name, err,
			)
		}

		if outcome.IsFailure() {
			ctx.Logger().Warn("operation failed, stopping task",
				"operation", op.Keyword(), "task", t.Name)
			return OutcomeFailure, nil
		}
	}

	ctx.Logger().Debug("finished running all operations of task", "task", t.Name)
	return OutcomeSuccess, nil
}
