package task

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// KeywordCommand is the task-file name of the command operation.
const KeywordCommand = "command"

// Command runs an external program and waits for it to exit. A non-zero exit
// code is a failure outcome; not being able to spawn the program at all is a
// hard error.
type Command struct {
	// Run is the program and its arguments.
	Run ProgramSpec

	// Workdir optionally overrides the working directory for this command,
	// resolved against the context's current working directory.
	Workdir string
}

func (c *Command) Keyword() string {
	return KeywordCommand
}

func (c *Command) Clone() Operation {
	clone := *c
	clone.Run.Args = append([]string(nil), c.Run.Args...)
	return &clone
}

func (c *Command) Validate(ctx *Context) error {
	// The ProgramSpec was validated on construction; nothing else to check
	// statically. Whether the program exists is only known at spawn time.
	return nil
}

func (c *Command) Start(ctx *Context) (Running, error) {
	workdir := ctx.Workdir()
	if c.Workdir != "" {
		workdir = ctx.Join(c.Workdir)
	}

	cmd := exec.Command(c.Run.Program, c.Run.Args...)
	cmd.Dir = workdir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	ctx.Logger().Info("running command", "command", c.Run.String(), "workdir", workdir)

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf(
				"failed to spawn `%s` (you probably don't have the command '%s' installed): %w",
				c.Run, c.Run.Program, err,
			)
		}
		return nil, fmt.Errorf("failed to spawn `%s`: %w", c.Run, err)
	}

	r := &runningCommand{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		r.settle(cmd.Wait(), c.Run, ctx.Logger())
		close(r.done)
	}()
	return r, nil
}

// runningCommand is the process-lifecycle handle for a spawned command. The
// wait happens in a dedicated goroutine so that TryFinish can poll without
// blocking; outcome and err are written before done is closed.
type runningCommand struct {
	cmd     *exec.Cmd
	done    chan struct{}
	outcome Outcome
	err     error
}

func (r *runningCommand) settle(waitErr error, spec ProgramSpec, logger *slog.Logger) {
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		r.outcome = OutcomeSuccess
	case errors.As(waitErr, &exitErr):
		logger.Warn("command returned non-zero exit code",
			"command", spec.String(), "code", exitErr.ExitCode())
		r.outcome = OutcomeFailure
	default:
		r.outcome = OutcomeFailure
		r.err = fmt.Errorf("failed to wait for running process: %w", waitErr)
	}
}

func (r *runningCommand) Finish() (Outcome, error) {
	<-r.done
	return r.outcome, r.err
}

func (r *runningCommand) TryFinish() (Outcome, bool, error) {
	select {
	case <-r.done:
		return r.outcome, true, r.err
	default:
		return OutcomeFailure, false, nil
	}
}

func (r *runningCommand) Cancel() error {
	if r.cmd.Process == nil {
		return nil
	}
	err := r.cmd.Process.Kill()
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return fmt.Errorf("failed to kill process: %w", err)
}
