package task

// Outcome is the binary result of an operation or task run.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// String returns a short label used in logs and metrics.
func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "failure"
}

// IsFailure reports whether the outcome is a failure.
func (o Outcome) IsFailure() bool {
	return o == OutcomeFailure
}

// Operation is a single declarative unit of work inside a task.
//
// Implementations are value objects: Clone returns a copy that can be run
// with fresh execution state, so the same loaded task can run repeatedly.
type Operation interface {
	// Keyword returns the stable name of the operation kind, as written in
	// the task file and used in logs and error messages.
	Keyword() string

	// Validate performs static checks against the configuration. It is
	// called once at load time, never during a run.
	Validate(ctx *Context) error

	// Start launches the operation's effect and returns a handle for it.
	// Operations with no real asynchrony do all their work here and return
	// an already-completed handle.
	Start(ctx *Context) (Running, error)

	// Clone returns an independent copy of the operation.
	Clone() Operation
}

// Running is an ephemeral handle for a started operation.
type Running interface {
	// Finish blocks until the operation completes and returns its outcome.
	Finish() (Outcome, error)

	// TryFinish polls for completion without blocking. The second return
	// value is false while the operation is still running.
	TryFinish() (Outcome, bool, error)

	// Cancel forcibly stops the underlying effect. It is idempotent and
	// safe to call after the operation has already finished. It does not
	// wait for the operation to exit; call Finish for a deterministic join.
	Cancel() error
}

// completed is the handle for operations that finish inside Start.
type completed struct {
	outcome Outcome
}

// Completed returns an already-finished handle carrying the given outcome.
func Completed(o Outcome) Running {
	return completed{outcome: o}
}

func (c completed) Finish() (Outcome, error) {
	return c.outcome, nil
}

func (c completed) TryFinish() (Outcome, bool, error) {
	return c.outcome, true, nil
}

func (c completed) Cancel() error {
	return nil
}
