package task

import (
	"log/slog"
	"path/filepath"
)

const workdirKey = "workdir"

// frame is one scope of variables. Operations write into the innermost frame
// only; lookups walk frames innermost-first.
type frame map[string]any

// Context carries the scoped execution state consulted by operations during a
// run. It is owned by the task runner and passed by reference into each
// operation. A fresh frame is pushed when a task starts and popped when it
// ends, so one task run never leaks state into the next.
type Context struct {
	baseDir string
	logger  *slog.Logger
	frames  []frame
}

// NewContext creates a context rooted at the given base working directory.
func NewContext(baseDir string, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Logger returns the logger operations should use.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// PushFrame opens a new variable scope.
func (c *Context) PushFrame() {
	c.frames = append(c.frames, frame{})
}

// PopFrame discards the innermost scope and everything written into it.
func (c *Context) PopFrame() {
	if len(c.frames) == 0 {
		return
	}
	c.frames = c.frames[:len(c.frames)-1]
}

// Workdir returns the current working directory: the innermost frame that set
// one, falling back to the base directory.
func (c *Context) Workdir() string {
	for i := len(c.frames) - 1; i >= 0; i-- {
		if dir, ok := c.frames[i][workdirKey].(string); ok {
			return dir
		}
	}
	return c.baseDir
}

// SetWorkdir writes the working directory into the innermost frame. The value
// is visible to later operations in the same task and dropped with the frame.
func (c *Context) SetWorkdir(dir string) {
	if len(c.frames) == 0 {
		return
	}
	c.frames[len(c.frames)-1][workdirKey] = dir
}

// Join resolves a path against the current working directory. Absolute paths
// are returned unchanged.
func (c *Context) Join(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Workdir(), path)
}
