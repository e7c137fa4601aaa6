package task

import (
	"errors"
	"fmt"
	"os"
)

// KeywordSetWorkdir is the task-file name of the set-workdir operation.
const KeywordSetWorkdir = "set-workdir"

// SetWorkDir changes the working directory for the remaining operations of
// the current task. The change is scoped to the task's context frame.
type SetWorkDir struct {
	Path string
}

func (s *SetWorkDir) Keyword() string {
	return KeywordSetWorkdir
}

func (s *SetWorkDir) Clone() Operation {
	clone := *s
	return &clone
}

func (s *SetWorkDir) Validate(ctx *Context) error {
	if s.Path == "" {
		return errors.New("path is empty")
	}
	return nil
}

func (s *SetWorkDir) Start(ctx *Context) (Running, error) {
	dir := ctx.Join(s.Path)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf(
			"'%s' is not a valid path to a directory (or it is inaccessible)", dir,
		)
	}

	ctx.SetWorkdir(dir)
	ctx.Logger().Debug("set working directory", "workdir", dir)
	return Completed(OutcomeSuccess), nil
}
