package task

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// KeywordCopy is the task-file name of the copy operation.
const KeywordCopy = "copy"

// Copy copies a file or directory tree from Src to Dst, both resolved against
// the current working directory.
//
// Policy: regular files are copied with their permission bits and overwrite an
// existing destination file; directories are copied recursively and merged
// into an existing destination directory; symlinks are recreated as links
// pointing at the same target, never followed.
type Copy struct {
	Src string
	Dst string
}

func (c *Copy) Keyword() string {
	return KeywordCopy
}

func (c *Copy) Clone() Operation {
	clone := *c
	return &clone
}

func (c *Copy) Validate(ctx *Context) error {
	if c.Src == "" {
		return errors.New("src is empty")
	}
	if c.Dst == "" {
		return errors.New("dst is empty")
	}
	return nil
}

func (c *Copy) Start(ctx *Context) (Running, error) {
	src := ctx.Join(c.Src)
	dst := ctx.Join(c.Dst)

	ctx.Logger().Info("copying", "src", src, "dst", dst)

	// An I/O error here is a runtime failure of the operation, on par with a
	// command exiting non-zero, not a hard error for the whole run.
	if err := copyPath(src, dst); err != nil {
		ctx.Logger().Warn("copy failed", "src", src, "dst", dst, "err", err)
		return Completed(OutcomeFailure), nil
	}
	return Completed(OutcomeSuccess), nil
}

func copyPath(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return copySymlink(src, dst)
	case info.IsDir():
		return copyDir(src, dst)
	default:
		return copyFile(src, dst, info.Mode().Perm())
	}
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		err := copyPath(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name()))
		if err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy '%s' to '%s': %w", src, dst, err)
	}
	return out.Close()
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(target, dst)
}
