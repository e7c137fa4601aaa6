package task

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/kballard/go-shellquote"
)

// ProgramSpec is a validated program name plus its argument list. It is
// constructed once from configuration and immutable afterwards.
type ProgramSpec struct {
	Program string
	Args    []string
}

// ParseProgramString parses a shell-like command string into a ProgramSpec.
// Quoting follows shell rules, so `echo "a b"` yields a single argument.
func ParseProgramString(s string) (ProgramSpec, error) {
	fragments, err := shellquote.Split(s)
	if err != nil {
		return ProgramSpec{}, fmt.Errorf("invalid command string: %w", err)
	}
	if len(fragments) == 0 {
		return ProgramSpec{}, errors.New("command string is empty")
	}
	return NewProgramSpec(fragments)
}

// NewProgramSpec builds a ProgramSpec from an explicit fragment list. The
// first fragment is the program, the rest are its arguments.
func NewProgramSpec(fragments []string) (ProgramSpec, error) {
	if len(fragments) == 0 {
		return ProgramSpec{}, errors.New("empty list as command specification")
	}
	for _, f := range fragments {
		if f == "" || strings.TrimSpace(f) == "" {
			return ProgramSpec{}, errors.New("empty fragment in command specification")
		}
	}
	return ProgramSpec{
		Program: fragments[0],
		Args:    fragments[1:],
	}, nil
}

// String renders the spec as a single line. Fragments containing whitespace
// are quoted, all others are printed bare.
func (p ProgramSpec) String() string {
	var sb strings.Builder
	writeFragment(&sb, p.Program)
	for _, arg := range p.Args {
		sb.WriteByte(' ')
		writeFragment(&sb, arg)
	}
	return sb.String()
}

func writeFragment(sb *strings.Builder, s string) {
	if strings.ContainsFunc(s, unicode.IsSpace) {
		sb.WriteByte('"')
		sb.WriteString(s)
		sb.WriteByte('"')
		return
	}
	sb.WriteString(s)
}
