package task

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the task file at path and returns the validated task list in
// declaration order. All configuration errors (unknown operation kinds,
// malformed command specs, stray fields) are reported here, before anything
// runs.
func Load(path string) ([]*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	tasks, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("task file '%s': %w", path, err)
	}
	return tasks, nil
}

// Parse decodes task definitions from YAML.
func Parse(data []byte) ([]*Task, error) {
	var file fileSpec
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	seen := make(map[string]bool)
	tasks := make([]*Task, 0, len(file.Tasks))
	for i, ts := range file.Tasks {
		if ts.Name == "" {
			return nil, fmt.Errorf("task at index %d: missing required field 'name'", i)
		}
		if seen[ts.Name] {
			return nil, fmt.Errorf("duplicate task name: '%s'", ts.Name)
		}
		seen[ts.Name] = true

		ops := make([]Operation, 0, len(ts.Operations))
		for _, spec := range ts.Operations {
			ops = append(ops, spec.op)
		}
		tasks = append(tasks, &Task{Name: ts.Name, Operations: ops})
	}
	return tasks, nil
}

type fileSpec struct {
	Tasks []taskSpec `yaml:"tasks"`
}

type taskSpec struct {
	Name       string          `yaml:"name"`
	Operations []operationSpec `yaml:"operations"`
}

// operationSpec decodes one entry of a task's operation list. Two forms are
// accepted: a bare string (shorthand for a command) and a single-key mapping
// from an operation keyword to that operation's configuration.
type operationSpec struct {
	op Operation
}

func (o *operationSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		spec, err := ParseProgramString(s)
		if err != nil {
			return err
		}
		o.op = &Command{Run: spec}
		return nil

	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return errors.New("operation must be a mapping with exactly one key")
		}
		keyword := node.Content[0].Value
		value := node.Content[1]

		switch keyword {
		case KeywordCommand:
			return o.decodeCommand(value)
		case KeywordCopy:
			return o.decodeCopy(value)
		case KeywordSetWorkdir:
			return o.decodeSetWorkdir(value)
		default:
			return fmt.Errorf("unknown operation '%s'", keyword)
		}

	default:
		return errors.New("operation must be a string or a mapping")
	}
}

func (o *operationSpec) decodeCommand(node *yaml.Node) error {
	// `command: "npm run build"` is a shorthand for `command: { run: ... }`.
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		spec, err := ParseProgramString(s)
		if err != nil {
			return err
		}
		o.op = &Command{Run: spec}
		return nil
	}

	var cs commandSpec
	if err := node.Decode(&cs); err != nil {
		return err
	}
	if cs.Run.spec.Program == "" {
		return errors.New("command operation requires a 'run' field")
	}
	o.op = &Command{Run: cs.Run.spec, Workdir: cs.Workdir}
	return nil
}

func (o *operationSpec) decodeCopy(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.New("copy operation must be a mapping")
	}
	// Copy is strict: anything besides src/dst is rejected.
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch key := node.Content[i].Value; key {
		case "src", "dst":
		default:
			return fmt.Errorf("unknown field '%s' in copy operation", key)
		}
	}

	var cs copySpec
	if err := node.Decode(&cs); err != nil {
		return err
	}
	o.op = &Copy{Src: cs.Src, Dst: cs.Dst}
	return nil
}

func (o *operationSpec) decodeSetWorkdir(node *yaml.Node) error {
	var path string
	if err := node.Decode(&path); err != nil {
		return errors.New("set-workdir operation must be a single path string")
	}
	o.op = &SetWorkDir{Path: path}
	return nil
}

type commandSpec struct {
	Run     runSpec `yaml:"run"`
	Workdir string  `yaml:"workdir"`
}

type copySpec struct {
	Src string `yaml:"src"`
	Dst string `yaml:"dst"`
}

// runSpec accepts either a shell-like string or an explicit list of strings.
type runSpec struct {
	spec ProgramSpec
}

func (r *runSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		spec, err := ParseProgramString(s)
		if err != nil {
			return err
		}
		r.spec = spec
		return nil

	case yaml.SequenceNode:
		var fragments []string
		if err := node.Decode(&fragments); err != nil {
			return err
		}
		spec, err := NewProgramSpec(fragments)
		if err != nil {
			return err
		}
		r.spec = spec
		return nil

	default:
		return errors.New("'run' must be a string or a list of strings")
	}
}
