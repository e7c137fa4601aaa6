package task

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseTaskFile(t *testing.T) {
	data := []byte(`
tasks:
  - name: frontend
    operations:
      - command:
          run: npm run build
          workdir: web
      - copy:
          src: web/dist
          dst: public
      - set-workdir: web
      - "echo done"
  - name: backend
    operations:
      - command:
          run: ["cargo", "build", "--release"]
`)

	tasks, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].Name != "frontend" || tasks[1].Name != "backend" {
		t.Errorf("task names = %q, %q", tasks[0].Name, tasks[1].Name)
	}

	ops := tasks[0].Operations
	if len(ops) != 4 {
		t.Fatalf("frontend has %d operations, want 4", len(ops))
	}

	cmd, ok := ops[0].(*Command)
	if !ok {
		t.Fatalf("op[0] is %T, want *Command", ops[0])
	}
	if cmd.Run.Program != "npm" || !reflect.DeepEqual(cmd.Run.Args, []string{"run", "build"}) {
		t.Errorf("command = %v", cmd.Run)
	}
	if cmd.Workdir != "web" {
		t.Errorf("workdir = %q", cmd.Workdir)
	}

	cp, ok := ops[1].(*Copy)
	if !ok || cp.Src != "web/dist" || cp.Dst != "public" {
		t.Errorf("copy = %+v", ops[1])
	}

	wd, ok := ops[2].(*SetWorkDir)
	if !ok || wd.Path != "web" {
		t.Errorf("set-workdir = %+v", ops[2])
	}

	short, ok := ops[3].(*Command)
	if !ok || short.Run.Program != "echo" {
		t.Errorf("shorthand command = %+v", ops[3])
	}

	explicit := tasks[1].Operations[0].(*Command)
	if explicit.Run.Program != "cargo" ||
		!reflect.DeepEqual(explicit.Run.Args, []string{"build", "--release"}) {
		t.Errorf("explicit list command = %v", explicit.Run)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{
			name: "unknown operation",
			data: `
tasks:
  - name: t
    operations:
      - teleport: somewhere
`,
			wantMsg: "unknown operation",
		},
		{
			name: "unknown field in copy",
			data: `
tasks:
  - name: t
    operations:
      - copy:
          src: a
          dst: b
          mode: fast
`,
			wantMsg: "unknown field 'mode'",
		},
		{
			name: "empty command string",
			data: `
tasks:
  - name: t
    operations:
      - command:
          run: "   "
`,
			wantMsg: "empty",
		},
		{
			name: "empty fragment in list",
			data: `
tasks:
  - name: t
    operations:
      - command:
          run: ["git", " "]
`,
			wantMsg: "empty fragment",
		},
		{
			name: "missing task name",
			data: `
tasks:
  - operations: []
`,
			wantMsg: "missing required field 'name'",
		},
		{
			name: "duplicate task name",
			data: `
tasks:
  - name: t
    operations: []
  - name: t
    operations: []
`,
			wantMsg: "duplicate task name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}
