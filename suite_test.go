package assertcli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// testResultCapture implements T for standalone runs in tests.
type testResultCapture struct {
	failed bool
	logs   []string
	fails  []string
}

func (t *testResultCapture) Skip(args ...any) {}
func (t *testResultCapture) Fatal(args ...any) {
	t.failed = true
	t.fails = append(t.fails, fmt.Sprint(args...))
}
func (t *testResultCapture) Fatalf(format string, args ...any) {
	t.failed = true
	t.fails = append(t.fails, fmt.Sprintf(format, args...))
}
func (t *testResultCapture) Log(args ...any) { t.logs = append(t.logs, fmt.Sprint(args...)) }
func (t *testResultCapture) Logf(format string, args ...any) {
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}
func (t *testResultCapture) Failed() bool { return t.failed }
func (t *testResultCapture) Helper()      {}

func TestRunSuite(t *testing.T) {
	skipWindows(t)
	Run(t, Params{Dir: filepath.Join("testdata", "suite")})
}

func TestRunStandalone_Pass(t *testing.T) {
	skipWindows(t)
	capture := &testResultCapture{}
	RunStandalone(capture, Params{Dir: filepath.Join("testdata", "suite")})

	if capture.Failed() {
		t.Fatalf("suite failed: %v", capture.fails)
	}
	for _, want := range []string{"--- PASS: greet/world", "--- PASS: greet/refuse", "--- PASS: files/stdin"} {
		if !slices.Contains(capture.logs, want) {
			t.Errorf("logs missing %q:\n%s", want, strings.Join(capture.logs, "\n"))
		}
	}
}

func TestRunStandalone_Fail(t *testing.T) {
	skipWindows(t)
	dir := filepath.Join("testdata", "failing")

	t.Run("stops at first failure", func(t *testing.T) {
		capture := &testResultCapture{}
		RunStandalone(capture, Params{Dir: dir})

		if !capture.Failed() {
			t.Fatal("expected failure, got success")
		}
		if !slices.Contains(capture.logs, "--- FAIL: mismatch/wrong") {
			t.Errorf("logs missing FAIL line:\n%s", strings.Join(capture.logs, "\n"))
		}
		if slices.Contains(capture.logs, "=== RUN   mismatch/right") {
			t.Error("later case ran after a failure")
		}
		if len(capture.fails) != 1 {
			t.Fatalf("got %d failures, want 1", len(capture.fails))
		}
		for _, want := range []string{"CLI assertion failed", "-1337 README.md", "+92 README.md"} {
			if !strings.Contains(capture.fails[0], want) {
				t.Errorf("failure missing %q:\n%s", want, capture.fails[0])
			}
		}
	})

	t.Run("continue on error", func(t *testing.T) {
		capture := &testResultCapture{}
		RunStandalone(capture, Params{Dir: dir, ContinueOnError: true})

		if !capture.Failed() {
			t.Fatal("expected failure, got success")
		}
		if !slices.Contains(capture.logs, "--- PASS: mismatch/right") {
			t.Errorf("later case did not run:\n%s", strings.Join(capture.logs, "\n"))
		}
	})

	t.Run("color", func(t *testing.T) {
		capture := &testResultCapture{}
		RunStandalone(capture, Params{Dir: dir, Style: Style{Color: true}})
		if len(capture.fails) == 0 || !strings.Contains(capture.fails[0], "\x1b[31m") {
			t.Errorf("failure is not colored: %q", capture.fails)
		}
	})
}

func TestRunStandalone_NoArchives(t *testing.T) {
	capture := &testResultCapture{}
	RunStandalone(capture, Params{Dir: t.TempDir()})
	if !capture.Failed() {
		t.Fatal("expected failure for an empty directory")
	}
}

func TestRunFilesStandalone_Setup(t *testing.T) {
	skipWindows(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "setup.txtar")
	writeFile(t, file, []byte(`[[case]]
name = "env"
command = ["sh", "-c", "echo $FROM_SETUP; cat marker"]

[case.stdout]
is = "configured\nwritten"
`), 0644)

	var workdir string
	capture := &testResultCapture{}
	RunFilesStandalone(capture, Params{
		Dir: dir,
		Setup: func(e *Env) error {
			workdir = e.WorkDir
			if e.Getenv("WORK") != e.WorkDir {
				return fmt.Errorf("WORK = %q, want %q", e.Getenv("WORK"), e.WorkDir)
			}
			e.Setenv("FROM_SETUP", "configured")
			return os.WriteFile(filepath.Join(e.WorkDir, "marker"), []byte("written\n"), 0o644)
		},
	}, file)

	if capture.Failed() {
		t.Fatalf("setup case failed: %v", capture.fails)
	}
	if _, err := os.Stat(workdir); !os.IsNotExist(err) {
		t.Errorf("work directory %q was not removed", workdir)
	}
}

func TestRunFilesStandalone_SetupError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txtar")
	writeFile(t, file, []byte("[[case]]\nname = \"a\"\ncommand = [\"true\"]\n"), 0644)

	capture := &testResultCapture{}
	RunFilesStandalone(capture, Params{
		Dir:   dir,
		Setup: func(*Env) error { return fmt.Errorf("boom") },
	}, file)

	if !capture.Failed() || !strings.Contains(strings.Join(capture.fails, "\n"), "setup failed: boom") {
		t.Errorf("fails = %v, want setup failure", capture.fails)
	}
}

func TestRunFilesStandalone_KeepWork(t *testing.T) {
	skipWindows(t)
	dir := t.TempDir()
	root := filepath.Join(t.TempDir(), "work")
	file := filepath.Join(dir, "keep.txtar")
	writeFile(t, file, []byte("[[case]]\nname = \"a\"\ncommand = [\"true\"]\n-- kept.txt --\nkept\n"), 0644)

	capture := &testResultCapture{}
	RunFilesStandalone(capture, Params{Dir: dir, WorkdirRoot: root}, file)
	if capture.Failed() {
		t.Fatalf("case failed: %v", capture.fails)
	}

	matches, err := filepath.Glob(filepath.Join(root, "assertcli-*", "kept.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Errorf("kept fixtures = %v, want one", matches)
	}
}
