package assertcli

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func requireGo(t *testing.T) {
	t.Helper()
	skipWindows(t)
	if testing.Short() {
		t.Skip("builds a binary")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not found")
	}
}

func TestGoBinary(t *testing.T) {
	requireGo(t)

	cli := GoBinary(t, "./cmd/assertcli")
	if !filepath.IsAbs(cli.Invocation().Program) {
		t.Errorf("Program = %q, want an absolute path", cli.Invocation().Program)
	}

	cli.Fails().
		Stderr().Contains("at least one argument required").
		Unwrap(t)
	cli.WithArgs(filepath.Join("testdata", "suite")).Unwrap(t)
	cli.WithArgs(filepath.Join("testdata", "failing")).
		FailsWith(1).
		Stdout().Contains("-1337 README.md").
		Unwrap(t)
}

func TestBuildGoBinaryError(t *testing.T) {
	requireGo(t)

	_, err := BuildGoBinary("./does/not/exist", t.TempDir())
	if err == nil {
		t.Fatal("expected error for a missing package, got nil")
	}
	if !strings.Contains(err.Error(), "go build ./does/not/exist") {
		t.Errorf("error = %v", err)
	}
}

func TestBinaryName(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		pkg  string
		want string
	}{
		{".", filepath.Base(wd)},
		{"./cmd/assertcli", "assertcli"},
		{"github.com/gfanton/assertcli/cmd/assertcli", "assertcli"},
		{"../" + filepath.Base(wd), filepath.Base(wd)},
	} {
		want := tt.want
		if runtime.GOOS == "windows" {
			want += ".exe"
		}
		got, err := binaryName(tt.pkg)
		if err != nil {
			t.Fatalf("binaryName(%q): %v", tt.pkg, err)
		}
		if got != want {
			t.Errorf("binaryName(%q) = %q, want %q", tt.pkg, got, want)
		}
	}
}
