package assertcli

import (
	"bytes"
	"fmt"
	"go/build"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// GoBinary builds the main package pkg into a temporary directory of t and
// starts an Assert for the resulting binary. pkg is a go build argument,
// such as "./cmd/tool", resolved from the current directory. A failed
// build stops the test.
//
//	assertcli.GoBinary(t, "./cmd/tool", "--version").
//		Stdout().Contains("tool").
//		Unwrap(t)
func GoBinary(t testing.TB, pkg string, args ...string) Assert {
	t.Helper()
	path, err := BuildGoBinary(pkg, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return Command(path, args...)
}

// MainBinary is GoBinary for the package in the current directory.
func MainBinary(t testing.TB, args ...string) Assert {
	t.Helper()
	return GoBinary(t, ".", args...)
}

// BuildGoBinary runs go build for pkg with the output in dir and returns the
// path of the binary.
func BuildGoBinary(pkg, dir string) (string, error) {
	gocmd, err := exec.LookPath("go")
	if err != nil {
		return "", fmt.Errorf("build %s: %w", pkg, err)
	}

	name, err := binaryName(pkg)
	if err != nil {
		return "", fmt.Errorf("build %s: %w", pkg, err)
	}
	out := filepath.Join(dir, name)

	var stderr bytes.Buffer
	cmd := exec.Command(gocmd, "build", "-o", out, pkg)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("go build %s: %w\n%s", pkg, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// binaryName is the file name go build would pick for pkg.
func binaryName(pkg string) (string, error) {
	if build.IsLocalImport(pkg) || filepath.IsAbs(pkg) {
		abs, err := filepath.Abs(pkg)
		if err != nil {
			return "", err
		}
		pkg = abs
	}
	name := path.Base(filepath.ToSlash(pkg))
	if name == "." || name == "/" {
		name = "main"
	}
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return name, nil
}
