package assertcli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// An Invocation is a fully resolved description of a child process.
type Invocation struct {
	Program string
	Args    []string
	Dir     string
	Stdin   []byte
	Env     Environment

	// stdinSet distinguishes an empty payload from no payload.
	stdinSet bool
}

// CommandLine returns the program followed by its arguments.
func (inv Invocation) CommandLine() []string {
	return append([]string{inv.Program}, inv.Args...)
}

// Status is the termination status of a finished command.
type Status struct {
	// Code is the exit code, or -1 when the process did not exit normally.
	Code int

	// Exited is false when the process was terminated by a signal.
	Exited bool

	desc string
}

// Success reports whether the command exited with code 0.
func (s Status) Success() bool {
	return s.Exited && s.Code == 0
}

func (s Status) String() string {
	if !s.Exited {
		if s.desc != "" {
			return "abnormal termination (" + s.desc + ")"
		}
		return "abnormal termination"
	}
	return fmt.Sprintf("exit code %d", s.Code)
}

// Output is what one run of a command produced.
type Output struct {
	Status Status
	Stdout string
	Stderr string
}

// capture runs inv to completion. Failure to start the process is reported
// as an *ExecutionFailed; a non-zero exit is not an error.
func capture(inv Invocation, enc encoding.Encoding) (*Output, error) {
	cmdline := inv.CommandLine()
	if inv.Program == "" {
		return nil, &ExecutionFailed{Command: cmdline, Cause: ErrNoProgram}
	}

	env := inv.Env.Compile()
	path, err := lookPath(inv.Program, env)
	if err != nil {
		return nil, &ExecutionFailed{Command: cmdline, Cause: err}
	}

	cmd := exec.Command(path, inv.Args...)
	cmd.Args[0] = inv.Program
	cmd.Dir = inv.Dir
	cmd.Env = env
	if inv.stdinSet {
		cmd.Stdin = bytes.NewReader(inv.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, &ExecutionFailed{Command: cmdline, Cause: err}
	}

	return &Output{
		Status: statusOf(cmd.ProcessState),
		Stdout: decode(enc, stdout.Bytes()),
		Stderr: decode(enc, stderr.Bytes()),
	}, nil
}

func statusOf(ps *os.ProcessState) Status {
	if ps == nil {
		return Status{Code: -1}
	}
	code := ps.ExitCode()
	if code < 0 {
		return Status{Code: -1, desc: ps.String()}
	}
	return Status{Code: code, Exited: true}
}

// decode converts captured bytes to text. Invalid input is replaced rather
// than rejected.
func decode(enc encoding.Encoding, b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if enc == nil {
		enc = unicode.UTF8
	}
	text, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(text)
}

// lookPath resolves program through the PATH of env. Programs containing a
// separator are returned unchanged and resolved by exec relative to the
// working directory.
func lookPath(program string, env []string) (string, error) {
	if strings.ContainsRune(program, filepath.Separator) || strings.ContainsRune(program, '/') {
		return program, nil
	}

	pathList, ok := envValue(env, "PATH")
	if !ok || runtime.GOOS == "windows" {
		return exec.LookPath(program)
	}
	for _, d := range filepath.SplitList(pathList) {
		if d == "" {
			d = "."
		}
		candidate := filepath.Join(d, program)
		if !isExecutable(candidate) {
			continue
		}
		// Relative entries are found from the current directory but the
		// child starts in the invocation's Dir.
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return "", fmt.Errorf("%q: %w", program, err)
		}
		return abs, nil
	}
	return "", fmt.Errorf("%q: %w", program, exec.ErrNotFound)
}

func envValue(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		if k, v, ok := strings.Cut(env[i], "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
