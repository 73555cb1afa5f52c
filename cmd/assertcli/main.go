package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gfanton/assertcli"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

type config struct {
	verbose         bool
	color           bool
	keepWork        bool
	workdirRoot     string
	continueOnError bool
}

func (cfg *config) registerFlags(fs *ff.FlagSet) {
	fs.BoolVar(&cfg.verbose, 'v', "verbose", "log every case and command")
	fs.BoolVar(&cfg.color, 0, "color", "colorize failure diffs")
	fs.BoolVar(&cfg.keepWork, 0, "keep-work", "preserve work directories after running")
	fs.StringVar(&cfg.workdirRoot, 'w', "workdir-root", "", "root directory for work directories")
	fs.BoolVar(&cfg.continueOnError, 'c', "continue-on-error", "keep running cases after a failure")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewCommand(os.Stdout)
	err := cmd.ParseAndRun(ctx, os.Args[1:], ff.WithEnvVarPrefix("ASSERTCLI"))
	switch {
	case err == nil:
	case errors.Is(err, ff.ErrHelp):
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(cmd))
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// NewCommand creates the root ff.Command for the assertcli CLI. Results are
// written to w.
func NewCommand(w io.Writer) *ff.Command {
	var cfg config

	fs := ff.NewFlagSet("assertcli")
	cfg.registerFlags(fs)

	return &ff.Command{
		Name:      "assertcli",
		Usage:     "assertcli [FLAGS] PATH...",
		ShortHelp: "run command expectations stored in case archives",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			return execRunner(ctx, &cfg, w, args)
		},
	}
}

func execRunner(_ context.Context, cfg *config, w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("at least one argument required")
	}

	params := assertcli.Params{
		TestWork:        cfg.keepWork,
		WorkdirRoot:     cfg.workdirRoot,
		ContinueOnError: cfg.continueOnError,
		Style:           assertcli.Style{Color: cfg.color},
	}
	runner := &resultCapture{w: w, verbose: cfg.verbose}

	for _, target := range args {
		info, err := os.Stat(target)
		if err != nil {
			return fmt.Errorf("cannot access %s: %w", target, err)
		}
		absPath, err := filepath.Abs(target)
		if err != nil {
			return fmt.Errorf("cannot get absolute path for %s: %w", target, err)
		}

		p := params
		if info.IsDir() {
			p.Dir = absPath
			assertcli.RunStandalone(runner, p)
		} else {
			if !strings.HasSuffix(target, assertcli.CaseFileExt) {
				return fmt.Errorf("file must have %s extension: %s", assertcli.CaseFileExt, target)
			}
			p.Dir = filepath.Dir(absPath)
			assertcli.RunFilesStandalone(runner, p, absPath)
		}

		if runner.failed && !cfg.continueOnError {
			break
		}
	}

	if runner.failed {
		return fmt.Errorf("cases failed")
	}
	return nil
}

// resultCapture implements assertcli.T and prints results to w.
type resultCapture struct {
	w       io.Writer
	failed  bool
	verbose bool
}

func (t *resultCapture) Skip(args ...any) {
	if t.verbose {
		fmt.Fprint(t.w, "SKIP: ")
		fmt.Fprintln(t.w, args...)
	}
}

func (t *resultCapture) Fatal(args ...any) {
	t.failed = true
	fmt.Fprint(t.w, "FAIL: ")
	fmt.Fprintln(t.w, args...)
}

func (t *resultCapture) Fatalf(format string, args ...any) {
	t.failed = true
	fmt.Fprint(t.w, "FAIL: ")
	fmt.Fprintf(t.w, format, args...)
	fmt.Fprintln(t.w)
}

func (t *resultCapture) Log(args ...any) {
	if t.verbose {
		fmt.Fprintln(t.w, args...)
	}
}

func (t *resultCapture) Logf(format string, args ...any) {
	if t.verbose {
		fmt.Fprintf(t.w, format, args...)
		fmt.Fprintln(t.w)
	}
}

func (t *resultCapture) Failed() bool {
	return t.failed
}

func (t *resultCapture) Helper() {}
