package assertcli

import (
	"errors"
	"fmt"
)

// TestingT is the subset of *testing.T used to report failures.
type TestingT interface {
	Fatal(args ...any)
	Helper()
}

// Execute runs the command and checks every expectation. It returns nil on
// success, an *AssertionError listing every violation otherwise, or a
// configuration error (wrapping ErrConflictingStatus or ErrInvalidPattern)
// without running anything.
//
// Each call runs the command again.
func (a Assert) Execute() error {
	if len(a.errs) > 0 {
		return fmt.Errorf("assertcli: %s: %w", quoteCommand(a.inv.CommandLine()), errors.Join(a.errs...))
	}

	ev := evaluation{assert: a}
	return ev.run()
}

// Unwrap runs Execute and stops the test with the rendered failure.
func (a Assert) Unwrap(t TestingT) {
	t.Helper()
	if err := a.Execute(); err != nil {
		t.Fatal(err.Error())
	}
}

// evaluation is one terminal call: a single capture and the checks run
// against it.
type evaluation struct {
	assert Assert
	output *Output
	found  []Violation
}

func (ev *evaluation) run() error {
	a := ev.assert
	out, err := capture(a.inv, a.enc)
	if err != nil {
		var failed *ExecutionFailed
		if !errors.As(err, &failed) {
			failed = &ExecutionFailed{Command: a.inv.CommandLine(), Cause: err}
		}
		return ev.fail(failed)
	}
	ev.output = out

	if !a.exit.Accepts(out.Status) {
		ev.found = append(ev.found, &ExitMismatch{Expected: a.exit, Actual: out.Status})
	}
	for _, p := range a.preds {
		if v := p.Check(out); v != nil {
			ev.found = append(ev.found, v)
		}
	}

	if len(ev.found) == 0 {
		return nil
	}
	return ev.fail(ev.found...)
}

func (ev *evaluation) fail(vs ...Violation) error {
	return &AssertionError{
		Command:    ev.assert.inv.CommandLine(),
		Output:     ev.output,
		Violations: vs,
	}
}
