package assertcli

import (
	"errors"
	"fmt"
)

var (
	// ErrConflictingStatus is returned by a terminal call when two different
	// exit expectations were declared on the same Assert.
	ErrConflictingStatus = errors.New("conflicting exit expectations")

	// ErrInvalidPattern is returned by a terminal call when a Matches or
	// MatchesN pattern does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrNoProgram is the cause of an ExecutionFailed for an empty command.
	ErrNoProgram = errors.New("no program to run")
)

// A Violation is a single failed check of one evaluation. Every Violation
// is also an error, so the violations of an *AssertionError can be found
// with errors.As.
type Violation interface {
	error
	violation()
}

// ExitMismatch reports a termination status that does not satisfy the exit
// expectation.
type ExitMismatch struct {
	Expected ExitExpectation
	Actual   Status
}

func (v *ExitMismatch) Error() string {
	return fmt.Sprintf("expected %s, got %s", v.Expected, v.Actual)
}

// ContentMismatch reports a failed Is or IsNot predicate. Diff is set only
// for Is.
type ContentMismatch struct {
	Stream   Stream
	Mode     Mode
	Expected string
	Actual   string
	Diff     []DiffLine
}

func (v *ContentMismatch) Error() string {
	if v.Mode == IsNot {
		return fmt.Sprintf("expected %s to differ from %q", v.Stream, v.Expected)
	}
	return fmt.Sprintf("%s mismatch: expected %q, got %q", v.Stream, v.Expected, v.Actual)
}

// ContentMissing reports a failed Contains or DoesNotContain predicate.
type ContentMissing struct {
	Stream Stream
	Mode   Mode
	Needle string
	Actual string
}

func (v *ContentMissing) Error() string {
	if v.Mode == DoesNotContain {
		return fmt.Sprintf("expected %s to not contain %q", v.Stream, v.Needle)
	}
	return fmt.Sprintf("expected %s to contain %q", v.Stream, v.Needle)
}

// PatternMismatch reports a failed Matches or MatchesN predicate. Want is -1
// for Matches, which requires at least one match.
type PatternMismatch struct {
	Stream  Stream
	Pattern string
	Want    int
	Got     int
	Actual  string
}

func (v *PatternMismatch) Error() string {
	if v.Want < 0 {
		return fmt.Sprintf("expected %s to match %q", v.Stream, v.Pattern)
	}
	return fmt.Sprintf("expected %s to match %q %d times, got %d", v.Stream, v.Pattern, v.Want, v.Got)
}

// PredicateFailed reports a failed Satisfies predicate.
type PredicateFailed struct {
	Stream  Stream
	Message string
	Actual  string
}

func (v *PredicateFailed) Error() string {
	return fmt.Sprintf("%s predicate failed: %s", v.Stream, v.Message)
}

// ExecutionFailed reports that the command could not be run at all.
type ExecutionFailed struct {
	Command []string
	Cause   error
}

func (v *ExecutionFailed) Error() string {
	return fmt.Sprintf("failed to run %s: %v", quoteCommand(v.Command), v.Cause)
}

func (v *ExecutionFailed) Unwrap() error {
	return v.Cause
}

func (*ExitMismatch) violation()    {}
func (*ContentMismatch) violation() {}
func (*ContentMissing) violation()  {}
func (*PatternMismatch) violation() {}
func (*PredicateFailed) violation() {}
func (*ExecutionFailed) violation() {}

// AssertionError aggregates every violation found by one evaluation.
type AssertionError struct {
	// Command is the program followed by its arguments.
	Command []string

	// Output is the captured output. It is nil when the command could not
	// be run.
	Output *Output

	Violations []Violation
}

// Error renders the failure as plain text.
func (e *AssertionError) Error() string {
	return e.String(Style{})
}

// Unwrap exposes the violations to errors.Is and errors.As.
func (e *AssertionError) Unwrap() []error {
	errs := make([]error, len(e.Violations))
	for i, v := range e.Violations {
		errs[i] = v
	}
	return errs
}
