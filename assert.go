package assertcli

import (
	"fmt"
	"slices"

	"golang.org/x/text/encoding"
)

// ExitExpectation is the condition an exit status must satisfy.
type ExitExpectation struct {
	kind expectKind
	code int
}

type expectKind int

const (
	expectSuccess expectKind = iota
	expectFailure
	expectFailureCode
	expectAny
)

var (
	// MustSucceed requires exit code 0. It is the default.
	MustSucceed = ExitExpectation{kind: expectSuccess}

	// MustFail requires any non-zero exit code.
	MustFail = ExitExpectation{kind: expectFailure}

	// AnyStatus accepts every termination status.
	AnyStatus = ExitExpectation{kind: expectAny}
)

// MustFailWith requires the exact non-zero exit code.
func MustFailWith(code int) ExitExpectation {
	return ExitExpectation{kind: expectFailureCode, code: code}
}

// Accepts reports whether s satisfies x. Abnormal termination counts as a
// failure without a code.
func (x ExitExpectation) Accepts(s Status) bool {
	switch x.kind {
	case expectSuccess:
		return s.Success()
	case expectFailure:
		return !s.Success()
	case expectFailureCode:
		return s.Exited && s.Code == x.code
	default:
		return true
	}
}

func (x ExitExpectation) String() string {
	switch x.kind {
	case expectSuccess:
		return "success"
	case expectFailure:
		return "failure"
	case expectFailureCode:
		return fmt.Sprintf("failure with exit code %d", x.code)
	default:
		return "any status"
	}
}

// refines reports whether next may follow x without conflict.
func (x ExitExpectation) refines(next ExitExpectation) bool {
	return x == next || (x.kind == expectFailure && next.kind == expectFailureCode)
}

// Assert is a chainable set of expectations about one command run.
//
// Building an Assert never runs anything; Execute and Unwrap do. Assert is
// a value: every method returns a modified copy, so a partially built
// Assert can be reused as the base of several independent chains.
//
//	assertcli.Command("echo", "42").
//		Stdout().Is("42").
//		Unwrap(t)
type Assert struct {
	inv     Invocation
	enc     encoding.Encoding
	exit    ExitExpectation
	exitSet bool

	preds []Predicate
	errs  []error
}

// Command starts an Assert for program with args. The command inherits the
// current environment and is expected to succeed.
func Command(program string, args ...string) Assert {
	return Assert{
		inv: Invocation{
			Program: program,
			Args:    slices.Clone(args),
			Env:     InheritEnv(),
		},
		exit: MustSucceed,
	}
}

// WithArgs appends arguments to the command.
func (a Assert) WithArgs(args ...string) Assert {
	a.inv.Args = append(slices.Clip(a.inv.Args), args...)
	return a
}

// Stdin sets the bytes written to the command's standard input.
func (a Assert) Stdin(contents []byte) Assert {
	a.inv.Stdin = slices.Clone(contents)
	a.inv.stdinSet = true
	return a
}

// StdinString is Stdin for text.
func (a Assert) StdinString(contents string) Assert {
	return a.Stdin([]byte(contents))
}

// CurrentDir sets the working directory of the command.
func (a Assert) CurrentDir(dir string) Assert {
	a.inv.Dir = dir
	return a
}

// WithEnv replaces the command's environment.
func (a Assert) WithEnv(env Environment) Assert {
	a.inv.Env = env
	return a
}

// SetEnv sets one variable on top of the current environment.
func (a Assert) SetEnv(key, value string) Assert {
	a.inv.Env = a.inv.Env.Insert(key, value)
	return a
}

// UnsetEnv removes one variable from the current environment.
func (a Assert) UnsetEnv(key string) Assert {
	a.inv.Env = a.inv.Env.Remove(key)
	return a
}

// Decoding sets the encoding used to turn captured bytes into text. The
// default is UTF-8 with invalid sequences replaced by U+FFFD.
func (a Assert) Decoding(enc encoding.Encoding) Assert {
	a.enc = enc
	return a
}

// And returns a unchanged. It exists to make chains read naturally.
func (a Assert) And() Assert {
	return a
}

// Succeeds expects exit code 0.
func (a Assert) Succeeds() Assert {
	return a.expect(MustSucceed)
}

// Fails expects a non-zero exit code. The command must run: a missing
// program is an ExecutionFailed, not a failure.
func (a Assert) Fails() Assert {
	return a.expect(MustFail)
}

// FailsWith expects the given exit code.
func (a Assert) FailsWith(code int) Assert {
	return a.expect(MustFailWith(code))
}

// IgnoreStatus accepts any exit status.
func (a Assert) IgnoreStatus() Assert {
	return a.expect(AnyStatus)
}

func (a Assert) expect(x ExitExpectation) Assert {
	if a.exitSet && !a.exit.refines(x) {
		a.errs = append(slices.Clip(a.errs),
			fmt.Errorf("%w: %s then %s", ErrConflictingStatus, a.exit, x))
	}
	a.exit, a.exitSet = x, true
	return a
}

// Stdout starts an assertion on standard output.
func (a Assert) Stdout() OutputAssertion {
	return OutputAssertion{a: a, stream: Stdout}
}

// Stderr starts an assertion on standard error.
func (a Assert) Stderr() OutputAssertion {
	return OutputAssertion{a: a, stream: Stderr}
}

func (a Assert) with(p Predicate) Assert {
	a.preds = append(slices.Clip(a.preds), p)
	if p.compErr != nil {
		a.errs = append(slices.Clip(a.errs), p.compErr)
	}
	return a
}

// Invocation returns the command a will run.
func (a Assert) Invocation() Invocation {
	return a.inv
}

// Expectation returns the exit expectation a will check.
func (a Assert) Expectation() ExitExpectation {
	return a.exit
}

// Predicates returns the stream predicates in declaration order.
func (a Assert) Predicates() []Predicate {
	return slices.Clone(a.preds)
}

// OutputAssertion adds a predicate on one stream and returns the Assert.
type OutputAssertion struct {
	a      Assert
	stream Stream
}

// Is expects the stream to equal text, ignoring one trailing newline on
// either side.
func (o OutputAssertion) Is(text string) Assert {
	return o.a.with(textPredicate(o.stream, Is, text))
}

// IsNot expects the stream to differ from text.
func (o OutputAssertion) IsNot(text string) Assert {
	return o.a.with(textPredicate(o.stream, IsNot, text))
}

// Contains expects text to appear in the stream.
func (o OutputAssertion) Contains(text string) Assert {
	return o.a.with(textPredicate(o.stream, Contains, text))
}

// DoesNotContain expects text to be absent from the stream.
func (o OutputAssertion) DoesNotContain(text string) Assert {
	return o.a.with(textPredicate(o.stream, DoesNotContain, text))
}

// Matches expects the regular expression to match at least once.
func (o OutputAssertion) Matches(pattern string) Assert {
	return o.a.with(patternPredicate(o.stream, Matches, pattern, 0))
}

// MatchesN expects exactly n non-overlapping matches of the regular
// expression.
func (o OutputAssertion) MatchesN(pattern string, n int) Assert {
	return o.a.with(patternPredicate(o.stream, MatchesN, pattern, n))
}

// Satisfies expects fn to return true for the stream's text. msg describes
// the check in failure reports.
func (o OutputAssertion) Satisfies(fn func(string) bool, msg string) Assert {
	return o.a.with(funcPredicate(o.stream, fn, msg))
}
