package assertcli

import (
	"fmt"
	"regexp"
	"strings"
)

// Stream identifies a captured output stream.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("Stream(%d)", int(s))
	}
}

// text returns the captured text of stream s.
func (s Stream) text(out *Output) string {
	if s == Stderr {
		return out.Stderr
	}
	return out.Stdout
}

// Mode is the comparison a Predicate performs.
type Mode int

const (
	Is Mode = iota
	IsNot
	Contains
	DoesNotContain
	Matches
	MatchesN
	Satisfies
)

func (m Mode) String() string {
	switch m {
	case Is:
		return "is"
	case IsNot:
		return "is not"
	case Contains:
		return "contains"
	case DoesNotContain:
		return "does not contain"
	case Matches:
		return "matches"
	case MatchesN:
		return "matches n times"
	case Satisfies:
		return "satisfies"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// A Predicate is a single check against one captured stream.
type Predicate struct {
	Stream   Stream
	Mode     Mode
	Expected string

	// Count is the exact number of matches required by MatchesN.
	Count int

	re      *regexp.Regexp
	fn      func(string) bool
	compErr error
}

func textPredicate(s Stream, m Mode, expected string) Predicate {
	return Predicate{Stream: s, Mode: m, Expected: expected}
}

func patternPredicate(s Stream, m Mode, pattern string, n int) Predicate {
	p := Predicate{Stream: s, Mode: m, Expected: pattern, Count: n}
	p.re, p.compErr = regexp.Compile(pattern)
	if p.compErr != nil {
		p.compErr = fmt.Errorf("%w: %s %s %q: %v", ErrInvalidPattern, s, m, pattern, p.compErr)
	}
	return p
}

func funcPredicate(s Stream, fn func(string) bool, msg string) Predicate {
	return Predicate{Stream: s, Mode: Satisfies, Expected: msg, fn: fn}
}

// normalize strips a single trailing newline, and a carriage return before
// it, so that "42" matches the output of `echo 42`.
func normalize(s string) string {
	if strings.HasSuffix(s, "\n") {
		s = s[:len(s)-1]
		s = strings.TrimSuffix(s, "\r")
	}
	return s
}

// Check evaluates p against out. It returns nil when the predicate holds.
func (p Predicate) Check(out *Output) Violation {
	got := p.Stream.text(out)

	switch p.Mode {
	case Is, IsNot:
		want, have := normalize(p.Expected), normalize(got)
		if (want == have) == (p.Mode == Is) {
			return nil
		}
		v := &ContentMismatch{Stream: p.Stream, Mode: p.Mode, Expected: p.Expected, Actual: got}
		if p.Mode == Is {
			v.Diff = Diff(want, have)
		}
		return v

	case Contains, DoesNotContain:
		if strings.Contains(got, p.Expected) == (p.Mode == Contains) {
			return nil
		}
		return &ContentMissing{Stream: p.Stream, Mode: p.Mode, Needle: p.Expected, Actual: got}

	case Matches, MatchesN:
		if p.re == nil {
			return &PatternMismatch{Stream: p.Stream, Pattern: p.Expected, Want: p.Count, Actual: got}
		}
		n := len(p.re.FindAllStringIndex(got, -1))
		if (p.Mode == Matches && n > 0) || (p.Mode == MatchesN && n == p.Count) {
			return nil
		}
		want := p.Count
		if p.Mode == Matches {
			want = -1
		}
		return &PatternMismatch{Stream: p.Stream, Pattern: p.Expected, Want: want, Got: n, Actual: got}

	case Satisfies:
		if p.fn != nil && p.fn(got) {
			return nil
		}
		return &PredicateFailed{Stream: p.Stream, Message: p.Expected, Actual: got}
	}

	panic(fmt.Sprintf("assertcli: unknown predicate mode %v", p.Mode))
}
