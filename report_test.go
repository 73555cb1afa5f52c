package assertcli

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssertionErrorPlain(t *testing.T) {
	tests := []struct {
		name string
		err  *AssertionError
		want string
	}{
		{
			name: "content mismatch",
			err: &AssertionError{
				Command: []string{"wc", "-c", "README.md"},
				Output:  &Output{Status: Status{Exited: true}, Stdout: "92 README.md\n"},
				Violations: []Violation{
					&ContentMismatch{
						Stream:   Stdout,
						Mode:     Is,
						Expected: "1337 README.md",
						Actual:   "92 README.md\n",
						Diff:     Diff("1337 README.md", "92 README.md"),
					},
				},
			},
			want: strings.Join([]string{
				"CLI assertion failed: `wc -c README.md` (1 violation)",
				"",
				"stdout mismatch:",
				"-1337 README.md",
				"+92 README.md",
			}, "\n"),
		},
		{
			name: "exit mismatch shows both streams",
			err: &AssertionError{
				Command: []string{"sh", "-c", "exit 2"},
				Output:  &Output{Status: Status{Code: 2, Exited: true}, Stdout: "out\n"},
				Violations: []Violation{
					&ExitMismatch{Expected: MustSucceed, Actual: Status{Code: 2, Exited: true}},
				},
			},
			want: strings.Join([]string{
				"CLI assertion failed: `sh -c \"exit 2\"` (1 violation)",
				"",
				"status mismatch: expected success, got exit code 2",
				"stdout:",
				"    out",
				"stderr:",
				"    (empty)",
			}, "\n"),
		},
		{
			name: "several violations in order",
			err: &AssertionError{
				Command: []string{"ls"},
				Output:  &Output{Status: Status{Exited: true}, Stdout: "a\nb\n"},
				Violations: []Violation{
					&ContentMissing{Stream: Stdout, Mode: Contains, Needle: "c", Actual: "a\nb\n"},
					&ContentMismatch{Stream: Stdout, Mode: IsNot, Expected: "a\nb", Actual: "a\nb\n"},
					&PatternMismatch{Stream: Stderr, Pattern: "x+", Want: -1},
				},
			},
			want: strings.Join([]string{
				"CLI assertion failed: `ls` (3 violations)",
				"",
				"expected stdout to contain:",
				"    c",
				"stdout:",
				"    a",
				"    b",
				"",
				"expected stdout to not be:",
				"    a",
				"    b",
				"",
				`expected stderr to match "x+"`,
				"stderr:",
				"    (empty)",
			}, "\n"),
		},
		{
			name: "execution failure",
			err: &AssertionError{
				Command: []string{"nope"},
				Violations: []Violation{
					&ExecutionFailed{Command: []string{"nope"}, Cause: errors.New("not found")},
				},
			},
			want: strings.Join([]string{
				"CLI assertion failed: `nope` (1 violation)",
				"",
				"failed to run `nope`: not found",
			}, "\n"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.err.Error()); diff != "" {
				t.Errorf("Error() mismatch (-want +got):\n%s", diff)
			}
			if strings.Contains(tt.err.Error(), "\033[") {
				t.Error("plain rendering contains escape sequences")
			}
		})
	}
}

var escapeSeq = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestAssertionErrorColor(t *testing.T) {
	err := &AssertionError{
		Command: []string{"wc", "-c", "README.md"},
		Output:  &Output{Stdout: "92 README.md\n"},
		Violations: []Violation{
			&ContentMismatch{Stream: Stdout, Mode: Is, Diff: Diff("1337 README.md", "92 README.md")},
		},
	}

	got := err.String(Style{Color: true})
	for _, want := range []string{
		"\x1b[1m" + failurePrefix,
		"\x1b[31;7m1337",
		"\x1b[32;7m92",
		"\x1b[31mREADME.md",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("colored rendering missing %q:\n%q", want, got)
		}
	}

	if diff := cmp.Diff(err.Error(), escapeSeq.ReplaceAllString(got, "")); diff != "" {
		t.Errorf("colored text differs from plain text (-plain +colored):\n%s", diff)
	}
}

func TestTrailingNewlineOnlyDiff(t *testing.T) {
	err := &AssertionError{
		Command: []string{"echo"},
		Violations: []Violation{
			&ContentMismatch{Stream: Stdout, Mode: Is, Diff: []DiffLine{{OpEqual, "42"}}},
		},
	}
	if !strings.Contains(err.Error(), "differ only in a trailing newline") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestQuoteCommand(t *testing.T) {
	for _, tt := range []struct {
		cmd  []string
		want string
	}{
		{[]string{"echo", "42"}, "`echo 42`"},
		{[]string{"echo", ""}, "`echo \"\"`"},
		{[]string{"sh", "-c", "echo 'hi'"}, "`sh -c \"echo 'hi'\"`"},
	} {
		if got := quoteCommand(tt.cmd); got != tt.want {
			t.Errorf("quoteCommand(%q) = %s, want %s", tt.cmd, got, tt.want)
		}
	}
}
