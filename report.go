package assertcli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

const failurePrefix = "CLI assertion failed"

// Style controls how an AssertionError is rendered.
type Style struct {
	// Color enables ANSI colors for diffs and headings.
	Color bool
}

// paint applies attrs to text when s enables color. Color is forced on
// regardless of whether the destination is a terminal.
func (s Style) paint(text string, attrs ...color.Attribute) string {
	if !s.Color || text == "" {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// String renders e with style s.
func (e *AssertionError) String(s Style) string {
	var b strings.Builder
	e.Format(&b, s)
	return strings.TrimRight(b.String(), "\n")
}

// Format writes e to w: a heading naming the command, then one block per
// violation in evaluation order.
func (e *AssertionError) Format(w io.Writer, s Style) error {
	r := &reporter{style: s, out: e.Output}

	noun := "violations"
	if len(e.Violations) == 1 {
		noun = "violation"
	}
	r.linef("%s: %s (%d %s)", s.paint(failurePrefix, color.Bold), quoteCommand(e.Command), len(e.Violations), noun)
	for _, v := range e.Violations {
		r.line("")
		r.violation(v)
	}

	_, err := io.WriteString(w, r.b.String())
	return err
}

type reporter struct {
	b     strings.Builder
	style Style
	out   *Output
}

func (r *reporter) line(s string) {
	r.b.WriteString(s)
	r.b.WriteByte('\n')
}

func (r *reporter) linef(format string, args ...any) {
	r.line(fmt.Sprintf(format, args...))
}

// block writes a labeled, indented copy of text.
func (r *reporter) block(label, text string) {
	r.line(label + ":")
	if text == "" {
		r.line("    (empty)")
		return
	}
	for _, l := range strings.Split(normalize(text), "\n") {
		r.line("    " + l)
	}
}

func (r *reporter) violation(v Violation) {
	switch v := v.(type) {
	case *ExitMismatch:
		r.linef("status mismatch: expected %s, got %s", v.Expected, v.Actual)
		if r.out != nil {
			r.block("stdout", r.out.Stdout)
			r.block("stderr", r.out.Stderr)
		}

	case *ContentMismatch:
		if v.Mode == IsNot {
			r.block(fmt.Sprintf("expected %s to not be", v.Stream), v.Expected)
			return
		}
		r.linef("%s mismatch:", v.Stream)
		r.diff(v.Diff)

	case *ContentMissing:
		verb := "contain"
		if v.Mode == DoesNotContain {
			verb = "not contain"
		}
		r.block(fmt.Sprintf("expected %s to %s", v.Stream, verb), v.Needle)
		r.block(v.Stream.String(), v.Actual)

	case *PatternMismatch:
		r.line(v.Error())
		r.block(v.Stream.String(), v.Actual)

	case *PredicateFailed:
		r.line(v.Error())
		r.block(v.Stream.String(), v.Actual)

	default:
		r.line(v.Error())
	}
}

// diff writes an edit script. With color, a deletion directly followed by a
// single insertion is treated as a changed line and its differing words are
// highlighted.
func (r *reporter) diff(lines []DiffLine) {
	if !Changed(lines) {
		r.line("    (outputs differ only in a trailing newline)")
		return
	}
	for i := 0; i < len(lines); i++ {
		l := lines[i]
		if r.style.Color && l.Op == OpDelete && i+1 < len(lines) && lines[i+1].Op == OpInsert &&
			(i+2 == len(lines) || lines[i+2].Op != OpInsert) && (i == 0 || lines[i-1].Op != OpDelete) {
			del, ins := WordDiff(l.Text, lines[i+1].Text)
			r.line(r.words(OpDelete, color.FgRed, del))
			r.line(r.words(OpInsert, color.FgGreen, ins))
			i++
			continue
		}
		switch l.Op {
		case OpDelete:
			r.line(r.style.paint(l.String(), color.FgRed))
		case OpInsert:
			r.line(r.style.paint(l.String(), color.FgGreen))
		default:
			r.line(l.String())
		}
	}
}

func (r *reporter) words(op Op, fg color.Attribute, spans []DiffLine) string {
	var b strings.Builder
	b.WriteString(r.style.paint(op.prefix(), fg))
	for i, w := range spans {
		if i > 0 {
			b.WriteString(r.style.paint(" ", fg))
		}
		if w.Op == OpEqual {
			b.WriteString(r.style.paint(w.Text, fg))
		} else {
			b.WriteString(r.style.paint(w.Text, fg, color.ReverseVideo))
		}
	}
	return b.String()
}

// quoteCommand renders a command line for messages, quoting arguments that
// would otherwise be ambiguous.
func quoteCommand(cmd []string) string {
	parts := make([]string, len(cmd))
	for i, arg := range cmd {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'`\\") {
			parts[i] = strconv.Quote(arg)
		} else {
			parts[i] = arg
		}
	}
	return "`" + strings.Join(parts, " ") + "`"
}
