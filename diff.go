package assertcli

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op tags a line of a diff.
type Op int

const (
	OpEqual  Op = iota // present in both texts
	OpDelete           // present only in the expected text
	OpInsert           // present only in the actual text
)

func (op Op) prefix() string {
	switch op {
	case OpDelete:
		return "-"
	case OpInsert:
		return "+"
	default:
		return " "
	}
}

// A DiffLine is one line of an edit script.
type DiffLine struct {
	Op   Op
	Text string
}

func (l DiffLine) String() string {
	return l.Op.prefix() + l.Text
}

// Diff returns a minimal line-level edit script turning expected into
// actual. Within a changed hunk, deletions come before insertions.
// Time and memory grow with the size of the texts times the number of
// changed lines, so large outputs with small differences stay cheap.
func Diff(expected, actual string) []DiffLine {
	return diffTokens(splitLines(expected), splitLines(actual))
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// diffTokens computes a Myers edit script over a and b. Each distinct
// token is interned as one rune so the diff runs token by token.
func diffTokens(a, b []string) []DiffLine {
	var tokens []string
	index := make(map[string]rune)
	encode := func(ts []string) []rune {
		rs := make([]rune, len(ts))
		for i, t := range ts {
			r, ok := index[t]
			if !ok {
				r = tokenRune(len(tokens))
				index[t] = r
				tokens = append(tokens, t)
			}
			rs[i] = r
		}
		return rs
	}
	ra, rb := encode(a), encode(b)

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	out := make([]DiffLine, 0, max(len(a), len(b)))
	for _, d := range dmp.DiffMainRunes(ra, rb, false) {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		}
		for _, r := range d.Text {
			out = append(out, DiffLine{op, tokens[runeToken(r)]})
		}
	}
	orderHunks(out)
	return out
}

// orderHunks moves deletions ahead of insertions within each run of
// changed lines, keeping the relative order of each kind.
func orderHunks(lines []DiffLine) {
	for i := 0; i < len(lines); {
		if lines[i].Op == OpEqual {
			i++
			continue
		}
		j := i
		for j < len(lines) && lines[j].Op != OpEqual {
			j++
		}
		slices.SortStableFunc(lines[i:j], func(x, y DiffLine) int {
			return cmp.Compare(x.Op, y.Op)
		})
		i = j
	}
}

// tokenRune maps a token index to a rune outside the surrogate range, so it
// survives the string round trip of the diff.
func tokenRune(i int) rune {
	if i >= surrogateMin {
		i += surrogateMax - surrogateMin + 1
	}
	return rune(i)
}

func runeToken(r rune) int {
	i := int(r)
	if i > surrogateMax {
		i -= surrogateMax - surrogateMin + 1
	}
	return i
}

const (
	surrogateMin = 0xD800
	surrogateMax = 0xDFFF
)

// Changed reports whether the edit script contains any insertion or deletion.
func Changed(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Op != OpEqual {
			return true
		}
	}
	return false
}

// WordDiff refines a changed line pair into space-separated word spans.
// The spans of the first result rebuild removed; those of the second rebuild
// added. OpEqual spans are words common to both lines.
func WordDiff(removed, added string) (del, ins []DiffLine) {
	for _, w := range diffTokens(strings.Split(removed, " "), strings.Split(added, " ")) {
		switch w.Op {
		case OpEqual:
			del = append(del, w)
			ins = append(ins, w)
		case OpDelete:
			del = append(del, w)
		case OpInsert:
			ins = append(ins, w)
		}
	}
	return del, ins
}
