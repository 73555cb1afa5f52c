/*
Package assertcli provides fluent assertions about running a command: its
exit status, standard output and standard error.

An Assert is built with chained calls and run by a terminal call:

	func TestEcho(t *testing.T) {
		assertcli.Command("echo", "42").
			Stdout().Is("42").
			Unwrap(t)
	}

Building never runs anything. Execute runs the command once, checks every
expectation and returns an error describing all of them together;
Unwrap does the same and stops the test on failure. Each terminal call runs
the command again.

# Exit status

A command is expected to succeed unless told otherwise:

	assertcli.Command("ls", "foo-bar-foo").
		Fails().
		And().
		Stderr().Contains("foo-bar-foo").
		Unwrap(t)

Succeeds, Fails, FailsWith and IgnoreStatus select the expectation.
Declaring two different ones on the same Assert is an error reported by the
terminal call (ErrConflictingStatus); FailsWith may refine Fails.

# Output predicates

Stdout and Stderr return an OutputAssertion with:

	Is(text)              exact match, ignoring one trailing newline
	IsNot(text)           negation of Is
	Contains(text)        substring
	DoesNotContain(text)  negation of Contains
	Matches(pattern)      regular expression, at least one match
	MatchesN(pattern, n)  regular expression, exactly n matches
	Satisfies(fn, msg)    custom check

# Failures

A failed Execute returns an *AssertionError. Its Violations are, in order, an
exit mismatch (if any) followed by one violation per failed predicate.
Exact-match failures carry a line diff:

	CLI assertion failed: `wc README.md` (1 violation)

	stdout mismatch:
	-1337 README.md
	+92 README.md

Use errors.As to inspect individual violations, and Format with Style{Color:
true} for terminal output.

# Environment

Commands inherit the current environment by default. WithEnv replaces it,
SetEnv and UnsetEnv adjust it:

	env := assertcli.EmptyEnv().Insert("FOO", "BAR")
	assertcli.Command("printenv").WithEnv(env).Stdout().Is("FOO=BAR").Unwrap(t)

# Go binaries

GoBinary builds a main package of the module under test and starts an Assert
for it:

	assertcli.GoBinary(t, "./cmd/tool", "--help").
		Stderr().Contains("USAGE").
		Unwrap(t)

# Case archives

Run executes declarative cases stored in txtar archives whose comment
section is TOML:

	[[case]]
	name = "cat"
	command = ["cat", "input.txt"]

	-- cat.stdout --
	hello
	-- input.txt --
	hello

Each archive gets a fresh work directory holding its fixture files. An
assertcli.toml next to the archives may name a bin directory, prepended to
PATH, and default environment variables.

The assertcli command runs the same archives from a shell:

	assertcli testdata/
	assertcli --color -c testdata/example.txtar
*/
package assertcli
