package assertcli

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/tools/txtar"
)

// A CaseFile is a parsed case archive: a txtar archive whose comment section
// is a TOML document of [[case]] tables.
//
//	[[case]]
//	name = "greeting"
//	command = ["cat", "hello.txt"]
//
//	-- greeting.stdout --
//	hello world
//	-- hello.txt --
//	hello world
//
// Files named <case>.stdout and <case>.stderr hold multi-line "is"
// expectations, <case>.stdin holds the stdin payload. All other files are
// fixtures written to the work directory.
type CaseFile struct {
	Path     string
	Cases    []Case
	Fixtures []txtar.File
}

// Case is one declarative expectation.
type Case struct {
	Name       string            `toml:"name"`
	Command    []string          `toml:"command"`
	Dir        string            `toml:"dir"`
	Stdin      *string           `toml:"stdin"`
	InheritEnv *bool             `toml:"inherit_env"`
	Env        map[string]string `toml:"env"`
	Unset      []string          `toml:"unset"`
	Status     string            `toml:"status"`
	ExitCode   *int              `toml:"exit_code"`
	Stdout     StreamCase        `toml:"stdout"`
	Stderr     StreamCase        `toml:"stderr"`
}

// StreamCase lists the predicates of one stream.
type StreamCase struct {
	Is          *string  `toml:"is"`
	IsNot       []string `toml:"is_not"`
	Contains    []string `toml:"contains"`
	NotContains []string `toml:"not_contains"`
	Matches     []string `toml:"matches"`
	MatchesN    []Count  `toml:"matches_n"`
}

// Count is a pattern that must match an exact number of times.
//
//	matches_n = [{ pattern = "^warning:", count = 2 }]
type Count struct {
	Pattern string `toml:"pattern"`
	Count   int    `toml:"count"`
}

type caseHeader struct {
	Cases []Case `toml:"case"`
}

// ErrInvalidCase is wrapped by every case archive validation error.
var ErrInvalidCase = errors.New("invalid case")

// LoadCaseFile reads and parses the case archive at path.
func LoadCaseFile(path string) (*CaseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	cf, err := ParseCaseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cf.Path = path
	return cf, nil
}

// ParseCaseFile parses a case archive.
func ParseCaseFile(data []byte) (*CaseFile, error) {
	ar := txtar.Parse(data)

	var hdr caseHeader
	dec := toml.NewDecoder(bytes.NewReader(ar.Comment))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("parse case header: %w", err)
	}
	if len(hdr.Cases) == 0 {
		return nil, fmt.Errorf("%w: no [[case]] defined", ErrInvalidCase)
	}

	names := make(map[string]bool, len(hdr.Cases))
	for _, c := range hdr.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: case without name", ErrInvalidCase)
		}
		if strings.ContainsAny(c.Name, `/\`) {
			return nil, fmt.Errorf("%w: case name %q contains a path separator", ErrInvalidCase, c.Name)
		}
		if names[c.Name] {
			return nil, fmt.Errorf("%w: duplicate case name %q", ErrInvalidCase, c.Name)
		}
		names[c.Name] = true
		if len(c.Command) == 0 {
			return nil, fmt.Errorf("%w: case %q has no command", ErrInvalidCase, c.Name)
		}
	}

	cf := &CaseFile{Cases: hdr.Cases}
	for _, f := range ar.Files {
		base, ext, ok := cutExt(f.Name)
		if !ok || !names[base] {
			cf.Fixtures = append(cf.Fixtures, f)
			continue
		}
		i := slices.IndexFunc(cf.Cases, func(c Case) bool { return c.Name == base })
		c := &cf.Cases[i]
		text := string(f.Data)
		switch ext {
		case "stdout":
			if c.Stdout.Is != nil {
				return nil, fmt.Errorf("%w: case %q sets stdout.is twice", ErrInvalidCase, base)
			}
			c.Stdout.Is = &text
		case "stderr":
			if c.Stderr.Is != nil {
				return nil, fmt.Errorf("%w: case %q sets stderr.is twice", ErrInvalidCase, base)
			}
			c.Stderr.Is = &text
		case "stdin":
			if c.Stdin != nil {
				return nil, fmt.Errorf("%w: case %q sets stdin twice", ErrInvalidCase, base)
			}
			c.Stdin = &text
		}
	}
	return cf, nil
}

func cutExt(name string) (base, ext string, ok bool) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return "", "", false
	}
	switch ext = name[i+1:]; ext {
	case "stdout", "stderr", "stdin":
		return name[:i], ext, true
	}
	return "", "", false
}

// WriteFixtures extracts the fixture files of cf into dir.
func (cf *CaseFile) WriteFixtures(dir string) error {
	for _, f := range cf.Fixtures {
		name := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("%w: fixture %q escapes the work directory", ErrInvalidCase, f.Name)
		}
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
			return fmt.Errorf("create fixture dir: %w", err)
		}
		if err := os.WriteFile(path, f.Data, 0o666); err != nil {
			return fmt.Errorf("write fixture: %w", err)
		}
	}
	return nil
}

// Assert builds the expectation set of c. workdir is the default working
// directory and the value of $WORK; env is the base environment.
func (c Case) Assert(workdir string, env Environment) (Assert, error) {
	if inherit := c.InheritEnv; inherit != nil && !*inherit {
		env = env.WithoutInherited()
	}
	for _, k := range slices.Sorted(maps.Keys(c.Env)) {
		env = env.Insert(k, c.Env[k])
	}
	for _, k := range c.Unset {
		env = env.Remove(k)
	}

	expand := func(s string) string {
		return os.Expand(s, func(key string) string {
			if key == "WORK" {
				return workdir
			}
			v, _ := env.Lookup(key)
			return v
		})
	}

	args := make([]string, len(c.Command))
	for i, arg := range c.Command {
		args[i] = expand(arg)
	}

	dir := workdir
	if c.Dir != "" {
		dir = expand(c.Dir)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(workdir, dir)
		}
	}

	a := Command(args[0], args[1:]...).CurrentDir(dir).WithEnv(env)
	if c.Stdin != nil {
		a = a.StdinString(*c.Stdin)
	}

	a, err := c.applyStatus(a)
	if err != nil {
		return Assert{}, err
	}

	a = c.Stdout.apply(a, Stdout)
	a = c.Stderr.apply(a, Stderr)
	return a, nil
}

func (c Case) applyStatus(a Assert) (Assert, error) {
	switch c.Status {
	case "", "success":
		if c.ExitCode != nil && *c.ExitCode != 0 {
			if c.Status == "success" {
				return a, fmt.Errorf("%w: case %q expects success with exit code %d", ErrInvalidCase, c.Name, *c.ExitCode)
			}
			return a.FailsWith(*c.ExitCode), nil
		}
		return a.Succeeds(), nil
	case "failure":
		if c.ExitCode != nil {
			return a.FailsWith(*c.ExitCode), nil
		}
		return a.Fails(), nil
	case "any":
		return a.IgnoreStatus(), nil
	default:
		return a, fmt.Errorf("%w: case %q has unknown status %q", ErrInvalidCase, c.Name, c.Status)
	}
}

func (sc StreamCase) apply(a Assert, s Stream) Assert {
	o := func() OutputAssertion { return OutputAssertion{a: a, stream: s} }
	if sc.Is != nil {
		a = o().Is(*sc.Is)
	}
	for _, v := range sc.IsNot {
		a = o().IsNot(v)
	}
	for _, v := range sc.Contains {
		a = o().Contains(v)
	}
	for _, v := range sc.NotContains {
		a = o().DoesNotContain(v)
	}
	for _, v := range sc.Matches {
		a = o().Matches(v)
	}
	for _, v := range sc.MatchesN {
		a = o().MatchesN(v.Pattern, v.Count)
	}
	return a
}
