package assertcli

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// T is the interface common to *testing.T and standalone runners.
type T interface {
	Skip(args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Log(args ...any)
	Logf(format string, args ...any)
	Failed() bool
	Helper()
}

// CaseFileExt is the extension of case archives.
const CaseFileExt = ".txtar"

// Params holds parameters for a call to Run.
type Params struct {
	// Dir is the directory holding the case archives. All files in the
	// directory with a .txtar extension are run. An assertcli.toml in Dir
	// configures the suite.
	Dir string

	// TestWork specifies that work directories should be retained for
	// inspection after the cases complete.
	TestWork bool

	// WorkdirRoot specifies the directory within which work directories
	// are created. Setting WorkdirRoot implies TestWork=true.
	// If empty, work directories are created inside $TMPDIR.
	WorkdirRoot string

	// Setup is called, if non-nil, after the work directory of an archive
	// has been populated and before its first case runs.
	Setup func(*Env) error

	// ContinueOnError causes standalone runs to continue with later
	// archives after a failure.
	ContinueOnError bool

	// Style controls how failures are rendered.
	Style Style
}

// An Env holds the work directory and base environment of one archive.
type Env struct {
	WorkDir string
	Vars    Environment
}

// Getenv retrieves the value of the environment variable named by the key.
func (e *Env) Getenv(key string) string {
	v, _ := e.Vars.Lookup(key)
	return v
}

// Setenv sets the value of the environment variable named by the key.
func (e *Env) Setenv(key, value string) {
	e.Vars = e.Vars.Insert(key, value)
}

// Run runs every case archive in p.Dir, one subtest per archive and one
// nested subtest per case.
func Run(t *testing.T, p Params) {
	t.Helper()
	files := globCaseFiles(t, p.Dir)
	cfg, err := LoadSuiteConfig(p.Dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, file := range files {
		t.Run(archiveName(file), func(t *testing.T) {
			ar := loadArchive(t, p, cfg, file)
			if ar == nil {
				return
			}
			defer ar.finalize()
			for _, c := range ar.file.Cases {
				t.Run(c.Name, func(t *testing.T) {
					ar.runCase(t, c)
				})
			}
		})
	}
}

// RunStandalone runs every case archive in p.Dir without the testing
// package, logging RUN/PASS/FAIL lines to t.
func RunStandalone(t T, p Params) {
	RunFilesStandalone(t, p, globCaseFiles(t, p.Dir)...)
}

// RunFilesStandalone runs the given case archives. p.Dir locates the suite
// configuration.
func RunFilesStandalone(t T, p Params, filenames ...string) {
	if len(filenames) == 0 {
		return
	}
	dir := p.Dir
	if dir == "" {
		dir = filepath.Dir(filenames[0])
	}
	cfg, err := LoadSuiteConfig(dir)
	if err != nil {
		t.Fatal(err)
		return
	}

	for _, file := range filenames {
		name := archiveName(file)
		func() {
			ar := loadArchive(t, p, cfg, file)
			if ar == nil {
				return
			}
			defer ar.finalize()
			for _, c := range ar.file.Cases {
				rec := &caseRecorder{T: t}
				t.Logf("=== RUN   %s/%s", name, c.Name)
				ar.runCase(rec, c)
				if rec.failed {
					t.Logf("--- FAIL: %s/%s", name, c.Name)
					if !p.ContinueOnError {
						return
					}
				} else {
					t.Logf("--- PASS: %s/%s", name, c.Name)
				}
			}
		}()
		if t.Failed() && !p.ContinueOnError {
			return
		}
	}
}

// caseRecorder tracks whether a single case failed. Standalone reporters
// accumulate failures across cases, so T.Failed alone cannot tell.
type caseRecorder struct {
	T
	failed bool
}

func (r *caseRecorder) Fatal(args ...any) {
	r.failed = true
	r.T.Fatal(args...)
}

func (r *caseRecorder) Fatalf(format string, args ...any) {
	r.failed = true
	r.T.Fatalf(format, args...)
}

func globCaseFiles(t T, dir string) []string {
	files, err := filepath.Glob(filepath.Join(dir, "*"+CaseFileExt))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no case archives found in " + dir)
	}
	return files
}

func archiveName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), CaseFileExt)
}

// archive is a loaded case archive with its prepared work directory.
type archive struct {
	t       T
	params  Params
	file    *CaseFile
	workdir string
	env     Environment
}

// loadArchive parses file and prepares its work directory. It returns nil
// after reporting a failure to t.
func loadArchive(t T, p Params, cfg *SuiteConfig, file string) *archive {
	cf, err := LoadCaseFile(file)
	if err != nil {
		t.Fatal(err)
		return nil
	}

	root := os.TempDir()
	if p.WorkdirRoot != "" {
		root = p.WorkdirRoot
		p.TestWork = true
		if err := os.MkdirAll(root, 0o755); err != nil {
			t.Fatal(err)
			return nil
		}
	}
	workdir, err := os.MkdirTemp(root, "assertcli-*")
	if err != nil {
		t.Fatal(err)
		return nil
	}
	ar := &archive{t: t, params: p, file: cf, workdir: workdir}

	if err := cf.WriteFixtures(workdir); err != nil {
		ar.finalize()
		t.Fatal(err)
		return nil
	}

	env := &Env{WorkDir: workdir, Vars: cfg.Environment().Insert("WORK", workdir)}
	if p.Setup != nil {
		if err := p.Setup(env); err != nil {
			ar.finalize()
			t.Fatalf("setup failed: %v", err)
			return nil
		}
	}
	ar.env = env.Vars
	return ar
}

func (ar *archive) runCase(t T, c Case) {
	t.Helper()
	a, err := c.Assert(ar.workdir, ar.env)
	if err != nil {
		t.Fatal(err)
		return
	}

	t.Logf("> %s", quoteCommand(a.Invocation().CommandLine()))
	err = a.Execute()
	if err == nil {
		return
	}
	var ae *AssertionError
	if errors.As(err, &ae) {
		t.Fatal(ae.String(ar.params.Style))
		return
	}
	t.Fatal(fmt.Sprintf("%s: %v", c.Name, err))
}

// finalize removes the work directory unless it was asked to be kept.
func (ar *archive) finalize() {
	if !ar.params.TestWork {
		if err := os.RemoveAll(ar.workdir); err != nil {
			log.Printf("warning: remove work directory: %v", err)
		}
	} else {
		ar.t.Logf("work directory: %s", ar.workdir)
	}
}
