package assertcli

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	toml "github.com/pelletier/go-toml/v2"
)

// SuiteConfigFile is the name of the optional per-directory configuration.
const SuiteConfigFile = "assertcli.toml"

// SuiteConfig holds convention-based configuration for a directory of case
// archives.
//
//	bin = "tools"          # prepended to PATH, defaults to ./bin if present
//	inherit_env = true     # start from the caller's environment
//
//	[env]
//	LANG = "C"
type SuiteConfig struct {
	BinDir     string            `toml:"bin"`
	InheritEnv *bool             `toml:"inherit_env"`
	Env        map[string]string `toml:"env"`
}

// LoadSuiteConfig loads the configuration of dir. It reads assertcli.toml
// if present, then auto-detects a bin/ directory when none was configured.
// BinDir is absolute in the returned config.
func LoadSuiteConfig(dir string) (*SuiteConfig, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve dir: %w", err)
	}

	cfg := &SuiteConfig{}
	data, err := os.ReadFile(filepath.Join(absDir, SuiteConfigFile))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", SuiteConfigFile, err)
		}
		if cfg.BinDir != "" {
			cfg.BinDir = filepath.Join(absDir, cfg.BinDir)
			if !isDir(cfg.BinDir) {
				return nil, fmt.Errorf("%s: bin directory %q not found", SuiteConfigFile, cfg.BinDir)
			}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", SuiteConfigFile, err)
	}

	if cfg.BinDir == "" {
		if candidate := filepath.Join(absDir, "bin"); isDir(candidate) {
			cfg.BinDir = candidate
		}
	}
	return cfg, nil
}

// Environment returns the base environment for cases of the suite: the
// configured variables, with BinDir prepended to PATH.
func (cfg *SuiteConfig) Environment() Environment {
	env := InheritEnv()
	if cfg.InheritEnv != nil && !*cfg.InheritEnv {
		env = EmptyEnv()
	}
	for _, k := range slices.Sorted(maps.Keys(cfg.Env)) {
		env = env.Insert(k, cfg.Env[k])
	}
	if cfg.BinDir != "" {
		path := cfg.BinDir
		if cur, ok := env.Lookup("PATH"); ok && cur != "" {
			path += string(os.PathListSeparator) + cur
		} else if cur := os.Getenv("PATH"); cur != "" {
			path += string(os.PathListSeparator) + cur
		}
		env = env.Insert("PATH", path)
	}
	return env
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
