package assertcli

import (
	"os"
	"slices"
	"strings"
)

// An Environment describes the variables a command runs with: an optional
// inherited base (the current process environment) plus an ordered overlay
// of set and unset entries. The zero value is an empty environment.
//
// Environment is a value type. Insert and Remove return a modified copy and
// never change the receiver.
type Environment struct {
	inherit bool
	entries []envEntry
}

type envEntry struct {
	key   string
	value string
	unset bool
}

// InheritEnv returns an Environment based on the current process environment.
func InheritEnv() Environment {
	return Environment{inherit: true}
}

// EmptyEnv returns an Environment with no variables.
func EmptyEnv() Environment {
	return Environment{}
}

// Insert returns a copy of e with key set to value.
func (e Environment) Insert(key, value string) Environment {
	e.entries = append(slices.Clip(e.entries), envEntry{key: key, value: value})
	return e
}

// Remove returns a copy of e with key unset, including when it would
// otherwise be inherited.
func (e Environment) Remove(key string) Environment {
	e.entries = append(slices.Clip(e.entries), envEntry{key: key, unset: true})
	return e
}

// WithoutInherited returns a copy of e that keeps its overlay entries but
// no longer starts from the current process environment.
func (e Environment) WithoutInherited() Environment {
	e.inherit = false
	return e
}

// Inherits reports whether e starts from the current process environment.
func (e Environment) Inherits() bool {
	return e.inherit
}

// Lookup returns the value key would have in the compiled environment.
func (e Environment) Lookup(key string) (string, bool) {
	for i := len(e.entries) - 1; i >= 0; i-- {
		if ent := e.entries[i]; ent.key == key {
			if ent.unset {
				return "", false
			}
			return ent.value, true
		}
	}
	if e.inherit {
		return os.LookupEnv(key)
	}
	return "", false
}

// Compile resolves e into "key=value" pairs suitable for exec.Cmd.Env.
// Base variables keep their original order; overlay variables that are not
// part of the base are appended in first-insertion order.
func (e Environment) Compile() []string {
	var base []string
	if e.inherit {
		base = os.Environ()
	}

	values := make(map[string]string)
	var order []string
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, seen := values[k]; !seen {
			order = append(order, k)
		}
		values[k] = v
	}

	for _, ent := range e.entries {
		if ent.unset {
			delete(values, ent.key)
			continue
		}
		if _, seen := values[ent.key]; !seen && !slices.Contains(order, ent.key) {
			order = append(order, ent.key)
		}
		values[ent.key] = ent.value
	}

	env := make([]string, 0, len(values))
	for _, k := range order {
		if v, ok := values[k]; ok {
			env = append(env, k+"="+v)
		}
	}
	return env
}
