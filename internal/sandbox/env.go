package sandbox

import "sync"

// envOverlay is the process-wide environment exposed to sandboxed code as
// process.env. It is the only mutable state shared across executions besides
// the module registry, and only these accessors mutate it.
type envOverlay struct {
	mu   sync.RWMutex
	vars map[string]string
}

var processEnv = &envOverlay{vars: map[string]string{}}

// SetEnvironmentVariables merges vars into the overlay. Existing keys are
// overwritten; keys absent from vars are left untouched.
func SetEnvironmentVariables(vars map[string]string) {
	processEnv.mu.Lock()
	defer processEnv.mu.Unlock()
	for k, v := range vars {
		processEnv.vars[k] = v
	}
}

// EnvironmentSnapshot returns a copy of the overlay for injection into a
// fresh context. Mutating the copy does not affect the overlay.
func EnvironmentSnapshot() map[string]string {
	processEnv.mu.RLock()
	defer processEnv.mu.RUnlock()
	out := make(map[string]string, len(processEnv.vars))
	for k, v := range processEnv.vars {
		out[k] = v
	}
	return out
}

// ResetEnvironment clears the overlay. Intended for tests.
func ResetEnvironment() {
	processEnv.mu.Lock()
	defer processEnv.mu.Unlock()
	processEnv.vars = map[string]string{}
}
