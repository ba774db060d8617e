// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"fmt"
	"slices"
	"sync"
)

const (
	// NotStarted means the registry has no record of the module.
	NotStarted ModuleState = iota
	// Executing means the module is registered and its body is running.
	Executing
	// Done means the module body completed.
	Done
	// ModuleFailed means the module body failed. The failure is permanent.
	ModuleFailed
)

type (
	// ModuleState is the per-module load state kept by the Registry.
	ModuleState int

	// Module is a loaded (or loading) unit.
	Module struct {
		// Name is the fully-qualified dotted module name.
		Name string
		// File is the unit file the module was loaded from.
		File string
		// Package is set for modules that may contain submodules.
		Package bool
		// Namespace holds the module globals.
		Namespace *Namespace
	}

	// Registry maps fully-qualified module names to their load state.
	// At most one load per name is in flight at any time.
	Registry struct {
		mu      sync.Mutex
		entries map[string]*entry
		order   []string
		// waits records the entry each thread is blocked on. Used to detect
		// waits that would close a cycle between threads.
		waits map[*thread]*entry
	}

	entry struct {
		name   string
		module *Module
		state  ModuleState
		err    error
		owner  *thread
		done   chan struct{}
	}
)

// String returns the state name.
func (s ModuleState) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Executing:
		return "executing"
	case Done:
		return "done"
	case ModuleFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// String renders the module the way it prints in units.
func (m *Module) String() string {
	if m.File == "" {
		return fmt.Sprintf("<module '%s'>", m.Name)
	}
	return fmt.Sprintf("<module '%s' from '%s'>", m.Name, m.File)
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		waits:   make(map[*thread]*entry),
	}
}

// State returns the load state of name.
func (r *Registry) State(name string) ModuleState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[name]; ok {
		return e.state
	}
	return NotStarted
}

// Module returns the module object for name. Executing modules are returned
// partially initialised; failed modules are not returned.
func (r *Registry) Module(name string) (*Module, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.module == nil || e.state == ModuleFailed {
		return nil, false
	}
	return e.module, true
}

// Err returns the recorded failure of name, or nil.
func (r *Registry) Err(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[name]; ok {
		return e.err
	}
	return nil
}

// Names returns the names of completed and failed modules in completion order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.order)
}

// Len returns the number of registered modules, including in-flight loads.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// closesCycle reports whether th waiting on e would close a cycle of threads
// each waiting for a module owned by the next. Must be called with r.mu held.
func (r *Registry) closesCycle(th *thread, e *entry) bool {
	owner := e.owner
	for range len(r.waits) + 1 {
		if owner == nil {
			return false
		}
		if owner == th {
			return true
		}
		next, ok := r.waits[owner]
		if !ok {
			return false
		}
		owner = next.owner
	}
	return false
}
