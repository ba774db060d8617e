// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"fmt"
	"strings"
	"sync"
)

const (
	// BindModule binds the module itself (`import a.b`, `import a.b as x`).
	BindModule BindingKind = iota
	// BindFrom binds one attribute of the module (`from a.b import x`).
	BindFrom
)

const (
	// Unresolved is the initial state of a binding.
	Unresolved ResolutionState = iota
	// Resolving means a resolution is in flight.
	Resolving
	// Resolved means the binding produced a value; it is no longer referenced.
	Resolved
	// Failed means resolution failed and the cause is cached.
	Failed
)

type (
	// BindingKind distinguishes whole-module bindings from from-import bindings.
	BindingKind int

	// ResolutionState is the lifecycle state of a DeferredBinding.
	// Transitions are monotonic: Unresolved -> Resolving -> Resolved | Failed.
	ResolutionState int

	// Site is a source location of a unit statement.
	Site struct {
		// File is the unit file the statement belongs to.
		File string
		// Line is the 1-based line of the statement. Zero when unknown.
		Line int
	}

	// DeferredBinding stands in for one name bound by a lazy import statement.
	// Values of this type live only inside a Namespace.
	DeferredBinding struct {
		// Module is the dotted path of the target module.
		Module string
		// Name is the attribute to bind for BindFrom bindings.
		Name string
		// Kind selects whole-module or attribute binding.
		Kind BindingKind
		// Leaf binds the target module itself rather than its top-level package.
		// Set for aliased whole-module imports (`import a.b as x`).
		Leaf bool
		// Also lists further submodules that must be imported on resolution.
		// They come from earlier `import a.x` statements that bound the same name.
		Also []string
		// BoundAs is the local name the binding is stored under.
		BoundAs string
		// Site is the location of the import statement.
		Site Site
		// Text is the import statement as written. Statement derives it when empty.
		Text string

		mu    sync.Mutex
		state ResolutionState
		// claimed is set while an owner is resolving.
		claimed bool
		value   Value
		err     error
	}
)

// String returns the kind name.
func (k BindingKind) String() string {
	switch k {
	case BindModule:
		return "module"
	case BindFrom:
		return "from"
	default:
		return "unknown"
	}
}

// String returns the state name.
func (s ResolutionState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// String formats the site as file:line.
func (s Site) String() string {
	if s.File == "" {
		return "<unknown>"
	}
	if s.Line <= 0 {
		return s.File
	}
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

// IsZero reports whether the site carries no location.
func (s Site) IsZero() bool {
	return s.File == "" && s.Line == 0
}

// Path returns the identifier sequence the binding refers to: the module path,
// followed by the attribute name for from-imports.
func (b *DeferredBinding) Path() []string {
	path := strings.Split(b.Module, ".")
	if b.Kind == BindFrom {
		path = append(path, b.Name)
	}
	return path
}

// Statement renders the import statement that created the binding.
func (b *DeferredBinding) Statement() string {
	if b.Text != "" {
		return b.Text
	}
	switch b.Kind {
	case BindFrom:
		if b.BoundAs != "" && b.BoundAs != b.Name {
			return fmt.Sprintf("from %s import %s as %s", b.Module, b.Name, b.BoundAs)
		}
		return fmt.Sprintf("from %s import %s", b.Module, b.Name)
	default:
		if b.Leaf {
			return fmt.Sprintf("import %s as %s", b.Module, b.BoundAs)
		}
		return "import " + b.Module
	}
}

// String describes the binding together with its import site.
func (b *DeferredBinding) String() string {
	return fmt.Sprintf("%s (%s)", b.Statement(), b.Site)
}

// State returns the current resolution state.
func (b *DeferredBinding) State() ResolutionState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the cached failure cause, or nil.
func (b *DeferredBinding) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// begin claims the binding for resolution. owner is true for the caller that
// moved it from Unresolved to Resolving, or that claimed it after a release;
// only the owner may call finish or release.
// done reports a Resolved binding and v holds its value. cached is the recorded
// failure when the binding already Failed.
func (b *DeferredBinding) begin() (owner, done bool, v Value, cached error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Unresolved:
		b.state = Resolving
		b.claimed = true
		return true, false, nil, nil
	case Resolved:
		return false, true, b.value, nil
	case Failed:
		return false, false, nil, b.err
	default:
		if !b.claimed {
			b.claimed = true
			return true, false, nil, nil
		}
		return false, false, nil, nil
	}
}

// release gives up ownership without recording an outcome. The binding stays
// Resolving and the next begin claims it.
func (b *DeferredBinding) release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Resolving {
		b.claimed = false
	}
}

// finish records the outcome. Terminal states are never left.
func (b *DeferredBinding) finish(v Value, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Resolved || b.state == Failed {
		return
	}
	b.claimed = false
	if err != nil {
		b.state = Failed
		b.err = err
		return
	}
	b.state = Resolved
	b.value = v
}

// topName returns the first component of a dotted module path.
func topName(module string) string {
	if i := strings.IndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return module
}
