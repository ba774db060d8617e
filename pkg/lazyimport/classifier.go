// SPDX-License-Identifier: MPL-2.0

package lazyimport

const (
	// Eager resolves the import at the statement.
	Eager Mode = iota
	// Lazy stores deferred bindings and resolves on first read.
	Lazy
)

const (
	// ReasonLazy is reported for statements eligible for deferral.
	ReasonLazy Reason = iota
	// ReasonDisabled means the lazy import mechanism is off.
	ReasonDisabled
	// ReasonWildcard means the statement imports every public name.
	ReasonWildcard
	// ReasonHandler means the statement sits inside an exception handler or a
	// resource-scoped block.
	ReasonHandler
	// ReasonEagerScope means the statement runs inside an eager-imports scope.
	ReasonEagerScope
	// ReasonNotTopLevel means the statement sits in a function or class body.
	ReasonNotTopLevel
	// ReasonDynamic means the import is a dynamic import by name.
	ReasonDynamic
	// ReasonOverride means the enclosing module is registered as eager.
	ReasonOverride
)

const (
	// StmtImport is `import a.b [as c]`.
	StmtImport StatementKind = iota
	// StmtFromImport is `from a.b import x, y`.
	StmtFromImport
	// StmtWildcard is `from a.b import *`.
	StmtWildcard
	// StmtDynamic is an import by name at runtime.
	StmtDynamic
)

type (
	// Mode is the classification outcome of an import statement.
	Mode int

	// Reason explains a classification.
	Reason int

	// StatementKind is the syntactic shape of an import.
	StatementKind int

	// StatementContext is the syntactic context of an import statement.
	StatementContext struct {
		// Module is the fully-qualified name of the enclosing module.
		Module string
		// Kind is the statement shape.
		Kind StatementKind
		// InHandler is set inside try/except and with blocks.
		InHandler bool
		// EagerScope is set inside an eager-imports scope.
		EagerScope bool
		// TopLevel is set when the statement is in the module body itself.
		TopLevel bool
	}

	// Classifier decides whether an import statement is lazy or eager.
	Classifier struct {
		enabled   bool
		overrides *EagerOverrides
	}
)

// String returns the mode name.
func (m Mode) String() string {
	if m == Lazy {
		return "lazy"
	}
	return "eager"
}

// String returns a short explanation.
func (r Reason) String() string {
	switch r {
	case ReasonLazy:
		return "deferred until first use"
	case ReasonDisabled:
		return "lazy imports disabled"
	case ReasonWildcard:
		return "wildcard import"
	case ReasonHandler:
		return "inside exception handler or with block"
	case ReasonEagerScope:
		return "inside eager imports scope"
	case ReasonNotTopLevel:
		return "not at module top level"
	case ReasonDynamic:
		return "dynamic import"
	case ReasonOverride:
		return "module registered as eager"
	default:
		return "unknown"
	}
}

// NewClassifier creates a classifier. overrides may be nil.
func NewClassifier(enabled bool, overrides *EagerOverrides) *Classifier {
	return &Classifier{enabled: enabled, overrides: overrides}
}

// Enabled reports whether lazy imports are enabled.
func (c *Classifier) Enabled() bool { return c.enabled }

// Classify applies the classification rules in priority order. The override
// registry is consulted on every call, so registrations affect later statements
// of modules that are already executing.
func (c *Classifier) Classify(sc StatementContext) (Mode, Reason) {
	switch {
	case !c.enabled:
		return Eager, ReasonDisabled
	case sc.Kind == StmtWildcard:
		return Eager, ReasonWildcard
	case sc.InHandler:
		return Eager, ReasonHandler
	case sc.EagerScope:
		return Eager, ReasonEagerScope
	case !sc.TopLevel:
		return Eager, ReasonNotTopLevel
	case sc.Kind == StmtDynamic:
		return Eager, ReasonDynamic
	case c.overrides != nil && c.overrides.Matches(sc.Module):
		return Eager, ReasonOverride
	default:
		return Lazy, ReasonLazy
	}
}
