// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type (
	// ImportName is one name of a from-import, optionally aliased.
	ImportName struct {
		Name  string
		Alias string
	}

	// ImportSpec is an import statement.
	//
	//	import a.b            -> {Module: "a.b"}
	//	import a.b as x       -> {Module: "a.b", Alias: "x"}
	//	from a.b import x, y  -> {Module: "a.b", Names: [{x} {y}]}
	//	from a.b import *     -> {Module: "a.b", Wildcard: true}
	ImportSpec struct {
		Module   string
		Alias    string
		Names    []ImportName
		Wildcard bool
		Site     Site
	}

	// Runtime bundles the registry, engine, classifier and override registry of
	// one module system. Executors use it to run import statements.
	Runtime struct {
		engine     *Engine
		registry   *Registry
		classifier *Classifier
		overrides  *EagerOverrides
		logger     *slog.Logger
	}
)

// Bound returns the local name the import name is stored under.
func (n ImportName) Bound() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// Kind returns the statement shape.
func (s ImportSpec) Kind() StatementKind {
	switch {
	case s.Wildcard:
		return StmtWildcard
	case len(s.Names) > 0:
		return StmtFromImport
	default:
		return StmtImport
	}
}

// String renders the statement.
func (s ImportSpec) String() string {
	switch s.Kind() {
	case StmtWildcard:
		return fmt.Sprintf("from %s import *", s.Module)
	case StmtFromImport:
		parts := make([]string, 0, len(s.Names))
		for _, n := range s.Names {
			if n.Alias != "" && n.Alias != n.Name {
				parts = append(parts, n.Name+" as "+n.Alias)
			} else {
				parts = append(parts, n.Name)
			}
		}
		return fmt.Sprintf("from %s import %s", s.Module, strings.Join(parts, ", "))
	default:
		if s.Alias != "" {
			return fmt.Sprintf("import %s as %s", s.Module, s.Alias)
		}
		return "import " + s.Module
	}
}

// Validate checks the statement is well formed.
func (s ImportSpec) Validate() error {
	if err := validateModuleName(s.Module); err != nil {
		return err
	}
	if s.Wildcard && (len(s.Names) > 0 || s.Alias != "") {
		return fmt.Errorf("%w: wildcard import cannot list names", ErrInvalidImport)
	}
	if len(s.Names) > 0 && s.Alias != "" {
		return fmt.Errorf("%w: from-import cannot alias the module", ErrInvalidImport)
	}
	if s.Alias != "" && !isIdentifier(s.Alias) {
		return fmt.Errorf("%w: '%s' is not a valid name", ErrInvalidImport, s.Alias)
	}
	for _, n := range s.Names {
		if !isIdentifier(n.Name) || (n.Alias != "" && !isIdentifier(n.Alias)) {
			return fmt.Errorf("%w: '%s' is not a valid import name", ErrInvalidImport, n.Name)
		}
	}
	return nil
}

// New creates a runtime loading modules through finder and running them with exec.
func New(finder Finder, exec Executor, opts ...Option) (*Runtime, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}

	overrides := NewEagerOverrides()
	if len(o.eagerModules) > 0 {
		if err := overrides.AddNames(o.eagerModules...); err != nil {
			return nil, err
		}
	}

	rt := &Runtime{
		registry:   o.registry,
		classifier: NewClassifier(o.enabled, overrides),
		overrides:  overrides,
		logger:     o.logger,
	}
	rt.engine = &Engine{
		rt:       rt,
		finder:   finder,
		exec:     exec,
		registry: o.registry,
		logger:   o.logger,
		profiler: o.profiler,
		clock:    o.clock,
	}
	return rt, nil
}

// Enabled reports whether lazy imports are enabled.
func (rt *Runtime) Enabled() bool { return rt.classifier.Enabled() }

// Registry returns the module registry.
func (rt *Runtime) Registry() *Registry { return rt.registry }

// Engine returns the resolution engine.
func (rt *Runtime) Engine() *Engine { return rt.engine }

// Classifier returns the import classifier.
func (rt *Runtime) Classifier() *Classifier { return rt.classifier }

// Overrides returns the eager override registry.
func (rt *Runtime) Overrides() *EagerOverrides { return rt.overrides }

// Logger returns the runtime logger.
func (rt *Runtime) Logger() *slog.Logger { return rt.logger }

// NewNamespace creates a namespace whose deferred entries resolve through this runtime.
func (rt *Runtime) NewNamespace(name string) *Namespace {
	return NewNamespace(name, rt.engine)
}

// Import loads name eagerly and returns its module.
func (rt *Runtime) Import(ctx context.Context, name string) (*Module, error) {
	return rt.engine.Import(ctx, name)
}

// ImportModule is the dynamic import by name. It is always eager.
func (rt *Runtime) ImportModule(ctx context.Context, name string) (*Module, error) {
	return rt.engine.Import(ctx, name)
}

// SetEagerImports registers modules whose imports stay eager. v is a module name
// or pattern, a []string of them, or a func(string) bool predicate.
func (rt *Runtime) SetEagerImports(v any) error {
	switch x := v.(type) {
	case string:
		return rt.overrides.AddNames(x)
	case []string:
		return rt.overrides.AddNames(x...)
	case []any:
		names := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("%w: eager module entry %v is not a string", ErrInvalidImport, item)
			}
			names = append(names, s)
		}
		return rt.overrides.AddNames(names...)
	case func(string) bool:
		rt.overrides.AddPredicate(x)
		return nil
	default:
		return fmt.Errorf("%w: unsupported eager imports value %T", ErrInvalidImport, v)
	}
}

// ExecImport executes an import statement into ns. The statement is classified
// first: a lazy statement stores one deferred binding per bound name, an eager
// one imports and binds immediately. It returns the mode used.
func (rt *Runtime) ExecImport(ctx context.Context, ns *Namespace, spec ImportSpec, sc StatementContext) (Mode, error) {
	if err := spec.Validate(); err != nil {
		return Eager, err
	}
	sc.Kind = spec.Kind()
	if InEagerImports(ctx) {
		sc.EagerScope = true
	}

	mode, reason := rt.classifier.Classify(sc)
	if mode == Lazy {
		rt.deferImport(ctx, ns, spec)
		return Lazy, nil
	}

	rt.logger.DebugContext(ctx, "import eager",
		slog.String("statement", spec.String()),
		slog.String("site", spec.Site.String()),
		slog.String("reason", reason.String()))
	return Eager, rt.eagerImport(ctx, ns, spec)
}

func (rt *Runtime) deferImport(ctx context.Context, ns *Namespace, spec ImportSpec) {
	var bound []string
	text := spec.String()
	switch spec.Kind() {
	case StmtFromImport:
		for _, n := range spec.Names {
			ns.Set(n.Bound(), &DeferredBinding{
				Module:  spec.Module,
				Name:    n.Name,
				Kind:    BindFrom,
				BoundAs: n.Bound(),
				Site:    spec.Site,
				Text:    text,
			})
			bound = append(bound, n.Bound())
		}
	default:
		b := &DeferredBinding{Module: spec.Module, Kind: BindModule, Site: spec.Site, Text: text}
		if spec.Alias != "" {
			b.Leaf = true
			b.BoundAs = spec.Alias
		} else {
			b.BoundAs = topName(spec.Module)
			b.Also = rt.mergedSubmodules(ns, b)
		}
		ns.Set(b.BoundAs, b)
		bound = append(bound, b.BoundAs)
	}

	rt.logger.DebugContext(ctx, "import deferred",
		slog.String("target", spec.Module),
		slog.Any("bound", bound),
		slog.String("site", spec.Site.String()))
}

// mergedSubmodules carries over the submodules of an earlier deferred
// `import a.x` that bound the same top-level name as b.
func (rt *Runtime) mergedSubmodules(ns *Namespace, b *DeferredBinding) []string {
	prev := ns.deferredBinding(b.BoundAs)
	if prev == nil || prev.Kind != BindModule || prev.Leaf {
		return nil
	}
	also := append([]string(nil), prev.Also...)
	if prev.Module != b.Module && prev.Module != b.BoundAs {
		also = append(also, prev.Module)
	}
	return also
}

func (rt *Runtime) eagerImport(ctx context.Context, ns *Namespace, spec ImportSpec) error {
	e := rt.engine
	switch spec.Kind() {
	case StmtImport:
		chain, err := e.importChain(ctx, spec.Module)
		if err != nil {
			return err
		}
		if spec.Alias != "" {
			ns.Set(spec.Alias, chain[len(chain)-1])
		} else {
			ns.Set(topName(spec.Module), chain[0])
		}
		return nil

	case StmtFromImport:
		mod, err := e.Import(ctx, spec.Module)
		if err != nil {
			return err
		}
		for _, n := range spec.Names {
			v, err := e.attr(ctx, mod, n.Name)
			if err != nil {
				return err
			}
			ns.Set(n.Bound(), v)
		}
		return nil

	default:
		mod, err := e.Import(ctx, spec.Module)
		if err != nil {
			return err
		}
		return rt.importAll(ctx, ns, mod)
	}
}

// importAll binds the public names of mod: its __all__ list when defined,
// otherwise every name not starting with an underscore.
func (rt *Runtime) importAll(ctx context.Context, ns *Namespace, mod *Module) error {
	all, ok, err := mod.Namespace.Lookup(ctx, "__all__")
	if err != nil {
		return err
	}
	if ok {
		names, err := stringList(all)
		if err != nil {
			return fmt.Errorf("module '%s': __all__: %w", mod.Name, err)
		}
		for _, name := range names {
			v, err := rt.engine.attr(ctx, mod, name)
			if err != nil {
				return err
			}
			ns.Set(name, v)
		}
		return nil
	}

	items, err := mod.Namespace.Items(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		if strings.HasPrefix(it.Key, "_") {
			continue
		}
		ns.Set(it.Key, it.Value)
	}
	return nil
}

func stringList(v Value) ([]string, error) {
	switch x := v.(type) {
	case []string:
		return x, nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("entry %v is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of names, got %T", v)
	}
}
