// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

type (
	// Source is a located, not yet executed module.
	Source struct {
		// Name is the fully-qualified module name.
		Name string
		// File is the path of the unit file.
		File string
		// Package is set when the unit is a package initialiser.
		Package bool
		// Data is the raw unit content.
		Data []byte
	}

	// Finder locates module sources by fully-qualified name. It returns an error
	// matching ErrModuleNotFound when the module does not exist.
	Finder interface {
		Find(ctx context.Context, name string) (*Source, error)
	}

	// Executor runs a module body against its namespace.
	Executor interface {
		Exec(ctx context.Context, rt *Runtime, mod *Module, src *Source) error
	}

	// Engine loads modules through the registry and resolves deferred bindings.
	Engine struct {
		rt       *Runtime
		finder   Finder
		exec     Executor
		registry *Registry
		logger   *slog.Logger
		profiler Profiler
		clock    Clock
	}
)

// Import loads the module name and every parent package, returning the module
// for name. A module already loaded or executing is not executed again.
func (e *Engine) Import(ctx context.Context, name string) (*Module, error) {
	chain, err := e.importChain(ctx, name)
	if err != nil {
		return nil, err
	}
	return chain[len(chain)-1], nil
}

// Resolve materialises b. The first caller performs the import and records the
// outcome on b; a failed binding re-raises its cached failure on every call.
// Failures are returned as *DeferredImportError carrying the import site of b
// and the access site recorded in ctx.
func (e *Engine) Resolve(ctx context.Context, b *DeferredBinding) (Value, error) {
	owner, done, v, cached := b.begin()
	if done {
		return v, nil
	}
	if cached != nil {
		return nil, e.deferredError(ctx, b, cached)
	}

	v, err := e.bind(ctx, b)
	if owner {
		if canceled(ctx, err) {
			// Only this caller's wait ended; the next reader resolves again.
			b.release()
			return nil, e.deferredError(ctx, b, err)
		}
		b.finish(v, err)
	}
	if err != nil {
		if owner {
			e.logger.DebugContext(ctx, "deferred import failed",
				slog.String("statement", b.Statement()),
				slog.String("site", b.Site.String()),
				slog.Any("error", err))
		}
		return nil, e.deferredError(ctx, b, err)
	}
	if owner {
		e.logger.DebugContext(ctx, "deferred import resolved",
			slog.String("statement", b.Statement()),
			slog.String("site", b.Site.String()),
			slog.String("access", AccessSiteFrom(ctx).String()))
	}
	return v, nil
}

func (e *Engine) deferredError(ctx context.Context, b *DeferredBinding, err error) error {
	return &DeferredImportError{
		Statement: b.Statement(),
		Import:    b.Site,
		Access:    AccessSiteFrom(ctx),
		Err:       err,
	}
}

// bind imports the target of b and extracts the bound value.
func (e *Engine) bind(ctx context.Context, b *DeferredBinding) (Value, error) {
	for _, extra := range b.Also {
		if _, err := e.Import(ctx, extra); err != nil {
			return nil, err
		}
	}

	chain, err := e.importChain(ctx, b.Module)
	if err != nil {
		return nil, err
	}
	mod := chain[len(chain)-1]

	switch {
	case b.Kind == BindFrom:
		return e.attr(ctx, mod, b.Name)
	case b.Leaf:
		return mod, nil
	default:
		return chain[0], nil
	}
}

// attr reads name from mod. A package without the attribute is searched for a
// submodule of that name before the binding fails.
func (e *Engine) attr(ctx context.Context, mod *Module, name string) (Value, error) {
	v, ok, err := mod.Namespace.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if ok {
		return v, nil
	}

	if mod.Package {
		subName := mod.Name + "." + name
		sub, err := e.Import(ctx, subName)
		if err == nil {
			return sub, nil
		}
		var nf *ModuleNotFoundError
		if !errors.As(err, &nf) || nf.Name != subName {
			return nil, err
		}
	}

	return nil, &AttributeBindingError{
		Module:  mod.Name,
		Name:    name,
		Partial: e.registry.State(mod.Name) == Executing,
	}
}

// importChain loads every prefix of name, outermost first.
func (e *Engine) importChain(ctx context.Context, name string) ([]*Module, error) {
	if err := validateModuleName(name); err != nil {
		return nil, err
	}
	ctx, th := attachThread(ctx)

	parts := strings.Split(name, ".")
	chain := make([]*Module, 0, len(parts))
	for i := range parts {
		path := strings.Join(parts[:i+1], ".")

		var parent *Module
		if i > 0 {
			parent = chain[i-1]
			if !parent.Package {
				return nil, &ModuleNotFoundError{
					Name:   path,
					Reason: fmt.Sprintf("'%s' is not a package", parent.Name),
				}
			}
		}

		mod, fresh, err := e.load(ctx, th, path)
		if err != nil {
			return nil, err
		}
		if fresh && parent != nil {
			parent.Namespace.Set(parts[i], mod)
		}
		chain = append(chain, mod)
	}
	return chain, nil
}

// load returns the module for name, executing it if no load was started.
// fresh is true when this call executed the module.
func (e *Engine) load(ctx context.Context, th *thread, name string) (mod *Module, fresh bool, err error) {
	r := e.registry
	for {
		r.mu.Lock()
		ent, ok := r.entries[name]
		if !ok {
			ent = &entry{name: name, state: Executing, owner: th, done: make(chan struct{})}
			r.entries[name] = ent
			r.mu.Unlock()

			mod, err := e.execute(ctx, th, ent)
			return mod, err == nil, err
		}

		switch ent.state {
		case Done:
			r.mu.Unlock()
			return ent.module, false, nil
		case ModuleFailed:
			r.mu.Unlock()
			return nil, false, ent.err
		}

		// Executing. A reentrant load on the owning thread, or one that would
		// deadlock against it, observes the partially initialised module.
		if ent.module != nil && r.closesCycle(th, ent) {
			mod := ent.module
			r.mu.Unlock()
			e.logger.DebugContext(ctx, "partially initialised module returned", slog.String("module", name))
			return mod, false, nil
		}

		r.waits[th] = ent
		done := ent.done
		r.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
		}

		r.mu.Lock()
		delete(r.waits, th)
		r.mu.Unlock()

		if err := ctx.Err(); err != nil {
			return nil, false, fmt.Errorf("waiting for module '%s': %w", name, err)
		}
	}
}

// execute finds and runs the module of ent, which must be Executing and owned by th.
// A started load is never cancelled, and the module body does not inherit the
// eager_imports scope of the statement that triggered it.
func (e *Engine) execute(ctx context.Context, th *thread, ent *entry) (mod *Module, err error) {
	ctx = context.WithValue(context.WithoutCancel(ctx), eagerScopeCtxKey, false)
	name := ent.name
	frame, depth := th.push(name, e.clock.Now())

	finished := false
	defer func() {
		if finished {
			return
		}
		// The body panicked or exited the goroutine. Unblock waiters first.
		r := recover()
		th.pop(frame, e.clock.Now())
		e.fail(ent, &ModuleExecutionError{Module: name, Err: fmt.Errorf("aborted: %v", r)})
		if r != nil {
			panic(r)
		}
	}()

	src, err := e.finder.Find(ctx, name)
	if err != nil {
		finished = true
		th.pop(frame, e.clock.Now())
		e.forget(ent)
		if !errors.Is(err, ErrModuleNotFound) {
			return nil, fmt.Errorf("finding module '%s': %w", name, err)
		}
		var nf *ModuleNotFoundError
		if errors.As(err, &nf) {
			return nil, nf
		}
		return nil, &ModuleNotFoundError{Name: name, Err: err}
	}

	mod = &Module{
		Name:      name,
		File:      src.File,
		Package:   src.Package,
		Namespace: NewNamespace(name, e),
	}
	mod.Namespace.Set("__name__", name)
	mod.Namespace.Set("__file__", src.File)

	e.registry.mu.Lock()
	ent.module = mod
	e.registry.mu.Unlock()

	e.logger.DebugContext(ctx, "executing module", slog.String("module", name), slog.String("file", src.File))
	execErr := e.exec.Exec(ctx, e.rt, mod, src)
	finished = true

	self, cumulative := th.pop(frame, e.clock.Now())
	if execErr != nil {
		err = &ModuleExecutionError{Module: name, File: src.File, Err: execErr}
		e.fail(ent, err)
	} else {
		e.complete(ent)
	}

	if e.profiler != nil {
		e.profiler.Record(ImportRecord{Module: name, Self: self, Cumulative: cumulative, Depth: depth, Err: err})
	}
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(ctx, "module loaded", slog.String("module", name), slog.Duration("cumulative", cumulative))
	return mod, nil
}

func (e *Engine) complete(ent *entry) {
	r := e.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	ent.state = Done
	ent.owner = nil
	r.order = append(r.order, ent.name)
	close(ent.done)
}

func (e *Engine) fail(ent *entry, err error) {
	r := e.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	ent.state = ModuleFailed
	ent.err = err
	ent.owner = nil
	r.order = append(r.order, ent.name)
	close(ent.done)
}

// forget drops an entry whose module was never found, so later imports search again.
func (e *Engine) forget(ent *entry) {
	r := e.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[ent.name] == ent {
		delete(r.entries, ent.name)
	}
	close(ent.done)
}

// canceled reports whether err is the cancellation of ctx rather than an import failure.
func canceled(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err())
}

func validateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty module name", ErrInvalidImport)
	}
	for part := range strings.SplitSeq(name, ".") {
		if !isIdentifier(part) {
			return fmt.Errorf("%w: '%s' is not a valid module name", ErrInvalidImport, name)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
