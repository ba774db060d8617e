// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type (
	bodyFunc func(ctx context.Context, rt *Runtime, mod *Module) error

	// fixture is an in-memory module system whose module bodies are Go funcs.
	fixture struct {
		t  *testing.T
		rt *Runtime

		mu     sync.Mutex
		bodies map[string]bodyFunc
		pkgs   map[string]bool
		runs   map[string]int
		finds  map[string]int
		events []string
	}

	resolverFunc func(ctx context.Context, b *DeferredBinding) (Value, error)
)

func (f resolverFunc) Resolve(ctx context.Context, b *DeferredBinding) (Value, error) {
	return f(ctx, b)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	fx := &fixture{
		t:      t,
		bodies: make(map[string]bodyFunc),
		pkgs:   make(map[string]bool),
		runs:   make(map[string]int),
		finds:  make(map[string]int),
	}
	rt, err := New(fx, fx, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	fx.rt = rt
	return fx
}

func newLazyFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newFixture(t, append([]Option{WithEnabled(true)}, opts...)...)
}

func (fx *fixture) module(name string, body bodyFunc) {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	fx.bodies[name] = body
}

func (fx *fixture) pkg(name string, body bodyFunc) {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	fx.bodies[name] = body
	fx.pkgs[name] = true
}

func (fx *fixture) runCount(name string) int {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return fx.runs[name]
}

func (fx *fixture) findCount(name string) int {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return fx.finds[name]
}

func (fx *fixture) event(s string) {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	fx.events = append(fx.events, s)
}

func (fx *fixture) eventLog() []string {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return append([]string(nil), fx.events...)
}

// Find implements Finder.
func (fx *fixture) Find(_ context.Context, name string) (*Source, error) {
	fx.mu.Lock()
	defer fx.mu.Unlock()

	fx.finds[name]++
	if _, ok := fx.bodies[name]; !ok {
		return nil, &ModuleNotFoundError{Name: name}
	}
	return &Source{Name: name, File: name + ".lzm.cue", Package: fx.pkgs[name]}, nil
}

// Exec implements Executor.
func (fx *fixture) Exec(ctx context.Context, rt *Runtime, mod *Module, _ *Source) error {
	fx.mu.Lock()
	body := fx.bodies[mod.Name]
	fx.runs[mod.Name]++
	fx.mu.Unlock()

	if body == nil {
		return nil
	}
	return body(ctx, rt, mod)
}

// importStmt runs a top-level import statement of mod.
func importStmt(ctx context.Context, rt *Runtime, mod *Module, spec ImportSpec) error {
	if spec.Site.IsZero() {
		spec.Site = Site{File: mod.Name + ".lzm.cue", Line: 1}
	}
	_, err := rt.ExecImport(ctx, mod.Namespace, spec, StatementContext{Module: mod.Name, TopLevel: true})
	return err
}

// setValue returns a module body that binds key to v.
func setValue(key string, v Value) bodyFunc {
	return func(_ context.Context, _ *Runtime, mod *Module) error {
		mod.Namespace.Set(key, v)
		return nil
	}
}

// entryModule creates a namespace-only module used as the importer in tests.
func (fx *fixture) entryModule(name string) *Module {
	return &Module{Name: name, Namespace: fx.rt.NewNamespace(name)}
}

func assertNoBinding(t *testing.T, values []Value) {
	t.Helper()
	for i, v := range values {
		if _, ok := v.(*DeferredBinding); ok {
			t.Fatalf("value %d is a *DeferredBinding", i)
		}
	}
}

var errBoom = errors.New("boom")
