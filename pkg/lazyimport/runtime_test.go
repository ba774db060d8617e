// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLazyImport_DefersUntilFirstRead(t *testing.T) {
	t.Parallel()

	fx := newLazyFixture(t)
	fx.module("spam", setValue("value", 42))
	fx.module("eggs", func(ctx context.Context, rt *Runtime, mod *Module) error {
		return importStmt(ctx, rt, mod, ImportSpec{Module: "spam"})
	})

	ctx := t.Context()
	eggs, err := fx.rt.Import(ctx, "eggs")
	if err != nil {
		t.Fatalf("Import(eggs) error = %v", err)
	}

	if got := fx.runCount("spam"); got != 0 {
		t.Fatalf("spam executed %d times before first read, want 0", got)
	}
	if !eggs.Namespace.IsDeferred("spam") {
		t.Error("IsDeferred(spam) = false, want true")
	}
	if !eggs.Namespace.HasDeferred() {
		t.Error("HasDeferred() = false, want true")
	}

	for range 3 {
		v, err := eggs.Namespace.Get(ctx, "spam")
		if err != nil {
			t.Fatalf("Get(spam) error = %v", err)
		}
		spam, ok := v.(*Module)
		if !ok || spam.Name != "spam" {
			t.Fatalf("Get(spam) = %v, want module spam", v)
		}
	}

	if got := fx.runCount("spam"); got != 1 {
		t.Errorf("spam executed %d times, want 1", got)
	}
	if eggs.Namespace.HasDeferred() {
		t.Error("HasDeferred() = true after resolution, want false")
	}
	if eggs.Namespace.IsDeferred("spam") {
		t.Error("IsDeferred(spam) = true after resolution, want false")
	}
}

func TestLazyImport_EagerContexts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   []Option
		spec   ImportSpec
		sc     StatementContext
		ctx    func(context.Context) context.Context
		reason Reason
	}{
		{
			name:   "disabled",
			opts:   []Option{WithEnabled(false)},
			spec:   ImportSpec{Module: "spam"},
			sc:     StatementContext{TopLevel: true},
			reason: ReasonDisabled,
		},
		{
			name:   "wildcard",
			opts:   []Option{WithEnabled(true)},
			spec:   ImportSpec{Module: "spam", Wildcard: true},
			sc:     StatementContext{TopLevel: true},
			reason: ReasonWildcard,
		},
		{
			name:   "inside handler",
			opts:   []Option{WithEnabled(true)},
			spec:   ImportSpec{Module: "spam"},
			sc:     StatementContext{TopLevel: true, InHandler: true},
			reason: ReasonHandler,
		},
		{
			name:   "inside function body",
			opts:   []Option{WithEnabled(true)},
			spec:   ImportSpec{Module: "spam", Names: []ImportName{{Name: "value"}}},
			sc:     StatementContext{TopLevel: false},
			reason: ReasonNotTopLevel,
		},
		{
			name:   "eager imports scope",
			opts:   []Option{WithEnabled(true)},
			spec:   ImportSpec{Module: "spam"},
			sc:     StatementContext{TopLevel: true},
			ctx:    WithEagerImports,
			reason: ReasonEagerScope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fx := newFixture(t, tt.opts...)
			fx.module("spam", setValue("value", 1))

			ctx := t.Context()
			if tt.ctx != nil {
				ctx = tt.ctx(ctx)
			}
			ns := fx.rt.NewNamespace("main")
			tt.sc.Module = "main"

			mode, err := fx.rt.ExecImport(ctx, ns, tt.spec, tt.sc)
			if err != nil {
				t.Fatalf("ExecImport() error = %v", err)
			}
			if mode != Eager {
				t.Errorf("ExecImport() mode = %v, want eager", mode)
			}
			if got := fx.runCount("spam"); got != 1 {
				t.Errorf("spam executed %d times at the statement, want 1", got)
			}
			if ns.HasDeferred() {
				t.Error("namespace holds deferred entries after an eager import")
			}

			sc := tt.sc
			sc.Kind = tt.spec.Kind()
			if tt.ctx != nil {
				sc.EagerScope = true
			}
			if _, reason := fx.rt.Classifier().Classify(sc); reason != tt.reason {
				t.Errorf("Classify() reason = %v, want %v", reason, tt.reason)
			}
		})
	}
}

func TestImportModule_IsAlwaysEager(t *testing.T) {
	t.Parallel()

	fx := newLazyFixture(t)
	fx.module("plugins", setValue("x", 1))

	mod, err := fx.rt.ImportModule(t.Context(), "plugins")
	if err != nil {
		t.Fatalf("ImportModule() error = %v", err)
	}
	if mod.Name != "plugins" || fx.runCount("plugins") != 1 {
		t.Errorf("ImportModule() = %v with %d runs, want plugins executed once", mod, fx.runCount("plugins"))
	}
}

func TestLazyImport_DisabledNeverDefers(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.module("spam", nil)
	fx.module("eggs", func(ctx context.Context, rt *Runtime, mod *Module) error {
		if err := importStmt(ctx, rt, mod, ImportSpec{Module: "spam"}); err != nil {
			return err
		}
		if mod.Namespace.HasDeferred() {
			t.Error("namespace holds deferred entries with lazy imports disabled")
		}
		return nil
	})

	if _, err := fx.rt.Import(t.Context(), "eggs"); err != nil {
		t.Fatalf("Import(eggs) error = %v", err)
	}
	if got := fx.runCount("spam"); got != 1 {
		t.Errorf("spam executed %d times, want 1", got)
	}
}

func TestLazyImport_FromImportCreatesIndependentBindings(t *testing.T) {
	t.Parallel()

	fx := newLazyFixture(t)
	fx.module("pkg", func(_ context.Context, _ *Runtime, mod *Module) error {
		mod.Namespace.Set("a", "A")
		mod.Namespace.Set("b", "B")
		return nil
	})

	ctx := t.Context()
	main := fx.entryModule("main")
	spec := ImportSpec{Module: "pkg", Names: []ImportName{{Name: "a"}, {Name: "b", Alias: "c"}}}
	if err := importStmt(ctx, fx.rt, main, spec); err != nil {
		t.Fatalf("ExecImport() error = %v", err)
	}

	if keys := main.Namespace.Keys(); strings.Join(keys, ",") != "a,c" {
		t.Fatalf("Keys() = %v, want [a c]", keys)
	}

	v, err := main.Namespace.Get(ctx, "a")
	if err != nil || v != "A" {
		t.Fatalf("Get(a) = %v, %v; want A", v, err)
	}
	if !main.Namespace.IsDeferred("c") {
		t.Error("reading a materialised c as well")
	}

	v, err = main.Namespace.Get(ctx, "c")
	if err != nil || v != "B" {
		t.Fatalf("Get(c) = %v, %v; want B", v, err)
	}
	if got := fx.runCount("pkg"); got != 1 {
		t.Errorf("pkg executed %d times, want 1", got)
	}
}

func TestLazyImport_DottedImports(t *testing.T) {
	t.Parallel()

	fx := newLazyFixture(t)
	fx.pkg("pkg", nil)
	fx.module("pkg.x", setValue("name", "x"))
	fx.module("pkg.y", setValue("name", "y"))

	ctx := t.Context()
	main := fx.entryModule("main")
	for i, spec := range []ImportSpec{
		{Module: "pkg.x"},
		{Module: "pkg.y"},
		{Module: "pkg.y", Alias: "why"},
	} {
		spec.Site = Site{File: "main.lzm.cue", Line: i + 1}
		if err := importStmt(ctx, fx.rt, main, spec); err != nil {
			t.Fatalf("ExecImport(%s) error = %v", spec, err)
		}
	}

	v, err := main.Namespace.Get(ctx, "pkg")
	if err != nil {
		t.Fatalf("Get(pkg) error = %v", err)
	}
	pkg, ok := v.(*Module)
	if !ok || pkg.Name != "pkg" {
		t.Fatalf("Get(pkg) = %v, want the top-level package", v)
	}
	for _, sub := range []string{"x", "y"} {
		if fx.runCount("pkg."+sub) != 1 {
			t.Errorf("pkg.%s executed %d times, want 1", sub, fx.runCount("pkg."+sub))
		}
		if _, ok, _ := pkg.Namespace.Lookup(ctx, sub); !ok {
			t.Errorf("package namespace has no %q after loading the submodule", sub)
		}
	}

	v, err = main.Namespace.Get(ctx, "why")
	if err != nil {
		t.Fatalf("Get(why) error = %v", err)
	}
	if leaf, ok := v.(*Module); !ok || leaf.Name != "pkg.y" {
		t.Errorf("Get(why) = %v, want module pkg.y", v)
	}
}

func TestImport_NonPackageParent(t *testing.T) {
	t.Parallel()

	fx := newLazyFixture(t)
	fx.module("plain", nil)
	fx.module("plain.sub", nil)

	_, err := fx.rt.Import(t.Context(), "plain.sub")
	if !errors.Is(err, ErrModuleNotFound) {
		t.Fatalf("Import(plain.sub) error = %v, want ErrModuleNotFound", err)
	}
	if !strings.Contains(err.Error(), "'plain' is not a package") {
		t.Errorf("error %q does not explain the parent is not a package", err)
	}
}

func TestFromImport_SubmoduleFallback(t *testing.T) {
	t.Parallel()

	fx := newLazyFixture(t)
	fx.pkg("pkg", nil)
	fx.module("pkg.sub", setValue("v", 7))

	ctx := t.Context()
	main := fx.entryModule("main")
	if err := importStmt(ctx, fx.rt, main, ImportSpec{Module: "pkg", Names: []ImportName{{Name: "sub"}}}); err != nil {
		t.Fatal(err)
	}

	v, err := main.Namespace.Get(ctx, "sub")
	if err != nil {
		t.Fatalf("Get(sub) error = %v", err)
	}
	if m, ok := v.(*Module); !ok || m.Name != "pkg.sub" {
		t.Errorf("Get(sub) = %v, want module pkg.sub", v)
	}
}

func TestFromImport_MissingAttribute(t *testing.T) {
	t.Parallel()

	fx := newLazyFixture(t)
	fx.module("spam", setValue("present", true))

	ctx := t.Context()
	main := fx.entryModule("main")
	spec := ImportSpec{Module: "spam", Names: []ImportName{{Name: "absent"}}, Site: Site{File: "main.lzm.cue", Line: 4}}
	if err := importStmt(ctx, fx.rt, main, spec); err != nil {
		t.Fatal(err)
	}

	_, err := main.Namespace.Get(WithAccessSite(ctx, Site{File: "main.lzm.cue", Line: 9}), "absent")
	var abErr *AttributeBindingError
	if !errors.As(err, &abErr) {
		t.Fatalf("Get(absent) error = %v, want *AttributeBindingError", err)
	}
	if abErr.Module != "spam" || abErr.Name != "absent" || abErr.Partial {
		t.Errorf("AttributeBindingError = %+v", abErr)
	}
	var dErr *DeferredImportError
	if !errors.As(err, &dErr) {
		t.Fatalf("error %v is not a *DeferredImportError", err)
	}
	if dErr.Import.Line != 4 || dErr.Access.Line != 9 {
		t.Errorf("sites = import %s, access %s; want lines 4 and 9", dErr.Import, dErr.Access)
	}
}

func TestLazyImport_FailingPackage(t *testing.T) {
	t.Parallel()

	fx := newLazyFixture(t)
	fx.module("pkg", func(_ context.Context, _ *Runtime, mod *Module) error {
		mod.Namespace.Set("a", 1)
		return errBoom
	})

	ctx := t.Context()
	main := fx.entryModule("main")
	spec := ImportSpec{
		Module: "pkg",
		Names:  []ImportName{{Name: "a"}, {Name: "b"}},
		Site:   Site{File: "main.lzm.cue", Line: 3},
	}
	if err := importStmt(ctx, fx.rt, main, spec); err != nil {
		t.Fatalf("ExecImport() error = %v", err)
	}

	var first error
	for i, key := range []string{"a", "b", "a"} {
		access := Site{File: "main.lzm.cue", Line: 10 + i}
		_, err := main.Namespace.Get(WithAccessSite(ctx, access), key)
		if err == nil {
			t.Fatalf("Get(%s) succeeded, want failure", key)
		}
		if !errors.Is(err, ErrModuleExecution) || !errors.Is(err, errBoom) {
			t.Fatalf("Get(%s) error = %v, want module execution failure wrapping boom", key, err)
		}

		var dErr *DeferredImportError
		if !errors.As(err, &dErr) {
			t.Fatalf("Get(%s) error is not a *DeferredImportError", key)
		}
		if dErr.Statement != "from pkg import a, b" {
			t.Errorf("Statement = %q", dErr.Statement)
		}
		if dErr.Import != spec.Site {
			t.Errorf("Import site = %s, want %s", dErr.Import, spec.Site)
		}
		if dErr.Access != access {
			t.Errorf("Access site = %s, want %s", dErr.Access, access)
		}

		var execErr *ModuleExecutionError
		if !errors.As(err, &execErr) {
			t.Fatalf("Get(%s) error has no *ModuleExecutionError", key)
		}
		if first == nil {
			first = execErr
		} else if error(execErr) != first {
			t.Errorf("Get(%s) raised a different cause than the first read", key)
		}

		if !main.Namespace.IsDeferred(key) {
			t.Errorf("failed entry %q was removed or replaced", key)
		}
	}

	if got := fx.runCount("pkg"); got != 1 {
		t.Errorf("pkg executed %d times, want 1", got)
	}
	if state := fx.rt.Registry().State("pkg"); state != ModuleFailed {
		t.Errorf("registry state = %v, want failed", state)
	}
}

func TestLazyImport_ModuleNotFound(t *testing.T) {
	t.Parallel()

	fx := newLazyFixture(t)
	ctx := t.Context()
	main := fx.entryModule("main")

	if err := importStmt(ctx, fx.rt, main, ImportSpec{Module: "missing"}); err != nil {
		t.Fatalf("lazy import of a missing module failed at the statement: %v", err)
	}
	if got := fx.findCount("missing"); got != 0 {
		t.Fatalf("missing searched %d times before first read", got)
	}

	for range 2 {
		_, err := main.Namespace.Get(ctx, "missing")
		var nf *ModuleNotFoundError
		if !errors.As(err, &nf) || nf.Name != "missing" {
			t.Fatalf("Get(missing) error = %v, want *ModuleNotFoundError", err)
		}
	}
	if got := fx.findCount("missing"); got != 1 {
		t.Errorf("cached failure searched %d times, want 1", got)
	}

	// A new import statement searches again.
	if err := importStmt(ctx, fx.rt, main, ImportSpec{Module: "missing", Alias: "again"}); err != nil {
		t.Fatal(err)
	}
	_, _ = main.Namespace.Get(ctx, "again")
	if got := fx.findCount("missing"); got != 2 {
		t.Errorf("missing searched %d times after a second statement, want 2", got)
	}
	if fx.rt.Registry().State("missing") != NotStarted {
		t.Error("registry kept an entry for a module that was never found")
	}
}

func TestEagerImport_ErrorsSurfaceAtStatement(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.module("pkg", func(context.Context, *Runtime, *Module) error { return errBoom })

	err := importStmt(t.Context(), fx.rt, fx.entryModule("main"), ImportSpec{Module: "pkg"})
	if !errors.Is(err, errBoom) {
		t.Fatalf("ExecImport() error = %v, want boom", err)
	}
	var dErr *DeferredImportError
	if errors.As(err, &dErr) {
		t.Error("eager import error wrapped as deferred")
	}
}

func TestWildcardImport(t *testing.T) {
	t.Parallel()

	t.Run("public names", func(t *testing.T) {
		t.Parallel()

		fx := newLazyFixture(t)
		fx.module("helper", nil)
		fx.module("lib", func(ctx context.Context, rt *Runtime, mod *Module) error {
			mod.Namespace.Set("visible", 1)
			mod.Namespace.Set("_hidden", 2)
			return importStmt(ctx, rt, mod, ImportSpec{Module: "helper"})
		})

		ctx := t.Context()
		main := fx.entryModule("main")
		if err := importStmt(ctx, fx.rt, main, ImportSpec{Module: "lib", Wildcard: true}); err != nil {
			t.Fatal(err)
		}

		if !main.Namespace.Has("visible") || main.Namespace.Has("_hidden") {
			t.Errorf("Keys() = %v, want visible without _hidden", main.Namespace.Keys())
		}
		if main.Namespace.HasDeferred() {
			t.Error("wildcard import copied a deferred entry")
		}
		if fx.runCount("helper") != 1 {
			t.Error("wildcard import did not resolve the target's deferred entries")
		}
	})

	t.Run("all list", func(t *testing.T) {
		t.Parallel()

		fx := newLazyFixture(t)
		fx.module("lib", func(_ context.Context, _ *Runtime, mod *Module) error {
			mod.Namespace.Set("__all__", []any{"one"})
			mod.Namespace.Set("one", 1)
			mod.Namespace.Set("two", 2)
			return nil
		})

		main := fx.entryModule("main")
		if err := importStmt(t.Context(), fx.rt, main, ImportSpec{Module: "lib", Wildcard: true}); err != nil {
			t.Fatal(err)
		}
		if !main.Namespace.Has("one") || main.Namespace.Has("two") {
			t.Errorf("Keys() = %v, want only names listed in __all__", main.Namespace.Keys())
		}
	})
}

func TestImportSpec_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    ImportSpec
		want    string
		wantErr bool
	}{
		{"plain", ImportSpec{Module: "a.b"}, "import a.b", false},
		{"alias", ImportSpec{Module: "a.b", Alias: "x"}, "import a.b as x", false},
		{"from", ImportSpec{Module: "a", Names: []ImportName{{Name: "x"}, {Name: "y", Alias: "z"}}}, "from a import x, y as z", false},
		{"wildcard", ImportSpec{Module: "a", Wildcard: true}, "from a import *", false},
		{"empty module", ImportSpec{}, "import ", true},
		{"bad component", ImportSpec{Module: "a..b"}, "import a..b", true},
		{"digit start", ImportSpec{Module: "1a"}, "import 1a", true},
		{"wildcard with names", ImportSpec{Module: "a", Wildcard: true, Names: []ImportName{{Name: "x"}}}, "from a import *", true},
		{"bad alias", ImportSpec{Module: "a", Alias: "x-y"}, "import a as x-y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.spec.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidImport) {
				t.Errorf("Validate() error = %v, want ErrInvalidImport", err)
			}
		})
	}
}

func TestSetEagerImports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   any
		module  string
		want    bool
		wantErr bool
	}{
		{"single name", "vendor", "vendor", true, false},
		{"name list", []string{"a", "b"}, "b", true, false},
		{"any list", []any{"x.*"}, "x.y", true, false},
		{"predicate", func(m string) bool { return strings.HasSuffix(m, "_test") }, "mod_test", true, false},
		{"no match", []string{"a"}, "b", false, false},
		{"bad list entry", []any{1}, "", false, true},
		{"bad type", 42, "", false, true},
		{"bad pattern", "x[", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fx := newLazyFixture(t)
			err := fx.rt.SetEagerImports(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetEagerImports() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := fx.rt.Overrides().Matches(tt.module); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.module, got, tt.want)
			}
		})
	}
}

func TestNew_InvalidEagerModules(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, nil, WithEagerModules("bad[")); !errors.Is(err, ErrInvalidImport) {
		t.Errorf("New() error = %v, want ErrInvalidImport", err)
	}
}
