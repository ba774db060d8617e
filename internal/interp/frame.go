// SPDX-License-Identifier: MPL-2.0

package interp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/invowk/lazymod/pkg/lazyimport"
	"github.com/invowk/lazymod/pkg/unit"
)

// frame is the execution state of one body: the module top level, a function
// call or a class body.
type frame struct {
	in     *Interpreter
	rt     *lazyimport.Runtime
	module string
	file   string

	globals *lazyimport.Namespace
	// locals is the function or class namespace; nil at module level.
	locals *lazyimport.Namespace

	topLevel  bool
	inHandler bool

	// eagerScope is set inside an eager block. It is lexical: module bodies
	// loaded from the block and functions defined elsewhere do not see it.
	eagerScope bool
	depth      int
}

// scope is the namespace statements bind into.
func (f *frame) scope() *lazyimport.Namespace {
	if f.locals != nil {
		return f.locals
	}
	return f.globals
}

// handler returns a copy of f for a try, except or with block.
func (f *frame) handler() *frame {
	g := *f
	g.inHandler = true
	return &g
}

func (f *frame) exec(ctx context.Context, body []unit.Stmt) error {
	for i := range body {
		if err := f.stmt(ctx, &body[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *frame) stmt(ctx context.Context, s *unit.Stmt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	site := s.Site(f.file)
	ctx = lazyimport.WithAccessSite(ctx, site)
	verb := s.Verb()
	return atSite(f.dispatch(ctx, s, site, verb), site, verb)
}

func (f *frame) dispatch(ctx context.Context, s *unit.Stmt, site lazyimport.Site, verb string) error {
	switch verb {
	case unit.VerbImport, unit.VerbFrom:
		spec, _ := s.ImportSpec(f.file)
		_, err := f.rt.ExecImport(ctx, f.scope(), spec, lazyimport.StatementContext{
			Module:     f.module,
			InHandler:  f.inHandler,
			EagerScope: f.eagerScope,
			TopLevel:   f.topLevel,
		})
		return err

	case unit.VerbImportModule:
		mod, err := f.rt.ImportModule(ctx, s.ImportModule)
		if err != nil {
			return err
		}
		if s.As != "" {
			f.scope().Set(s.As, mod)
		}
		return nil

	case unit.VerbPrint:
		f.in.println(*s.Print)
		return nil

	case unit.VerbPrintRef:
		v, err := f.ref(ctx, s.PrintRef)
		if err != nil {
			return err
		}
		f.in.println(Str(v))
		return nil

	case unit.VerbRef:
		_, err := f.ref(ctx, s.Ref)
		return err

	case unit.VerbSet:
		v := normalize(s.Value)
		if s.RefValue != "" {
			var err error
			if v, err = f.ref(ctx, s.RefValue); err != nil {
				return err
			}
		}
		f.scope().Set(s.Set, v)
		return nil

	case unit.VerbDel:
		if !f.scope().Delete(s.Del) {
			return &lazyimport.NameError{Name: s.Del, Namespace: f.scope().Name()}
		}
		return nil

	case unit.VerbSleep:
		return f.sleep(ctx, s.Sleep)

	case unit.VerbRaise:
		return &RaiseError{Message: s.Raise, Site: site}

	case unit.VerbTry:
		err := f.handler().exec(ctx, s.Try)
		if err == nil || ctx.Err() != nil {
			return err
		}
		f.in.logger.DebugContext(ctx, "exception handled", slog.String("site", site.String()), slog.Any("error", err))
		return f.handler().exec(ctx, s.Except)

	case unit.VerbWith:
		return f.handler().exec(ctx, s.With)

	case unit.VerbDef:
		f.scope().Set(s.Def, &Function{
			Name:    s.Def,
			Module:  f.module,
			File:    f.file,
			Body:    s.Body,
			Globals: f.globals,
		})
		return nil

	case unit.VerbCall:
		v, err := f.ref(ctx, s.Call)
		if err != nil {
			return err
		}
		fn, ok := v.(*Function)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotCallable, Repr(v))
		}
		return f.call(ctx, fn)

	case unit.VerbClass:
		c := &Class{
			Name:      s.Class,
			Module:    f.module,
			Namespace: f.rt.NewNamespace(f.module + "." + s.Class),
		}
		body := &frame{
			in:         f.in,
			rt:         f.rt,
			module:     f.module,
			file:       f.file,
			globals:    f.globals,
			locals:     c.Namespace,
			inHandler:  f.inHandler,
			eagerScope: f.eagerScope,
			depth:      f.depth,
		}
		if err := body.exec(ctx, s.Body); err != nil {
			return err
		}
		f.scope().Set(s.Class, c)
		return nil

	case unit.VerbEager:
		g := *f
		g.eagerScope = true
		return g.exec(ctx, s.Eager)

	case unit.VerbSetEagerImports:
		return f.rt.SetEagerImports(s.SetEagerImports)

	case unit.VerbShell:
		return f.shell(ctx, s.Shell)

	case unit.VerbPrintGlobals:
		items, err := f.globals.Items(ctx)
		if err != nil {
			return err
		}
		for _, it := range items {
			if strings.HasPrefix(it.Key, "__") {
				continue
			}
			f.in.println(it.Key + " = " + Repr(it.Value))
		}
		return nil

	case unit.VerbPrintLazy:
		if !f.globals.Has(s.PrintLazy) {
			return &lazyimport.NameError{Name: s.PrintLazy, Namespace: f.module}
		}
		state := "bound"
		if f.globals.IsDeferred(s.PrintLazy) {
			state = "deferred"
		}
		f.in.println(s.PrintLazy + ": " + state)
		return nil

	default:
		return fmt.Errorf("unsupported statement %v", s.Verbs())
	}
}

func (f *frame) call(ctx context.Context, fn *Function) error {
	if f.depth+1 > f.in.maxCallDepth {
		return fmt.Errorf("%w (%d) calling %s", ErrRecursion, f.in.maxCallDepth, fn)
	}
	body := &frame{
		in:      f.in,
		rt:      f.rt,
		module:  fn.Module,
		file:    fn.File,
		globals: fn.Globals,
		locals:  lazyimport.NewNamespace(fn.Module+"."+fn.Name, nil),
		depth:   f.depth + 1,
	}
	return body.exec(ctx, fn.Body)
}

func (f *frame) sleep(ctx context.Context, s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	select {
	case <-f.in.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ref evaluates a dotted reference: a name in scope followed by attributes.
func (f *frame) ref(ctx context.Context, ref string) (lazyimport.Value, error) {
	head, rest, _ := strings.Cut(ref, ".")
	v, err := f.lookup(ctx, head)
	if err != nil {
		return nil, err
	}
	if rest == "" {
		return v, nil
	}
	for name := range strings.SplitSeq(rest, ".") {
		if v, err = attribute(ctx, v, name); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// lookup reads name from the local scope, then from the module globals.
func (f *frame) lookup(ctx context.Context, name string) (lazyimport.Value, error) {
	if f.locals != nil {
		v, ok, err := f.locals.Lookup(ctx, name)
		if err != nil || ok {
			return v, err
		}
	}
	v, ok, err := f.globals.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &lazyimport.NameError{Name: name, Namespace: f.module}
	}
	return v, nil
}

func attribute(ctx context.Context, v lazyimport.Value, name string) (lazyimport.Value, error) {
	var ns *lazyimport.Namespace
	switch x := v.(type) {
	case *lazyimport.Module:
		ns = x.Namespace
	case *Class:
		ns = x.Namespace
	default:
		return nil, &AttributeError{Owner: Repr(v), Name: name}
	}

	attr, ok, err := ns.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &AttributeError{Owner: Repr(v), Name: name}
	}
	return attr, nil
}
