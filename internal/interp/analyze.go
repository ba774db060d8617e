// SPDX-License-Identifier: MPL-2.0

package interp

import (
	"github.com/invowk/lazymod/pkg/lazyimport"
	"github.com/invowk/lazymod/pkg/unit"
)

// Decision is the classification of one import statement of a unit.
type Decision struct {
	Site      lazyimport.Site
	Statement string
	Mode      lazyimport.Mode
	Reason    lazyimport.Reason
}

// Analyze classifies every import statement of u as if module ran it, without
// executing anything. set_eager_imports statements apply to the statements
// after them; the overrides of rt are consulted but not modified.
func Analyze(rt *lazyimport.Runtime, module string, u *unit.Unit) ([]Decision, error) {
	overrides := lazyimport.NewEagerOverrides()
	overrides.AddPredicate(rt.Overrides().Matches)
	a := &analyzer{
		module:     module,
		file:       u.File,
		overrides:  overrides,
		classifier: lazyimport.NewClassifier(rt.Enabled(), overrides),
	}
	if err := a.body(u.Body, lazyimport.StatementContext{Module: module, TopLevel: true}); err != nil {
		return nil, err
	}
	return a.decisions, nil
}

type analyzer struct {
	module     string
	file       string
	overrides  *lazyimport.EagerOverrides
	classifier *lazyimport.Classifier
	decisions  []Decision
}

func (a *analyzer) body(body []unit.Stmt, sc lazyimport.StatementContext) error {
	for i := range body {
		if err := a.stmt(&body[i], sc); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) stmt(s *unit.Stmt, sc lazyimport.StatementContext) error {
	handler, nested := sc, sc
	handler.InHandler = true
	nested.TopLevel = false

	switch s.Verb() {
	case unit.VerbImport, unit.VerbFrom:
		spec, _ := s.ImportSpec(a.file)
		sc.Kind = spec.Kind()
		a.record(spec.Site, spec.String(), sc)
	case unit.VerbImportModule:
		sc.Kind = lazyimport.StmtDynamic
		a.record(s.Site(a.file), "import_module("+s.ImportModule+")", sc)
	case unit.VerbSetEagerImports:
		return a.overrides.AddNames(s.SetEagerImports...)
	case unit.VerbTry:
		if err := a.body(s.Try, handler); err != nil {
			return err
		}
		return a.body(s.Except, handler)
	case unit.VerbWith:
		return a.body(s.With, handler)
	case unit.VerbDef:
		nested.InHandler = false
		nested.EagerScope = false
		return a.body(s.Body, nested)
	case unit.VerbClass:
		return a.body(s.Body, nested)
	case unit.VerbEager:
		eager := sc
		eager.EagerScope = true
		return a.body(s.Eager, eager)
	}
	return nil
}

func (a *analyzer) record(site lazyimport.Site, stmt string, sc lazyimport.StatementContext) {
	mode, reason := a.classifier.Classify(sc)
	a.decisions = append(a.decisions, Decision{Site: site, Statement: stmt, Mode: mode, Reason: reason})
}
