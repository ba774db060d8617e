// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/invowk/lazymod/pkg/cueutil"
)

// ValidationErrors collects every structural problem of a unit.
type ValidationErrors []*cueutil.ValidationError

// Error implements the error interface by joining all error messages.
func (errs ValidationErrors) Error() string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed with %d errors:", len(errs))
	for _, err := range errs {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Validate checks statement structure that the schema cannot express: one verb
// per statement, operands that belong to the verb, and non-empty blocks.
func (u *Unit) Validate() ValidationErrors {
	v := &validator{file: u.File}
	v.body("body", u.Body)
	return v.errs
}

type validator struct {
	file string
	errs ValidationErrors
}

func (v *validator) add(s *Stmt, path, format string, args ...any) {
	v.errs = append(v.errs, &cueutil.ValidationError{
		FilePath: v.file,
		Line:     s.Line,
		CUEPath:  path,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (v *validator) body(path string, body []Stmt) {
	for i := range body {
		v.stmt(fmt.Sprintf("%s[%d]", path, i), &body[i])
	}
}

func (v *validator) stmt(path string, s *Stmt) {
	verbs := s.Verbs()
	switch len(verbs) {
	case 0:
		v.add(s, path, "statement has no verb")
		return
	case 1:
	default:
		v.add(s, path, "statement sets several verbs: %s", strings.Join(verbs, ", "))
		return
	}
	verb := verbs[0]

	if s.As != "" && verb != VerbImport && verb != VerbImportModule {
		v.add(s, path, "'as' is only valid with import and import_module")
	}
	if s.Names != nil && verb != VerbFrom {
		v.add(s, path, "'names' is only valid with from")
	}
	if (s.Value != nil || s.RefValue != "") && verb != VerbSet {
		v.add(s, path, "'value' and 'ref_value' are only valid with set")
	}
	if s.Except != nil && verb != VerbTry {
		v.add(s, path, "'except' is only valid with try")
	}
	if s.Body != nil && verb != VerbDef && verb != VerbClass {
		v.add(s, path, "'body' is only valid with def and class")
	}

	switch verb {
	case VerbFrom:
		switch {
		case len(s.Names) == 0:
			v.add(s, path, "from requires at least one entry in 'names'")
		case slices.Contains(s.Names, "*") && len(s.Names) > 1:
			v.add(s, path, "a wildcard import cannot list other names")
		}
	case VerbSet:
		if (s.Value == nil) == (s.RefValue == "") {
			v.add(s, path, "set requires exactly one of 'value' or 'ref_value'")
		}
	case VerbSleep:
		if d, err := time.ParseDuration(s.Sleep); err != nil || d < 0 {
			v.add(s, path, "invalid sleep duration %q", s.Sleep)
		}
	case VerbTry:
		v.block(s, path, "try", s.Try)
		if s.Except == nil {
			v.add(s, path, "try requires an 'except' block")
		} else {
			v.body(path+".except", s.Except)
		}
	case VerbWith:
		v.block(s, path, "with", s.With)
	case VerbEager:
		v.block(s, path, "eager", s.Eager)
	case VerbDef, VerbClass:
		v.block(s, path, "body", s.Body)
	case VerbSetEagerImports:
		if len(s.SetEagerImports) == 0 {
			v.add(s, path, "set_eager_imports requires at least one module name")
		}
	}
}

func (v *validator) block(s *Stmt, path, key string, stmts []Stmt) {
	if len(stmts) == 0 {
		v.add(s, path, "'%s' block is empty", key)
		return
	}
	v.body(path+"."+key, stmts)
}
