// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"strings"

	"github.com/invowk/lazymod/pkg/lazyimport"
)

const (
	// CUEExt is the file extension of CUE units.
	CUEExt = ".lzm.cue"
	// TOMLExt is the file extension of TOML units.
	TOMLExt = ".lzm.toml"
	// HCLExt is the file extension of HCL units.
	HCLExt = ".lzm.hcl"
)

// Format names a unit source format by its file extension.
type Format struct {
	Name string
	Ext  string
}

// Formats lists the unit formats in lookup priority: when units of several
// formats exist for one module, the first one wins.
var Formats = []Format{
	{Name: "cue", Ext: CUEExt},
	{Name: "toml", Ext: TOMLExt},
	{Name: "hcl", Ext: HCLExt},
}

// FormatOf returns the format of file and its name without the extension.
// ok is false for files that are not units.
func FormatOf(file string) (f Format, stem string, ok bool) {
	for _, f := range Formats {
		if stem, found := strings.CutSuffix(file, f.Ext); found {
			return f, stem, true
		}
	}
	return Format{}, "", false
}

// Statement verbs.
const (
	VerbImport          = "import"
	VerbFrom            = "from"
	VerbImportModule    = "import_module"
	VerbPrint           = "print"
	VerbPrintRef        = "print_ref"
	VerbRef             = "ref"
	VerbSet             = "set"
	VerbDel             = "del"
	VerbSleep           = "sleep"
	VerbRaise           = "raise"
	VerbTry             = "try"
	VerbWith            = "with"
	VerbDef             = "def"
	VerbCall            = "call"
	VerbClass           = "class"
	VerbEager           = "eager"
	VerbSetEagerImports = "set_eager_imports"
	VerbShell           = "shell"
	VerbPrintGlobals    = "print_globals"
	VerbPrintLazy       = "print_lazy"
)

type (
	// Unit is a parsed module source file.
	Unit struct {
		// Doc is an optional description.
		Doc string `json:"doc,omitempty" toml:"doc,omitempty"`
		// All lists the public names of the module for wildcard imports.
		All []string `json:"all,omitempty" toml:"all,omitempty"`
		// Body is the module body.
		Body []Stmt `json:"body" toml:"body"`

		// File is the path the unit was parsed from.
		File string `json:"-" toml:"-"`
	}

	// Stmt is one statement of a unit body. Exactly one verb field is set;
	// the remaining fields are its operands.
	Stmt struct {
		Import          string   `json:"import,omitempty" toml:"import,omitempty"`
		As              string   `json:"as,omitempty" toml:"as,omitempty"`
		From            string   `json:"from,omitempty" toml:"from,omitempty"`
		Names           []string `json:"names,omitempty" toml:"names,omitempty"`
		ImportModule    string   `json:"import_module,omitempty" toml:"import_module,omitempty"`
		Print           *string  `json:"print,omitempty" toml:"print,omitempty"`
		PrintRef        string   `json:"print_ref,omitempty" toml:"print_ref,omitempty"`
		Ref             string   `json:"ref,omitempty" toml:"ref,omitempty"`
		Set             string   `json:"set,omitempty" toml:"set,omitempty"`
		Value           any      `json:"value,omitempty" toml:"value,omitempty"`
		RefValue        string   `json:"ref_value,omitempty" toml:"ref_value,omitempty"`
		Del             string   `json:"del,omitempty" toml:"del,omitempty"`
		Sleep           string   `json:"sleep,omitempty" toml:"sleep,omitempty"`
		Raise           string   `json:"raise,omitempty" toml:"raise,omitempty"`
		Try             []Stmt   `json:"try,omitempty" toml:"try,omitempty"`
		Except          []Stmt   `json:"except,omitempty" toml:"except,omitempty"`
		With            []Stmt   `json:"with,omitempty" toml:"with,omitempty"`
		Def             string   `json:"def,omitempty" toml:"def,omitempty"`
		Body            []Stmt   `json:"body,omitempty" toml:"body,omitempty"`
		Call            string   `json:"call,omitempty" toml:"call,omitempty"`
		Class           string   `json:"class,omitempty" toml:"class,omitempty"`
		Eager           []Stmt   `json:"eager,omitempty" toml:"eager,omitempty"`
		SetEagerImports []string `json:"set_eager_imports,omitempty" toml:"set_eager_imports,omitempty"`
		Shell           string   `json:"shell,omitempty" toml:"shell,omitempty"`
		PrintGlobals    bool     `json:"print_globals,omitempty" toml:"print_globals,omitempty"`
		PrintLazy       string   `json:"print_lazy,omitempty" toml:"print_lazy,omitempty"`

		// Line is the source line. CUE units take it from the syntax tree; TOML
		// units may set it explicitly and otherwise get the statement ordinal.
		Line int `json:"line,omitempty" toml:"line,omitempty"`
	}
)

// Verbs returns the verb keys set on the statement.
func (s *Stmt) Verbs() []string {
	var verbs []string
	add := func(set bool, verb string) {
		if set {
			verbs = append(verbs, verb)
		}
	}
	add(s.Import != "", VerbImport)
	add(s.From != "", VerbFrom)
	add(s.ImportModule != "", VerbImportModule)
	add(s.Print != nil, VerbPrint)
	add(s.PrintRef != "", VerbPrintRef)
	add(s.Ref != "", VerbRef)
	add(s.Set != "", VerbSet)
	add(s.Del != "", VerbDel)
	add(s.Sleep != "", VerbSleep)
	add(s.Raise != "", VerbRaise)
	add(s.Try != nil, VerbTry)
	add(s.With != nil, VerbWith)
	add(s.Def != "", VerbDef)
	add(s.Call != "", VerbCall)
	add(s.Class != "", VerbClass)
	add(s.Eager != nil, VerbEager)
	add(s.SetEagerImports != nil, VerbSetEagerImports)
	add(s.Shell != "", VerbShell)
	add(s.PrintGlobals, VerbPrintGlobals)
	add(s.PrintLazy != "", VerbPrintLazy)
	return verbs
}

// Verb returns the statement verb, or "" when the statement does not have
// exactly one.
func (s *Stmt) Verb() string {
	if verbs := s.Verbs(); len(verbs) == 1 {
		return verbs[0]
	}
	return ""
}

// Site returns the location of the statement in file.
func (s *Stmt) Site(file string) lazyimport.Site {
	return lazyimport.Site{File: file, Line: s.Line}
}

// ImportSpec converts an import statement into its lazyimport form.
// ok is false for statements that are not import or from-import statements.
func (s *Stmt) ImportSpec(file string) (spec lazyimport.ImportSpec, ok bool) {
	switch s.Verb() {
	case VerbImport:
		return lazyimport.ImportSpec{Module: s.Import, Alias: s.As, Site: s.Site(file)}, true
	case VerbFrom:
		spec = lazyimport.ImportSpec{Module: s.From, Site: s.Site(file)}
		for _, n := range s.Names {
			if n == "*" {
				spec.Wildcard = true
				continue
			}
			name, alias, _ := strings.Cut(n, " as ")
			spec.Names = append(spec.Names, lazyimport.ImportName{Name: name, Alias: alias})
		}
		return spec, true
	default:
		return lazyimport.ImportSpec{}, false
	}
}

// Walk calls fn for every statement of body in source order, descending into
// nested blocks. depth is zero for top-level statements.
func Walk(body []Stmt, fn func(s *Stmt, depth int)) {
	walk(body, 0, fn)
}

func walk(body []Stmt, depth int, fn func(*Stmt, int)) {
	for i := range body {
		s := &body[i]
		fn(s, depth)
		for _, block := range s.blocks() {
			walk(*block.stmts, depth+1, fn)
		}
	}
}

type block struct {
	key   string
	stmts *[]Stmt
}

// blocks returns the nested statement lists of s in source order.
func (s *Stmt) blocks() []block {
	return []block{
		{"try", &s.Try},
		{"except", &s.Except},
		{"with", &s.With},
		{"body", &s.Body},
		{"eager", &s.Eager},
	}
}
