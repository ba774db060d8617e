// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/invowk/lazymod/pkg/lazyimport"
)

const eggsCUE = `doc: "eggs"
all: ["done"]
body: [
	{import: "spam"},
	{from: "pkg", names: ["a", "b as c"]},

	{print: "imports done"},
	{try: [
		{import: "optional"},
	], except: [
		{print: ""},
	]},
	{set: "done", value: 1},
]
`

func TestParseCUE(t *testing.T) {
	t.Parallel()

	u, err := Parse("eggs"+CUEExt, []byte(eggsCUE))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if u.Doc != "eggs" || !slices.Equal(u.All, []string{"done"}) || u.File != "eggs.lzm.cue" {
		t.Errorf("unit header = doc %q all %v file %q", u.Doc, u.All, u.File)
	}

	wantVerbs := []string{VerbImport, VerbFrom, VerbPrint, VerbTry, VerbSet}
	wantLines := []int{4, 5, 7, 8, 13}
	if len(u.Body) != len(wantVerbs) {
		t.Fatalf("len(Body) = %d, want %d", len(u.Body), len(wantVerbs))
	}
	for i := range u.Body {
		if got := u.Body[i].Verb(); got != wantVerbs[i] {
			t.Errorf("Body[%d].Verb() = %q, want %q", i, got, wantVerbs[i])
		}
		if got := u.Body[i].Line; got != wantLines[i] {
			t.Errorf("Body[%d].Line = %d, want %d", i, got, wantLines[i])
		}
	}

	try := u.Body[3]
	if len(try.Try) != 1 || try.Try[0].Line != 9 {
		t.Errorf("try block = %+v, want one statement on line 9", try.Try)
	}
	if len(try.Except) != 1 || try.Except[0].Print == nil || *try.Except[0].Print != "" || try.Except[0].Line != 11 {
		t.Errorf("except block = %+v, want an empty print on line 11", try.Except)
	}
}

func TestParseTOML(t *testing.T) {
	t.Parallel()

	data := `doc = "toml unit"

[[body]]
import = "spam"

[[body]]
from = "pkg"
names = ["*"]

[[body]]
line = 42
print = "hello"

[[body]]
set = "n"
value = 3
`
	u, err := Parse("m"+TOMLExt, []byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(u.Body) != 4 {
		t.Fatalf("len(Body) = %d, want 4", len(u.Body))
	}
	lines := []int{u.Body[0].Line, u.Body[1].Line, u.Body[2].Line, u.Body[3].Line}
	if !slices.Equal(lines, []int{1, 2, 42, 4}) {
		t.Errorf("lines = %v, want [1 2 42 4]", lines)
	}
	if u.Body[3].Value == nil {
		t.Error("set value was not decoded")
	}
}

func TestParseHCL(t *testing.T) {
	t.Parallel()

	data := `doc = "hcl unit"
all = ["n"]
body = [
  { import = "spam" },
  { from = "pkg", names = ["a", "b as c"] },
  {
    try = [
      { import = "eggs" },
    ]
    except = [{ print = "no eggs" }]
  },
  { set = "n", value = 3 },
]
`
	u, err := Parse("m"+HCLExt, []byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if u.Doc != "hcl unit" || !slices.Equal(u.All, []string{"n"}) {
		t.Errorf("Doc = %q, All = %v", u.Doc, u.All)
	}
	if len(u.Body) != 4 {
		t.Fatalf("len(Body) = %d, want 4", len(u.Body))
	}

	lines := []int{u.Body[0].Line, u.Body[1].Line, u.Body[2].Line, u.Body[2].Try[0].Line, u.Body[2].Except[0].Line, u.Body[3].Line}
	if !slices.Equal(lines, []int{4, 5, 6, 8, 10, 12}) {
		t.Errorf("lines = %v, want [4 5 6 8 10 12]", lines)
	}
	if spec, ok := u.Body[1].ImportSpec(u.File); !ok || spec.String() != "from pkg import a, b as c" {
		t.Errorf("ImportSpec() = %v, %v", spec, ok)
	}
	if u.Body[3].Value == nil {
		t.Error("set value was not decoded")
	}
}

func TestFormatOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file   string
		format string
		stem   string
		ok     bool
	}{
		{"main.lzm.cue", "cue", "main", true},
		{"pkg/init.lzm.toml", "toml", "pkg/init", true},
		{"m.lzm.hcl", "hcl", "m", true},
		{"lazymod.cue", "", "", false},
	}
	for _, tt := range tests {
		f, stem, ok := FormatOf(tt.file)
		if f.Name != tt.format || stem != tt.stem || ok != tt.ok {
			t.Errorf("FormatOf(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.file, f.Name, stem, ok, tt.format, tt.stem, tt.ok)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		file     string
		data     string
		contains string
	}{
		{"unknown extension", "m.cue", "body: []", "unknown unit format"},
		{"two verbs", "m.lzm.cue", "body: [\n\t{import: \"a\", print: \"x\"},\n]\n", "m.lzm.cue:2: body[0]: statement sets several verbs: import, print"},
		{"no verb", "m.lzm.cue", "body: [\n\t{as: \"x\"},\n]\n", "statement has no verb"},
		{"bad module name", "m.lzm.cue", "body: [{import: \"1bad\"}]", "body[0].import"},
		{"unknown key", "m.lzm.cue", "body: [{imprt: \"a\"}]", "imprt"},
		{"from without names", "m.lzm.cue", "body: [{from: \"a\"}]", "from requires at least one entry"},
		{"wildcard with names", "m.lzm.cue", "body: [{from: \"a\", names: [\"*\", \"b\"]}]", "wildcard import cannot list other names"},
		{"as on print", "m.lzm.cue", "body: [{print: \"x\", as: \"y\"}]", "'as' is only valid"},
		{"set without value", "m.lzm.cue", "body: [{set: \"x\"}]", "exactly one of 'value' or 'ref_value'"},
		{"try without except", "m.lzm.cue", "body: [{try: [{print: \"x\"}]}]", "try requires an 'except' block"},
		{"empty def body", "m.lzm.cue", "body: [{def: \"f\", body: []}]", "'body' block is empty"},
		{"nested error path", "m.lzm.cue", "body: [{with: [{from: \"a\"}]}]", "body[0].with[0]"},
		{"bad sleep", "m.lzm.cue", "body: [{sleep: \"soon\"}]", "sleep"},
		{"toml unknown key", "m.lzm.toml", "[[body]]\nimprt = \"a\"\n", "imprt"},
		{"toml syntax", "m.lzm.toml", "[[body]\n", "m.lzm.toml"},
		{"toml schema", "m.lzm.toml", "[[body]]\nimport = \"a-b\"\n", "body[0].import"},
		{"hcl unknown key", "m.lzm.hcl", "body = [{ imprt = \"a\" }]\n", "imprt"},
		{"hcl syntax", "m.lzm.hcl", "body = [\n", "m.lzm.hcl"},
		{"hcl block", "m.lzm.hcl", "body {\n}\n", "unexpected block \"body\""},
		{"hcl variable", "m.lzm.hcl", "body = [{ import = spam }]\n", "m.lzm.hcl:1"},
		{"hcl two verbs", "m.lzm.hcl", "body = [\n  { import = \"a\", print = \"x\" },\n]\n", "m.lzm.hcl:2: body[0]: statement sets several verbs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(tt.file, []byte(tt.data))
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Parse() error = %q, want it to contain %q", err, tt.contains)
			}
		})
	}
}

func TestStmt_ImportSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		stmt Stmt
		want string
		ok   bool
	}{
		{"import", Stmt{Import: "a.b", Line: 3}, "import a.b", true},
		{"import as", Stmt{Import: "a.b", As: "x"}, "import a.b as x", true},
		{"from", Stmt{From: "a", Names: []string{"x", "y as z"}}, "from a import x, y as z", true},
		{"wildcard", Stmt{From: "a", Names: []string{"*"}}, "from a import *", true},
		{"not an import", Stmt{Ref: "a"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec, ok := tt.stmt.ImportSpec("m.lzm.cue")
			if ok != tt.ok {
				t.Fatalf("ImportSpec() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got := spec.String(); got != tt.want {
				t.Errorf("ImportSpec() = %q, want %q", got, tt.want)
			}
			if spec.Site != (lazyimport.Site{File: "m.lzm.cue", Line: tt.stmt.Line}) {
				t.Errorf("Site = %v", spec.Site)
			}
		})
	}
}

func TestWalk(t *testing.T) {
	t.Parallel()

	body := []Stmt{
		{Import: "a"},
		{Def: "f", Body: []Stmt{{Import: "b"}, {Eager: []Stmt{{Import: "c"}}}}},
	}
	var got []string
	Walk(body, func(s *Stmt, depth int) {
		got = append(got, strings.Repeat(">", depth)+s.Verb())
	})
	want := []string{"import", "def", ">import", ">eager", ">>import"}
	if !slices.Equal(got, want) {
		t.Errorf("Walk() visited %v, want %v", got, want)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	_, err := Parse("m.lzm.cue", []byte("body: [{ref: \"a\", del: \"b\"}, {set: \"x\"}]"))
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error %T is not ValidationErrors", err)
	}
	if !errors.Is(err, ErrInvalidUnit) {
		t.Error("errors.Is(err, ErrInvalidUnit) = false")
	}
	if len(verrs) != 2 || !strings.HasPrefix(err.Error(), "validation failed with 2 errors:") {
		t.Errorf("Error() = %q", err)
	}
}
