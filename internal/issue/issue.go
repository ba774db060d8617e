// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ModuleNotFoundId Id = iota + 1
	ModuleExecutionFailedId
	AttributeBindingFailedId
	NameNotDefinedId
	UnitParseErrorId
	InvalidImportId
	ShellCommandFailedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type Issue struct {
	id    Id
	title string
	mdMsg MarkdownMsg
}

func (i *Issue) Id() Id {
	return i.id
}

// Title is the first heading of the entry, used in listings.
func (i *Issue) Title() string {
	return i.title
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the entry for the terminal. stylePath is a glamour style
// name ("dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	return render("# "+i.title+"\n"+string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	moduleNotFoundIssue = &Issue{
		id:    ModuleNotFoundId,
		title: "No module with that name",
		mdMsg: `
The module is looked up in every search path, in order. A module ` + "`a.b`" + ` is
either a file ` + "`a/b.lzm.cue`" + ` (or ` + "`.lzm.toml`" + `) or a package
directory ` + "`a/b/`" + ` holding ` + "`init.lzm.cue`" + `.

With lazy imports enabled this error surfaces where the name is first
used, not at the import statement. Both locations are reported.

## Things you can try
- Add the directory holding the module:
~~~
$ lazymod run main --path ./modules
~~~
- List what lazymod can see:
~~~
$ lazymod modules --path ./modules
~~~`,
	}

	moduleExecutionFailedIssue = &Issue{
		id:    ModuleExecutionFailedId,
		title: "A module failed while executing",
		mdMsg: `
A statement in the module body raised an error. The module is marked as
failed and is not executed again; every later access re-reports the same
failure.

## Things you can try
- Look at the raise site printed after "raised at".
- Run the module eagerly to see the failure at the import statement:
~~~
$ lazymod run main --lazy=false
~~~`,
	}

	attributeBindingFailedIssue = &Issue{
		id:    AttributeBindingFailedId,
		title: "Cannot import a name",
		mdMsg: `
` + "`from m import x`" + ` found neither an attribute ` + "`x`" + ` of ` + "`m`" + ` nor a
submodule ` + "`m.x`" + `.

When the message mentions a circular import, ` + "`m`" + ` was still executing
and had not defined ` + "`x`" + ` yet.

## Things you can try
- Check the spelling and the module's ` + "`all`" + ` list.
- Move the import below the definition, or use ` + "`import m`" + ` and access
  ` + "`m.x`" + ` later.`,
	}

	nameNotDefinedIssue = &Issue{
		id:    NameNotDefinedId,
		title: "Name is not defined",
		mdMsg: `
The statement reads a name that is neither a local, a global of the module,
nor bound by an import.

## Things you can try
- Print the globals of the module with ` + "`{print_globals: true}`" + `.`,
	}

	unitParseErrorIssue = &Issue{
		id:    UnitParseErrorId,
		title: "Invalid unit file",
		mdMsg: `
A unit must decode against the unit schema and each statement must set
exactly one verb.

## Example unit
~~~cue
doc: "greets"
body: [
	{import: "spam"},
	{print_ref: "spam.name"},
]
~~~

## Things you can try
~~~
$ lazymod check main
~~~`,
	}

	invalidImportIssue = &Issue{
		id:    InvalidImportId,
		title: "Invalid import statement",
		mdMsg: `
Module names are dotted identifiers such as ` + "`pkg.sub`" + `. Relative names and
empty segments are not supported.`,
	}

	shellCommandFailedIssue = &Issue{
		id:    ShellCommandFailedId,
		title: "Shell statement failed",
		mdMsg: `
A ` + "`shell:`" + ` statement exited with a non-zero status. The module that ran it
fails like any other raise.

The command sees ` + "`LAZYMOD_MODULE`" + ` and ` + "`LAZYMOD_FILE`" + ` in its environment.`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		title: "Failed to load the configuration",
		mdMsg: `
The file must validate against the configuration schema.

## Example
~~~cue
lazy_imports: true
search_paths: ["./modules"]
eager_modules: ["vendor.*"]
log: {level: "info", format: "text"}
~~~

## Things you can try
~~~
$ lazymod config show
~~~`,
	}

	issues = map[Id]*Issue{
		moduleNotFoundIssue.Id():         moduleNotFoundIssue,
		moduleExecutionFailedIssue.Id():  moduleExecutionFailedIssue,
		attributeBindingFailedIssue.Id(): attributeBindingFailedIssue,
		nameNotDefinedIssue.Id():         nameNotDefinedIssue,
		unitParseErrorIssue.Id():         unitParseErrorIssue,
		invalidImportIssue.Id():          invalidImportIssue,
		shellCommandFailedIssue.Id():     shellCommandFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	all := maps.Values(issues)
	slices.SortFunc(all, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return all
}

func Get(id Id) *Issue {
	return issues[id]
}
