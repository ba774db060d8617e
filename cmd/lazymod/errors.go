// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"

	"github.com/invowk/lazymod/internal/interp"
	"github.com/invowk/lazymod/internal/issue"
	"github.com/invowk/lazymod/pkg/lazyimport"
	"github.com/invowk/lazymod/pkg/unit"
)

// classifyModuleError maps a module system failure to its issue catalog entry
// and remediation hints. The first matching class wins, so causes that are
// usually wrapped by others come first.
func classifyModuleError(err error) (issue.Id, []string) {
	switch {
	case errors.Is(err, lazyimport.ErrModuleNotFound):
		return issue.ModuleNotFoundId, []string{
			"Add the directory holding the module with --path",
			"Run 'lazymod modules' to list the modules on the search path",
		}
	case errors.Is(err, unit.ErrInvalidUnit):
		return issue.UnitParseErrorId, []string{"Run 'lazymod check' on the module to validate it"}
	case errors.Is(err, lazyimport.ErrInvalidImport):
		return issue.InvalidImportId, []string{"Module names are dotted identifiers such as pkg.sub"}
	case errors.Is(err, lazyimport.ErrAttributeBinding):
		return issue.AttributeBindingFailedId, []string{"Check the names listed in the from-import"}
	case errors.Is(err, lazyimport.ErrNameNotDefined):
		return issue.NameNotDefinedId, []string{"Define or import the name before reading it"}
	case errors.Is(err, interp.ErrShell):
		return issue.ShellCommandFailedId, []string{"Run the shell statement by hand to see why it fails"}
	default:
		return issue.ModuleExecutionFailedId, []string{"Run with --lazy=false to fail at the import statement instead"}
	}
}

// moduleError wraps a failure of operation on module for display.
// Cancellation is reported as is.
func moduleError(operation, module string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	id, suggestions := classifyModuleError(err)
	return &ExitError{
		Code: ExitFailure,
		Err: issue.NewErrorContext().
			WithOperation(operation).
			WithResource(module).
			WithIssue(id).
			WithSuggestions(suggestions...).
			Wrap(err).
			BuildError(),
	}
}
