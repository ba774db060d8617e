// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrModuleNotFound is returned when a target module cannot be located.
	ErrModuleNotFound = errors.New("module not found")
	// ErrModuleExecution is returned when a located module fails while executing.
	ErrModuleExecution = errors.New("module execution failed")
	// ErrAttributeBinding is returned when `from X import name` finds no name in X.
	ErrAttributeBinding = errors.New("cannot import name")
	// ErrNameNotDefined is returned when a namespace has no entry for a key.
	ErrNameNotDefined = errors.New("name is not defined")
	// ErrInvalidImport is returned for malformed import statements or overrides.
	ErrInvalidImport = errors.New("invalid import")
)

type (
	// ModuleNotFoundError reports a module that discovery could not locate.
	// It wraps ErrModuleNotFound for errors.Is() compatibility.
	ModuleNotFoundError struct {
		// Name is the fully-qualified module name.
		Name string
		// Reason optionally explains why the module is unavailable.
		Reason string
		// Err is an optional underlying discovery error.
		Err error
	}

	// ModuleExecutionError reports a module whose body failed.
	// It wraps ErrModuleExecution for errors.Is() compatibility.
	ModuleExecutionError struct {
		// Module is the fully-qualified module name.
		Module string
		// File is the unit file of the module, when known.
		File string
		// Err is the failure raised by the module body.
		Err error
	}

	// AttributeBindingError reports a from-import whose name is missing.
	// It wraps ErrAttributeBinding for errors.Is() compatibility.
	AttributeBindingError struct {
		// Module is the module that was searched.
		Module string
		// Name is the missing attribute.
		Name string
		// Partial is set when the module was still executing (an import cycle).
		Partial bool
	}

	// DeferredImportError wraps any failure of a deferred resolution with the
	// location of the original import statement and of the read that triggered it.
	DeferredImportError struct {
		// Statement is the import statement text.
		Statement string
		// Import is the site of the import statement.
		Import Site
		// Access is the site of the read that triggered resolution.
		Access Site
		// Err is the underlying failure.
		Err error
	}

	// NameError reports a read of an undefined name.
	// It wraps ErrNameNotDefined for errors.Is() compatibility.
	NameError struct {
		// Name is the missing key.
		Name string
		// Namespace is the name of the searched namespace.
		Namespace string
	}
)

// Error implements the error interface.
func (e *ModuleNotFoundError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "no module named '%s'", e.Name)
	if e.Reason != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Reason)
	}
	if e.Err != nil && !errors.Is(e.Err, ErrModuleNotFound) {
		msg.WriteString(": ")
		msg.WriteString(e.Err.Error())
	}
	return msg.String()
}

// Unwrap returns the underlying discovery error.
func (e *ModuleNotFoundError) Unwrap() error { return e.Err }

// Is reports whether target is ErrModuleNotFound.
func (e *ModuleNotFoundError) Is(target error) bool { return target == ErrModuleNotFound }

// Error implements the error interface.
func (e *ModuleExecutionError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("module '%s' (%s) failed: %v", e.Module, e.File, e.Err)
	}
	return fmt.Sprintf("module '%s' failed: %v", e.Module, e.Err)
}

// Unwrap returns the failure raised by the module body.
func (e *ModuleExecutionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrModuleExecution.
func (e *ModuleExecutionError) Is(target error) bool { return target == ErrModuleExecution }

// Error implements the error interface.
func (e *AttributeBindingError) Error() string {
	msg := fmt.Sprintf("cannot import name '%s' from '%s'", e.Name, e.Module)
	if e.Partial {
		msg += " (most likely due to a circular import)"
	}
	return msg
}

// Is reports whether target is ErrAttributeBinding.
func (e *AttributeBindingError) Is(target error) bool { return target == ErrAttributeBinding }

// Error implements the error interface.
func (e *DeferredImportError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "deferred import `%s` at %s", e.Statement, e.Import)
	if !e.Access.IsZero() {
		fmt.Fprintf(&msg, " (accessed at %s)", e.Access)
	}
	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())
	return msg.String()
}

// Unwrap returns the underlying failure.
func (e *DeferredImportError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *NameError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("name '%s' is not defined in '%s'", e.Name, e.Namespace)
	}
	return fmt.Sprintf("name '%s' is not defined", e.Name)
}

// Is reports whether target is ErrNameNotDefined.
func (e *NameError) Is(target error) bool { return target == ErrNameNotDefined }
