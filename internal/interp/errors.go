// SPDX-License-Identifier: MPL-2.0

package interp

import (
	"errors"
	"fmt"

	"github.com/invowk/lazymod/pkg/lazyimport"
)

var (
	// ErrRaised is returned by a raise statement.
	ErrRaised = errors.New("raised")
	// ErrAttribute is returned when a dotted reference names a missing attribute.
	ErrAttribute = errors.New("attribute error")
	// ErrNotCallable is returned when call names something other than a function.
	ErrNotCallable = errors.New("not callable")
	// ErrRecursion is returned when calls nest deeper than the call depth limit.
	ErrRecursion = errors.New("maximum call depth exceeded")
	// ErrShell is returned when a shell statement exits with a non-zero status.
	ErrShell = errors.New("shell command failed")
)

type (
	// RaiseError is the failure produced by a raise statement.
	// It wraps ErrRaised for errors.Is() compatibility.
	RaiseError struct {
		Message string
		Site    lazyimport.Site
	}

	// AttributeError reports a dotted reference to a missing attribute.
	// It wraps ErrAttribute for errors.Is() compatibility.
	AttributeError struct {
		Owner string
		Name  string
	}

	// ShellError reports a shell statement that exited with a non-zero status.
	// It wraps ErrShell for errors.Is() compatibility.
	ShellError struct {
		Status uint8
	}

	// StatementError attaches the statement site to a failure that does not
	// carry a location of its own.
	StatementError struct {
		Site lazyimport.Site
		Verb string
		Err  error
	}
)

// Error implements the error interface.
func (e *RaiseError) Error() string {
	return fmt.Sprintf("%s (raised at %s)", e.Message, e.Site)
}

// Unwrap returns ErrRaised for errors.Is() compatibility.
func (e *RaiseError) Unwrap() error { return ErrRaised }

// Error implements the error interface.
func (e *AttributeError) Error() string {
	return fmt.Sprintf("%s has no attribute '%s'", e.Owner, e.Name)
}

// Unwrap returns ErrAttribute for errors.Is() compatibility.
func (e *AttributeError) Unwrap() error { return ErrAttribute }

// Error implements the error interface.
func (e *ShellError) Error() string {
	return fmt.Sprintf("shell command exited with status %d", e.Status)
}

// Unwrap returns ErrShell for errors.Is() compatibility.
func (e *ShellError) Unwrap() error { return ErrShell }

// Error implements the error interface.
func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Site, e.Verb, e.Err)
}

// Unwrap returns the underlying error.
func (e *StatementError) Unwrap() error { return e.Err }

// atSite wraps err with the statement site unless it already reports one.
func atSite(err error, site lazyimport.Site, verb string) error {
	switch err.(type) {
	case nil:
		return nil
	case *StatementError, *RaiseError, *lazyimport.DeferredImportError:
		return err
	}
	return &StatementError{Site: site, Verb: verb, Err: err}
}
