// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// ExitCode is the process exit status of the CLI.
type ExitCode int

const (
	// ExitOK is returned on success.
	ExitOK ExitCode = 0
	// ExitFailure is returned when a module fails to import or run.
	ExitFailure ExitCode = 1
	// ExitUsage is returned for invalid flags, arguments or configuration.
	ExitUsage ExitCode = 2
)

// ExitError carries an exit code out of a RunE handler without calling
// os.Exit there.
type ExitError struct {
	Code ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitUsage, Err: err}
}
