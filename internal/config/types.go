// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/lazymod/pkg/lazyimport"
)

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"

	LogFormatText   LogFormat = "text"
	LogFormatJSON   LogFormat = "json"
	LogFormatLogfmt LogFormat = "logfmt"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidSearchPath is returned for empty or whitespace-only search paths.
	ErrInvalidSearchPath = errors.New("invalid search path")
	// ErrInvalidEagerPattern is returned for eager_modules entries that are
	// not valid glob patterns.
	ErrInvalidEagerPattern = errors.New("invalid eager module pattern")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of log events written to stderr.
	LogLevel string

	// LogFormat selects the log line encoding.
	LogFormat string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidLogFormatError is returned when a LogFormat value is not recognized.
	// It wraps ErrInvalidLogFormat for errors.Is() compatibility.
	InvalidLogFormatError struct {
		Value LogFormat
	}

	// InvalidSearchPathError reports a blank search_paths entry.
	// It wraps ErrInvalidSearchPath for errors.Is() compatibility.
	InvalidSearchPathError struct {
		Index int
	}

	// InvalidEagerPatternError reports a malformed eager_modules pattern.
	// It wraps ErrInvalidEagerPattern for errors.Is() compatibility.
	InvalidEagerPatternError struct {
		Pattern string
		Err     error
	}

	// InvalidConfigError collects the field errors of a Config.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the lazymod configuration.
	Config struct {
		// LazyImports enables deferred binding of top-level imports.
		LazyImports bool `json:"lazy_imports" mapstructure:"lazy_imports"`
		// SearchPaths are the module search roots, in lookup order.
		SearchPaths []string `json:"search_paths" mapstructure:"search_paths"`
		// EagerModules are module names or glob patterns whose imports always
		// run eagerly.
		EagerModules []string `json:"eager_modules" mapstructure:"eager_modules"`
		// ImportTime enables the import-time profiler.
		ImportTime bool `json:"import_time" mapstructure:"import_time"`
		// Log configures the stderr logger.
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level  LogLevel  `json:"level" mapstructure:"level"`
		Format LogFormat `json:"format" mapstructure:"format"`
	}
)

func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

func (f LogFormat) String() string { return string(f) }

// IsValid returns whether the LogFormat is one of the defined formats.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return true, nil
	default:
		return false, []error{&InvalidLogFormatError{Value: f}}
	}
}

func (e *InvalidLogFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (valid: text, json, logfmt)", e.Value)
}

func (e *InvalidLogFormatError) Unwrap() error { return ErrInvalidLogFormat }

func (e *InvalidSearchPathError) Error() string {
	return fmt.Sprintf("search_paths[%d]: empty path", e.Index)
}

func (e *InvalidSearchPathError) Unwrap() error { return ErrInvalidSearchPath }

func (e *InvalidEagerPatternError) Error() string {
	return fmt.Sprintf("eager_modules: %q: %v", e.Pattern, e.Err)
}

func (e *InvalidEagerPatternError) Unwrap() []error { return []error{ErrInvalidEagerPattern, e.Err} }

// IsValid returns whether the LogConfig has valid fields.
func (c LogConfig) IsValid() (bool, []error) {
	var errs []error
	if ok, fieldErrs := c.Level.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.Format.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the Config has valid fields. Values coming from the
// config file were already checked by the CUE schema; environment overrides
// are only checked here.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for i, p := range c.SearchPaths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, &InvalidSearchPathError{Index: i})
		}
	}
	for _, pattern := range c.EagerModules {
		if err := lazyimport.NewEagerOverrides().AddNames(pattern); err != nil {
			errs = append(errs, &InvalidEagerPatternError{Pattern: pattern, Err: err})
		}
	}
	if ok, fieldErrs := c.Log.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration: lazy imports off, the
// working directory as the only search path, warnings and errors logged as
// text.
func DefaultConfig() *Config {
	return &Config{
		LazyImports:  false,
		SearchPaths:  []string{"."},
		EagerModules: []string{},
		ImportTime:   false,
		Log: LogConfig{
			Level:  LogLevelWarn,
			Format: LogFormatText,
		},
	}
}
