// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"
)

// Diagnostic codes.
const (
	CodePackageShadowsModule = "package_shadows_module"
	CodeFormatShadowed       = "format_shadowed"
	CodeModuleShadowed       = "module_shadowed"
	CodeInvalidModuleName    = "invalid_module_name"
	CodeSearchPathUnreadable = "search_path_unreadable"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "package_shadows_module").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}

	// ListResult bundles the modules found under the search paths with the
	// diagnostics produced while walking them.
	ListResult struct {
		Modules     []ModuleInfo
		Diagnostics []Diagnostic
	}
)

func warning(code, path, message string) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Code: code, Path: path, Message: message}
}
