// SPDX-License-Identifier: MPL-2.0

// Package issue turns lazymod failures into user-facing messages.
//
// ActionableError records what was being attempted, on which module or file,
// and what the user can try next. Each error may point at an entry of the
// issue catalog, a set of Markdown pages rendered with glamour when the CLI
// runs with --verbose.
package issue
