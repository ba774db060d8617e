// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{"operation only", &ActionableError{Operation: "import module"}, "failed to import module"},
		{"with resource", &ActionableError{Operation: "import module", Resource: "spam"}, "failed to import module: spam"},
		{"with cause", &ActionableError{Operation: "load config", Cause: errors.New("bad key")}, "failed to load config: bad key"},
		{
			"full context",
			&ActionableError{Operation: "parse unit", Resource: "main.lzm.cue", Cause: errors.New("line 3: no verb")},
			"failed to parse unit: main.lzm.cue: line 3: no verb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("missing")
	err := NewErrorContext().
		WithOperation("import module").
		Wrap(fmt.Errorf("lookup: %w", sentinel)).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is() did not reach the wrapped sentinel")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) || ae.Operation != "import module" {
		t.Errorf("errors.As() = %v", ae)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("exit status 3")
	err := &ActionableError{
		Operation:   "run module",
		Resource:    "main",
		Suggestions: []string{"check the shell statement", "run with --verbose"},
		Cause:       fmt.Errorf("shell: %w", inner),
	}

	plain := err.Format(false)
	for _, want := range []string{"failed to run module: main: shell: exit status 3", "\n  • check the shell statement", "\n  • run with --verbose"} {
		if !strings.Contains(plain, want) {
			t.Errorf("Format(false) = %q, missing %q", plain, want)
		}
	}
	if strings.Contains(plain, "Error chain") {
		t.Error("Format(false) includes the error chain")
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. shell: exit status 3", "2. exit status 3"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) = %q, missing %q", verbose, want)
		}
	}
}

func TestActionableError_HasSuggestions(t *testing.T) {
	t.Parallel()

	if (&ActionableError{Operation: "x"}).HasSuggestions() {
		t.Error("HasSuggestions() = true without suggestions")
	}
	if !(&ActionableError{Operation: "x", Suggestions: []string{"y"}}).HasSuggestions() {
		t.Error("HasSuggestions() = false with a suggestion")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	t.Run("requires an operation", func(t *testing.T) {
		t.Parallel()
		ctx := NewErrorContext().WithResource("spam")
		if ctx.Build() != nil {
			t.Error("Build() without operation returned non-nil")
		}
		if ctx.BuildError() != nil {
			t.Error("BuildError() without operation returned a non-nil error")
		}
	})

	t.Run("carries every field", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("boom")
		ae := NewErrorContext().
			WithOperation("import module").
			WithResource("pkg").
			WithIssue(ModuleExecutionFailedId).
			WithSuggestion("a").
			WithSuggestions("b", "c").
			Wrap(cause).
			Build()

		if ae.Operation != "import module" || ae.Resource != "pkg" || ae.Issue != ModuleExecutionFailedId || ae.Cause != cause {
			t.Errorf("Build() = %+v", ae)
		}
		if got := strings.Join(ae.Suggestions, ","); got != "a,b,c" {
			t.Errorf("Suggestions = %q, want a,b,c", got)
		}
	})

	t.Run("reuse does not share suggestions", func(t *testing.T) {
		t.Parallel()
		ctx := NewErrorContext().WithOperation("load config").WithSuggestion("first")
		first := ctx.Build()
		second := ctx.WithSuggestion("second").Build()
		if len(first.Suggestions) != 1 || len(second.Suggestions) != 2 {
			t.Errorf("suggestions = %v / %v", first.Suggestions, second.Suggestions)
		}
	})
}

func TestWrapWithOperation(t *testing.T) {
	t.Parallel()

	if WrapWithOperation(nil, "x") != nil {
		t.Error("WrapWithOperation(nil) returned non-nil")
	}
	cause := errors.New("boom")
	ae := WrapWithOperation(cause, "check module")
	if ae.Operation != "check module" || !errors.Is(ae, cause) {
		t.Errorf("WrapWithOperation() = %+v", ae)
	}
}
