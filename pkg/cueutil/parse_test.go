// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"

	"cuelang.org/go/cue/ast"
)

const testSchema = `
#TestConfig: {
	name:         string
	count:        int
	enabled:      bool
	description?: string
}
`

type TestConfig struct {
	Name        string `json:"name"`
	Count       int    `json:"count"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid data decodes", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
name: "test"
count: 42
enabled: true
description: "A test config"
`)
		result, err := ParseAndDecode[TestConfig]([]byte(testSchema), data, "#TestConfig")
		if err != nil {
			t.Fatalf("ParseAndDecode failed: %v", err)
		}
		want := TestConfig{Name: "test", Count: 42, Enabled: true, Description: "A test config"}
		if *result.Value != want {
			t.Errorf("Value = %+v, want %+v", *result.Value, want)
		}
	})

	t.Run("syntax tree keeps positions", func(t *testing.T) {
		t.Parallel()

		data := []byte("name: \"test\"\n\ncount: 1\nenabled: false\n")
		result, err := ParseAndDecode[TestConfig]([]byte(testSchema), data, "#TestConfig", WithFilename("pos.cue"))
		if err != nil {
			t.Fatalf("ParseAndDecode failed: %v", err)
		}
		lines := map[string]int{}
		for _, decl := range result.File.Decls {
			if f, ok := decl.(*ast.Field); ok {
				name, _, _ := ast.LabelName(f.Label)
				lines[name] = f.Pos().Line()
			}
		}
		if lines["name"] != 1 || lines["count"] != 3 || lines["enabled"] != 4 {
			t.Errorf("field lines = %v", lines)
		}
	})

	errorCases := []struct {
		name     string
		data     string
		opts     []Option
		contains string
	}{
		{"invalid type", "name: \"t\"\ncount: \"x\"\nenabled: true\n", nil, "count"},
		{"missing field", "name: \"t\"\nenabled: true\n", nil, "count"},
		{"syntax error", "name: \"t\n", nil, "my.cue"},
		{"filename in errors", "name: \"t\"\ncount: \"x\"\nenabled: true\n", nil, "my.cue"},
		{"size limit", "name: \"a long enough value\"\ncount: 1\nenabled: true\n", []Option{WithMaxFileSize(10)}, "exceeds maximum"},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := append([]Option{WithFilename("my.cue")}, tt.opts...)
			_, err := ParseAndDecode[TestConfig]([]byte(testSchema), []byte(tt.data), "#TestConfig", opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error should contain %q, got: %v", tt.contains, err)
			}
		})
	}

	t.Run("non-concrete allowed", func(t *testing.T) {
		t.Parallel()

		schema := []byte("#Opt: {\n\tname?: string\n}\n")
		result, err := ParseAndDecode[map[string]any](schema, []byte(""), "#Opt", WithConcrete(false))
		if err != nil {
			t.Fatalf("ParseAndDecode failed: %v", err)
		}
		if len(*result.Value) != 0 {
			t.Errorf("Value = %v, want empty map", *result.Value)
		}
	})

	t.Run("missing definition", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[TestConfig]([]byte(testSchema), []byte(""), "#Nope")
		if err == nil || !strings.Contains(err.Error(), "#Nope") {
			t.Errorf("expected schema definition error, got %v", err)
		}
	})
}
