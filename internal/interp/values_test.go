// SPDX-License-Identifier: MPL-2.0

package interp

import (
	"math/big"
	"testing"

	"github.com/invowk/lazymod/pkg/lazyimport"
)

func TestRepr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    any
		repr string
		str  string
	}{
		{"nil", nil, "null", "null"},
		{"string", "a\"b", `"a\"b"`, `a"b`},
		{"int", normalize(int(7)), "7", "7"},
		{"uint8", normalize(uint8(7)), "7", "7"},
		{"float", normalize(float32(0.5)), "0.5", "0.5"},
		{"big int", normalize(big.NewInt(12)), "12", "12"},
		{"bool", true, "true", "true"},
		{"list", normalize([]any{"x", 1, []any{false}}), `["x", 1, [false]]`, `["x", 1, [false]]`},
		{"map", normalize(map[string]any{"b": 2, "a": "s"}), `{a: "s", b: 2}`, `{a: "s", b: 2}`},
		{"module", &lazyimport.Module{Name: "m", File: "m.lzm.cue"}, "<module 'm' from 'm.lzm.cue'>", "<module 'm' from 'm.lzm.cue'>"},
		{"function", &Function{Name: "f", Module: "m"}, "<function m.f>", "<function m.f>"},
		{"class", &Class{Name: "C", Module: "m"}, "<class 'm.C'>", "<class 'm.C'>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Repr(tt.v); got != tt.repr {
				t.Errorf("Repr() = %s, want %s", got, tt.repr)
			}
			if got := Str(tt.v); got != tt.str {
				t.Errorf("Str() = %s, want %s", got, tt.str)
			}
		})
	}
}
