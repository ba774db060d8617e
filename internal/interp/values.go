// SPDX-License-Identifier: MPL-2.0

package interp

import (
	"fmt"
	"maps"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/invowk/lazymod/pkg/lazyimport"
	"github.com/invowk/lazymod/pkg/unit"
)

type (
	// Function is a def statement's value.
	Function struct {
		Name   string
		Module string
		File   string
		Body   []unit.Stmt
		// Globals is the namespace of the defining module.
		Globals *lazyimport.Namespace
	}

	// Class is a class statement's value. Its body runs once, at definition,
	// against Namespace.
	Class struct {
		Name      string
		Module    string
		Namespace *lazyimport.Namespace
	}
)

// String renders the function.
func (fn *Function) String() string {
	return fmt.Sprintf("<function %s.%s>", fn.Module, fn.Name)
}

// String renders the class.
func (c *Class) String() string {
	return fmt.Sprintf("<class '%s.%s'>", c.Module, c.Name)
}

// Str formats v for print_ref: strings print bare, everything else as Repr.
func Str(v lazyimport.Value) string {
	if s, ok := v.(string); ok {
		return s
	}
	return Repr(v)
}

// Repr formats v for print_globals.
func Repr(v lazyimport.Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []string:
		parts := make([]string, len(x))
		for i, s := range x {
			parts[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Repr(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := slices.Sorted(maps.Keys(x))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + Repr(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// normalize maps decoded unit values onto int64, float64, string, bool, []any
// and map[string]any so units of every format print alike.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case *big.Int:
		if x.IsInt64() {
			return x.Int64()
		}
		return x.String()
	case *big.Float:
		f, _ := x.Float64()
		return f
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	default:
		return v
	}
}
