// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/invowk/lazymod/pkg/cueutil"
)

// ParseHCL parses an HCL unit. The file holds the attributes doc, all and
// body; body is a tuple of objects, one per statement:
//
//	body = [
//	  { import = "spam" },
//	  { from = "pkg", names = ["a", "b as c"] },
//	]
//
// The evaluated document is checked against the same schema as CUE units.
// Statement lines come from the syntax tree. Expressions are evaluated
// without variables or functions.
func ParseHCL(file string, data []byte) (*Unit, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, file); err != nil {
		return nil, err
	}

	f, diags := hclsyntax.ParseConfig(data, file, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, hclError(file, diags)
	}
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected HCL body %T", file, f.Body)
	}
	if len(body.Blocks) > 0 {
		b := body.Blocks[0]
		return nil, &cueutil.ValidationError{
			FilePath: file,
			Line:     b.DefRange().Start.Line,
			Message:  fmt.Sprintf("unexpected block %q: units hold attributes only", b.Type),
		}
	}

	doc := make(map[string]json.RawMessage, len(body.Attributes))
	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, hclError(file, diags)
		}
		raw, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			return nil, &cueutil.ValidationError{FilePath: file, Line: attr.SrcRange.Start.Line, CUEPath: name, Message: err.Error()}
		}
		doc[name] = raw
	}
	if _, ok := doc["body"]; !ok {
		doc["body"] = json.RawMessage("[]")
	}

	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	result, err := cueutil.ParseAndDecode[Unit](unitSchema, js, "#Unit", cueutil.WithFilename(file))
	if err != nil {
		return nil, err
	}

	u := result.Value
	u.File = file
	if attr, ok := body.Attributes["body"]; ok {
		assignHCLLines(u.Body, attr.Expr)
	}
	return finish(u)
}

// assignHCLLines copies source lines from the tuple expression expr onto stmts.
func assignHCLLines(stmts []Stmt, expr hclsyntax.Expression) {
	tuple, ok := expr.(*hclsyntax.TupleConsExpr)
	if !ok || len(tuple.Exprs) != len(stmts) {
		return
	}
	for i, elt := range tuple.Exprs {
		obj, ok := elt.(*hclsyntax.ObjectConsExpr)
		if !ok {
			continue
		}
		s := &stmts[i]
		if s.Line == 0 {
			s.Line = elt.Range().Start.Line
		}
		for _, item := range obj.Items {
			key := objectKey(item.KeyExpr)
			for _, b := range s.blocks() {
				if b.key == key {
					assignHCLLines(*b.stmts, item.ValueExpr)
				}
			}
		}
	}
}

// objectKey returns the literal name of an object key, or "".
func objectKey(expr hclsyntax.Expression) string {
	v, diags := expr.Value(nil)
	if diags.HasErrors() || !v.IsKnown() || v.IsNull() || v.Type() != cty.String {
		return ""
	}
	return v.AsString()
}

func hclError(file string, diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + strings.TrimSuffix(d.Detail, ".")
		}
		line := 0
		if d.Subject != nil {
			line = d.Subject.Start.Line
		}
		return &cueutil.ValidationError{FilePath: file, Line: line, Message: msg}
	}
	return fmt.Errorf("%s: %w", file, diags)
}
