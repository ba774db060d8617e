// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue/ast"
	"github.com/pelletier/go-toml/v2"

	"github.com/invowk/lazymod/pkg/cueutil"
)

var (
	//go:embed unit_schema.cue
	unitSchema []byte

	// ErrUnknownFormat is returned for files without a unit extension.
	ErrUnknownFormat = errors.New("unknown unit format")
	// ErrInvalidUnit is matched by every error returned from Parse.
	ErrInvalidUnit = errors.New("invalid unit")
)

// ParseError is returned by Parse. Its message is the message of Err.
// It wraps ErrInvalidUnit for errors.Is() compatibility.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string { return e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrInvalidUnit }

// ParseFile reads and parses the unit at path.
func ParseFile(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read unit at %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse parses unit content, choosing the format from the file extension.
func Parse(file string, data []byte) (*Unit, error) {
	u, err := parse(file, data)
	if err != nil {
		return nil, &ParseError{File: file, Err: err}
	}
	return u, nil
}

func parse(file string, data []byte) (*Unit, error) {
	f, _, _ := FormatOf(file)
	switch f.Ext {
	case CUEExt:
		return ParseCUE(file, data)
	case TOMLExt:
		return ParseTOML(file, data)
	case HCLExt:
		return ParseHCL(file, data)
	default:
		return nil, fmt.Errorf("%w: %s (want %s, %s or %s)", ErrUnknownFormat, file, CUEExt, TOMLExt, HCLExt)
	}
}

// ParseCUE parses a CUE unit. Statement lines come from the syntax tree.
func ParseCUE(file string, data []byte) (*Unit, error) {
	result, err := cueutil.ParseAndDecode[Unit](unitSchema, data, "#Unit", cueutil.WithFilename(file))
	if err != nil {
		return nil, err
	}

	u := result.Value
	u.File = file
	for _, decl := range result.File.Decls {
		if f, ok := decl.(*ast.Field); ok && labelName(f.Label) == "body" {
			assignLines(u.Body, f.Value)
		}
	}
	return finish(u)
}

// ParseTOML parses a TOML unit. The decoded document is checked against the
// same schema as CUE units. Statements without an explicit line get their
// ordinal in the file.
func ParseTOML(file string, data []byte) (*Unit, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, file); err != nil {
		return nil, err
	}

	var u Unit
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		return nil, tomlError(file, err)
	}

	// The JSON form of a decoded unit is valid CUE.
	if u.Body == nil {
		u.Body = []Stmt{}
	}
	doc, err := json.Marshal(&u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if _, err := cueutil.ParseAndDecode[Unit](unitSchema, doc, "#Unit", cueutil.WithFilename(file)); err != nil {
		return nil, err
	}

	u.File = file
	ordinal := 0
	Walk(u.Body, func(s *Stmt, _ int) {
		ordinal++
		if s.Line == 0 {
			s.Line = ordinal
		}
	})
	return finish(&u)
}

func finish(u *Unit) (*Unit, error) {
	if errs := u.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return u, nil
}

func tomlError(file string, err error) error {
	var decErr *toml.DecodeError
	if errors.As(err, &decErr) {
		row, _ := decErr.Position()
		return &cueutil.ValidationError{FilePath: file, Line: row, Message: decErr.Error()}
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		return &cueutil.ValidationError{FilePath: file, Message: strings.TrimSpace(strictErr.String())}
	}
	return fmt.Errorf("%s: %w", file, err)
}

// assignLines copies source lines from the list literal expr onto stmts.
func assignLines(stmts []Stmt, expr ast.Expr) {
	list, ok := expr.(*ast.ListLit)
	if !ok || len(list.Elts) != len(stmts) {
		return
	}
	for i, elt := range list.Elts {
		st, ok := elt.(*ast.StructLit)
		if !ok {
			continue
		}
		s := &stmts[i]
		if s.Line == 0 {
			s.Line = elt.Pos().Line()
		}
		for _, el := range st.Elts {
			f, ok := el.(*ast.Field)
			if !ok {
				continue
			}
			name := labelName(f.Label)
			for _, b := range s.blocks() {
				if b.key == name {
					assignLines(*b.stmts, f.Value)
				}
			}
		}
	}
}

func labelName(l ast.Label) string {
	name, _, err := ast.LabelName(l)
	if err != nil {
		return ""
	}
	return name
}
