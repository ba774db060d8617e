// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/lazymod/pkg/lazyimport"
	"github.com/invowk/lazymod/pkg/unit"
)

// InitName is the base name of a package initialiser unit.
const InitName = "init"

const (
	// SourceSearchPath indicates the unit was found below a search path.
	SourceSearchPath Source = iota
	// SourceMemory indicates the unit was registered in a Memory finder.
	SourceMemory
)

type (
	// Source tells where a unit was found.
	Source int

	// ModuleInfo describes a located unit.
	ModuleInfo struct {
		// Name is the fully-qualified module name.
		Name string
		// Path is the unit file.
		Path string
		// Package is set for package initialisers.
		Package bool
		// Format is "cue" or "toml".
		Format string
		// Root is the search path the unit was found under.
		Root string
		// Source indicates where the unit was found.
		Source Source
	}

	// Option configures a Discovery.
	Option func(*Discovery)

	// Discovery finds units below an ordered list of search paths. It
	// implements lazyimport.Finder.
	Discovery struct {
		paths  []string
		logger *slog.Logger
	}
)

// String returns a human-readable source name.
func (s Source) String() string {
	switch s {
	case SourceSearchPath:
		return "search path"
	case SourceMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// WithLogger sets the logger used for discovery warnings.
func WithLogger(l *slog.Logger) Option {
	return func(d *Discovery) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Discovery over paths. An empty list searches the current directory.
func New(paths []string, opts ...Option) *Discovery {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	d := &Discovery{
		paths:  append([]string(nil), paths...),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SearchPaths returns the search paths in lookup order.
func (d *Discovery) SearchPaths() []string {
	return append([]string(nil), d.paths...)
}

// Find locates and reads the unit of name. Diagnostics are logged as warnings.
func (d *Discovery) Find(ctx context.Context, name string) (*lazyimport.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, diags, err := d.Locate(name)
	for _, diag := range diags {
		d.logger.WarnContext(ctx, diag.Message, slog.String("code", diag.Code), slog.String("path", diag.Path))
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(info.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module '%s' at %s: %w", name, info.Path, err)
	}
	return &lazyimport.Source{Name: name, File: info.Path, Package: info.Package, Data: data}, nil
}

// Locate returns the unit name resolves to without reading it. It returns a
// *lazyimport.ModuleNotFoundError when no search path holds the module.
func (d *Discovery) Locate(name string) (*ModuleInfo, []Diagnostic, error) {
	parts, err := splitModuleName(name)
	if err != nil {
		return nil, nil, err
	}
	for _, root := range d.paths {
		if info, diags := locateIn(root, parts); info != nil {
			info.Name = name
			return info, diags, nil
		}
	}
	return nil, nil, &lazyimport.ModuleNotFoundError{Name: name}
}

// locateIn resolves parts below root. A package initialiser shadows a module
// file with the same name.
func locateIn(root string, parts []string) (*ModuleInfo, []Diagnostic) {
	base := filepath.Join(append([]string{root}, parts...)...)

	pkgPath, pkgFormat, diags := pickFormat(filepath.Join(base, InitName))
	modPath, modFormat, modDiags := pickFormat(base)

	switch {
	case pkgPath != "":
		if modPath != "" {
			diags = append(diags, warning(CodePackageShadowsModule, modPath,
				fmt.Sprintf("module file %s is shadowed by package %s", modPath, pkgPath)))
		}
		return &ModuleInfo{Path: pkgPath, Package: true, Format: pkgFormat, Root: root, Source: SourceSearchPath}, diags
	case modPath != "":
		return &ModuleInfo{Path: modPath, Format: modFormat, Root: root, Source: SourceSearchPath}, modDiags
	default:
		return nil, nil
	}
}

// pickFormat returns the unit at base in the first format of unit.Formats
// that exists. Units of later formats are reported as shadowed.
func pickFormat(base string) (path, format string, diags []Diagnostic) {
	for _, f := range unit.Formats {
		candidate := base + f.Ext
		if !isFile(candidate) {
			continue
		}
		if path == "" {
			path, format = candidate, f.Name
			continue
		}
		diags = append(diags, warning(CodeFormatShadowed, candidate,
			fmt.Sprintf("%s is ignored because %s exists", candidate, path)))
	}
	return path, format, diags
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func splitModuleName(name string) ([]string, error) {
	parts := strings.Split(name, ".")
	for _, p := range parts {
		if !isIdentifier(p) {
			return nil, fmt.Errorf("%w: '%s' is not a valid module name", lazyimport.ErrInvalidImport, name)
		}
	}
	return parts, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
