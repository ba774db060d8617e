// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/lazymod/pkg/unit"
)

// List enumerates every module below the search paths. Each name is reported
// once, resolved the same way Find resolves it; units hidden by an earlier
// search path or by a sibling with higher precedence produce diagnostics.
func (d *Discovery) List(ctx context.Context) (*ListResult, error) {
	result := &ListResult{}
	seen := make(map[string]string)

	for _, root := range d.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		names, diags, err := unitNames(root)
		result.Diagnostics = append(result.Diagnostics, diags...)
		if err != nil {
			if !isNotExist(err) {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					Severity: SeverityError,
					Code:     CodeSearchPathUnreadable,
					Message:  fmt.Sprintf("cannot read search path %s", root),
					Path:     root,
					Cause:    err,
				})
			}
			continue
		}

		for _, name := range names {
			info, diags := locateIn(root, strings.Split(name, "."))
			if info == nil {
				continue
			}
			info.Name = name
			if first, ok := seen[name]; ok {
				result.Diagnostics = append(result.Diagnostics, warning(CodeModuleShadowed, info.Path,
					fmt.Sprintf("module '%s' at %s is shadowed by %s", name, info.Path, first)))
				continue
			}
			seen[name] = info.Path
			result.Diagnostics = append(result.Diagnostics, diags...)
			result.Modules = append(result.Modules, *info)
		}
	}

	slices.SortFunc(result.Modules, func(a, b ModuleInfo) int { return strings.Compare(a.Name, b.Name) })
	return result, nil
}

// unitNames returns the distinct module names with a unit file below root.
func unitNames(root string) ([]string, []Diagnostic, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, nil, err
	}
	if !fi.IsDir() {
		return nil, nil, fmt.Errorf("%s is not a directory", root)
	}

	var (
		names []string
		diags []Diagnostic
	)
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if entry.IsDir() {
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		stem, ok := unitStem(entry.Name())
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Join(filepath.Dir(path), stem))
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if parts[len(parts)-1] == InitName {
			parts = parts[:len(parts)-1]
		}

		name := strings.Join(parts, ".")
		if len(parts) == 0 || slices.ContainsFunc(parts, func(p string) bool { return !isIdentifier(p) }) {
			diags = append(diags, warning(CodeInvalidModuleName, path,
				fmt.Sprintf("%s does not map to a valid module name", path)))
			return nil
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
		return nil
	})
	return names, diags, err
}

func unitStem(file string) (string, bool) {
	_, stem, ok := unit.FormatOf(file)
	return stem, ok && stem != ""
}
