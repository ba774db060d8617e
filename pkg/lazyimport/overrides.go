// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// EagerOverrides is the set of modules whose import statements stay eager.
// Entries are exact module names, glob patterns and predicates; a module matches
// if any entry matches. Entries are only ever added.
type EagerOverrides struct {
	mu    sync.RWMutex
	names map[string]struct{}

	// patterns are doublestar globs over module paths with '.' mapped to '/'.
	patterns   []string
	predicates []func(string) bool
}

// NewEagerOverrides creates an empty override registry.
func NewEagerOverrides() *EagerOverrides {
	return &EagerOverrides{names: make(map[string]struct{})}
}

// AddNames registers module names. A name containing glob metacharacters
// (`*`, `?`, `[`, `{`) is a doublestar pattern whose separator is the dot:
// `vendor.*` matches direct children of vendor, `vendor.**` every descendant.
func (o *EagerOverrides) AddNames(names ...string) error {
	var exact, patterns []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return fmt.Errorf("%w: empty eager module name", ErrInvalidImport)
		}
		if !strings.ContainsAny(n, "*?[{") {
			exact = append(exact, n)
			continue
		}
		p := modulePath(n)
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: eager module pattern '%s' is malformed", ErrInvalidImport, n)
		}
		patterns = append(patterns, p)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, n := range exact {
		o.names[n] = struct{}{}
	}
	o.patterns = append(o.patterns, patterns...)
	return nil
}

// AddPredicate registers a predicate over fully-qualified module names.
func (o *EagerOverrides) AddPredicate(fn func(module string) bool) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	o.predicates = append(o.predicates, fn)
}

// Matches reports whether module is registered.
func (o *EagerOverrides) Matches(module string) bool {
	o.mu.RLock()
	_, ok := o.names[module]
	patterns := o.patterns
	predicates := o.predicates
	o.mu.RUnlock()

	if ok {
		return true
	}
	if len(patterns) > 0 {
		mp := modulePath(module)
		for _, p := range patterns {
			if matched, err := doublestar.Match(p, mp); err == nil && matched {
				return true
			}
		}
	}
	// Predicates run without the lock so they may register further entries.
	for _, fn := range predicates {
		if fn(module) {
			return true
		}
	}
	return false
}

// Len returns the number of registered entries.
func (o *EagerOverrides) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.names) + len(o.patterns) + len(o.predicates)
}

// modulePath maps a dotted module name onto a slash-separated path.
func modulePath(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
