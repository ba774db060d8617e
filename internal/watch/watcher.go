// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when unit files on the module search path
// change.
//
// Every directory below the search path roots is registered with fsnotify.
// Paths are matched against doublestar patterns relative to their root: files
// outside Config.Patterns or inside Config.Ignore are dropped, and events
// arriving within the debounce window are coalesced so the callback fires once
// with the full set of changed files.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/invowk/lazymod/pkg/unit"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is not set.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrAlreadyStarted is returned by a second call to Run.
	ErrAlreadyStarted = errors.New("watcher already started")
	// ErrInvalidPattern is returned by New for a malformed glob pattern.
	ErrInvalidPattern = errors.New("invalid watch pattern")
)

// defaultIgnores are always excluded: hidden directories (VCS metadata
// included), dependency caches and editor backup files.
var defaultIgnores = []string{
	"**/.*/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*~",
}

type (
	// Config holds the parameters of a Watcher.
	Config struct {
		// Roots are the directories to watch recursively. Missing roots are
		// skipped.
		Roots []string

		// Patterns are doublestar globs, relative to a root, of the files that
		// trigger callbacks. Empty means UnitPatterns().
		Patterns []string

		// Ignore are doublestar globs, relative to a root, of paths that never
		// trigger callbacks. Matching directories are not watched. They are
		// merged with DefaultIgnores().
		Ignore []string

		// Debounce is the quiet period after the last event before OnChange
		// fires.
		Debounce time.Duration

		// OnChange receives the sorted, deduplicated changed files. Calls never
		// overlap; changes arriving during a call are delivered after it.
		OnChange func(ctx context.Context, changed []string) error

		Logger *slog.Logger
	}

	// Watcher monitors unit files and fires a debounced callback when they
	// change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		logger   *slog.Logger
		debounce time.Duration
		roots    []string
		patterns []string
		ignores  []string
		started  atomic.Bool
	}
)

// UnitPatterns returns the patterns matching unit files of every format.
func UnitPatterns() []string {
	patterns := make([]string, 0, len(unit.Formats))
	for _, f := range unit.Formats {
		patterns = append(patterns, "**/?*"+f.Ext)
	}
	return patterns
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// New registers every directory below cfg.Roots with a new fsnotify watcher.
func New(cfg Config) (*Watcher, error) {
	w := &Watcher{
		cfg:      cfg,
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
		patterns: cfg.Patterns,
		ignores:  append(DefaultIgnores(), cfg.Ignore...),
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if len(w.patterns) == 0 {
		w.patterns = UnitPatterns()
	}
	for _, pat := range slices.Concat(w.patterns, w.ignores) {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("%w %q", ErrInvalidPattern, pat)
		}
	}
	for _, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve search path %s: %w", root, err)
		}
		w.roots = append(w.roots, abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w.fsw = fsw

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run dispatches events until ctx is cancelled, which returns nil once a
// callback in progress has returned. Fatal watcher errors end the loop with an
// error; others are logged.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close file watcher", "error", err)
		}
	}()

	var (
		mu       sync.Mutex
		pending  = make(map[string]struct{})
		timer    *time.Timer
		stopped  bool
		running  atomic.Bool
		inflight sync.WaitGroup
	)

	fire := func() {
		mu.Lock()
		if stopped || ctx.Err() != nil {
			mu.Unlock()
			return
		}
		if !running.CompareAndSwap(false, true) {
			// Retry once the running callback is done.
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		inflight.Add(1)
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		defer inflight.Done()
		defer running.Store(false)
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}

		w.logger.Debug("unit files changed", "files", changed)
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Debug("change callback failed", "error", err)
		}
	}

	defer func() {
		mu.Lock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		inflight.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("file watcher event channel closed")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if evt.Op == fsnotify.Chmod || !w.tracks(evt.Name) {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("file watcher error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("file watcher failed: %w", err)
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// tracks reports whether a change to path triggers the callback.
func (w *Watcher) tracks(path string) bool {
	rel, ok := w.relative(path)
	return ok && !w.ignored(rel) && matchAny(w.patterns, rel)
}

// relative returns path relative to the first root containing it, with
// forward slashes.
func (w *Watcher) relative(path string) (string, bool) {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return filepath.ToSlash(rel), true
	}
	return "", false
}

// ignored reports whether rel, a file or directory, matches an ignore pattern.
func (w *Watcher) ignored(rel string) bool {
	return matchAny(w.ignores, rel) || matchAny(w.ignores, rel+"/")
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// addTree registers dir and every directory below it. Ignored directories are
// skipped, as are directories that cannot be read.
func (w *Watcher) addTree(dir string) error {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		w.logger.Debug("not watching missing search path", "path", dir)
		return nil
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("not watching unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(path); ok && rel != "." && w.ignored(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch search path %s: %w", dir, err)
	}
	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("watch new directory", "path", path, "error", err)
	}
}
