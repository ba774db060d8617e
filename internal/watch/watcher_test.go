// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_Tracks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := New(Config{Roots: []string{dir}, Ignore: []string{"vendor/**"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = w.Run(ctx)
	})

	tests := []struct {
		path string
		want bool
	}{
		{"main.lzm.cue", true},
		{"pkg/init.lzm.toml", true},
		{"pkg/sub/leaf.lzm.hcl", true},
		{"lazymod.cue", false},
		{"main.lzm.cue.swp", false},
		{".lzm.cue", false},
		{"notes.txt", false},
		{".git/main.lzm.cue", false},
		{"node_modules/x/main.lzm.cue", false},
		{"vendor/lib.lzm.cue", false},
		{"../outside.lzm.cue", false},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, filepath.FromSlash(tt.path))
		if got := w.tracks(path); got != tt.want {
			t.Errorf("tracks(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Roots: []string{t.TempDir()}, Ignore: []string{"vendor/["}})
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("New() error = %v, want ErrInvalidPattern", err)
	}
}

func TestWatcher_FiresForUnitFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	changes := make(chan []string, 4)
	w, err := New(Config{
		Roots:    []string{dir, filepath.Join(dir, "missing")},
		Debounce: 20 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the event loop a moment to start before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	unitPath := filepath.Join(dir, "main.lzm.cue")
	if err := os.WriteFile(unitPath, []byte("body: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if !slices.Equal(got, []string{unitPath}) {
			t.Errorf("changed = %v, want [%s]", got, unitPath)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change callback after writing a unit file")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil after cancellation", err)
	}
}

func TestWatcher_RunOnce(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Roots: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if err := w.Run(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Run() = %v, want ErrAlreadyStarted", err)
	}
}

func TestWatcher_RunWaitsForCallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entered := make(chan struct{})
	var (
		once     sync.Once
		finished atomic.Bool
	)
	w, err := New(Config{
		Roots:    []string{dir},
		Debounce: 10 * time.Millisecond,
		OnChange: func(context.Context, []string) error {
			once.Do(func() { close(entered) })
			time.Sleep(100 * time.Millisecond)
			finished.Store(true)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "main.lzm.cue"), []byte("body: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("no change callback after writing a unit file")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if !finished.Load() {
		t.Error("Run() returned while the change callback was still running")
	}
}
