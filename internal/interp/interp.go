// SPDX-License-Identifier: MPL-2.0

package interp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/invowk/lazymod/pkg/lazyimport"
	"github.com/invowk/lazymod/pkg/unit"
)

// DefaultMaxCallDepth bounds nested call statements.
const DefaultMaxCallDepth = 100

type (
	// Clock is the time source of sleep statements.
	Clock interface {
		Now() time.Time
		After(d time.Duration) <-chan time.Time
	}

	// Option configures an Interpreter.
	Option func(*Interpreter)

	// Interpreter runs unit bodies. It implements lazyimport.Executor and is
	// safe for concurrent use by several threads of control.
	Interpreter struct {
		stdout       io.Writer
		stderr       io.Writer
		clock        Clock
		logger       *slog.Logger
		dir          string
		env          []string
		maxCallDepth int

		// outMu serialises writes to stdout and stderr.
		outMu sync.Mutex
	}

	realClock struct{}
)

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// WithStdout sets the writer of print statements and shell output.
func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) { in.stdout = w }
}

// WithStderr sets the writer of shell error output.
func WithStderr(w io.Writer) Option {
	return func(in *Interpreter) { in.stderr = w }
}

// WithClock sets the clock of sleep statements.
func WithClock(c Clock) Option {
	return func(in *Interpreter) {
		if c != nil {
			in.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithDir sets the working directory of shell statements.
func WithDir(dir string) Option {
	return func(in *Interpreter) { in.dir = dir }
}

// WithEnv sets the base environment of shell statements (KEY=value entries).
// Defaults to the process environment.
func WithEnv(env []string) Option {
	return func(in *Interpreter) { in.env = slices.Clone(env) }
}

// WithMaxCallDepth sets the call depth limit.
func WithMaxCallDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxCallDepth = n
		}
	}
}

// New creates an interpreter writing to io.Discard unless configured otherwise.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		stdout:       io.Discard,
		stderr:       io.Discard,
		clock:        realClock{},
		logger:       slog.New(slog.DiscardHandler),
		maxCallDepth: DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Exec implements lazyimport.Executor. It parses src and runs its body at
// module top level against the namespace of mod.
func (in *Interpreter) Exec(ctx context.Context, rt *lazyimport.Runtime, mod *lazyimport.Module, src *lazyimport.Source) error {
	u, err := unit.Parse(src.File, src.Data)
	if err != nil {
		return err
	}
	if u.Doc != "" {
		mod.Namespace.Set("__doc__", u.Doc)
	}
	if u.All != nil {
		mod.Namespace.Set("__all__", slices.Clone(u.All))
	}

	f := &frame{
		in:       in,
		rt:       rt,
		module:   mod.Name,
		file:     src.File,
		globals:  mod.Namespace,
		topLevel: true,
	}
	return f.exec(ctx, u.Body)
}

func (in *Interpreter) println(a ...any) {
	in.outMu.Lock()
	defer in.outMu.Unlock()
	fmt.Fprintln(in.stdout, a...)
}
