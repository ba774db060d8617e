// SPDX-License-Identifier: MPL-2.0

package interp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// shell runs script in the embedded POSIX shell. LAZYMOD_MODULE and
// LAZYMOD_FILE name the executing unit.
func (f *frame) shell(ctx context.Context, script string) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), f.file)
	if err != nil {
		return fmt.Errorf("failed to parse shell script: %w", err)
	}

	env := f.in.env
	if env == nil {
		env = os.Environ()
	}
	env = append(env[:len(env):len(env)],
		"LAZYMOD_MODULE="+f.module,
		"LAZYMOD_FILE="+f.file,
	)

	stdout := &lockedWriter{in: f.in, stderr: false}
	stderr := &lockedWriter{in: f.in, stderr: true}
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, stderr),
	}
	if f.in.dir != "" {
		opts = append(opts, interp.Dir(f.in.dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create shell interpreter: %w", err)
	}

	f.in.logger.DebugContext(ctx, "running shell statement", slog.String("module", f.module))
	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return &ShellError{Status: uint8(status)}
		}
		return fmt.Errorf("shell execution failed: %w", err)
	}
	return nil
}

// lockedWriter writes through the interpreter output lock.
type lockedWriter struct {
	in     *Interpreter
	stderr bool
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.in.outMu.Lock()
	defer w.in.outMu.Unlock()
	if w.stderr {
		return w.in.stderr.Write(p)
	}
	return w.in.stdout.Write(p)
}
