// SPDX-License-Identifier: MPL-2.0

package interp

import (
	"bytes"
	"testing"
	"time"

	"github.com/invowk/lazymod/internal/discovery"
	"github.com/invowk/lazymod/internal/testutil"
	"github.com/invowk/lazymod/pkg/lazyimport"
)

const (
	spamUnit = `body: [
	{sleep: "200ms"},
	{print: "spam loaded"},
]
`
	eggsUnit = `body: [
	{import: "spam"},
	{print: "imports done"},
]
`
)

// harness is a module system over in-memory units with lazy imports enabled
// unless an option turns them off.
type harness struct {
	mem   *discovery.Memory
	rt    *lazyimport.Runtime
	out   *bytes.Buffer
	clock *testutil.FakeClock
	start time.Time
}

func newHarness(t *testing.T, opts ...lazyimport.Option) *harness {
	t.Helper()

	h := &harness{
		mem:   discovery.NewMemory(),
		out:   &bytes.Buffer{},
		clock: testutil.NewAutoClock(time.Time{}),
	}
	h.start = h.clock.Now()
	in := New(WithStdout(h.out), WithStderr(h.out), WithClock(h.clock), WithEnv([]string{}))

	rt, err := lazyimport.New(h.mem, in, append([]lazyimport.Option{lazyimport.WithEnabled(true)}, opts...)...)
	if err != nil {
		t.Fatalf("lazyimport.New() error = %v", err)
	}
	h.rt = rt
	return h
}

func (h *harness) run(t *testing.T, module string) error {
	t.Helper()
	_, err := h.rt.Import(t.Context(), module)
	return err
}

func (h *harness) mustRun(t *testing.T, module string) {
	t.Helper()
	if err := h.run(t, module); err != nil {
		t.Fatalf("import %s: %v", module, err)
	}
}

func (h *harness) elapsed() time.Duration {
	return h.clock.Since(h.start)
}
