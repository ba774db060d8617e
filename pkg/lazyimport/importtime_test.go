// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"bytes"
	"testing"
	"time"
)

func TestImportTimeWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewImportTimeWriter(&buf)
	w.Record(ImportRecord{Module: "pkg.sub", Self: 120 * time.Microsecond, Cumulative: 150 * time.Microsecond, Depth: 1})
	w.Record(ImportRecord{Module: "pkg", Self: 30 * time.Microsecond, Cumulative: 180 * time.Microsecond})
	w.Record(ImportRecord{Module: "broken", Self: 5 * time.Microsecond, Cumulative: 5 * time.Microsecond, Err: errBoom})

	want := "import time: self [us] | cumulative | imported package\n" +
		"import time:       120 |        150 |   pkg.sub\n" +
		"import time:        30 |        180 | pkg\n" +
		"import time:         5 |          5 | broken (failed)\n"
	if got := buf.String(); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func TestThread_SelfExcludesNestedLoads(t *testing.T) {
	t.Parallel()

	clock := &stepClock{now: time.Unix(0, 0), step: time.Millisecond}
	th := newThread()

	outer, d0 := th.push("outer", clock.Now())
	inner, d1 := th.push("inner", clock.Now())
	self, cum := th.pop(inner, clock.Now())
	if d0 != 0 || d1 != 1 {
		t.Errorf("depths = %d, %d; want 0, 1", d0, d1)
	}
	if self != time.Millisecond || cum != time.Millisecond {
		t.Errorf("inner = self %v, cumulative %v; want 1ms, 1ms", self, cum)
	}

	self, cum = th.pop(outer, clock.Now())
	if cum != 3*time.Millisecond || self != 2*time.Millisecond {
		t.Errorf("outer = self %v, cumulative %v; want 2ms, 3ms", self, cum)
	}
}
