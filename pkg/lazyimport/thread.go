// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

var threadSeq atomic.Uint64

type (
	// thread identifies one thread of control. Import reentrancy and the
	// import-time frame stack are tracked per thread.
	thread struct {
		id uint64

		mu     sync.Mutex
		frames []*importFrame
	}

	importFrame struct {
		module   string
		start    time.Time
		children time.Duration
	}
)

func newThread() *thread {
	return &thread{id: threadSeq.Add(1)}
}

// Detach returns a copy of ctx that belongs to a new thread of control.
// Use it when handing a context to another goroutine.
func Detach(ctx context.Context) context.Context {
	return context.WithValue(ctx, threadCtxKey, newThread())
}

// attachThread returns the thread carried by ctx, attaching a new one if needed.
func attachThread(ctx context.Context) (context.Context, *thread) {
	if th, ok := ctx.Value(threadCtxKey).(*thread); ok && th != nil {
		return ctx, th
	}
	th := newThread()
	return context.WithValue(ctx, threadCtxKey, th), th
}

// push opens an import-time frame and returns its nesting depth.
func (t *thread) push(module string, now time.Time) (*importFrame, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f := &importFrame{module: module, start: now}
	t.frames = append(t.frames, f)
	return f, len(t.frames) - 1
}

// pop closes f and returns its self and cumulative durations. The cumulative
// time is charged to the enclosing frame as child time.
func (t *thread) pop(f *importFrame, now time.Time) (self, cumulative time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cumulative = now.Sub(f.start)
	self = max(cumulative-f.children, 0)

	for i := len(t.frames) - 1; i >= 0; i-- {
		if t.frames[i] == f {
			t.frames = t.frames[:i]
			break
		}
	}
	if n := len(t.frames); n > 0 {
		t.frames[n-1].children += cumulative
	}
	return self, cumulative
}
