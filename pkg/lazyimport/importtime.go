// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const importTimeHeader = "import time: self [us] | cumulative | imported package\n"

type (
	// ImportRecord describes one module load, charged to the thread of control
	// that actually executed it.
	ImportRecord struct {
		// Module is the fully-qualified module name.
		Module string
		// Self is the time spent in the module body excluding nested loads.
		Self time.Duration
		// Cumulative includes nested loads.
		Cumulative time.Duration
		// Depth is the nesting depth of the load on its thread.
		Depth int
		// Err is the load failure, if any.
		Err error
	}

	// Profiler receives one record per module load.
	Profiler interface {
		Record(ImportRecord)
	}

	// ImportTimeWriter is a Profiler printing loads in the importtime table format.
	ImportTimeWriter struct {
		mu     sync.Mutex
		w      io.Writer
		header bool
	}
)

// NewImportTimeWriter creates a profiler writing to w.
func NewImportTimeWriter(w io.Writer) *ImportTimeWriter {
	return &ImportTimeWriter{w: w}
}

// Record prints one line for rec, preceded by the table header on first use.
// Nested loads are indented two spaces per level.
func (p *ImportTimeWriter) Record(rec ImportRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.header {
		p.header = true
		_, _ = io.WriteString(p.w, importTimeHeader)
	}

	name := rec.Module
	if rec.Err != nil {
		name += " (failed)"
	}
	_, _ = fmt.Fprintf(p.w, "import time: %9d | %10d | %s%s\n",
		rec.Self.Microseconds(), rec.Cumulative.Microseconds(),
		strings.Repeat("  ", rec.Depth), name)
}
