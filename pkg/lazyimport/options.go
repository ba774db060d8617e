// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"log/slog"
	"time"
)

type (
	// Option configures a Runtime.
	Option func(*options)

	// Clock supplies the current time for import profiling.
	Clock interface {
		Now() time.Time
	}

	options struct {
		enabled      bool
		logger       *slog.Logger
		profiler     Profiler
		registry     *Registry
		clock        Clock
		eagerModules []string
	}

	realClock struct{}
)

func (realClock) Now() time.Time { return time.Now() }

func defaultOptions() options {
	return options{
		logger: slog.New(slog.DiscardHandler),
		clock:  realClock{},
	}
}

// WithEnabled turns the lazy import mechanism on or off. It is off by default,
// in which case every import statement is eager.
func WithEnabled(enabled bool) Option {
	return func(o *options) { o.enabled = enabled }
}

// WithLogger sets the logger used for deferral and load events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProfiler records every module load with p.
func WithProfiler(p Profiler) Option {
	return func(o *options) { o.profiler = p }
}

// WithRegistry shares an existing module registry.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithClock sets the clock used to time module loads.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithEagerModules pre-registers module names or patterns whose imports stay eager.
func WithEagerModules(names ...string) Option {
	return func(o *options) { o.eagerModules = append(o.eagerModules, names...) }
}
