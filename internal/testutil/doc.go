// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by lazymod tests: a controllable
// clock for sleep statements and import timings, and file tree helpers that
// fail the test on error instead of returning it.
package testutil
