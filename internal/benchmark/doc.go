// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for the hot paths of lazymod, used for
// PGO profile generation and for comparing lazy and eager startup:
//   - CUE, TOML and HCL unit parsing
//   - module discovery on disk
//   - import classification
//   - eager and lazy imports of a module tree
//   - shell statements
//
// To generate a CPU profile for PGO, run:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
