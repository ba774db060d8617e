// SPDX-License-Identifier: MPL-2.0

// Package discovery locates lazymod units.
//
// A module a.b.c is the unit a/b/c.lzm.cue (or .lzm.toml) below one of the
// search paths; a package is a directory holding init.lzm.cue or init.lzm.toml.
// Search paths are tried in order and the first one containing the module
// wins. Within one directory a package shadows a module file of the same name
// and CUE shadows TOML; both cases produce a warning diagnostic.
//
// File organization:
//   - discovery.go: Discovery (the filesystem Finder) and Locate
//   - list.go: List, enumerating every module under the search paths
//   - memory.go: Memory, an in-memory Finder for tests and embedding
package discovery
