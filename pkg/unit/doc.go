// SPDX-License-Identifier: MPL-2.0

// Package unit parses lazymod units: module source files written in CUE
// (*.lzm.cue), TOML (*.lzm.toml) or HCL (*.lzm.hcl).
//
// A unit is a document with an optional doc string, an optional list of public
// names (all) and a body of statements. Each statement is a struct with exactly
// one verb key:
//
//	body: [
//		{import: "spam"},
//		{from: "pkg", names: ["a", "b as c"]},
//		{print: "imports done"},
//		{ref: "spam"},
//	]
//
// Every format is validated against the embedded unit_schema.cue. Statement
// lines are taken from the CUE and HCL syntax trees; TOML statements use an
// explicit line key or their ordinal in the file.
package unit
