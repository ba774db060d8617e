// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// The package consolidates the CUE parsing pattern used for unit files and the
// lazymod configuration file:
//
//  1. Parse user data into a syntax tree (kept for source positions)
//  2. Compile the embedded schema, build the user file and unify them
//  3. Validate and decode to a Go struct
//
// # Usage
//
//	//go:embed unit_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[Unit](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Unit",
//	    cueutil.WithFilename("main.lzm.cue"),
//	)
//	if err != nil {
//	    return nil, err  // Error includes CUE path for debugging
//	}
//	return result.Value, nil
package cueutil
