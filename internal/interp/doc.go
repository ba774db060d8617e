// SPDX-License-Identifier: MPL-2.0

// Package interp executes lazymod units. An Interpreter implements
// lazyimport.Executor: it runs a unit body against its module namespace and
// sends every import statement through lazyimport.Runtime.ExecImport with the
// syntactic context the statement appears in (module top level, a try, except
// or with block, a def or class body, an eager block).
//
// Reads of globals go through the namespace, so referencing a name bound by a
// deferred import loads the module at that point. Each statement records its
// site in the context as the access site of any resolution it triggers.
package interp
