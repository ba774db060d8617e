// SPDX-License-Identifier: MPL-2.0

// Package lazyimport implements deferred module binding for the lazymod unit system.
//
// An import statement that is eligible for laziness does not load its target.
// Instead it stores a [DeferredBinding] in the importing [Namespace]. The first
// read of that name through the namespace runs the [Engine], which discovers,
// executes and registers the module exactly once, and the namespace replaces the
// binding with the resolved value before returning it.
//
// # Components
//
//   - [DeferredBinding]: placeholder for one bound name, with the import site used
//     for diagnostics and a monotonic resolution state.
//   - [Namespace]: insertion-ordered name table. Every read path (Get, Lookup,
//     Values, Items, Copy) resolves deferred entries first, so a binding is never
//     observable outside this package.
//   - [Engine] and [Registry]: module loading with per-module state
//     (NotStarted, Executing, Done, Failed). A module is registered before its body
//     runs, so cyclic references observe the partially initialised module.
//   - [Classifier] and [EagerOverrides]: the lazy/eager decision taken when an
//     import statement executes.
//   - [Runtime]: the composition of the above, used by executors to run import
//     statements ([Runtime.ExecImport]) and dynamic imports ([Runtime.ImportModule]).
//
// # Threads of control
//
// Reentrancy is tracked per thread of control, which is carried in the
// context.Context. The engine attaches a thread token the first time a context
// enters it and every nested read made with that context belongs to the same
// thread. Goroutines must not share a context that already carries a thread;
// start them from a context without one, or call [Detach].
//
// # Failures
//
// Resolution failures are cached. A failed entry stays in its namespace and every
// later read re-raises the same cause, wrapped in a [DeferredImportError] that
// reports both the import statement site and the site of the read. A module whose
// body failed is recorded as Failed and never executed again.
package lazyimport
