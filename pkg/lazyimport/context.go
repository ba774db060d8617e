// SPDX-License-Identifier: MPL-2.0

package lazyimport

import "context"

type ctxKey int

const (
	threadCtxKey ctxKey = iota
	accessSiteCtxKey
	eagerScopeCtxKey
)

// WithAccessSite returns a context recording the site of the statement that is
// about to read namespaces. Resolution errors report it as the access site.
func WithAccessSite(ctx context.Context, site Site) context.Context {
	return context.WithValue(ctx, accessSiteCtxKey, site)
}

// AccessSiteFrom returns the access site recorded in ctx, or the zero Site.
func AccessSiteFrom(ctx context.Context) Site {
	site, _ := ctx.Value(accessSiteCtxKey).(Site)
	return site
}

// WithEagerImports returns a context in which every import statement is
// classified Eager, as if it were placed inside an exception handler.
// The scope ends when the caller stops using the returned context. It is
// shallow: the bodies of modules loaded from it run without the scope.
func WithEagerImports(ctx context.Context) context.Context {
	return context.WithValue(ctx, eagerScopeCtxKey, true)
}

// InEagerImports reports whether ctx is inside a WithEagerImports scope.
func InEagerImports(ctx context.Context) bool {
	v, _ := ctx.Value(eagerScopeCtxKey).(bool)
	return v
}
