// SPDX-License-Identifier: MPL-2.0

package lazyimport

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// errNoResolver is returned when a namespace without a resolver holds a deferred entry.
var errNoResolver = errors.New("namespace has no resolver")

type (
	// Value is any value stored in a namespace.
	Value = any

	// Resolver turns a deferred binding into its value.
	Resolver interface {
		Resolve(ctx context.Context, b *DeferredBinding) (Value, error)
	}

	// Item is one namespace entry as returned by Namespace.Items.
	Item struct {
		Key   string
		Value Value
	}

	// Namespace is an insertion-ordered mapping from identifiers to values.
	//
	// Entries are a tagged union of a plain value and a deferred binding. Every read
	// path resolves deferred entries before returning, so callers never see a
	// *DeferredBinding. When no entry is deferred, reads take the plain map path.
	//
	// A Namespace is safe for concurrent use. No lock is held while a resolution
	// runs, so resolutions may freely read and write this namespace.
	Namespace struct {
		name     string
		resolver Resolver

		mu       sync.RWMutex
		keys     []string
		slots    map[string]slot
		deferred int
	}

	slot struct {
		value   Value
		binding *DeferredBinding
	}
)

// NewNamespace creates an empty namespace. r resolves its deferred entries and
// may be nil for namespaces that only ever hold plain values.
func NewNamespace(name string, r Resolver) *Namespace {
	return &Namespace{
		name:     name,
		resolver: r,
		slots:    make(map[string]slot),
	}
}

// Name returns the namespace name used in diagnostics.
func (ns *Namespace) Name() string { return ns.name }

// Lookup returns the value bound to key. ok is false when key is absent.
// A deferred entry is resolved and replaced by its value first; on failure the
// entry is kept and the error is returned.
func (ns *Namespace) Lookup(ctx context.Context, key string) (v Value, ok bool, err error) {
	ns.mu.RLock()
	s, ok := ns.slots[key]
	ns.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if s.binding == nil {
		return s.value, true, nil
	}

	v, err = ns.resolve(ctx, key, s.binding)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

// Get returns the value bound to key, or a *NameError when key is absent.
func (ns *Namespace) Get(ctx context.Context, key string) (Value, error) {
	v, ok, err := ns.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NameError{Name: key, Namespace: ns.name}
	}
	return v, nil
}

// Has reports whether key is bound. It never resolves.
func (ns *Namespace) Has(key string) bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	_, ok := ns.slots[key]
	return ok
}

// Set binds key to v, replacing any previous entry in place.
// A *DeferredBinding value is stored as a deferred entry.
func (ns *Namespace) Set(key string, v Value) {
	if b, ok := v.(*DeferredBinding); ok {
		ns.store(key, slot{binding: b})
		return
	}
	ns.store(key, slot{value: v})
}

// Delete removes key. Removing a deferred entry never resolves it.
// It reports whether key was present.
func (ns *Namespace) Delete(key string) bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	old, ok := ns.slots[key]
	if !ok {
		return false
	}
	if old.binding != nil {
		ns.deferred--
	}
	delete(ns.slots, key)
	ns.keys = slices.DeleteFunc(ns.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns the bound names in insertion order. Keys never resolve.
func (ns *Namespace) Keys() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return slices.Clone(ns.keys)
}

// Len returns the number of entries.
func (ns *Namespace) Len() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return len(ns.keys)
}

// HasDeferred reports whether any entry is still a deferred binding.
func (ns *Namespace) HasDeferred() bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return ns.deferred > 0
}

// IsDeferred reports whether key is bound to an import that has not been
// materialised, without resolving it.
func (ns *Namespace) IsDeferred(key string) bool {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	s, ok := ns.slots[key]
	return ok && s.binding != nil
}

// ResolveAll resolves every deferred entry in insertion order. Resolutions may
// add new deferred entries; those are resolved too. The first failure stops the
// walk and is returned.
func (ns *Namespace) ResolveAll(ctx context.Context) error {
	for {
		pending := ns.pendingKeys()
		if len(pending) == 0 {
			return nil
		}
		for _, key := range pending {
			if _, _, err := ns.Lookup(ctx, key); err != nil {
				return err
			}
		}
	}
}

// Values returns all values in insertion order, resolving deferred entries first.
func (ns *Namespace) Values(ctx context.Context) ([]Value, error) {
	var out []Value
	err := ns.snapshot(ctx, func() {
		out = make([]Value, 0, len(ns.keys))
		for _, k := range ns.keys {
			out = append(out, ns.slots[k].value)
		}
	})
	return out, err
}

// Items returns all entries in insertion order, resolving deferred entries first.
func (ns *Namespace) Items(ctx context.Context) ([]Item, error) {
	var out []Item
	err := ns.snapshot(ctx, func() {
		out = make([]Item, 0, len(ns.keys))
		for _, k := range ns.keys {
			out = append(out, Item{Key: k, Value: ns.slots[k].value})
		}
	})
	return out, err
}

// ToMap returns the entries as a plain map, resolving deferred entries first.
func (ns *Namespace) ToMap(ctx context.Context) (map[string]Value, error) {
	var out map[string]Value
	err := ns.snapshot(ctx, func() {
		out = make(map[string]Value, len(ns.keys))
		for _, k := range ns.keys {
			out[k] = ns.slots[k].value
		}
	})
	return out, err
}

// Copy returns a new namespace with the same entries, resolving deferred
// entries first. The copy holds plain values only and has no resolver.
func (ns *Namespace) Copy(ctx context.Context) (*Namespace, error) {
	cp := NewNamespace(ns.name, nil)
	err := ns.snapshot(ctx, func() {
		cp.keys = slices.Clone(ns.keys)
		for _, k := range ns.keys {
			cp.slots[k] = slot{value: ns.slots[k].value}
		}
	})
	if err != nil {
		return nil, err
	}
	return cp, nil
}

// snapshot resolves all deferred entries and runs read under the read lock once
// the namespace holds none. Entries deferred concurrently trigger another round.
func (ns *Namespace) snapshot(ctx context.Context, read func()) error {
	for {
		ns.mu.RLock()
		if ns.deferred == 0 {
			read()
			ns.mu.RUnlock()
			return nil
		}
		ns.mu.RUnlock()

		if err := ns.ResolveAll(ctx); err != nil {
			return err
		}
	}
}

// deferredBinding returns the binding stored under key, or nil.
func (ns *Namespace) deferredBinding(key string) *DeferredBinding {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return ns.slots[key].binding
}

func (ns *Namespace) pendingKeys() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if ns.deferred == 0 {
		return nil
	}
	pending := make([]string, 0, ns.deferred)
	for _, k := range ns.keys {
		if ns.slots[k].binding != nil {
			pending = append(pending, k)
		}
	}
	return pending
}

func (ns *Namespace) store(key string, s slot) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	old, ok := ns.slots[key]
	if !ok {
		ns.keys = append(ns.keys, key)
	} else if old.binding != nil {
		ns.deferred--
	}
	if s.binding != nil {
		ns.deferred++
	}
	ns.slots[key] = s
}

// resolve materialises b and swaps it for its value if the entry still holds b.
func (ns *Namespace) resolve(ctx context.Context, key string, b *DeferredBinding) (Value, error) {
	if ns.resolver == nil {
		return nil, &DeferredImportError{
			Statement: b.Statement(),
			Import:    b.Site,
			Access:    AccessSiteFrom(ctx),
			Err:       errNoResolver,
		}
	}

	v, err := ns.resolver.Resolve(ctx, b)
	if err != nil {
		return nil, err
	}

	ns.mu.Lock()
	if cur, ok := ns.slots[key]; ok && cur.binding == b {
		ns.slots[key] = slot{value: v}
		ns.deferred--
	}
	ns.mu.Unlock()

	return v, nil
}
