// Copyright 2024 The ink-storage2 Authors
// This file is part of ink-storage2.
//
// ink-storage2 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ink-storage2 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with ink-storage2. If not, see <http://www.gnu.org/licenses/>.

package cell

import (
	"github.com/ink-go/storage2/entry"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// Lazy is the central lazy primitive: a single cell that decodes at
// most once and remembers whether the cached value has been mutated
// since. All higher-level lazy containers (LazyIndexMap, LazyHashMap)
// compose Entry records exactly like this one.
//
// A Lazy constructed from a value (NewLazyFresh) has no key yet and an
// already-Mutated cache; one constructed from a key (NewLazyAt) has no
// cache until first access.
type Lazy[T any, PT interface {
	*T
	scale.Codec
}] struct {
	k     *key.Key
	cache *entry.Entry[T]
}

// NewLazyFresh builds a Lazy holding v in memory, unkeyed until the
// next PushSpread assigns it a position.
func NewLazyFresh[T any, PT interface {
	*T
	scale.Codec
}](v T) *Lazy[T, PT] {
	return &Lazy[T, PT]{cache: entry.NewMutated(&v)}
}

// NewLazyAt builds a Lazy that will decode from k on first access.
func NewLazyAt[T any, PT interface {
	*T
	scale.Codec
}](k key.Key) *Lazy[T, PT] {
	return &Lazy[T, PT]{k: &k}
}

func lazyStaticRequiresDeepCleanup[T any, PT interface {
	*T
	scale.Codec
}]() bool {
	var zero T
	if d, ok := any(PT(&zero)).(layout.DeepCleanupper); ok {
		return d.RequiresDeepCleanup()
	}
	return false
}

func (c *Lazy[T, PT]) ensure(env storeenv.Store) {
	if c.cache != nil {
		return
	}
	v := layout.PullPackedRootOpt[T, PT](*c.k, env)
	c.cache = entry.NewPreserved(v)
}

// Get returns the cached or freshly-loaded value, or nil if the cell is
// (or was) absent.
func (c *Lazy[T, PT]) Get(env storeenv.Store) *T {
	c.ensure(env)
	return c.cache.Value
}

// GetMut is like Get but marks the entry Mutated, since the caller is
// about to obtain a mutable view.
func (c *Lazy[T, PT]) GetMut(env storeenv.Store) *T {
	c.ensure(env)
	c.cache.State = entry.Mutated
	return c.cache.Value
}

// Set replaces the cached value outright and marks the entry Mutated,
// without ever loading the previous one.
func (c *Lazy[T, PT]) Set(v *T) {
	c.cache = entry.NewMutated(v)
}

// Footprint implements layout.Spread: a Lazy cell is always one cell.
func (c *Lazy[T, PT]) Footprint() uint64 { return 1 }

// RequiresDeepCleanup reports whether the cached value, if loaded,
// declares deep-cleanup needs. An unloaded Lazy conservatively reports
// false: nothing has been touched to need freeing. ClearSpread does not
// rely on this: for a never-loaded cell it checks T's declaration and
// loads the cell itself when T needs deep cleanup.
func (c *Lazy[T, PT]) RequiresDeepCleanup() bool {
	if c.cache == nil || c.cache.Value == nil {
		return false
	}
	if d, ok := any(PT(c.cache.Value)).(layout.DeepCleanupper); ok {
		return d.RequiresDeepCleanup()
	}
	return false
}

// PullSpread captures the cell's key; nothing is decoded yet.
func (c *Lazy[T, PT]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	k := ptr.AdvanceBy(1)
	c.k = &k
	c.cache = nil
}

// PushSpread writes the cell only when the cache is Mutated: a cell
// that was pulled and only read produces no host write.
func (c *Lazy[T, PT]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	at := ptr.AdvanceBy(1)
	c.k = &at
	if c.cache == nil || c.cache.State != entry.Mutated {
		return
	}
	if c.cache.Value == nil {
		env.Clear(at)
		return
	}
	layout.PushPackedRoot[T, PT](c.cache.Value, at, env)
}

// ClearSpread removes the cell, recursing into the cached value first
// so transitively owned resources are released. A never-loaded cell
// whose T declares deep-cleanup needs is loaded here for exactly that
// reason; PODs skip the load and take the single host clear.
func (c *Lazy[T, PT]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	at := ptr.AdvanceBy(1)
	if c.cache == nil && lazyStaticRequiresDeepCleanup[T, PT]() {
		c.k = &at
		c.ensure(env)
	}
	if c.cache != nil && c.cache.Value != nil {
		layout.ClearPackedRoot[T, PT](c.cache.Value, at, env)
		return
	}
	env.Clear(at)
}
