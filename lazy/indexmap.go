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

// Package lazy implements the two dense/hashed lazy maps every
// high-level collection (Vec, Stash, HashMap, BinaryHeap, BTreeMap) is
// built on top of.
package lazy

import (
	"github.com/ink-go/storage2/entry"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

type codecPtr[V any] interface {
	*V
	scale.Codec
}

// indexMapFootprint is 2^32: the map reserves the entire offset range
// so that no two indices ever alias a cell.
const indexMapFootprint uint64 = 1 << 32

func staticRequiresDeepCleanup[V any, PV codecPtr[V]]() bool {
	var zero V
	if d, ok := any(PV(&zero)).(layout.DeepCleanupper); ok {
		return d.RequiresDeepCleanup()
	}
	return false
}

// IndexMap is LazyIndexMap<V>: a dense u32->V map occupying a
// contiguous 2^32-cell region anchored at one key. The in-memory cache
// is indexed by u32; values are boxed (via pointer) so a returned
// reference stays valid even as the cache grows.
type IndexMap[V any, PV codecPtr[V]] struct {
	anchor key.Key
	cache  map[uint32]*entry.Entry[V]
}

// NewIndexMap returns an empty, unanchored IndexMap. Call PullSpread
// (directly, or via an owning container's own PullSpread) before use
// with an existing anchor, or PushSpread to assign a fresh one.
func NewIndexMap[V any, PV codecPtr[V]]() *IndexMap[V, PV] {
	return &IndexMap[V, PV]{cache: make(map[uint32]*entry.Entry[V])}
}

func (m *IndexMap[V, PV]) cellKey(i uint32) key.Key {
	return m.anchor.Add(uint64(i))
}

func (m *IndexMap[V, PV]) load(i uint32, env storeenv.Store) *entry.Entry[V] {
	if e, ok := m.cache[i]; ok {
		return e
	}
	v := layout.PullPackedRootOpt[V, PV](m.cellKey(i), env)
	e := entry.NewPreserved(v)
	m.cache[i] = e
	return e
}

// Get lazily loads index i (caching the result, Preserved either way)
// and returns its value, or nil if absent.
func (m *IndexMap[V, PV]) Get(i uint32, env storeenv.Store) *V {
	return m.load(i, env).Value
}

// GetMut is Get but marks the slot Mutated, since the caller intends to
// write through the returned pointer.
func (m *IndexMap[V, PV]) GetMut(i uint32, env storeenv.Store) *V {
	e := m.load(i, env)
	e.State = entry.Mutated
	return e.Value
}

// Put unconditionally installs a Mutated entry at i without loading the
// previous value.
func (m *IndexMap[V, PV]) Put(i uint32, v *V) {
	m.cache[i] = entry.NewMutated(v)
}

// PutGet lazily loads i, swaps in v, and returns the old value.
func (m *IndexMap[V, PV]) PutGet(i uint32, v *V, env storeenv.Store) *V {
	e := m.load(i, env)
	old := e.Value
	e.MarkMutated(v)
	return old
}

// Swap exchanges the values at x and y, loading both first. A no-op
// when both are absent.
func (m *IndexMap[V, PV]) Swap(x, y uint32, env storeenv.Store) {
	if x == y {
		return
	}
	ex := m.load(x, env)
	ey := m.load(y, env)
	if ex.Value == nil && ey.Value == nil {
		return
	}
	ex.Value, ey.Value = ey.Value, ex.Value
	ex.State = entry.Mutated
	ey.State = entry.Mutated
}

// ClearPackedAt clears the cell at i, loading it first when V declares
// REQUIRES_DEEP_CLEAN_UP so sub-owned allocations can be freed.
func (m *IndexMap[V, PV]) ClearPackedAt(i uint32, env storeenv.Store) {
	k := m.cellKey(i)
	if staticRequiresDeepCleanup[V, PV]() {
		if v := m.Get(i, env); v != nil {
			layout.ClearPackedRoot[V, PV](v, k, env)
			delete(m.cache, i)
			return
		}
	}
	env.Clear(k)
	delete(m.cache, i)
}

// ClearAt removes the cell at i without the deep-cleanup load. Callers
// use it when the logical value has been moved elsewhere and the cell
// holds only a stale copy whose owned resources must stay live.
func (m *IndexMap[V, PV]) ClearAt(i uint32, env storeenv.Store) {
	env.Clear(m.cellKey(i))
	delete(m.cache, i)
}

// Footprint implements layout.Spread.
func (m *IndexMap[V, PV]) Footprint() uint64 { return indexMapFootprint }

// RequiresDeepCleanup implements layout.Spread.
func (m *IndexMap[V, PV]) RequiresDeepCleanup() bool {
	return staticRequiresDeepCleanup[V, PV]()
}

// PullSpread captures the anchor with an empty cache.
func (m *IndexMap[V, PV]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	m.anchor = ptr.AdvanceBy(indexMapFootprint)
	m.cache = make(map[uint32]*entry.Entry[V])
}

// PushSpread writes back every Mutated cached entry; Preserved entries
// never touch the host.
func (m *IndexMap[V, PV]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	anchor := ptr.AdvanceBy(indexMapFootprint)
	m.anchor = anchor
	for i, e := range m.cache {
		if e.State != entry.Mutated {
			continue
		}
		k := anchor.Add(uint64(i))
		if e.Value != nil {
			layout.PushPackedRoot[V, PV](e.Value, k, env)
		} else {
			env.Clear(k)
		}
	}
}

// ClearSpread is a documented no-op: IndexMap alone does not know which
// indices are logically live. The owning container (Vec, Stash) issues
// per-element ClearPackedAt calls over its own length/slot set.
func (m *IndexMap[V, PV]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	ptr.AdvanceBy(indexMapFootprint)
}
