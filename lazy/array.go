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

package lazy

import (
	"github.com/ink-go/storage2/entry"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/storeenv"
)

// Array is LazyArray<T,N>: functionally an IndexMap but with a
// compile-time-fixed (here, construction-time-fixed) capacity N and no
// hashing. Used as SmallVec's body, where an out-of-range index is a
// capacity violation rather than ordinary growth.
type Array[V any, PV codecPtr[V]] struct {
	capacity uint32
	anchor   key.Key
	cache    map[uint32]*entry.Entry[V]
}

// NewArray returns an empty, unanchored Array with room for capacity
// elements at indices [0, capacity).
func NewArray[V any, PV codecPtr[V]](capacity uint32) *Array[V, PV] {
	return &Array[V, PV]{capacity: capacity, cache: make(map[uint32]*entry.Entry[V])}
}

// Capacity returns N.
func (a *Array[V, PV]) Capacity() uint32 { return a.capacity }

func (a *Array[V, PV]) cellKey(i uint32) key.Key {
	return a.anchor.Add(uint64(i))
}

func (a *Array[V, PV]) load(i uint32, env storeenv.Store) *entry.Entry[V] {
	if e, ok := a.cache[i]; ok {
		return e
	}
	v := layout.PullPackedRootOpt[V, PV](a.cellKey(i), env)
	e := entry.NewPreserved(v)
	a.cache[i] = e
	return e
}

// Get lazily loads index i, or nil if i is out of capacity or absent.
func (a *Array[V, PV]) Get(i uint32, env storeenv.Store) *V {
	if i >= a.capacity {
		return nil
	}
	return a.load(i, env).Value
}

// GetMut is Get but marks the slot Mutated.
func (a *Array[V, PV]) GetMut(i uint32, env storeenv.Store) *V {
	if i >= a.capacity {
		return nil
	}
	e := a.load(i, env)
	e.State = entry.Mutated
	return e.Value
}

// Put installs v at i unconditionally. i must be within capacity.
func (a *Array[V, PV]) Put(i uint32, v *V) {
	if i >= a.capacity {
		layout.TrapInvariant("collections.SmallVec: index out of capacity")
	}
	a.cache[i] = entry.NewMutated(v)
}

// ClearPackedAt clears the cell at i, loading it first when V requires
// deep cleanup.
func (a *Array[V, PV]) ClearPackedAt(i uint32, env storeenv.Store) {
	k := a.cellKey(i)
	if staticRequiresDeepCleanup[V, PV]() {
		if v := a.Get(i, env); v != nil {
			layout.ClearPackedRoot[V, PV](v, k, env)
			delete(a.cache, i)
			return
		}
	}
	env.Clear(k)
	delete(a.cache, i)
}

// ClearAt removes the cell at i without the deep-cleanup load, for
// callers that moved the value out and own it now.
func (a *Array[V, PV]) ClearAt(i uint32, env storeenv.Store) {
	env.Clear(a.cellKey(i))
	delete(a.cache, i)
}

// Footprint implements layout.Spread: exactly N cells.
func (a *Array[V, PV]) Footprint() uint64 { return uint64(a.capacity) }

// RequiresDeepCleanup implements layout.Spread.
func (a *Array[V, PV]) RequiresDeepCleanup() bool { return staticRequiresDeepCleanup[V, PV]() }

// PullSpread captures the anchor with an empty cache. capacity must
// already be set via NewArray.
func (a *Array[V, PV]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	a.anchor = ptr.AdvanceBy(uint64(a.capacity))
	a.cache = make(map[uint32]*entry.Entry[V])
}

// PushSpread writes back every Mutated cached entry.
func (a *Array[V, PV]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	anchor := ptr.AdvanceBy(uint64(a.capacity))
	a.anchor = anchor
	for i, e := range a.cache {
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

// ClearSpread is a documented no-op, mirroring IndexMap: the owner
// (SmallVec) issues per-element ClearPackedAt calls over its own
// length.
func (a *Array[V, PV]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	ptr.AdvanceBy(uint64(a.capacity))
}
