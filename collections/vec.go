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

// Package collections implements the high-level storage containers built
// on top of the lazy maps: Vec, SmallVec, Stash, HashMap, BinaryHeap and
// BTreeMap.
package collections

import (
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/lazy"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

type codecPtr[T any] interface {
	*T
	scale.Codec
}

// Vec is a dense growable array that grows and shrinks at its end: a
// one-cell u32 length header in front of a LazyIndexMap body. Pushes,
// pops and indexed access all route through the IndexMap; only push,
// pop and swap-remove touch the header.
type Vec[T any, PT codecPtr[T]] struct {
	length uint32
	// headerDirty tracks whether the length differs from its disk
	// image, so a pull followed by read-only access pushes nothing.
	// A freshly constructed Vec counts as dirty, like any value that
	// entered memory through a constructor rather than a load.
	headerDirty bool
	body        *lazy.IndexMap[T, PT]
}

// NewVec returns an empty, unanchored Vec.
func NewVec[T any, PT codecPtr[T]]() *Vec[T, PT] {
	return &Vec[T, PT]{headerDirty: true, body: lazy.NewIndexMap[T, PT]()}
}

// Len returns the number of elements currently in the vector.
func (v *Vec[T, PT]) Len() uint32 { return v.length }

// IsEmpty reports whether the vector has no elements.
func (v *Vec[T, PT]) IsEmpty() bool { return v.length == 0 }

// Get returns the element at i, or nil if i is out of bounds.
func (v *Vec[T, PT]) Get(i uint32, env storeenv.Store) *T {
	if i >= v.length {
		return nil
	}
	return v.body.Get(i, env)
}

// GetMut is Get but marks the slot Mutated for an intended write.
func (v *Vec[T, PT]) GetMut(i uint32, env storeenv.Store) *T {
	if i >= v.length {
		return nil
	}
	return v.body.GetMut(i, env)
}

// Set overwrites the element at i. i must already be within bounds.
func (v *Vec[T, PT]) Set(i uint32, val *T) {
	if i >= v.length {
		layout.TrapInvariant("collections.Vec.Set: index out of bounds")
	}
	v.body.Put(i, val)
}

// Push appends val, growing the length header by one.
func (v *Vec[T, PT]) Push(val *T) {
	v.body.Put(v.length, val)
	v.length++
	v.headerDirty = true
}

// Pop removes and returns the last element, or nil if the vector is
// empty.
func (v *Vec[T, PT]) Pop(env storeenv.Store) *T {
	if v.length == 0 {
		return nil
	}
	last := v.length - 1
	val := v.body.Get(last, env)
	v.body.ClearAt(last, env)
	v.length = last
	v.headerDirty = true
	return val
}

// PeekLast returns the last element without removing it, or nil if the
// vector is empty.
func (v *Vec[T, PT]) PeekLast(env storeenv.Store) *T {
	if v.length == 0 {
		return nil
	}
	return v.body.Get(v.length-1, env)
}

// SwapRemove removes the element at i by swapping it with the last
// element, in O(1) instead of shifting every following element. Returns
// the removed value, or nil if i is out of bounds.
func (v *Vec[T, PT]) SwapRemove(i uint32, env storeenv.Store) *T {
	if i >= v.length {
		return nil
	}
	last := v.length - 1
	val := v.body.Get(i, env)
	if i != last {
		v.body.Swap(i, last, env)
	}
	v.body.ClearAt(last, env)
	v.length = last
	v.headerDirty = true
	return val
}

// Footprint implements layout.Spread: one cell for the length header
// plus the full IndexMap range.
func (v *Vec[T, PT]) Footprint() uint64 { return 1 + v.body.Footprint() }

// RequiresDeepCleanup implements layout.Spread.
func (v *Vec[T, PT]) RequiresDeepCleanup() bool { return v.body.RequiresDeepCleanup() }

// PullSpread reads the length header then binds the body to the
// following cells.
func (v *Vec[T, PT]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	v.length = uint32(layout.PullSpreadOfPacked[scale.U32, *scale.U32](ptr, env))
	v.headerDirty = false
	v.body.PullSpread(ptr, env)
}

// PushSpread writes the length header if it changed, then flushes
// mutated body entries.
func (v *Vec[T, PT]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	if v.headerDirty {
		length := scale.U32(v.length)
		layout.PushSpreadOfPacked[scale.U32, *scale.U32](&length, ptr, env)
		v.headerDirty = false
	} else {
		ptr.AdvanceBy(1)
	}
	v.body.PushSpread(ptr, env)
}

// ClearSpread clears the header and every live element's cell, freeing
// sub-owned allocations along the way when T requires deep cleanup.
func (v *Vec[T, PT]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	var zero scale.U32
	layout.ClearSpreadOfPacked[scale.U32, *scale.U32](&zero, ptr, env)
	for i := uint32(0); i < v.length; i++ {
		v.body.ClearPackedAt(i, env)
	}
	v.body.ClearSpread(ptr, env)
	v.length = 0
	v.headerDirty = true
}
