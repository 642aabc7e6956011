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

package collections

import (
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/lazy"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// SmallVec is a length header plus a fixed N-slot lazy array: like Vec,
// but capped. Pushing past N is a capacity violation, not growth.
type SmallVec[T any, PT codecPtr[T]] struct {
	capacity    uint32
	length      uint32
	headerDirty bool
	body        *lazy.Array[T, PT]
}

// NewSmallVec returns an empty, unanchored SmallVec with room for up to
// capacity elements.
func NewSmallVec[T any, PT codecPtr[T]](capacity uint32) *SmallVec[T, PT] {
	return &SmallVec[T, PT]{capacity: capacity, headerDirty: true, body: lazy.NewArray[T, PT](capacity)}
}

// Len returns the number of elements currently in the vector.
func (v *SmallVec[T, PT]) Len() uint32 { return v.length }

// Capacity returns N.
func (v *SmallVec[T, PT]) Capacity() uint32 { return v.capacity }

// Get returns the element at i, or nil if out of bounds.
func (v *SmallVec[T, PT]) Get(i uint32, env storeenv.Store) *T {
	if i >= v.length {
		return nil
	}
	return v.body.Get(i, env)
}

// GetMut is Get but marks the slot Mutated.
func (v *SmallVec[T, PT]) GetMut(i uint32, env storeenv.Store) *T {
	if i >= v.length {
		return nil
	}
	return v.body.GetMut(i, env)
}

// Push appends val. Traps with CapacityExhausted semantics if the
// vector is already at capacity.
func (v *SmallVec[T, PT]) Push(val *T) {
	if v.length >= v.capacity {
		layout.TrapInvariant("collections.SmallVec: push at capacity")
	}
	v.body.Put(v.length, val)
	v.length++
	v.headerDirty = true
}

// Pop removes and returns the last element, or nil if empty.
func (v *SmallVec[T, PT]) Pop(env storeenv.Store) *T {
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

// Footprint implements layout.Spread: one header cell plus N body
// cells.
func (v *SmallVec[T, PT]) Footprint() uint64 { return 1 + v.body.Footprint() }

// RequiresDeepCleanup implements layout.Spread.
func (v *SmallVec[T, PT]) RequiresDeepCleanup() bool { return v.body.RequiresDeepCleanup() }

// PullSpread reads the length header then binds the fixed body.
func (v *SmallVec[T, PT]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	v.length = uint32(layout.PullSpreadOfPacked[scale.U32, *scale.U32](ptr, env))
	v.headerDirty = false
	v.body = lazy.NewArray[T, PT](v.capacity)
	v.body.PullSpread(ptr, env)
}

// PushSpread writes the length header if it changed, then flushes
// mutated body entries.
func (v *SmallVec[T, PT]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	if v.headerDirty {
		length := scale.U32(v.length)
		layout.PushSpreadOfPacked[scale.U32, *scale.U32](&length, ptr, env)
		v.headerDirty = false
	} else {
		ptr.AdvanceBy(1)
	}
	v.body.PushSpread(ptr, env)
}

// ClearSpread clears the header and every live element.
func (v *SmallVec[T, PT]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	var zero scale.U32
	layout.ClearSpreadOfPacked[scale.U32, *scale.U32](&zero, ptr, env)
	for i := uint32(0); i < v.length; i++ {
		v.body.ClearPackedAt(i, env)
	}
	v.body.ClearSpread(ptr, env)
	v.length = 0
	v.headerDirty = true
}
