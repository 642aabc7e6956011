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

package alloc

import (
	"github.com/ink-go/storage2/cell"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

type codecPtr[T any] interface {
	*T
	scale.Codec
}

// Box owns a single-cell allocation from a DynamicAllocator: a packed
// allocation index plus a lazily-loaded value at the cell that index
// names. Unlike every other container, a Box's value lives off to the
// side of its own Spread footprint (in the allocator's cell range)
// rather than in the contiguous region the owning traversal hands it.
type Box[T any, PT codecPtr[T]] struct {
	allocator  *DynamicAllocator
	allocation uint32
	value      *cell.Lazy[T, PT]
}

// NewBoxUnbound returns a Box with no allocation yet, bound to
// allocator so a subsequent PullSpread can recompute its value's key.
// Owning containers use this inside their own PullSpread before
// delegating to the Box's.
func NewBoxUnbound[T any, PT codecPtr[T]](allocator *DynamicAllocator) *Box[T, PT] {
	return &Box[T, PT]{allocator: allocator}
}

// NewBox allocates a fresh cell from allocator and stores v in it.
func NewBox[T any, PT codecPtr[T]](v T, allocator *DynamicAllocator) *Box[T, PT] {
	idx := allocator.AllocCellIndex()
	return &Box[T, PT]{
		allocator:  allocator,
		allocation: idx,
		value:      cell.NewLazyFresh[T, PT](v),
	}
}

// Get returns the boxed value, loading it from the allocator's cell
// range on first access.
func (b *Box[T, PT]) Get(env storeenv.Store) *T {
	return b.value.Get(env)
}

// GetMut is Get but marks the boxed value Mutated.
func (b *Box[T, PT]) GetMut(env storeenv.Store) *T {
	return b.value.GetMut(env)
}

// Set replaces the boxed value outright.
func (b *Box[T, PT]) Set(v *T) {
	b.value.Set(v)
}

// EncodeScale implements scale.Codec, writing only the packed
// allocation index. Box's domain has no one-cell Packed representation
// without this: a Box appearing as an element of a Packed collection
// (Vec<Box<T>>, an IndexMap<Box<T>>) is itself Packed, even though its
// target value is not.
func (b *Box[T, PT]) EncodeScale(e *scale.Encoder) {
	scale.U32(b.allocation).EncodeScale(e)
}

// DecodeScale implements scale.Codec, reading the packed allocation
// index. It does not yet bind the boxed value's key: a Box decoded this
// way (as a Packed collection element) starts with no allocator
// attached, which PullPacked resolves via the installed default.
func (b *Box[T, PT]) DecodeScale(d *scale.Decoder) error {
	var idx scale.U32
	if err := (&idx).DecodeScale(d); err != nil {
		return err
	}
	b.allocation = uint32(idx)
	return nil
}

// PullPacked implements layout.Fixupper: after DecodeScale has set the
// allocation index, bind the boxed value's lazy cell to the key that
// index names, resolving the allocator against whichever one was bound
// at construction, falling back to the installed default.
func (b *Box[T, PT]) PullPacked(at key.Key, env storeenv.Store) {
	if b.allocator == nil {
		b.allocator = Default()
	}
	b.value = cell.NewLazyAt[T, PT](b.allocator.CellKey(b.allocation))
}

// PushPacked implements layout.Fixupper, flushing the boxed value (if
// mutated) to its allocator-computed key before the allocation index
// itself is encoded.
func (b *Box[T, PT]) PushPacked(at key.Key, env storeenv.Store) {
	if b.allocator == nil {
		b.allocator = Default()
	}
	valuePtr := key.FromKey(b.allocator.CellKey(b.allocation))
	b.value.PushSpread(valuePtr, env)
}

// ClearPacked implements layout.Fixupper: clears the boxed value and
// returns the allocation to the allocator's free list.
func (b *Box[T, PT]) ClearPacked(at key.Key, env storeenv.Store) {
	if b.allocator == nil {
		b.allocator = Default()
	}
	valuePtr := key.FromKey(b.allocator.CellKey(b.allocation))
	b.value.ClearSpread(valuePtr, env)
	b.allocator.DeallocCellIndex(b.allocation)
}

// Footprint implements layout.Spread: a Box occupies exactly one cell
// of its owner's contiguous region (the packed allocation index); the
// boxed value itself lives in the allocator's separate range.
func (b *Box[T, PT]) Footprint() uint64 { return 1 }

// RequiresDeepCleanup implements layout.Spread: a Box always owns a
// sub-allocation that must be freed on clear.
func (b *Box[T, PT]) RequiresDeepCleanup() bool { return true }

// PullSpread reads the packed allocation index and binds the boxed
// value's lazy cell to the key that index names.
func (b *Box[T, PT]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	b.allocation = uint32(layout.PullSpreadOfPacked[scale.U32, *scale.U32](ptr, env))
	b.value = cell.NewLazyAt[T, PT](b.allocator.CellKey(b.allocation))
}

// PushSpread writes the packed allocation index, then flushes the
// boxed value if it was mutated.
func (b *Box[T, PT]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	idx := scale.U32(b.allocation)
	layout.PushSpreadOfPacked[scale.U32, *scale.U32](&idx, ptr, env)
	valuePtr := key.FromKey(b.allocator.CellKey(b.allocation))
	b.value.PushSpread(valuePtr, env)
}

// ClearSpread clears the boxed value (recursing transitively, since the
// value's own Clear handles its sub-state) and returns the allocation
// to the allocator's free list.
func (b *Box[T, PT]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	var zero scale.U32
	layout.ClearSpreadOfPacked[scale.U32, *scale.U32](&zero, ptr, env)
	valuePtr := key.FromKey(b.allocator.CellKey(b.allocation))
	b.value.ClearSpread(valuePtr, env)
	b.allocator.DeallocCellIndex(b.allocation)
}
