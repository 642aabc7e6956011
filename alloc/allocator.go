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

// Package alloc implements the dynamic cell/chunk allocator and the Box
// smart pointer built on top of it.
package alloc

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"

	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// chunkShift is the bit width of a single chunk (2^32 consecutive
// keys), matching the 2^32-cell footprint every LazyIndexMap reserves.
const chunkShift = 32

// defaultAllocator is the allocator a Box resolves its allocation
// against when it is decoded with no allocator already bound to it —
// the case when a Box appears as an element of a Packed collection
// (Vec, IndexMap), whose generic decode path constructs a fresh
// zero-valued element with no way to pass extra constructor arguments.
// This mirrors the source's own free function `alloc()`, which draws
// from a single contract-wide allocator rather than threading one
// through every call site. It is call-scoped state for the lifetime of
// one contract invocation, installed once via SetDefault at call
// start, not a durable global.
var defaultAllocator *DynamicAllocator

// SetDefault installs the allocator Box values bind to when decoded
// without one already attached. A contract call installs its root
// allocator once, before pulling any storage that might contain a Box.
func SetDefault(a *DynamicAllocator) { defaultAllocator = a }

// Default returns the allocator most recently installed by SetDefault,
// or nil if none has been.
func Default() *DynamicAllocator { return defaultAllocator }

// DynamicAllocator hands out storage regions on demand: single cells
// from a 2^32-cell range at cellsOrigin, and 2^32-key chunks from a
// disjoint range at chunksOrigin. Freed regions are tracked in two bit
// vectors and reused first-fit.
type DynamicAllocator struct {
	freeCells   *bitset.BitSet
	cellsLen    uint32
	freeChunks  *bitset.BitSet
	chunksLen   uint32
	cellsOrigin key.Key
	chunksOrigin key.Key
}

// NewDynamicAllocator returns an allocator whose cell range starts at
// cellsOrigin and whose chunk range starts at chunksOrigin. The caller
// must ensure cellsOrigin < chunksOrigin and that the two 2^32-wide
// ranges they anchor do not overlap.
func NewDynamicAllocator(cellsOrigin, chunksOrigin key.Key) *DynamicAllocator {
	if !cellsOrigin.Less(chunksOrigin) {
		layout.TrapInvariant("alloc.DynamicAllocator: cellsOrigin must be < chunksOrigin")
	}
	return &DynamicAllocator{
		freeCells:    bitset.New(0),
		freeChunks:   bitset.New(0),
		cellsOrigin:  cellsOrigin,
		chunksOrigin: chunksOrigin,
	}
}

// AllocCellIndex reserves a single cell, reusing the first freed index
// if any exist, and returns its u32 offset from cellsOrigin. Box uses
// this form directly so it can store the allocation index rather than
// a full key.
func (a *DynamicAllocator) AllocCellIndex() uint32 {
	for i := uint32(0); i < a.cellsLen; i++ {
		if a.freeCells.Test(uint(i)) {
			a.freeCells.Clear(uint(i))
			return i
		}
	}
	offset := a.cellsLen
	a.cellsLen++
	return offset
}

// AllocCell reserves a single cell, reusing the first freed one if any
// exist, and returns its key.
func (a *DynamicAllocator) AllocCell() key.Key {
	return a.CellKey(a.AllocCellIndex())
}

// CellKey recomputes the key of the single-cell allocation at index.
func (a *DynamicAllocator) CellKey(index uint32) key.Key {
	return a.cellsOrigin.Add(uint64(index))
}

// DeallocCellIndex returns the single-cell allocation at index to the
// free list.
func (a *DynamicAllocator) DeallocCellIndex(index uint32) {
	a.freeCells.Set(uint(index))
}

// AllocChunk reserves a whole 2^32-key chunk, reusing the first freed
// one if any exist, and returns the key of its first cell.
func (a *DynamicAllocator) AllocChunk() key.Key {
	for i := uint32(0); i < a.chunksLen; i++ {
		if a.freeChunks.Test(uint(i)) {
			a.freeChunks.Clear(uint(i))
			return a.chunksOrigin.AddKey(key.FromUint64Shifted(uint64(i), chunkShift))
		}
	}
	offset := a.chunksLen
	a.chunksLen++
	return a.chunksOrigin.AddKey(key.FromUint64Shifted(uint64(offset), chunkShift))
}

// Alloc reserves size consecutive cells: size == 1 is a single cell
// allocation, any larger size (up to 2^32-1, the u32 maximum) is a
// whole chunk. A size of 0 or above 2^32-1 is a capacity violation.
func (a *DynamicAllocator) Alloc(size uint64) key.Key {
	switch {
	case size == 1:
		return a.AllocCell()
	case size > 1 && size <= 0xffffffff:
		return a.AllocChunk()
	default:
		layout.TrapInvariant("alloc.DynamicAllocator: allocation size out of range")
		return key.Zero
	}
}

// Dealloc returns an allocation to the free list, dispatching on
// whether k falls in the cell range or the chunk range. The caller must
// only deallocate keys this allocator originally produced.
func (a *DynamicAllocator) Dealloc(k key.Key) {
	if k.Less(a.chunksOrigin) {
		offset := a.cellsOrigin.Sub(k).AsU32()
		a.freeCells.Set(uint(offset))
		return
	}
	raw := a.chunksOrigin.Sub(k).AsU64()
	offset := uint32(raw >> chunkShift)
	a.freeChunks.Set(uint(offset))
}

// Footprint implements layout.Spread: the allocator's state packs into
// a single cell.
func (a *DynamicAllocator) Footprint() uint64 { return 1 }

// RequiresDeepCleanup implements layout.Spread: the allocator owns no
// transitively-cleared sub-state of its own.
func (a *DynamicAllocator) RequiresDeepCleanup() bool { return false }

// PullSpread reserves one cell and decodes the allocator's packed state
// from it, or leaves a fresh empty allocator if the cell was never
// written.
func (a *DynamicAllocator) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	at := ptr.AdvanceBy(1)
	raw, ok := env.Get(at)
	if !ok {
		return
	}
	d := scale.NewDecoder(raw)
	if err := a.decodeFrom(d); err != nil {
		layout.Trap(err)
	}
}

// PushSpread encodes the allocator's packed state to its single cell.
func (a *DynamicAllocator) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	at := ptr.AdvanceBy(1)
	e := scale.NewEncoder()
	a.encodeTo(e)
	env.Set(at, e.Bytes())
}

// ClearSpread removes the allocator's cell.
func (a *DynamicAllocator) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	at := ptr.AdvanceBy(1)
	env.Clear(at)
}

func (a *DynamicAllocator) encodeTo(e *scale.Encoder) {
	e.WriteUint32(a.cellsLen)
	e.WriteUint32(a.chunksLen)
	e.WriteBytes(a.cellsOrigin.Bytes())
	e.WriteBytes(a.chunksOrigin.Bytes())
	cellsRaw, _ := a.freeCells.MarshalBinary()
	chunksRaw, _ := a.freeChunks.MarshalBinary()
	e.WriteBytesCompact(cellsRaw)
	e.WriteBytesCompact(chunksRaw)
}

func (a *DynamicAllocator) decodeFrom(d *scale.Decoder) error {
	var err error
	if a.cellsLen, err = d.ReadUint32(); err != nil {
		return err
	}
	if a.chunksLen, err = d.ReadUint32(); err != nil {
		return err
	}
	originBytes, err := d.ReadBytes(key.Size)
	if err != nil {
		return err
	}
	a.cellsOrigin = key.FromBytes(originBytes)
	originBytes, err = d.ReadBytes(key.Size)
	if err != nil {
		return err
	}
	a.chunksOrigin = key.FromBytes(originBytes)

	cellsRaw, err := d.ReadBytesCompact()
	if err != nil {
		return err
	}
	a.freeCells = bitset.New(0)
	if err := a.freeCells.UnmarshalBinary(cellsRaw); err != nil {
		return errors.WithStack(err)
	}
	chunksRaw, err := d.ReadBytesCompact()
	if err != nil {
		return err
	}
	a.freeChunks = bitset.New(0)
	if err := a.freeChunks.UnmarshalBinary(chunksRaw); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
