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

// BinaryHeap is a length header over a lazy dense store, maintaining
// max-heap order under a caller-supplied Less. The source splits
// storage into a small/large "duplex" chunk pair as a pure performance
// tweak with no documented stable layout; that split is not part of
// this map's on-disk contract, so storage here is a single IndexMap.
type BinaryHeap[T any, PT codecPtr[T]] struct {
	length      uint32
	headerDirty bool
	body        *lazy.IndexMap[T, PT]
	less        func(a, b *T) bool
}

// NewBinaryHeap returns an empty, unanchored max-heap ordered by less
// (less(a,b) reports whether a sorts before b; the heap surfaces the
// greatest element first).
func NewBinaryHeap[T any, PT codecPtr[T]](less func(a, b *T) bool) *BinaryHeap[T, PT] {
	return &BinaryHeap[T, PT]{headerDirty: true, body: lazy.NewIndexMap[T, PT](), less: less}
}

// Len returns the number of elements in the heap.
func (h *BinaryHeap[T, PT]) Len() uint32 { return h.length }

// Peek returns the greatest element without removing it, or nil if
// empty.
func (h *BinaryHeap[T, PT]) Peek(env storeenv.Store) *T {
	if h.length == 0 {
		return nil
	}
	return h.body.Get(0, env)
}

// Push inserts val and restores the heap invariant by sifting up.
func (h *BinaryHeap[T, PT]) Push(val *T, env storeenv.Store) {
	i := h.length
	h.body.Put(i, val)
	h.length++
	h.headerDirty = true
	h.siftUp(i, env)
}

// Pop removes and returns the greatest element, or nil if empty.
func (h *BinaryHeap[T, PT]) Pop(env storeenv.Store) *T {
	if h.length == 0 {
		return nil
	}
	top := h.body.Get(0, env)
	last := h.length - 1
	if last > 0 {
		h.body.Swap(0, last, env)
	}
	h.body.ClearAt(last, env)
	h.length = last
	h.headerDirty = true
	if h.length > 0 {
		h.siftDown(0, env)
	}
	return top
}

func (h *BinaryHeap[T, PT]) siftUp(i uint32, env storeenv.Store) {
	for i > 0 {
		parent := (i - 1) / 2
		a := h.body.Get(i, env)
		b := h.body.Get(parent, env)
		if a == nil || b == nil || !h.less(b, a) {
			return
		}
		h.body.Swap(i, parent, env)
		i = parent
	}
}

func (h *BinaryHeap[T, PT]) siftDown(i uint32, env storeenv.Store) {
	for {
		left, right := 2*i+1, 2*i+2
		largest := i
		cur := h.body.Get(largest, env)
		if left < h.length {
			if l := h.body.Get(left, env); l != nil && h.less(cur, l) {
				largest = left
				cur = l
			}
		}
		if right < h.length {
			if r := h.body.Get(right, env); r != nil && h.less(cur, r) {
				largest = right
				cur = r
			}
		}
		if largest == i {
			return
		}
		h.body.Swap(i, largest, env)
		i = largest
	}
}

// Footprint implements layout.Spread.
func (h *BinaryHeap[T, PT]) Footprint() uint64 { return 1 + h.body.Footprint() }

// RequiresDeepCleanup implements layout.Spread.
func (h *BinaryHeap[T, PT]) RequiresDeepCleanup() bool { return h.body.RequiresDeepCleanup() }

// PullSpread reads the length header then binds the body.
func (h *BinaryHeap[T, PT]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	h.length = uint32(layout.PullSpreadOfPacked[scale.U32, *scale.U32](ptr, env))
	h.headerDirty = false
	h.body.PullSpread(ptr, env)
}

// PushSpread writes the length header if it changed, then flushes
// mutated body entries.
func (h *BinaryHeap[T, PT]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	if h.headerDirty {
		length := scale.U32(h.length)
		layout.PushSpreadOfPacked[scale.U32, *scale.U32](&length, ptr, env)
		h.headerDirty = false
	} else {
		ptr.AdvanceBy(1)
	}
	h.body.PushSpread(ptr, env)
}

// ClearSpread clears the header and every live element.
func (h *BinaryHeap[T, PT]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	var zero scale.U32
	layout.ClearSpreadOfPacked[scale.U32, *scale.U32](&zero, ptr, env)
	for i := uint32(0); i < h.length; i++ {
		h.body.ClearPackedAt(i, env)
	}
	h.body.ClearSpread(ptr, env)
	h.length = 0
	h.headerDirty = true
}
