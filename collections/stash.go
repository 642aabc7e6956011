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

// slotTagOccupied and slotTagVacant are the one-byte discriminants of
// the Slot<T> tagged union: Occupied(T) or Vacant{next,prev}.
const (
	slotTagOccupied = 0
	slotTagVacant   = 1
)

// slot is Stash's element type: either a live value, or a vacant-list
// link. Vacant entries form a doubly-linked free list, kept sorted by
// index, through which Put finds the next reusable index.
type slot[T any, PT codecPtr[T]] struct {
	occupied   bool
	value      T
	vacantNext *uint32
	vacantPrev *uint32
}

func (s slot[T, PT]) EncodeScale(e *scale.Encoder) {
	if s.occupied {
		e.WriteByte(slotTagOccupied)
		PT(&s.value).EncodeScale(e)
		return
	}
	e.WriteByte(slotTagVacant)
	encodeOptionU32(e, s.vacantNext)
	encodeOptionU32(e, s.vacantPrev)
}

func (s *slot[T, PT]) DecodeScale(d *scale.Decoder) error {
	tag, err := d.ReadByte()
	if err != nil {
		return err
	}
	switch tag {
	case slotTagOccupied:
		s.occupied = true
		return PT(&s.value).DecodeScale(d)
	case slotTagVacant:
		s.occupied = false
		next, err := decodeOptionU32(d)
		if err != nil {
			return err
		}
		prev, err := decodeOptionU32(d)
		if err != nil {
			return err
		}
		s.vacantNext, s.vacantPrev = next, prev
		return nil
	default:
		return scale.ErrShortBuffer
	}
}

func staticRequiresDeepCleanup[T any, PT codecPtr[T]]() bool {
	var zero T
	if d, ok := any(PT(&zero)).(layout.DeepCleanupper); ok {
		return d.RequiresDeepCleanup()
	}
	return false
}

// RequiresDeepCleanup propagates T's deep-cleanup need through the slot
// wrapper, so a Stash of allocation-owning values is cleared by loading
// each occupied slot first.
func (s *slot[T, PT]) RequiresDeepCleanup() bool {
	return staticRequiresDeepCleanup[T, PT]()
}

// PullPacked forwards the packed fix-up to an occupied slot's value
// (e.g. a boxed value binding its target cell after decode).
func (s *slot[T, PT]) PullPacked(at key.Key, env storeenv.Store) {
	if !s.occupied {
		return
	}
	if f, ok := any(PT(&s.value)).(layout.Fixupper); ok {
		f.PullPacked(at, env)
	}
}

// PushPacked forwards the packed fix-up to an occupied slot's value.
func (s *slot[T, PT]) PushPacked(at key.Key, env storeenv.Store) {
	if !s.occupied {
		return
	}
	if f, ok := any(PT(&s.value)).(layout.Fixupper); ok {
		f.PushPacked(at, env)
	}
}

// ClearPacked forwards the packed fix-up to an occupied slot's value so
// transitively owned resources are freed with the slot.
func (s *slot[T, PT]) ClearPacked(at key.Key, env storeenv.Store) {
	if !s.occupied {
		return
	}
	if f, ok := any(PT(&s.value)).(layout.Fixupper); ok {
		f.ClearPacked(at, env)
	}
}

func encodeOptionU32(e *scale.Encoder, v *uint32) {
	if v == nil {
		e.WriteBool(false)
		return
	}
	e.WriteBool(true)
	e.WriteUint32(*v)
}

func decodeOptionU32(d *scale.Decoder) (*uint32, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	v, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// stashHeader is Stash's one-cell packed prefix.
type stashHeader struct {
	len         uint32
	maxLen      uint32
	lastVacant  *uint32
}

func (h stashHeader) EncodeScale(e *scale.Encoder) {
	e.WriteUint32(h.len)
	e.WriteUint32(h.maxLen)
	encodeOptionU32(e, h.lastVacant)
}

func (h *stashHeader) DecodeScale(d *scale.Decoder) error {
	var err error
	if h.len, err = d.ReadUint32(); err != nil {
		return err
	}
	if h.maxLen, err = d.ReadUint32(); err != nil {
		return err
	}
	h.lastVacant, err = decodeOptionU32(d)
	return err
}

// Stash is an append-mostly container that reuses vacated slots through
// a doubly-linked free list threaded through the IndexMap body itself.
// Put is O(1): it takes the head of the list. Take is not O(1): it
// walks the list to insert the freed index in sorted position, so its
// cost grows with the number of vacant slots.
type Stash[T any, PT codecPtr[T]] struct {
	header      stashHeader
	headerDirty bool
	body        *lazy.IndexMap[slot[T, PT], *slot[T, PT]]
}

// NewStash returns an empty, unanchored Stash.
func NewStash[T any, PT codecPtr[T]]() *Stash[T, PT] {
	return &Stash[T, PT]{headerDirty: true, body: lazy.NewIndexMap[slot[T, PT], *slot[T, PT]]()}
}

// Len returns the number of occupied slots.
func (s *Stash[T, PT]) Len() uint32 { return s.header.len }

// MaxLen returns one past the highest slot in use, occupied or on the
// vacant list; slots at or above it hold nothing (Defrag lowers it as
// it compacts the tail).
func (s *Stash[T, PT]) MaxLen() uint32 { return s.header.maxLen }

// Get returns the value at index i, or nil if i is vacant or beyond
// maxLen.
func (s *Stash[T, PT]) Get(i uint32, env storeenv.Store) *T {
	if i >= s.header.maxLen {
		return nil
	}
	sl := s.body.Get(i, env)
	if sl == nil || !sl.occupied {
		return nil
	}
	return &sl.value
}

// GetMut returns a mutable view of the value at index i, marking its
// slot dirty, or nil if i is vacant or out of range.
func (s *Stash[T, PT]) GetMut(i uint32, env storeenv.Store) *T {
	if i >= s.header.maxLen {
		return nil
	}
	sl := s.body.Get(i, env)
	if sl == nil || !sl.occupied {
		return nil
	}
	sl = s.body.GetMut(i, env)
	return &sl.value
}

// Put inserts val into the first vacant slot (the lowest-index entry of
// the free list) or appends a new one, returning its index.
func (s *Stash[T, PT]) Put(val T, env storeenv.Store) uint32 {
	if s.header.lastVacant == nil {
		idx := s.header.maxLen
		s.body.Put(idx, &slot[T, PT]{occupied: true, value: val})
		s.header.maxLen++
		s.header.len++
		s.headerDirty = true
		return idx
	}

	idx := *s.header.lastVacant
	s.removeFromVacantList(idx, env)
	s.body.Put(idx, &slot[T, PT]{occupied: true, value: val})
	s.header.len++
	s.headerDirty = true
	return idx
}

// Take removes and returns the value at index i, threading it into the
// vacant list. Returns nil if i was already vacant or out of range.
func (s *Stash[T, PT]) Take(i uint32, env storeenv.Store) *T {
	if i >= s.header.maxLen {
		return nil
	}
	sl := s.body.Get(i, env)
	if sl == nil || !sl.occupied {
		return nil
	}
	val := sl.value

	s.body.Put(i, &slot[T, PT]{occupied: false})
	s.insertVacant(i, env)
	s.header.len--
	s.headerDirty = true
	return &val
}

// Iterate calls f(index, value) for every occupied slot in ascending
// index order.
func (s *Stash[T, PT]) Iterate(env storeenv.Store, f func(uint32, *T)) {
	for i := uint32(0); i < s.header.maxLen; i++ {
		if v := s.Get(i, env); v != nil {
			f(i, v)
		}
	}
}

// DefragCallback is invoked for every entry Defrag relocates, with the
// entry's old index, new index, and a pointer to its value — so a
// referencing container (e.g. HashMap's key_index back-link) can fix
// itself up.
type DefragCallback[T any] func(oldIndex, newIndex uint32, value *T)

// Defrag compacts the tail of the address space: vacant tail slots are
// trimmed outright, and occupied tail entries are moved down into the
// lowest vacant slot, up to maxIter moves. After an unexhausted run
// every index below len is occupied and nothing above it remains. This
// is how HashMap keeps its key indices dense after deletions. Returns
// the number of moves performed, so a caller handing out a fixed budget
// can tell whether it ran dry before finishing.
func (s *Stash[T, PT]) Defrag(maxIter uint32, env storeenv.Store, cb DefragCallback[T]) uint32 {
	moved := uint32(0)
	for s.header.maxLen > s.header.len {
		i := s.header.maxLen - 1
		sl := s.body.Get(i, env)
		if sl == nil || !sl.occupied {
			s.removeFromVacantList(i, env)
			s.body.ClearAt(i, env)
			s.header.maxLen--
			s.headerDirty = true
			continue
		}
		if moved >= maxIter {
			break
		}
		if s.header.lastVacant == nil {
			layout.TrapInvariant("collections.Stash: maxLen exceeds len with no vacant slot")
		}
		j := *s.header.lastVacant
		val := sl.value
		s.removeFromVacantList(j, env)
		s.body.Put(j, &slot[T, PT]{occupied: true, value: val})
		// The value now lives at j; the old cell is a stale copy, so
		// clear it shallowly to keep transitively owned resources live.
		s.body.ClearAt(i, env)
		s.header.maxLen--
		s.headerDirty = true
		cb(i, j, &val)
		moved++
	}
	return moved
}

func (s *Stash[T, PT]) removeFromVacantList(idx uint32, env storeenv.Store) {
	sl := s.body.Get(idx, env)
	if sl == nil {
		return
	}
	prev, next := sl.vacantPrev, sl.vacantNext
	if prev != nil {
		if p := s.body.GetMut(*prev, env); p != nil {
			p.vacantNext = next
		}
	} else {
		s.header.lastVacant = next
		s.headerChanged()
	}
	if next != nil {
		if n := s.body.GetMut(*next, env); n != nil {
			n.vacantPrev = prev
		}
	}
}

// headerChanged is how the vacant-list helpers report that they moved
// the list head, which lives in the packed header.
func (s *Stash[T, PT]) headerChanged() { s.headerDirty = true }

// insertVacant threads idx into the vacant list keeping it sorted by
// index, so the list head is always the lowest reusable slot and Put
// stays first-fit.
func (s *Stash[T, PT]) insertVacant(idx uint32, env storeenv.Store) {
	head := s.header.lastVacant
	if head == nil || idx < *head {
		sl := s.body.GetMut(idx, env)
		sl.vacantNext = head
		sl.vacantPrev = nil
		if head != nil {
			h := s.body.GetMut(*head, env)
			self := idx
			h.vacantPrev = &self
		}
		self := idx
		s.header.lastVacant = &self
		s.headerChanged()
		return
	}

	cur := *head
	for {
		next := s.body.Get(cur, env).vacantNext
		if next == nil || idx < *next {
			c := s.body.GetMut(cur, env)
			self := idx
			c.vacantNext = &self
			sl := s.body.GetMut(idx, env)
			prev := cur
			sl.vacantPrev = &prev
			sl.vacantNext = next
			if next != nil {
				n := s.body.GetMut(*next, env)
				self2 := idx
				n.vacantPrev = &self2
			}
			return
		}
		cur = *next
	}
}

// Footprint implements layout.Spread.
func (s *Stash[T, PT]) Footprint() uint64 { return 1 + s.body.Footprint() }

// RequiresDeepCleanup implements layout.Spread.
func (s *Stash[T, PT]) RequiresDeepCleanup() bool { return s.body.RequiresDeepCleanup() }

// PullSpread reads the header then binds the body.
func (s *Stash[T, PT]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	s.header = layout.PullSpreadOfPacked[stashHeader, *stashHeader](ptr, env)
	s.headerDirty = false
	s.body.PullSpread(ptr, env)
}

// PushSpread writes the header if it changed, then flushes mutated
// body entries.
func (s *Stash[T, PT]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	if s.headerDirty {
		layout.PushSpreadOfPacked[stashHeader, *stashHeader](&s.header, ptr, env)
		s.headerDirty = false
	} else {
		ptr.AdvanceBy(1)
	}
	s.body.PushSpread(ptr, env)
}

// ClearSpread clears the header and every occupied slot.
func (s *Stash[T, PT]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	var zero stashHeader
	layout.ClearSpreadOfPacked[stashHeader, *stashHeader](&zero, ptr, env)
	for i := uint32(0); i < s.header.maxLen; i++ {
		s.body.ClearPackedAt(i, env)
	}
	s.body.ClearSpread(ptr, env)
	s.header = stashHeader{}
	s.headerDirty = true
}
