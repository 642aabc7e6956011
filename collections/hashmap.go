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
	"github.com/ink-go/storage2/hash"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/lazy"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// hashMapValue is the payload stored at each LazyHashMap cell: the
// user's value plus a back-link into the keys Stash, so the two
// subsystems can be kept coherent.
type hashMapValue[V any, PV codecPtr[V]] struct {
	value    V
	keyIndex uint32
}

func (v hashMapValue[V, PV]) EncodeScale(e *scale.Encoder) {
	PV(&v.value).EncodeScale(e)
	e.WriteUint32(v.keyIndex)
}

func (v *hashMapValue[V, PV]) DecodeScale(d *scale.Decoder) error {
	if err := PV(&v.value).DecodeScale(d); err != nil {
		return err
	}
	idx, err := d.ReadUint32()
	if err != nil {
		return err
	}
	v.keyIndex = idx
	return nil
}

// RequiresDeepCleanup propagates V's deep-cleanup need through the
// payload wrapper.
func (v *hashMapValue[V, PV]) RequiresDeepCleanup() bool {
	return staticRequiresDeepCleanup[V, PV]()
}

// PullPacked forwards the packed fix-up to the wrapped value.
func (v *hashMapValue[V, PV]) PullPacked(at key.Key, env storeenv.Store) {
	if f, ok := any(PV(&v.value)).(layout.Fixupper); ok {
		f.PullPacked(at, env)
	}
}

// PushPacked forwards the packed fix-up to the wrapped value.
func (v *hashMapValue[V, PV]) PushPacked(at key.Key, env storeenv.Store) {
	if f, ok := any(PV(&v.value)).(layout.Fixupper); ok {
		f.PushPacked(at, env)
	}
}

// ClearPacked forwards the packed fix-up to the wrapped value.
func (v *hashMapValue[V, PV]) ClearPacked(at key.Key, env storeenv.Store) {
	if f, ok := any(PV(&v.value)).(layout.Fixupper); ok {
		f.ClearPacked(at, env)
	}
}

// HashMap composes a Stash<K> (giving every key a stable u32 index) with
// a LazyHashMap<K, {value, key_index}> so that the same back-linked
// coherence invariant the source relies on — stash[entry.key_index] ==
// k for every live hashed entry — is maintained on every mutation.
type HashMap[K any, PK codecPtr[K], V any, PV codecPtr[V]] struct {
	keys   *Stash[K, PK]
	values *lazy.HashMap[K, PK, hashMapValue[V, PV], *hashMapValue[V, PV]]
}

// NewHashMap returns an empty, unanchored HashMap using hasher to derive
// value cell keys and less to order the in-memory value cache.
func NewHashMap[K any, PK codecPtr[K], V any, PV codecPtr[V]](hasher hash.Hasher, less func(a, b K) bool) *HashMap[K, PK, V, PV] {
	return &HashMap[K, PK, V, PV]{
		keys:   NewStash[K, PK](),
		values: lazy.NewHashMap[K, PK, hashMapValue[V, PV], *hashMapValue[V, PV]](hasher, less),
	}
}

// Len returns the number of live entries.
func (m *HashMap[K, PK, V, PV]) Len() uint32 { return m.keys.Len() }

// Get returns the value for k, or nil if absent.
func (m *HashMap[K, PK, V, PV]) Get(k K, env storeenv.Store) *V {
	ent := m.values.Get(k, env)
	if ent == nil {
		return nil
	}
	return &ent.value
}

// Insert overwrites k's value if present, or assigns it a fresh stash
// index. Returns the previous value, or nil if k was not present.
func (m *HashMap[K, PK, V, PV]) Insert(k K, v V, env storeenv.Store) *V {
	if ent := m.values.GetMut(k, env); ent != nil {
		old := ent.value
		ent.value = v
		return &old
	}
	idx := m.keys.Put(k, env)
	m.values.Put(k, &hashMapValue[V, PV]{value: v, keyIndex: idx})
	return nil
}

// Take removes and returns k's value, or nil if absent.
func (m *HashMap[K, PK, V, PV]) Take(k K, env storeenv.Store) *V {
	ent := m.values.PutGet(k, nil, env)
	if ent == nil {
		return nil
	}
	m.keys.Take(ent.keyIndex, env)
	return &ent.value
}

// Contains reports whether k has a live entry.
func (m *HashMap[K, PK, V, PV]) Contains(k K, env storeenv.Store) bool {
	return m.values.Get(k, env) != nil
}

// Entry returns an entry-API handle for k, lifted from the lower-level
// LazyHashMap's entry API so that inserting through it also allocates
// the key a stash index, keeping the two subsystems coherent the same
// way Insert does.
func (m *HashMap[K, PK, V, PV]) Entry(k K, env storeenv.Store) *EntryHandle[K, PK, V, PV] {
	return &EntryHandle[K, PK, V, PV]{m: m, k: k, env: env}
}

// EntryHandle mirrors the source's map.entry(k) surface: Occupied or
// Vacant is decided lazily by inspecting the cached value.
type EntryHandle[K any, PK codecPtr[K], V any, PV codecPtr[V]] struct {
	m   *HashMap[K, PK, V, PV]
	k   K
	env storeenv.Store
}

// OrInsert returns the current value, inserting def (and allocating a
// fresh stash index for the key) if vacant.
func (h *EntryHandle[K, PK, V, PV]) OrInsert(def V) *V {
	if ent := h.m.values.GetMut(h.k, h.env); ent != nil {
		return &ent.value
	}
	h.m.Insert(h.k, def, h.env)
	return &h.m.values.GetMut(h.k, h.env).value
}

// OrInsertWith is OrInsert with a deferred default, computed only if
// the key is vacant.
func (h *EntryHandle[K, PK, V, PV]) OrInsertWith(def func() V) *V {
	if ent := h.m.values.GetMut(h.k, h.env); ent != nil {
		return &ent.value
	}
	h.m.Insert(h.k, def(), h.env)
	return &h.m.values.GetMut(h.k, h.env).value
}

// AndModify applies f to the value if the key is occupied, and returns
// h for chaining.
func (h *EntryHandle[K, PK, V, PV]) AndModify(f func(*V)) *EntryHandle[K, PK, V, PV] {
	if ent := h.m.values.GetMut(h.k, h.env); ent != nil {
		f(&ent.value)
	}
	return h
}

// Defrag compacts the keys stash, rewriting each moved key's value
// entry so its back-link tracks the new index. Returns the number of
// moves performed, like Stash.Defrag.
func (m *HashMap[K, PK, V, PV]) Defrag(maxIter uint32, env storeenv.Store) uint32 {
	return m.keys.Defrag(maxIter, env, func(oldIndex, newIndex uint32, k *K) {
		if ent := m.values.GetMut(*k, env); ent != nil {
			ent.keyIndex = newIndex
		}
	})
}

// Iterate calls f(key, value) for every live entry, in key-index
// (insertion-stable) order.
func (m *HashMap[K, PK, V, PV]) Iterate(env storeenv.Store, f func(K, *V)) {
	m.keys.Iterate(env, func(_ uint32, k *K) {
		if ent := m.values.Get(*k, env); ent != nil {
			f(*k, &ent.value)
		}
	})
}

// Footprint implements layout.Spread: the keys stash plus the values
// anchor.
func (m *HashMap[K, PK, V, PV]) Footprint() uint64 {
	return m.keys.Footprint() + m.values.Footprint()
}

// RequiresDeepCleanup implements layout.Spread.
func (m *HashMap[K, PK, V, PV]) RequiresDeepCleanup() bool {
	return m.keys.RequiresDeepCleanup() || m.values.RequiresDeepCleanup()
}

// PullSpread binds both subsystems in sequence.
func (m *HashMap[K, PK, V, PV]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	m.keys.PullSpread(ptr, env)
	m.values.PullSpread(ptr, env)
}

// PushSpread writes back both subsystems in sequence.
func (m *HashMap[K, PK, V, PV]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	m.keys.PushSpread(ptr, env)
	m.values.PushSpread(ptr, env)
}

// ClearSpread iterates every live key, clears its value cell, then
// clears both subsystems.
func (m *HashMap[K, PK, V, PV]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	m.keys.Iterate(env, func(_ uint32, k *K) {
		m.values.ClearPackedAt(*k, env)
	})
	m.keys.ClearSpread(ptr, env)
	m.values.ClearSpread(ptr, env)
}
