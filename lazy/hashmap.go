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
	"github.com/google/btree"

	"github.com/ink-go/storage2/entry"
	"github.com/ink-go/storage2/hash"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// domainTag is the mandatory 11-byte separator mixed into every derived
// key, ahead of the anchor, so that hash maps with distinct anchors
// sharing a host store do not collide. Two maps with the same anchor
// derive the same keys.
const domainTag = "ink hashmap"

// btreeDegree is an arbitrary tuning constant for the in-memory ordered
// cache; it has no bearing on the on-disk format.
const btreeDegree = 32

// HashMap is LazyHashMap<K,V,H>: a single anchor key from which every
// element's cell is derived by hashing, backed by an ordered in-memory
// cache (a google/btree.BTreeG keyed by encoded K, mirroring the
// source's BTreeMap<K, Box<Entry<V>>> cache).
type HashMap[K any, PK codecPtr[K], V any, PV codecPtr[V]] struct {
	anchor key.Key
	hasher hash.Hasher
	less   func(a, b K) bool
	cache  *btree.BTreeG[*hashMapItem[K, V]]
}

type hashMapItem[K, V any] struct {
	key   K
	entry *entry.Entry[V]
}

// NewHashMap returns an empty, unanchored HashMap using hasher to
// derive cell keys and less to order the in-memory cache. less need
// only be a strict weak ordering over K; it never affects the wire
// format.
func NewHashMap[K any, PK codecPtr[K], V any, PV codecPtr[V]](hasher hash.Hasher, less func(a, b K) bool) *HashMap[K, PK, V, PV] {
	m := &HashMap[K, PK, V, PV]{hasher: hasher, less: less}
	m.cache = btree.NewG[*hashMapItem[K, V]](btreeDegree, func(a, b *hashMapItem[K, V]) bool {
		return less(a.key, b.key)
	})
	return m
}

func encodeKey[K any, PK codecPtr[K]](k K) []byte {
	e := scale.NewEncoder()
	PK(&k).EncodeScale(e)
	return e.Bytes()
}

// DerivedKey computes H(domainTag || anchor || encode(k)), the cell a
// given logical key lives at. Exposed for tests asserting the
// regression vector in the source's test suite.
func DerivedKey[K any, PK codecPtr[K]](anchor key.Key, k K, hasher hash.Hasher) key.Key {
	e := scale.NewEncoder()
	e.WriteBytes([]byte(domainTag))
	e.WriteBytes(anchor.Bytes())
	e.WriteBytes(encodeKey[K, PK](k))
	return key.FromBytes(hash.Sum(hasher, e.Bytes()))
}

func (m *HashMap[K, PK, V, PV]) cellKey(k K) key.Key {
	return DerivedKey[K, PK](m.anchor, k, m.hasher)
}

func (m *HashMap[K, PK, V, PV]) find(k K) *hashMapItem[K, V] {
	probe := &hashMapItem[K, V]{key: k}
	if it, ok := m.cache.Get(probe); ok {
		return it
	}
	return nil
}

func (m *HashMap[K, PK, V, PV]) load(k K, env storeenv.Store) *hashMapItem[K, V] {
	if it := m.find(k); it != nil {
		return it
	}
	v := layout.PullPackedRootOpt[V, PV](m.cellKey(k), env)
	it := &hashMapItem[K, V]{key: k, entry: entry.NewPreserved(v)}
	m.cache.ReplaceOrInsert(it)
	return it
}

// Get lazily loads k and returns its value, or nil if absent.
func (m *HashMap[K, PK, V, PV]) Get(k K, env storeenv.Store) *V {
	return m.load(k, env).entry.Value
}

// GetMut is Get but marks the slot Mutated.
func (m *HashMap[K, PK, V, PV]) GetMut(k K, env storeenv.Store) *V {
	it := m.load(k, env)
	it.entry.State = entry.Mutated
	return it.entry.Value
}

// Put unconditionally installs a Mutated entry for k.
func (m *HashMap[K, PK, V, PV]) Put(k K, v *V) {
	it := m.find(k)
	if it == nil {
		it = &hashMapItem[K, V]{key: k}
		m.cache.ReplaceOrInsert(it)
	}
	it.entry = entry.NewMutated(v)
}

// PutGet lazily loads k, swaps in v, and returns the old value.
func (m *HashMap[K, PK, V, PV]) PutGet(k K, v *V, env storeenv.Store) *V {
	it := m.load(k, env)
	old := it.entry.Value
	it.entry.MarkMutated(v)
	return old
}

// ClearPackedAt clears k's cell, loading first when V requires deep
// cleanup.
func (m *HashMap[K, PK, V, PV]) ClearPackedAt(k K, env storeenv.Store) {
	at := m.cellKey(k)
	if staticRequiresDeepCleanup[V, PV]() {
		if v := m.Get(k, env); v != nil {
			layout.ClearPackedRoot[V, PV](v, at, env)
			return
		}
	}
	env.Clear(at)
}

// Entry returns an entry-API handle for k: Occupied if a cached or
// on-disk value exists, Vacant otherwise.
func (m *HashMap[K, PK, V, PV]) Entry(k K, env storeenv.Store) *EntryHandle[K, PK, V, PV] {
	return &EntryHandle[K, PK, V, PV]{m: m, k: k, env: env}
}

// EntryHandle mirrors Rust's Entry API: Occupied/Vacant decided lazily
// by inspecting the cached value.
type EntryHandle[K any, PK codecPtr[K], V any, PV codecPtr[V]] struct {
	m   *HashMap[K, PK, V, PV]
	k   K
	env storeenv.Store
}

// OrInsert returns the current value, inserting def if vacant.
func (h *EntryHandle[K, PK, V, PV]) OrInsert(def V) *V {
	it := h.m.load(h.k, h.env)
	if it.entry.Value == nil {
		it.entry.MarkMutated(&def)
	}
	return it.entry.Value
}

// OrInsertWith is OrInsert with a deferred default.
func (h *EntryHandle[K, PK, V, PV]) OrInsertWith(def func() V) *V {
	it := h.m.load(h.k, h.env)
	if it.entry.Value == nil {
		v := def()
		it.entry.MarkMutated(&v)
	}
	return it.entry.Value
}

// AndModify applies f to the value if occupied, and returns h for
// chaining.
func (h *EntryHandle[K, PK, V, PV]) AndModify(f func(*V)) *EntryHandle[K, PK, V, PV] {
	it := h.m.load(h.k, h.env)
	if it.entry.Value != nil {
		f(it.entry.Value)
		it.entry.State = entry.Mutated
	}
	return h
}

// RemoveEntry deletes the occupied value and returns it, or nil if
// vacant.
func (h *EntryHandle[K, PK, V, PV]) RemoveEntry() *V {
	it := h.m.load(h.k, h.env)
	old := it.entry.Value
	it.entry.MarkMutated(nil)
	return old
}

// Footprint implements layout.Spread: the anchor is a pure domain
// separator and occupies exactly one cell's worth of key space (it is
// never itself read or written).
func (m *HashMap[K, PK, V, PV]) Footprint() uint64 { return 1 }

// RequiresDeepCleanup implements layout.Spread.
func (m *HashMap[K, PK, V, PV]) RequiresDeepCleanup() bool {
	return staticRequiresDeepCleanup[V, PV]()
}

// PullSpread captures the anchor with an empty cache. hasher/less must
// already be configured (via NewHashMap) before this is called.
func (m *HashMap[K, PK, V, PV]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	m.anchor = ptr.AdvanceBy(1)
	m.cache = btree.NewG[*hashMapItem[K, V]](btreeDegree, func(a, b *hashMapItem[K, V]) bool {
		return m.less(a.key, b.key)
	})
}

// PushSpread writes back every Mutated cached entry.
func (m *HashMap[K, PK, V, PV]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	anchor := ptr.AdvanceBy(1)
	m.anchor = anchor
	m.cache.Ascend(func(it *hashMapItem[K, V]) bool {
		if it.entry.State != entry.Mutated {
			return true
		}
		k := m.cellKey(it.key)
		if it.entry.Value != nil {
			layout.PushPackedRoot[V, PV](it.entry.Value, k, env)
		} else {
			env.Clear(k)
		}
		return true
	})
}

// ClearSpread is a documented no-op, like IndexMap's: the owner issues
// per-key ClearPackedAt calls, since HashMap alone does not enumerate
// its own key set (that set lives in the owner, e.g. collections.Stash
// for collections.HashMap).
func (m *HashMap[K, PK, V, PV]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	ptr.AdvanceBy(1)
}
