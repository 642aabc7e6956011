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

package collections_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ink-go/storage2/collections"
	"github.com/ink-go/storage2/hash"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// TestVecPushWritesExactCells pins the cell layout: pushing [10,20,30]
// at root K writes exactly four cells, len=3 at K and the three
// elements at K+1, K+2, K+3.
func TestVecPushWritesExactCells(t *testing.T) {
	mem := storeenv.NewMemory()
	root, err := key.FromHex("0x" + repeatHex("42", 32))
	require.NoError(t, err)

	v := collections.NewVec[scale.U32, *scale.U32]()
	ptr := key.FromKey(root)
	v.PullSpread(ptr, mem)
	for _, n := range []scale.U32{10, 20, 30} {
		n := n
		v.Push(&n)
	}
	pushPtr := key.FromKey(root)
	v.PushSpread(pushPtr, mem)

	encU32 := func(n scale.U32) []byte { return scale.Marshal(&n) }
	snap := mem.Snapshot()
	require.Len(t, snap, 4)
	require.Equal(t, encU32(3), snap[root])
	require.Equal(t, encU32(10), snap[root.Add(1)])
	require.Equal(t, encU32(20), snap[root.Add(2)])
	require.Equal(t, encU32(30), snap[root.Add(3)])

	loaded := collections.NewVec[scale.U32, *scale.U32]()
	loadPtr := key.FromKey(root)
	loaded.PullSpread(loadPtr, mem)
	var got []scale.U32
	for i := uint32(0); i < loaded.Len(); i++ {
		got = append(got, *loaded.Get(i, mem))
	}
	require.Equal(t, []scale.U32{10, 20, 30}, got)
}

func repeatHex(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

// TestReadOnlyAccessPushesNothing checks write minimality across the
// containers: after pull, read-only access, and push, no host set or
// clear occurs.
func TestReadOnlyAccessPushesNothing(t *testing.T) {
	mem := storeenv.NewMemory()
	root := key.FromBytes([]byte{60})

	v := collections.NewVec[scale.U32, *scale.U32]()
	ptr := key.FromKey(root)
	v.PullSpread(ptr, mem)
	for _, n := range []scale.U32{4, 5, 6} {
		n := n
		v.Push(&n)
	}
	pushPtr := key.FromKey(root)
	v.PushSpread(pushPtr, mem)

	rec := storeenv.NewRecording(mem)
	loaded := collections.NewVec[scale.U32, *scale.U32]()
	loadPtr := key.FromKey(root)
	loaded.PullSpread(loadPtr, rec)
	_ = loaded.Get(0, rec)
	_ = loaded.Get(2, rec)
	rePushPtr := key.FromKey(root)
	loaded.PushSpread(rePushPtr, rec)
	require.Empty(t, rec.Sets)
	require.Empty(t, rec.Clears)
}

func TestHashMapReadOnlyAccessPushesNothing(t *testing.T) {
	mem := storeenv.NewMemory()
	root := key.FromBytes([]byte{61})

	m := collections.NewHashMap[scale.U32, *scale.U32, scale.U32, *scale.U32](hash.Blake2x256, lessU32Coll)
	ptr := key.FromKey(root)
	m.PullSpread(ptr, mem)
	m.Insert(1, 100, mem)
	m.Insert(2, 200, mem)
	pushPtr := key.FromKey(root)
	m.PushSpread(pushPtr, mem)

	rec := storeenv.NewRecording(mem)
	loaded := collections.NewHashMap[scale.U32, *scale.U32, scale.U32, *scale.U32](hash.Blake2x256, lessU32Coll)
	loadPtr := key.FromKey(root)
	loaded.PullSpread(loadPtr, rec)
	require.EqualValues(t, 100, *loaded.Get(1, rec))
	require.True(t, loaded.Contains(2, rec))
	rePushPtr := key.FromKey(root)
	loaded.PushSpread(rePushPtr, rec)
	require.Empty(t, rec.Sets)
	require.Empty(t, rec.Clears)
}

func TestBTreeMapReadOnlyAccessPushesNothing(t *testing.T) {
	mem := storeenv.NewMemory()
	root := key.FromBytes([]byte{62})
	less := func(a, b scale.U32) bool { return a < b }

	m := collections.NewBTreeMap[scale.U32, *scale.U32, scale.U32, *scale.U32](less)
	ptr := key.FromKey(root)
	m.PullSpread(ptr, mem)
	for i := scale.U32(0); i < 30; i++ {
		m.Insert(i, i*2, mem)
	}
	pushPtr := key.FromKey(root)
	m.PushSpread(pushPtr, mem)

	rec := storeenv.NewRecording(mem)
	loaded := collections.NewBTreeMap[scale.U32, *scale.U32, scale.U32, *scale.U32](less)
	loadPtr := key.FromKey(root)
	loaded.PullSpread(loadPtr, rec)
	require.EqualValues(t, 14, *loaded.Get(7, rec))
	var count int
	loaded.Iterate(rec, func(k, v scale.U32) { count++ })
	require.Equal(t, 30, count)
	rePushPtr := key.FromKey(root)
	loaded.PushSpread(rePushPtr, rec)
	require.Empty(t, rec.Sets)
	require.Empty(t, rec.Clears)
}

// TestClearReturnsStoreToPriorState: for each container, push random
// contents into an empty store, pull a fresh copy, and clear it. The
// store must end empty again.
func TestClearReturnsStoreToPriorState(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := key.FromBytes([]byte{63})
		elems := rapid.SliceOfN(rapid.Uint32Range(0, 1<<30), 1, 30).Draw(t, "elems")

		switch rapid.IntRange(0, 3).Draw(t, "container") {
		case 0:
			mem := storeenv.NewMemory()
			v := collections.NewVec[scale.U32, *scale.U32]()
			ptr := key.FromKey(root)
			v.PullSpread(ptr, mem)
			for _, n := range elems {
				n := scale.U32(n)
				v.Push(&n)
			}
			pushPtr := key.FromKey(root)
			v.PushSpread(pushPtr, mem)
			require.Greater(t, mem.Len(), 0)

			loaded := collections.NewVec[scale.U32, *scale.U32]()
			loadPtr := key.FromKey(root)
			loaded.PullSpread(loadPtr, mem)
			clearPtr := key.FromKey(root)
			loaded.ClearSpread(clearPtr, mem)
			require.Zero(t, mem.Len())
		case 1:
			mem := storeenv.NewMemory()
			s := collections.NewStash[scale.U32, *scale.U32]()
			ptr := key.FromKey(root)
			s.PullSpread(ptr, mem)
			for _, n := range elems {
				s.Put(scale.U32(n), mem)
			}
			s.Take(0, mem)
			pushPtr := key.FromKey(root)
			s.PushSpread(pushPtr, mem)
			require.Greater(t, mem.Len(), 0)

			loaded := collections.NewStash[scale.U32, *scale.U32]()
			loadPtr := key.FromKey(root)
			loaded.PullSpread(loadPtr, mem)
			clearPtr := key.FromKey(root)
			loaded.ClearSpread(clearPtr, mem)
			require.Zero(t, mem.Len())
		case 2:
			mem := storeenv.NewMemory()
			m := collections.NewHashMap[scale.U32, *scale.U32, scale.U32, *scale.U32](hash.Blake2x256, lessU32Coll)
			ptr := key.FromKey(root)
			m.PullSpread(ptr, mem)
			for i, n := range elems {
				m.Insert(scale.U32(i), scale.U32(n), mem)
			}
			pushPtr := key.FromKey(root)
			m.PushSpread(pushPtr, mem)
			require.Greater(t, mem.Len(), 0)

			loaded := collections.NewHashMap[scale.U32, *scale.U32, scale.U32, *scale.U32](hash.Blake2x256, lessU32Coll)
			loadPtr := key.FromKey(root)
			loaded.PullSpread(loadPtr, mem)
			clearPtr := key.FromKey(root)
			loaded.ClearSpread(clearPtr, mem)
			require.Zero(t, mem.Len())
		case 3:
			mem := storeenv.NewMemory()
			less := func(a, b scale.U32) bool { return a < b }
			m := collections.NewBTreeMap[scale.U32, *scale.U32, scale.U32, *scale.U32](less)
			ptr := key.FromKey(root)
			m.PullSpread(ptr, mem)
			for i, n := range elems {
				m.Insert(scale.U32(i), scale.U32(n), mem)
			}
			pushPtr := key.FromKey(root)
			m.PushSpread(pushPtr, mem)
			require.Greater(t, mem.Len(), 0)

			loaded := collections.NewBTreeMap[scale.U32, *scale.U32, scale.U32, *scale.U32](less)
			loadPtr := key.FromKey(root)
			loaded.PullSpread(loadPtr, mem)
			clearPtr := key.FromKey(root)
			loaded.ClearSpread(clearPtr, mem)
			require.Zero(t, mem.Len())
		}
	})
}
