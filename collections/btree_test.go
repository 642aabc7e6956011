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

	"github.com/ink-go/storage2/collections"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// TestBTreeMapStress drives a full insert/iterate/remove cycle and
// checks that an emptied map frees every node.
func TestBTreeMapStress(t *testing.T) {
	env := storeenv.NewMemory()
	less := func(a, b scale.U32) bool { return a < b }
	m := collections.NewBTreeMap[scale.U32, *scale.U32, scale.U32, *scale.U32](less)

	for _, n := range []scale.U32{5, 9, 3, 7, 1, 11, 4, 6, 2, 8, 10} {
		m.Insert(n, n, env)
	}
	require.EqualValues(t, 11, m.Len())

	var got []scale.U32
	m.Iterate(env, func(k scale.U32, v scale.U32) { got = append(got, k) })
	require.Equal(t, []scale.U32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, got)

	m.Remove(5, env)
	got = nil
	m.Iterate(env, func(k scale.U32, v scale.U32) { got = append(got, k) })
	require.Equal(t, []scale.U32{1, 2, 3, 4, 6, 7, 8, 9, 10, 11}, got)

	for _, n := range []scale.U32{1, 2, 3, 4, 6, 7, 8, 9, 10, 11} {
		m.Remove(n, env)
	}
	require.EqualValues(t, 0, m.Len())
	require.EqualValues(t, 0, m.NodeCount(), "all nodes must be freed once the map is empty")
	require.Nil(t, m.Get(1, env))
}

func TestBTreeMapSpreadRoundTrip(t *testing.T) {
	env := storeenv.NewMemory()
	root := key.FromBytes([]byte{50})
	less := func(a, b scale.U32) bool { return a < b }

	m := collections.NewBTreeMap[scale.U32, *scale.U32, scale.U32, *scale.U32](less)
	ptr := key.FromKey(root)
	m.PullSpread(ptr, env)
	for _, n := range []scale.U32{3, 1, 2} {
		m.Insert(n, n*10, env)
	}
	ptr2 := key.FromKey(root)
	m.PushSpread(ptr2, env)

	m2 := collections.NewBTreeMap[scale.U32, *scale.U32, scale.U32, *scale.U32](less)
	ptr3 := key.FromKey(root)
	m2.PullSpread(ptr3, env)
	require.EqualValues(t, 3, m2.Len())
	require.EqualValues(t, 20, *m2.Get(2, env))
}
