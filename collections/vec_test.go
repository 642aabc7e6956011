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

func TestVecPushPopRoundTrip(t *testing.T) {
	env := storeenv.NewMemory()
	root := key.FromBytes([]byte{10})

	v := collections.NewVec[scale.U32, *scale.U32]()
	ptr := key.FromKey(root)
	v.PullSpread(ptr, env)

	for _, n := range []scale.U32{1, 2, 3} {
		n := n
		v.Push(&n)
	}
	require.EqualValues(t, 3, v.Len())

	ptr2 := key.FromKey(root)
	v.PushSpread(ptr2, env)

	v2 := collections.NewVec[scale.U32, *scale.U32]()
	ptr3 := key.FromKey(root)
	v2.PullSpread(ptr3, env)
	require.EqualValues(t, 3, v2.Len())
	require.EqualValues(t, 1, *v2.Get(0, env))
	require.EqualValues(t, 2, *v2.Get(1, env))
	require.EqualValues(t, 3, *v2.Get(2, env))

	popped := v2.Pop(env)
	require.EqualValues(t, 3, *popped)
	require.EqualValues(t, 2, v2.Len())
}

func TestVecSwapRemove(t *testing.T) {
	env := storeenv.NewMemory()
	root := key.FromBytes([]byte{11})
	v := collections.NewVec[scale.U32, *scale.U32]()
	ptr := key.FromKey(root)
	v.PullSpread(ptr, env)

	for _, n := range []scale.U32{10, 20, 30} {
		n := n
		v.Push(&n)
	}
	removed := v.SwapRemove(0, env)
	require.EqualValues(t, 10, *removed)
	require.EqualValues(t, 2, v.Len())
	require.EqualValues(t, 30, *v.Get(0, env))
	require.EqualValues(t, 20, *v.Get(1, env))
}

func TestVecClearFreesCells(t *testing.T) {
	mem := storeenv.NewMemory()
	var env storeenv.Store = mem
	root := key.FromBytes([]byte{12})
	v := collections.NewVec[scale.U32, *scale.U32]()
	ptr := key.FromKey(root)
	v.PullSpread(ptr, env)
	for _, n := range []scale.U32{1, 2} {
		n := n
		v.Push(&n)
	}
	ptr2 := key.FromKey(root)
	v.PushSpread(ptr2, env)

	require.Greater(t, mem.Len(), 0)

	ptr3 := key.FromKey(root)
	v.ClearSpread(ptr3, env)
	require.Equal(t, 0, mem.Len())
}
