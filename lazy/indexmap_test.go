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

package lazy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/lazy"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

func TestIndexMapGetPutRoundTrip(t *testing.T) {
	env := storeenv.NewMemory()
	root := key.FromBytes([]byte{1})

	m := lazy.NewIndexMap[scale.U32]()
	ptr := key.FromKey(root)
	m.PullSpread(ptr, env)

	require.Nil(t, m.Get(0, env))

	v := scale.U32(5)
	m.Put(0, &v)
	w := scale.U32(6)
	m.Put(1, &w)

	ptr2 := key.FromKey(root)
	m.PushSpread(ptr2, env)

	m2 := lazy.NewIndexMap[scale.U32]()
	ptr3 := key.FromKey(root)
	m2.PullSpread(ptr3, env)
	got0 := m2.Get(0, env)
	got1 := m2.Get(1, env)
	require.NotNil(t, got0)
	require.NotNil(t, got1)
	require.EqualValues(t, 5, *got0)
	require.EqualValues(t, 6, *got1)
}

func TestIndexMapWriteMinimality(t *testing.T) {
	env := storeenv.NewMemory()
	root := key.FromBytes([]byte{2})
	m := lazy.NewIndexMap[scale.U32]()
	ptr := key.FromKey(root)
	m.PullSpread(ptr, env)
	v := scale.U32(1)
	m.Put(0, &v)
	ptr2 := key.FromKey(root)
	m.PushSpread(ptr2, env)

	rec := storeenv.NewRecording(env)
	m2 := lazy.NewIndexMap[scale.U32]()
	ptr3 := key.FromKey(root)
	m2.PullSpread(ptr3, rec)
	_ = m2.Get(0, rec)
	ptr4 := key.FromKey(root)
	m2.PushSpread(ptr4, rec)
	require.Empty(t, rec.Sets)
}

func TestIndexMapSwap(t *testing.T) {
	env := storeenv.NewMemory()
	root := key.FromBytes([]byte{3})
	m := lazy.NewIndexMap[scale.U32]()
	ptr := key.FromKey(root)
	m.PullSpread(ptr, env)
	a, b := scale.U32(10), scale.U32(20)
	m.Put(0, &a)
	m.Put(1, &b)
	m.Swap(0, 1, env)
	require.EqualValues(t, 20, *m.Get(0, env))
	require.EqualValues(t, 10, *m.Get(1, env))
}
