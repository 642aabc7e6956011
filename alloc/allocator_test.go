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

package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ink-go/storage2/alloc"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/storeenv"
)

func origins(t *testing.T) (key.Key, key.Key) {
	t.Helper()
	cells := key.FromBytes([]byte{1})
	chunks := key.FromUint64Shifted(1, 64)
	return cells, chunks
}

func TestAllocCellFirstFitReuse(t *testing.T) {
	cells, chunks := origins(t)
	a := alloc.NewDynamicAllocator(cells, chunks)

	k0 := a.AllocCell()
	k1 := a.AllocCell()
	require.NotEqual(t, k0, k1)

	a.Dealloc(k0)
	k2 := a.AllocCell()
	require.Equal(t, k0, k2, "freed cell should be reused first-fit")
}

func TestAllocChunkDistinctFromCells(t *testing.T) {
	cells, chunks := origins(t)
	a := alloc.NewDynamicAllocator(cells, chunks)

	c := a.AllocCell()
	ch := a.AllocChunk()
	require.True(t, c.Less(ch))
}

func TestAllocatorSpreadRoundTrip(t *testing.T) {
	cells, chunks := origins(t)
	a := alloc.NewDynamicAllocator(cells, chunks)
	a.AllocCell()
	a.AllocCell()
	freed := a.AllocCell()
	a.Dealloc(freed)

	root := key.FromBytes([]byte{99})
	env := storeenv.NewMemory()
	ptr := key.FromKey(root)
	a.PushSpread(ptr, env)

	b := alloc.NewDynamicAllocator(cells, chunks)
	ptr2 := key.FromKey(root)
	b.PullSpread(ptr2, env)

	reused := b.AllocCell()
	require.Equal(t, freed, reused)
}
