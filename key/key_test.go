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

package key_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ink-go/storage2/key"
)

func TestKeyAddWraps(t *testing.T) {
	var max key.Key
	for i := range max {
		max[i] = 0xff
	}
	require.Equal(t, key.Zero, max.Add(1))
}

func TestKeyFromHex(t *testing.T) {
	k, err := key.FromHex("0x" + repeat("42", 32))
	require.NoError(t, err)
	require.Equal(t, "0x"+repeat("42", 32), k.String())
}

func TestKeyPtrAdvancesMonotonically(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := key.FromBytes(rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "root"))
		ptr := key.FromKey(root)
		offsets := rapid.SliceOfN(rapid.Uint64Range(0, 1<<20), 1, 20).Draw(t, "offsets")

		expect := root
		for _, n := range offsets {
			got := ptr.AdvanceBy(n)
			require.Equal(t, expect, got)
			expect = expect.Add(n)
		}
		require.Equal(t, expect, ptr.Peek())
	})
}

func TestKeyLessIsBytewise(t *testing.T) {
	a := key.FromBytes([]byte{0x01})
	b := key.FromBytes([]byte{0x02})
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
