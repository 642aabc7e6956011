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
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ink-go/storage2/hash"
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

type u32Map = HashMap[scale.U32, *scale.U32, scale.U32, *scale.U32]

// assertCoherence checks the back-link invariant both ways: every live
// stash key's value entry points back at that stash index, and the two
// subsystems agree on the live count.
func assertCoherence(t require.TestingT, m *u32Map, env storeenv.Store) {
	seen := uint32(0)
	m.keys.Iterate(env, func(idx uint32, k *scale.U32) {
		ent := m.values.Get(*k, env)
		require.NotNil(t, ent, "stash key %d has no value entry", *k)
		require.Equal(t, idx, ent.keyIndex, "value back-link for key %d", *k)
		seen++
	})
	require.Equal(t, m.Len(), seen)
	require.Equal(t, m.keys.Len(), seen)
}

// TestHashMapStashCoherence runs random insert/take/defrag sequences
// and re-verifies the keys/values back-link invariant after every
// operation, against a model map.
func TestHashMapStashCoherence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := storeenv.NewMemory()
		root := key.FromBytes([]byte{33})
		m := NewHashMap[scale.U32, *scale.U32, scale.U32, *scale.U32](hash.Blake2x256, lessU32)
		ptr := key.FromKey(root)
		m.PullSpread(ptr, env)

		model := make(map[scale.U32]scale.U32)
		ops := rapid.IntRange(1, 80).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			k := scale.U32(rapid.Uint32Range(0, 25).Draw(t, "k"))
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0, 1:
				v := scale.U32(rapid.Uint32Range(0, 1<<30).Draw(t, "v"))
				prev := m.Insert(k, v, env)
				if old, ok := model[k]; ok {
					require.NotNil(t, prev)
					require.Equal(t, old, *prev)
				} else {
					require.Nil(t, prev)
				}
				model[k] = v
			case 2:
				got := m.Take(k, env)
				if old, ok := model[k]; ok {
					require.NotNil(t, got)
					require.Equal(t, old, *got)
					delete(model, k)
				} else {
					require.Nil(t, got)
				}
			}
			assertCoherence(t, m, env)
		}

		m.Defrag(^uint32(0), env)
		assertCoherence(t, m, env)
		require.Equal(t, m.keys.Len(), m.keys.MaxLen(), "defrag must leave the key stash dense")

		require.EqualValues(t, len(model), m.Len())
		for k, v := range model {
			got := m.Get(k, env)
			require.NotNil(t, got)
			require.Equal(t, v, *got)
		}
	})
}
