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
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

type u32Tree = BTreeMap[scale.U32, *scale.U32, scale.U32, *scale.U32]

func lessU32(a, b scale.U32) bool { return a < b }

// TestBTreeMapRandomOpsKeepInvariants runs random insert/remove
// sequences against a model map and re-verifies the structural
// invariants after every operation: minimum fill of non-root nodes,
// edge counts, parent back-links, key ordering within subtree bounds,
// and agreement between the traversal and the node stash.
func TestBTreeMapRandomOpsKeepInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		env := storeenv.NewMemory()
		m := NewBTreeMap[scale.U32, *scale.U32, scale.U32, *scale.U32](lessU32)
		model := make(map[scale.U32]scale.U32)

		ops := rapid.IntRange(1, 150).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			k := scale.U32(rapid.Uint32Range(0, 60).Draw(t, "k"))
			if rapid.Bool().Draw(t, "insert") {
				v := scale.U32(rapid.Uint32Range(0, 1<<30).Draw(t, "v"))
				prev := m.Insert(k, v, env)
				if old, ok := model[k]; ok {
					require.NotNil(t, prev)
					require.Equal(t, old, *prev)
				} else {
					require.Nil(t, prev)
				}
				model[k] = v
			} else {
				got := m.Remove(k, env)
				if old, ok := model[k]; ok {
					require.NotNil(t, got)
					require.Equal(t, old, *got)
					delete(model, k)
				} else {
					require.Nil(t, got)
				}
			}
			assertTreeInvariants(t, m, env)
		}

		require.EqualValues(t, len(model), m.Len())
		var inOrder []scale.U32
		m.Iterate(env, func(k, v scale.U32) {
			inOrder = append(inOrder, k)
			require.Equal(t, model[k], v)
		})
		require.True(t, sort.SliceIsSorted(inOrder, func(a, b int) bool { return inOrder[a] < inOrder[b] }))
		require.Len(t, inOrder, len(model))
	})
}

func assertTreeInvariants(t require.TestingT, m *u32Tree, env storeenv.Store) {
	if m.header.root == nil {
		require.Zero(t, m.header.len, "root = None iff len = 0")
		require.Zero(t, m.nodes.Len(), "an empty map holds no nodes")
		return
	}
	require.NotZero(t, m.header.len, "a rooted map holds at least one entry")

	entries, nodes := checkSubtree(t, m, *m.header.root, nil, 0, nil, nil, env)
	require.EqualValues(t, m.header.len, entries, "traversal entry count must match the header")
	require.EqualValues(t, m.nodes.Len(), nodes, "every live stash node must be reachable from the root")
}

// checkSubtree verifies node idx and its descendants, keeping every key
// inside the open interval (lo, hi), and returns (entries, nodes) seen.
func checkSubtree(t require.TestingT, m *u32Tree, idx uint32, parent *uint32, parentIdx uint32, lo, hi *scale.U32, env storeenv.Store) (uint32, uint32) {
	node := m.nodes.Get(idx, env)
	require.NotNil(t, node)

	if parent == nil {
		require.Nil(t, node.parent)
		require.True(t, node.len >= 1, "the root must hold at least one key")
	} else {
		require.NotNil(t, node.parent)
		require.Equal(t, *parent, *node.parent)
		require.NotNil(t, node.parentIdx)
		require.Equal(t, parentIdx, *node.parentIdx)
		require.True(t, node.len >= btreeCap/2, "non-root node below minimum fill")
	}
	require.True(t, node.len <= btreeCap)

	for i := uint32(0); i < node.len; i++ {
		require.NotNil(t, node.keys[i])
		require.NotNil(t, node.vals[i])
		if i > 0 {
			require.True(t, *node.keys[i-1] < *node.keys[i], "keys out of order within a node")
		}
		if lo != nil {
			require.True(t, *lo < *node.keys[i], "key below its subtree's lower bound")
		}
		if hi != nil {
			require.True(t, *node.keys[i] < *hi, "key above its subtree's upper bound")
		}
	}
	for i := node.len; i < btreeCap; i++ {
		require.Nil(t, node.keys[i])
		require.Nil(t, node.vals[i])
	}

	if node.isLeaf() {
		for i := 0; i < btreeCap+1; i++ {
			require.Nil(t, node.edges[i], "a leaf holds no edges")
		}
		return node.len, 1
	}

	entries, nodes := node.len, uint32(1)
	for i := uint32(0); i <= node.len; i++ {
		require.NotNil(t, node.edges[i], "internal node with n keys must hold n+1 edges")
		childLo, childHi := lo, hi
		if i > 0 {
			childLo = node.keys[i-1]
		}
		if i < node.len {
			childHi = node.keys[i]
		}
		self := idx
		e, n := checkSubtree(t, m, *node.edges[i], &self, i, childLo, childHi, env)
		entries += e
		nodes += n
	}
	for i := node.len + 1; i < btreeCap+1; i++ {
		require.Nil(t, node.edges[i])
	}
	return entries, nodes
}
