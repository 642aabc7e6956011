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
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// btreeDegree (B) and btreeCap (2B-1) fix the node shape: at most
// btreeCap keys per node, at most 2B edges, underflow threshold
// btreeCap/2.
const (
	btreeDegree = 6
	btreeCap    = 2*btreeDegree - 1 // 11
)

// btreeNode is one B-tree node: a fixed 11-key/11-value/12-edge shape
// with only the first len of each slice live. Leaves are recognized by
// edges[0] == nil.
type btreeNode[K any, PK codecPtr[K], V any, PV codecPtr[V]] struct {
	parent    *uint32
	parentIdx *uint32
	keys      [btreeCap]*K
	vals      [btreeCap]*V
	edges     [btreeCap + 1]*uint32
	len       uint32
}

func (n btreeNode[K, PK, V, PV]) EncodeScale(e *scale.Encoder) {
	encodeOptionU32(e, n.parent)
	encodeOptionU32(e, n.parentIdx)
	for i := 0; i < btreeCap; i++ {
		encodeOptionCodec[K, PK](e, n.keys[i])
	}
	for i := 0; i < btreeCap; i++ {
		encodeOptionCodec[V, PV](e, n.vals[i])
	}
	for i := 0; i < btreeCap+1; i++ {
		encodeOptionU32(e, n.edges[i])
	}
	e.WriteUint32(n.len)
}

func (n *btreeNode[K, PK, V, PV]) DecodeScale(d *scale.Decoder) error {
	var err error
	if n.parent, err = decodeOptionU32(d); err != nil {
		return err
	}
	if n.parentIdx, err = decodeOptionU32(d); err != nil {
		return err
	}
	for i := 0; i < btreeCap; i++ {
		if n.keys[i], err = decodeOptionCodec[K, PK](d); err != nil {
			return err
		}
	}
	for i := 0; i < btreeCap; i++ {
		if n.vals[i], err = decodeOptionCodec[V, PV](d); err != nil {
			return err
		}
	}
	for i := 0; i < btreeCap+1; i++ {
		if n.edges[i], err = decodeOptionU32(d); err != nil {
			return err
		}
	}
	n.len, err = d.ReadUint32()
	return err
}

func (n *btreeNode[K, PK, V, PV]) isLeaf() bool { return n.edges[0] == nil }

// RequiresDeepCleanup propagates the key/value types' deep-cleanup need
// through the node wrapper.
func (n *btreeNode[K, PK, V, PV]) RequiresDeepCleanup() bool {
	return staticRequiresDeepCleanup[K, PK]() || staticRequiresDeepCleanup[V, PV]()
}

// PullPacked forwards the packed fix-up to every live key and value.
func (n *btreeNode[K, PK, V, PV]) PullPacked(at key.Key, env storeenv.Store) {
	for i := uint32(0); i < n.len; i++ {
		if f, ok := any(PK(n.keys[i])).(layout.Fixupper); ok {
			f.PullPacked(at, env)
		}
		if f, ok := any(PV(n.vals[i])).(layout.Fixupper); ok {
			f.PullPacked(at, env)
		}
	}
}

// PushPacked forwards the packed fix-up to every live key and value.
func (n *btreeNode[K, PK, V, PV]) PushPacked(at key.Key, env storeenv.Store) {
	for i := uint32(0); i < n.len; i++ {
		if f, ok := any(PK(n.keys[i])).(layout.Fixupper); ok {
			f.PushPacked(at, env)
		}
		if f, ok := any(PV(n.vals[i])).(layout.Fixupper); ok {
			f.PushPacked(at, env)
		}
	}
}

// ClearPacked forwards the packed fix-up to every live key and value so
// transitively owned resources are freed with the node.
func (n *btreeNode[K, PK, V, PV]) ClearPacked(at key.Key, env storeenv.Store) {
	for i := uint32(0); i < n.len; i++ {
		if f, ok := any(PK(n.keys[i])).(layout.Fixupper); ok {
			f.ClearPacked(at, env)
		}
		if f, ok := any(PV(n.vals[i])).(layout.Fixupper); ok {
			f.ClearPacked(at, env)
		}
	}
}

func encodeOptionCodec[T any, PT codecPtr[T]](e *scale.Encoder, v *T) {
	if v == nil {
		e.WriteBool(false)
		return
	}
	e.WriteBool(true)
	PT(v).EncodeScale(e)
}

func decodeOptionCodec[T any, PT codecPtr[T]](d *scale.Decoder) (*T, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return nil, err
	}
	var v T
	if err := PT(&v).DecodeScale(d); err != nil {
		return nil, err
	}
	return &v, nil
}

// btreeHeader is BTreeMap's own one-cell prefix; node_count and the
// vacant-node linked list both live inside the Stash header already.
type btreeHeader struct {
	root *uint32
	len  uint32
}

func (h btreeHeader) EncodeScale(e *scale.Encoder) {
	encodeOptionU32(e, h.root)
	e.WriteUint32(h.len)
}

func (h *btreeHeader) DecodeScale(d *scale.Decoder) error {
	var err error
	if h.root, err = decodeOptionU32(d); err != nil {
		return err
	}
	h.len, err = d.ReadUint32()
	return err
}

// BTreeMap is a node-per-cell B-tree (order B=6, node capacity 11) with
// freed nodes reused through a linked vacant list. Node allocation and
// removal are delegated to Stash, whose put/take semantics are exactly
// this engine's "consume the vacant head, else append" / "thread onto
// the vacant list" rules.
type BTreeMap[K any, PK codecPtr[K], V any, PV codecPtr[V]] struct {
	header      btreeHeader
	headerDirty bool
	nodes       *Stash[btreeNode[K, PK, V, PV], *btreeNode[K, PK, V, PV]]
	less        func(a, b K) bool
}

// NewBTreeMap returns an empty, unanchored BTreeMap ordered by less.
func NewBTreeMap[K any, PK codecPtr[K], V any, PV codecPtr[V]](less func(a, b K) bool) *BTreeMap[K, PK, V, PV] {
	return &BTreeMap[K, PK, V, PV]{
		headerDirty: true,
		nodes:       NewStash[btreeNode[K, PK, V, PV], *btreeNode[K, PK, V, PV]](),
		less:        less,
	}
}

// Len returns the number of key/value pairs stored.
func (m *BTreeMap[K, PK, V, PV]) Len() uint32 { return m.header.len }

// searchResult locates where k is, or would go.
type btreeSearch struct {
	node  uint32
	pos   uint32
	found bool
}

func (m *BTreeMap[K, PK, V, PV]) search(k K, env storeenv.Store) btreeSearch {
	if m.header.root == nil {
		return btreeSearch{}
	}
	idx := *m.header.root
	for {
		node := m.nodes.Get(idx, env)
		i := uint32(0)
		for i < node.len && m.less(*node.keys[i], k) {
			i++
		}
		if i < node.len && !m.less(k, *node.keys[i]) {
			return btreeSearch{node: idx, pos: i, found: true}
		}
		if node.isLeaf() {
			return btreeSearch{node: idx, pos: i, found: false}
		}
		idx = *node.edges[i]
	}
}

// Get returns the value for k, or nil if absent.
func (m *BTreeMap[K, PK, V, PV]) Get(k K, env storeenv.Store) *V {
	r := m.search(k, env)
	if !r.found {
		return nil
	}
	node := m.nodes.Get(r.node, env)
	return node.vals[r.pos]
}

// Insert adds or overwrites k's value, returning the previous value if
// any.
func (m *BTreeMap[K, PK, V, PV]) Insert(k K, v V, env storeenv.Store) *V {
	r := m.search(k, env)
	if r.found {
		node := m.nodes.GetMut(r.node, env)
		old := node.vals[r.pos]
		node.vals[r.pos] = &v
		return old
	}

	if m.header.root == nil {
		n := btreeNode[K, PK, V, PV]{}
		n.keys[0] = &k
		n.vals[0] = &v
		n.len = 1
		idx := m.nodes.Put(n, env)
		root := idx
		m.header.root = &root
		m.header.len = 1
		m.headerDirty = true
		return nil
	}

	root := *m.header.root
	if rootNode := m.nodes.GetMut(root, env); rootNode.len == btreeCap {
		newRootIdx := m.allocEmptyNode(env)
		newRoot := m.nodes.GetMut(newRootIdx, env)
		oldRoot := root
		newRoot.edges[0] = &oldRoot
		rootNode.parent = &newRootIdx
		zero := uint32(0)
		rootNode.parentIdx = &zero
		m.splitChild(newRootIdx, 0, env)
		m.header.root = &newRootIdx
		root = newRootIdx
	}
	m.insertNonFull(root, k, v, env)
	m.header.len++
	m.headerDirty = true
	return nil
}

func (m *BTreeMap[K, PK, V, PV]) allocEmptyNode(env storeenv.Store) uint32 {
	return m.nodes.Put(btreeNode[K, PK, V, PV]{}, env)
}

// splitChild splits the full child at parent.edges[i], promoting the
// median key/value into parent at position i.
func (m *BTreeMap[K, PK, V, PV]) splitChild(parentIdx, i uint32, env storeenv.Store) {
	parent := m.nodes.GetMut(parentIdx, env)
	childIdx := *parent.edges[i]
	child := m.nodes.GetMut(childIdx, env)

	medianKey, medianVal := child.keys[btreeDegree-1], child.vals[btreeDegree-1]

	rightIdx := m.allocEmptyNode(env)
	right := m.nodes.GetMut(rightIdx, env)
	right.parent = &parentIdx
	rightN := uint32(0)
	for j := btreeDegree; j < int(child.len); j++ {
		right.keys[rightN] = child.keys[j]
		right.vals[rightN] = child.vals[j]
		child.keys[j], child.vals[j] = nil, nil
		rightN++
	}
	right.len = rightN
	if !child.isLeaf() {
		for j := btreeDegree; j <= int(child.len); j++ {
			right.edges[j-btreeDegree] = child.edges[j]
			child.edges[j] = nil
		}
	}
	child.len = btreeDegree - 1
	child.keys[btreeDegree-1], child.vals[btreeDegree-1] = nil, nil

	// shift parent's edges/keys right to make room at i+1
	for j := int(parent.len); j > int(i); j-- {
		parent.keys[j] = parent.keys[j-1]
		parent.vals[j] = parent.vals[j-1]
		parent.edges[j+1] = parent.edges[j]
	}
	parent.keys[i] = medianKey
	parent.vals[i] = medianVal
	parent.edges[i+1] = &rightIdx
	parent.len++

	m.fixChildBackLinks(rightIdx, env)
	m.fixParentIdxFrom(parentIdx, int(i), env)
}

// fixChildBackLinks re-stamps parent_idx on every edge of node (used
// after a split moves a run of children to a new parent).
func (m *BTreeMap[K, PK, V, PV]) fixChildBackLinks(idx uint32, env storeenv.Store) {
	node := m.nodes.GetMut(idx, env)
	if node.isLeaf() {
		return
	}
	for j := 0; j <= int(node.len); j++ {
		if node.edges[j] == nil {
			continue
		}
		childIdx := *node.edges[j]
		child := m.nodes.GetMut(childIdx, env)
		child.parent = &idx
		pos := uint32(j)
		child.parentIdx = &pos
	}
}

// fixParentIdxFrom re-stamps parent_idx for parent's edges at and after
// position start (an insertion/removal shifted them).
func (m *BTreeMap[K, PK, V, PV]) fixParentIdxFrom(parentIdx uint32, start int, env storeenv.Store) {
	parent := m.nodes.GetMut(parentIdx, env)
	for j := start; j <= int(parent.len); j++ {
		if parent.edges[j] == nil {
			continue
		}
		childIdx := *parent.edges[j]
		child := m.nodes.GetMut(childIdx, env)
		child.parent = &parentIdx
		pos := uint32(j)
		child.parentIdx = &pos
	}
}

func (m *BTreeMap[K, PK, V, PV]) insertNonFull(idx uint32, k K, v V, env storeenv.Store) {
	node := m.nodes.GetMut(idx, env)
	i := int(node.len) - 1
	if node.isLeaf() {
		for i >= 0 && m.less(k, *node.keys[i]) {
			node.keys[i+1] = node.keys[i]
			node.vals[i+1] = node.vals[i]
			i--
		}
		node.keys[i+1] = &k
		node.vals[i+1] = &v
		node.len++
		return
	}
	for i >= 0 && m.less(k, *node.keys[i]) {
		i--
	}
	i++
	child := m.nodes.GetMut(*node.edges[i], env)
	if child.len == btreeCap {
		m.splitChild(idx, uint32(i), env)
		node = m.nodes.GetMut(idx, env)
		if m.less(*node.keys[i], k) {
			i++
		}
	}
	m.insertNonFull(*node.edges[i], k, v, env)
}

// Remove deletes k, returning its value if present.
func (m *BTreeMap[K, PK, V, PV]) Remove(k K, env storeenv.Store) *V {
	r := m.search(k, env)
	if !r.found {
		return nil
	}
	old := m.nodes.Get(r.node, env).vals[r.pos]
	m.removeAt(r.node, r.pos, env)
	m.header.len--
	if m.header.len == 0 {
		if m.header.root != nil {
			m.nodes.Take(*m.header.root, env)
		}
		m.header.root = nil
	}
	m.headerDirty = true
	return old
}

// NodeCount returns the number of live (occupied) nodes backing the
// tree. An empty map holds zero nodes.
func (m *BTreeMap[K, PK, V, PV]) NodeCount() uint32 { return m.nodes.Len() }

func (m *BTreeMap[K, PK, V, PV]) removeAt(idx, pos uint32, env storeenv.Store) {
	node := m.nodes.GetMut(idx, env)
	if node.isLeaf() {
		for j := pos; j < node.len-1; j++ {
			node.keys[j] = node.keys[j+1]
			node.vals[j] = node.vals[j+1]
		}
		node.keys[node.len-1] = nil
		node.vals[node.len-1] = nil
		node.len--
		m.rebalance(idx, env)
		return
	}

	succNode, succPos := m.leftmost(*node.edges[pos+1], env)
	sn := m.nodes.GetMut(succNode, env)
	succKey, succVal := sn.keys[succPos], sn.vals[succPos]
	node = m.nodes.GetMut(idx, env)
	node.keys[pos] = succKey
	node.vals[pos] = succVal
	m.removeAt(succNode, succPos, env)
}

func (m *BTreeMap[K, PK, V, PV]) leftmost(idx uint32, env storeenv.Store) (uint32, uint32) {
	for {
		node := m.nodes.Get(idx, env)
		if node.isLeaf() {
			return idx, 0
		}
		idx = *node.edges[0]
	}
}

// rebalance restores the CAP/2 minimum-key invariant at idx, merging
// or stealing from a sibling and propagating upward as needed.
func (m *BTreeMap[K, PK, V, PV]) rebalance(idx uint32, env storeenv.Store) {
	node := m.nodes.GetMut(idx, env)
	if node.parent == nil {
		if node.len == 0 && !node.isLeaf() {
			newRoot := *node.edges[0]
			m.header.root = &newRoot
			m.headerDirty = true
			rn := m.nodes.GetMut(newRoot, env)
			rn.parent = nil
			rn.parentIdx = nil
			m.nodes.Take(idx, env)
		}
		return
	}
	if node.len >= btreeCap/2 {
		return
	}

	parentIdx := *node.parent
	myPos := *node.parentIdx
	parent := m.nodes.GetMut(parentIdx, env)

	var leftIdx, rightIdx *uint32
	if myPos > 0 {
		leftIdx = parent.edges[myPos-1]
	}
	if myPos < parent.len {
		rightIdx = parent.edges[myPos+1]
	}

	if rightIdx != nil {
		right := m.nodes.Get(*rightIdx, env)
		if right.len > btreeCap/2 {
			m.stealFromRight(parentIdx, myPos, env)
			return
		}
	}
	if leftIdx != nil {
		left := m.nodes.Get(*leftIdx, env)
		if left.len > btreeCap/2 {
			m.stealFromLeft(parentIdx, myPos, env)
			return
		}
	}
	if rightIdx != nil {
		m.mergeWithRight(parentIdx, myPos, env)
	} else if leftIdx != nil {
		m.mergeWithRight(parentIdx, myPos-1, env)
	} else {
		layout.TrapInvariant("collections.BTreeMap: node has no sibling to merge with")
	}
	m.rebalance(parentIdx, env)
}

// stealFromRight rotates parent.keys[pos] down into node, and the
// right sibling's first key up into parent.
func (m *BTreeMap[K, PK, V, PV]) stealFromRight(parentIdx, pos uint32, env storeenv.Store) {
	parent := m.nodes.GetMut(parentIdx, env)
	nodeIdx := *parent.edges[pos]
	rightIdx := *parent.edges[pos+1]
	node := m.nodes.GetMut(nodeIdx, env)
	right := m.nodes.GetMut(rightIdx, env)

	node.keys[node.len] = parent.keys[pos]
	node.vals[node.len] = parent.vals[pos]
	node.len++
	parent.keys[pos] = right.keys[0]
	parent.vals[pos] = right.vals[0]
	if !right.isLeaf() {
		node.edges[node.len] = right.edges[0]
		m.fixChildBackLinks(nodeIdx, env)
	}
	for j := uint32(0); j < right.len-1; j++ {
		right.keys[j] = right.keys[j+1]
		right.vals[j] = right.vals[j+1]
	}
	right.keys[right.len-1] = nil
	right.vals[right.len-1] = nil
	if !right.isLeaf() {
		for j := uint32(0); j < right.len; j++ {
			right.edges[j] = right.edges[j+1]
		}
		right.edges[right.len] = nil
		m.fixChildBackLinks(rightIdx, env)
	}
	right.len--
}

func (m *BTreeMap[K, PK, V, PV]) stealFromLeft(parentIdx, pos uint32, env storeenv.Store) {
	parent := m.nodes.GetMut(parentIdx, env)
	nodeIdx := *parent.edges[pos]
	leftIdx := *parent.edges[pos-1]
	node := m.nodes.GetMut(nodeIdx, env)
	left := m.nodes.GetMut(leftIdx, env)

	for j := int(node.len); j > 0; j-- {
		node.keys[j] = node.keys[j-1]
		node.vals[j] = node.vals[j-1]
	}
	node.keys[0] = parent.keys[pos-1]
	node.vals[0] = parent.vals[pos-1]
	node.len++
	parent.keys[pos-1] = left.keys[left.len-1]
	parent.vals[pos-1] = left.vals[left.len-1]
	left.keys[left.len-1] = nil
	left.vals[left.len-1] = nil
	if !left.isLeaf() {
		for j := int(node.len); j > 0; j-- {
			node.edges[j] = node.edges[j-1]
		}
		node.edges[0] = left.edges[left.len]
		left.edges[left.len] = nil
		m.fixChildBackLinks(nodeIdx, env)
	}
	left.len--
}

// mergeWithRight merges node = parent.edges[pos] with its right
// sibling parent.edges[pos+1], pulling parent.keys[pos] down as the
// separator.
func (m *BTreeMap[K, PK, V, PV]) mergeWithRight(parentIdx, pos uint32, env storeenv.Store) {
	parent := m.nodes.GetMut(parentIdx, env)
	nodeIdx := *parent.edges[pos]
	rightIdx := *parent.edges[pos+1]
	node := m.nodes.GetMut(nodeIdx, env)
	right := m.nodes.GetMut(rightIdx, env)

	node.keys[node.len] = parent.keys[pos]
	node.vals[node.len] = parent.vals[pos]
	node.len++
	for j := uint32(0); j < right.len; j++ {
		node.keys[node.len+j] = right.keys[j]
		node.vals[node.len+j] = right.vals[j]
	}
	if !right.isLeaf() {
		for j := uint32(0); j <= right.len; j++ {
			node.edges[node.len+j] = right.edges[j]
		}
	}
	node.len += right.len

	for j := pos; j < parent.len-1; j++ {
		parent.keys[j] = parent.keys[j+1]
		parent.vals[j] = parent.vals[j+1]
	}
	for j := pos + 1; j < parent.len; j++ {
		parent.edges[j] = parent.edges[j+1]
	}
	parent.edges[parent.len] = nil
	parent.keys[parent.len-1] = nil
	parent.vals[parent.len-1] = nil
	parent.len--

	m.nodes.Take(rightIdx, env)
	m.fixChildBackLinks(nodeIdx, env)
	m.fixParentIdxFrom(parentIdx, int(pos), env)
}

// Iterate performs an in-order traversal, calling f(key, value) for
// every entry in ascending order.
func (m *BTreeMap[K, PK, V, PV]) Iterate(env storeenv.Store, f func(K, V)) {
	if m.header.root == nil {
		return
	}
	m.iterateNode(*m.header.root, env, f)
}

func (m *BTreeMap[K, PK, V, PV]) iterateNode(idx uint32, env storeenv.Store, f func(K, V)) {
	node := m.nodes.Get(idx, env)
	for i := uint32(0); i < node.len; i++ {
		if !node.isLeaf() {
			m.iterateNode(*node.edges[i], env, f)
		}
		f(*node.keys[i], *node.vals[i])
	}
	if !node.isLeaf() {
		m.iterateNode(*node.edges[node.len], env, f)
	}
}

// Footprint implements layout.Spread.
func (m *BTreeMap[K, PK, V, PV]) Footprint() uint64 { return 1 + m.nodes.Footprint() }

// RequiresDeepCleanup implements layout.Spread.
func (m *BTreeMap[K, PK, V, PV]) RequiresDeepCleanup() bool { return m.nodes.RequiresDeepCleanup() }

// PullSpread reads the header then binds the node stash.
func (m *BTreeMap[K, PK, V, PV]) PullSpread(ptr *key.Ptr, env storeenv.Store) {
	m.header = layout.PullSpreadOfPacked[btreeHeader, *btreeHeader](ptr, env)
	m.headerDirty = false
	m.nodes.PullSpread(ptr, env)
}

// PushSpread writes the header if it changed, then flushes the node
// stash.
func (m *BTreeMap[K, PK, V, PV]) PushSpread(ptr *key.Ptr, env storeenv.Store) {
	if m.headerDirty {
		layout.PushSpreadOfPacked[btreeHeader, *btreeHeader](&m.header, ptr, env)
		m.headerDirty = false
	} else {
		ptr.AdvanceBy(1)
	}
	m.nodes.PushSpread(ptr, env)
}

// ClearSpread clears the header and every node.
func (m *BTreeMap[K, PK, V, PV]) ClearSpread(ptr *key.Ptr, env storeenv.Store) {
	var zero btreeHeader
	layout.ClearSpreadOfPacked[btreeHeader, *btreeHeader](&zero, ptr, env)
	m.nodes.ClearSpread(ptr, env)
	m.header = btreeHeader{}
	m.headerDirty = true
}
