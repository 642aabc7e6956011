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

package key

// Ptr is a mutable cursor over the storage key space. It only ever
// advances: every traversal of a layout tree visits cells in a fixed
// pre-order, and that order is how the tree addresses itself without
// ever storing an index on-chain.
type Ptr struct {
	current Key
}

// FromKey constructs a Ptr positioned at root.
func FromKey(root Key) *Ptr {
	return &Ptr{current: root}
}

// AdvanceBy returns the cursor's current key and moves it forward by n
// cells. n is typically a type's FOOTPRINT.
func (p *Ptr) AdvanceBy(n uint64) Key {
	cur := p.current
	p.current = p.current.Add(n)
	return cur
}

// Peek returns the current key without advancing. Exposed for tests
// that need to assert on cursor position; production code should
// prefer AdvanceBy so the traversal order stays self-documenting.
func (p *Ptr) Peek() Key {
	return p.current
}
