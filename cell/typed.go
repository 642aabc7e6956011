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

package cell

import (
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/layout"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// Typed wraps Raw with decode-on-read, encode-on-write. Unlike Lazy it
// caches nothing between calls: every Load re-reads and re-decodes.
type Typed[T any, PT interface {
	*T
	scale.Codec
}] struct {
	Raw Raw
}

// NewTyped returns a Typed cell at k.
func NewTyped[T any, PT interface {
	*T
	scale.Codec
}](k key.Key) Typed[T, PT] {
	return Typed[T, PT]{Raw: NewRaw(k)}
}

// Load decodes the current cell contents, or returns ok=false if the
// cell is absent. A present-but-malformed cell is a DecodeFailure trap.
func (c Typed[T, PT]) Load(env storeenv.Store) (value T, ok bool) {
	raw, present := c.Raw.Load(env)
	if !present {
		return value, false
	}
	var v T
	if err := PT(&v).DecodeScale(scale.NewDecoder(raw)); err != nil {
		layout.Trap(err)
	}
	return v, true
}

// Store encodes v and writes it to the cell.
func (c Typed[T, PT]) Store(env storeenv.Store, v T) {
	e := scale.NewEncoder()
	PT(&v).EncodeScale(e)
	c.Raw.Store(env, e.Bytes())
}

// Clear removes the cell.
func (c Typed[T, PT]) Clear(env storeenv.Store) {
	c.Raw.Clear(env)
}
