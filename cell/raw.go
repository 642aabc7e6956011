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

// Package cell implements the three cell flavors every higher-level
// container is ultimately built from: Raw (bytes only), Typed (decode
// on read, no caching) and Lazy (decode at most once, tracked via
// entry.Entry).
package cell

import (
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/storeenv"
)

// Raw wraps a single key, reading/writing raw bytes with no decoding.
type Raw struct {
	Key key.Key
}

// NewRaw returns a Raw cell at k.
func NewRaw(k key.Key) Raw { return Raw{Key: k} }

// Load returns the bytes at the cell, or ok=false if absent.
func (c Raw) Load(env storeenv.Store) (value []byte, ok bool) {
	return env.Get(c.Key)
}

// Store overwrites the cell.
func (c Raw) Store(env storeenv.Store, value []byte) {
	env.Set(c.Key, value)
}

// Clear removes the cell.
func (c Raw) Clear(env storeenv.Store) {
	env.Clear(c.Key)
}
