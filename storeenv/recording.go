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

package storeenv

import (
	"github.com/ink-go/storage2/key"
)

// Recording wraps a Store and counts the set/get/clear calls that pass
// through it, so tests can assert write minimality: no host Set calls
// after a pull followed only by read-only accesses.
type Recording struct {
	inner  Store
	Sets   []key.Key
	Gets   []key.Key
	Clears []key.Key
}

// NewRecording wraps inner.
func NewRecording(inner Store) *Recording {
	return &Recording{inner: inner}
}

func (r *Recording) Set(k key.Key, value []byte) {
	r.Sets = append(r.Sets, k)
	r.inner.Set(k, value)
}

func (r *Recording) Get(k key.Key) ([]byte, bool) {
	r.Gets = append(r.Gets, k)
	return r.inner.Get(k)
}

func (r *Recording) Clear(k key.Key) {
	r.Clears = append(r.Clears, k)
	r.inner.Clear(k)
}

// Reset clears the recorded call log without touching the wrapped
// store's contents.
func (r *Recording) Reset() {
	r.Sets = nil
	r.Gets = nil
	r.Clears = nil
}
