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

// Memory is a non-production Store backed by an in-process map. It
// stands in for the host in tests, property checks, and the demo
// command; it is not the off-chain test harness described by the
// source (that collaborator also records emitted events and simulated
// accounts) — it honors only the key->bytes contract storage needs.
type Memory struct {
	data map[key.Key][]byte
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{data: make(map[key.Key][]byte)}
}

func (m *Memory) Set(k key.Key, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[k] = cp
}

func (m *Memory) Get(k key.Key) ([]byte, bool) {
	v, ok := m.data[k]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true
}

func (m *Memory) Clear(k key.Key) {
	delete(m.data, k)
}

// Len reports how many cells are currently populated. Diagnostic only:
// production Store implementations need not expose this, since the
// engine never iterates the key space.
func (m *Memory) Len() int { return len(m.data) }

// Snapshot returns a defensive copy of every (key, value) pair
// currently stored, for use in round-trip/clear-frees-cells tests.
func (m *Memory) Snapshot() map[key.Key][]byte {
	out := make(map[key.Key][]byte, len(m.data))
	for k, v := range m.data {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
