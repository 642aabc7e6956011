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

// Package storeenv defines the flat host-store contract the storage
// engine is built on, plus a non-production in-memory implementation
// used by tests and the demo command. The real implementation lives on
// the other side of the contract boundary (the WebAssembly host) and is
// out of scope here.
package storeenv

import (
	"github.com/ink-go/storage2/key"
)

// Store is the only surface the storage core persists through: a flat
// map from 32-byte keys to bounded byte strings, set/get/clear, no
// iteration, no transactions. Exactly six host calls exist in the
// source contract; the four hashing primitives live in package hash
// and are not part of this interface because they carry no state.
type Store interface {
	// Set overwrites the value at key, creating it if absent.
	Set(k key.Key, value []byte)
	// Get returns the value at key and whether it was present. Absence
	// is a normal outcome, not an error.
	Get(k key.Key) ([]byte, bool)
	// Clear removes key entirely.
	Clear(k key.Key)
}
