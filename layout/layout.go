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

// Package layout defines the two encoding regimes every storage type
// implements (Packed: one cell; Spread: a KeyPtr-addressed region), the
// declared FOOTPRINT/REQUIRES_DEEP_CLEAN_UP contract, and the adapter
// that lets any Packed type be used wherever a Spread field is needed.
package layout

import (
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/storeenv"
)

// Spread is implemented by types that may occupy many cells, addressed
// through a Ptr traversal. PullSpread decodes only packed headers (a
// length, an allocation index), and a decode failure there traps; lazy
// bodies only capture their anchor key(s) and defer the rest of the
// decode work, and its failures, to first access. Push/Clear are where
// the writes happen.
type Spread interface {
	// Footprint is the number of cells this value occupies, including
	// nested values. Constant for a given (possibly parameterized)
	// type, but expressed as a method since some footprints (SmallVec's
	// N, for instance) are fixed only once the value is constructed.
	Footprint() uint64
	// RequiresDeepCleanup reports whether ClearSpread needs the value
	// loaded first in order to free transitively owned resources (e.g.
	// a Box's allocation).
	RequiresDeepCleanup() bool
	PullSpread(ptr *key.Ptr, env storeenv.Store)
	PushSpread(ptr *key.Ptr, env storeenv.Store)
	ClearSpread(ptr *key.Ptr, env storeenv.Store)
}

// Fixupper is implemented by Packed types that need a chance to
// initialize extra state after being decoded from, or before being
// written to, a single cell — for example a packed value that owns a
// dynamic allocation. Plain-old-data types implement none of these
// methods; the root/spread-of-packed helpers treat their absence as a
// no-op via a type assertion, which is the Go expression of "Packed
// adapter performs fix-ups only when T declares them."
type Fixupper interface {
	PullPacked(at key.Key, env storeenv.Store)
	PushPacked(at key.Key, env storeenv.Store)
	ClearPacked(at key.Key, env storeenv.Store)
}

// DeepCleanupper is the packed counterpart of Spread.RequiresDeepCleanup.
type DeepCleanupper interface {
	RequiresDeepCleanup() bool
}

func requiresDeepCleanup(v any) bool {
	if d, ok := v.(DeepCleanupper); ok {
		return d.RequiresDeepCleanup()
	}
	return false
}

func pullPackedFixup(v any, at key.Key, env storeenv.Store) {
	if f, ok := v.(Fixupper); ok {
		f.PullPacked(at, env)
	}
}

func pushPackedFixup(v any, at key.Key, env storeenv.Store) {
	if f, ok := v.(Fixupper); ok {
		f.PushPacked(at, env)
	}
}

func clearPackedFixup(v any, at key.Key, env storeenv.Store) {
	if f, ok := v.(Fixupper); ok {
		f.ClearPacked(at, env)
	}
}
