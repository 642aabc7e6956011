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

package layout

import (
	"github.com/ink-go/storage2/key"
	"github.com/ink-go/storage2/scale"
	"github.com/ink-go/storage2/storeenv"
)

// codecPtr is the constraint every Packed root helper needs: *T must
// decode/encode itself via scale.Codec. Fix-ups and deep-cleanup are
// opt-in through the Fixupper/DeepCleanupper interfaces in layout.go.
type codecPtr[T any] interface {
	*T
	scale.Codec
}

// PullPackedRootOpt reads the cell at k; absence is the normal "None"
// case, not an error. A present cell is decoded into T and, if T
// implements Fixupper, given a chance to pull transitively owned state
// (e.g. a packed Box loading its target through its allocation).
func PullPackedRootOpt[T any, PT codecPtr[T]](k key.Key, env storeenv.Store) *T {
	raw, ok := env.Get(k)
	if !ok {
		return nil
	}
	var v T
	d := scale.NewDecoder(raw)
	if err := PT(&v).DecodeScale(d); err != nil {
		Trap(err)
	}
	pullPackedFixup(PT(&v), k, env)
	return &v
}

// PushPackedRoot writes v to the single cell at k, first giving T a
// chance to push fix-ups (e.g. a packed Box flushing its target).
func PushPackedRoot[T any, PT codecPtr[T]](v *T, k key.Key, env storeenv.Store) {
	pushPackedFixup(PT(v), k, env)
	e := scale.NewEncoder()
	PT(v).EncodeScale(e)
	env.Set(k, e.Bytes())
}

// ClearPackedRoot clears the cell at k, first giving T a chance to
// recurse into transitively owned state when RequiresDeepCleanup.
func ClearPackedRoot[T any, PT codecPtr[T]](v *T, k key.Key, env storeenv.Store) {
	clearPackedFixup(PT(v), k, env)
	env.Clear(k)
}

// PullSpreadOfPacked is the Packed->Spread adapter's pull half: it
// reserves exactly one cell from ptr and decodes T from it, defaulting
// to the zero value when the cell is absent (a Packed root field is
// never itself optional; absence means "never written").
func PullSpreadOfPacked[T any, PT codecPtr[T]](ptr *key.Ptr, env storeenv.Store) T {
	at := ptr.AdvanceBy(1)
	if v := PullPackedRootOpt[T, PT](at, env); v != nil {
		return *v
	}
	var zero T
	return zero
}

// PushSpreadOfPacked is the adapter's push half.
func PushSpreadOfPacked[T any, PT codecPtr[T]](v *T, ptr *key.Ptr, env storeenv.Store) {
	at := ptr.AdvanceBy(1)
	PushPackedRoot[T, PT](v, at, env)
}

// ClearSpreadOfPacked is the adapter's clear half.
func ClearSpreadOfPacked[T any, PT codecPtr[T]](v *T, ptr *key.Ptr, env storeenv.Store) {
	at := ptr.AdvanceBy(1)
	ClearPackedRoot[T, PT](v, at, env)
}

// PullSpreadRoot constructs a fresh v (via newEmpty, which must set up
// any runtime configuration — hasher, comparator, fixed capacity — the
// type needs before binding to storage) and pulls it from root.
func PullSpreadRoot[T Spread](root key.Key, env storeenv.Store, newEmpty func() T) T {
	v := newEmpty()
	ptr := key.FromKey(root)
	v.PullSpread(ptr, env)
	return v
}

// PushSpreadRoot writes v starting at root.
func PushSpreadRoot[T Spread](v T, root key.Key, env storeenv.Store) {
	ptr := key.FromKey(root)
	v.PushSpread(ptr, env)
}

// ClearSpreadRoot clears every cell v occupies starting at root.
func ClearSpreadRoot[T Spread](v T, root key.Key, env storeenv.Store) {
	ptr := key.FromKey(root)
	v.ClearSpread(ptr, env)
}
