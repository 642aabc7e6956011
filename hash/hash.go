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

// Package hash wraps the four deterministic digest functions the host
// environment exposes to storage. They are treated as opaque byte->byte
// functions; this package exists only to give each one a stable name
// and output width.
package hash

import (
	"crypto/sha256"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Hasher computes one of the four fixed digest algorithms the host
// supports. Storage uses exactly one per LazyHashMap instantiation; the
// default is Blake2x256.
type Hasher interface {
	// Hash writes the digest of data into dst, which must be at least
	// Size() bytes, and returns the number of bytes written.
	Hash(dst []byte, data []byte) int
	// Size is the digest width in bytes.
	Size() int
	// Name identifies the algorithm, used only for diagnostics.
	Name() string
}

type blake2b256 struct{}

// Blake2x256 is the default Hasher: BLAKE2-256, 32-byte digest.
var Blake2x256 Hasher = blake2b256{}

func (blake2b256) Hash(dst, data []byte) int {
	sum := blake2b.Sum256(data)
	return copy(dst, sum[:])
}
func (blake2b256) Size() int    { return 32 }
func (blake2b256) Name() string { return "blake2x256" }

type blake2x128 struct{}

// Blake2x128 is BLAKE2-128, a 16-byte digest, used where a shorter
// derived key is acceptable.
var Blake2x128 Hasher = blake2x128{}

func (blake2x128) Hash(dst, data []byte) int {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(err) // static configuration, cannot fail
	}
	h.Write(data)
	sum := h.Sum(nil)
	return copy(dst, sum)
}
func (blake2x128) Size() int    { return 16 }
func (blake2x128) Name() string { return "blake2x128" }

type sha2256 struct{}

// Sha2x256 is SHA2-256, a 32-byte digest.
var Sha2x256 Hasher = sha2256{}

func (sha2256) Hash(dst, data []byte) int {
	sum := sha256.Sum256(data)
	return copy(dst, sum[:])
}
func (sha2256) Size() int    { return 32 }
func (sha2256) Name() string { return "sha2x256" }

type keccak256 struct{}

// Keccak256 is Keccak-256 (the pre-standardization variant used by this
// chain family, not NIST SHA3-256), a 32-byte digest.
var Keccak256 Hasher = keccak256{}

func (keccak256) Hash(dst, data []byte) int {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	sum := h.Sum(nil)
	return copy(dst, sum)
}
func (keccak256) Size() int    { return 32 }
func (keccak256) Name() string { return "keccak256" }

// Sum is a convenience that allocates and returns the digest rather
// than writing into a caller-provided buffer.
func Sum(h Hasher, data []byte) []byte {
	out := make([]byte, h.Size())
	h.Hash(out, data)
	return out
}
