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

// Package key implements the 256-bit opaque storage-key space the host
// store is addressed by, and the forward-only cursor (Ptr) that the
// layout traversal uses to hand out fresh key regions.
package key

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

// Size is the width, in bytes, of a storage key.
const Size = 32

// Key is a 256-bit opaque identifier in the host store. Keys compare
// bytewise and support modular addition of a u64 cell offset.
type Key [Size]byte

// Zero is the key with every byte cleared.
var Zero Key

// FromBytes builds a Key from a big-endian byte slice, left-padding (or
// truncating from the left) to Size bytes.
func FromBytes(b []byte) Key {
	var k Key
	if len(b) >= Size {
		copy(k[:], b[len(b)-Size:])
		return k
	}
	copy(k[Size-len(b):], b)
	return k
}

// FromHex parses a hex string (with or without a leading "0x") into a Key.
func FromHex(s string) (Key, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("key: invalid hex %q: %w", s, err)
	}
	return FromBytes(b), nil
}

// Bytes returns the 32 big-endian bytes of k.
func (k Key) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, k[:])
	return out
}

// String renders k as a 0x-prefixed hex string.
func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

// Equal reports bytewise equality.
func (k Key) Equal(other Key) bool {
	return k == other
}

// Less reports whether k sorts strictly before other under bytewise
// (big-endian numeric) order.
func (k Key) Less(other Key) bool {
	for i := 0; i < Size; i++ {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return false
}

// toUint256 views the key as a 256-bit unsigned integer for arithmetic.
func (k Key) toUint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(k[:])
}

// Add returns k + n, wrapping modulo 2^256, matching the host's flat
// 256-bit key space.
func (k Key) Add(n uint64) Key {
	acc := k.toUint256()
	acc.AddUint64(acc, n)
	return Key(acc.Bytes32())
}

// AddKey returns k + offset, wrapping modulo 2^256. Used when an
// allocation index must be shifted by a multiple of a footprint that no
// longer fits a u64 (chunked allocator regions).
func (k Key) AddKey(offset Key) Key {
	acc := k.toUint256()
	acc.Add(acc, offset.toUint256())
	return Key(acc.Bytes32())
}

// Lsh returns k shifted left by n bits, used to compute chunk-sized
// regions (e.g. index << 32) in the dynamic allocator.
func (k Key) Lsh(n uint) Key {
	acc := k.toUint256()
	acc.Lsh(acc, n)
	return Key(acc.Bytes32())
}

// FromUint64Shifted builds a key equal to (value << shift), used to
// derive chunk offsets (value << 32) without overflowing a u64.
func FromUint64Shifted(value uint64, shift uint) Key {
	acc := uint256.NewInt(value)
	acc.Lsh(acc, shift)
	return Key(acc.Bytes32())
}

// Sub returns the non-negative difference other - k, assuming other >= k
// in the wrapped 256-bit space. Used by the allocator to recover an
// offset from an origin-relative key.
func (k Key) Sub(other Key) Key {
	acc := other.toUint256()
	acc.Sub(acc, k.toUint256())
	return Key(acc.Bytes32())
}

// AsU32 interprets the low 32 bits of k as a uint32. Traps (panics) if
// any higher bit is set, mirroring the source's "decode failure is
// fatal" policy for out-of-range offsets.
func (k Key) AsU32() uint32 {
	acc := k.toUint256()
	if !acc.IsUint64() || acc.Uint64() > 0xffffffff {
		panic(fmt.Sprintf("key: %s does not fit in a u32 offset", k))
	}
	return uint32(acc.Uint64())
}

// AsU64 interprets k as a uint64, panicking if it does not fit.
func (k Key) AsU64() uint64 {
	acc := k.toUint256()
	if !acc.IsUint64() {
		panic(fmt.Sprintf("key: %s does not fit in a u64 offset", k))
	}
	return acc.Uint64()
}
