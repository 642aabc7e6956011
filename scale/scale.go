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

// Package scale implements the compact, bit-exact encoding that every
// value written to a storage cell is serialized with. No third-party
// module in the corpus implements this wire format (it is a consensus
// format specific to this chain's codec, not a general RLP/protobuf/JSON
// encoding), so it is hand-rolled here the way chain clients hand-roll
// their own wire codecs: fixed-width little-endian
// integers, a 1-byte Option tag, concatenation for tuples/arrays, and a
// variable-length "compact" integer for lengths.
package scale

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// Encoder accumulates the byte representation of a value tree.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated encoding.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) WriteByte(b byte) { e.buf = append(e.buf, b) }
func (e *Encoder) WriteBytes(b []byte) { e.buf = append(e.buf, b...) }

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.WriteByte(1)
	} else {
		e.WriteByte(0)
	}
}

func (e *Encoder) WriteUint8(v uint8)   { e.WriteByte(v) }
func (e *Encoder) WriteUint16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *Encoder) WriteUint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *Encoder) WriteUint64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

func (e *Encoder) WriteInt32(v int32) { e.WriteUint32(uint32(v)) }
func (e *Encoder) WriteInt64(v int64) { e.WriteUint64(uint64(v)) }

// WriteCompactUint64 writes v using the 4-mode variable-length "compact"
// integer encoding: single byte (<=2^6-1), two bytes (<=2^14-1), four
// bytes (<=2^30-1), or a big-integer mode with a length-prefixed
// little-endian payload. This is the format used for every
// variable-length item's length prefix.
func (e *Encoder) WriteCompactUint64(v uint64) {
	switch {
	case v < 1<<6:
		e.WriteByte(byte(v << 2))
	case v < 1<<14:
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v<<2)|0b01)
	case v < 1<<30:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v<<2)|0b10)
	default:
		nbytes := (bits.Len64(v) + 7) / 8
		if nbytes < 4 {
			nbytes = 4
		}
		e.WriteByte(byte((nbytes-4)<<2) | 0b11)
		tmp := make([]byte, 8)
		binary.LittleEndian.PutUint64(tmp, v)
		e.WriteBytes(tmp[:nbytes])
	}
}

// WriteBytesCompact writes a compact length prefix followed by the raw
// bytes, the encoding used for variable-length byte strings.
func (e *Encoder) WriteBytesCompact(b []byte) {
	e.WriteCompactUint64(uint64(len(b)))
	e.WriteBytes(b)
}

// Decoder consumes a byte representation written by Encoder.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps b for sequential decoding.
func NewDecoder(b []byte) *Decoder { return &Decoder{buf: b} }

// ErrShortBuffer is returned (wrapped) when a read runs past the end of
// the input. Per the source's error taxonomy this is a DecodeFailure:
// callers are expected to trap, not recover.
var ErrShortBuffer = fmt.Errorf("scale: buffer too short")

func (d *Decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return ErrShortBuffer
	}
	return nil
}

func (d *Decoder) ReadByte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if err := d.need(n); err != nil {
		return nil, err
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("scale: invalid bool tag 0x%x: %w", b, ErrShortBuffer)
	}
}

func (d *Decoder) ReadUint8() (uint8, error) { return d.ReadByte() }

func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadCompactUint64 decodes the variable-length compact integer format
// written by WriteCompactUint64.
func (d *Decoder) ReadCompactUint64() (uint64, error) {
	first, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	switch first & 0b11 {
	case 0b00:
		return uint64(first >> 2), nil
	case 0b01:
		rest, err := d.ReadByte()
		if err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16([]byte{first, rest})) >> 2, nil
	case 0b10:
		rest, err := d.ReadBytes(3)
		if err != nil {
			return 0, err
		}
		full := append([]byte{first}, rest...)
		return uint64(binary.LittleEndian.Uint32(full)) >> 2, nil
	default:
		nbytes := int(first>>2) + 4
		b, err := d.ReadBytes(nbytes)
		if err != nil {
			return 0, err
		}
		tmp := make([]byte, 8)
		copy(tmp, b)
		return binary.LittleEndian.Uint64(tmp), nil
	}
}

// ReadBytesCompact decodes a compact-length-prefixed byte string.
func (d *Decoder) ReadBytesCompact() ([]byte, error) {
	n, err := d.ReadCompactUint64()
	if err != nil {
		return nil, err
	}
	return d.ReadBytes(int(n))
}

// Remaining reports whether unread bytes remain.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }
