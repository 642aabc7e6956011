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

package scale

// The following named types give the primitive Go scalars a Codec
// implementation so they can be used directly as element/key/value
// types of the lazy collections without every call site having to
// define its own wrapper.

type Bool bool

func (v Bool) EncodeScale(e *Encoder)      { e.WriteBool(bool(v)) }
func (v *Bool) DecodeScale(d *Decoder) error {
	b, err := d.ReadBool()
	*v = Bool(b)
	return err
}

type U8 uint8

func (v U8) EncodeScale(e *Encoder) { e.WriteUint8(uint8(v)) }
func (v *U8) DecodeScale(d *Decoder) error {
	b, err := d.ReadUint8()
	*v = U8(b)
	return err
}

type U16 uint16

func (v U16) EncodeScale(e *Encoder) { e.WriteUint16(uint16(v)) }
func (v *U16) DecodeScale(d *Decoder) error {
	b, err := d.ReadUint16()
	*v = U16(b)
	return err
}

type U32 uint32

func (v U32) EncodeScale(e *Encoder) { e.WriteUint32(uint32(v)) }
func (v *U32) DecodeScale(d *Decoder) error {
	b, err := d.ReadUint32()
	*v = U32(b)
	return err
}

type U64 uint64

func (v U64) EncodeScale(e *Encoder) { e.WriteUint64(uint64(v)) }
func (v *U64) DecodeScale(d *Decoder) error {
	b, err := d.ReadUint64()
	*v = U64(b)
	return err
}

type I32 int32

func (v I32) EncodeScale(e *Encoder) { e.WriteInt32(int32(v)) }
func (v *I32) DecodeScale(d *Decoder) error {
	b, err := d.ReadInt32()
	*v = I32(b)
	return err
}

type I64 int64

func (v I64) EncodeScale(e *Encoder) { e.WriteInt64(int64(v)) }
func (v *I64) DecodeScale(d *Decoder) error {
	b, err := d.ReadInt64()
	*v = I64(b)
	return err
}

// Bytes is a variable-length byte string, compact-length-prefixed.
type Bytes []byte

func (v Bytes) EncodeScale(e *Encoder) { e.WriteBytesCompact(v) }
func (v *Bytes) DecodeScale(d *Decoder) error {
	b, err := d.ReadBytesCompact()
	if err != nil {
		return err
	}
	*v = append(Bytes{}, b...)
	return nil
}

// String is a variable-length UTF-8 string, compact-length-prefixed
// like Bytes.
type String string

func (v String) EncodeScale(e *Encoder) { e.WriteBytesCompact([]byte(v)) }
func (v *String) DecodeScale(d *Decoder) error {
	b, err := d.ReadBytesCompact()
	if err != nil {
		return err
	}
	*v = String(b)
	return nil
}
