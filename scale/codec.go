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

// Codec is implemented by any value that can appear packed into a
// single storage cell (or as an element of a Spread collection). Encode
// can never fail; Decode failures are DecodeFailure traps, which is why
// Decode returns only an error and callers that hold the "pull is
// fatal" contract (layout.PullPackedRootOpt and the pull helpers built
// on it) trap on it rather than propagate
// it through the public API.
type Codec interface {
	EncodeScale(e *Encoder)
	DecodeScale(d *Decoder) error
}

// EncodeOption writes the Option<T> encoding: a one-byte tag followed
// by T's encoding when present.
func EncodeOption[T any, PT interface {
	*T
	Codec
}](e *Encoder, v *T) {
	if v == nil {
		e.WriteBool(false)
		return
	}
	e.WriteBool(true)
	PT(v).EncodeScale(e)
}

// DecodeOption reads an Option<T> written by EncodeOption. PT is *T,
// which must implement Codec; a present value is decoded into a fresh
// zero T.
func DecodeOption[T any, PT interface {
	*T
	Codec
}](d *Decoder) (*T, error) {
	present, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	var v T
	if err := PT(&v).DecodeScale(d); err != nil {
		return nil, err
	}
	return &v, nil
}

// Marshal encodes a single Codec value to its byte representation.
func Marshal[T Codec](v T) []byte {
	e := NewEncoder()
	v.EncodeScale(e)
	return e.Bytes()
}

// Unmarshal decodes b into a fresh T.
func Unmarshal[T any, PT interface {
	*T
	Codec
}](b []byte) (T, error) {
	var v T
	d := NewDecoder(b)
	if err := PT(&v).DecodeScale(d); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
