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

package scale_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ink-go/storage2/scale"
)

func TestCompactUintRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint64().Draw(t, "v")
		e := scale.NewEncoder()
		e.WriteCompactUint64(v)
		got, err := scale.NewDecoder(e.Bytes()).ReadCompactUint64()
		require.NoError(t, err)
		require.Equal(t, v, got)
	})
}

func TestCompactUintModeBoundaries(t *testing.T) {
	cases := []uint64{0, 1, 63, 64, 16383, 16384, 1<<30 - 1, 1 << 30, 1 << 40}
	for _, v := range cases {
		e := scale.NewEncoder()
		e.WriteCompactUint64(v)
		got, err := scale.NewDecoder(e.Bytes()).ReadCompactUint64()
		require.NoError(t, err)
		require.Equal(t, v, got, "v=%d", v)
	}
}

func TestOptionRoundTrip(t *testing.T) {
	e := scale.NewEncoder()
	var some scale.U32 = 7
	scale.EncodeOption(e, &some)
	got, err := scale.DecodeOption[scale.U32](scale.NewDecoder(e.Bytes()))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.EqualValues(t, 7, *got)

	e2 := scale.NewEncoder()
	scale.EncodeOption[scale.U32](e2, nil)
	got2, err := scale.DecodeOption[scale.U32](scale.NewDecoder(e2.Bytes()))
	require.NoError(t, err)
	require.Nil(t, got2)
}

func TestBytesCompactRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := rapid.SliceOfN(rapid.Byte(), 0, 300).Draw(t, "b")
		v := scale.Bytes(b)
		got, err := scale.Unmarshal[scale.Bytes](scale.Marshal(&v))
		require.NoError(t, err)
		require.Equal(t, v, got)
	})
}

func TestShortBufferIsDecodeFailure(t *testing.T) {
	_, err := scale.NewDecoder(nil).ReadUint32()
	require.ErrorIs(t, err, scale.ErrShortBuffer)
}
