/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderLittleEndian(t *testing.T) {
	r := NewReader([]byte{
		0x01,
		0x34, 0x12,
		0x78, 0x56, 0x34, 0x12,
		0xef, 0xcd, 0xab, 0x89, 0x67, 0x45, 0x23, 0x01,
	})

	u8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), u8)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	u64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0123456789abcdef), u64)

	assert.Equal(t, 0, r.Remaining())
	assert.Empty(t, r.Rest())
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader([]byte{0xaa, 0xbb, 0xcc})
	_, err := r.ReadUint8()
	require.NoError(t, err)

	_, err = r.ReadUint32()
	var short ErrShortRead
	require.True(t, errors.As(err, &short))
	assert.Equal(t, ErrShortRead{Offset: 1, Want: 4, Have: 2}, short)

	// a failed read does not move the cursor
	assert.Equal(t, 1, r.Offset())
	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xccbb), u16)
}

func TestReaderReadBytes(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	r := NewReader(data)

	b, err := r.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)
	assert.Equal(t, 2, r.Remaining())

	b, err = r.ReadBytes(0)
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = r.ReadBytes(3)
	assert.Error(t, err)
	assert.Equal(t, []byte{4, 5}, r.Rest())
}

func TestReaderReadBitsLSBFirst(t *testing.T) {
	// 0b1011_0110
	r := NewReader([]byte{0xb6, 0xff})

	tests := []struct {
		width uint
		want  uint8
	}{
		{1, 0},    // bit0
		{2, 0b11}, // bit1..2
		{1, 0},    // bit3
		{4, 0xb},  // bit4..7
	}
	for _, tt := range tests {
		got, err := r.ReadBits(tt.width)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	// all 8 bits consumed, cursor moved to the next byte
	assert.Equal(t, 1, r.Offset())
	assert.Equal(t, 1, r.Remaining())
}

func TestReaderReadBitsStraddle(t *testing.T) {
	r := NewReader([]byte{0xf0, 0x05})
	_, err := r.ReadBits(6)
	require.NoError(t, err)

	// bits 6,7 of byte 0 (1,1) then bits 0,1 of byte 1 (1,0)
	got, err := r.ReadBits(4)
	require.NoError(t, err)
	assert.Equal(t, uint8(0b0111), got)
	assert.Equal(t, 2, r.Offset())
}

func TestReaderEndpointByte(t *testing.T) {
	for b := 0; b < 256; b++ {
		r := NewReader([]byte{byte(b)})
		ep, err := r.ReadBits(7)
		require.NoError(t, err)
		dir, err := r.ReadBits(1)
		require.NoError(t, err)
		assert.Equal(t, uint8(b&0x7f), ep)
		assert.Equal(t, uint8(b>>7), dir)
		assert.Equal(t, 0, r.Remaining())
	}
}

func TestReaderAlignToByte(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	_, err := r.ReadBits(3)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Offset())

	r.AlignToByte()
	v, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x02), v)

	// aligning on a boundary is a no-op
	r.AlignToByte()
	assert.Equal(t, 2, r.Offset())
}

func TestReaderByteReadAligns(t *testing.T) {
	r := NewReader([]byte{0xff, 0x10})
	_, err := r.ReadBits(1)
	require.NoError(t, err)
	v, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x10), v)
}

func TestReaderReadBitsErrors(t *testing.T) {
	r := NewReader([]byte{0x00})
	_, err := r.ReadBits(0)
	assert.Equal(t, ErrBitWidth{Width: 0}, err)
	_, err = r.ReadBits(9)
	assert.Equal(t, ErrBitWidth{Width: 9}, err)

	_, err = r.ReadBits(5)
	require.NoError(t, err)
	_, err = r.ReadBits(4)
	var short ErrShortRead
	assert.True(t, errors.As(err, &short))
}
