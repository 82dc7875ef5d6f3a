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

// Package wire implements a little-endian byte and bit cursor over an
// immutable buffer. Bit fields are packed least-significant-bit first:
// the first bit read from a byte is bit 0.
package wire

import (
	"encoding/binary"
	"fmt"
)

// ErrShortRead is returned when fewer bytes remain than a read requires.
type ErrShortRead struct {
	Offset int // byte offset where the read started
	Want   int // bytes required
	Have   int // bytes available
}

func (e ErrShortRead) Error() string {
	return fmt.Sprintf("short read at offset %d: want %d bytes, have %d", e.Offset, e.Want, e.Have)
}

// ErrBitWidth is returned by ReadBits for widths outside 1..8.
type ErrBitWidth struct {
	Width uint
}

func (e ErrBitWidth) Error() string {
	return fmt.Sprintf("bit field width must be 1..8, got %d", e.Width)
}

// Reader is a cursor over data. The zero value reads from an empty buffer.
type Reader struct {
	data []byte
	off  int  // current byte
	bit  uint // bits already consumed from data[off]
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the index of the next unread byte. A partially consumed
// byte counts as read.
func (r *Reader) Offset() int {
	if r.bit > 0 {
		return r.off + 1
	}
	return r.off
}

// Remaining returns the number of whole bytes not yet touched.
func (r *Reader) Remaining() int {
	return len(r.data) - r.Offset()
}

// Rest returns the untouched tail of the buffer without advancing.
func (r *Reader) Rest() []byte {
	return r.data[r.Offset():]
}

// AlignToByte discards the unread bits of a partially consumed byte.
func (r *Reader) AlignToByte() {
	if r.bit > 0 {
		r.off++
		r.bit = 0
	}
}

// take aligns and returns the next n bytes.
func (r *Reader) take(n int) ([]byte, error) {
	r.AlignToByte()
	if n < 0 || len(r.data)-r.off < n {
		return nil, ErrShortRead{Offset: r.off, Want: n, Have: len(r.data) - r.off}
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadBytes returns the next n bytes. The slice aliases the underlying
// buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}

// ReadBits consumes n bits (1..8) starting at the current bit offset and
// returns them right-aligned. A field may straddle a byte boundary; the
// byte offset advances once all 8 bits of a byte have been consumed.
func (r *Reader) ReadBits(n uint) (uint8, error) {
	if n == 0 || n > 8 {
		return 0, ErrBitWidth{Width: n}
	}
	avail := (len(r.data)-r.off)*8 - int(r.bit)
	if avail < int(n) {
		return 0, ErrShortRead{Offset: r.off, Want: (int(r.bit) + int(n) + 7) / 8, Have: len(r.data) - r.off}
	}
	var v uint16
	for got := uint(0); got < n; {
		chunk := 8 - r.bit
		if n-got < chunk {
			chunk = n - got
		}
		bits := uint16(r.data[r.off]>>r.bit) & (1<<chunk - 1)
		v |= bits << got
		got += chunk
		r.bit += chunk
		if r.bit == 8 {
			r.off++
			r.bit = 0
		}
	}
	return uint8(v), nil
}
