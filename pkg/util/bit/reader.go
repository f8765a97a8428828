// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package bit

import "fmt"

// TruncatedError indicates an attempt to read more bits than the underlying
// buffer holds.  The reader position is left unchanged when this is returned,
// so a caller on a streaming transport may retry with more data.
type TruncatedError struct {
	// Number of bits the failed operation required.
	Requested uint
	// Number of bits which were actually available.
	Remaining uint
}

func (p *TruncatedError) Error() string {
	return fmt.Sprintf("truncated bit stream (requested %d bits, %d remaining)", p.Requested, p.Remaining)
}

// Reader provides a mechanism for consuming bits from a byte slice, where the
// most significant bit of each byte is consumed first.  This is the read
// counterpart of Writer, and the only mutable state is the current bit
// position.  The underlying slice is never modified, hence nested structures
// can be decoded re-entrantly through recursive calls sharing one reader.
type Reader struct {
	bytes []byte
	// Absolute bit offset of the next unread bit.
	bitoffset uint
}

// NewReader constructs a new bit reader over the given bytes, positioned at
// the very first bit.
func NewReader(bytes []byte) *Reader {
	return &Reader{bytes: bytes}
}

// BitsRead returns the number of bits consumed so far.
func (p *Reader) BitsRead() uint {
	return p.bitoffset
}

// Remaining returns the number of bits which can still be read.
func (p *Reader) Remaining() uint {
	return uint(len(p.bytes))*8 - p.bitoffset
}

// ReadBit consumes a single bit.
func (p *Reader) ReadBit() (bool, error) {
	if p.Remaining() == 0 {
		return false, &TruncatedError{Requested: 1, Remaining: 0}
	}
	//
	bit := p.bytes[p.bitoffset/8]&(0x80>>(p.bitoffset%8)) != 0
	p.bitoffset++
	//
	return bit, nil
}

// ReadBits consumes the next nbits bits, returning them as an unsigned
// integer with the first bit read in the most significant position.  Passing
// nbits == 0 yields zero without touching the stream.  This panics if nbits
// exceeds 64, since that indicates a logic error in the caller.
func (p *Reader) ReadBits(nbits uint) (uint64, error) {
	if nbits > 64 {
		panic("bit count exceeds 64")
	} else if rem := p.Remaining(); rem < nbits {
		return 0, &TruncatedError{Requested: nbits, Remaining: rem}
	}
	//
	var value uint64
	//
	for i := uint(0); i < nbits; i++ {
		bit := p.bytes[p.bitoffset/8] & (0x80 >> (p.bitoffset % 8))
		value = value << 1
		//
		if bit != 0 {
			value |= 1
		}
		//
		p.bitoffset++
	}
	//
	return value, nil
}

// ReadBitString consumes the next nbits bits into a freshly allocated byte
// slice of ceil(nbits/8) bytes, with the first bit read placed in the most
// significant position of the first byte and any unused trailing bits zero.
func (p *Reader) ReadBitString(nbits uint) ([]byte, error) {
	if rem := p.Remaining(); rem < nbits {
		return nil, &TruncatedError{Requested: nbits, Remaining: rem}
	}
	//
	bytes := make([]byte, (nbits+7)/8)
	//
	for i := uint(0); i < nbits; i++ {
		bit, _ := p.ReadBit()
		if bit {
			bytes[i/8] |= 0x80 >> (i % 8)
		}
	}
	//
	return bytes, nil
}

// ReadBytes consumes exactly n whole octets continuing from the current bit
// offset.
func (p *Reader) ReadBytes(n uint) ([]byte, error) {
	if rem := p.Remaining(); rem < n*8 {
		return nil, &TruncatedError{Requested: n * 8, Remaining: rem}
	}
	// Fast path: byte aligned, so octets can be copied directly.
	if p.bitoffset%8 == 0 {
		var (
			start = p.bitoffset / 8
			bytes = make([]byte, n)
		)
		//
		copy(bytes, p.bytes[start:start+n])
		p.bitoffset += n * 8
		//
		return bytes, nil
	}
	//
	return p.ReadBitString(n * 8)
}

// Advance skips forward to the next byte boundary, discarding any remaining
// bits of the current byte.  Pad bits are not required to be zero, since many
// real encoders do not zero them.  This does nothing when already aligned.
func (p *Reader) Advance() {
	if r := p.bitoffset % 8; r != 0 {
		p.bitoffset += 8 - r
	}
}
