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

// Writer provides a mechanism for appending bits to a growable byte buffer,
// where the most significant bit of each byte is filled first.  For example,
// writing the three bits 1,0,1 followed by WriteBits(0x3,2) produces the
// single byte 0b10111000 (with the trailing five bits zero).  Writing never
// fails since the underlying buffer simply grows as needed.  The zero value
// is an empty writer ready for use.
type Writer struct {
	bytes []byte
	// Total number of bits written so far.  The final byte of the buffer
	// holds nbits%8 significant bits (all of them when this is zero).
	nbits uint
}

// BitLen returns the total number of bits written so far.
func (p *Writer) BitLen() uint {
	return p.nbits
}

// WriteBit appends a single bit.
func (p *Writer) WriteBit(bit bool) {
	offset := p.nbits % 8
	//
	if offset == 0 {
		p.bytes = append(p.bytes, 0)
	}
	//
	if bit {
		p.bytes[len(p.bytes)-1] |= 0x80 >> offset
	}
	//
	p.nbits++
}

// WriteBits appends the nbits least significant bits of value, most
// significant bit first.  Passing nbits == 0 writes nothing.  This panics if
// nbits exceeds 64, since that indicates a logic error in the caller.
func (p *Writer) WriteBits(value uint64, nbits uint) {
	if nbits > 64 {
		panic("bit count exceeds 64")
	}
	//
	for i := nbits; i > 0; i-- {
		p.WriteBit((value>>(i-1))&1 == 1)
	}
}

// WriteBitString appends the first nbits bits of the given buffer, most
// significant bit of each byte first.  This panics if the buffer holds fewer
// than nbits bits.
func (p *Writer) WriteBitString(bytes []byte, nbits uint) {
	if uint(len(bytes))*8 < nbits {
		panic("bit string shorter than requested length")
	}
	//
	for i := uint(0); i < nbits; i++ {
		p.WriteBit(bytes[i/8]&(0x80>>(i%8)) != 0)
	}
}

// WriteBytes appends whole octets continuing from the current bit offset.
// Alignment is never implied; callers which require octet alignment must call
// Align first.
func (p *Writer) WriteBytes(bytes []byte) {
	// Fast path: byte aligned, so the buffer can be extended directly.
	if p.nbits%8 == 0 {
		p.bytes = append(p.bytes, bytes...)
		p.nbits += uint(len(bytes)) * 8
		//
		return
	}
	//
	for _, b := range bytes {
		p.WriteBits(uint64(b), 8)
	}
}

// Align pads the current byte with zero bits up to the next byte boundary.
// This does nothing when the writer is already aligned.
func (p *Writer) Align() {
	if r := p.nbits % 8; r != 0 {
		p.nbits += 8 - r
	}
}

// Bytes returns the written bit stream as a byte slice, with any partially
// filled trailing byte padded with zero bits.  The writer remains usable
// afterwards.
func (p *Writer) Bytes() []byte {
	return p.bytes
}
