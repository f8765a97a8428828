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
package uper

import (
	"encoding/binary"
	"math"

	"github.com/asn1tools/go-asnc/pkg/asn"
	"github.com/asn1tools/go-asnc/pkg/util/bit"
)

// Thresholds of the general length determinant (X.691 Section 10.9): counts
// up to 127 use the single form, counts up to 16383 the two-octet form, and
// anything beyond is carried in fragments of up to four 16K blocks, each
// followed by a further determinant.
const (
	lengthDetL1  = 127
	lengthDetL2  = 16383
	fragmentUnit = 16384
)

// writeConstrained writes a constrained whole number as its offset from the
// lower bound, in exactly the bit width the constraint resolves to.  A
// single-valued range writes nothing at all.
func writeConstrained(w *bit.Writer, value int64, c asn.Constraint) error {
	if !c.Contains(value) {
		return &ValueRangeError{Value: value, Constraint: c}
	}
	//
	w.WriteBits(uint64(value)-uint64(*c.Min), c.BitWidth())
	//
	return nil
}

// readConstrained reads a constrained whole number.  The decoded offset is
// checked against the range span, since a bit-field can hold out-of-range
// codes whenever the span is not a power of two; such input fails closed.
func readConstrained(r *bit.Reader, c asn.Constraint) (int64, error) {
	offset, err := r.ReadBits(c.BitWidth())
	//
	if err != nil {
		return 0, err
	} else if offset > c.Span() {
		return 0, &ValueRangeError{Value: int64(uint64(*c.Min) + offset), Constraint: c}
	}
	//
	return int64(uint64(*c.Min) + offset), nil
}

// writeShortLength writes a non-fragmenting general length determinant,
// covering counts up to 16383.
func writeShortLength(w *bit.Writer, n uint64) error {
	if n <= lengthDetL1 {
		w.WriteBit(false)
		w.WriteBits(n, 7)
	} else if n <= lengthDetL2 {
		w.WriteBit(true)
		w.WriteBit(false)
		w.WriteBits(n, 14)
	} else {
		return &SizeRangeError{Size: n, Min: 0, Max: uint64ptr(lengthDetL2)}
	}
	//
	return nil
}

// readLengthDeterminant reads one general length determinant.  The returned
// flag reports whether the count is a fragment, in which case the items it
// covers are followed by a further determinant.
func readLengthDeterminant(r *bit.Reader) (uint64, bool, error) {
	first, err := r.ReadBit()
	//
	if err != nil {
		return 0, false, err
	} else if !first {
		n, err := r.ReadBits(7)
		return n, false, err
	}
	//
	second, err := r.ReadBit()
	//
	if err != nil {
		return 0, false, err
	} else if !second {
		n, err := r.ReadBits(14)
		return n, false, err
	}
	// Fragment form: a 6bit multiplier of 16K blocks, restricted to 1..4.
	m, err := r.ReadBits(6)
	//
	if err != nil {
		return 0, false, err
	} else if m < 1 || m > 4 {
		return 0, false, &SizeRangeError{Size: m, Min: 1, Max: uint64ptr(4)}
	}
	//
	return m * fragmentUnit, true, nil
}

// writeFragmented writes a general length determinant for n units, invoking
// emit once per determinant with the offset and count of units it covers.
// Counts of 16K and above are carried in fragments; a run ending exactly on
// a fragment boundary is terminated by a zero-count determinant.
func writeFragmented(w *bit.Writer, n uint64, emit func(offset uint64, count uint64) error) error {
	var offset uint64
	//
	for {
		rest := n - offset
		// Final (non-fragment) determinant.
		if rest < fragmentUnit {
			if err := writeShortLength(w, rest); err != nil {
				return err
			}
			//
			if rest == 0 {
				return nil
			}
			//
			return emit(offset, rest)
		}
		//
		m := min(rest/fragmentUnit, 4)
		w.WriteBits(0x3, 2)
		w.WriteBits(m, 6)
		//
		if err := emit(offset, m*fragmentUnit); err != nil {
			return err
		}
		//
		offset += m * fragmentUnit
	}
}

// readFragmented reads a (possibly fragmented) general length determinant,
// invoking consume once per determinant, and returns the total number of
// units covered.
func readFragmented(r *bit.Reader, consume func(count uint64) error) (uint64, error) {
	var total uint64
	//
	for {
		n, fragment, err := readLengthDeterminant(r)
		//
		if err != nil {
			return total, err
		}
		//
		if n > 0 {
			if err := consume(n); err != nil {
				return total, err
			}
		}
		//
		total += n
		//
		if !fragment {
			return total, nil
		}
	}
}

// writeNormallySmall writes a normally small non-negative whole number
// (X.691 Section 11.6): six bits for values up to 63, else a
// length-determinant-prefixed minimal octet encoding.
func writeNormallySmall(w *bit.Writer, n uint64) error {
	if n <= 63 {
		w.WriteBit(false)
		w.WriteBits(n, 6)
		//
		return nil
	}
	//
	w.WriteBit(true)
	//
	return writeSemiUnsigned(w, n)
}

// readNormallySmall reads a normally small non-negative whole number.
func readNormallySmall(r *bit.Reader) (uint64, error) {
	big, err := r.ReadBit()
	//
	if err != nil {
		return 0, err
	} else if !big {
		return r.ReadBits(6)
	}
	//
	return readSemiUnsigned(r)
}

// writeNormallySmallLength writes a normally small length (X.691 Section
// 10.9.3.4), whose lower bound is one: values up to 64 are written as six
// bits of n-1, larger values fall back to the general determinant.
func writeNormallySmallLength(w *bit.Writer, n uint64) error {
	if n <= 64 {
		w.WriteBit(false)
		w.WriteBits(n-1, 6)
		//
		return nil
	}
	//
	w.WriteBit(true)
	//
	return writeShortLength(w, n)
}

// readNormallySmallLength reads a normally small length.
func readNormallySmallLength(r *bit.Reader) (uint64, error) {
	big, err := r.ReadBit()
	//
	if err != nil {
		return 0, err
	} else if !big {
		n, err := r.ReadBits(6)
		return n + 1, err
	}
	//
	n, fragment, err := readLengthDeterminant(r)
	//
	if err != nil {
		return 0, err
	} else if fragment {
		return 0, &SizeRangeError{Size: n, Min: 1, Max: uint64ptr(lengthDetL2)}
	}
	//
	return n, nil
}

// writeSemiUnsigned writes a semi-constrained whole number offset: a length
// determinant followed by the minimal big-endian octets of n.
func writeSemiUnsigned(w *bit.Writer, n uint64) error {
	octets := minimalUnsigned(n)
	//
	if err := writeShortLength(w, uint64(len(octets))); err != nil {
		return err
	}
	//
	w.WriteBytes(octets)
	//
	return nil
}

// readSemiUnsigned reads a semi-constrained whole number offset.
func readSemiUnsigned(r *bit.Reader) (uint64, error) {
	n, fragment, err := readLengthDeterminant(r)
	//
	if err != nil {
		return 0, err
	} else if fragment || n > 8 {
		return 0, &OverflowError{Octets: n}
	}
	//
	octets, err := r.ReadBytes(uint(n))
	//
	if err != nil {
		return 0, err
	}
	//
	var value uint64
	//
	for _, b := range octets {
		value = (value << 8) | uint64(b)
	}
	//
	return value, nil
}

// writeUnconstrained writes an unconstrained whole number: a length
// determinant followed by the minimal two's-complement octets of n.
func writeUnconstrained(w *bit.Writer, n int64) error {
	octets := minimalTwosComplement(n)
	//
	if err := writeShortLength(w, uint64(len(octets))); err != nil {
		return err
	}
	//
	w.WriteBytes(octets)
	//
	return nil
}

// readUnconstrained reads an unconstrained whole number.
func readUnconstrained(r *bit.Reader) (int64, error) {
	n, fragment, err := readLengthDeterminant(r)
	//
	if err != nil {
		return 0, err
	} else if fragment || n > 8 {
		return 0, &OverflowError{Octets: n}
	}
	//
	octets, err := r.ReadBytes(uint(n))
	//
	if err != nil {
		return 0, err
	} else if len(octets) == 0 {
		return 0, nil
	}
	//
	var value uint64
	// Sign extend from the leading octet.
	if octets[0]&0x80 != 0 {
		value = math.MaxUint64
	}
	//
	for _, b := range octets {
		value = (value << 8) | uint64(b)
	}
	//
	return int64(value), nil
}

// minimalUnsigned returns the shortest big-endian octet encoding of n, which
// is never empty.
func minimalUnsigned(n uint64) []byte {
	var octets [8]byte
	//
	binary.BigEndian.PutUint64(octets[:], n)
	//
	i := 0
	for i < 7 && octets[i] == 0 {
		i++
	}
	//
	return octets[i:]
}

// minimalTwosComplement returns the shortest big-endian two's-complement
// octet encoding of n, which is never empty.
func minimalTwosComplement(n int64) []byte {
	var octets [8]byte
	//
	binary.BigEndian.PutUint64(octets[:], uint64(n))
	//
	i := 0
	for i < 7 {
		if octets[i] == 0x00 && octets[i+1]&0x80 == 0 {
			i++
		} else if octets[i] == 0xff && octets[i+1]&0x80 != 0 {
			i++
		} else {
			break
		}
	}
	//
	return octets[i:]
}

func uint64ptr(n uint64) *uint64 {
	return &n
}
