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
package asn

import (
	"fmt"
	"math/bits"
)

// Constraint restricts the set of values an INTEGER type can take on.  Either
// bound may be absent: both absent means unconstrained, a lower bound alone
// means semi-constrained, and both present means a constrained whole number
// whose encoded width follows from the span of the range.  Bounds are
// inclusive and may be negative.  The Extensible flag corresponds to an
// extension marker inside the value range, which reserves one extension bit
// ahead of the root encoding.
type Constraint struct {
	Min        *int64
	Max        *int64
	Extensible bool
}

// Unconstrained constructs a constraint placing no bound on the value.
func Unconstrained() Constraint {
	return Constraint{}
}

// NewRange constructs an inclusive value range constraint.  This panics when
// min exceeds max, since such a range cannot arise from a resolved schema.
func NewRange(min int64, max int64) Constraint {
	if min > max {
		panic(fmt.Sprintf("invalid range %d..%d", min, max))
	}
	//
	return Constraint{Min: &min, Max: &max}
}

// Bounded reports whether both bounds are present.
func (p Constraint) Bounded() bool {
	return p.Min != nil && p.Max != nil
}

// Span returns the difference between the upper and lower bound as an
// unsigned number.  This is only meaningful for bounded constraints, but is
// well defined for any pair of signed 64bit bounds (e.g. the full int64
// range spans 2^64-1).
func (p Constraint) Span() uint64 {
	return uint64(*p.Max) - uint64(*p.Min)
}

// BitWidth returns the number of bits needed to encode any value of a
// bounded constraint as an offset from its lower bound.  A single-valued
// range needs zero bits.
func (p Constraint) BitWidth() uint {
	return uint(bits.Len64(p.Span()))
}

// Contains reports whether the given value satisfies the root bounds of this
// constraint.
func (p Constraint) Contains(value int64) bool {
	if p.Min != nil && value < *p.Min {
		return false
	}
	//
	return p.Max == nil || value <= *p.Max
}

func (p Constraint) String() string {
	switch {
	case p.Min == nil && p.Max == nil:
		return "MIN..MAX"
	case p.Max == nil:
		return fmt.Sprintf("%d..MAX", *p.Min)
	case p.Min == nil:
		return fmt.Sprintf("MIN..%d", *p.Max)
	default:
		return fmt.Sprintf("%d..%d", *p.Min, *p.Max)
	}
}

// Size restricts the length of a string, octet string, bit string or
// SEQUENCE OF.  The zero value is unconstrained.  Lengths count the natural
// unit of the constrained type (octets, bits or elements).
type Size struct {
	Min        uint64
	Max        *uint64
	Extensible bool
}

// AnySize constructs a size constraint placing no bound on the length.
func AnySize() Size {
	return Size{}
}

// NewSize constructs an inclusive size range constraint.  This panics when
// min exceeds max, since such a range cannot arise from a resolved schema.
func NewSize(min uint64, max uint64) Size {
	if min > max {
		panic(fmt.Sprintf("invalid size range %d..%d", min, max))
	}
	//
	return Size{Min: min, Max: &max}
}

// FixedSize constructs a size constraint permitting exactly one length.
func FixedSize(n uint64) Size {
	return NewSize(n, n)
}

// Bounded reports whether the upper bound is present.
func (p Size) Bounded() bool {
	return p.Max != nil
}

// Fixed returns the single permitted length when this constraint pins the
// length down exactly (and is not extensible), in which case no length
// determinant is encoded at all.
func (p Size) Fixed() (uint64, bool) {
	if p.Max != nil && p.Min == *p.Max && !p.Extensible {
		return p.Min, true
	}
	//
	return 0, false
}

// BitWidth returns the number of bits needed to encode a length within the
// root bounds as an offset from the minimum.  This is only meaningful for
// bounded constraints.
func (p Size) BitWidth() uint {
	return uint(bits.Len64(*p.Max - p.Min))
}

// Contains reports whether the given length satisfies the root bounds of
// this constraint.
func (p Size) Contains(n uint64) bool {
	if n < p.Min {
		return false
	}
	//
	return p.Max == nil || n <= *p.Max
}

func (p Size) String() string {
	if p.Max == nil {
		if p.Min == 0 {
			return "SIZE(MIN..MAX)"
		}
		//
		return fmt.Sprintf("SIZE(%d..MAX)", p.Min)
	} else if p.Min == *p.Max {
		return fmt.Sprintf("SIZE(%d)", p.Min)
	}
	//
	return fmt.Sprintf("SIZE(%d..%d)", p.Min, *p.Max)
}
