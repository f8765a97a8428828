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
	"github.com/bits-and-blooms/bitset"
)

// LengthStrategy identifies how the length determinant of a sized type
// (strings, octet strings, bit strings, SEQUENCE OF) is put on the wire.
type LengthStrategy uint8

const (
	// LengthOmitted indicates a fixed-size type: exactly the declared number
	// of units follows, with no length field at all.
	LengthOmitted LengthStrategy = iota
	// LengthConstrained indicates a bounded size range whose count is
	// encoded as a constrained whole number offset from the minimum.
	LengthConstrained
	// LengthGeneral indicates the general length determinant of X.691
	// Section 10.9 (single form up to 127, two-octet form up to 16383, and
	// 16K fragmentation beyond).
	LengthGeneral
)

func (s LengthStrategy) String() string {
	switch s {
	case LengthOmitted:
		return "omitted"
	case LengthConstrained:
		return "constrained"
	case LengthGeneral:
		return "general"
	}
	//
	return "unknown"
}

// Constrained length counts are only used whilst the upper size bound stays
// below 64K (X.691 Section 10.9.4.1); beyond that the general determinant
// applies even to bounded ranges.
const maxConstrainedLength = 65536

// Plan describes the wire layout the UPER codec uses for values of one type
// node.  Both codec directions derive their field widths, presence-bitmap
// layout and length strategy from the same plan, which guarantees that
// encoder and decoder agree bit for bit.  Generators consume plans as well,
// so generated native, Protobuf and SQL representations size their fields
// consistently with what the runtime codec produces and accepts.
type Plan struct {
	// ExtensionBit reports whether one leading extension bit precedes the
	// root encoding.
	ExtensionBit bool
	// RootWidth is the width in bits of the root constrained whole number
	// (the value offset of an INTEGER, the index of an ENUMERATED or
	// CHOICE, or the count field of a constrained length).  Zero both for
	// single-valued ranges and for kinds without a fixed-width root.
	RootWidth uint
	// Length identifies the length determinant strategy of sized kinds.
	Length LengthStrategy
	// Presence marks which root fields of a sequence contribute a bit to
	// the presence bitmap, indexed by field position.  Nil for other kinds.
	Presence *bitset.BitSet
	// PresenceBits is the size of the presence bitmap in bits.
	PresenceBits uint
}

// PlanOf computes the encoding plan for the given type node.  Plans depend
// only on the (immutable) type, never on a value, hence may be computed once
// and shared.
func PlanOf(t Type) Plan {
	switch t := Underlying(t).(type) {
	case *BooleanType:
		return Plan{RootWidth: 1}
	case *IntegerType:
		return integerPlan(t.Constraint)
	case *EnumeratedType:
		return Plan{
			ExtensionBit: t.Extensible,
			RootWidth:    indexWidth(len(t.Root)),
		}
	case *BitStringType:
		return sizePlan(t.Size)
	case *OctetStringType:
		return sizePlan(t.Size)
	case *StringType:
		return sizePlan(t.Size)
	case *SequenceType:
		return sequencePlan(t)
	case *SequenceOfType:
		return sizePlan(t.Size)
	case *ChoiceType:
		return Plan{
			ExtensionBit: t.Extensible,
			RootWidth:    indexWidth(len(t.Root)),
		}
	}
	// Unreachable for a well-formed type tree.
	panic("unknown type node")
}

func integerPlan(c Constraint) Plan {
	if c.Bounded() {
		return Plan{ExtensionBit: c.Extensible, RootWidth: c.BitWidth()}
	}
	// Unconstrained and semi-constrained integers carry a general length
	// determinant followed by a minimal octet encoding.
	return Plan{ExtensionBit: c.Extensible, Length: LengthGeneral}
}

func sizePlan(size Size) Plan {
	plan := Plan{ExtensionBit: size.Extensible}
	//
	switch {
	case !size.Extensible && size.Max != nil && size.Min == *size.Max:
		plan.Length = LengthOmitted
	case size.Max != nil && *size.Max < maxConstrainedLength:
		plan.Length = LengthConstrained
		plan.RootWidth = size.BitWidth()
	default:
		plan.Length = LengthGeneral
	}
	//
	return plan
}

func sequencePlan(t *SequenceType) Plan {
	var (
		presence = bitset.New(uint(len(t.Fields)))
		count    uint
	)
	//
	for i := range t.Fields {
		if t.Fields[i].HasPresenceBit() {
			presence.Set(uint(i))
			count++
		}
	}
	//
	return Plan{
		ExtensionBit: t.Extensible,
		Presence:     presence,
		PresenceBits: count,
	}
}

// indexWidth returns the number of bits needed for a constrained index over
// n items declared in order (i.e. over the range 0..n-1).
func indexWidth(n int) uint {
	if n <= 1 {
		return 0
	}
	//
	return NewRange(0, int64(n-1)).BitWidth()
}
