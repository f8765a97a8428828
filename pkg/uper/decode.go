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
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/asn1tools/go-asnc/pkg/asn"
	"github.com/asn1tools/go-asnc/pkg/util/bit"
)

// Decode reconstructs a value of the given type from a UPER bit stream,
// returning the value together with the number of bits consumed.  Up to
// seven trailing pad bits are tolerated (and not required to be zero, since
// many real encoders do not zero them); a whole unread octet or more is
// reported as a TrailingDataError alongside the fully decoded value, leaving
// the caller to decide whether that is fatal.  All other errors mean no
// value could be determined: the decoder fails closed rather than returning
// a partially populated value.
func Decode(t asn.Type, data []byte) (asn.Value, uint, error) {
	r := bit.NewReader(data)
	//
	value, err := decode(t, r)
	//
	if err != nil {
		return nil, r.BitsRead(), err
	} else if r.Remaining() >= 8 {
		return value, r.BitsRead(), &TrailingDataError{Bits: r.Remaining()}
	}
	//
	return value, r.BitsRead(), nil
}

// decode reads one value off the given reader, recursing structurally over
// the type tree.  The reader position is the only mutable state.
func decode(t asn.Type, r *bit.Reader) (asn.Value, error) {
	switch t := asn.Underlying(t).(type) {
	case *asn.BooleanType:
		return decodeBoolean(r)
	case *asn.IntegerType:
		return decodeInteger(t, r)
	case *asn.EnumeratedType:
		return decodeEnumerated(t, r)
	case *asn.BitStringType:
		return decodeBitString(t, r)
	case *asn.OctetStringType:
		return decodeOctetString(t, r)
	case *asn.StringType:
		return decodeString(t, r)
	case *asn.SequenceType:
		return decodeSequence(t, r)
	case *asn.SequenceOfType:
		return decodeSequenceOf(t, r)
	case *asn.ChoiceType:
		return decodeChoice(t, r)
	}
	// Unreachable for a well-formed type tree.
	panic("unknown type node")
}

func decodeBoolean(r *bit.Reader) (asn.Value, error) {
	value, err := r.ReadBit()
	//
	if err != nil {
		return nil, err
	}
	//
	return asn.Boolean(value), nil
}

func decodeInteger(t *asn.IntegerType, r *bit.Reader) (asn.Value, error) {
	c := t.Constraint
	//
	if c.Extensible {
		ext, err := r.ReadBit()
		//
		if err != nil {
			return nil, err
		} else if ext {
			// Extension values are unbounded by definition.
			n, err := readUnconstrained(r)
			return asn.Integer(n), err
		}
	}
	//
	switch {
	case c.Bounded():
		n, err := readConstrained(r, c)
		return asn.Integer(n), err
	case c.Min != nil:
		offset, err := readSemiUnsigned(r)
		//
		if err != nil {
			return nil, err
		} else if offset > uint64(math.MaxInt64)-uint64(*c.Min) {
			return nil, &OverflowError{Octets: 8}
		}
		//
		return asn.Integer(uint64(*c.Min) + offset), nil
	default:
		n, err := readUnconstrained(r)
		return asn.Integer(n), err
	}
}

func decodeEnumerated(t *asn.EnumeratedType, r *bit.Reader) (asn.Value, error) {
	known := uint64(len(t.Root) + len(t.Ext))
	//
	if t.Extensible {
		ext, err := r.ReadBit()
		//
		if err != nil {
			return nil, err
		} else if ext {
			index, err := readNormallySmall(r)
			//
			if err != nil {
				return nil, err
			} else if index >= uint64(len(t.Ext)) {
				return nil, &UnknownChoiceIndexError{Index: uint64(len(t.Root)) + index, Known: known}
			}
			//
			return asn.Enumerated(t.Ext[index].Name), nil
		}
	}
	//
	index, err := r.ReadBits(asn.PlanOf(t).RootWidth)
	//
	if err != nil {
		return nil, err
	} else if index >= uint64(len(t.Root)) {
		return nil, &UnknownChoiceIndexError{Index: index, Known: known}
	}
	//
	return asn.Enumerated(t.Root[index].Name), nil
}

func decodeBitString(t *asn.BitStringType, r *bit.Reader) (asn.Value, error) {
	var octets []byte
	// Every non-final fragment is a multiple of 16K bits, hence each run
	// concatenates at a byte boundary of the assembled value.
	total, err := decodeSized(r, t, t.Size, func(count uint64) error {
		run, err := r.ReadBitString(uint(count))
		//
		if err != nil {
			return err
		}
		//
		octets = append(octets, run...)
		//
		return nil
	})
	//
	if err != nil {
		return nil, err
	}
	//
	if octets == nil {
		octets = []byte{}
	}
	//
	return asn.BitString{Bytes: octets, Length: uint(total)}, nil
}

func decodeOctetString(t *asn.OctetStringType, r *bit.Reader) (asn.Value, error) {
	octets, err := decodeOctets(r, t, t.Size)
	//
	if err != nil {
		return nil, err
	}
	//
	return asn.OctetString(octets), nil
}

func decodeString(t *asn.StringType, r *bit.Reader) (asn.Value, error) {
	octets, err := decodeOctets(r, t, t.Size)
	//
	if err != nil {
		return nil, err
	}
	//
	return asn.String(octets), nil
}

func decodeOctets(r *bit.Reader, t asn.Type, size asn.Size) ([]byte, error) {
	octets := []byte{}
	//
	_, err := decodeSized(r, t, size, func(count uint64) error {
		run, err := r.ReadBytes(uint(count))
		//
		if err != nil {
			return err
		}
		//
		octets = append(octets, run...)
		//
		return nil
	})
	//
	return octets, err
}

// decodeSized reads the length encoding of a sized type per the resolved
// plan, invoking consume for the unit runs as their counts are determined,
// and returns the total unit count.  Counts are validated against the
// declared size range before any unit is consumed wherever the encoding
// makes that possible; fully general (fragmented) counts are validated once
// assembled.
func decodeSized(r *bit.Reader, t asn.Type, size asn.Size, consume func(count uint64) error) (uint64, error) {
	plan := asn.PlanOf(t)
	//
	if plan.ExtensionBit {
		ext, err := r.ReadBit()
		//
		if err != nil {
			return 0, err
		} else if ext {
			// Beyond the extension marker any length is structurally valid.
			return readFragmented(r, consume)
		}
	}
	//
	switch plan.Length {
	case asn.LengthOmitted:
		n := size.Min
		//
		if n == 0 {
			return 0, nil
		}
		//
		return n, consume(n)
	case asn.LengthConstrained:
		offset, err := r.ReadBits(plan.RootWidth)
		//
		if err != nil {
			return 0, err
		}
		//
		n := size.Min + offset
		//
		if !size.Contains(n) {
			return 0, &SizeRangeError{Size: n, Min: size.Min, Max: size.Max}
		} else if n == 0 {
			return 0, nil
		}
		//
		return n, consume(n)
	default:
		n, err := readFragmented(r, consume)
		//
		if err != nil {
			return n, err
		} else if !size.Contains(n) {
			return n, &SizeRangeError{Size: n, Min: size.Min, Max: size.Max}
		}
		//
		return n, nil
	}
}

func decodeSequence(t *asn.SequenceType, r *bit.Reader) (asn.Value, error) {
	var (
		plan     = asn.PlanOf(t)
		value    = asn.Sequence{}
		extended bool
		err      error
	)
	//
	if plan.ExtensionBit {
		if extended, err = r.ReadBit(); err != nil {
			return nil, err
		}
	}
	// Presence bitmap of the optional/default root fields.
	present := bitset.New(uint(len(t.Fields)))
	//
	for i := range t.Fields {
		if !plan.Presence.Test(uint(i)) {
			continue
		}
		//
		flag, err := r.ReadBit()
		//
		if err != nil {
			return nil, err
		} else if flag {
			present.Set(uint(i))
		}
	}
	// Root fields, strictly in declaration order.
	for i := range t.Fields {
		field := &t.Fields[i]
		//
		if plan.Presence.Test(uint(i)) && !present.Test(uint(i)) {
			// Absent: an absent default-bearing field decodes to its
			// default, an absent optional field to nothing at all.
			if field.Default != nil {
				value = append(value, asn.NamedValue{Name: field.Name, Value: field.Default})
			}
			//
			continue
		}
		//
		fv, err := decode(field.Type, r)
		//
		if err != nil {
			return nil, err
		}
		//
		value = append(value, asn.NamedValue{Name: field.Name, Value: fv})
	}
	//
	if !extended {
		return value, nil
	}
	// Extension additions: bitmap length, presence bitmap, then one open
	// type per present addition.  Additions beyond those this schema knows
	// are consumed and discarded.
	count, err := readNormallySmallLength(r)
	//
	if err != nil {
		return nil, err
	} else if uint64(r.Remaining()) < count {
		return nil, &bit.TruncatedError{Requested: uint(count), Remaining: r.Remaining()}
	}
	//
	additions := bitset.New(uint(count))
	//
	for i := uint64(0); i < count; i++ {
		flag, err := r.ReadBit()
		//
		if err != nil {
			return nil, err
		} else if flag {
			additions.Set(uint(i))
		}
	}
	//
	for i := uint64(0); i < count; i++ {
		if !additions.Test(uint(i)) {
			continue
		}
		//
		content, err := readOpenType(r)
		//
		if err != nil {
			return nil, err
		} else if i >= uint64(len(t.ExtFields)) {
			continue
		}
		//
		field := &t.ExtFields[i]
		// Trailing pad bits of the open type content are ignored.
		fv, err := decode(field.Type, bit.NewReader(content))
		//
		if err != nil {
			return nil, err
		}
		//
		value = append(value, asn.NamedValue{Name: field.Name, Value: fv})
	}
	//
	return value, nil
}

func decodeSequenceOf(t *asn.SequenceOfType, r *bit.Reader) (asn.Value, error) {
	var (
		value = asn.List{}
		cost  = minBits(t.Element)
		total uint64
	)
	//
	_, err := decodeSized(r, t, t.Size, func(count uint64) error {
		// A count claiming more elements than the remaining input could hold
		// fails before anything is allocated.  Elements admitting an empty
		// encoding consume no input at all, so their runs are capped by the
		// declared size bound instead.
		if cost > 0 {
			if uint64(r.Remaining())/cost < count {
				return &bit.TruncatedError{Requested: uint(count * cost), Remaining: r.Remaining()}
			}
		} else if t.Size.Max == nil || total+count > *t.Size.Max {
			return &SizeRangeError{Size: total + count, Min: t.Size.Min, Max: t.Size.Max}
		}
		//
		for i := uint64(0); i < count; i++ {
			element, err := decode(t.Element, r)
			//
			if err != nil {
				return err
			}
			//
			value = append(value, element)
		}
		//
		total += count
		//
		return nil
	})
	//
	if err != nil {
		return nil, err
	}
	//
	return value, nil
}

// minBits returns a lower bound on the number of bits a single encoding of
// the given type occupies.  Zero means the type admits an empty encoding,
// which fragment counts must not be allowed to multiply for free.
func minBits(t asn.Type) uint64 {
	plan := asn.PlanOf(t)
	// Any extensible type spends at least its extension bit.
	if plan.ExtensionBit {
		return 1
	}
	//
	switch t := asn.Underlying(t).(type) {
	case *asn.BooleanType:
		return 1
	case *asn.IntegerType:
		if t.Constraint.Bounded() {
			return uint64(plan.RootWidth)
		}
		// A length determinant occupies at least one octet.
		return 8
	case *asn.EnumeratedType, *asn.ChoiceType:
		return uint64(plan.RootWidth)
	case *asn.BitStringType:
		return minSizedBits(plan, t.Size, 1)
	case *asn.OctetStringType:
		return minSizedBits(plan, t.Size, 8)
	case *asn.StringType:
		return minSizedBits(plan, t.Size, 8)
	case *asn.SequenceOfType:
		return minSizedBits(plan, t.Size, minBits(t.Element))
	case *asn.SequenceType:
		n := uint64(plan.PresenceBits)
		//
		for i := range t.Fields {
			if !t.Fields[i].HasPresenceBit() {
				n += minBits(t.Fields[i].Type)
			}
		}
		//
		return n
	}
	//
	return 0
}

func minSizedBits(plan asn.Plan, size asn.Size, unit uint64) uint64 {
	switch plan.Length {
	case asn.LengthOmitted:
		return size.Min * unit
	case asn.LengthConstrained:
		return uint64(plan.RootWidth) + size.Min*unit
	default:
		return 8
	}
}

func decodeChoice(t *asn.ChoiceType, r *bit.Reader) (asn.Value, error) {
	known := uint64(len(t.Root) + len(t.Ext))
	//
	if t.Extensible {
		ext, err := r.ReadBit()
		//
		if err != nil {
			return nil, err
		} else if ext {
			index, err := readNormallySmall(r)
			//
			if err != nil {
				return nil, err
			}
			// The alternative travels as an open type either way; consume
			// it so the reader stays positioned for the caller.
			content, err := readOpenType(r)
			//
			if err != nil {
				return nil, err
			} else if index >= uint64(len(t.Ext)) {
				return nil, &UnknownChoiceIndexError{Index: uint64(len(t.Root)) + index, Known: known}
			}
			//
			alternative := &t.Ext[index]
			//
			fv, err := decode(alternative.Type, bit.NewReader(content))
			//
			if err != nil {
				return nil, err
			}
			//
			return asn.Choice{Name: alternative.Name, Value: fv}, nil
		}
	}
	//
	index, err := r.ReadBits(asn.PlanOf(t).RootWidth)
	//
	if err != nil {
		return nil, err
	} else if index >= uint64(len(t.Root)) {
		return nil, &UnknownChoiceIndexError{Index: index, Known: known}
	}
	//
	alternative := &t.Root[index]
	//
	fv, err := decode(alternative.Type, r)
	//
	if err != nil {
		return nil, err
	}
	//
	return asn.Choice{Name: alternative.Name, Value: fv}, nil
}

// readOpenType assembles the (possibly fragmented) octets of an open type
// field.
func readOpenType(r *bit.Reader) ([]byte, error) {
	var content []byte
	//
	_, err := readFragmented(r, func(count uint64) error {
		run, err := r.ReadBytes(uint(count))
		//
		if err != nil {
			return err
		}
		//
		content = append(content, run...)
		//
		return nil
	})
	//
	return content, err
}
