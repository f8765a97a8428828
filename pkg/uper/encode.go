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
	"github.com/bits-and-blooms/bitset"

	"github.com/asn1tools/go-asnc/pkg/asn"
	"github.com/asn1tools/go-asnc/pkg/util/bit"
)

// Encode serialises a value against its type description, returning the UPER
// bit stream zero-padded to a whole number of octets.  The output carries no
// envelope and no top-level length; a caller sending over a stream transport
// supplies its own framing.  Encoding the same (type, value) pair twice
// yields byte-identical output, since field order is structural (declaration
// order) rather than value dependent.
func Encode(t asn.Type, v asn.Value) ([]byte, error) {
	var w bit.Writer
	//
	if err := encode(t, v, &w); err != nil {
		return nil, err
	}
	//
	return w.Bytes(), nil
}

// encode appends the bits of one value to the given writer, recursing
// structurally over the type tree.
func encode(t asn.Type, v asn.Value, w *bit.Writer) error {
	switch t := asn.Underlying(t).(type) {
	case *asn.BooleanType:
		return encodeBoolean(t, v, w)
	case *asn.IntegerType:
		return encodeInteger(t, v, w)
	case *asn.EnumeratedType:
		return encodeEnumerated(t, v, w)
	case *asn.BitStringType:
		return encodeBitString(t, v, w)
	case *asn.OctetStringType:
		return encodeOctetString(t, v, w)
	case *asn.StringType:
		return encodeString(t, v, w)
	case *asn.SequenceType:
		return encodeSequence(t, v, w)
	case *asn.SequenceOfType:
		return encodeSequenceOf(t, v, w)
	case *asn.ChoiceType:
		return encodeChoice(t, v, w)
	}
	// Unreachable for a well-formed type tree.
	panic("unknown type node")
}

func encodeBoolean(t *asn.BooleanType, v asn.Value, w *bit.Writer) error {
	value, ok := v.(asn.Boolean)
	//
	if !ok {
		return mismatch(t, "BOOLEAN value expected, got %s", v.String())
	}
	//
	w.WriteBit(bool(value))
	//
	return nil
}

func encodeInteger(t *asn.IntegerType, v asn.Value, w *bit.Writer) error {
	value, ok := v.(asn.Integer)
	//
	if !ok {
		return mismatch(t, "INTEGER value expected, got %s", v.String())
	}
	//
	var (
		c = t.Constraint
		n = int64(value)
	)
	// An extension marker in the value range reserves one bit selecting
	// between the root encoding and the unconstrained fallback.
	if c.Extensible {
		root := c.Contains(n)
		w.WriteBit(!root)
		//
		if !root {
			return writeUnconstrained(w, n)
		}
	}
	//
	switch {
	case c.Bounded():
		return writeConstrained(w, n, c)
	case c.Min != nil:
		// Semi-constrained: minimal octets of the offset from the bound.
		if n < *c.Min {
			return &ValueRangeError{Value: n, Constraint: c}
		}
		//
		return writeSemiUnsigned(w, uint64(n)-uint64(*c.Min))
	default:
		return writeUnconstrained(w, n)
	}
}

func encodeEnumerated(t *asn.EnumeratedType, v asn.Value, w *bit.Writer) error {
	value, ok := v.(asn.Enumerated)
	//
	if !ok {
		return mismatch(t, "ENUMERATED value expected, got %s", v.String())
	}
	//
	if index, ok := t.RootIndex(string(value)); ok {
		if t.Extensible {
			w.WriteBit(false)
		}
		//
		w.WriteBits(index, asn.PlanOf(t).RootWidth)
		//
		return nil
	}
	//
	if index, ok := t.ExtIndex(string(value)); ok && t.Extensible {
		w.WriteBit(true)
		//
		return writeNormallySmall(w, index)
	}
	//
	return mismatch(t, "unknown enumerant %q", string(value))
}

func encodeBitString(t *asn.BitStringType, v asn.Value, w *bit.Writer) error {
	value, ok := v.(asn.BitString)
	//
	if !ok {
		return mismatch(t, "BIT STRING value expected, got %s", v.String())
	} else if uint(len(value.Bytes))*8 < value.Length {
		return mismatch(t, "bit string holds fewer than its declared %d bits", value.Length)
	}
	//
	return encodeSized(w, t, t.Size, uint64(value.Length), func(offset uint64, count uint64) error {
		// Fragment offsets are multiples of 16K bits, hence byte aligned
		// within the source buffer.
		w.WriteBitString(value.Bytes[offset/8:], uint(count))
		//
		return nil
	})
}

func encodeOctetString(t *asn.OctetStringType, v asn.Value, w *bit.Writer) error {
	value, ok := v.(asn.OctetString)
	//
	if !ok {
		return mismatch(t, "OCTET STRING value expected, got %s", v.String())
	}
	//
	return encodeOctets(w, t, t.Size, []byte(value))
}

func encodeString(t *asn.StringType, v asn.Value, w *bit.Writer) error {
	value, ok := v.(asn.String)
	//
	if !ok {
		return mismatch(t, "%s value expected, got %s", t.Variant.String(), v.String())
	}
	//
	return encodeOctets(w, t, t.Size, []byte(value))
}

// encodeOctets writes an octet payload behind whatever length encoding its
// size constraint calls for.
func encodeOctets(w *bit.Writer, t asn.Type, size asn.Size, octets []byte) error {
	return encodeSized(w, t, size, uint64(len(octets)), func(offset uint64, count uint64) error {
		w.WriteBytes(octets[offset : offset+count])
		//
		return nil
	})
}

// encodeSized writes the length encoding for n units of a sized type (the
// extension bit where applicable, then no length field, a constrained count,
// or a general determinant per the resolved plan), invoking emit for the
// unit runs as their counts are determined.
func encodeSized(w *bit.Writer, t asn.Type, size asn.Size, n uint64, emit func(offset uint64, count uint64) error) error {
	var (
		plan = asn.PlanOf(t)
		root = size.Contains(n)
	)
	//
	if plan.ExtensionBit {
		w.WriteBit(!root)
		// Lengths beyond the extension marker use the general determinant,
		// whatever the root strategy was.
		if !root {
			return writeFragmented(w, n, emit)
		}
	} else if !root {
		return &SizeRangeError{Size: n, Min: size.Min, Max: size.Max}
	}
	//
	switch plan.Length {
	case asn.LengthOmitted:
		if n == 0 {
			return nil
		}
		//
		return emit(0, n)
	case asn.LengthConstrained:
		w.WriteBits(n-size.Min, plan.RootWidth)
		//
		if n == 0 {
			return nil
		}
		//
		return emit(0, n)
	default:
		return writeFragmented(w, n, emit)
	}
}

func encodeSequence(t *asn.SequenceType, v asn.Value, w *bit.Writer) error {
	value, ok := v.(asn.Sequence)
	//
	if !ok {
		return mismatch(t, "SEQUENCE value expected, got %s", v.String())
	}
	// Names outside the schema indicate a caller bug.
	for _, f := range value {
		if _, ok := t.Field(f.Name); !ok {
			return mismatch(t, "unknown field %q", f.Name)
		}
	}
	//
	var (
		plan    = asn.PlanOf(t)
		present = bitset.New(uint(len(t.ExtFields)))
	)
	//
	for i := range t.ExtFields {
		if _, ok := value.Field(t.ExtFields[i].Name); ok {
			// Extension fields on a non-extensible type have no wire form.
			if !plan.ExtensionBit {
				return mismatch(t, "extension field %q on a non-extensible type", t.ExtFields[i].Name)
			}
			//
			present.Set(uint(i))
		}
	}
	//
	if plan.ExtensionBit {
		w.WriteBit(present.Any())
	}
	// Effective presence per root field.  A field equal to its default is
	// treated as absent, keeping the output canonical.
	has := make([]bool, len(t.Fields))
	//
	for i := range t.Fields {
		field := &t.Fields[i]
		fv, ok := value.Field(field.Name)
		//
		if ok && field.Default != nil && asn.Equal(fv, field.Default) {
			ok = false
		}
		//
		if !ok && !plan.Presence.Test(uint(i)) {
			return mismatch(t, "missing mandatory field %q", field.Name)
		}
		//
		has[i] = ok
	}
	// The whole presence bitmap precedes any field content.
	for i := range t.Fields {
		if plan.Presence.Test(uint(i)) {
			w.WriteBit(has[i])
		}
	}
	// Root fields, strictly in declaration order.
	for i := range t.Fields {
		if !has[i] {
			continue
		}
		//
		fv, _ := value.Field(t.Fields[i].Name)
		//
		if err := encode(t.Fields[i].Type, fv, w); err != nil {
			return err
		}
	}
	//
	if !present.Any() {
		return nil
	}
	// Extension additions: a normally small bitmap length, the addition
	// presence bitmap, then each present addition as an open type.
	if err := writeNormallySmallLength(w, uint64(len(t.ExtFields))); err != nil {
		return err
	}
	//
	for i := range t.ExtFields {
		w.WriteBit(present.Test(uint(i)))
	}
	//
	for i := range t.ExtFields {
		if !present.Test(uint(i)) {
			continue
		}
		//
		fv, _ := value.Field(t.ExtFields[i].Name)
		//
		if err := writeOpenType(w, t.ExtFields[i].Type, fv); err != nil {
			return err
		}
	}
	//
	return nil
}

func encodeSequenceOf(t *asn.SequenceOfType, v asn.Value, w *bit.Writer) error {
	value, ok := v.(asn.List)
	//
	if !ok {
		return mismatch(t, "SEQUENCE OF value expected, got %s", v.String())
	}
	//
	return encodeSized(w, t, t.Size, uint64(len(value)), func(offset uint64, count uint64) error {
		for _, element := range value[offset : offset+count] {
			if err := encode(t.Element, element, w); err != nil {
				return err
			}
		}
		//
		return nil
	})
}

func encodeChoice(t *asn.ChoiceType, v asn.Value, w *bit.Writer) error {
	value, ok := v.(asn.Choice)
	//
	if !ok {
		return mismatch(t, "CHOICE value expected, got %s", v.String())
	}
	//
	if index, ok := t.RootIndex(value.Name); ok {
		if t.Extensible {
			w.WriteBit(false)
		}
		//
		w.WriteBits(index, asn.PlanOf(t).RootWidth)
		//
		return encode(t.Root[index].Type, value.Value, w)
	}
	//
	if index, ok := t.ExtIndex(value.Name); ok && t.Extensible {
		w.WriteBit(true)
		//
		if err := writeNormallySmall(w, index); err != nil {
			return err
		}
		// Extension alternatives travel as open types, so an old decoder
		// can skip them wholesale.
		return writeOpenType(w, t.Ext[index].Type, value.Value)
	}
	//
	return mismatch(t, "unknown alternative %q", value.Name)
}

// writeOpenType encodes a value into a fresh bit stream, then embeds the
// padded octets behind a general length determinant.  An empty encoding is
// carried as a single zero octet, as required for open type fields.
func writeOpenType(w *bit.Writer, t asn.Type, v asn.Value) error {
	var sub bit.Writer
	//
	if err := encode(t, v, &sub); err != nil {
		return err
	}
	//
	content := sub.Bytes()
	//
	if len(content) == 0 {
		content = []byte{0x00}
	}
	//
	return writeFragmented(w, uint64(len(content)), func(offset uint64, count uint64) error {
		w.WriteBytes(content[offset : offset+count])
		//
		return nil
	})
}
