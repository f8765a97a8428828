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
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asn1tools/go-asnc/pkg/asn"
)

// roundTrip encodes the given value, decodes it back and checks both that the
// result is structurally identical and that re-encoding is byte identical.
// The encoded bytes are returned for exactness checks.
func roundTrip(t *testing.T, typ asn.Type, value asn.Value) []byte {
	t.Helper()
	//
	data, err := Encode(typ, value)
	require.NoError(t, err)
	//
	decoded, _, err := Decode(typ, data)
	require.NoError(t, err)
	assert.True(t, asn.Equal(value, decoded), "decoded %v, expected %v", decoded, value)
	// Encoding must be deterministic.
	again, err := Encode(typ, value)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, again), "encoding is not deterministic")
	//
	return data
}

func TestBoolean(t *testing.T) {
	typ := &asn.BooleanType{}
	//
	assert.Equal(t, []byte{0x80}, roundTrip(t, typ, asn.Boolean(true)))
	assert.Equal(t, []byte{0x00}, roundTrip(t, typ, asn.Boolean(false)))
}

func TestInteger_MinimalWidth(t *testing.T) {
	typ := &asn.IntegerType{Constraint: asn.NewRange(0, 7)}
	// Every value of a 0..7 range occupies exactly three bits.
	assert.Equal(t, []byte{0x00}, roundTrip(t, typ, asn.Integer(0)))
	assert.Equal(t, []byte{0xe0}, roundTrip(t, typ, asn.Integer(7)))
	assert.Equal(t, []byte{0xa0}, roundTrip(t, typ, asn.Integer(5)))
}

func TestInteger_SingleValuedRange(t *testing.T) {
	typ := &asn.IntegerType{Constraint: asn.NewRange(5, 5)}
	// A single-valued range encodes to zero bits.
	data := roundTrip(t, typ, asn.Integer(5))
	assert.Empty(t, data)
	// Decoding zero bits always yields the value.
	value, bits, err := Decode(typ, nil)
	require.NoError(t, err)
	assert.Equal(t, asn.Integer(5), value)
	assert.Equal(t, uint(0), bits)
}

func TestInteger_NegativeRange(t *testing.T) {
	typ := &asn.IntegerType{Constraint: asn.NewRange(-3, 4)}
	//
	for n := int64(-3); n <= 4; n++ {
		data := roundTrip(t, typ, asn.Integer(n))
		assert.LessOrEqual(t, len(data), 1, "a 3bit field fits one byte")
	}
	// Offset encoding: -3 maps to 000, 4 maps to 111.
	assert.Equal(t, []byte{0x00}, roundTrip(t, typ, asn.Integer(-3)))
	assert.Equal(t, []byte{0xe0}, roundTrip(t, typ, asn.Integer(4)))
}

func TestInteger_Unconstrained(t *testing.T) {
	typ := &asn.IntegerType{}
	//
	for _, n := range []int64{0, 1, -1, 127, 128, -128, -129, 1234567, math.MinInt64, math.MaxInt64} {
		roundTrip(t, typ, asn.Integer(n))
	}
	// Minimal octet count: one length octet prefix plus payload.
	assert.Equal(t, []byte{0x01, 0x00}, roundTrip(t, typ, asn.Integer(0)))
	assert.Equal(t, []byte{0x01, 0xff}, roundTrip(t, typ, asn.Integer(-1)))
	assert.Equal(t, []byte{0x02, 0x00, 0x80}, roundTrip(t, typ, asn.Integer(128)))
}

func TestInteger_SemiConstrained(t *testing.T) {
	min := int64(1000)
	typ := &asn.IntegerType{Constraint: asn.Constraint{Min: &min}}
	//
	roundTrip(t, typ, asn.Integer(1000))
	roundTrip(t, typ, asn.Integer(1001))
	roundTrip(t, typ, asn.Integer(123456789))
	// The offset from the bound is what travels: 1000 encodes as offset 0.
	assert.Equal(t, []byte{0x01, 0x00}, roundTrip(t, typ, asn.Integer(1000)))
}

func TestInteger_Extensible(t *testing.T) {
	c := asn.NewRange(0, 7)
	c.Extensible = true
	typ := &asn.IntegerType{Constraint: c}
	// In root: extension bit clear, then the 3bit root form.
	assert.Equal(t, []byte{0x50}, roundTrip(t, typ, asn.Integer(5)))
	// Outside root: extension bit set, then the unconstrained form.
	roundTrip(t, typ, asn.Integer(1000))
	roundTrip(t, typ, asn.Integer(-5))
}

func TestInteger_RangeViolation(t *testing.T) {
	typ := &asn.IntegerType{Constraint: asn.NewRange(0, 7)}
	//
	_, err := Encode(typ, asn.Integer(8))
	assert.True(t, IsConstraintViolation(err), "unexpected error %v", err)
	//
	_, err = Encode(typ, asn.Integer(-1))
	assert.True(t, IsConstraintViolation(err), "unexpected error %v", err)
}

func TestEnumerated(t *testing.T) {
	typ := &asn.EnumeratedType{
		Root: []asn.Enumerant{{Name: "red", Value: 0}, {Name: "green", Value: 1}, {Name: "blue", Value: 2}},
	}
	// Three enumerants index in two bits.
	assert.Equal(t, []byte{0x00}, roundTrip(t, typ, asn.Enumerated("red")))
	assert.Equal(t, []byte{0x40}, roundTrip(t, typ, asn.Enumerated("green")))
	assert.Equal(t, []byte{0x80}, roundTrip(t, typ, asn.Enumerated("blue")))
}

func TestEnumerated_Extensible(t *testing.T) {
	typ := &asn.EnumeratedType{
		Root:       []asn.Enumerant{{Name: "red", Value: 0}, {Name: "green", Value: 1}},
		Ext:        []asn.Enumerant{{Name: "cyan", Value: 2}},
		Extensible: true,
	}
	// Root: extension bit clear then a 1bit index.
	assert.Equal(t, []byte{0x40}, roundTrip(t, typ, asn.Enumerated("green")))
	// Extension: extension bit set then a normally small index.
	assert.Equal(t, []byte{0x80}, roundTrip(t, typ, asn.Enumerated("cyan")))
}

func TestEnumerated_ManyExtensions(t *testing.T) {
	typ := &asn.EnumeratedType{
		Root:       []asn.Enumerant{{Name: "base", Value: 0}},
		Extensible: true,
	}
	//
	for i := int64(0); i < 70; i++ {
		typ.Ext = append(typ.Ext, asn.Enumerant{Name: string(rune('a'+i%26)) + string(rune('0'+i/26)), Value: i + 1})
	}
	// Index 65 exceeds the six bit form of a normally small number.
	roundTrip(t, typ, asn.Enumerated(typ.Ext[65].Name))
	roundTrip(t, typ, asn.Enumerated(typ.Ext[63].Name))
}

func TestBitString(t *testing.T) {
	typ := &asn.BitStringType{Size: asn.NewSize(0, 16)}
	//
	roundTrip(t, typ, asn.BitString{Bytes: []byte{}, Length: 0})
	roundTrip(t, typ, asn.BitString{Bytes: []byte{0b10100000}, Length: 3})
	roundTrip(t, typ, asn.BitString{Bytes: []byte{0xde, 0xad}, Length: 16})
}

func TestBitString_Fixed(t *testing.T) {
	typ := &asn.BitStringType{Size: asn.FixedSize(4)}
	// No length field at all: four bits on the wire.
	assert.Equal(t, []byte{0xb0}, roundTrip(t, typ, asn.BitString{Bytes: []byte{0b10110000}, Length: 4}))
}

func TestOctetString(t *testing.T) {
	fixed := &asn.OctetStringType{Size: asn.FixedSize(2)}
	assert.Equal(t, []byte{0xca, 0xfe}, roundTrip(t, fixed, asn.OctetString{0xca, 0xfe}))
	//
	bounded := &asn.OctetStringType{Size: asn.NewSize(1, 8)}
	// A 1..8 count travels in three bits ahead of the octets.
	roundTrip(t, bounded, asn.OctetString{0x01})
	roundTrip(t, bounded, asn.OctetString{1, 2, 3, 4, 5, 6, 7, 8})
	//
	unconstrained := &asn.OctetStringType{}
	assert.Equal(t, []byte{0x02, 0xca, 0xfe}, roundTrip(t, unconstrained, asn.OctetString{0xca, 0xfe}))
	roundTrip(t, unconstrained, asn.OctetString{})
}

func TestOctetString_SizeViolation(t *testing.T) {
	typ := &asn.OctetStringType{Size: asn.FixedSize(3)}
	//
	_, err := Encode(typ, asn.OctetString{0x01})
	assert.True(t, IsConstraintViolation(err), "unexpected error %v", err)
}

func TestOctetString_ExtensibleSize(t *testing.T) {
	size := asn.NewSize(1, 2)
	size.Extensible = true
	typ := &asn.OctetStringType{Size: size}
	// In root: extension bit clear, 1bit count, octets.
	roundTrip(t, typ, asn.OctetString{0xaa})
	// Outside root: extension bit set, general determinant, octets.
	roundTrip(t, typ, asn.OctetString{1, 2, 3, 4, 5})
}

func TestOctetString_Fragmented(t *testing.T) {
	typ := &asn.OctetStringType{}
	//
	payload := make([]byte, 20000)
	for i := range payload {
		payload[i] = byte(i)
	}
	//
	data := roundTrip(t, typ, asn.OctetString(payload))
	// One fragment octet, a 16K block, a two-octet determinant, the rest.
	assert.Equal(t, 1+16384+2+3616, len(data))
	assert.Equal(t, byte(0xc1), data[0], "one 16K fragment expected")
}

func TestString(t *testing.T) {
	typ := &asn.StringType{Variant: asn.Utf8String}
	//
	roundTrip(t, typ, asn.String(""))
	roundTrip(t, typ, asn.String("hello"))
	roundTrip(t, typ, asn.String("grüße, 世界"))
	// Length counts octets, not characters.
	assert.Equal(t, []byte{0x05, 'h', 'e', 'l', 'l', 'o'}, roundTrip(t, typ, asn.String("hello")))
}

func TestSequence_PresenceBitmap(t *testing.T) {
	typ := &asn.SequenceType{
		Fields: []asn.Field{
			{Name: "id", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 1)}},
			{Name: "a", Type: &asn.BooleanType{}, Optional: true},
			{Name: "b", Type: &asn.BooleanType{}, Optional: true},
		},
	}
	//
	value := asn.Sequence{
		{Name: "id", Value: asn.Integer(1)},
		{Name: "b", Value: asn.Boolean(true)},
	}
	//
	data := roundTrip(t, typ, value)
	// Presence bitmap 01 (a absent, b present), 1bit id, 1bit b: four bits
	// in total, i.e. 0111 padded into one byte.
	assert.Equal(t, []byte{0x70}, data)
}

func TestSequence_BitmapPrecedesContent(t *testing.T) {
	// A mandatory content-bearing field ahead of the optional ones: the
	// presence bitmap still comes first, before any field content.
	typ := &asn.SequenceType{
		Fields: []asn.Field{
			{Name: "n", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 15)}},
			{Name: "a", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 15)}, Optional: true},
			{Name: "b", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 15)}, Optional: true},
		},
	}
	//
	data := roundTrip(t, typ, asn.Sequence{
		{Name: "n", Value: asn.Integer(2)},
		{Name: "b", Value: asn.Integer(5)},
	})
	// Bits 01 (a absent, b present), 0010 (n), 0101 (b), six pad bits.
	assert.Equal(t, []byte{0x49, 0x40}, data)
}

func TestSequence_Nested(t *testing.T) {
	inner := &asn.SequenceType{
		Fields: []asn.Field{
			{Name: "x", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 255)}},
			{Name: "y", Type: &asn.OctetStringType{}, Optional: true},
		},
	}
	//
	typ := &asn.SequenceType{
		Fields: []asn.Field{
			{Name: "point", Type: inner},
			{Name: "items", Type: &asn.SequenceOfType{Element: &asn.BooleanType{}, Size: asn.NewSize(0, 7)}},
		},
	}
	//
	roundTrip(t, typ, asn.Sequence{
		{Name: "point", Value: asn.Sequence{
			{Name: "x", Value: asn.Integer(42)},
			{Name: "y", Value: asn.OctetString{0xaa, 0xbb}},
		}},
		{Name: "items", Value: asn.List{asn.Boolean(true), asn.Boolean(false)}},
	})
}

func TestSequence_Defaults(t *testing.T) {
	typ := &asn.SequenceType{
		Fields: []asn.Field{
			{Name: "flag", Type: &asn.BooleanType{}},
			{Name: "mode", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 3)}, Default: asn.Integer(2)},
		},
	}
	// A value equal to its default is encoded as absent: one bit of flag,
	// one clear presence bit.
	data, err := Encode(typ, asn.Sequence{
		{Name: "flag", Value: asn.Boolean(true)},
		{Name: "mode", Value: asn.Integer(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x40}, data, "presence bit clear, flag bit set")
	// Decoding the absent field resurrects the default.
	decoded, _, err := Decode(typ, data)
	require.NoError(t, err)
	mode, ok := decoded.(asn.Sequence).Field("mode")
	require.True(t, ok)
	assert.Equal(t, asn.Integer(2), mode)
	// A non-default value travels explicitly.
	roundTrip(t, typ, asn.Sequence{
		{Name: "flag", Value: asn.Boolean(false)},
		{Name: "mode", Value: asn.Integer(3)},
	})
}

func TestSequence_Extensions(t *testing.T) {
	typ := &asn.SequenceType{
		Fields: []asn.Field{
			{Name: "id", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 255)}},
		},
		ExtFields: []asn.Field{
			{Name: "extra", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 65535)}},
			{Name: "note", Type: &asn.StringType{Variant: asn.Utf8String}},
		},
		Extensible: true,
	}
	// Without additions only the extension bit precedes the root.
	roundTrip(t, typ, asn.Sequence{{Name: "id", Value: asn.Integer(7)}})
	// With additions each travels as an open type.
	roundTrip(t, typ, asn.Sequence{
		{Name: "id", Value: asn.Integer(7)},
		{Name: "extra", Value: asn.Integer(1234)},
		{Name: "note", Value: asn.String("hi")},
	})
	// A zero-bit addition is carried as a single zero octet.
	zerobit := &asn.SequenceType{
		Fields:     typ.Fields,
		ExtFields:  []asn.Field{{Name: "fixed", Type: &asn.IntegerType{Constraint: asn.NewRange(5, 5)}}},
		Extensible: true,
	}
	roundTrip(t, zerobit, asn.Sequence{
		{Name: "id", Value: asn.Integer(1)},
		{Name: "fixed", Value: asn.Integer(5)},
	})
}

func TestSequence_SkipsUnknownAdditions(t *testing.T) {
	newer := &asn.SequenceType{
		Fields: []asn.Field{{Name: "id", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 255)}}},
		ExtFields: []asn.Field{
			{Name: "extra", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 65535)}},
			{Name: "note", Type: &asn.StringType{Variant: asn.Utf8String}},
		},
		Extensible: true,
	}
	//
	older := &asn.SequenceType{
		Fields:     newer.Fields,
		ExtFields:  newer.ExtFields[:1],
		Extensible: true,
	}
	//
	data, err := Encode(newer, asn.Sequence{
		{Name: "id", Value: asn.Integer(9)},
		{Name: "extra", Value: asn.Integer(512)},
		{Name: "note", Value: asn.String("future")},
	})
	require.NoError(t, err)
	// The older schema decodes what it knows and discards the rest.
	decoded, _, err := Decode(older, data)
	require.NoError(t, err)
	//
	assert.True(t, asn.Equal(decoded, asn.Sequence{
		{Name: "id", Value: asn.Integer(9)},
		{Name: "extra", Value: asn.Integer(512)},
	}), "decoded %v", decoded)
}

func TestSequenceOf_FixedSize(t *testing.T) {
	typ := &asn.SequenceOfType{Element: &asn.BooleanType{}, Size: asn.FixedSize(3)}
	// Exactly three bits, no length field.
	data := roundTrip(t, typ, asn.List{asn.Boolean(true), asn.Boolean(false), asn.Boolean(true)})
	assert.Equal(t, []byte{0xa0}, data)
	// Any other length is a caller/schema error.
	_, err := Encode(typ, asn.List{asn.Boolean(true)})
	assert.True(t, IsConstraintViolation(err), "unexpected error %v", err)
}

func TestSequenceOf_Unbounded(t *testing.T) {
	typ := &asn.SequenceOfType{Element: &asn.IntegerType{Constraint: asn.NewRange(0, 255)}}
	//
	roundTrip(t, typ, asn.List{})
	roundTrip(t, typ, asn.List{asn.Integer(1), asn.Integer(2), asn.Integer(3)})
	// Enough elements to force fragmentation.
	large := make(asn.List, 17000)
	for i := range large {
		large[i] = asn.Integer(int64(i % 256))
	}
	roundTrip(t, typ, large)
}

func TestChoice(t *testing.T) {
	typ := &asn.ChoiceType{
		Root: []asn.Alternative{
			{Name: "flag", Type: &asn.BooleanType{}},
			{Name: "count", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 255)}},
			{Name: "name", Type: &asn.StringType{Variant: asn.Utf8String}},
		},
	}
	// Two index bits, then the alternative's own encoding.
	assert.Equal(t, []byte{0x20}, roundTrip(t, typ, asn.Choice{Name: "flag", Value: asn.Boolean(true)}))
	roundTrip(t, typ, asn.Choice{Name: "count", Value: asn.Integer(200)})
	roundTrip(t, typ, asn.Choice{Name: "name", Value: asn.String("x")})
}

func TestChoice_Extensible(t *testing.T) {
	typ := &asn.ChoiceType{
		Root:       []asn.Alternative{{Name: "flag", Type: &asn.BooleanType{}}},
		Ext:        []asn.Alternative{{Name: "count", Type: &asn.IntegerType{Constraint: asn.NewRange(0, 255)}}},
		Extensible: true,
	}
	//
	roundTrip(t, typ, asn.Choice{Name: "flag", Value: asn.Boolean(false)})
	roundTrip(t, typ, asn.Choice{Name: "count", Value: asn.Integer(99)})
}

func TestTagged_Transparent(t *testing.T) {
	typ := &asn.TaggedType{
		Inner: &asn.IntegerType{Constraint: asn.NewRange(0, 7)},
		Tag:   asn.Tag{Class: asn.ClassContextSpecific, Number: 5},
	}
	// Tags leave no trace on the wire.
	assert.Equal(t, []byte{0xa0}, roundTrip(t, typ, asn.Integer(5)))
}
