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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstraint_BitWidth(t *testing.T) {
	tests := []struct {
		name  string
		min   int64
		max   int64
		width uint
	}{
		{"single", 5, 5, 0},
		{"bit", 0, 1, 1},
		{"octave", 0, 7, 3},
		{"nine", 0, 8, 4},
		{"byte", 0, 255, 8},
		{"shifted", -3, 4, 3},
		{"negative", -128, 127, 8},
		{"full", math.MinInt64, math.MaxInt64, 64},
	}
	//
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRange(tt.min, tt.max)
			assert.Equal(t, tt.width, c.BitWidth())
			assert.True(t, c.Contains(tt.min))
			assert.True(t, c.Contains(tt.max))
		})
	}
}

func TestConstraint_Contains(t *testing.T) {
	c := NewRange(-3, 4)
	//
	assert.False(t, c.Contains(-4))
	assert.True(t, c.Contains(0))
	assert.False(t, c.Contains(5))
	//
	assert.True(t, Unconstrained().Contains(math.MinInt64))
	assert.True(t, Unconstrained().Contains(math.MaxInt64))
}

func TestSize_Fixed(t *testing.T) {
	n, ok := FixedSize(3).Fixed()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), n)
	//
	_, ok = NewSize(1, 3).Fixed()
	assert.False(t, ok)
	// An extension marker forces a length determinant even for a pinned
	// root size.
	extensible := FixedSize(3)
	extensible.Extensible = true
	_, ok = extensible.Fixed()
	assert.False(t, ok)
}

func TestPlan_Integer(t *testing.T) {
	plan := PlanOf(&IntegerType{Constraint: NewRange(0, 7)})
	assert.Equal(t, uint(3), plan.RootWidth)
	assert.False(t, plan.ExtensionBit)
	//
	plan = PlanOf(&IntegerType{Constraint: Unconstrained()})
	assert.Equal(t, LengthGeneral, plan.Length)
	//
	extensible := NewRange(0, 7)
	extensible.Extensible = true
	plan = PlanOf(&IntegerType{Constraint: extensible})
	assert.True(t, plan.ExtensionBit)
}

func TestPlan_Sizes(t *testing.T) {
	plan := PlanOf(&OctetStringType{Size: FixedSize(4)})
	assert.Equal(t, LengthOmitted, plan.Length)
	//
	plan = PlanOf(&OctetStringType{Size: NewSize(1, 8)})
	assert.Equal(t, LengthConstrained, plan.Length)
	assert.Equal(t, uint(3), plan.RootWidth)
	//
	plan = PlanOf(&OctetStringType{})
	assert.Equal(t, LengthGeneral, plan.Length)
	// Bounded ranges reaching 64K fall back to the general determinant.
	plan = PlanOf(&OctetStringType{Size: NewSize(0, 65536)})
	assert.Equal(t, LengthGeneral, plan.Length)
}

func TestPlan_Sequence(t *testing.T) {
	sequence := &SequenceType{
		Fields: []Field{
			{Name: "id", Type: &IntegerType{Constraint: NewRange(0, 1)}},
			{Name: "a", Type: &BooleanType{}, Optional: true},
			{Name: "b", Type: &BooleanType{}, Optional: true},
			{Name: "mode", Type: &BooleanType{}, Default: Boolean(false)},
		},
	}
	//
	plan := PlanOf(sequence)
	assert.Equal(t, uint(3), plan.PresenceBits)
	assert.False(t, plan.Presence.Test(0), "mandatory fields contribute no presence bit")
	assert.True(t, plan.Presence.Test(1))
	assert.True(t, plan.Presence.Test(2))
	assert.True(t, plan.Presence.Test(3), "default-bearing fields contribute a presence bit")
}

func TestPlan_ChoiceAndEnum(t *testing.T) {
	choice := &ChoiceType{
		Root: []Alternative{
			{Name: "a", Type: &BooleanType{}},
			{Name: "b", Type: &BooleanType{}},
			{Name: "c", Type: &BooleanType{}},
		},
	}
	assert.Equal(t, uint(2), PlanOf(choice).RootWidth)
	//
	single := &ChoiceType{Root: choice.Root[:1]}
	assert.Equal(t, uint(0), PlanOf(single).RootWidth, "a single alternative needs no index")
	//
	enum := &EnumeratedType{Root: []Enumerant{{"red", 0}, {"green", 1}, {"blue", 2}}}
	assert.Equal(t, uint(2), PlanOf(enum).RootWidth)
}

func TestPlan_IgnoresTags(t *testing.T) {
	tagged := &TaggedType{
		Inner: &IntegerType{Constraint: NewRange(0, 7)},
		Tag:   Tag{Class: ClassContextSpecific, Number: 2},
	}
	//
	assert.Equal(t, uint(3), PlanOf(tagged).RootWidth)
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Equal(Integer(5), Integer(5)))
	assert.False(t, Equal(Integer(5), Integer(6)))
	assert.False(t, Equal(Integer(1), Boolean(true)))
	assert.True(t, Equal(OctetString{0x01}, OctetString{0x01}))
	assert.True(t, Equal(
		Sequence{{Name: "a", Value: Boolean(true)}},
		Sequence{{Name: "a", Value: Boolean(true)}},
	))
	assert.False(t, Equal(
		Sequence{{Name: "a", Value: Boolean(true)}, {Name: "b", Value: Boolean(false)}},
		Sequence{{Name: "b", Value: Boolean(false)}, {Name: "a", Value: Boolean(true)}},
	), "field order is structural")
	assert.True(t, Equal(List{Integer(1), Integer(2)}, List{Integer(1), Integer(2)}))
	assert.True(t, Equal(
		Choice{Name: "x", Value: Integer(1)},
		Choice{Name: "x", Value: Integer(1)},
	))
}

func TestType_String(t *testing.T) {
	sequence := &SequenceType{
		Fields: []Field{
			{Name: "id", Type: &IntegerType{Constraint: NewRange(0, 255)}},
			{Name: "tag", Type: &OctetStringType{Size: FixedSize(2)}, Optional: true},
		},
		Extensible: true,
	}
	//
	assert.Equal(t,
		"SEQUENCE {id INTEGER (0..255), tag OCTET STRING (SIZE(2)) OPTIONAL, ...}",
		sequence.String())
	//
	assert.Equal(t, "'0101'B", BitString{Bytes: []byte{0b01010000}, Length: 4}.String())
	assert.Equal(t, "'dead'H", OctetString{0xde, 0xad}.String())
}
