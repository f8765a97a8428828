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

// Package asn provides the in-memory representation of resolved ASN.1 types
// together with their encoding-relevant constraints (value ranges, size
// bounds, extensibility, tagging), the dynamically tagged runtime values
// mirroring those types, and the per-type encoding plans shared by the UPER
// codec and the artifact generators.
//
// A type tree is immutable once constructed and forms an acyclic recursive
// composition per top-level schema type.  It is built once (by a schema
// parser or loaded from a schema file) and thereafter shared read-only by
// any number of concurrent encode/decode calls and generators.
package asn

import (
	"fmt"
	"strings"
)

// Kind distinguishes the closed set of type-model variants.
type Kind uint8

// Predefined Kind constants, one per type-model variant.
const (
	KindBoolean Kind = iota
	KindInteger
	KindEnumerated
	KindBitString
	KindOctetString
	KindString
	KindSequence
	KindSequenceOf
	KindChoice
	KindTagged
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "BOOLEAN"
	case KindInteger:
		return "INTEGER"
	case KindEnumerated:
		return "ENUMERATED"
	case KindBitString:
		return "BIT STRING"
	case KindOctetString:
		return "OCTET STRING"
	case KindString:
		return "STRING"
	case KindSequence:
		return "SEQUENCE"
	case KindSequenceOf:
		return "SEQUENCE OF"
	case KindChoice:
		return "CHOICE"
	case KindTagged:
		return "TAGGED"
	}
	//
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Type is implemented by every node of the ASN.1 type model.  The set of
// implementations is closed, matching the schema-closed nature of ASN.1
// itself, and codec implementations dispatch over it exhaustively.
type Type interface {
	// Kind returns the variant this type node represents.
	Kind() Kind
	// String produces a rendition of this type in ASN.1-like notation.
	String() string
}

// Underlying strips any tagging from a type, yielding the node which actually
// determines the wire shape.  UPER ignores tags entirely.
func Underlying(t Type) Type {
	for {
		tagged, ok := t.(*TaggedType)
		if !ok {
			return t
		}
		//
		t = tagged.Inner
	}
}

// ============================================================================
// Boolean
// ============================================================================

// BooleanType represents the ASN.1 BOOLEAN type, encoded as a single bit.
type BooleanType struct{}

// Kind returns KindBoolean.
func (p *BooleanType) Kind() Kind { return KindBoolean }

func (p *BooleanType) String() string { return "BOOLEAN" }

// ============================================================================
// Integer
// ============================================================================

// IntegerType represents the ASN.1 INTEGER type carrying a (possibly
// unconstrained) value range.
type IntegerType struct {
	Constraint Constraint
}

// Kind returns KindInteger.
func (p *IntegerType) Kind() Kind { return KindInteger }

func (p *IntegerType) String() string {
	if p.Constraint.Min == nil && p.Constraint.Max == nil && !p.Constraint.Extensible {
		return "INTEGER"
	}
	//
	return fmt.Sprintf("INTEGER (%s)", p.Constraint.String())
}

// ============================================================================
// Enumerated
// ============================================================================

// Enumerant is a single named value of an ENUMERATED type.  Values are
// explicit in the model; a parser assigns implicit values before the model is
// constructed.
type Enumerant struct {
	Name  string
	Value int64
}

// EnumeratedType represents the ASN.1 ENUMERATED type.  Root enumerants and
// extension enumerants are kept separate since they index independently on
// the wire.  Order is declaration order and is significant.
type EnumeratedType struct {
	Root       []Enumerant
	Ext        []Enumerant
	Extensible bool
}

// Kind returns KindEnumerated.
func (p *EnumeratedType) Kind() Kind { return KindEnumerated }

// RootIndex returns the wire index of the named root enumerant, or false if
// no such enumerant exists.
func (p *EnumeratedType) RootIndex(name string) (uint64, bool) {
	for i, e := range p.Root {
		if e.Name == name {
			return uint64(i), true
		}
	}
	//
	return 0, false
}

// ExtIndex returns the wire index of the named extension enumerant, or false
// if no such enumerant exists.
func (p *EnumeratedType) ExtIndex(name string) (uint64, bool) {
	for i, e := range p.Ext {
		if e.Name == name {
			return uint64(i), true
		}
	}
	//
	return 0, false
}

func (p *EnumeratedType) String() string {
	var builder strings.Builder
	//
	builder.WriteString("ENUMERATED {")
	//
	for i, e := range p.Root {
		if i != 0 {
			builder.WriteString(", ")
		}
		//
		fmt.Fprintf(&builder, "%s(%d)", e.Name, e.Value)
	}
	//
	if p.Extensible {
		builder.WriteString(", ...")
		//
		for _, e := range p.Ext {
			fmt.Fprintf(&builder, ", %s(%d)", e.Name, e.Value)
		}
	}
	//
	builder.WriteString("}")
	//
	return builder.String()
}

// ============================================================================
// Strings
// ============================================================================

// BitStringType represents the ASN.1 BIT STRING type, whose size constraint
// counts bits.
type BitStringType struct {
	Size Size
}

// Kind returns KindBitString.
func (p *BitStringType) Kind() Kind { return KindBitString }

func (p *BitStringType) String() string {
	return sizedString("BIT STRING", p.Size)
}

// OctetStringType represents the ASN.1 OCTET STRING type, whose size
// constraint counts octets.
type OctetStringType struct {
	Size Size
}

// Kind returns KindOctetString.
func (p *OctetStringType) Kind() Kind { return KindOctetString }

func (p *OctetStringType) String() string {
	return sizedString("OCTET STRING", p.Size)
}

// StringVariant identifies which restricted character string type a
// StringType represents.  All variants share one wire shape in this codec
// (length determinant followed by the raw octets of the string), with the
// size constraint applied to the octet count.
type StringVariant uint8

// Predefined StringVariant constants.
const (
	Utf8String StringVariant = iota
	Ia5String
	VisibleString
	NumericString
	PrintableString
)

func (v StringVariant) String() string {
	switch v {
	case Utf8String:
		return "UTF8String"
	case Ia5String:
		return "IA5String"
	case VisibleString:
		return "VisibleString"
	case NumericString:
		return "NumericString"
	case PrintableString:
		return "PrintableString"
	}
	//
	return fmt.Sprintf("StringVariant(%d)", uint8(v))
}

// StringType represents the restricted character string types.
type StringType struct {
	Variant StringVariant
	Size    Size
}

// Kind returns KindString.
func (p *StringType) Kind() Kind { return KindString }

func (p *StringType) String() string {
	return sizedString(p.Variant.String(), p.Size)
}

func sizedString(name string, size Size) string {
	if size.Max == nil && size.Min == 0 && !size.Extensible {
		return name
	}
	//
	return fmt.Sprintf("%s (%s)", name, size.String())
}

// ============================================================================
// Sequence
// ============================================================================

// Field is a single component of a SEQUENCE.  A field carrying a default
// value is treated like an optional field for presence-bitmap purposes, with
// the default substituted on decode when the field is absent.
type Field struct {
	Name     string
	Type     Type
	Optional bool
	Default  Value
}

// HasPresenceBit reports whether this field contributes a bit to the
// presence bitmap of its enclosing sequence.
func (p *Field) HasPresenceBit() bool {
	return p.Optional || p.Default != nil
}

// SequenceType represents the ASN.1 SEQUENCE type.  Root fields and
// extension-addition fields are kept separate: additions are encoded after a
// length-prefixed open-type wrapper when the extension bit is set, and a
// decoder tolerates (and discards) additions it does not recognise.
type SequenceType struct {
	Fields     []Field
	ExtFields  []Field
	Extensible bool
}

// Kind returns KindSequence.
func (p *SequenceType) Kind() Kind { return KindSequence }

// Field returns the named root or extension field, or false if no such field
// exists.
func (p *SequenceType) Field(name string) (*Field, bool) {
	for i := range p.Fields {
		if p.Fields[i].Name == name {
			return &p.Fields[i], true
		}
	}
	//
	for i := range p.ExtFields {
		if p.ExtFields[i].Name == name {
			return &p.ExtFields[i], true
		}
	}
	//
	return nil, false
}

func (p *SequenceType) String() string {
	var builder strings.Builder
	//
	builder.WriteString("SEQUENCE {")
	//
	for i := range p.Fields {
		if i != 0 {
			builder.WriteString(", ")
		}
		//
		writeField(&builder, &p.Fields[i])
	}
	//
	if p.Extensible {
		builder.WriteString(", ...")
		//
		for i := range p.ExtFields {
			builder.WriteString(", ")
			writeField(&builder, &p.ExtFields[i])
		}
	}
	//
	builder.WriteString("}")
	//
	return builder.String()
}

func writeField(builder *strings.Builder, field *Field) {
	fmt.Fprintf(builder, "%s %s", field.Name, field.Type.String())
	//
	if field.Default != nil {
		fmt.Fprintf(builder, " DEFAULT %s", field.Default.String())
	} else if field.Optional {
		builder.WriteString(" OPTIONAL")
	}
}

// ============================================================================
// Sequence Of
// ============================================================================

// SequenceOfType represents the ASN.1 SEQUENCE OF type, whose size
// constraint counts elements.
type SequenceOfType struct {
	Element Type
	Size    Size
}

// Kind returns KindSequenceOf.
func (p *SequenceOfType) Kind() Kind { return KindSequenceOf }

func (p *SequenceOfType) String() string {
	prefix := "SEQUENCE"
	//
	if fixed, ok := p.Size.Fixed(); ok {
		prefix = fmt.Sprintf("SEQUENCE (SIZE(%d))", fixed)
	} else if p.Size.Max != nil || p.Size.Min != 0 {
		prefix = fmt.Sprintf("SEQUENCE (%s)", p.Size.String())
	}
	//
	return fmt.Sprintf("%s OF %s", prefix, p.Element.String())
}

// ============================================================================
// Choice
// ============================================================================

// Alternative is a single named alternative of a CHOICE.
type Alternative struct {
	Name string
	Type Type
}

// ChoiceType represents the ASN.1 CHOICE type.  Root alternatives and
// extension alternatives index independently from zero on the wire.
type ChoiceType struct {
	Root       []Alternative
	Ext        []Alternative
	Extensible bool
}

// Kind returns KindChoice.
func (p *ChoiceType) Kind() Kind { return KindChoice }

// RootIndex returns the wire index of the named root alternative, or false
// if no such alternative exists.
func (p *ChoiceType) RootIndex(name string) (uint64, bool) {
	for i, a := range p.Root {
		if a.Name == name {
			return uint64(i), true
		}
	}
	//
	return 0, false
}

// ExtIndex returns the wire index of the named extension alternative, or
// false if no such alternative exists.
func (p *ChoiceType) ExtIndex(name string) (uint64, bool) {
	for i, a := range p.Ext {
		if a.Name == name {
			return uint64(i), true
		}
	}
	//
	return 0, false
}

// Alternative returns the named alternative, searching root and extension
// lists alike, or false if no such alternative exists.
func (p *ChoiceType) Alternative(name string) (*Alternative, bool) {
	if i, ok := p.RootIndex(name); ok {
		return &p.Root[i], true
	} else if i, ok := p.ExtIndex(name); ok {
		return &p.Ext[i], true
	}
	//
	return nil, false
}

func (p *ChoiceType) String() string {
	var builder strings.Builder
	//
	builder.WriteString("CHOICE {")
	//
	for i, a := range p.Root {
		if i != 0 {
			builder.WriteString(", ")
		}
		//
		fmt.Fprintf(&builder, "%s %s", a.Name, a.Type.String())
	}
	//
	if p.Extensible {
		builder.WriteString(", ...")
		//
		for _, a := range p.Ext {
			fmt.Fprintf(&builder, ", %s %s", a.Name, a.Type.String())
		}
	}
	//
	builder.WriteString("}")
	//
	return builder.String()
}

// ============================================================================
// Tagged
// ============================================================================

// TaggedType wraps another type with an explicit or implicit tag.  Tags only
// matter to generators targeting tag-aware encodings; the UPER codec passes
// straight through to the inner type.
type TaggedType struct {
	Inner    Type
	Tag      Tag
	Explicit bool
}

// Kind returns KindTagged.
func (p *TaggedType) Kind() Kind { return KindTagged }

func (p *TaggedType) String() string {
	mode := "IMPLICIT"
	//
	if p.Explicit {
		mode = "EXPLICIT"
	}
	//
	return fmt.Sprintf("%s %s %s", p.Tag.String(), mode, p.Inner.String())
}
