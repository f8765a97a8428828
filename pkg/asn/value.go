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
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Value is a dynamically tagged runtime value mirroring the type-model
// variants.  Values are produced by decoding and consumed by encoding, and
// have no lifecycle beyond the call that created them.  The set of
// implementations is closed.
type Value interface {
	// String produces a rendition of this value in ASN.1-like value notation.
	String() string
	// isValue restricts implementations to this package.
	isValue()
}

// Boolean is the runtime value of a BOOLEAN type.
type Boolean bool

// Integer is the runtime value of an INTEGER type.
type Integer int64

// Enumerated is the runtime value of an ENUMERATED type, identified by the
// name of the chosen enumerant.
type Enumerated string

// BitString is the runtime value of a BIT STRING type: a sequence of Length
// bits packed most significant bit first, with unused trailing bits zero.
type BitString struct {
	Bytes  []byte
	Length uint
}

// OctetString is the runtime value of an OCTET STRING type.
type OctetString []byte

// String is the runtime value of any restricted character string type.
type String string

// NamedValue pairs a field name with its value inside a Sequence.
type NamedValue struct {
	Name  string
	Value Value
}

// Sequence is the runtime value of a SEQUENCE type: an ordered mapping from
// field name to value.  Order matters for determinism, hence this is a slice
// rather than a map.
type Sequence []NamedValue

// List is the runtime value of a SEQUENCE OF type.
type List []Value

// Choice is the runtime value of a CHOICE type: the name of the selected
// alternative together with its inner value.
type Choice struct {
	Name  string
	Value Value
}

func (Boolean) isValue()     {}
func (Integer) isValue()     {}
func (Enumerated) isValue()  {}
func (BitString) isValue()   {}
func (OctetString) isValue() {}
func (String) isValue()      {}
func (Sequence) isValue()    {}
func (List) isValue()        {}
func (Choice) isValue()      {}

func (v Boolean) String() string {
	if v {
		return "TRUE"
	}
	//
	return "FALSE"
}

func (v Integer) String() string {
	return fmt.Sprintf("%d", int64(v))
}

func (v Enumerated) String() string {
	return string(v)
}

func (v BitString) String() string {
	var builder strings.Builder
	//
	builder.WriteString("'")
	//
	for i := uint(0); i < v.Length; i++ {
		if v.Bytes[i/8]&(0x80>>(i%8)) != 0 {
			builder.WriteString("1")
		} else {
			builder.WriteString("0")
		}
	}
	//
	builder.WriteString("'B")
	//
	return builder.String()
}

func (v OctetString) String() string {
	return "'" + hex.EncodeToString(v) + "'H"
}

func (v String) String() string {
	return fmt.Sprintf("%q", string(v))
}

func (v Sequence) String() string {
	var builder strings.Builder
	//
	builder.WriteString("{")
	//
	for i, f := range v {
		if i != 0 {
			builder.WriteString(", ")
		}
		//
		fmt.Fprintf(&builder, "%s %s", f.Name, f.Value.String())
	}
	//
	builder.WriteString("}")
	//
	return builder.String()
}

func (v List) String() string {
	var builder strings.Builder
	//
	builder.WriteString("{")
	//
	for i, e := range v {
		if i != 0 {
			builder.WriteString(", ")
		}
		//
		builder.WriteString(e.String())
	}
	//
	builder.WriteString("}")
	//
	return builder.String()
}

func (v Choice) String() string {
	return fmt.Sprintf("%s : %s", v.Name, v.Value.String())
}

// Field returns the value of the named field within a sequence value, or
// false if the field is absent.
func (v Sequence) Field(name string) (Value, bool) {
	for _, f := range v {
		if f.Name == name {
			return f.Value, true
		}
	}
	//
	return nil, false
}

// Equal reports whether two values are structurally identical.  Sequences
// compare field-for-field in order, hence two sequences differing only in
// field order are unequal (ordering is structural in this model).
func Equal(lhs Value, rhs Value) bool {
	switch l := lhs.(type) {
	case Boolean:
		r, ok := rhs.(Boolean)
		return ok && l == r
	case Integer:
		r, ok := rhs.(Integer)
		return ok && l == r
	case Enumerated:
		r, ok := rhs.(Enumerated)
		return ok && l == r
	case BitString:
		r, ok := rhs.(BitString)
		return ok && l.Length == r.Length && bytes.Equal(l.Bytes, r.Bytes)
	case OctetString:
		r, ok := rhs.(OctetString)
		return ok && bytes.Equal(l, r)
	case String:
		r, ok := rhs.(String)
		return ok && l == r
	case Sequence:
		r, ok := rhs.(Sequence)
		//
		if !ok || len(l) != len(r) {
			return false
		}
		//
		for i := range l {
			if l[i].Name != r[i].Name || !Equal(l[i].Value, r[i].Value) {
				return false
			}
		}
		//
		return true
	case List:
		r, ok := rhs.(List)
		//
		if !ok || len(l) != len(r) {
			return false
		}
		//
		for i := range l {
			if !Equal(l[i], r[i]) {
				return false
			}
		}
		//
		return true
	case Choice:
		r, ok := rhs.(Choice)
		return ok && l.Name == r.Name && Equal(l.Value, r.Value)
	}
	//
	return false
}
