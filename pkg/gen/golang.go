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
package gen

import (
	"fmt"
	"strings"

	"github.com/asn1tools/go-asnc/pkg/asn"
)

var goIntTypes = map[intClass]string{
	classU8: "uint8", classU16: "uint16", classU32: "uint32", classU64: "uint64",
	classI8: "int8", classI16: "int16", classI32: "int32", classI64: "int64",
}

// Go renders a schema as a file of Go declarations in the given package: a
// named type per assignment, with sequences as structs, choices as structs of
// pointers of which exactly one is set, and enumerations as integer constant
// sets.  Optional fields become pointers (slices stay slices, nil meaning
// absent).
func Go(pkg string, schema *asn.Schema) string {
	p := &goGenerator{names: namesOf(schema)}
	//
	fmt.Fprintf(&p.builder, "// Code generated by asnc. DO NOT EDIT.\npackage %s\n", pkg)
	//
	if usesBitStrings(schema) {
		p.builder.WriteString("\n// BitString holds an ordered sequence of bits, packed most significant\n")
		p.builder.WriteString("// bit first; Length counts the significant bits of Bytes.\n")
		p.builder.WriteString("type BitString struct {\n\tBytes []byte\n\tLength uint\n}\n")
	}
	//
	for _, a := range schema.Assignments {
		p.declaration(a.Name, a.Type)
	}
	//
	return p.builder.String()
}

type goGenerator struct {
	builder strings.Builder
	names   names
}

func (p *goGenerator) declaration(name string, t asn.Type) {
	p.builder.WriteString("\n")
	//
	if e, ok := asn.Underlying(t).(*asn.EnumeratedType); ok {
		p.enumDeclaration(name, e)
		return
	}
	//
	fmt.Fprintf(&p.builder, "type %s %s\n", exportedName(name), p.typeOf(t, name, 0))
}

func (p *goGenerator) enumDeclaration(name string, t *asn.EnumeratedType) {
	goName := exportedName(name)
	//
	fmt.Fprintf(&p.builder, "type %s int\n\nconst (\n", goName)
	//
	for _, e := range t.Root {
		fmt.Fprintf(&p.builder, "\t%s%s %s = %d\n", goName, exportedName(e.Name), goName, e.Value)
	}
	//
	for _, e := range t.Ext {
		fmt.Fprintf(&p.builder, "\t%s%s %s = %d\n", goName, exportedName(e.Name), goName, e.Value)
	}
	//
	p.builder.WriteString(")\n")
}

// typeOf renders the Go type of a node at the given indentation depth,
// emitting a name reference whenever the node is a top-level assignment.
func (p *goGenerator) typeOf(t asn.Type, current string, depth uint) string {
	if name, ok := p.names.lookup(t, current); ok {
		return exportedName(name)
	}
	//
	switch t := asn.Underlying(t).(type) {
	case *asn.BooleanType:
		return "bool"
	case *asn.IntegerType:
		return goIntTypes[intClassOf(t.Constraint)]
	case *asn.EnumeratedType:
		// An anonymous enumeration carries its enumerant name.
		return "string"
	case *asn.BitStringType:
		return "BitString"
	case *asn.OctetStringType:
		return "[]byte"
	case *asn.StringType:
		return "string"
	case *asn.SequenceType:
		return p.structOf(t, current, depth)
	case *asn.SequenceOfType:
		return "[]" + p.typeOf(t.Element, current, depth)
	case *asn.ChoiceType:
		return p.unionOf(t, current, depth)
	}
	// Unreachable for a well-formed type tree.
	panic("unknown type node")
}

func (p *goGenerator) structOf(t *asn.SequenceType, current string, depth uint) string {
	var (
		builder strings.Builder
		indent  = strings.Repeat("\t", int(depth))
	)
	//
	builder.WriteString("struct {\n")
	//
	for _, fields := range [][]asn.Field{t.Fields, t.ExtFields} {
		for i := range fields {
			field := &fields[i]
			goType := p.typeOf(field.Type, current, depth+1)
			// Optional scalars become pointers; nilable types stay as is.
			if optional(field) && !strings.HasPrefix(goType, "[]") {
				goType = "*" + goType
			}
			//
			fmt.Fprintf(&builder, "%s\t%s %s", indent, exportedName(field.Name), goType)
			//
			if field.Default != nil {
				fmt.Fprintf(&builder, " // default %s", field.Default.String())
			}
			//
			builder.WriteString("\n")
		}
	}
	//
	builder.WriteString(indent + "}")
	//
	return builder.String()
}

func (p *goGenerator) unionOf(t *asn.ChoiceType, current string, depth uint) string {
	var (
		builder strings.Builder
		indent  = strings.Repeat("\t", int(depth))
	)
	// Exactly one alternative is non-nil at any time.
	builder.WriteString("struct {\n")
	//
	for _, alternatives := range [][]asn.Alternative{t.Root, t.Ext} {
		for i := range alternatives {
			a := &alternatives[i]
			goType := p.typeOf(a.Type, current, depth+1)
			//
			if !strings.HasPrefix(goType, "[]") {
				goType = "*" + goType
			}
			//
			fmt.Fprintf(&builder, "%s\t%s %s\n", indent, exportedName(a.Name), goType)
		}
	}
	//
	builder.WriteString(indent + "}")
	//
	return builder.String()
}

func optional(field *asn.Field) bool {
	return field.Optional || field.Default != nil
}

func usesBitStrings(schema *asn.Schema) bool {
	for _, a := range schema.Assignments {
		if typeUses(a.Type, asn.KindBitString, nil) {
			return true
		}
	}
	//
	return false
}

// typeUses reports whether the given kind occurs anywhere in a type tree.
// The seen set guards against revisiting shared assignment nodes.
func typeUses(t asn.Type, kind asn.Kind, seen map[asn.Type]bool) bool {
	if seen == nil {
		seen = make(map[asn.Type]bool)
	} else if seen[t] {
		return false
	}
	//
	seen[t] = true
	//
	switch t := asn.Underlying(t).(type) {
	case *asn.SequenceType:
		for _, fields := range [][]asn.Field{t.Fields, t.ExtFields} {
			for i := range fields {
				if typeUses(fields[i].Type, kind, seen) {
					return true
				}
			}
		}
	case *asn.SequenceOfType:
		return typeUses(t.Element, kind, seen)
	case *asn.ChoiceType:
		for _, alternatives := range [][]asn.Alternative{t.Root, t.Ext} {
			for i := range alternatives {
				if typeUses(alternatives[i].Type, kind, seen) {
					return true
				}
			}
		}
	}
	//
	return asn.Underlying(t).Kind() == kind
}
