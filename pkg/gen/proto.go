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

var protoIntTypes = map[intClass]string{
	classU8: "uint32", classU16: "uint32", classU32: "uint32", classU64: "uint64",
	classI8: "int32", classI16: "int32", classI32: "int32", classI64: "int64",
}

// Proto renders a schema as a proto3 file in the given protobuf package:
// sequences become messages, choices messages holding a oneof, enumerations
// proto enums, and a top-level sequence-of a message with a single repeated
// field.  Anonymous composite field types become nested message declarations
// named after their field; scalar assignments are inlined at their use sites,
// since protobuf has no type aliases.
func Proto(pkg string, schema *asn.Schema) string {
	p := &protoGenerator{names: namesOf(schema)}
	//
	fmt.Fprintf(&p.builder, "// Code generated by asnc. DO NOT EDIT.\nsyntax = \"proto3\";\n\npackage %s;\n", pkg)
	//
	for _, a := range schema.Assignments {
		p.declaration(a.Name, a.Type)
	}
	//
	return p.builder.String()
}

type protoGenerator struct {
	builder strings.Builder
	names   names
}

func (p *protoGenerator) declaration(name string, t asn.Type) {
	switch t := asn.Underlying(t).(type) {
	case *asn.EnumeratedType:
		p.enumDeclaration(name, t, "")
	case *asn.SequenceType, *asn.ChoiceType, *asn.SequenceOfType:
		p.builder.WriteString("\n")
		p.builder.WriteString(p.messageOf(exportedName(name), name, t, ""))
	default:
		// Scalar assignments have no standalone protobuf form.
	}
}

// messageOf renders one message declaration at the given indentation,
// covering the three composite shapes.
func (p *protoGenerator) messageOf(protoName string, current string, t asn.Type, indent string) string {
	var body strings.Builder
	//
	fmt.Fprintf(&body, "%smessage %s {\n", indent, protoName)
	//
	switch t := asn.Underlying(t).(type) {
	case *asn.SequenceType:
		p.fields(&body, current, t, indent)
	case *asn.ChoiceType:
		p.oneof(&body, current, t, indent)
	case *asn.SequenceOfType:
		fieldType, nested := p.typeOf("Item", current, t.Element, indent+"  ")
		body.WriteString(nested)
		fmt.Fprintf(&body, "%s  repeated %s items = 1;\n", indent, fieldType)
	}
	//
	fmt.Fprintf(&body, "%s}\n", indent)
	//
	return body.String()
}

func (p *protoGenerator) fields(body *strings.Builder, current string, t *asn.SequenceType, indent string) {
	number := 1
	//
	for _, fields := range [][]asn.Field{t.Fields, t.ExtFields} {
		for i := range fields {
			field := &fields[i]
			//
			var label string
			fieldType := ""
			// An anonymous sequence-of field flattens onto a repeated field.
			if list, ok := asn.Underlying(field.Type).(*asn.SequenceOfType); ok {
				if _, named := p.names.lookup(field.Type, current); !named {
					var nested string
					label = "repeated "
					fieldType, nested = p.typeOf(exportedName(field.Name), current, list.Element, indent+"  ")
					body.WriteString(nested)
				}
			}
			//
			if fieldType == "" {
				var nested string
				fieldType, nested = p.typeOf(exportedName(field.Name), current, field.Type, indent+"  ")
				body.WriteString(nested)
				//
				if optional(field) {
					label = "optional "
				}
			}
			//
			fmt.Fprintf(body, "%s  %s%s %s = %d;\n", indent, label, fieldType, snakeName(field.Name), number)
			number++
		}
	}
}

func (p *protoGenerator) oneof(body *strings.Builder, current string, t *asn.ChoiceType, indent string) {
	var entries strings.Builder
	//
	number := 1
	//
	for _, alternatives := range [][]asn.Alternative{t.Root, t.Ext} {
		for i := range alternatives {
			a := &alternatives[i]
			fieldType, nested := p.typeOf(exportedName(a.Name), current, a.Type, indent+"  ")
			body.WriteString(nested)
			//
			fmt.Fprintf(&entries, "%s    %s %s = %d;\n", indent, fieldType, snakeName(a.Name), number)
			number++
		}
	}
	//
	fmt.Fprintf(body, "%s  oneof value {\n%s%s  }\n", indent, entries.String(), indent)
}

// typeOf resolves the protobuf type of one node, returning the type name
// together with any nested declaration it requires (empty for scalars and
// name references).  Anonymous composites declare a nested message named by
// the given hint.
func (p *protoGenerator) typeOf(hint string, current string, t asn.Type, indent string) (string, string) {
	if name, ok := p.names.lookup(t, current); ok {
		switch asn.Underlying(t).(type) {
		case *asn.SequenceType, *asn.ChoiceType, *asn.SequenceOfType, *asn.EnumeratedType:
			return exportedName(name), ""
		}
	}
	//
	switch t := asn.Underlying(t).(type) {
	case *asn.BooleanType:
		return "bool", ""
	case *asn.IntegerType:
		return protoIntTypes[intClassOf(t.Constraint)], ""
	case *asn.EnumeratedType:
		var nested strings.Builder
		p.enumOf(&nested, hint, t, indent)
		//
		return hint, nested.String()
	case *asn.BitStringType, *asn.OctetStringType:
		return "bytes", ""
	case *asn.StringType:
		return "string", ""
	case *asn.SequenceType, *asn.ChoiceType, *asn.SequenceOfType:
		return hint, p.messageOf(hint, current, t, indent)
	}
	// Unreachable for a well-formed type tree.
	panic("unknown type node")
}

func (p *protoGenerator) enumDeclaration(name string, t *asn.EnumeratedType, indent string) {
	p.builder.WriteString("\n")
	p.enumOf(&p.builder, exportedName(name), t, indent)
}

// Proto enum values must start from zero and carry a unique prefix, so
// enumerant names are uppercased behind the enum name.
func (p *protoGenerator) enumOf(body *strings.Builder, protoName string, t *asn.EnumeratedType, indent string) {
	prefix := strings.ToUpper(snakeName(protoName))
	//
	fmt.Fprintf(body, "%senum %s {\n", indent, protoName)
	//
	ordinal := 0
	//
	for _, enumerants := range [][]asn.Enumerant{t.Root, t.Ext} {
		for _, e := range enumerants {
			fmt.Fprintf(body, "%s  %s_%s = %d;\n", indent, prefix, strings.ToUpper(snakeName(e.Name)), ordinal)
			ordinal++
		}
	}
	//
	fmt.Fprintf(body, "%s}\n", indent)
}
