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

// Package binfile reads and writes schema files: JSON or YAML documents
// holding an ordered set of named type assignments, which load into the type
// model of pkg/asn.  Documents discriminate type nodes by a "kind" field, and
// may refer to sibling assignments by name ("ref" nodes); references are
// resolved at load time, so a loaded schema consists purely of concrete
// types.  The package also converts between JSON values and typed values,
// guided by a schema type.
package binfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"

	"github.com/asn1tools/go-asnc/pkg/asn"
)

// ============================================================================
// Documents
// ============================================================================

// schemaDoc is the top-level shape of a schema file.  Assignment order is
// significant and preserved.
type schemaDoc struct {
	Types []assignmentDoc `json:"types" yaml:"types"`
}

type assignmentDoc struct {
	Name string   `json:"name" yaml:"name"`
	Type *typeDoc `json:"type" yaml:"type"`
}

// typeDoc is the kind-discriminated document form of a single type node.
// Exactly the fields relevant to its kind are populated; the rest stay at
// their zero value (and are omitted when writing).
type typeDoc struct {
	Kind string `json:"kind" yaml:"kind"`
	// Ref holds the target assignment name of a "ref" node.
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`
	// Value range of an "integer" node.
	Min        *int64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *int64 `json:"max,omitempty" yaml:"max,omitempty"`
	Extensible bool   `json:"extensible,omitempty" yaml:"extensible,omitempty"`
	// Size range of a sized node (strings, octet/bit strings, sequence-of).
	Size *sizeDoc `json:"size,omitempty" yaml:"size,omitempty"`
	// Variant of a "string" node (e.g. "UTF8String").
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
	// Enumerants of an "enumerated" node.
	Enumerants    []enumerantDoc `json:"enumerants,omitempty" yaml:"enumerants,omitempty"`
	ExtEnumerants []enumerantDoc `json:"extEnumerants,omitempty" yaml:"extEnumerants,omitempty"`
	// Fields of a "sequence" node.
	Fields    []fieldDoc `json:"fields,omitempty" yaml:"fields,omitempty"`
	ExtFields []fieldDoc `json:"extFields,omitempty" yaml:"extFields,omitempty"`
	// Element of a "sequence-of" node.
	Element *typeDoc `json:"element,omitempty" yaml:"element,omitempty"`
	// Alternatives of a "choice" node.
	Alternatives    []alternativeDoc `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	ExtAlternatives []alternativeDoc `json:"extAlternatives,omitempty" yaml:"extAlternatives,omitempty"`
	// Tag of a "tagged" node.
	Class    string   `json:"class,omitempty" yaml:"class,omitempty"`
	Number   uint     `json:"number,omitempty" yaml:"number,omitempty"`
	Explicit bool     `json:"explicit,omitempty" yaml:"explicit,omitempty"`
	Inner    *typeDoc `json:"inner,omitempty" yaml:"inner,omitempty"`
}

type sizeDoc struct {
	Min        uint64  `json:"min" yaml:"min"`
	Max        *uint64 `json:"max,omitempty" yaml:"max,omitempty"`
	Extensible bool    `json:"extensible,omitempty" yaml:"extensible,omitempty"`
}

type enumerantDoc struct {
	Name  string `json:"name" yaml:"name"`
	Value int64  `json:"value" yaml:"value"`
}

type fieldDoc struct {
	Name     string   `json:"name" yaml:"name"`
	Type     *typeDoc `json:"type" yaml:"type"`
	Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
	// Default holds the field's default value in the JSON value mapping of
	// its type (see value.go), or nil when the field carries no default.
	Default any `json:"default,omitempty" yaml:"default,omitempty"`
}

type alternativeDoc struct {
	Name string   `json:"name" yaml:"name"`
	Type *typeDoc `json:"type" yaml:"type"`
}

// ============================================================================
// Loading
// ============================================================================

// ReadSchemaFile loads a schema from the given file, dispatching on its
// extension: ".json" reads JSON, ".yaml" or ".yml" reads YAML.
func ReadSchemaFile(filename string) (*asn.Schema, error) {
	data, err := os.ReadFile(filename)
	//
	if err != nil {
		return nil, err
	}
	//
	switch filepath.Ext(filename) {
	case ".json":
		return SchemaFromJSON(data)
	case ".yaml", ".yml":
		return SchemaFromYAML(data)
	}
	//
	return nil, fmt.Errorf("unknown schema file extension %q", filepath.Ext(filename))
}

// SchemaFromJSON loads a schema from its JSON document form.
func SchemaFromJSON(data []byte) (*asn.Schema, error) {
	var doc schemaDoc
	//
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed schema: %w", err)
	}
	//
	return schemaOf(&doc)
}

// SchemaFromYAML loads a schema from its YAML document form.
func SchemaFromYAML(data []byte) (*asn.Schema, error) {
	var doc schemaDoc
	//
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed schema: %w", err)
	}
	//
	return schemaOf(&doc)
}

// SchemaToJSON writes a schema as an indented JSON document.  References do
// not survive a load/store cycle, since loading resolves them to the concrete
// referenced types.
func SchemaToJSON(schema *asn.Schema) ([]byte, error) {
	doc := schemaDoc{Types: make([]assignmentDoc, len(schema.Assignments))}
	//
	for i, a := range schema.Assignments {
		doc.Types[i] = assignmentDoc{Name: a.Name, Type: docOfType(a.Type)}
	}
	//
	return json.MarshalIndent(&doc, "", "  ")
}

// ============================================================================
// Document to type model
// ============================================================================

// loader tracks reference resolution whilst converting a schema document into
// the type model.  Assignments may refer forwards; cyclic references are
// rejected, since the type model is strictly tree shaped.
type loader struct {
	docs map[string]*typeDoc
	done map[string]asn.Type
	busy map[string]bool
}

func schemaOf(doc *schemaDoc) (*asn.Schema, error) {
	p := &loader{
		docs: make(map[string]*typeDoc),
		done: make(map[string]asn.Type),
		busy: make(map[string]bool),
	}
	//
	for i := range doc.Types {
		a := &doc.Types[i]
		//
		if a.Name == "" || a.Type == nil {
			return nil, fmt.Errorf("assignment %d lacks a name or a type", i)
		} else if _, ok := p.docs[a.Name]; ok {
			return nil, fmt.Errorf("duplicate assignment %q", a.Name)
		}
		//
		p.docs[a.Name] = a.Type
	}
	//
	schema := &asn.Schema{}
	//
	for _, a := range doc.Types {
		t, err := p.resolve(a.Name)
		//
		if err != nil {
			return nil, err
		}
		//
		schema.Assignments = append(schema.Assignments, asn.Assignment{Name: a.Name, Type: t})
	}
	//
	return schema, nil
}

func (p *loader) resolve(name string) (asn.Type, error) {
	if t, ok := p.done[name]; ok {
		return t, nil
	} else if p.busy[name] {
		return nil, fmt.Errorf("cyclic reference through %q", name)
	}
	//
	doc, ok := p.docs[name]
	//
	if !ok {
		return nil, fmt.Errorf("reference to unknown type %q", name)
	}
	//
	p.busy[name] = true
	t, err := p.typeOf(doc)
	p.busy[name] = false
	//
	if err != nil {
		return nil, err
	}
	//
	p.done[name] = t
	//
	return t, nil
}

//nolint:gocyclo
func (p *loader) typeOf(doc *typeDoc) (asn.Type, error) {
	switch doc.Kind {
	case "ref":
		return p.resolve(doc.Ref)
	case "boolean":
		return &asn.BooleanType{}, nil
	case "integer":
		return &asn.IntegerType{Constraint: constraintOf(doc)}, nil
	case "enumerated":
		return p.enumeratedOf(doc)
	case "bit-string":
		return &asn.BitStringType{Size: sizeOf(doc.Size)}, nil
	case "octet-string":
		return &asn.OctetStringType{Size: sizeOf(doc.Size)}, nil
	case "string":
		return p.stringOf(doc)
	case "sequence":
		return p.sequenceOf(doc)
	case "sequence-of":
		return p.sequenceOfOf(doc)
	case "choice":
		return p.choiceOf(doc)
	case "tagged":
		return p.taggedOf(doc)
	}
	//
	return nil, fmt.Errorf("unknown type kind %q", doc.Kind)
}

func constraintOf(doc *typeDoc) asn.Constraint {
	return asn.Constraint{Min: doc.Min, Max: doc.Max, Extensible: doc.Extensible}
}

func sizeOf(doc *sizeDoc) asn.Size {
	if doc == nil {
		return asn.AnySize()
	}
	//
	return asn.Size{Min: doc.Min, Max: doc.Max, Extensible: doc.Extensible}
}

func (p *loader) enumeratedOf(doc *typeDoc) (asn.Type, error) {
	t := &asn.EnumeratedType{Extensible: doc.Extensible}
	//
	for _, e := range doc.Enumerants {
		t.Root = append(t.Root, asn.Enumerant{Name: e.Name, Value: e.Value})
	}
	//
	for _, e := range doc.ExtEnumerants {
		t.Ext = append(t.Ext, asn.Enumerant{Name: e.Name, Value: e.Value})
	}
	//
	if len(t.Ext) > 0 && !t.Extensible {
		return nil, fmt.Errorf("enumerated with extension enumerants lacks the extensible marker")
	} else if len(t.Root) == 0 {
		return nil, fmt.Errorf("enumerated without enumerants")
	}
	//
	return t, nil
}

func (p *loader) stringOf(doc *typeDoc) (asn.Type, error) {
	variant, err := variantOf(doc.Variant)
	//
	if err != nil {
		return nil, err
	}
	//
	return &asn.StringType{Variant: variant, Size: sizeOf(doc.Size)}, nil
}

func variantOf(name string) (asn.StringVariant, error) {
	variants := []asn.StringVariant{
		asn.Utf8String, asn.Ia5String, asn.VisibleString, asn.NumericString, asn.PrintableString,
	}
	// An absent variant defaults to UTF8String.
	if name == "" {
		return asn.Utf8String, nil
	}
	//
	for _, v := range variants {
		if v.String() == name {
			return v, nil
		}
	}
	//
	return 0, fmt.Errorf("unknown string variant %q", name)
}

func (p *loader) sequenceOf(doc *typeDoc) (asn.Type, error) {
	t := &asn.SequenceType{Extensible: doc.Extensible}
	//
	root, err := p.fieldsOf(doc.Fields)
	//
	if err != nil {
		return nil, err
	}
	//
	ext, err := p.fieldsOf(doc.ExtFields)
	//
	if err != nil {
		return nil, err
	} else if len(ext) > 0 && !t.Extensible {
		return nil, fmt.Errorf("sequence with extension fields lacks the extensible marker")
	}
	//
	t.Fields, t.ExtFields = root, ext
	//
	return t, nil
}

func (p *loader) fieldsOf(docs []fieldDoc) ([]asn.Field, error) {
	var fields []asn.Field
	//
	for _, f := range docs {
		if f.Type == nil {
			return nil, fmt.Errorf("field %q lacks a type", f.Name)
		}
		//
		t, err := p.typeOf(f.Type)
		//
		if err != nil {
			return nil, err
		}
		//
		field := asn.Field{Name: f.Name, Type: t, Optional: f.Optional}
		// Defaults are stated in the JSON value mapping of the field type.
		if f.Default != nil {
			if field.Default, err = valueOfAny(t, f.Default); err != nil {
				return nil, fmt.Errorf("default of field %q: %w", f.Name, err)
			}
		}
		//
		fields = append(fields, field)
	}
	//
	return fields, nil
}

func (p *loader) sequenceOfOf(doc *typeDoc) (asn.Type, error) {
	if doc.Element == nil {
		return nil, fmt.Errorf("sequence-of lacks an element type")
	}
	//
	element, err := p.typeOf(doc.Element)
	//
	if err != nil {
		return nil, err
	}
	//
	return &asn.SequenceOfType{Element: element, Size: sizeOf(doc.Size)}, nil
}

func (p *loader) choiceOf(doc *typeDoc) (asn.Type, error) {
	t := &asn.ChoiceType{Extensible: doc.Extensible}
	//
	root, err := p.alternativesOf(doc.Alternatives)
	//
	if err != nil {
		return nil, err
	}
	//
	ext, err := p.alternativesOf(doc.ExtAlternatives)
	//
	if err != nil {
		return nil, err
	} else if len(ext) > 0 && !t.Extensible {
		return nil, fmt.Errorf("choice with extension alternatives lacks the extensible marker")
	} else if len(root) == 0 {
		return nil, fmt.Errorf("choice without alternatives")
	}
	//
	t.Root, t.Ext = root, ext
	//
	return t, nil
}

func (p *loader) alternativesOf(docs []alternativeDoc) ([]asn.Alternative, error) {
	var alternatives []asn.Alternative
	//
	for _, a := range docs {
		if a.Type == nil {
			return nil, fmt.Errorf("alternative %q lacks a type", a.Name)
		}
		//
		t, err := p.typeOf(a.Type)
		//
		if err != nil {
			return nil, err
		}
		//
		alternatives = append(alternatives, asn.Alternative{Name: a.Name, Type: t})
	}
	//
	return alternatives, nil
}

func (p *loader) taggedOf(doc *typeDoc) (asn.Type, error) {
	if doc.Inner == nil {
		return nil, fmt.Errorf("tagged type lacks an inner type")
	}
	//
	inner, err := p.typeOf(doc.Inner)
	//
	if err != nil {
		return nil, err
	}
	//
	class, err := classOf(doc.Class)
	//
	if err != nil {
		return nil, err
	}
	//
	return &asn.TaggedType{
		Inner:    inner,
		Tag:      asn.Tag{Class: class, Number: doc.Number},
		Explicit: doc.Explicit,
	}, nil
}

func classOf(name string) (asn.Class, error) {
	switch name {
	// An absent class defaults to context specific, as in the notation.
	case "", "CONTEXT":
		return asn.ClassContextSpecific, nil
	case "UNIVERSAL":
		return asn.ClassUniversal, nil
	case "APPLICATION":
		return asn.ClassApplication, nil
	case "PRIVATE":
		return asn.ClassPrivate, nil
	}
	//
	return 0, fmt.Errorf("unknown tag class %q", name)
}

// ============================================================================
// Type model to document
// ============================================================================

//nolint:gocyclo
func docOfType(t asn.Type) *typeDoc {
	switch t := t.(type) {
	case *asn.BooleanType:
		return &typeDoc{Kind: "boolean"}
	case *asn.IntegerType:
		return &typeDoc{
			Kind: "integer",
			Min:  t.Constraint.Min, Max: t.Constraint.Max,
			Extensible: t.Constraint.Extensible,
		}
	case *asn.EnumeratedType:
		return &typeDoc{
			Kind:          "enumerated",
			Enumerants:    docOfEnumerants(t.Root),
			ExtEnumerants: docOfEnumerants(t.Ext),
			Extensible:    t.Extensible,
		}
	case *asn.BitStringType:
		return &typeDoc{Kind: "bit-string", Size: docOfSize(t.Size)}
	case *asn.OctetStringType:
		return &typeDoc{Kind: "octet-string", Size: docOfSize(t.Size)}
	case *asn.StringType:
		return &typeDoc{Kind: "string", Variant: t.Variant.String(), Size: docOfSize(t.Size)}
	case *asn.SequenceType:
		return &typeDoc{
			Kind:       "sequence",
			Fields:     docOfFields(t.Fields),
			ExtFields:  docOfFields(t.ExtFields),
			Extensible: t.Extensible,
		}
	case *asn.SequenceOfType:
		return &typeDoc{Kind: "sequence-of", Element: docOfType(t.Element), Size: docOfSize(t.Size)}
	case *asn.ChoiceType:
		return &typeDoc{
			Kind:            "choice",
			Alternatives:    docOfAlternatives(t.Root),
			ExtAlternatives: docOfAlternatives(t.Ext),
			Extensible:      t.Extensible,
		}
	case *asn.TaggedType:
		return &typeDoc{
			Kind:     "tagged",
			Class:    t.Tag.Class.String(),
			Number:   t.Tag.Number,
			Explicit: t.Explicit,
			Inner:    docOfType(t.Inner),
		}
	}
	// Unreachable for a well-formed type tree.
	panic("unknown type node")
}

func docOfSize(size asn.Size) *sizeDoc {
	if size.Min == 0 && size.Max == nil && !size.Extensible {
		return nil
	}
	//
	return &sizeDoc{Min: size.Min, Max: size.Max, Extensible: size.Extensible}
}

func docOfEnumerants(enumerants []asn.Enumerant) []enumerantDoc {
	var docs []enumerantDoc
	//
	for _, e := range enumerants {
		docs = append(docs, enumerantDoc{Name: e.Name, Value: e.Value})
	}
	//
	return docs
}

func docOfFields(fields []asn.Field) []fieldDoc {
	var docs []fieldDoc
	//
	for _, f := range fields {
		doc := fieldDoc{Name: f.Name, Type: docOfType(f.Type), Optional: f.Optional}
		//
		if f.Default != nil {
			doc.Default = anyOfValue(f.Type, f.Default)
		}
		//
		docs = append(docs, doc)
	}
	//
	return docs
}

func docOfAlternatives(alternatives []asn.Alternative) []alternativeDoc {
	var docs []alternativeDoc
	//
	for _, a := range alternatives {
		docs = append(docs, alternativeDoc{Name: a.Name, Type: docOfType(a.Type)})
	}
	//
	return docs
}
