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
package binfile

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/asn1tools/go-asnc/pkg/asn"
)

// The JSON mapping of values, guided by a schema type: booleans and integers
// map to their JSON counterparts, enumerated values to their enumerant name,
// strings to JSON strings, octet strings to lowercase hex strings, bit
// strings to strings of '0' and '1' digits, sequences to objects keyed by
// field name, sequence-of to arrays, and choices to single-key objects naming
// the chosen alternative.

// ValueFromJSON converts a JSON document into a value of the given type.
func ValueFromJSON(t asn.Type, data []byte) (asn.Value, error) {
	var raw any
	// Numbers must survive as json.Number, since float64 cannot hold the
	// full 64bit integer range.
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	//
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("malformed value: %w", err)
	}
	//
	return valueOfAny(t, raw)
}

// ValueToJSON converts a value of the given type into a JSON document, with
// sequence fields rendered in their declaration order.
func ValueToJSON(t asn.Type, v asn.Value) ([]byte, error) {
	var buffer bytes.Buffer
	//
	if err := writeJSON(&buffer, t, v); err != nil {
		return nil, err
	}
	//
	return buffer.Bytes(), nil
}

// ============================================================================
// JSON to value
// ============================================================================

//nolint:gocyclo
func valueOfAny(t asn.Type, raw any) (asn.Value, error) {
	switch t := asn.Underlying(t).(type) {
	case *asn.BooleanType:
		if b, ok := raw.(bool); ok {
			return asn.Boolean(b), nil
		}
	case *asn.IntegerType:
		if n, ok := intOfAny(raw); ok {
			return asn.Integer(n), nil
		}
	case *asn.EnumeratedType:
		if s, ok := raw.(string); ok {
			return asn.Enumerated(s), nil
		}
	case *asn.BitStringType:
		if s, ok := raw.(string); ok {
			return bitsOfString(s)
		}
	case *asn.OctetStringType:
		if s, ok := raw.(string); ok {
			octets, err := hex.DecodeString(s)
			//
			if err != nil {
				return nil, fmt.Errorf("malformed octet string %q: %w", s, err)
			}
			//
			return asn.OctetString(octets), nil
		}
	case *asn.StringType:
		if s, ok := raw.(string); ok {
			return asn.String(s), nil
		}
	case *asn.SequenceType:
		if m, ok := mapOfAny(raw); ok {
			return sequenceOfMap(t, m)
		}
	case *asn.SequenceOfType:
		if items, ok := raw.([]any); ok {
			return listOfItems(t, items)
		}
	case *asn.ChoiceType:
		if m, ok := mapOfAny(raw); ok {
			return choiceOfMap(t, m)
		}
	default:
		// Unreachable for a well-formed type tree.
		panic("unknown type node")
	}
	//
	return nil, fmt.Errorf("%v does not fit %s", raw, t.String())
}

// intOfAny extracts an integer from the forms the JSON and YAML decoders
// produce.
func intOfAny(raw any) (int64, bool) {
	switch n := raw.(type) {
	case json.Number:
		v, err := n.Int64()
		return v, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), n <= uint64(1)<<63-1
	case float64:
		return int64(n), float64(int64(n)) == n
	}
	//
	return 0, false
}

// mapOfAny normalises the two object forms the JSON and YAML decoders
// produce.
func mapOfAny(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		object := make(map[string]any, len(m))
		//
		for k, v := range m {
			key, ok := k.(string)
			//
			if !ok {
				return nil, false
			}
			//
			object[key] = v
		}
		//
		return object, true
	}
	//
	return nil, false
}

func bitsOfString(s string) (asn.Value, error) {
	octets := make([]byte, (len(s)+7)/8)
	//
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '1':
			octets[i/8] |= 0x80 >> (i % 8)
		case '0':
			// already clear
		default:
			return nil, fmt.Errorf("malformed bit string %q: expected '0' or '1'", s)
		}
	}
	//
	return asn.BitString{Bytes: octets, Length: uint(len(s))}, nil
}

func sequenceOfMap(t *asn.SequenceType, object map[string]any) (asn.Value, error) {
	value := asn.Sequence{}
	matched := 0
	// Walk the declared fields, so the resulting sequence is ordered
	// structurally however the object was written.
	for _, fields := range [][]asn.Field{t.Fields, t.ExtFields} {
		for i := range fields {
			field := &fields[i]
			raw, ok := object[field.Name]
			//
			if !ok {
				continue
			}
			//
			fv, err := valueOfAny(field.Type, raw)
			//
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", field.Name, err)
			}
			//
			value = append(value, asn.NamedValue{Name: field.Name, Value: fv})
			matched++
		}
	}
	//
	if matched != len(object) {
		for name := range object {
			if _, ok := t.Field(name); !ok {
				return nil, fmt.Errorf("unknown field %q", name)
			}
		}
	}
	//
	return value, nil
}

func listOfItems(t *asn.SequenceOfType, items []any) (asn.Value, error) {
	value := asn.List{}
	//
	for i, raw := range items {
		element, err := valueOfAny(t.Element, raw)
		//
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		//
		value = append(value, element)
	}
	//
	return value, nil
}

func choiceOfMap(t *asn.ChoiceType, object map[string]any) (asn.Value, error) {
	if len(object) != 1 {
		return nil, fmt.Errorf("choice object must hold exactly one alternative, got %d", len(object))
	}
	//
	for name, raw := range object {
		alternative, ok := t.Alternative(name)
		//
		if !ok {
			return nil, fmt.Errorf("unknown alternative %q", name)
		}
		//
		fv, err := valueOfAny(alternative.Type, raw)
		//
		if err != nil {
			return nil, fmt.Errorf("alternative %q: %w", name, err)
		}
		//
		return asn.Choice{Name: name, Value: fv}, nil
	}
	// Unreachable given the length check above.
	panic("empty choice object")
}

// ============================================================================
// Value to JSON
// ============================================================================

//nolint:gocyclo
func writeJSON(buffer *bytes.Buffer, t asn.Type, v asn.Value) error {
	switch t := asn.Underlying(t).(type) {
	case *asn.BooleanType:
		if b, ok := v.(asn.Boolean); ok {
			buffer.WriteString(strconv.FormatBool(bool(b)))
			return nil
		}
	case *asn.IntegerType:
		if n, ok := v.(asn.Integer); ok {
			buffer.WriteString(strconv.FormatInt(int64(n), 10))
			return nil
		}
	case *asn.EnumeratedType:
		if e, ok := v.(asn.Enumerated); ok {
			return writeQuoted(buffer, string(e))
		}
	case *asn.BitStringType:
		if bits, ok := v.(asn.BitString); ok {
			return writeQuoted(buffer, stringOfBits(bits))
		}
	case *asn.OctetStringType:
		if octets, ok := v.(asn.OctetString); ok {
			return writeQuoted(buffer, hex.EncodeToString(octets))
		}
	case *asn.StringType:
		if s, ok := v.(asn.String); ok {
			return writeQuoted(buffer, string(s))
		}
	case *asn.SequenceType:
		if sequence, ok := v.(asn.Sequence); ok {
			return writeSequenceJSON(buffer, t, sequence)
		}
	case *asn.SequenceOfType:
		if list, ok := v.(asn.List); ok {
			return writeListJSON(buffer, t, list)
		}
	case *asn.ChoiceType:
		if choice, ok := v.(asn.Choice); ok {
			return writeChoiceJSON(buffer, t, choice)
		}
	default:
		// Unreachable for a well-formed type tree.
		panic("unknown type node")
	}
	//
	return fmt.Errorf("%s does not fit %s", v.String(), t.String())
}

func writeQuoted(buffer *bytes.Buffer, s string) error {
	quoted, err := json.Marshal(s)
	//
	if err != nil {
		return err
	}
	//
	buffer.Write(quoted)
	//
	return nil
}

func stringOfBits(bits asn.BitString) string {
	var builder bytes.Buffer
	//
	for i := uint(0); i < bits.Length; i++ {
		if bits.Bytes[i/8]&(0x80>>(i%8)) != 0 {
			builder.WriteByte('1')
		} else {
			builder.WriteByte('0')
		}
	}
	//
	return builder.String()
}

func writeSequenceJSON(buffer *bytes.Buffer, t *asn.SequenceType, sequence asn.Sequence) error {
	buffer.WriteByte('{')
	//
	for i, f := range sequence {
		field, ok := t.Field(f.Name)
		//
		if !ok {
			return fmt.Errorf("unknown field %q", f.Name)
		}
		//
		if i > 0 {
			buffer.WriteByte(',')
		}
		//
		if err := writeQuoted(buffer, f.Name); err != nil {
			return err
		}
		//
		buffer.WriteByte(':')
		//
		if err := writeJSON(buffer, field.Type, f.Value); err != nil {
			return err
		}
	}
	//
	buffer.WriteByte('}')
	//
	return nil
}

func writeListJSON(buffer *bytes.Buffer, t *asn.SequenceOfType, list asn.List) error {
	buffer.WriteByte('[')
	//
	for i, element := range list {
		if i > 0 {
			buffer.WriteByte(',')
		}
		//
		if err := writeJSON(buffer, t.Element, element); err != nil {
			return err
		}
	}
	//
	buffer.WriteByte(']')
	//
	return nil
}

func writeChoiceJSON(buffer *bytes.Buffer, t *asn.ChoiceType, choice asn.Choice) error {
	alternative, ok := t.Alternative(choice.Name)
	//
	if !ok {
		return fmt.Errorf("unknown alternative %q", choice.Name)
	}
	//
	buffer.WriteByte('{')
	//
	if err := writeQuoted(buffer, choice.Name); err != nil {
		return err
	}
	//
	buffer.WriteByte(':')
	//
	if err := writeJSON(buffer, alternative.Type, choice.Value); err != nil {
		return err
	}
	//
	buffer.WriteByte('}')
	//
	return nil
}

// anyOfValue renders a value in its JSON mapping as plain Go data, for
// embedding inside schema documents (field defaults).
func anyOfValue(t asn.Type, v asn.Value) any {
	data, err := ValueToJSON(t, v)
	//
	if err != nil {
		return nil
	}
	//
	var raw any
	//
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	//
	return raw
}
