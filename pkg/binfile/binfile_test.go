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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asn1tools/go-asnc/pkg/asn"
)

// A schema exercising one node of every kind, used across the tests below.
const jsonSchema = `{
  "types": [
    {
      "name": "Port",
      "type": {"kind": "integer", "min": 0, "max": 65535}
    },
    {
      "name": "Status",
      "type": {
        "kind": "enumerated",
        "enumerants": [{"name": "up", "value": 0}, {"name": "down", "value": 1}],
        "extEnumerants": [{"name": "degraded", "value": 2}],
        "extensible": true
      }
    },
    {
      "name": "Endpoint",
      "type": {
        "kind": "sequence",
        "fields": [
          {"name": "host", "type": {"kind": "string", "variant": "IA5String", "size": {"min": 1, "max": 255}}},
          {"name": "port", "type": {"kind": "ref", "ref": "Port"}},
          {"name": "secure", "type": {"kind": "boolean"}, "default": false},
          {"name": "cookie", "type": {"kind": "octet-string"}, "optional": true}
        ]
      }
    },
    {
      "name": "Endpoints",
      "type": {
        "kind": "sequence-of",
        "element": {"kind": "ref", "ref": "Endpoint"},
        "size": {"min": 1, "max": 16}
      }
    },
    {
      "name": "Target",
      "type": {
        "kind": "choice",
        "alternatives": [
          {"name": "single", "type": {"kind": "ref", "ref": "Endpoint"}},
          {"name": "pool", "type": {"kind": "ref", "ref": "Endpoints"}}
        ]
      }
    },
    {
      "name": "Mask",
      "type": {"kind": "tagged", "number": 3, "inner": {"kind": "bit-string", "size": {"min": 8, "max": 8}}}
    }
  ]
}`

func TestSchemaFromJSON(t *testing.T) {
	schema, err := SchemaFromJSON([]byte(jsonSchema))
	require.NoError(t, err)
	//
	assert.Equal(t, []string{"Port", "Status", "Endpoint", "Endpoints", "Target", "Mask"}, schema.Names())
	// References resolve to the concrete type.
	endpoint, err := schema.Lookup("Endpoint")
	require.NoError(t, err)
	//
	sequence, ok := endpoint.(*asn.SequenceType)
	require.True(t, ok, "expected a sequence, got %s", endpoint.String())
	//
	port := sequence.Fields[1].Type
	assert.Equal(t, "INTEGER (0..65535)", port.String())
	// Defaults are materialised as typed values.
	assert.Equal(t, asn.Boolean(false), sequence.Fields[2].Default)
	assert.True(t, sequence.Fields[3].Optional)
	// Tags survive loading.
	mask, err := schema.Lookup("Mask")
	require.NoError(t, err)
	//
	tagged, ok := mask.(*asn.TaggedType)
	require.True(t, ok, "expected a tagged type, got %s", mask.String())
	assert.Equal(t, asn.Tag{Class: asn.ClassContextSpecific, Number: 3}, tagged.Tag)
}

func TestSchemaFromYAML(t *testing.T) {
	yamlSchema := `
types:
  - name: Flags
    type:
      kind: sequence
      fields:
        - name: mode
          type: {kind: integer, min: 0, max: 7}
          default: 3
        - name: label
          type: {kind: string}
          optional: true
  - name: FlagList
    type:
      kind: sequence-of
      element: {kind: ref, ref: Flags}
`
	schema, err := SchemaFromYAML([]byte(yamlSchema))
	require.NoError(t, err)
	//
	flags, err := schema.Lookup("Flags")
	require.NoError(t, err)
	//
	sequence, ok := flags.(*asn.SequenceType)
	require.True(t, ok, "expected a sequence, got %s", flags.String())
	assert.Equal(t, asn.Integer(3), sequence.Fields[0].Default)
}

func TestSchema_RoundTrip(t *testing.T) {
	schema, err := SchemaFromJSON([]byte(jsonSchema))
	require.NoError(t, err)
	//
	data, err := SchemaToJSON(schema)
	require.NoError(t, err)
	//
	reloaded, err := SchemaFromJSON(data)
	require.NoError(t, err)
	//
	require.Equal(t, len(schema.Assignments), len(reloaded.Assignments))
	// Types print identically after a store/load cycle.
	for i, a := range schema.Assignments {
		assert.Equal(t, a.Type.String(), reloaded.Assignments[i].Type.String(), "assignment %q", a.Name)
	}
}

func TestReadSchemaFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(filename, []byte(jsonSchema), 0600))
	//
	schema, err := ReadSchemaFile(filename)
	require.NoError(t, err)
	assert.Len(t, schema.Assignments, 6)
	//
	_, err = ReadSchemaFile(filepath.Join(dir, "schema.txt"))
	assert.Error(t, err)
}

func TestSchema_Errors(t *testing.T) {
	tests := []struct {
		name   string
		schema string
	}{
		{"unknown kind", `{"types": [{"name": "T", "type": {"kind": "real"}}]}`},
		{"dangling ref", `{"types": [{"name": "T", "type": {"kind": "ref", "ref": "Missing"}}]}`},
		{"cyclic ref", `{"types": [{"name": "T", "type": {"kind": "ref", "ref": "T"}}]}`},
		{"duplicate name", `{"types": [
			{"name": "T", "type": {"kind": "boolean"}},
			{"name": "T", "type": {"kind": "boolean"}}]}`},
		{"empty choice", `{"types": [{"name": "T", "type": {"kind": "choice"}}]}`},
		{"ext without marker", `{"types": [{"name": "T", "type": {
			"kind": "sequence",
			"extFields": [{"name": "x", "type": {"kind": "boolean"}}]}}]}`},
	}
	//
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := SchemaFromJSON([]byte(test.schema))
			assert.Error(t, err)
		})
	}
}

func TestValueFromJSON(t *testing.T) {
	schema, err := SchemaFromJSON([]byte(jsonSchema))
	require.NoError(t, err)
	//
	endpoint, err := schema.Lookup("Endpoint")
	require.NoError(t, err)
	//
	value, err := ValueFromJSON(endpoint, []byte(`{
		"host": "example.org",
		"port": 8080,
		"cookie": "deadbeef"
	}`))
	require.NoError(t, err)
	//
	assert.True(t, asn.Equal(value, asn.Sequence{
		{Name: "host", Value: asn.String("example.org")},
		{Name: "port", Value: asn.Integer(8080)},
		{Name: "cookie", Value: asn.OctetString{0xde, 0xad, 0xbe, 0xef}},
	}), "got %v", value)
}

func TestValueFromJSON_Choice(t *testing.T) {
	schema, err := SchemaFromJSON([]byte(jsonSchema))
	require.NoError(t, err)
	//
	target, err := schema.Lookup("Target")
	require.NoError(t, err)
	//
	value, err := ValueFromJSON(target, []byte(`{"pool": [{"host": "a", "port": 1}]}`))
	require.NoError(t, err)
	//
	choice, ok := value.(asn.Choice)
	require.True(t, ok, "expected a choice, got %v", value)
	assert.Equal(t, "pool", choice.Name)
	assert.Len(t, choice.Value.(asn.List), 1)
}

func TestValueFromJSON_BitString(t *testing.T) {
	typ := &asn.BitStringType{Size: asn.NewSize(0, 16)}
	//
	value, err := ValueFromJSON(typ, []byte(`"10110"`))
	require.NoError(t, err)
	assert.True(t, asn.Equal(value, asn.BitString{Bytes: []byte{0xb0}, Length: 5}), "got %v", value)
	//
	_, err = ValueFromJSON(typ, []byte(`"10120"`))
	assert.Error(t, err)
}

func TestValueFromJSON_Errors(t *testing.T) {
	schema, err := SchemaFromJSON([]byte(jsonSchema))
	require.NoError(t, err)
	//
	endpoint, err := schema.Lookup("Endpoint")
	require.NoError(t, err)
	//
	tests := []struct {
		name  string
		value string
	}{
		{"unknown field", `{"host": "a", "port": 1, "proxy": true}`},
		{"wrong shape", `["host"]`},
		{"wrong leaf", `{"host": 42, "port": 1}`},
		{"bad hex", `{"host": "a", "port": 1, "cookie": "zz"}`},
	}
	//
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ValueFromJSON(endpoint, []byte(test.value))
			assert.Error(t, err)
		})
	}
}

func TestValueToJSON(t *testing.T) {
	schema, err := SchemaFromJSON([]byte(jsonSchema))
	require.NoError(t, err)
	//
	endpoint, err := schema.Lookup("Endpoint")
	require.NoError(t, err)
	//
	data, err := ValueToJSON(endpoint, asn.Sequence{
		{Name: "host", Value: asn.String("example.org")},
		{Name: "port", Value: asn.Integer(8080)},
		{Name: "secure", Value: asn.Boolean(true)},
		{Name: "cookie", Value: asn.OctetString{0xca, 0xfe}},
	})
	require.NoError(t, err)
	// Fields render in sequence order.
	assert.Equal(t,
		`{"host":"example.org","port":8080,"secure":true,"cookie":"cafe"}`,
		string(data))
}

func TestValueJSON_RoundTrip(t *testing.T) {
	schema, err := SchemaFromJSON([]byte(jsonSchema))
	require.NoError(t, err)
	//
	target, err := schema.Lookup("Target")
	require.NoError(t, err)
	//
	document := `{"single":{"host":"example.org","port":443,"secure":true}}`
	//
	value, err := ValueFromJSON(target, []byte(document))
	require.NoError(t, err)
	//
	data, err := ValueToJSON(target, value)
	require.NoError(t, err)
	assert.Equal(t, document, string(data))
}
