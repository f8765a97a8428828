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
	"math"
	"strings"

	"github.com/asn1tools/go-asnc/pkg/asn"
)

// The id column every generated table carries, and the column names of list
// entry tables.
const (
	sqlKeyColumn       = "id"
	sqlListColumn      = "list"
	sqlListValueColumn = "value"
)

// SQL renders a schema as PostgreSQL DDL: a table per sequence (SERIAL id
// primary key, one column per field), a table per choice (nullable column per
// alternative, exactly one set), an enum type per enumeration, and a parent
// plus entry table pair per top-level sequence-of.  Fields whose type is
// itself a top-level assignment become INTEGER references onto that table,
// cascading on delete and update; composite field types which are neither
// top-level nor arrays of scalars cannot be expressed and fail generation.
func SQL(schema *asn.Schema) (string, error) {
	p := &sqlGenerator{names: namesOf(schema)}
	//
	for _, a := range schema.Assignments {
		if err := p.declaration(a.Name, a.Type); err != nil {
			return "", err
		}
	}
	//
	return p.builder.String(), nil
}

type sqlGenerator struct {
	builder strings.Builder
	names   names
	// Reference columns accumulated for index statements of the current
	// table.
	indexed []string
}

func (p *sqlGenerator) declaration(name string, t asn.Type) error {
	switch t := asn.Underlying(t).(type) {
	case *asn.EnumeratedType:
		p.enumDeclaration(name, t)
		return nil
	case *asn.SequenceType:
		return p.tableDeclaration(name, t)
	case *asn.ChoiceType:
		return p.choiceDeclaration(name, t)
	case *asn.SequenceOfType:
		return p.listDeclaration(name, t)
	}
	// Scalar assignments inline at their use sites and need no DDL.
	return nil
}

func (p *sqlGenerator) enumDeclaration(name string, t *asn.EnumeratedType) {
	var labels []string
	//
	for _, enumerants := range [][]asn.Enumerant{t.Root, t.Ext} {
		for _, e := range enumerants {
			labels = append(labels, "'"+snakeName(e.Name)+"'")
		}
	}
	//
	fmt.Fprintf(&p.builder, "CREATE TYPE %s AS ENUM (%s);\n\n", exportedName(name), strings.Join(labels, ", "))
}

func (p *sqlGenerator) tableDeclaration(name string, t *asn.SequenceType) error {
	lines := []string{fmt.Sprintf("    %s SERIAL PRIMARY KEY", sqlKeyColumn)}
	p.indexed = nil
	//
	for _, fields := range [][]asn.Field{t.Fields, t.ExtFields} {
		for i := range fields {
			field := &fields[i]
			//
			column, err := p.columnType(name, field.Type)
			//
			if err != nil {
				return fmt.Errorf("table %s, field %q: %w", name, field.Name, err)
			}
			// Optional and defaulted fields admit NULL.
			if !optional(field) {
				column += " NOT NULL"
			}
			// Reference columns get an index alongside the table.
			if strings.Contains(column, "REFERENCES") {
				p.indexed = append(p.indexed, p.columnName(field.Name))
			}
			//
			lines = append(lines, fmt.Sprintf("    %s %s", p.columnName(field.Name), column))
		}
	}
	//
	p.table(name, lines, "")
	//
	return nil
}

// choiceDeclaration renders a choice as a table of nullable columns, one per
// alternative, of which exactly one is set per row.
func (p *sqlGenerator) choiceDeclaration(name string, t *asn.ChoiceType) error {
	var (
		lines   = []string{fmt.Sprintf("    %s SERIAL PRIMARY KEY", sqlKeyColumn)}
		columns []string
	)
	//
	p.indexed = nil
	//
	for _, alternatives := range [][]asn.Alternative{t.Root, t.Ext} {
		for i := range alternatives {
			a := &alternatives[i]
			//
			column, err := p.columnType(name, a.Type)
			//
			if err != nil {
				return fmt.Errorf("table %s, alternative %q: %w", name, a.Name, err)
			}
			//
			if strings.Contains(column, "REFERENCES") {
				p.indexed = append(p.indexed, p.columnName(a.Name))
			}
			//
			lines = append(lines, fmt.Sprintf("    %s %s", p.columnName(a.Name), column))
			columns = append(columns, p.columnName(a.Name))
		}
	}
	//
	check := fmt.Sprintf(",\n    CHECK (num_nonnulls(%s) = 1)", strings.Join(columns, ", "))
	p.table(name, lines, check)
	//
	return nil
}

// listDeclaration renders a top-level sequence-of as a parent table holding
// nothing but identities, plus an entry table keyed by (parent, value).
func (p *sqlGenerator) listDeclaration(name string, t *asn.SequenceOfType) error {
	element, err := p.columnType(name, t.Element)
	//
	if err != nil {
		return fmt.Errorf("table %s, element: %w", name, err)
	}
	//
	p.indexed = nil
	p.table(name, []string{fmt.Sprintf("    %s SERIAL PRIMARY KEY", sqlKeyColumn)}, "")
	//
	lines := []string{
		fmt.Sprintf("    %s INTEGER REFERENCES %s(%s) ON DELETE CASCADE ON UPDATE CASCADE NOT NULL",
			sqlListColumn, exportedName(name), sqlKeyColumn),
		fmt.Sprintf("    %s %s NOT NULL", sqlListValueColumn, element),
	}
	//
	key := fmt.Sprintf(",\n    PRIMARY KEY (%s, %s)", sqlListColumn, sqlListValueColumn)
	p.indexed = nil
	p.table(name+"ListEntry", lines, key)
	//
	return nil
}

// table writes one CREATE TABLE statement followed by an index per reference
// column accumulated while rendering it.
func (p *sqlGenerator) table(name string, lines []string, constraints string) {
	tableName := exportedName(name)
	//
	fmt.Fprintf(&p.builder, "CREATE TABLE %s (\n%s%s\n);\n\n", tableName, strings.Join(lines, ",\n"), constraints)
	//
	for _, column := range p.indexed {
		fmt.Fprintf(&p.builder, "CREATE INDEX idx_%s_%s ON %s (%s);\n\n", snakeName(tableName), column, tableName, column)
	}
	//
	p.indexed = nil
}

//nolint:gocyclo
func (p *sqlGenerator) columnType(current string, t asn.Type) (string, error) {
	// A field typed by a sibling assignment references its table, provided
	// the assignment has a table at all.
	if name, ok := p.names.lookup(t, current); ok {
		switch asn.Underlying(t).(type) {
		case *asn.SequenceType, *asn.ChoiceType, *asn.SequenceOfType:
			return fmt.Sprintf("INTEGER REFERENCES %s(%s) ON DELETE CASCADE ON UPDATE CASCADE",
				exportedName(name), sqlKeyColumn), nil
		case *asn.EnumeratedType:
			return exportedName(name), nil
		}
	}
	//
	switch t := asn.Underlying(t).(type) {
	case *asn.BooleanType:
		return "BOOLEAN", nil
	case *asn.IntegerType:
		return sqlIntOf(t.Constraint), nil
	case *asn.EnumeratedType:
		// An anonymous enumeration stores its enumerant name.
		return "TEXT", nil
	case *asn.BitStringType, *asn.OctetStringType:
		return "BYTEA", nil
	case *asn.StringType:
		return "TEXT", nil
	case *asn.SequenceOfType:
		element, err := p.columnType(current, t.Element)
		//
		if err != nil {
			return "", err
		} else if strings.Contains(element, "REFERENCES") {
			return "", fmt.Errorf("array of references is not expressible")
		}
		//
		return element + "[]", nil
	case *asn.SequenceType, *asn.ChoiceType:
		return "", fmt.Errorf("anonymous composite types must be top-level assignments")
	}
	// Unreachable for a well-formed type tree.
	panic("unknown type node")
}

// sqlIntOf picks the narrowest standard integer column holding the value
// range.
func sqlIntOf(c asn.Constraint) string {
	if !c.Bounded() || c.Extensible {
		return "BIGINT"
	}
	//
	switch {
	case *c.Min >= math.MinInt16 && *c.Max <= math.MaxInt16:
		return "SMALLINT"
	case *c.Min >= math.MinInt32 && *c.Max <= math.MaxInt32:
		return "INTEGER"
	}
	//
	return "BIGINT"
}

// columnName renders a field name as a column, renaming any collision with
// the synthetic key column.
func (p *sqlGenerator) columnName(name string) string {
	column := snakeName(name)
	//
	if strings.EqualFold(column, sqlKeyColumn) {
		return column + "_"
	}
	//
	return column
}
