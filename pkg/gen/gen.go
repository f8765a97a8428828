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

// Package gen emits code artifacts from a loaded schema: Go declarations,
// Protocol Buffer messages and SQL DDL.  Every generator works off the same
// inputs, the type model of pkg/asn plus the resolved encoding plans, and
// renders through a strings.Builder; none of them touch the filesystem.
package gen

import (
	"math"
	"strings"
	"unicode"

	"github.com/asn1tools/go-asnc/pkg/asn"
)

// ============================================================================
// Naming
// ============================================================================

// exportedName renders a schema name as an exported camel-case identifier,
// e.g. "endpoint-list" becomes "EndpointList".
func exportedName(name string) string {
	var (
		builder strings.Builder
		upper   = true
	)
	//
	for _, r := range name {
		if r == '-' || r == '_' || r == ' ' {
			upper = true
			continue
		}
		//
		if upper {
			builder.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			builder.WriteRune(r)
		}
	}
	//
	return builder.String()
}

// snakeName renders a schema name as a lowercase snake-case identifier, e.g.
// "listenPort" becomes "listen_port".
func snakeName(name string) string {
	var (
		builder  strings.Builder
		previous rune
	)
	//
	for i, r := range name {
		switch {
		case r == '-' || r == ' ':
			r = '_'
		case unicode.IsUpper(r):
			if i > 0 && previous != '_' && !unicode.IsUpper(previous) {
				builder.WriteRune('_')
			}
			//
			r = unicode.ToLower(r)
		}
		//
		builder.WriteRune(r)
		previous = r
	}
	//
	return builder.String()
}

// ============================================================================
// Integer width selection
// ============================================================================

// intClass partitions integer constraints by the narrowest machine type which
// holds every value of the range, following the same selection the value
// range analysis of the codec uses: a non-negative range picks an unsigned
// class, anything else a signed one, and an unconstrained or extensible range
// falls back to 64 bits.
type intClass int

const (
	classU8 intClass = iota
	classU16
	classU32
	classU64
	classI8
	classI16
	classI32
	classI64
)

func intClassOf(c asn.Constraint) intClass {
	// Extension values are unbounded, whatever the root range says.
	if !c.Bounded() || c.Extensible {
		if c.Min != nil && *c.Min >= 0 {
			return classU64
		}
		//
		return classI64
	}
	//
	minimum, maximum := *c.Min, *c.Max
	//
	if minimum >= 0 {
		switch {
		case maximum <= math.MaxUint8:
			return classU8
		case maximum <= math.MaxUint16:
			return classU16
		case maximum <= math.MaxUint32:
			return classU32
		}
		//
		return classU64
	}
	//
	switch {
	case minimum >= math.MinInt8 && maximum <= math.MaxInt8:
		return classI8
	case minimum >= math.MinInt16 && maximum <= math.MaxInt16:
		return classI16
	case minimum >= math.MinInt32 && maximum <= math.MaxInt32:
		return classI32
	}
	//
	return classI64
}

// ============================================================================
// Assignment index
// ============================================================================

// names maps type nodes back to the assignment declaring them.  Loading a
// schema memoises resolved references, hence a field whose type is a
// top-level assignment shares that assignment's node and generators can emit
// a name reference rather than inlining the definition.
type names map[asn.Type]string

func namesOf(schema *asn.Schema) names {
	index := make(names, len(schema.Assignments))
	//
	for _, a := range schema.Assignments {
		index[a.Type] = a.Name
	}
	//
	return index
}

// lookup returns the assignment name of the given type node, ignoring the
// assignment currently being rendered (whose node would otherwise refer to
// itself).
func (p names) lookup(t asn.Type, current string) (string, bool) {
	name, ok := p[t]
	//
	if ok && name != current {
		return name, true
	}
	//
	return "", false
}
