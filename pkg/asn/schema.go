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

import "fmt"

// Assignment binds a name to a top-level type of a schema module.
type Assignment struct {
	Name string
	Type Type
}

// Schema is an ordered collection of top-level type assignments, as produced
// by a schema parser or loaded from a schema file.  All symbolic references
// are already resolved to concrete constraints; a schema is immutable once
// constructed.
type Schema struct {
	Assignments []Assignment
}

// Lookup returns the type bound to the given name, or an error when no such
// assignment exists.
func (p *Schema) Lookup(name string) (Type, error) {
	for _, a := range p.Assignments {
		if a.Name == name {
			return a.Type, nil
		}
	}
	//
	return nil, fmt.Errorf("schema has no type %q", name)
}

// Names returns the names of all assignments in declaration order.
func (p *Schema) Names() []string {
	names := make([]string, len(p.Assignments))
	//
	for i, a := range p.Assignments {
		names[i] = a.Name
	}
	//
	return names
}
