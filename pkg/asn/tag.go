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
	"fmt"
	"strings"
)

// Class holds the class part of an ASN.1 tag, which acts as a namespace for
// the tag number (Rec. ITU-T X.680, Section 8).
type Class uint8

// Predefined Class constants covering all values encodable in a tag.
const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

func (c Class) String() string {
	switch c {
	case ClassUniversal:
		return "UNIVERSAL"
	case ClassApplication:
		return "APPLICATION"
	case ClassContextSpecific:
		return "CONTEXT"
	case ClassPrivate:
		return "PRIVATE"
	}
	//
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// Tag constitutes an ASN.1 tag, consisting of its class and number.  Tags are
// carried through the type model purely for generator fidelity: the unaligned
// packed encoding rules are tag-agnostic, since field order rather than
// tagging disambiguates components on the wire.
type Tag struct {
	Class  Class
	Number uint
}

func (t Tag) String() string {
	if t.Class == ClassContextSpecific {
		return fmt.Sprintf("[%d]", t.Number)
	}
	//
	return fmt.Sprintf("[%s %d]", strings.ToUpper(t.Class.String()), t.Number)
}
