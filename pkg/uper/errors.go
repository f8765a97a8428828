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
package uper

import (
	"errors"
	"fmt"

	"github.com/asn1tools/go-asnc/pkg/asn"
	"github.com/asn1tools/go-asnc/pkg/util/bit"
)

// TruncatedError indicates fewer input bits were available than the type
// shape requires.  On a streaming transport a caller may treat this as a
// request for more data.  It is an alias of the bit-stream level error, so
// the reader and the codec report truncation identically.
type TruncatedError = bit.TruncatedError

// ValueRangeError indicates an integer outside its declared value range.
// Encoding rejects such values outright; decoding fails closed rather than
// clamping, since a constrained bit-field can still hold out-of-range codes
// whenever the range span is not a power of two.
type ValueRangeError struct {
	Value      int64
	Constraint asn.Constraint
}

func (p *ValueRangeError) Error() string {
	return fmt.Sprintf("value %d is not within the inclusive range %s", p.Value, p.Constraint.String())
}

// SizeRangeError indicates a string, octet string, bit string or SEQUENCE OF
// length outside its declared size range.
type SizeRangeError struct {
	Size uint64
	Min  uint64
	Max  *uint64
}

func (p *SizeRangeError) Error() string {
	if p.Max == nil {
		return fmt.Sprintf("size %d is below the declared minimum of %d", p.Size, p.Min)
	}
	//
	return fmt.Sprintf("size %d is not within the inclusive range of %d and %d", p.Size, p.Min, *p.Max)
}

// OverflowError indicates a decoded multi-octet integer which exceeds the
// 64bit value range this codec supports.
type OverflowError struct {
	Octets uint64
}

func (p *OverflowError) Error() string {
	return fmt.Sprintf("integer of %d octets exceeds the supported 64bit range", p.Octets)
}

// IsConstraintViolation reports whether the given error belongs to the
// constraint-violation category (a value, size or width outside declared or
// supported bounds).
func IsConstraintViolation(err error) bool {
	var (
		value    *ValueRangeError
		size     *SizeRangeError
		overflow *OverflowError
	)
	//
	return errors.As(err, &value) || errors.As(err, &size) || errors.As(err, &overflow)
}

// UnknownChoiceIndexError indicates a decoded choice (or enumerated) index
// beyond the set of known alternatives.  For extensible types this arises
// legitimately from a peer using a newer schema, so it is surfaced as a
// distinguishable error: the offending content has already been consumed and
// the caller may treat the error as "unsupported but structurally valid".
type UnknownChoiceIndexError struct {
	// Index decoded from the wire, counted across root and extension lists.
	Index uint64
	// Known is the total number of alternatives this decoder knows.
	Known uint64
}

func (p *UnknownChoiceIndexError) Error() string {
	return fmt.Sprintf("unexpected choice index %d with alternative count %d", p.Index, p.Known)
}

// TrailingDataError indicates unread input remained after a complete
// top-level decode, beyond the permitted padding of the final byte.  The
// decoded value is returned alongside this error, so the caller decides
// whether trailing garbage is fatal.
type TrailingDataError struct {
	Bits uint
}

func (p *TrailingDataError) Error() string {
	return fmt.Sprintf("%d unread bits remain after a complete decode", p.Bits)
}

// TypeMismatchError indicates that the shape of a value does not match the
// type it was encoded against.  Unlike the data errors above this is a
// caller bug, not a property of the input, and should be treated as fatal to
// the operation.
type TypeMismatchError struct {
	// Type the value was encoded against.
	Type asn.Type
	// Detail describes the mismatch.
	Detail string
}

func (p *TypeMismatchError) Error() string {
	return fmt.Sprintf("value does not match %s: %s", p.Type.String(), p.Detail)
}

func mismatch(t asn.Type, format string, args ...any) *TypeMismatchError {
	return &TypeMismatchError{Type: t, Detail: fmt.Sprintf(format, args...)}
}
