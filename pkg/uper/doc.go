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

// Package uper implements the ASN.1 Unaligned Packed Encoding Rules of Rec.
// ITU-T X.691, driven by the resolved type model of the asn package.  The
// codec walks a type tree and a matching runtime value, producing (or
// consuming) a dense bit stream in which field widths, presence bitmaps,
// extension markers and length determinants all follow from the declared
// constraints.
//
// Encoding and decoding are purely synchronous, perform no input/output and
// hold no global state.  A type tree is shared read-only, and each call owns
// its writer or reader outright, so any number of independent encode/decode
// calls may run concurrently without locking.
//
// The codec never logs and never recovers internally: every failure is
// returned to the immediate caller, classified as truncation, constraint
// violation, unknown choice index, trailing data or type mismatch.  See the
// corresponding error types for the contract of each class.
package uper
