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
package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/asn1tools/go-asnc/pkg/asn"
	"github.com/asn1tools/go-asnc/pkg/binfile"
)

// GetFlag gets an expected flag, or panic if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string flag, or panic if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// configureLogging applies the persistent logging flags.
func configureLogging(cmd *cobra.Command) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
}

// readSchemaFile parses a schema file based on the extension of the filename.
func readSchemaFile(filename string) *asn.Schema {
	schema, err := binfile.ReadSchemaFile(filename)
	// Handle error
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	return schema
}

// lookupType resolves a named type of the given schema.
func lookupType(schema *asn.Schema, name string) asn.Type {
	t, err := schema.Lookup(name)
	// Handle error
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	return t
}

// readInput reads the given file, with "-" standing for stdin.
func readInput(filename string) []byte {
	var (
		data []byte
		err  error
	)
	//
	if filename == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filename)
	}
	// Handle error
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	return data
}

// writeOutput writes data to the given file, with "-" standing for stdout.
func writeOutput(filename string, data []byte) {
	var err error
	//
	if filename == "-" {
		_, err = os.Stdout.Write(data)
	} else {
		err = os.WriteFile(filename, data, 0600)
	}
	// Handle error
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
}

// decodeHexInput strips whitespace and decodes a hex payload.
func decodeHexInput(data []byte) []byte {
	cleaned := strings.Join(strings.Fields(string(data)), "")
	//
	payload, err := hex.DecodeString(cleaned)
	// Handle error
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	return payload
}
