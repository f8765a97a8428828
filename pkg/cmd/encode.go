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
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/asn1tools/go-asnc/pkg/binfile"
	"github.com/asn1tools/go-asnc/pkg/uper"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [flags] schema_file type_name [value_file]",
	Short: "encode a JSON value against a schema type.",
	Long: `Encode a JSON value (from a file, or stdin when omitted) against the
named type of the given schema, producing the unaligned packed encoding
of the value.`,
	Args: cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		schema := readSchemaFile(args[0])
		typ := lookupType(schema, args[1])
		//
		input := "-"
		if len(args) == 3 {
			input = args[2]
		}
		//
		value, err := binfile.ValueFromJSON(typ, readInput(input))
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		data, err := uper.Encode(typ, value)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		log.Debugf("encoded %s into %d bytes", args[1], len(data))
		//
		if GetFlag(cmd, "hex") {
			data = []byte(hex.EncodeToString(data) + "\n")
		}
		//
		writeOutput(GetString(cmd, "output"), data)
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringP("output", "o", "-", "specify output file.")
	encodeCmd.Flags().Bool("hex", false, "write the encoding as hex rather than raw bytes")
}
