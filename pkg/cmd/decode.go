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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/asn1tools/go-asnc/pkg/binfile"
	"github.com/asn1tools/go-asnc/pkg/uper"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [flags] schema_file type_name [data_file]",
	Short: "decode a UPER payload against a schema type.",
	Long: `Decode an unaligned packed encoding (from a file, or stdin when omitted)
against the named type of the given schema, printing the decoded value as
JSON.  Trailing data beyond the decoded value is reported but not fatal.`,
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
		data := readInput(input)
		if GetFlag(cmd, "hex") {
			data = decodeHexInput(data)
		}
		//
		value, bits, err := uper.Decode(typ, data)
		// Trailing data still yields a value; anything else is fatal.
		var trailing *uper.TrailingDataError
		//
		if errors.As(err, &trailing) {
			log.Warnf("%d bits of trailing data after %d decoded bits", trailing.Bits, bits)
		} else if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		log.Debugf("decoded %s from %d bits", args[1], bits)
		//
		document, err := binfile.ValueToJSON(typ, value)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		var indented bytes.Buffer
		if err := json.Indent(&indented, document, "", "  "); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		//
		indented.WriteString("\n")
		writeOutput(GetString(cmd, "output"), indented.Bytes())
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringP("output", "o", "-", "specify output file.")
	decodeCmd.Flags().Bool("hex", false, "read the payload as hex rather than raw bytes")
}
