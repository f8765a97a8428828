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
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/asn1tools/go-asnc/pkg/gen"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] schema_file",
	Short: "generate code artifacts from a schema.",
	Long: `Generate a code artifact from the given schema: Go declarations,
Protocol Buffer messages or SQL DDL, selected by --lang.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		var (
			schema = readSchemaFile(args[0])
			pkg    = GetString(cmd, "package")
			lang   = GetString(cmd, "lang")
			//
			artifact string
			err      error
		)
		//
		switch lang {
		case "go":
			artifact = gen.Go(pkg, schema)
		case "proto":
			artifact = gen.Proto(pkg, schema)
		case "sql":
			artifact, err = gen.SQL(schema)
		default:
			err = fmt.Errorf("unknown target language %q", lang)
		}
		// Handle error
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		log.Debugf("generated %d bytes of %s from %s", len(artifact), lang, args[0])
		//
		writeOutput(GetString(cmd, "output"), []byte(artifact))
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("output", "o", "-", "specify output file.")
	generateCmd.Flags().StringP("lang", "l", "go", "specify target language (go, proto, sql).")
	generateCmd.Flags().StringP("package", "p", "model", "specify target package name.")
}
