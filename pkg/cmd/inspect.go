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

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/asn1tools/go-asnc/pkg/asn"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] schema_file [type_name]",
	Short: "inspect the resolved encoding plans of a schema.",
	Long: `Print every assignment of the given schema (or just the named one)
together with its resolved encoding plan: extension bits, root index and
length widths, and presence bitmap layout.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		schema := readSchemaFile(args[0])
		names := schema.Names()
		//
		if len(args) == 2 {
			lookupType(schema, args[1])
			names = args[1:]
		}
		// Bold headings on a terminal, plain text through a pipe.
		bold := term.IsTerminal(int(os.Stdout.Fd()))
		//
		for i, name := range names {
			if i > 0 {
				fmt.Println()
			}
			//
			t, _ := schema.Lookup(name)
			printPlan(name, t, bold)
		}
	},
}

func printPlan(name string, t asn.Type, bold bool) {
	if bold {
		fmt.Printf("\033[1m%s\033[0m ::= %s\n", name, t.String())
	} else {
		fmt.Printf("%s ::= %s\n", name, t.String())
	}
	//
	plan := asn.PlanOf(t)
	//
	fmt.Printf("  extension bit: %t\n", plan.ExtensionBit)
	//
	switch asn.Underlying(t).(type) {
	case *asn.BooleanType, *asn.IntegerType, *asn.EnumeratedType, *asn.ChoiceType:
		fmt.Printf("  root width:    %d bits\n", plan.RootWidth)
	case *asn.SequenceType:
		fmt.Printf("  presence bits: %d\n", plan.PresenceBits)
	default:
		fmt.Printf("  length:        %s\n", plan.Length.String())
		//
		if plan.Length == asn.LengthConstrained {
			fmt.Printf("  length width:  %d bits\n", plan.RootWidth)
		}
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
