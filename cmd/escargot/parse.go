package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"escargot/pkg/escargot"
)

var parseStrictFlag bool

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a script and print its AST as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		prog, err := escargot.Parse(string(content), parseStrictFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(prog)
	},
}

func init() {
	parseCmd.Flags().BoolVar(&parseStrictFlag, "strict", false, "parse as strict-mode code")
}
