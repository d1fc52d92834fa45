package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"escargot/internal/bytecode"
	"escargot/internal/compiler"
	"escargot/pkg/escargot"
)

var disasmStrictFlag bool

var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "Compile a script and print its bytecode listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		prog, err := escargot.Parse(string(content), disasmStrictFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cb, err := compiler.CompileProgram(prog)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Print(bytecode.Disassemble(cb, path))
		return nil
	},
}

func init() {
	disasmCmd.Flags().BoolVar(&disasmStrictFlag, "strict", false, "compile as strict-mode code")
}
