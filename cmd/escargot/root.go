// Command escargot is the CLI host: run, repl, parse, and disasm
// subcommands over the pkg/escargot embedding API. Grounded on the
// teacher's cmd/funxy/main.go (a single binary multiplexing several
// script-running modes) and pkg/cli/entry.go, but built on
// github.com/spf13/cobra's Command tree rather than the teacher's
// manual os.Args switch: cobra is exactly suited to a handful of
// named subcommands each with their own flags, and none of the rest
// of the example pack hand-rolls flag parsing where cobra is already
// a dependency.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"escargot/internal/config"
	"escargot/pkg/escargot"
)

// engineOpts is internal/config.Engine under the name this package's
// command files use when wiring it into a VM.
type engineOpts = config.Engine

// newVM builds a VM with eng's tunables applied, the single choke
// point every subcommand that evaluates source goes through.
func newVM(eng engineOpts) *escargot.VM {
	return escargot.New(
		escargot.WithMaxCallDepth(eng.MaxCallDepth),
		escargot.WithDefaultStrict(eng.DefaultStrict),
	)
}

var (
	cfgFile     string
	debugFlag   bool
	metricsAddr string

	logger = stdr.New(log.New(os.Stderr, "", log.LstdFlags))
)

var rootCmd = &cobra.Command{
	Use:     "escargot",
	Short:   "A compact ECMAScript 5.1 engine",
	Version: config.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			stdr.SetVerbosity(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "engine config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")

	rootCmd.AddCommand(runCmd, replCmd, parseCmd, disasmCmd)
}

// loadEngineConfig resolves this invocation's tunables: defaults,
// overlaid by --config's YAML file, overlaid by the --debug flag.
func loadEngineConfig() config.Engine {
	eng, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if debugFlag {
		eng.Debug = true
	}
	return eng
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
