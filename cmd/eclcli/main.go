// Command eclcli is the SNOMED CT ECL engine's interactive front-end,
// built on github.com/spf13/cobra for its subcommands (repl, query,
// explain, build-closure, build-bitset) in place of the teacher's
// cmd/cli/main.go hand-rolled flag/switch dispatch.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var storePath string

	root := &cobra.Command{
		Use:   "eclcli",
		Short: "SNOMED CT Expression Constraint Language engine",
	}
	root.PersistentFlags().StringVar(&storePath, "store", "", "path to a memstore JSON snapshot (required for query/explain/repl/build-closure/build-bitset)")

	root.AddCommand(newReplCmd(&storePath))
	root.AddCommand(newQueryCmd(&storePath))
	root.AddCommand(newExplainCmd(&storePath))
	root.AddCommand(newBuildClosureCmd(&storePath))
	root.AddCommand(newBuildBitsetCmd(&storePath))
	return root
}
