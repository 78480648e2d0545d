package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snomedql/ecl/internal/closure"
)

func newBuildClosureCmd(storePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "build-closure",
		Short: "Build the transitive closure of a store and print its stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*storePath)
			if err != nil {
				return err
			}
			total := len(s.AllConcepts())
			c := closure.Build(s, func(index, total int) {
				if total == 0 || index%1000 != 0 {
					return
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "closure: %d/%d concepts\n", index, total)
			})
			fmt.Fprintf(cmd.OutOrStdout(), "concepts: %d\nrelationships: %d\n", total, c.RelationshipsCount())
			return nil
		},
	}
}
