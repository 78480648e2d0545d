package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snomedql/ecl"
)

func newQueryCmd(storePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "query <ecl-expression>",
		Short: "Execute an ECL expression and print the matching concept IDs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*storePath)
			if err != nil {
				return err
			}
			ex := ecl.New(s)
			ids, stats, err := ex.Execute(context.Background(), args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d concepts, %s elapsed, %d traversed\n", len(ids), stats.Elapsed, stats.Traversed)
			return nil
		},
	}
}
