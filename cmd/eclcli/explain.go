package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snomedql/ecl"
)

func newExplainCmd(storePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <ecl-expression>",
		Short: "Print the non-executing query plan for an ECL expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*storePath)
			if err != nil {
				return err
			}
			ex := ecl.New(s)
			plan, err := ex.Explain(args[0])
			if err != nil {
				return err
			}
			for _, step := range plan.Steps {
				fmt.Printf("%-18s %-40s cardinality=%-10d cost=%.4fms\n", step.Operation, step.Expression, step.Cardinality, step.CostMillis)
			}
			fmt.Printf("\nestimated total: %d\ntotal cost: %.4fms\n", plan.EstimatedTotal, plan.TotalCost)
			for _, hint := range plan.Hints {
				fmt.Printf("hint: %s\n", hint)
			}
			return nil
		},
	}
}
