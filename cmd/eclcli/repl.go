package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/snomedql/ecl"
)

const replHelp = `eclcli interactive REPL

Any input is evaluated as an ECL expression against the loaded store.

Commands:
  :explain <ecl>   Print the non-executing query plan instead of executing
  :help            Show this help message
  :exit / :quit    Exit the REPL
`

func newReplCmd(storePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive ECL query REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*storePath)
			if err != nil {
				return err
			}
			ex := ecl.New(s)

			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprintln(cmd.OutOrStdout(), "eclcli — SNOMED CT ECL engine")
			fmt.Fprintln(cmd.OutOrStdout(), `Type ":help" for available commands.`)

			for {
				fmt.Fprint(cmd.OutOrStdout(), "ecl> ")
				if !scanner.Scan() {
					return nil
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				switch {
				case line == ":exit", line == ":quit":
					return nil
				case line == ":help":
					fmt.Fprint(cmd.OutOrStdout(), replHelp)
				case strings.HasPrefix(line, ":explain "):
					plan, err := ex.Explain(strings.TrimPrefix(line, ":explain "))
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "explain error: %v\n", err)
						continue
					}
					for _, step := range plan.Steps {
						fmt.Fprintf(cmd.OutOrStdout(), "%-18s %-40s cardinality=%-10d cost=%.4fms\n",
							step.Operation, step.Expression, step.Cardinality, step.CostMillis)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "estimated total: %d, total cost: %.4fms\n", plan.EstimatedTotal, plan.TotalCost)
				default:
					ids, stats, err := ex.Execute(context.Background(), line)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "query error: %v\n", err)
						continue
					}
					for _, id := range ids {
						fmt.Fprintln(cmd.OutOrStdout(), id)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d concepts, %s elapsed, %d traversed\n", len(ids), stats.Elapsed, stats.Traversed)
				}
			}
		},
	}
}
