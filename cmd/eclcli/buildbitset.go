package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snomedql/ecl"
	"github.com/snomedql/ecl/internal/bitset"
)

func newBuildBitsetCmd(storePath *string) *cobra.Command {
	var release, out string

	cmd := &cobra.Command{
		Use:   "build-bitset <ecl-expression>",
		Short: "Execute an ECL expression and save its result as a .eclb bitset file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(*storePath)
			if err != nil {
				return err
			}
			if out == "" {
				return fmt.Errorf("--out is required")
			}

			eclText := args[0]
			ex := ecl.New(s)
			ids, _, err := ex.Execute(context.Background(), eclText)
			if err != nil {
				return err
			}

			reg := bitset.NewRegistry(s.AllConcepts())
			set := bitset.FromConceptIDs(reg, ids)

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %q: %w", out, err)
			}
			defer f.Close()

			if err := bitset.Save(f, bitset.File{Release: release, ECLText: eclText, Set: set}); err != nil {
				return fmt.Errorf("writing %q: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d concepts\n", out, set.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&release, "release", "", "SNOMED release label recorded in the bitset header")
	cmd.Flags().StringVar(&out, "out", "", "output .eclb file path")
	return cmd
}
