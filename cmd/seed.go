package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import reference data",
}

var seedPlacementCmd = &cobra.Command{
	Use:   "placement <tests.yaml>",
	Short: "Import (or replace) placement tests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tests, err := readPlacementTests(args[0])
		if err != nil {
			return err
		}
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, t := range tests {
			if err := a.engine.ImportPlacementTest(cmd.Context(), t.record()); err != nil {
				return fmt.Errorf("import %s: %w", t.ID, err)
			}
			fmt.Printf("imported %s (%s, %d items)\n", t.ID, t.Language, len(t.Items))
		}
		return nil
	},
}

func init() {
	seedCmd.AddCommand(seedPlacementCmd)
}
