package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var learnerCmd = &cobra.Command{
	Use:   "learner",
	Short: "Manage learners",
}

var learnerCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a learner for a catalog language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("language")
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		l, err := a.engine.CreateLearner(cmd.Context(), args[0], lang)
		if err != nil {
			return err
		}
		fmt.Println(l.ID)
		return nil
	},
}

var learnerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learners",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		learners, err := a.engine.Learners(cmd.Context())
		if err != nil {
			return err
		}
		if len(learners) == 0 {
			fmt.Println("No learners yet.")
			return nil
		}
		fmt.Printf("%-36s  %-20s  %-10s  %s\n", "ID", "Name", "Language", "Level")
		for _, l := range learners {
			level := string(l.Level)
			if level == "" {
				level = "-"
			}
			fmt.Printf("%-36s  %-20s  %-10s  %s\n", l.ID, truncate(l.Name, 20), l.Language, level)
		}
		return nil
	},
}

func init() {
	learnerCreateCmd.Flags().StringP("language", "l", "", "Target language (see `lingua catalog list`)")
	_ = learnerCreateCmd.MarkFlagRequired("language")

	learnerCmd.AddCommand(learnerCreateCmd)
	learnerCmd.AddCommand(learnerListCmd)
}
