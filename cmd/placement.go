package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/placement"
	"github.com/abhisek/lingua/internal/ui/theme"
)

var placementCmd = &cobra.Command{
	Use:   "placement",
	Short: "Score placement tests",
}

var placementScoreCmd = &cobra.Command{
	Use:   "score <tests.yaml> <answers.yaml>",
	Short: "Score a submission offline, without a learner or database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		scale, err := cfg.Placement.Scale()
		if err != nil {
			return err
		}
		tests, err := readPlacementTests(args[0])
		if err != nil {
			return err
		}
		testID, _ := cmd.Flags().GetString("test")
		doc := tests[0]
		if testID != "" {
			found := false
			for _, t := range tests {
				if t.ID == testID {
					doc, found = t, true
					break
				}
			}
			if !found {
				return fmt.Errorf("test %q not found in %s", testID, args[0])
			}
		}
		var answers answersFile
		if err := readYAML(args[1], &answers); err != nil {
			return err
		}

		est := placement.NewEstimator(grading.NewEvaluator(cfg.Grading.TranslationThreshold), scale)
		res, err := est.Estimate(itemsOf(doc), placement.Submission{Answers: answers.Answers})
		if err != nil {
			return err
		}
		printScore(doc.Title, res)
		return nil
	},
}

var placementSubmitCmd = &cobra.Command{
	Use:   "submit <learner-id> <test-id> <answers.yaml>",
	Short: "Score a submission and set the learner's level",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var answers answersFile
		if err := readYAML(args[2], &answers); err != nil {
			return err
		}
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.engine.SubmitPlacement(cmd.Context(), args[0], args[1], answers.Answers)
		if err != nil {
			return err
		}
		printScore(args[1], out.Score)
		return nil
	},
}

func printScore(title string, res placement.ScoreResult) {
	fmt.Println(theme.Title.Render(title))
	for _, it := range res.Items {
		fmt.Printf("  %-12s %s  (weight %g)\n", it.ItemID, theme.Verdict(it.Correct), it.Weight)
	}
	fmt.Println()
	fmt.Println(theme.Field("Score", fmt.Sprintf("%g / %g", res.Raw, res.Max)))
	fmt.Println(theme.Field("Percentage", theme.ProgressBar(res.Percentage/100, 30)))
	fmt.Println(theme.Field("Level", theme.Highlight.Render(string(res.Level))))
}

func init() {
	placementScoreCmd.Flags().String("test", "", "Test ID when the file holds several tests (default: first)")

	placementCmd.AddCommand(placementScoreCmd)
	placementCmd.AddCommand(placementSubmitCmd)
}
