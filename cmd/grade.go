package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/grading"
	"github.com/abhisek/lingua/internal/ui/theme"
)

var gradeCmd = &cobra.Command{
	Use:   "grade <answer>",
	Short: "Grade one answer against accepted answers",
	Example: `  lingua grade --type translation --accept "I am hungry" "I am hungri"
  lingua grade --type multiple_choice --choice go --choice goes --accept goes 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		typ, _ := cmd.Flags().GetString("type")
		accepted, _ := cmd.Flags().GetStringArray("accept")
		choices, _ := cmd.Flags().GetStringArray("choice")

		ev := grading.NewEvaluator(cfg.Grading.TranslationThreshold)
		task := grading.Task{
			Type:     grading.TaskType(typ),
			Accepted: accepted,
			Choices:  choices,
		}
		res, err := ev.Evaluate(task, grading.ResolveChoice(task, args[0]))
		if err != nil {
			return err
		}

		fmt.Println(theme.Verdict(res.Correct))
		fmt.Println(theme.Field("Similarity", fmt.Sprintf("%.3f", res.Similarity)))
		fmt.Println(theme.Field("Score", fmt.Sprintf("%.3f", res.Score)))
		if grading.TaskType(typ) == grading.TypeTranslation {
			fmt.Println(theme.Hint.Render(fmt.Sprintf("threshold %.2f", ev.TranslationThreshold())))
		}
		return nil
	},
}

func init() {
	gradeCmd.Flags().StringP("type", "t", string(grading.TypeTranslation), "Task type: multiple_choice, cloze, fill_blank, translation")
	gradeCmd.Flags().StringArrayP("accept", "a", nil, "Accepted answer (repeatable)")
	gradeCmd.Flags().StringArray("choice", nil, "Multiple-choice option (repeatable)")
}
