package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/ui/theme"
)

var attemptCmd = &cobra.Command{
	Use:   "attempt <learner-id> <task-id> <answer>",
	Short: "Answer a task from the learner's active plan",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.engine.SubmitAttempt(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}

		fmt.Println(theme.Verdict(out.Result.Correct))
		fb := out.Feedback
		fmt.Println(fb.Message)
		if !fb.Correct && fb.CorrectAnswer != "" {
			fmt.Println(theme.Field("Answer", fb.CorrectAnswer))
		}
		if fb.Rule != "" {
			fmt.Println(theme.Field("Rule", fb.Rule))
		}
		if fb.ExampleContrast != "" {
			fmt.Println(theme.Field("Example", fb.ExampleContrast))
		}
		if fb.Tip != "" {
			fmt.Println(theme.Field("Tip", fb.Tip))
		}

		fmt.Println()
		if out.Award.XP > 0 {
			fmt.Println(theme.Highlight.Render(fmt.Sprintf("+%d XP", out.Award.XP)))
		}
		if out.Award.Milestone > 0 {
			fmt.Println(theme.Highlight.Render(fmt.Sprintf("%d-day streak! (%s)", out.Award.Milestone, out.Award.Rarity)))
		}
		fmt.Println(theme.Field("Total XP", out.Gamification.TotalXP))
		fmt.Println(theme.Field("Streak", out.Gamification.CurrentStreak))
		fmt.Println(theme.Field("Module", theme.ProgressBar(out.Module.Accuracy, 20)))
		if out.ModuleCompleted {
			fmt.Println(theme.Correct.Render("Module complete!"))
		}
		return nil
	},
}
