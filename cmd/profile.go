package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/ui/theme"
)

var profileCmd = &cobra.Command{
	Use:   "profile <learner-id>",
	Short: "Show a learner's level, XP, streak and module progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.engine.Profile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		level := string(p.Learner.Level)
		if level == "" {
			level = "not placed"
		}
		fmt.Println(theme.Title.Render(p.Learner.Name))
		fmt.Println(theme.Field("Language", p.Learner.Language))
		fmt.Println(theme.Field("Level", level))
		fmt.Println(theme.Field("Total XP", p.Gamification.TotalXP))
		fmt.Println(theme.Field("Streak", fmt.Sprintf("%d (best %d, next milestone %d)",
			p.Gamification.CurrentStreak, p.Gamification.LongestStreak, p.NextMilestone)))
		if !p.Gamification.LastActivity.IsZero() {
			fmt.Println(theme.Field("Last active", p.Gamification.LastActivity.Format("2006-01-02")))
		}

		if p.Plan == nil {
			fmt.Println(theme.Hint.Render("\nNo active plan. Run `lingua curriculum resolve " + p.Learner.ID + "`."))
			return nil
		}
		fmt.Println(theme.Section.Render(fmt.Sprintf("Plan (%s, %s)", p.Plan.Provenance, p.Plan.Level)))
		for _, m := range p.Modules {
			mark := " "
			if m.Completed {
				mark = theme.Correct.Render("✓")
			}
			fmt.Printf("%s %-34s %s  %d/%d done\n", mark, truncate(m.Title, 34),
				theme.ProgressBar(m.Summary.Accuracy, 16), m.Summary.Completed, m.Summary.Total)
		}
		return nil
	},
}

var checkinCmd = &cobra.Command{
	Use:   "checkin <learner-id>",
	Short: "Record today's activity to keep the streak going",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, award, err := a.engine.CheckIn(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(theme.Field("Streak", st.CurrentStreak))
		if award.Milestone > 0 {
			fmt.Println(theme.Highlight.Render(fmt.Sprintf("%d-day streak! (%s)", award.Milestone, award.Rarity)))
		}
		return nil
	},
}
