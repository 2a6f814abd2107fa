package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/curriculum"
	"github.com/abhisek/lingua/internal/ui/theme"
)

var curriculumCmd = &cobra.Command{
	Use:   "curriculum",
	Short: "Build and inspect curriculum plans",
}

var curriculumResolveCmd = &cobra.Command{
	Use:   "resolve <learner-id>",
	Short: "Build a plan for the learner's level and make it active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		plan, err := a.engine.ResolveCurriculum(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printPlan(plan, true)
		return nil
	},
}

var curriculumShowCmd = &cobra.Command{
	Use:   "show <learner-id>",
	Short: "Show the active plan, or every plan with --all",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if !all {
			plan, err := a.engine.ActivePlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printPlan(plan, true)
			return nil
		}

		plans, err := a.engine.PlanHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(plans) == 0 {
			fmt.Println("No plans yet.")
			return nil
		}
		for _, p := range plans {
			printPlan(p, false)
			fmt.Println()
		}
		return nil
	},
}

func printPlan(p *curriculum.Plan, withTasks bool) {
	status := "inactive"
	if p.Active {
		status = "active"
	}
	fmt.Println(theme.Title.Render(fmt.Sprintf("Plan %s (%s)", p.ID, status)))
	fmt.Println(theme.Field("Language", p.Language))
	level := string(p.Level)
	if p.SourceLevel != "" && p.SourceLevel != p.Level {
		level += fmt.Sprintf(" (content from %s)", p.SourceLevel)
	}
	fmt.Println(theme.Field("Level", level))
	fmt.Println(theme.Field("Provenance", string(p.Provenance)))
	if p.FallbackReason != "" {
		fmt.Println(theme.Field("Reason", theme.Hint.Render(p.FallbackReason)))
	}
	fmt.Println(theme.Field("Created", p.CreatedAt.Local().Format("2006-01-02 15:04")))

	for _, m := range p.Modules {
		mark := " "
		if m.Completed {
			mark = theme.Correct.Render("✓")
		}
		fmt.Println(theme.Section.Render(fmt.Sprintf("%s %d. %s", mark, m.Order, m.Title)))
		if m.Description != "" {
			fmt.Println("   " + m.Description)
		}
		for _, o := range m.Objectives {
			fmt.Println("   • " + o)
		}
		fmt.Println(theme.Hint.Render(fmt.Sprintf("   pass: %d tasks at %.0f%% accuracy  [%s]",
			m.Criteria.MinTasksCompleted, m.Criteria.AccuracyThreshold*100, m.ID)))
		if !withTasks {
			continue
		}
		for _, t := range m.Tasks {
			line := fmt.Sprintf("   - [%s] %s", t.Type, t.Prompt)
			if len(t.Choices) > 0 {
				line += "  (" + strings.Join(t.Choices, " / ") + ")"
			}
			fmt.Println(line)
			fmt.Println(theme.Hint.Render("     " + t.ID))
		}
	}
}

func init() {
	curriculumShowCmd.Flags().Bool("all", false, "Include deactivated plans")

	curriculumCmd.AddCommand(curriculumResolveCmd)
	curriculumCmd.AddCommand(curriculumShowCmd)
}
