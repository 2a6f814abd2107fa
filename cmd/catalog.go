package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/ui/theme"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the fallback curriculum catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog languages and levels",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := loadCatalog(cfg.Curriculum.CatalogPath)
		if err != nil {
			return err
		}
		fmt.Println(theme.Title.Render("Curriculum catalog " + c.Version()))
		for _, lang := range c.Languages() {
			levels := c.Levels(lang)
			names := make([]string, len(levels))
			for i, l := range levels {
				names[i] = string(l)
			}
			fmt.Println(theme.Field(lang, strings.Join(names, " ")))
		}
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
}
