package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scriptsmith/internal/app"
)

var patternsOverwrite bool

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage genre style patterns",
}

var patternsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy the bundled style patterns into DATABASE_URL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		n, err := app.SeedPatterns(cmd.Context(), cfg, patternsOverwrite)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d patterns\n", n)
		return nil
	},
}

func init() {
	patternsSeedCmd.Flags().BoolVar(&patternsOverwrite, "overwrite", false, "replace patterns that already exist")
	patternsCmd.AddCommand(patternsSeedCmd)
}
