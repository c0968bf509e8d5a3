package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"scriptsmith/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "scriptsmith",
	Short: "Generate, score and refine short-form video scripts",
	Long:  "scriptsmith drafts a video script with an LLM writer, scores it with a validator,\nand revises it from condensed feedback until it passes or runs out of attempts.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.Version = version
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
