package main

import (
	"encoding/json"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"scriptsmith/internal/app"
	"scriptsmith/internal/service/generate"
)

var (
	genTitle    string
	genData     string
	genDuration string
	genVerbose  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one generation in-process and print the result as JSON",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genTitle, "title", "", "script title (required)")
	generateCmd.Flags().StringVar(&genData, "data", "", "supporting facts or context")
	generateCmd.Flags().StringVar(&genDuration, "duration", "short", "target length: short or long")
	generateCmd.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "log progress to stderr")
	_ = generateCmd.MarkFlagRequired("title")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.New(io.Discard, "", 0)
	if genVerbose {
		logger = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	}

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.Service().Generate(cmd.Context(), generate.Request{
		Title:    genTitle,
		Data:     genData,
		Duration: genDuration,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
