package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Show the rewritable blocks found in a resume",
	Long: "Extracts the block structure from a DOCX or PDF resume and prints it, " +
		"for inspecting what the optimize command would rewrite.",
	RunE: runExtract,
}

var (
	extractResume string
	extractJSON   bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractResume, "resume", "r", "", "Path to the resume file, DOCX or PDF (required)")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "Print the extraction as JSON")

	if err := extractCmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(_ *cobra.Command, _ []string) error {
	document, err := os.ReadFile(extractResume)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}

	extraction, format, err := pipeline.Extract(document)
	if err != nil {
		return fmt.Errorf("failed to extract blocks: %w", err)
	}

	if extractJSON {
		jsonBytes, err := json.MarshalIndent(extraction, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal extraction JSON: %w", err)
		}
		fmt.Println(string(jsonBytes))
		return nil
	}

	observability.NewPrinter(os.Stdout).PrintExtraction(extraction, format)
	return nil
}
