package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/pipeline"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a resume against a job description without rewriting it",
	Long: "Extracts the resume's text and structure and computes the ATS compatibility score " +
		"against the given job description. The resume file is not modified.",
	RunE: runScore,
}

var (
	scoreResume string
	scoreJob    string
	scoreJSON   bool
	scoreQuick  bool
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreResume, "resume", "r", "", "Path to the resume file, DOCX or PDF (required)")
	scoreCmd.Flags().StringVarP(&scoreJob, "job", "j", "", "Path to the job description text file (required)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the score as JSON")
	scoreCmd.Flags().BoolVar(&scoreQuick, "quick", false, "Print only the keyword match rate (0-100), skipping the full breakdown")

	if err := scoreCmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}
	if err := scoreCmd.MarkFlagRequired("job"); err != nil {
		panic(fmt.Sprintf("failed to mark job flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(_ *cobra.Command, _ []string) error {
	document, err := os.ReadFile(scoreResume)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}
	jobText, err := os.ReadFile(scoreJob)
	if err != nil {
		return fmt.Errorf("failed to read job description file: %w", err)
	}
	if strings.TrimSpace(string(jobText)) == "" {
		return fmt.Errorf("job description file %s is empty", scoreJob)
	}

	if scoreQuick {
		quick, format, err := pipeline.QuickScore(document, string(jobText))
		if err != nil {
			return fmt.Errorf("failed to score resume: %w", err)
		}
		if scoreJSON {
			fmt.Printf("{\"quick_score\": %d}\n", quick)
			return nil
		}
		fmt.Printf("Quick keyword score for %s resume %s: %d/100\n", format, scoreResume, quick)
		return nil
	}

	score, format, err := pipeline.ScoreOnly(document, string(jobText))
	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}

	if scoreJSON {
		jsonBytes, err := json.MarshalIndent(score, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal score JSON: %w", err)
		}
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Scored %s resume %s\n", format, scoreResume)
	observability.NewPrinter(os.Stdout).PrintScore(score)
	return nil
}
