// Package main provides the entry point for the resume_tailor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_tailor",
	Short: "Format-preserving resume rewrite engine",
	Long: "resume_tailor rewrites the summary and experience sections of a DOCX or PDF resume " +
		"toward a job description while preserving the document's layout, then reports an ATS compatibility score.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
