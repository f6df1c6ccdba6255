package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/rewriting"
	"github.com/jonathan/resume-tailor/internal/types"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Rewrite a resume toward a job description, preserving its formatting",
	Long: "Extracts the summary and experience blocks from a DOCX or PDF resume, rewrites them " +
		"toward the given job description under strict length and fact-preservation constraints, " +
		"splices the rewrites back into a copy of the original file, and prints the ATS score.",
	RunE: runOptimize,
}

var (
	optimizeResume     string
	optimizeJob        string
	optimizeOut        string
	optimizeAPIKey     string
	optimizeWorkers    int
	optimizeTimeout    int
	optimizeAttempts   int
	optimizeTolerance  float64
	optimizeConfigFile string
	optimizeVerbose    bool
)

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeResume, "resume", "r", "", "Path to the resume file, DOCX or PDF (required)")
	optimizeCmd.Flags().StringVarP(&optimizeJob, "job", "j", "", "Path to the job description text file (required)")
	optimizeCmd.Flags().StringVarP(&optimizeOut, "out", "o", "", "Path for the rewritten resume (required)")
	optimizeCmd.Flags().StringVar(&optimizeAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	optimizeCmd.Flags().IntVar(&optimizeWorkers, "workers", 0, "Concurrent rewrite workers")
	optimizeCmd.Flags().IntVar(&optimizeTimeout, "timeout", 0, "Per-attempt rewrite timeout in seconds")
	optimizeCmd.Flags().IntVar(&optimizeAttempts, "attempts", 0, "Rewrite attempts per block before falling back")
	optimizeCmd.Flags().Float64Var(&optimizeTolerance, "tolerance", 0, "Character-budget tolerance relative to each block")
	optimizeCmd.Flags().StringVar(&optimizeConfigFile, "config", "", "Path to a JSON config file supplying flag defaults")
	optimizeCmd.Flags().BoolVarP(&optimizeVerbose, "verbose", "v", false, "Print detailed progress information")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(_ *cobra.Command, _ []string) error {
	cfg := config.Config{
		Resume:         optimizeResume,
		Job:            optimizeJob,
		Out:            optimizeOut,
		APIKey:         optimizeAPIKey,
		Workers:        optimizeWorkers,
		TimeoutSeconds: optimizeTimeout,
		MaxAttempts:    optimizeAttempts,
		Tolerance:      optimizeTolerance,
		Verbose:        optimizeVerbose,
	}

	// Config file values fill in whatever the flags left unset
	if optimizeConfigFile != "" {
		fileCfg, err := config.LoadConfig(optimizeConfigFile)
		if err != nil {
			return err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.Resume == "" {
		return fmt.Errorf("a resume file is required (use --resume or the config file)")
	}
	if cfg.Job == "" {
		return fmt.Errorf("a job description file is required (use --job or the config file)")
	}
	if cfg.Out == "" {
		return fmt.Errorf("an output path is required (use --out or the config file)")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("API key is required (set GEMINI_API_KEY environment variable or use --api-key flag)")
	}

	document, err := os.ReadFile(cfg.Resume)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}
	jobText, err := os.ReadFile(cfg.Job)
	if err != nil {
		return fmt.Errorf("failed to read job description file: %w", err)
	}
	if strings.TrimSpace(string(jobText)) == "" {
		return fmt.Errorf("job description file %s is empty", cfg.Job)
	}

	// Ensure output directory exists (create early, before API calls)
	outputDir := filepath.Dir(cfg.Out)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, llm.DefaultGeminiConfig(), apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	opts := pipeline.Options{
		Document:       document,
		JobDescription: string(jobText),
		Rewriter:       llm.NewRewriter(client),
		Format:         declaredFormat(cfg.Resume),
		Tolerance:      cfg.Tolerance,
		Workers:        cfg.Workers,
		Timeout:        cfg.Timeout(),
		MaxAttempts:    cfg.MaxAttempts,
	}
	if cfg.Verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			fmt.Printf("==> %s: %s\n", event.Step, event.Message)
		}
		opts.OnBlock = func(blockID string, attempt int, state rewriting.State) {
			fmt.Printf("    block %s attempt %d: %s\n", blockID, attempt, state)
		}
	}

	outcome, err := pipeline.Process(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to optimize resume: %w", err)
	}

	if err := os.WriteFile(cfg.Out, outcome.Output, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintRewriteResults(outcome.Blocks, outcome.Results)
		printer.PrintScore(outcome.Score)
		if outcome.DegradedFidelity {
			printer.PrintDegradedFidelity()
		}
	}

	fmt.Printf("Wrote %s (%s, ATS score %d/100)\n", cfg.Out, outcome.Format, outcome.Score.Total)
	return nil
}

// declaredFormat maps the resume file extension to a container format tag.
// Unknown extensions leave the format to header detection.
func declaredFormat(path string) types.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return types.FormatDOCX
	case ".pdf":
		return types.FormatPDF
	}
	return ""
}
