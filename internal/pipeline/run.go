// Package pipeline wires extraction, rewriting, injection, and scoring into
// the end-to-end document flow: original container in, rewritten container and
// ATS score out.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/resume-tailor/internal/ats"
	"github.com/jonathan/resume-tailor/internal/constraints"
	"github.com/jonathan/resume-tailor/internal/docx"
	"github.com/jonathan/resume-tailor/internal/pdf"
	"github.com/jonathan/resume-tailor/internal/rewriting"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Engine extracts blocks from a container and splices replacements back in.
// Implementations must never mutate the container bytes they are given.
type Engine interface {
	Extract(container []byte) (*types.Extraction, error)
	Inject(container []byte, blocks []types.Block, mapping map[string]string) (*types.InjectResult, error)
}

// engineFor picks the structural engine for a container format
func engineFor(format types.Format) (Engine, error) {
	switch format {
	case types.FormatDOCX:
		return docx.NewEngine(), nil
	case types.FormatPDF:
		return pdf.NewEngine(), nil
	default:
		return nil, fmt.Errorf("unsupported container format %q", format)
	}
}

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for one pipeline run
type Options struct {
	Document       []byte
	JobDescription string
	Rewriter       rewriting.Rewriter

	// Format optionally declares the container format; when set, the document
	// header must match it. Empty means detect from the header.
	Format types.Format

	// Tolerance is the character budget relative to each block's original
	// text; zero uses the enforcer default.
	Tolerance   float64
	Workers     int
	Timeout     time.Duration
	MaxAttempts int

	OnProgress ProgressCallback
	OnBlock    rewriting.ProgressFunc
}

// Outcome is the result of a full pipeline run
type Outcome struct {
	Output           []byte
	Format           types.Format
	Score            types.AtsScore
	Blocks           []types.Block
	Results          map[string]types.RewriteResult
	DegradedFidelity bool
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *Options, step, message string) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, Message: message})
	}
}

// Process runs the full flow: detect the format, extract blocks, rewrite the
// rewritable ones under constraint enforcement, splice the accepted texts back
// into a copy of the original container, and score the result against the job
// description.
func Process(ctx context.Context, opts Options) (*Outcome, error) {
	if opts.Rewriter == nil {
		return nil, fmt.Errorf("a rewriter is required")
	}
	if strings.TrimSpace(opts.JobDescription) == "" {
		return nil, fmt.Errorf("a job description is required")
	}

	container, err := openContainer(opts.Document, opts.Format)
	if err != nil {
		return nil, err
	}
	engine, err := engineFor(container.Format)
	if err != nil {
		return nil, err
	}

	emitProgress(&opts, "extract", fmt.Sprintf("extracting blocks from %s container", container.Format))
	extraction, err := engine.Extract(container.Bytes)
	if err != nil {
		return nil, err
	}

	rewritable := extraction.RewritableBlocks()
	emitProgress(&opts, "rewrite", fmt.Sprintf("rewriting %d of %d blocks", len(rewritable), len(extraction.Blocks)))

	enforcer := constraints.New(extraction.FullText, opts.Tolerance)
	orchestrator := rewriting.NewOrchestrator(opts.Rewriter, enforcer, opts.JobDescription, rewriting.Options{
		Workers:     opts.Workers,
		Timeout:     opts.Timeout,
		MaxAttempts: opts.MaxAttempts,
		OnProgress:  opts.OnBlock,
	})

	results, err := orchestrator.RewriteBlocks(ctx, extraction.Blocks)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]string, len(results))
	for id, result := range results {
		mapping[id] = result.FinalText
	}

	emitProgress(&opts, "inject", "splicing accepted rewrites into the container")
	injected, err := engine.Inject(container.Bytes, extraction.Blocks, mapping)
	if err != nil {
		return nil, err
	}

	emitProgress(&opts, "score", "scoring the rewritten resume")
	finalText := finalDocumentText(extraction, mapping)
	score := ats.Score(finalText, opts.JobDescription, extraction.Signals)

	return &Outcome{
		Output:           injected.Bytes,
		Format:           container.Format,
		Score:            score,
		Blocks:           extraction.Blocks,
		Results:          results,
		DegradedFidelity: injected.DegradedFidelity,
	}, nil
}

// openContainer wraps the document bytes, verifying the header against the
// declared format when one is given and sniffing the format otherwise.
func openContainer(document []byte, declared types.Format) (*types.Container, error) {
	if declared != "" {
		return types.NewContainer(document, declared)
	}
	format, err := types.DetectFormat(document)
	if err != nil {
		return nil, err
	}
	return &types.Container{Format: format, Bytes: document}, nil
}

// ScoreOnly extracts a document and scores it against a job description
// without rewriting anything.
func ScoreOnly(document []byte, jobDescription string) (types.AtsScore, types.Format, error) {
	extraction, format, err := Extract(document)
	if err != nil {
		return types.AtsScore{}, "", err
	}
	return ats.Score(extraction.FullText, jobDescription, extraction.Signals), format, nil
}

// QuickScore computes the keyword match rate alone, scaled to 0..100, without
// the full score breakdown. It is the cheap pre-check path.
func QuickScore(document []byte, jobDescription string) (int, types.Format, error) {
	extraction, format, err := Extract(document)
	if err != nil {
		return 0, "", err
	}
	return ats.QuickScore(extraction.FullText, jobDescription), format, nil
}

// Extract exposes block extraction on its own, for inspection tooling
func Extract(document []byte) (*types.Extraction, types.Format, error) {
	container, err := openContainer(document, "")
	if err != nil {
		return nil, "", err
	}
	engine, err := engineFor(container.Format)
	if err != nil {
		return nil, "", err
	}
	extraction, err := engine.Extract(container.Bytes)
	if err != nil {
		return nil, "", err
	}
	return extraction, container.Format, nil
}

// finalDocumentText rebuilds the document's plain text with the final block
// texts substituted, for scoring. Non-rewritten lines keep their extracted
// form.
func finalDocumentText(extraction *types.Extraction, mapping map[string]string) string {
	lines := strings.Split(extraction.FullText, "\n")
	byOriginal := make(map[string]string, len(mapping))
	for i := range extraction.Blocks {
		block := &extraction.Blocks[i]
		if final, ok := mapping[block.ID]; ok && final != block.OriginalText {
			// Lines are trimmed before lookup, so the key must be trimmed too
			// or whitespace-padded block text would never match.
			byOriginal[strings.TrimSpace(block.OriginalText)] = final
		}
	}
	for i, line := range lines {
		if final, ok := byOriginal[strings.TrimSpace(line)]; ok {
			lines[i] = final
		}
	}
	return strings.Join(lines, "\n")
}
