// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-tailor/internal/constraints"
	"github.com/jonathan/resume-tailor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintExtraction outputs a summary of the blocks found in the document.
func (p *Printer) PrintExtraction(extraction *types.Extraction, format types.Format) {
	if extraction == nil {
		return
	}

	rewritable := extraction.RewritableBlocks()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Format:   %s\n", format))
	sb.WriteString(fmt.Sprintf("Blocks:   %d total, %d rewritable\n", len(extraction.Blocks), len(rewritable)))
	sb.WriteString("\n")

	count := min(len(rewritable), maxItemsToShow)
	for i := 0; i < count; i++ {
		block := rewritable[i]
		text := block.OriginalText
		if len(text) > 45 {
			text = text[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("• [%s] %s\n", block.Role, text))
	}
	if len(rewritable) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more blocks\n", len(rewritable)-maxItemsToShow))
	}

	signals := extraction.Signals
	if signals.Tables > 0 || signals.TextBoxes > 0 || signals.Images > 0 || signals.MultiColumn {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Structure: %d tables, %d text boxes, %d images", signals.Tables, signals.TextBoxes, signals.Images))
		if signals.MultiColumn {
			sb.WriteString(", multi-column")
		}
		sb.WriteString("\n")
	}

	p.printBox("EXTRACTED BLOCKS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRewriteResults outputs the per-block rewrite outcomes.
func (p *Printer) PrintRewriteResults(blocks []types.Block, results map[string]types.RewriteResult) {
	if len(results) == 0 {
		return
	}

	rewritten := 0
	for _, r := range results {
		if r.Source == types.SourceRewritten {
			rewritten++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rewrote %d of %d blocks (%d kept original):\n\n", rewritten, len(results), len(results)-rewritten))

	shown := 0
	for _, block := range blocks {
		result, ok := results[block.ID]
		if !ok {
			continue
		}
		if shown == maxItemsToShow {
			sb.WriteString(fmt.Sprintf("\n... and %d more blocks", len(results)-shown))
			break
		}
		if shown > 0 {
			sb.WriteString("\n")
		}
		shown++

		text := result.FinalText
		if len(text) > 50 {
			text = text[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("• %s\n", text))
		switch result.Source {
		case types.SourceRewritten:
			ratio := constraints.CharRatio(block.OriginalText, result.FinalText)
			sb.WriteString(fmt.Sprintf("  [✓rewritten attempts:%d length ×%.2f]\n", result.Attempts, ratio))
		case types.SourceFallbackOriginal:
			sb.WriteString(fmt.Sprintf("  [⚠original kept attempts:%d]\n", result.Attempts))
		}
	}

	p.printBox("REWRITE RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScore outputs the ATS compatibility score breakdown.
func (p *Printer) PrintScore(score types.AtsScore) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total:       %d / 100\n", score.Total))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Keywords:    %d / 40\n", score.KeywordMatch))
	sb.WriteString(fmt.Sprintf("Relevancy:   %d / 40\n", score.RoleRelevancy))
	sb.WriteString(fmt.Sprintf("Formatting:  %d / 20\n", score.FormattingSimplicity))

	if len(score.MatchedKeywords) > 0 {
		sb.WriteString("\n")
		matched := strings.Join(score.MatchedKeywords, ", ")
		if len(matched) > 45 {
			matched = matched[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("Matched:  %s\n", matched))
	}
	if len(score.MissingKeywords) > 0 {
		missing := strings.Join(score.MissingKeywords, ", ")
		if len(missing) > 45 {
			missing = missing[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("Missing:  %s\n", missing))
	}

	if score.Feedback != "" {
		sb.WriteString("\n")
		sb.WriteString(wrapFeedback(score.Feedback))
	}

	p.printBox("ATS SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDegradedFidelity warns that replacement text was rendered with a
// substitute font.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintDegradedFidelity() {
	fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "⚠ SOME TEXT USES A SUBSTITUTE FONT")
	fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
}

// wrapFeedback breaks the feedback sentence onto box-width lines
func wrapFeedback(feedback string) string {
	words := strings.Fields(feedback)
	var sb strings.Builder
	lineLen := 0
	for _, w := range words {
		if lineLen > 0 && lineLen+1+len(w) > boxWidth-4 {
			sb.WriteString("\n")
			lineLen = 0
		} else if lineLen > 0 {
			sb.WriteString(" ")
			lineLen++
		}
		sb.WriteString(w)
		lineLen += len(w)
	}
	return sb.String()
}
