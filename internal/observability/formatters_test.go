package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintExtraction(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	extraction := &types.Extraction{
		Blocks: []types.Block{
			{ID: "b0", Role: types.RoleOther, OriginalText: "Jane Doe"},
			{ID: "b1", Role: types.RoleSummary, OriginalText: "Backend engineer focused on reliability."},
			{ID: "b2", Role: types.RoleExperienceBullet, OriginalText: "Led a team of 3 engineers to ship v2."},
		},
		Signals: types.FormatSignals{Tables: 1, MultiColumn: true},
	}

	p.PrintExtraction(extraction, types.FormatDOCX)
	output := buf.String()

	assert.Contains(t, output, "EXTRACTED BLOCKS")
	assert.Contains(t, output, "docx")
	assert.Contains(t, output, "3 total, 2 rewritable")
	assert.Contains(t, output, "summary")
	assert.Contains(t, output, "Led a team of 3 engineers to ship v2.")
	assert.Contains(t, output, "1 tables")
	assert.Contains(t, output, "multi-column")
	// Non-rewritable blocks stay out of the listing
	assert.NotContains(t, output, "Jane Doe")
}

func TestPrintExtraction_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintExtraction(nil, types.FormatDOCX)

	assert.Empty(t, buf.String())
}

func TestPrintRewriteResults(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	blocks := []types.Block{
		{ID: "b1", Role: types.RoleSummary, OriginalText: "old summary"},
		{ID: "b2", Role: types.RoleExperienceBullet, OriginalText: "old bullet"},
	}
	results := map[string]types.RewriteResult{
		"b1": {BlockID: "b1", FinalText: "new summary", Source: types.SourceRewritten, Attempts: 1},
		"b2": {BlockID: "b2", FinalText: "old bullet", Source: types.SourceFallbackOriginal, Attempts: 3},
	}

	p.PrintRewriteResults(blocks, results)
	output := buf.String()

	assert.Contains(t, output, "REWRITE RESULTS")
	assert.Contains(t, output, "Rewrote 1 of 2 blocks (1 kept original)")
	assert.Contains(t, output, "new summary")
	// "old summary" and "new summary" are both 11 chars
	assert.Contains(t, output, "✓rewritten attempts:1 length ×1.00")
	assert.Contains(t, output, "⚠original kept attempts:3")
}

func TestPrintRewriteResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRewriteResults(nil, nil)

	assert.Empty(t, buf.String())
}

func TestPrintScore(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintScore(types.AtsScore{
		Total:                72,
		KeywordMatch:         28,
		RoleRelevancy:        24,
		FormattingSimplicity: 20,
		MatchedKeywords:      []string{"go", "kubernetes"},
		MissingKeywords:      []string{"terraform"},
		Feedback:             "Moderate ATS alignment. Document structure parses cleanly.",
	})
	output := buf.String()

	assert.Contains(t, output, "ATS SCORE")
	assert.Contains(t, output, "72 / 100")
	assert.Contains(t, output, "28 / 40")
	assert.Contains(t, output, "20 / 20")
	assert.Contains(t, output, "go, kubernetes")
	assert.Contains(t, output, "terraform")
	assert.Contains(t, output, "Moderate ATS alignment.")
}

func TestPrintDegradedFidelity(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDegradedFidelity()

	assert.Contains(t, buf.String(), "SUBSTITUTE FONT")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	extraction := &types.Extraction{
		Blocks: []types.Block{
			{
				ID:           "b1",
				Role:         types.RoleSummary,
				OriginalText: "A very long summary line that should be truncated to fit inside the output box without breaking the border",
			},
		},
	}

	p.PrintExtraction(extraction, types.FormatPDF)
	output := buf.String()

	// Should contain box characters
	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.True(t, strings.Contains(output, "│"))
	assert.Contains(t, output, "...")
}

func TestWrapFeedback(t *testing.T) {
	wrapped := wrapFeedback("Strong ATS alignment. Missing keywords to consider: terraform, helm, prometheus. Document structure parses cleanly.")
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), boxWidth-4)
	}
	assert.Contains(t, wrapped, "terraform")
}
