package pdf

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/jonathan/resume-tailor/internal/sections"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Engine is the PDF extractor/injector pair
type Engine struct{}

// NewEngine creates a PDF engine
func NewEngine() *Engine { return &Engine{} }

// line is a cluster of glyph runs sharing one baseline
type line struct {
	page     int // 0-based
	text     string
	x0, x1   float64
	baseline float64
	fontName string
	fontSize float64
}

// rect returns the line's bounding box: the baseline plus typical ascender
// and descender extents for the dominant font size.
func (l *line) rect() types.Rect {
	return types.Rect{
		X0: l.x0,
		Y0: l.baseline - 0.25*l.fontSize,
		X1: l.x1,
		Y1: l.baseline + 0.80*l.fontSize,
	}
}

// Extract clusters the PDF's positioned text into lines, classifies them into
// sections, and produces the ordered block sequence. The container is never
// mutated.
func (e *Engine) Extract(container []byte) (*types.Extraction, error) {
	reader, err := pdf.NewReader(bytes.NewReader(container), int64(len(container)))
	if err != nil {
		return nil, &types.MalformedContainerError{
			Format:  types.FormatPDF,
			Message: "cannot open PDF",
			Cause:   err,
		}
	}

	var lines []line
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := pageContent(page)
		if err != nil {
			return nil, err
		}
		lines = append(lines, clusterLines(pageNum-1, content)...)
	}

	extraction := &types.Extraction{Signals: formatSignals(container, lines)}

	var fullText []string
	current := sections.SectionNone

	for i := range lines {
		ln := &lines[i]
		text := strings.TrimSpace(ln.text)
		if text == "" {
			continue
		}
		fullText = append(fullText, text)

		if section, isHeading := sections.MatchNormalized(text); isHeading {
			current = section
			continue
		}

		// Unlabelled opening summary: a long role-describing line before any
		// recognized section heading
		if current == sections.SectionNone && sections.LooksLikeSummaryLead(text) {
			current = sections.SectionSummary
		}

		extraction.Blocks = append(extraction.Blocks, types.Block{
			ID:           uuid.NewString(),
			Role:         sections.RoleFor(current),
			OriginalText: text,
			CharCount:    len([]rune(text)),
			PDF: &types.PDFAnchor{
				Page:     ln.page,
				Rect:     ln.rect(),
				FontName: ln.fontName,
				FontSize: ln.fontSize,
				Baseline: ln.baseline,
			},
		})
	}

	extraction.FullText = strings.Join(fullText, "\n")
	return extraction, nil
}

// pageContent reads the page's glyph runs, converting parse panics from the
// underlying reader into malformed-container errors.
func pageContent(page pdf.Page) (content pdf.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &types.MalformedContainerError{
				Format:  types.FormatPDF,
				Message: fmt.Sprintf("cannot parse page content: %v", r),
			}
		}
	}()
	return page.Content(), nil
}

// Baseline and word-gap tolerances for clustering, as fractions of font size
const (
	baselineTolerance = 0.4
	wordGapFactor     = 0.25
)

// clusterLines groups glyph runs by baseline and stitches them into lines,
// inserting spaces where the horizontal gap between runs exceeds the
// word-gap threshold.
func clusterLines(page int, content pdf.Content) []line {
	texts := make([]pdf.Text, len(content.Text))
	copy(texts, content.Text)

	// Top of page first, then left to right
	sort.SliceStable(texts, func(i, j int) bool {
		if texts[i].Y != texts[j].Y {
			return texts[i].Y > texts[j].Y
		}
		return texts[i].X < texts[j].X
	})

	var lines []line
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = 11
		}

		if n := len(lines); n > 0 {
			last := &lines[n-1]
			if last.page == page && math.Abs(last.baseline-t.Y) <= baselineTolerance*size {
				if t.X-last.x1 > wordGapFactor*size && !strings.HasSuffix(last.text, " ") {
					last.text += " "
				}
				last.text += t.S
				if end := t.X + t.W; end > last.x1 {
					last.x1 = end
				}
				if t.X < last.x0 {
					last.x0 = t.X
				}
				continue
			}
		}

		lines = append(lines, line{
			page:     page,
			text:     t.S,
			x0:       t.X,
			x1:       t.X + t.W,
			baseline: t.Y,
			fontName: t.Font,
			fontSize: size,
		})
	}
	return lines
}

// formatSignals derives ATS-relevant structure hints from the raw file and
// the clustered lines. PDFs have no table markup; the multi-column heuristic
// looks for a significant share of lines starting past the page midline.
func formatSignals(container []byte, lines []line) types.FormatSignals {
	signals := types.FormatSignals{
		Images: bytes.Count(container, []byte("/Subtype/Image")) +
			bytes.Count(container, []byte("/Subtype /Image")),
	}

	if len(lines) >= 8 {
		var maxX1 float64
		for i := range lines {
			if lines[i].x1 > maxX1 {
				maxX1 = lines[i].x1
			}
		}
		mid := maxX1 / 2
		rightStarts := 0
		for i := range lines {
			if lines[i].x0 > mid {
				rightStarts++
			}
		}
		signals.MultiColumn = float64(rightStarts) >= 0.3*float64(len(lines))
	}
	return signals
}
