package docx

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/nguyenthenguyen/docx"

	"github.com/jonathan/resume-tailor/internal/sections"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Engine is the DOCX extractor/injector pair
type Engine struct{}

// NewEngine creates a DOCX engine
func NewEngine() *Engine { return &Engine{} }

// readDocument opens the package and returns the raw word/document.xml string
func readDocument(container []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(container), int64(len(container)))
	if err != nil {
		return "", &types.MalformedContainerError{
			Format:  types.FormatDOCX,
			Message: "cannot open DOCX package",
			Cause:   err,
		}
	}
	defer doc.Close()
	return doc.Editable().GetContent(), nil
}

// Extract walks the document body and produces the ordered block sequence.
// The container is never mutated.
func (e *Engine) Extract(container []byte) (*types.Extraction, error) {
	content, err := readDocument(container)
	if err != nil {
		return nil, err
	}

	paragraphs, err := parseDocument(content)
	if err != nil {
		return nil, err
	}

	extraction := &types.Extraction{Signals: formatSignals(content)}

	var fullText []string
	current := sections.SectionNone

	for i := range paragraphs {
		para := &paragraphs[i]
		text := strings.TrimSpace(para.text())
		if text == "" {
			continue
		}
		fullText = append(fullText, text)

		// Headings switch the tracked section and are never emitted as blocks.
		// A bold or styled heading outside the vocabulary keeps the current
		// section; only vocabulary matches change it.
		if section, isHeading := sections.MatchExact(text); isHeading || para.isHeading() {
			if isHeading {
				current = section
			}
			continue
		}

		role := sections.RoleFor(current)
		if para.nested {
			// Text box content: extractable text, but no safe run anchors
			role = types.RoleOther
		}

		extraction.Blocks = append(extraction.Blocks, types.Block{
			ID:           uuid.NewString(),
			Role:         role,
			OriginalText: para.text(),
			CharCount:    len([]rune(para.text())),
			Docx:         anchorFor(i, para),
		})
	}

	extraction.FullText = strings.Join(fullText, "\n")
	return extraction, nil
}

// anchorFor builds the run-range anchor for a paragraph
func anchorFor(index int, para *paragraph) *types.DocxAnchor {
	anchor := &types.DocxAnchor{Paragraph: index}
	for _, seg := range para.segments {
		anchor.Runs = append(anchor.Runs, types.RunRange{
			Start: seg.start,
			End:   seg.end,
			Chars: len([]rune(seg.text)),
			Bold:  seg.bold,
		})
	}
	return anchor
}

var multiColumnPattern = regexp.MustCompile(`<w:cols[^>]*w:num="([2-9]|\d{2,})"`)

// formatSignals counts the structural features that feed the ATS
// formatting-simplicity sub-score.
func formatSignals(content string) types.FormatSignals {
	return types.FormatSignals{
		Tables:      strings.Count(content, "<w:tbl>") + strings.Count(content, "<w:tbl "),
		TextBoxes:   strings.Count(content, "<w:txbxContent"),
		Images:      strings.Count(content, "<w:drawing") + strings.Count(content, "<w:pict"),
		MultiColumn: multiColumnPattern.MatchString(content),
	}
}
