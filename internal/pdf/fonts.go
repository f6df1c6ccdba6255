// Package pdf implements the structural extractor and injector for PDF
// containers. Extraction clusters positioned glyph runs from the content
// stream into lines and blocks; injection appends an incremental update that
// masks the original glyphs and overlays replacement text at the same
// baseline using the closest available standard font.
package pdf

import "strings"

// Standard Type1 base fonts used for overlays. PDF readers ship these, so the
// overlay never depends on the original file's embedded fonts.
const (
	fontHelvetica        = "Helvetica"
	fontHelveticaBold    = "Helvetica-Bold"
	fontHelveticaOblique = "Helvetica-Oblique"
	fontTimesRoman       = "Times-Roman"
	fontTimesBold        = "Times-Bold"
	fontTimesItalic      = "Times-Italic"
	fontTimesBoldItalic  = "Times-BoldItalic"
)

// serifFamilies are font-family fragments that map to a serif substitute
var serifFamilies = []string{"times", "serif", "georgia", "garamond", "book", "cambria"}

// mapFont picks the metrically-closest standard font for an extracted font
// name and reports whether the substitution degrades fidelity (the original
// was not already one of the standard faces). Subset prefixes like
// "ABCDEF+Calibri-Bold" are stripped before matching.
func mapFont(fontName string) (base string, degraded bool) {
	name := strings.ToLower(baseFontName(fontName))

	bold := strings.Contains(name, "bold") || strings.Contains(name, "heavy") || strings.Contains(name, "black")
	italic := strings.Contains(name, "italic") || strings.Contains(name, "oblique")
	serif := false
	for _, family := range serifFamilies {
		if strings.Contains(name, family) {
			serif = true
			break
		}
	}

	switch {
	case serif && bold && italic:
		base = fontTimesBoldItalic
	case serif && bold:
		base = fontTimesBold
	case serif && italic:
		base = fontTimesItalic
	case serif:
		base = fontTimesRoman
	case bold && italic:
		base = fontTimesBoldItalic
	case bold:
		base = fontHelveticaBold
	case italic:
		base = fontHelveticaOblique
	default:
		base = fontHelvetica
	}

	degraded = !strings.EqualFold(baseFontName(fontName), base)
	return base, degraded
}

// baseFontName strips the six-letter subset prefix ("ABCDEF+") when present
func baseFontName(fontName string) string {
	if idx := strings.IndexByte(fontName, '+'); idx == 6 {
		return fontName[idx+1:]
	}
	return fontName
}

// charWidth estimates the advance width of a character in a standard face, as
// a fraction of the font size. Exact AFM metrics are overkill for reflow
// estimation; class-based widths keep lines safely inside the bounding box.
func charWidth(r rune) float64 {
	switch {
	case strings.ContainsRune("iljtf.,:;'!|()[]", r):
		return 0.30
	case strings.ContainsRune("mwMW@", r):
		return 0.89
	case r >= 'A' && r <= 'Z':
		return 0.72
	case r == ' ':
		return 0.28
	default:
		return 0.52
	}
}

// textWidth estimates the rendered width of a string at a font size
func textWidth(s string, fontSize float64) float64 {
	var w float64
	for _, r := range s {
		w += charWidth(r)
	}
	return w * fontSize
}
