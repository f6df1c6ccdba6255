package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapFont_StandardFaces(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		base     string
		degraded bool
	}{
		{"already helvetica", "Helvetica", fontHelvetica, false},
		{"already bold", "Helvetica-Bold", fontHelveticaBold, false},
		{"calibri", "Calibri", fontHelvetica, true},
		{"calibri bold", "Calibri-Bold", fontHelveticaBold, true},
		{"subset prefix", "ABCDEF+Calibri-Bold", fontHelveticaBold, true},
		{"times stays serif", "Times-Roman", fontTimesRoman, false},
		{"georgia italic", "Georgia-Italic", fontTimesItalic, true},
		{"garamond bold italic", "Garamond-BoldItalic", fontTimesBoldItalic, true},
		{"arial oblique", "Arial-Oblique", fontHelveticaOblique, true},
		{"heavy counts as bold", "Roboto-Heavy", fontHelveticaBold, true},
		{"unknown", "SomeCustomFace", fontHelvetica, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			base, degraded := mapFont(tc.in)
			assert.Equal(t, tc.base, base)
			assert.Equal(t, tc.degraded, degraded)
		})
	}
}

func TestBaseFontName_StripsSubsetPrefixOnly(t *testing.T) {
	assert.Equal(t, "Calibri", baseFontName("ABCDEF+Calibri"))
	// A plus elsewhere is part of the name, not a subset tag
	assert.Equal(t, "C+Odd", baseFontName("C+Odd"))
	assert.Equal(t, "Helvetica", baseFontName("Helvetica"))
}

func TestTextWidth_ScalesWithSizeAndLength(t *testing.T) {
	short := textWidth("abc", 11)
	long := textWidth("abcdef", 11)
	assert.Greater(t, long, short)

	small := textWidth("hello world", 9)
	big := textWidth("hello world", 12)
	assert.Greater(t, big, small)

	// Narrow glyph classes measure narrower than wide ones
	assert.Less(t, textWidth("illl", 11), textWidth("WWWW", 11))
}
