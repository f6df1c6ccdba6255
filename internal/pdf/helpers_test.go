package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// buildPDF assembles a single-page PDF with an uncompressed content stream
// and a classic cross-reference table. Each entry of contentLines becomes one
// BT..ET text object.
func buildPDF(t *testing.T, contentLines []string) []byte {
	t.Helper()

	content := strings.Join(contentLines, "\n")

	// Uniform glyph widths keep the reader's position arithmetic simple and
	// deterministic: every character advances half the font size.
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))

	bodies := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(bodies)+1)
	for i, body := range bodies {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(bodies)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(bodies); i++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offsets[i], 0)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(bodies)+1, xrefOffset)

	return buf.Bytes()
}

// textObject renders one positioned line as a BT..ET block
func textObject(x, y float64, size float64, text string) string {
	return fmt.Sprintf("BT /F1 %s Tf %s %s Td (%s) Tj ET", fnum(size), fnum(x), fnum(y), escapeString(text))
}

// resumeContent is the standard fixture: a labelled summary, an experience
// section with two bullets, and a trailing education line.
func resumeContent() []string {
	return []string{
		textObject(72, 720, 12, "Summary"),
		textObject(72, 700, 11, "Seasoned platform engineer improving delivery speed."),
		textObject(72, 670, 12, "Experience"),
		textObject(72, 650, 11, "Led a team of 3 engineers to ship v2."),
		textObject(72, 630, 11, "Maintained CI pipelines with 99.9% uptime."),
		textObject(72, 600, 12, "Education"),
		textObject(72, 580, 11, "BS Computer Science"),
	}
}
