package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/resume-tailor/internal/types"
)

// token is one lexical unit of a content stream. raw preserves the exact
// source text so untouched operators round-trip unchanged.
type token struct {
	raw string
	op  bool // true for operators, false for operands
}

// tokenizeContent splits a content stream into operand and operator tokens.
// Strings, hex strings, arrays, dictionaries, and inline images are kept as
// single operand tokens.
func tokenizeContent(stream []byte) ([]token, error) {
	var tokens []token
	i := 0
	n := len(stream)

	for i < n {
		c := stream[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0:
			i++
		case c == '%':
			for i < n && stream[i] != '\n' {
				i++
			}
		case c == '(':
			end, err := literalStringEnd(stream, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{raw: string(stream[i:end])})
			i = end
		case c == '<' && i+1 < n && stream[i+1] == '<':
			end, err := balancedEnd(stream, i, "<<", ">>")
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{raw: string(stream[i:end])})
			i = end
		case c == '<':
			end := bytes.IndexByte(stream[i:], '>')
			if end < 0 {
				return nil, fmt.Errorf("unterminated hex string")
			}
			tokens = append(tokens, token{raw: string(stream[i : i+end+1])})
			i += end + 1
		case c == '[':
			end, err := balancedEnd(stream, i, "[", "]")
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{raw: string(stream[i:end])})
			i = end
		case c == '/':
			j := i + 1
			for j < n && !isDelimiter(stream[j]) {
				j++
			}
			tokens = append(tokens, token{raw: string(stream[i:j])})
			i = j
		case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < n && (stream[j] == '.' || (stream[j] >= '0' && stream[j] <= '9')) {
				j++
			}
			tokens = append(tokens, token{raw: string(stream[i:j])})
			i = j
		default:
			j := i
			for j < n && !isDelimiter(stream[j]) {
				j++
			}
			if j == i {
				j++ // lone delimiter, pass through
			}
			word := string(stream[i:j])
			if word == "BI" {
				// Inline image: copy through to EI as one opaque token
				end := bytes.Index(stream[i:], []byte("EI"))
				if end < 0 {
					return nil, fmt.Errorf("unterminated inline image")
				}
				tokens = append(tokens, token{raw: string(stream[i : i+end+2]), op: true})
				i += end + 2
				continue
			}
			tokens = append(tokens, token{raw: word, op: true})
			i = j
		}
	}
	return tokens, nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// literalStringEnd finds the end of a (...) string, honoring escapes and
// balanced nested parentheses.
func literalStringEnd(stream []byte, start int) (int, error) {
	depth := 0
	for i := start; i < len(stream); i++ {
		switch stream[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated string literal")
}

// balancedEnd finds the end of a balanced open/close pair, skipping string
// literals so parentheses inside strings cannot unbalance the scan.
func balancedEnd(stream []byte, start int, open, close string) (int, error) {
	depth := 0
	i := start
	for i < len(stream) {
		if stream[i] == '(' {
			end, err := literalStringEnd(stream, i)
			if err != nil {
				return 0, err
			}
			i = end
			continue
		}
		if bytes.HasPrefix(stream[i:], []byte(open)) {
			depth++
			i += len(open)
			continue
		}
		if bytes.HasPrefix(stream[i:], []byte(close)) {
			depth--
			i += len(close)
			if depth == 0 {
				return i, nil
			}
			continue
		}
		i++
	}
	return 0, fmt.Errorf("unbalanced %s...%s", open, close)
}

// textState tracks the pieces of the text object state needed to position
// show operators: the text and line matrices' translation, leading, and font
// size. Rotated or skewed text matrices are approximated by their
// translation, which is exact for the horizontal text resumes use.
type textState struct {
	x, y     float64 // current text position (tm translation)
	lx, ly   float64 // line start position (tlm translation)
	leading  float64
	fontSize float64
}

func (s *textState) nextLine(tx, ty float64) {
	s.lx += tx
	s.ly += ty
	s.x = s.lx
	s.y = s.ly
}

// redactShows removes every text-showing operator whose current position
// falls inside one of the redaction rectangles, leaving all positioning and
// graphics operators untouched. The ' and " operators keep their line
// advance by degrading to T*.
func redactShows(stream []byte, redactions []types.Rect) ([]byte, error) {
	tokens, err := tokenizeContent(stream)
	if err != nil {
		return nil, err
	}

	// Positions within this tolerance of a rect still count as inside; PDF
	// producers jitter baselines by fractions of a point.
	const pad = 2.0

	inside := func(x, y float64) bool {
		for _, r := range redactions {
			if x >= r.X0-pad && x <= r.X1+pad && y >= r.Y0-pad && y <= r.Y1+pad {
				return true
			}
		}
		return false
	}

	var out []string
	var operands []token
	var state textState

	flush := func() {
		for _, t := range operands {
			out = append(out, t.raw)
		}
		operands = operands[:0]
	}

	num := func(idx int) float64 {
		// Operand idx counted from the end: -1 is the last operand
		pos := len(operands) + idx
		if pos < 0 || pos >= len(operands) {
			return 0
		}
		v, _ := strconv.ParseFloat(operands[pos].raw, 64)
		return v
	}

	for _, t := range tokens {
		if !t.op {
			operands = append(operands, t)
			continue
		}

		switch t.raw {
		case "BT":
			state = textState{fontSize: state.fontSize}
		case "Tf":
			state.fontSize = num(-1)
		case "TL":
			state.leading = num(-1)
		case "Td":
			state.nextLine(num(-2), num(-1))
		case "TD":
			state.leading = -num(-1)
			state.nextLine(num(-2), num(-1))
		case "Tm":
			state.lx, state.ly = num(-2), num(-1)
			state.x, state.y = state.lx, state.ly
		case "T*":
			state.nextLine(0, -state.leading)
		case "Tj", "TJ":
			if inside(state.x, state.y) {
				operands = operands[:0]
				continue
			}
		case "'":
			state.nextLine(0, -state.leading)
			if inside(state.x, state.y) {
				operands = operands[:0]
				out = append(out, "T*")
				continue
			}
		case "\"":
			state.nextLine(0, -state.leading)
			if inside(state.x, state.y) {
				operands = operands[:0]
				out = append(out, "T*")
				continue
			}
		}

		flush()
		out = append(out, t.raw)
	}
	flush()

	return []byte(strings.Join(out, " ")), nil
}

// overlay is one block of replacement text to paint: pre-wrapped lines at a
// fixed left margin and baseline, stepping down by leading per line.
type overlay struct {
	fontAlias string
	fontSize  float64
	leading   float64
	x         float64
	baseline  float64
	lines     []string
}

// appendMasksAndOverlays writes the redaction masks (white fills) and overlay
// text objects after the redacted content, so they paint over anything the
// position-based redaction could not attribute.
func appendMasksAndOverlays(buf *bytes.Buffer, masks []types.Rect, overlays []overlay) {
	for _, r := range masks {
		fmt.Fprintf(buf, "\nq 1 1 1 rg %s %s %s %s re f Q",
			fnum(r.X0), fnum(r.Y0), fnum(r.Width()), fnum(r.Height()))
	}
	for _, ov := range overlays {
		fmt.Fprintf(buf, "\nBT %s %s Tf %s TL 0 0 0 rg 1 0 0 1 %s %s Tm",
			ov.fontAlias, fnum(ov.fontSize), fnum(ov.leading), fnum(ov.x), fnum(ov.baseline))
		for i, lineText := range ov.lines {
			if i > 0 {
				buf.WriteString(" T*")
			}
			fmt.Fprintf(buf, " (%s) Tj", escapeString(lineText))
		}
		buf.WriteString(" ET")
	}
	buf.WriteByte('\n')
}

// wrapText greedily wraps replacement text to fit the given width at the
// given font size. The ±5% budget upstream means this nearly always yields
// the same line count as the original; the reflow guard exists for the edge
// where a slightly longer replacement would otherwise escape the bounding
// box.
func wrapText(text string, width, fontSize float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		if textWidth(current+" "+w, fontSize) <= width {
			current += " " + w
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current)
}

// escapeString encodes text for a PDF literal string. Characters outside
// Latin-1 have no WinAnsi encoding and degrade to '?'.
func escapeString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r >= 32 && r < 127:
			b.WriteRune(r)
		case r >= 127 && r <= 255:
			fmt.Fprintf(&b, "\\%03o", r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

// fnum formats a coordinate with minimal trailing zeros
func fnum(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
