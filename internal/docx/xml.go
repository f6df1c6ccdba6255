// Package docx implements the structural extractor and injector for DOCX
// containers. The package zip is opened with the nguyenthenguyen/docx library;
// the run-level surgery happens on word/document.xml through an
// offset-preserving tokenizer, so injection splices replacement text into the
// exact byte ranges of <w:t> content and touches nothing else.
package docx

import (
	"strings"

	"github.com/jonathan/resume-tailor/internal/types"
)

// textSegment is the content of one <w:t> element: byte offsets into the raw
// document.xml string plus the unescaped text and the owning run's bold flag.
type textSegment struct {
	start int
	end   int
	text  string
	bold  bool
}

// paragraph is one <w:p> element of the document body
type paragraph struct {
	style    string
	segments []textSegment
	nested   bool // contains nested paragraphs (text box content); never rewritten
}

// text returns the paragraph's concatenated run text
func (p *paragraph) text() string {
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteString(seg.text)
	}
	return b.String()
}

// allBold reports whether every non-empty run of the paragraph is bold
func (p *paragraph) allBold() bool {
	sawText := false
	for _, seg := range p.segments {
		if strings.TrimSpace(seg.text) == "" {
			continue
		}
		sawText = true
		if !seg.bold {
			return false
		}
	}
	return sawText
}

// isHeading reports whether the paragraph acts as a section heading: a
// heading style, or all runs bold.
func (p *paragraph) isHeading() bool {
	if strings.Contains(strings.ToLower(p.style), "heading") {
		return true
	}
	return p.allBold()
}

// parseDocument tokenizes document.xml into paragraphs, recording the byte
// range of every <w:t> content segment. The tokenizer never rewrites the
// input; offsets index into the exact string passed in.
func parseDocument(xml string) ([]paragraph, error) {
	var paragraphs []paragraph

	pos := 0
	for {
		pStart := findTag(xml, "w:p", pos)
		if pStart < 0 {
			break
		}
		pEnd := matchingClose(xml, "w:p", pStart)
		if pEnd < 0 {
			return nil, &types.MalformedContainerError{
				Format:  types.FormatDOCX,
				Message: "unterminated <w:p> element in document.xml",
			}
		}
		body := xml[pStart:pEnd]
		para := parseParagraph(xml, pStart, pEnd)
		para.nested = findTag(body[tagLen(body):], "w:p", 0) >= 0
		paragraphs = append(paragraphs, para)
		pos = pEnd
	}
	return paragraphs, nil
}

// parseParagraph extracts the style and text segments of one paragraph.
// start/end delimit the paragraph within xml.
func parseParagraph(xml string, start, end int) paragraph {
	para := paragraph{}
	body := xml[start:end]

	if styleStart := strings.Index(body, "<w:pStyle"); styleStart >= 0 {
		para.style = attrValue(body[styleStart:], "w:val")
	}

	pos := 0
	for {
		rStart := findTag(body, "w:r", pos)
		if rStart < 0 {
			break
		}
		rEnd := matchingClose(body, "w:r", rStart)
		if rEnd < 0 {
			break
		}
		run := body[rStart:rEnd]
		bold := runIsBold(run)

		// Every <w:t> inside this run
		tPos := 0
		for {
			tStart := findTag(run, "w:t", tPos)
			if tStart < 0 {
				break
			}
			openEnd := strings.IndexByte(run[tStart:], '>')
			if openEnd < 0 {
				break
			}
			if run[tStart+openEnd-1] == '/' { // self-closing empty <w:t/>
				tPos = tStart + openEnd + 1
				continue
			}
			contentStart := tStart + openEnd + 1
			closeIdx := strings.Index(run[contentStart:], "</w:t>")
			if closeIdx < 0 {
				break
			}
			contentEnd := contentStart + closeIdx
			para.segments = append(para.segments, textSegment{
				start: start + rStart + contentStart,
				end:   start + rStart + contentEnd,
				text:  unescapeText(run[contentStart:contentEnd]),
				bold:  bold,
			})
			tPos = contentEnd
		}
		pos = rEnd
	}
	return para
}

// runIsBold reports whether the run's properties mark it bold. A <w:b/>
// toggle with w:val of "0" or "false" explicitly disables bold.
func runIsBold(run string) bool {
	propsStart := findTag(run, "w:rPr", 0)
	if propsStart < 0 {
		return false
	}
	propsEnd := matchingClose(run, "w:rPr", propsStart)
	if propsEnd < 0 {
		return false
	}
	props := run[propsStart:propsEnd]
	bStart := findTag(props, "w:b", 0)
	if bStart < 0 {
		return false
	}
	val := attrValue(props[bStart:], "w:val")
	return val != "0" && val != "false"
}

// findTag returns the index of the next opening tag with the exact given name
// at or after pos, or -1. Matches "<name>", "<name ", and "<name/"; it never
// matches longer names sharing the prefix (w:p vs w:pPr).
func findTag(s, name string, pos int) int {
	needle := "<" + name
	for {
		idx := strings.Index(s[pos:], needle)
		if idx < 0 {
			return -1
		}
		idx += pos
		after := idx + len(needle)
		if after < len(s) {
			switch s[after] {
			case '>', ' ', '/', '\t', '\n', '\r':
				return idx
			}
		}
		pos = idx + 1
	}
}

// matchingClose returns the index just past the matching close tag for the
// element opening at start, handling nested elements of the same name.
// Returns -1 when unbalanced. Self-closing elements end at their own tag.
func matchingClose(s, name string, start int) int {
	closeTag := "</" + name + ">"

	// Self-closing?
	gt := strings.IndexByte(s[start:], '>')
	if gt < 0 {
		return -1
	}
	if s[start+gt-1] == '/' {
		return start + gt + 1
	}

	depth := 1
	pos := start + gt + 1
	for depth > 0 {
		nextOpen := findTag(s, name, pos)
		nextClose := strings.Index(s[pos:], closeTag)
		if nextClose < 0 {
			return -1
		}
		nextClose += pos
		if nextOpen >= 0 && nextOpen < nextClose {
			// Skip self-closing nested tags; they do not add depth
			g := strings.IndexByte(s[nextOpen:], '>')
			if g < 0 {
				return -1
			}
			if s[nextOpen+g-1] != '/' {
				depth++
			}
			pos = nextOpen + g + 1
			continue
		}
		depth--
		pos = nextClose + len(closeTag)
	}
	return pos
}

// tagLen returns the length of the opening tag at the start of s
func tagLen(s string) int {
	if gt := strings.IndexByte(s, '>'); gt >= 0 {
		return gt + 1
	}
	return len(s)
}

// attrValue extracts an attribute value from the tag at the start of s
func attrValue(s, attr string) string {
	gt := strings.IndexByte(s, '>')
	if gt < 0 {
		return ""
	}
	tag := s[:gt]
	needle := attr + `="`
	idx := strings.Index(tag, needle)
	if idx < 0 {
		return ""
	}
	rest := tag[idx+len(needle):]
	if quote := strings.IndexByte(rest, '"'); quote >= 0 {
		return rest[:quote]
	}
	return ""
}

var (
	textUnescaper = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
)

// unescapeText decodes the XML character entities found in run text
func unescapeText(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	return textUnescaper.Replace(s)
}

// escapeText encodes replacement text for insertion into a <w:t> element
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
