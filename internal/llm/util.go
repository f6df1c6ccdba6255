// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock extracts the JSON payload from an LLM response. Models often
// wrap JSON in ```json fences or surround it with conversational text even
// when instructed not to; this strips both.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	// Strip preamble and trailing commentary around the first JSON value
	if payload := firstJSONPayload(text); payload != "" {
		return payload
	}
	return text
}

// ExtractJSONObject returns the first balanced JSON object in text, or ""
// when none is found.
func ExtractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

// ExtractJSONArray returns the first balanced JSON array in text, or "" when
// none is found.
func ExtractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

// firstJSONPayload returns whichever JSON value starts first in the text
func firstJSONPayload(text string) string {
	objIdx := strings.IndexByte(text, '{')
	arrIdx := strings.IndexByte(text, '[')
	switch {
	case objIdx < 0 && arrIdx < 0:
		return ""
	case arrIdx < 0 || (objIdx >= 0 && objIdx < arrIdx):
		return ExtractJSONObject(text)
	default:
		return ExtractJSONArray(text)
	}
}

// extractBalanced scans for a balanced open/close pair, ignoring delimiters
// inside JSON string literals.
func extractBalanced(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
