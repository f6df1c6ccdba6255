// Package sections classifies resume lines into semantic sections by matching
// heading text against a small canonical vocabulary. Classification is a pure
// function of the text and its position; it happens once during extraction.
package sections

import (
	"strings"

	"github.com/jonathan/resume-tailor/internal/types"
)

// Section is the semantic section a block of resume text belongs to
type Section string

// Section constants
const (
	// SectionNone means outside any tracked section
	SectionNone Section = ""
	// SectionSummary is the summary/profile/objective section
	SectionSummary Section = "summary"
	// SectionExperience is the work experience section
	SectionExperience Section = "experience"
)

// Canonical heading vocabulary. A heading either opens a tracked section or,
// for the stop set, closes the current one (education, skills, and similar
// sections are never rewritten).
var (
	summaryHeadings = map[string]bool{
		"summary":              true,
		"professional summary": true,
		"professional profile": true,
		"profile":              true,
		"objective":            true,
		"career objective":     true,
		"about me":             true,
		"about":                true,
		"overview":             true,
		"executive summary":    true,
		"statement":            true,
		"background":           true,
	}
	experienceHeadings = map[string]bool{
		"experience":              true,
		"work experience":         true,
		"professional experience": true,
		"professional history":    true,
		"employment":              true,
		"employment history":      true,
		"career":                  true,
		"work":                    true,
		"history":                 true,
		"work history":            true,
	}
	stopHeadings = map[string]bool{
		"education":      true,
		"skills":         true,
		"certifications": true,
		"certs":          true,
		"projects":       true,
		"awards":         true,
		"languages":      true,
		"references":     true,
		"volunteer":      true,
		"volunteering":   true,
		"organizations":  true,
		"publications":   true,
		"affiliations":   true,
		"interests":      true,
		"links":          true,
	}
)

// summaryLeadTerms mark a long opening line as an implicit summary when the
// resume has no explicit summary heading.
var summaryLeadTerms = []string{"engineer", "developer", "experience", "specialist", "professional"}

// maxHeadingLen bounds exact heading matches; longer lines are body text even
// if they happen to contain a vocabulary word.
const maxHeadingLen = 60

// MatchExact matches a trimmed, lowercased line against the vocabulary.
// The boolean reports whether the line is a section heading at all; a heading
// from the stop set returns SectionNone. Used by the DOCX extractor, where
// headings are whole paragraphs.
func MatchExact(text string) (Section, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" || len(t) >= maxHeadingLen {
		return SectionNone, false
	}
	switch {
	case summaryHeadings[t]:
		return SectionSummary, true
	case experienceHeadings[t]:
		return SectionExperience, true
	case stopHeadings[t]:
		return SectionNone, true
	}
	return SectionNone, false
}

// MatchNormalized matches a line after stripping everything but letters.
// PDF extraction yields lines with decorative glyphs and uneven spacing
// ("W O R K   E X P E R I E N C E"), so the match uses the word set and the
// condensed no-space form instead of the raw text.
func MatchNormalized(text string) (Section, bool) {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	norm := strings.Join(strings.Fields(b.String()), " ")
	if len(norm) < 1 || len(norm) > 50 {
		return SectionNone, false
	}
	condensed := strings.ReplaceAll(norm, " ", "")

	match := func(vocab map[string]bool) bool {
		for _, w := range strings.Fields(norm) {
			if vocab[w] {
				return true
			}
		}
		for phrase := range vocab {
			if strings.Contains(phrase, " ") && condensed == strings.ReplaceAll(phrase, " ", "") {
				return true
			}
		}
		return false
	}

	switch {
	case match(summaryHeadings):
		return SectionSummary, true
	case match(experienceHeadings):
		return SectionExperience, true
	case match(stopHeadings):
		return SectionNone, true
	}
	return SectionNone, false
}

// LooksLikeSummaryLead reports whether a line outside any section reads like
// the opening of an unlabelled summary: more than ten words and at least one
// role-describing term. Resumes often open with such a paragraph and no
// "Summary" heading above it.
func LooksLikeSummaryLead(text string) bool {
	lower := strings.ToLower(text)
	if len(strings.Fields(lower)) <= 10 {
		return false
	}
	for _, term := range summaryLeadTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// RoleFor maps a section to the block role recorded on extracted blocks
func RoleFor(s Section) types.BlockRole {
	switch s {
	case SectionSummary:
		return types.RoleSummary
	case SectionExperience:
		return types.RoleExperienceBullet
	default:
		return types.RoleOther
	}
}
