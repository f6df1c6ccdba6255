// Package constraints validates candidate rewrite text against the original
// block before it is allowed back into the document: a symmetric character
// budget and a fabrication check for claims absent from the source resume.
package constraints

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/resume-tailor/internal/types"
)

// RejectReason identifies why a candidate was rejected
type RejectReason string

// Reject reason constants
const (
	// ReasonLengthOutOfBounds means the candidate's character count deviates
	// from the original by more than the tolerance
	ReasonLengthOutOfBounds RejectReason = "length_out_of_bounds"
	// ReasonFabricationSuspected means the candidate introduces claim markers
	// (experience years, certifications, employer names) not present anywhere
	// in the original document
	ReasonFabricationSuspected RejectReason = "fabrication_suspected"
	// ReasonEmptyOrDegenerate means the candidate is empty or whitespace-only
	ReasonEmptyOrDegenerate RejectReason = "empty_or_degenerate"
)

// Result is the enforcer's verdict on one candidate
type Result struct {
	Accepted bool
	Reason   RejectReason
	Detail   string
}

// DefaultTolerance is the symmetric character-count tolerance relative to the
// original text. The downstream injectors rely on this budget: PDF overlay
// reflows within the original bounding box only when replacements stay close
// to the original length.
const DefaultTolerance = 0.05

// Enforcer validates candidates against one document. It is pure and
// side-effect-free; it never calls the rewrite service.
type Enforcer struct {
	tolerance    float64
	documentText string // lowercased full text of the original document
}

// New creates an Enforcer for a document. documentText is the complete
// original text; fabrication checks look for claim markers absent from it.
// A non-positive tolerance falls back to DefaultTolerance.
func New(documentText string, tolerance float64) *Enforcer {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Enforcer{
		tolerance:    tolerance,
		documentText: strings.ToLower(documentText),
	}
}

// Tolerance returns the enforcer's character-count tolerance
func (e *Enforcer) Tolerance() float64 { return e.tolerance }

// Check validates a candidate replacement for a block. The role does not
// change the rules today but is part of the contract so role-specific
// tightening can be added without touching callers.
func (e *Enforcer) Check(original, candidate string, role types.BlockRole) Result {
	if strings.TrimSpace(candidate) == "" {
		return Result{Reason: ReasonEmptyOrDegenerate, Detail: "candidate is empty or whitespace-only"}
	}

	origLen := utf8.RuneCountInString(original)
	candLen := utf8.RuneCountInString(candidate)
	budget := float64(origLen) * e.tolerance
	diff := candLen - origLen
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) > budget {
		return Result{
			Reason: ReasonLengthOutOfBounds,
			Detail: fmt.Sprintf("candidate is %d chars, original is %d (allowed deviation %.0f)", candLen, origLen, budget),
		}
	}

	if marker := e.findFabrication(candidate); marker != "" {
		return Result{
			Reason: ReasonFabricationSuspected,
			Detail: fmt.Sprintf("introduces %q which does not appear in the original document", marker),
		}
	}

	return Result{Accepted: true}
}

// yearsClaimPattern matches numeric experience-year claims like "10+ years"
var yearsClaimPattern = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*years?`)

// certificationMarkers are tokens that signal a certification claim
var certificationMarkers = []string{
	"certified", "certification", "certificate",
	"pmp", "cissp", "ccna", "cpa", "cfa", "scrum master",
}

// employerSuffixes end a capitalized phrase that names a company
var employerSuffixes = []string{"inc", "inc.", "llc", "ltd", "ltd.", "corp", "corp.", "gmbh", "co."}

// findFabrication returns the first unsubstantiated claim marker found in the
// candidate, or "" when none is found. A marker is unsubstantiated when it
// does not appear anywhere in the original document's full text.
func (e *Enforcer) findFabrication(candidate string) string {
	lower := strings.ToLower(candidate)

	// Numeric experience-years not present in the original
	for _, m := range yearsClaimPattern.FindAllString(candidate, -1) {
		if !strings.Contains(e.documentText, strings.ToLower(normalizeSpaces(m))) &&
			!strings.Contains(e.documentText, yearsDigits(m)) {
			return normalizeSpaces(m)
		}
	}

	// Certification titles not present in the original
	for _, marker := range certificationMarkers {
		if idx := strings.Index(lower, marker); idx >= 0 && !strings.Contains(e.documentText, marker) {
			return candidate[idx : idx+len(marker)]
		}
	}

	// Capitalized phrases ending in a company suffix, naming an employer the
	// original never mentions
	for _, phrase := range capitalizedPhrases(candidate) {
		words := strings.Fields(strings.ToLower(phrase))
		last := words[len(words)-1]
		for _, suffix := range employerSuffixes {
			if last == suffix && !strings.Contains(e.documentText, strings.ToLower(phrase)) {
				return phrase
			}
		}
	}

	return ""
}

// capitalizedPhrases returns maximal runs of consecutive capitalized words,
// excluding single sentence-initial words.
func capitalizedPhrases(text string) []string {
	words := strings.Fields(text)
	var phrases []string
	var current []string
	for i, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(r) {
			current = append(current, w)
			continue
		}
		if len(current) > 1 || (len(current) == 1 && i > 1) {
			phrases = append(phrases, strings.Join(current, " "))
		}
		current = nil
	}
	if len(current) > 1 {
		phrases = append(phrases, strings.Join(current, " "))
	}
	return phrases
}

// yearsDigits extracts just the digits from a years claim, so "10 years" in
// the candidate matches "10yrs" or "10 years" in the original.
func yearsDigits(claim string) string {
	var b strings.Builder
	for _, r := range claim {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
