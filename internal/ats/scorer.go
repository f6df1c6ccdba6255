package ats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jonathan/resume-tailor/internal/types"
)

// Sub-score bounds
const (
	keywordMatchMax         = 40
	roleRelevancyMax        = 40
	formattingSimplicityMax = 20
)

// Score computes the ATS compatibility score for a resume against a job
// description. It is a pure function: identical inputs always yield an
// identical score. signals describe the original container's structure and
// are unaffected by rewriting.
func Score(resumeText, jobDescription string, signals types.FormatSignals) types.AtsScore {
	matched, missing, matchRate := keywordOverlap(resumeText, jobDescription)

	keywordMatch := int(math.Round(matchRate * keywordMatchMax))
	roleRelevancy := roleRelevancyScore(resumeText, jobDescription)
	formatting := formattingScore(signals)

	score := types.AtsScore{
		Total:                keywordMatch + roleRelevancy + formatting,
		KeywordMatch:         clamp(keywordMatch, 0, keywordMatchMax),
		RoleRelevancy:        clamp(roleRelevancy, 0, roleRelevancyMax),
		FormattingSimplicity: clamp(formatting, 0, formattingSimplicityMax),
		MatchedKeywords:      matched,
		MissingKeywords:      missing,
	}
	score.Total = score.KeywordMatch + score.RoleRelevancy + score.FormattingSimplicity
	score.Feedback = feedback(score)
	return score
}

// QuickScore is the keyword-only pre-score (0-100): match rate scaled to 100.
// Used when no deeper scoring is wanted, mirroring the fast validation path.
func QuickScore(resumeText, jobDescription string) int {
	_, _, rate := keywordOverlap(resumeText, jobDescription)
	return int(rate * 100)
}

// keywordOverlap intersects the job description's top keywords with the
// resume's keyword set. Returned slices are sorted for determinism.
func keywordOverlap(resumeText, jobDescription string) (matched, missing []string, rate float64) {
	jdKeywords := ExtractKeywords(jobDescription, jdKeywordLimit)
	resumeSet := make(map[string]bool)
	for _, w := range ExtractKeywords(resumeText, resumeKeywordLimit) {
		resumeSet[w] = true
	}

	for _, w := range jdKeywords {
		if resumeSet[w] {
			matched = append(matched, w)
		} else {
			missing = append(missing, w)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)

	if len(jdKeywords) == 0 {
		return matched, missing, 0
	}
	return matched, missing, float64(len(matched)) / float64(len(jdKeywords))
}

// roleRelevancyScore blends two bounded signals, both monotonic in overlap:
// the share of the job's title phrase found in the resume head, and the
// cosine similarity of term frequencies between the two texts.
func roleRelevancyScore(resumeText, jobDescription string) int {
	title := titlePhrase(jobDescription)
	head := resumeHead(resumeText)

	titleOverlap := 0.0
	if len(title) > 0 {
		found := 0
		for _, w := range title {
			if strings.Contains(head, w) {
				found++
			}
		}
		titleOverlap = float64(found) / float64(len(title))
	}

	similarity := cosineSimilarity(termFrequencies(resumeText), termFrequencies(jobDescription))

	return int(math.Round((0.5*titleOverlap + 0.5*similarity) * roleRelevancyMax))
}

// titlePhrase extracts the role phrase from the job description: the first
// non-empty line, capped at twelve significant words.
func titlePhrase(jobDescription string) []string {
	for _, line := range strings.Split(jobDescription, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		words := ExtractKeywords(line, 12)
		return words
	}
	return nil
}

// resumeHead returns the lowercased opening of the resume, where the stated
// role and summary live.
func resumeHead(resumeText string) string {
	const headLen = 600
	runes := []rune(strings.ToLower(resumeText))
	if len(runes) > headLen {
		runes = runes[:headLen]
	}
	return string(runes)
}

// cosineSimilarity between two term-frequency vectors
func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for w, fa := range a {
		normA += fa * fa
		if fb, ok := b[w]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range b {
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Formatting penalties per structural signal, each capped so one pathological
// document cannot zero the sub-score on a single feature.
const (
	tablePenalty      = 4
	tablePenaltyCap   = 8
	textBoxPenalty    = 3
	textBoxPenaltyCap = 6
	imagePenalty      = 2
	imagePenaltyCap   = 4
	multiColumnPen    = 4
)

// formattingScore starts at the maximum and subtracts for structures that
// commonly break ATS parsers.
func formattingScore(signals types.FormatSignals) int {
	score := formattingSimplicityMax
	score -= capped(signals.Tables*tablePenalty, tablePenaltyCap)
	score -= capped(signals.TextBoxes*textBoxPenalty, textBoxPenaltyCap)
	score -= capped(signals.Images*imagePenalty, imagePenaltyCap)
	if signals.MultiColumn {
		score -= multiColumnPen
	}
	return clamp(score, 0, formattingSimplicityMax)
}

// feedback renders a short deterministic summary of the score
func feedback(s types.AtsScore) string {
	var b strings.Builder
	switch {
	case s.Total >= 80:
		b.WriteString("Strong ATS alignment. ")
	case s.Total >= 55:
		b.WriteString("Moderate ATS alignment. ")
	default:
		b.WriteString("Weak ATS alignment. ")
	}
	if len(s.MissingKeywords) > 0 {
		n := len(s.MissingKeywords)
		if n > 5 {
			n = 5
		}
		fmt.Fprintf(&b, "Missing keywords to consider: %s. ", strings.Join(s.MissingKeywords[:n], ", "))
	}
	if s.FormattingSimplicity < formattingSimplicityMax {
		b.WriteString("Document structure (tables, images, or columns) may confuse ATS parsers.")
	} else {
		b.WriteString("Document structure parses cleanly.")
	}
	return strings.TrimSpace(b.String())
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
