// Package ats computes a deterministic 0-100 ATS compatibility score from the
// final resume text and the job description, independent of container format.
package ats

import (
	"regexp"
	"sort"
	"strings"
)

// keywordPattern matches word-like tokens of 3+ chars, allowing the symbols
// common in technology names (C++, C#, Node.js, CI-CD)
var keywordPattern = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z+#.\-]{2,}\b`)

// stopwords are filtered before frequency ranking
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "shall": true, "can": true, "not": true, "that": true,
	"this": true, "these": true, "those": true, "as": true, "it": true,
	"its": true, "we": true, "you": true, "your": true, "our": true,
	"their": true, "they": true, "he": true, "she": true, "i": true,
	"me": true, "us": true, "him": true, "her": true, "which": true,
	"who": true, "what": true, "when": true, "where": true, "how": true,
	"if": true, "then": true, "than": true, "so": true, "also": true,
	"all": true, "any": true, "each": true, "more": true, "most": true,
	"other": true,
}

// Default keyword budget per side: the job description contributes its top 40
// terms, the resume its top 200.
const (
	jdKeywordLimit     = 40
	resumeKeywordLimit = 200
)

// ExtractKeywords returns the topN most frequent non-stopword tokens of the
// text, case-folded. Ties break by first appearance so the result is
// deterministic for identical input.
func ExtractKeywords(text string, topN int) []string {
	matches := keywordPattern.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, w := range matches {
		if stopwords[w] {
			continue
		}
		if _, seen := counts[w]; !seen {
			firstSeen[w] = i
		}
		counts[w]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return firstSeen[words[i]] < firstSeen[words[j]]
	})

	if topN > 0 && len(words) > topN {
		words = words[:topN]
	}
	return words
}

// termFrequencies returns the relative frequency of every non-stopword token
func termFrequencies(text string) map[string]float64 {
	matches := keywordPattern.FindAllString(strings.ToLower(text), -1)
	freq := make(map[string]float64)
	total := 0
	for _, w := range matches {
		if stopwords[w] {
			continue
		}
		freq[w]++
		total++
	}
	if total == 0 {
		return freq
	}
	for w := range freq {
		freq[w] /= float64(total)
	}
	return freq
}
