package constraints

// CharRatio returns the ratio of candidate length to original length.
// An empty original yields 1.0.
func CharRatio(original, candidate string) float64 {
	origLen := len([]rune(original))
	if origLen == 0 {
		return 1.0
	}
	return float64(len([]rune(candidate))) / float64(origLen)
}

// Truncate clips an over-long candidate to fit the length budget, cutting at
// the last word boundary that still satisfies the lower bound. Candidates
// within the budget are returned unchanged. This is a final guard inside the
// injectors; the orchestrator normally rejects over-long candidates upstream.
func Truncate(original, candidate string, tolerance float64) string {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	origRunes := []rune(original)
	candRunes := []rune(candidate)

	maxLen := int(float64(len(origRunes)) * (1 + tolerance))
	minLen := int(float64(len(origRunes)) * (1 - tolerance))
	if len(candRunes) <= maxLen {
		return candidate
	}

	clipped := candRunes[:maxLen]
	for i := len(clipped) - 1; i > minLen; i-- {
		if clipped[i] == ' ' {
			return string(clipped[:i])
		}
	}
	return string(clipped)
}
