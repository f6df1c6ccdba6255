package constraints

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/stretchr/testify/assert"
)

const sampleDocument = `Jane Doe
Summary
Backend engineer focused on reliability.
Experience
Led a team of 3 engineers to ship v2.
Maintained CI pipelines with 99.9% uptime over 4 years.
Education
BS Computer Science`

func newTestEnforcer() *Enforcer {
	return New(sampleDocument, DefaultTolerance)
}

func TestCheck_AcceptsNearIdenticalLength(t *testing.T) {
	e := newTestEnforcer()
	original := "Maintained CI pipelines with 99.9% uptime over 4 years."
	candidate := "Maintained CI pipelines at 99.9% uptime over 4 years.."

	result := e.Check(original, candidate, types.RoleExperienceBullet)
	assert.True(t, result.Accepted, "detail: %s", result.Detail)
}

func TestCheck_RejectsOverlongCandidate(t *testing.T) {
	e := newTestEnforcer()
	// 37 chars original; candidate is 49 chars (+32%), far past the ±5% budget
	original := "Led a team of 3 engineers to ship v2."
	candidate := "Led a 3-engineer team to deliver v2 successfully."

	result := e.Check(original, candidate, types.RoleExperienceBullet)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonLengthOutOfBounds, result.Reason)
}

func TestCheck_RejectsSlightlyOverBudget(t *testing.T) {
	e := newTestEnforcer()
	// 39 chars vs 37: deviation 2 > 0.05*37 ≈ 1.85, still out of bounds
	original := "Led a team of 3 engineers to ship v2."
	candidate := "Led 3 engineers to ship v2 on schedule."

	result := e.Check(original, candidate, types.RoleExperienceBullet)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonLengthOutOfBounds, result.Reason)
}

func TestCheck_RejectsEmptyCandidate(t *testing.T) {
	e := newTestEnforcer()

	for _, candidate := range []string{"", "   ", "\n\t"} {
		result := e.Check("Led a team of 3 engineers to ship v2.", candidate, types.RoleSummary)
		assert.False(t, result.Accepted)
		assert.Equal(t, ReasonEmptyOrDegenerate, result.Reason)
	}
}

func TestCheck_RejectsFabricatedYears(t *testing.T) {
	e := newTestEnforcer()
	original := "Led a team of 3 engineers to ship v2."
	candidate := "Led 3 engineers 10+ years on v2 ship."

	result := e.Check(original, candidate, types.RoleExperienceBullet)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonFabricationSuspected, result.Reason)
}

func TestCheck_AllowsYearsPresentInDocument(t *testing.T) {
	e := newTestEnforcer()
	// "4 years" appears in the original document, so it is substantiated
	original := "Maintained CI pipelines with 99.9% uptime over 4 years."
	candidate := "Sustained CI pipelines at 99.9% uptime over 4 years..."

	result := e.Check(original, candidate, types.RoleExperienceBullet)
	assert.True(t, result.Accepted, "detail: %s", result.Detail)
}

func TestCheck_RejectsFabricatedCertification(t *testing.T) {
	e := newTestEnforcer()
	original := "Backend engineer focused on reliability."
	candidate := "PMP certified engineer focused on uptime."

	result := e.Check(original, candidate, types.RoleSummary)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonFabricationSuspected, result.Reason)
}

func TestCheck_RejectsFabricatedEmployer(t *testing.T) {
	e := newTestEnforcer()
	original := "Led a team of 3 engineers to ship v2."
	candidate := "Led 3 engineers at Initech Corp to v2."

	result := e.Check(original, candidate, types.RoleExperienceBullet)
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonFabricationSuspected, result.Reason)
}

func TestCharRatio(t *testing.T) {
	assert.InDelta(t, 1.0, CharRatio("abcd", "wxyz"), 1e-9)
	assert.InDelta(t, 2.0, CharRatio("ab", "wxyz"), 1e-9)
	assert.InDelta(t, 1.0, CharRatio("", "anything"), 1e-9)
}

func TestTruncate_WithinBudgetUnchanged(t *testing.T) {
	original := "Led a team of 3 engineers to ship v2."
	assert.Equal(t, original, Truncate(original, original, DefaultTolerance))
}

func TestTruncate_CutsAtWordBoundary(t *testing.T) {
	original := "Led a team of 3 engineers to ship v2."
	candidate := "Led a cross functional 3-engineer team to deliver v2 successfully this year"

	out := Truncate(original, candidate, DefaultTolerance)
	maxLen := int(float64(len([]rune(original))) * 1.05)
	assert.LessOrEqual(t, len([]rune(out)), maxLen)
	// The 38-char clip happens to land exactly after "team"
	assert.Equal(t, "Led a cross functional 3-engineer team", out)
}

func TestTruncate_MultibyteRespectsLowerBound(t *testing.T) {
	// 13-rune original at 5% tolerance allows 12..13 runes. The space in the
	// candidate sits at rune 10 but byte 20; the cut must use rune positions,
	// so no word-boundary cut below the lower bound is taken.
	original := strings.Repeat("é", 13)
	candidate := strings.Repeat("é", 10) + " xx more"

	out := Truncate(original, candidate, DefaultTolerance)
	assert.Equal(t, strings.Repeat("é", 10)+" xx", out)
	assert.GreaterOrEqual(t, utf8.RuneCountInString(out), 12)
}
