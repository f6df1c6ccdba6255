package types

// RewriteSource records how a block's final text was produced
type RewriteSource string

// Rewrite source constants
const (
	// SourceRewritten means the external rewrite service produced the final text
	// and it passed the constraint enforcer
	SourceRewritten RewriteSource = "rewritten"
	// SourceFallbackOriginal means every candidate was rejected (or the service
	// failed) and the block keeps its original text
	SourceFallbackOriginal RewriteSource = "fallback_original"
)

// RewriteResult is the terminal outcome of the orchestrator for one block.
// FinalText always satisfies the enforcer's bounds relative to the block's
// original text; for a fallback it is the original text itself.
type RewriteResult struct {
	BlockID   string        `json:"block_id"`
	FinalText string        `json:"final_text"`
	Source    RewriteSource `json:"source"`
	Attempts  int           `json:"attempts"`
}

// InjectResult is the output of a structural injector: the new container
// bytes and whether any block was rendered with a substitute font because the
// original face was unavailable.
type InjectResult struct {
	Bytes            []byte `json:"-"`
	DegradedFidelity bool   `json:"degraded_fidelity"`
}

// AtsScore is the ATS compatibility score for a resume against one job
// description. Total is always the sum of the three sub-scores.
type AtsScore struct {
	Total                int      `json:"total"`
	KeywordMatch         int      `json:"keyword_match"`
	RoleRelevancy        int      `json:"role_relevancy"`
	FormattingSimplicity int      `json:"formatting_simplicity"`
	MatchedKeywords      []string `json:"matched_keywords"`
	MissingKeywords      []string `json:"missing_keywords"`
	Feedback             string   `json:"feedback"`
}
