// Package llm - rewriter.go adapts the LLM client to the rewrite service
// contract used by the orchestrator.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/resume-tailor/internal/prompts"
	"github.com/jonathan/resume-tailor/internal/rewriting"
	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/types"
)

// envelopeSchema constrains the rewrite response to a single-field JSON
// object. Anything else from the model is rejected before the text is even
// looked at.
const envelopeSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

// Rewriter generates block replacements through an LLM client
type Rewriter struct {
	client Client
	tier   ModelTier
}

// NewRewriter creates a Rewriter on top of an existing client. Rewriting uses
// the advanced tier: the combination of length budget and fact preservation
// needs the strongest available model.
func NewRewriter(client Client) *Rewriter {
	return &Rewriter{client: client, tier: TierAdvanced}
}

// Rewrite generates one candidate replacement for a block. Transport and
// provider failures come back as ServiceError so the orchestrator can retry;
// malformed model output comes back as a plain error.
func (r *Rewriter) Rewrite(ctx context.Context, req *rewriting.Request) (string, error) {
	raw, err := r.client.GenerateJSON(ctx, buildPrompt(req), r.tier)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &types.ServiceError{Message: "rewrite generation failed", Cause: err}
	}
	return parseEnvelope(raw)
}

// buildPrompt assembles the rewrite prompt from the externalized templates
func buildPrompt(req *rewriting.Request) string {
	var sb strings.Builder

	intro := prompts.MustGet("rewriting.json", "rewrite-block-intro")
	sb.WriteString(prompts.Format(intro, map[string]string{
		"Section":        sectionLabel(req.Role),
		"Text":           req.Text,
		"JobDescription": req.JobDescription,
	}))

	sb.WriteString(prompts.MustGet("rewriting.json", "rewrite-block-preservation"))

	requirements := prompts.MustGet("rewriting.json", "rewrite-block-requirements")
	sb.WriteString(prompts.Format(requirements, map[string]string{
		"MinChars":      strconv.Itoa(req.MinChars),
		"MaxChars":      strconv.Itoa(req.MaxChars),
		"OriginalChars": strconv.Itoa(len([]rune(req.Text))),
	}))

	if req.Tightening != "" {
		sb.WriteString("\n\n")
		sb.WriteString(req.Tightening)
	}

	return sb.String()
}

// sectionLabel names the block's section for the prompt
func sectionLabel(role types.BlockRole) string {
	switch role {
	case types.RoleSummary:
		return "professional summary"
	case types.RoleExperienceBullet:
		return "work experience"
	default:
		return "resume"
	}
}

// parseEnvelope validates and unpacks the {"text": ...} response envelope
func parseEnvelope(raw string) (string, error) {
	cleaned := CleanJSONBlock(raw)

	if err := schemas.ValidateJSONString(envelopeSchema, cleaned); err != nil {
		return "", fmt.Errorf("rewrite response does not match envelope: %w", err)
	}

	var envelope struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return "", fmt.Errorf("failed to parse rewrite response: %w", err)
	}

	return strings.TrimSpace(envelope.Text), nil
}
