package docx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/types"
)

func TestInject_RoundTripIdentity(t *testing.T) {
	engine := NewEngine()
	container := buildPackage(t, sampleBody())

	extraction, err := engine.Extract(container)
	require.NoError(t, err)

	// Map every block to its own original text: a no-op rewrite
	mapping := make(map[string]string)
	for _, b := range extraction.Blocks {
		mapping[b.ID] = b.OriginalText
	}

	res, err := engine.Inject(container, extraction.Blocks, mapping)
	require.NoError(t, err)

	assert.False(t, res.DegradedFidelity)
	assert.Equal(t, documentOf(t, container), documentOf(t, res.Bytes))
}

func TestInject_ReplacesSingleRunText(t *testing.T) {
	engine := NewEngine()
	container := buildPackage(t, sampleBody())

	extraction, err := engine.Extract(container)
	require.NoError(t, err)

	target := extraction.Blocks[2] // "Led a team of 3 engineers to ship v2."
	replacement := "Led a 3-engineer team shipping v2.00."
	mapping := map[string]string{target.ID: replacement}

	res, err := engine.Inject(container, extraction.Blocks, mapping)
	require.NoError(t, err)

	document := documentOf(t, res.Bytes)
	assert.Contains(t, document, replacement)
	assert.NotContains(t, document, "Led a team of 3 engineers")

	// Untouched blocks keep their exact markup
	assert.Contains(t, document, "<w:t>Maintained CI pipelines with 99.9% uptime.</w:t>")

	// The output re-extracts with the same structure
	after, err := engine.Extract(res.Bytes)
	require.NoError(t, err)
	assert.Len(t, after.Blocks, len(extraction.Blocks))
}

func TestInject_RedistributesAcrossRuns(t *testing.T) {
	engine := NewEngine()
	container := buildPackage(t, boldPara("Experience")+mixedRunPara("Built ", "critical", " systems."))

	extraction, err := engine.Extract(container)
	require.NoError(t, err)
	require.Len(t, extraction.Blocks, 1)
	block := extraction.Blocks[0]
	require.Equal(t, "Built critical systems.", block.OriginalText)

	mapping := map[string]string{block.ID: "Built important systems."}
	res, err := engine.Inject(container, extraction.Blocks, mapping)
	require.NoError(t, err)

	// The paragraph still has three runs with the bold boundary intact
	after, err := engine.Extract(res.Bytes)
	require.NoError(t, err)
	require.Len(t, after.Blocks, 1)
	require.Len(t, after.Blocks[0].Docx.Runs, 3)
	assert.False(t, after.Blocks[0].Docx.Runs[0].Bold)
	assert.True(t, after.Blocks[0].Docx.Runs[1].Bold)
	assert.False(t, after.Blocks[0].Docx.Runs[2].Bold)

	// No characters lost or invented
	assert.Equal(t, "Built important systems.", after.Blocks[0].OriginalText)

	// Each run holds a share proportional to its original share
	for i, r := range after.Blocks[0].Docx.Runs {
		assert.Greater(t, r.Chars, 0, "run %d emptied by redistribution", i)
	}
}

func TestInject_EscapesReplacementText(t *testing.T) {
	engine := NewEngine()
	container := buildPackage(t, boldPara("Experience")+para("Shipped tooling quickly this year."))

	extraction, err := engine.Extract(container)
	require.NoError(t, err)
	block := extraction.Blocks[0]

	mapping := map[string]string{block.ID: "Shipped R&D tooling <2x> faster...."}
	res, err := engine.Inject(container, extraction.Blocks, mapping)
	require.NoError(t, err)

	document := documentOf(t, res.Bytes)
	assert.Contains(t, document, "R&amp;D")
	assert.Contains(t, document, "&lt;2x&gt;")

	after, err := engine.Extract(res.Bytes)
	require.NoError(t, err)
	assert.Equal(t, "Shipped R&D tooling <2x> faster....", after.Blocks[0].OriginalText)
}

func TestInject_TamperedContainerFails(t *testing.T) {
	engine := NewEngine()
	container := buildPackage(t, sampleBody())

	extraction, err := engine.Extract(container)
	require.NoError(t, err)

	// Rebuild the container with different body text, keeping the old anchors
	tampered := buildPackage(t, para("Completely different content now"))

	target := extraction.Blocks[2]
	mapping := map[string]string{target.ID: "Led a 3-engineer team shipping v2.00."}

	_, err = engine.Inject(tampered, extraction.Blocks, mapping)
	require.Error(t, err)

	var unsupported *types.UnsupportedStructureError
	assert.ErrorAs(t, err, &unsupported)
}

func TestInject_OverlappingAnchorsConflict(t *testing.T) {
	engine := NewEngine()
	container := buildPackage(t, sampleBody())

	extraction, err := engine.Extract(container)
	require.NoError(t, err)

	// Forge a second block claiming the same run range as an existing one
	victim := extraction.Blocks[2]
	forged := victim
	forged.ID = "forged-block"

	blocks := append(extraction.Blocks, forged)
	mapping := map[string]string{
		victim.ID: "Led a 3-engineer team shipping v2.00.",
		forged.ID: "Led a 3-person team shipping v2 today",
	}

	_, err = engine.Inject(container, blocks, mapping)
	require.Error(t, err)

	var conflict *types.AnchorConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestRedistribute_ProportionalCuts(t *testing.T) {
	block := &types.Block{
		ID:           "b1",
		OriginalText: "Built critical systems.",
		Docx: &types.DocxAnchor{
			Runs: []types.RunRange{
				{Start: 0, End: 6, Chars: 6},   // "Built "
				{Start: 6, End: 14, Chars: 8},  // "critical"
				{Start: 14, End: 23, Chars: 9}, // " systems."
			},
		},
	}

	splices := redistribute(block, "Built important systems.")
	require.Len(t, splices, 3)

	var rebuilt strings.Builder
	for _, sp := range splices {
		rebuilt.WriteString(sp.text)
	}
	assert.Equal(t, "Built important systems.", rebuilt.String())

	// Middle share stays in the middle run
	assert.Contains(t, splices[1].text, "port")
}

func TestRedistribute_EmptyRunsDegenerate(t *testing.T) {
	block := &types.Block{
		ID:           "b1",
		OriginalText: "",
		Docx: &types.DocxAnchor{
			Runs: []types.RunRange{{Start: 0, End: 0, Chars: 0}},
		},
	}

	splices := redistribute(block, "new text")
	require.Len(t, splices, 1)
	assert.Equal(t, "new text", splices[0].text)
}
