package docx

import (
	"bytes"
	"sort"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/jonathan/resume-tailor/internal/types"
)

// splice is one pending edit: replace content[start:end] with text
type splice struct {
	start   int
	end     int
	text    string
	blockID string
}

// Inject produces a new container with the mapped blocks' text replaced.
// Only the content of matched <w:t> ranges changes; every other byte of
// document.xml and every other package part is copied unchanged. The original
// container bytes are never mutated. DOCX injection never degrades fidelity:
// runs keep their own fonts.
func (e *Engine) Inject(container []byte, blocks []types.Block, mapping map[string]string) (*types.InjectResult, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(container), int64(len(container)))
	if err != nil {
		return nil, &types.MalformedContainerError{
			Format:  types.FormatDOCX,
			Message: "cannot open DOCX package",
			Cause:   err,
		}
	}
	defer doc.Close()

	editable := doc.Editable()
	content := editable.GetContent()

	splices, err := buildSplices(content, blocks, mapping)
	if err != nil {
		return nil, err
	}

	if len(splices) > 0 {
		editable.SetContent(applySplices(content, splices))
	}

	var out bytes.Buffer
	if err := editable.Write(&out); err != nil {
		return nil, &types.MalformedContainerError{
			Format:  types.FormatDOCX,
			Message: "cannot serialize DOCX package",
			Cause:   err,
		}
	}
	return &types.InjectResult{Bytes: out.Bytes()}, nil
}

// buildSplices validates anchors and computes the per-run edits. Blocks whose
// final text equals the original are skipped entirely, so a no-op mapping
// leaves document.xml byte-identical.
func buildSplices(content string, blocks []types.Block, mapping map[string]string) ([]splice, error) {
	var splices []splice

	for i := range blocks {
		block := &blocks[i]
		finalText, ok := mapping[block.ID]
		if !ok || finalText == block.OriginalText {
			continue
		}
		if block.Docx == nil {
			return nil, &types.UnsupportedStructureError{BlockID: block.ID, Message: "block has no DOCX anchor"}
		}
		if err := revalidateAnchor(content, block); err != nil {
			return nil, err
		}
		splices = append(splices, redistribute(block, finalText)...)
	}

	sort.Slice(splices, func(i, j int) bool { return splices[i].start < splices[j].start })
	for i := 1; i < len(splices); i++ {
		if splices[i].start < splices[i-1].end {
			return nil, &types.AnchorConflictError{
				BlockA: splices[i-1].blockID,
				BlockB: splices[i].blockID,
			}
		}
	}
	return splices, nil
}

// revalidateAnchor confirms the anchor's run ranges still hold the block's
// original text. A mismatch means the container changed between extraction
// and injection.
func revalidateAnchor(content string, block *types.Block) error {
	var b strings.Builder
	for _, r := range block.Docx.Runs {
		if r.Start < 0 || r.End < r.Start || r.End > len(content) {
			return &types.UnsupportedStructureError{BlockID: block.ID, Message: "anchor range outside document.xml"}
		}
		b.WriteString(unescapeText(content[r.Start:r.End]))
	}
	if b.String() != block.OriginalText {
		return &types.UnsupportedStructureError{
			BlockID: block.ID,
			Message: "anchor text no longer matches; container changed after extraction",
		}
	}
	return nil
}

// redistribute partitions the replacement text across the block's existing
// runs proportionally to their original character share. The run count never
// changes, so formatting boundaries (bold, italics, style switches mid-line)
// survive the rewrite; only where the characters fall shifts slightly.
func redistribute(block *types.Block, finalText string) []splice {
	runs := block.Docx.Runs
	replacement := []rune(finalText)

	totalChars := 0
	for _, r := range runs {
		totalChars += r.Chars
	}

	var splices []splice
	if totalChars == 0 {
		// Degenerate anchor: all runs empty; put everything in the first run
		for i, r := range runs {
			text := ""
			if i == 0 {
				text = finalText
			}
			splices = append(splices, splice{start: r.Start, end: r.End, text: escapeText(text), blockID: block.ID})
		}
		return splices
	}

	cum := 0
	prevCut := 0
	for i, r := range runs {
		cum += r.Chars
		cut := (len(replacement)*cum + totalChars/2) / totalChars
		if i == len(runs)-1 {
			cut = len(replacement)
		}
		if cut < prevCut {
			cut = prevCut
		}
		if cut > len(replacement) {
			cut = len(replacement)
		}
		splices = append(splices, splice{
			start:   r.Start,
			end:     r.End,
			text:    escapeText(string(replacement[prevCut:cut])),
			blockID: block.ID,
		})
		prevCut = cut
	}
	return splices
}

// applySplices rebuilds content with the sorted, non-overlapping edits applied
func applySplices(content string, splices []splice) string {
	var b strings.Builder
	b.Grow(len(content))

	pos := 0
	for _, sp := range splices {
		b.WriteString(content[pos:sp.start])
		b.WriteString(sp.text)
		pos = sp.end
	}
	b.WriteString(content[pos:])
	return b.String()
}
