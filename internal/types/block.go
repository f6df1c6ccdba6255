// Package types defines the shared data model for the format-preserving
// resume rewrite engine: blocks, anchors, rewrite results, and ATS scores.
package types

// BlockRole classifies a rewritable text block by its semantic role in the resume
type BlockRole string

// Block role constants
const (
	// RoleSummary is a block inside the summary/profile/objective section
	RoleSummary BlockRole = "summary"
	// RoleExperienceBullet is a block inside the work experience section
	RoleExperienceBullet BlockRole = "experience_bullet"
	// RoleOther is any other text block; never rewritten, but part of the full document text
	RoleOther BlockRole = "other"
)

// Rewritable reports whether blocks with this role are eligible for rewriting
func (r BlockRole) Rewritable() bool {
	return r == RoleSummary || r == RoleExperienceBullet
}

// RunRange locates one style run's text content inside word/document.xml.
// Start and End are byte offsets of the (XML-escaped) content of a <w:t>
// element; Chars is the unescaped character count of that content.
type RunRange struct {
	Start int  `json:"start"`
	End   int  `json:"end"`
	Chars int  `json:"chars"`
	Bold  bool `json:"bold"`
}

// DocxAnchor locates a block inside a DOCX package: the owning paragraph and
// the minimal contiguous run sequence spanning the block's text.
type DocxAnchor struct {
	Paragraph int        `json:"paragraph"`
	Runs      []RunRange `json:"runs"`
}

// Rect is an axis-aligned bounding box in PDF user space (origin bottom-left)
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the rectangle
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of the rectangle
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Intersects reports whether two rectangles overlap with positive area
func (r Rect) Intersects(o Rect) bool {
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// PDFAnchor locates a block on a PDF page: bounding box plus the font
// descriptor of the dominant span, so the injector can overlay replacement
// text at the same baseline with a matching face.
type PDFAnchor struct {
	Page     int     `json:"page"`
	Rect     Rect    `json:"rect"`
	FontName string  `json:"font_name"`
	FontSize float64 `json:"font_size"`
	Baseline float64 `json:"baseline"`
}

// Block is one rewritable unit of resume text plus its structural anchor.
// Exactly one of Docx or PDF is set, matching the container format.
// Blocks are immutable after extraction; the orchestrator records its outcome
// in a separate RewriteResult rather than mutating the block.
type Block struct {
	ID           string      `json:"id"`
	Role         BlockRole   `json:"role"`
	OriginalText string      `json:"original_text"`
	CharCount    int         `json:"char_count"`
	Docx         *DocxAnchor `json:"docx_anchor,omitempty"`
	PDF          *PDFAnchor  `json:"pdf_anchor,omitempty"`
}

// FormatSignals are structural features of the original container that are
// known to confuse ATS parsers. They feed the formatting-simplicity sub-score
// and are invariant under rewriting.
type FormatSignals struct {
	Tables      int  `json:"tables"`
	TextBoxes   int  `json:"text_boxes"`
	Images      int  `json:"images"`
	MultiColumn bool `json:"multi_column"`
}

// Extraction is the full output of a structural extractor: the ordered block
// sequence, the document's complete plain text, and the formatting signals.
type Extraction struct {
	Blocks   []Block       `json:"blocks"`
	FullText string        `json:"full_text"`
	Signals  FormatSignals `json:"signals"`
}

// RewritableBlocks returns the blocks eligible for rewriting, in document order
func (e *Extraction) RewritableBlocks() []Block {
	var out []Block
	for _, b := range e.Blocks {
		if b.Role.Rewritable() {
			out = append(out, b)
		}
	}
	return out
}
