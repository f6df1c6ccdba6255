package types

import "bytes"

// Format identifies a supported container format
type Format string

// Container format constants
const (
	// FormatDOCX is an Office Open XML word-processing package
	FormatDOCX Format = "docx"
	// FormatPDF is a Portable Document Format file
	FormatPDF Format = "pdf"
)

// Container is the original document bytes plus its format tag. A container
// is owned by a single rewrite session; injectors never mutate Bytes in place
// and always produce a new byte stream.
type Container struct {
	Format Format `json:"format"`
	Bytes  []byte `json:"-"`
}

// Format magic numbers. The header check is the only content sniffing the
// engine performs; everything else is driven by the declared format tag.
var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04} // "PK\x03\x04"
	pdfMagic = []byte("%PDF-")
)

// DetectFormat returns the container format implied by the file header.
// Returns a MalformedContainerError when the header matches neither format.
func DetectFormat(data []byte) (Format, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return FormatDOCX, nil
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return FormatPDF, nil
	}
	return "", &MalformedContainerError{Message: "unrecognized file header (expected DOCX or PDF)"}
}

// NewContainer wraps raw document bytes, verifying the header matches the
// declared format tag.
func NewContainer(data []byte, format Format) (*Container, error) {
	detected, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}
	if detected != format {
		return nil, &MalformedContainerError{
			Format:  format,
			Message: "file header does not match declared format " + string(format),
		}
	}
	return &Container{Format: format, Bytes: data}, nil
}
