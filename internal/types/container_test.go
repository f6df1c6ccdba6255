package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat([]byte("PK\x03\x04rest of archive"))
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, format)

	format, err = DetectFormat([]byte("%PDF-1.7\nrest of file"))
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, format)
}

func TestDetectFormat_Unrecognized(t *testing.T) {
	_, err := DetectFormat([]byte("plain text resume"))
	require.Error(t, err)

	var malformed *MalformedContainerError
	assert.ErrorAs(t, err, &malformed)
}

func TestNewContainer_HeaderMismatch(t *testing.T) {
	_, err := NewContainer([]byte("%PDF-1.7\n"), FormatDOCX)
	require.Error(t, err)

	var malformed *MalformedContainerError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, err.Error(), "docx")
}

func TestNewContainer_Valid(t *testing.T) {
	c, err := NewContainer([]byte("%PDF-1.4\n"), FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, c.Format)
}

func TestBlockRole_Rewritable(t *testing.T) {
	assert.True(t, RoleSummary.Rewritable())
	assert.True(t, RoleExperienceBullet.Rewritable())
	assert.False(t, RoleOther.Rewritable())
}

func TestRect(t *testing.T) {
	r := Rect{X0: 72, Y0: 650, X1: 272, Y1: 662}
	assert.Equal(t, 200.0, r.Width())
	assert.Equal(t, 12.0, r.Height())

	assert.True(t, r.Intersects(Rect{X0: 100, Y0: 655, X1: 120, Y1: 660}))
	assert.False(t, r.Intersects(Rect{X0: 72, Y0: 600, X1: 272, Y1: 612}))
	// Shared edge is not an overlap
	assert.False(t, r.Intersects(Rect{X0: 272, Y0: 650, X1: 300, Y1: 662}))
}

func TestExtraction_RewritableBlocks(t *testing.T) {
	e := &Extraction{Blocks: []Block{
		{ID: "a", Role: RoleOther},
		{ID: "b", Role: RoleSummary},
		{ID: "c", Role: RoleExperienceBullet},
	}}

	rewritable := e.RewritableBlocks()
	require.Len(t, rewritable, 2)
	assert.Equal(t, "b", rewritable[0].ID)
	assert.Equal(t, "c", rewritable[1].ID)
}
