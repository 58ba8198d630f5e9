package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseText(t *testing.T) {
	segments, err := ParseText([]byte("  hello world \n"))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "hello world", segments[0].Text)
	assert.False(t, segments[0].LowConfidence)
}

func TestParseTextRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"invalid utf-8", []byte{0xff, 0xfe, 0xfd}},
		{"whitespace only", []byte("   \n\t  ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText(tt.data)
			require.Error(t, err)
			assert.True(t, IsParseError(err))
		})
	}
}

func TestParseMediaTypeWithParameters(t *testing.T) {
	segments, err := Parse([]byte("plain text body"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "plain text body", segments[0].Text)
}

func TestParseUnsupportedType(t *testing.T) {
	_, err := Parse([]byte("data"), "application/x-tar")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestParseCorruptPDF(t *testing.T) {
	_, err := Parse([]byte("definitely not a pdf"), "broken.pdf")
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		declared string
		want     string
	}{
		{"application/pdf", "pdf"},
		{"report.PDF", "pdf"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx"},
		{"notes.docx", "docx"},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
		{"image/png", "png"},
		{"image/jpeg", "jpeg"},
		{"scan.tiff", "tiff"},
		{"text/plain", "txt"},
		{"text/plain; charset=utf-8", "txt"},
		{"application/pdf; name=report.pdf", "pdf"},
		{"IMAGE/PNG; q=0.9", "png"},
		{"README.md", "md"},
		{"pdf", "pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeFormat(tt.declared))
		})
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("application/pdf"))
	assert.True(t, Supported("text/plain; charset=utf-8"))
	assert.True(t, Supported("sheet.xlsx"))
	assert.False(t, Supported("archive.zip"))
	assert.False(t, Supported("video/mp4"))
}
