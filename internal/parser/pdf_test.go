package parser

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a minimal uncompressed PDF with one content stream per
// page, computing the cross-reference offsets as it writes.
func buildPDF(t *testing.T, pages []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	writeObj("<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	writeObj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		writeObj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		writeObj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset)
	return buf.Bytes()
}

func TestParsePDFPerPageMarkers(t *testing.T) {
	data := buildPDF(t, []string{
		"Introduction and summary.",
		"Findings from the second page.",
		"Conclusion on the third page.",
	})

	segments, err := ParsePDF(data)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, "page 1", segments[0].Marker)
	assert.Contains(t, segments[0].Text, "Introduction")
	assert.Equal(t, "page 2", segments[1].Marker)
	assert.Contains(t, segments[1].Text, "second page")
	assert.Equal(t, "page 3", segments[2].Marker)
	assert.Contains(t, segments[2].Text, "Conclusion")
}

func TestParsePDFDispatch(t *testing.T) {
	data := buildPDF(t, []string{"A single page of text."})
	segments, err := Parse(data, "application/pdf")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "page 1", segments[0].Marker)
}
