package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ParsePDF extracts text page by page so each segment carries a page marker.
func ParsePDF(data []byte) ([]Segment, error) {
	if len(data) == 0 {
		return nil, &ParseError{Format: "pdf", Reason: "empty file"}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{Format: "pdf", Reason: "corrupt or unreadable file", Err: err}
	}

	var segments []Segment
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, &ParseError{Format: "pdf", Reason: fmt.Sprintf("extract page %d failed", pageNum), Err: err}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:   text,
			Marker: fmt.Sprintf("page %d", pageNum),
		})
	}
	if len(segments) == 0 {
		return nil, &ParseError{Format: "pdf", Reason: "no extractable text"}
	}
	return segments, nil
}
