package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX emits one segment per non-empty sheet. Cells within a row are
// tab-joined so tabular structure survives chunking well enough for
// retrieval.
func ParseXLSX(data []byte) ([]Segment, error) {
	if len(data) == 0 {
		return nil, &ParseError{Format: "xlsx", Reason: "empty file"}
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Reason: "corrupt or unreadable workbook", Err: err}
	}
	defer f.Close()

	var segments []Segment
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, &ParseError{Format: "xlsx", Reason: fmt.Sprintf("read sheet %q failed", sheet), Err: err}
		}

		var sb strings.Builder
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(line)
		}
		if sb.Len() == 0 {
			continue
		}
		segments = append(segments, Segment{
			Text:   sb.String(),
			Marker: "sheet " + sheet,
		})
	}
	if len(segments) == 0 {
		return nil, &ParseError{Format: "xlsx", Reason: "no extractable text"}
	}
	return segments, nil
}
