package parser

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Lines at or below this confidence are flagged but retained. Dropping them
// would make answers silently incomplete, which is worse than a noisy line.
const lowConfidenceThreshold = 0.60

// ParseImage runs OCR and emits one segment per recognized text line, each
// with the engine's confidence for that line.
func ParseImage(data []byte) ([]Segment, error) {
	if len(data) == 0 {
		return nil, &ParseError{Format: "image", Reason: "empty file"}
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, &ParseError{Format: "image", Reason: "unreadable image", Err: err}
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, &ParseError{Format: "image", Reason: "ocr failed", Err: err}
	}

	var segments []Segment
	lineNum := 0
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		lineNum++
		confidence := box.Confidence / 100.0
		segments = append(segments, Segment{
			Text:          text,
			Marker:        fmt.Sprintf("line %d", lineNum),
			Confidence:    confidence,
			LowConfidence: confidence <= lowConfidenceThreshold,
		})
	}
	if len(segments) == 0 {
		return nil, &ParseError{Format: "image", Reason: "no recognizable text"}
	}
	return segments, nil
}
