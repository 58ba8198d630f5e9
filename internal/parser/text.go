package parser

import (
	"strings"
	"unicode/utf8"
)

// ParseText accepts plain text and markdown as a single segment.
func ParseText(data []byte) ([]Segment, error) {
	if len(data) == 0 {
		return nil, &ParseError{Format: "text", Reason: "empty file"}
	}
	if !utf8.Valid(data) {
		return nil, &ParseError{Format: "text", Reason: "not valid utf-8"}
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, &ParseError{Format: "text", Reason: "no extractable text"}
	}
	return []Segment{{Text: text}}, nil
}
