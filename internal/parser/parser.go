// Package parser extracts plain text from uploaded files. Every supported
// format produces an ordered list of segments with a provenance marker
// (page, sheet, line) so retrieval results can cite where text came from.
package parser

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Segment is one extracted span of text. Confidence is only meaningful for
// OCR output (0..1). LowConfidence marks lines the OCR engine was unsure
// about; they are kept and flagged rather than dropped.
type Segment struct {
	Text          string
	Marker        string
	Confidence    float64
	LowConfidence bool
}

// ParseError reports unsupported or corrupt input. Parsers never surface
// library panics or raw decode errors without this wrapper.
type ParseError struct {
	Format string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Format, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Parse dispatches on the declared type, which may be a file name, an
// extension, or a media type. Unknown types return a ParseError rather than
// guessing at the bytes.
func Parse(data []byte, declaredType string) ([]Segment, error) {
	format := normalizeFormat(declaredType)
	switch format {
	case "pdf":
		return ParsePDF(data)
	case "docx":
		return ParseDOCX(data)
	case "xlsx":
		return ParseXLSX(data)
	case "png", "jpg", "jpeg", "tiff":
		return ParseImage(data)
	case "txt", "md":
		return ParseText(data)
	default:
		return nil, &ParseError{Format: format, Reason: "unsupported file type"}
	}
}

// Supported reports whether the declared type maps to a known parser.
func Supported(declaredType string) bool {
	switch normalizeFormat(declaredType) {
	case "pdf", "docx", "xlsx", "png", "jpg", "jpeg", "tiff", "txt", "md":
		return true
	}
	return false
}

func normalizeFormat(declaredType string) string {
	t := strings.ToLower(strings.TrimSpace(declaredType))
	if strings.Contains(t, "/") {
		// Multipart clients often declare parameters, e.g.
		// "text/plain; charset=utf-8".
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			t = mediaType
		}
	}
	switch t {
	case "application/pdf":
		return "pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return "docx"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpeg"
	case "image/tiff":
		return "tiff"
	case "text/plain":
		return "txt"
	case "text/markdown":
		return "md"
	}
	if ext := strings.TrimPrefix(filepath.Ext(t), "."); ext != "" {
		return ext
	}
	return t
}
