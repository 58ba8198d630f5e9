package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ParseDOCX walks word/document.xml inside the OOXML archive and emits one
// segment per page, using explicit page breaks and the page breaks Word
// rendered at last save as boundaries. Paragraphs within a page are joined
// with newlines.
func ParseDOCX(data []byte) ([]Segment, error) {
	if len(data) == 0 {
		return nil, &ParseError{Format: "docx", Reason: "empty file"}
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ParseError{Format: "docx", Reason: "not a valid OOXML archive", Err: err}
	}

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return nil, &ParseError{Format: "docx", Reason: "word/document.xml missing"}
	}

	rc, err := document.Open()
	if err != nil {
		return nil, &ParseError{Format: "docx", Reason: "open document part failed", Err: err}
	}
	defer rc.Close()

	segments, err := walkDocumentXML(rc)
	if err != nil {
		return nil, &ParseError{Format: "docx", Reason: "malformed document xml", Err: err}
	}
	if len(segments) == 0 {
		return nil, &ParseError{Format: "docx", Reason: "no extractable text"}
	}
	return segments, nil
}

func walkDocumentXML(r io.Reader) ([]Segment, error) {
	decoder := xml.NewDecoder(r)

	var (
		segments  []Segment
		page      strings.Builder
		paragraph strings.Builder
		pageNum   = 1
		inText    bool
	)

	flushParagraph := func() {
		text := strings.TrimSpace(paragraph.String())
		paragraph.Reset()
		if text == "" {
			return
		}
		if page.Len() > 0 {
			page.WriteString("\n")
		}
		page.WriteString(text)
	}

	flushPage := func() {
		text := strings.TrimSpace(page.String())
		page.Reset()
		if text == "" {
			return
		}
		segments = append(segments, Segment{
			Text:   text,
			Marker: fmt.Sprintf("page %d", pageNum),
		})
	}

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				paragraph.WriteString("\t")
			case "br":
				if brType(t) == "page" {
					flushParagraph()
					flushPage()
					pageNum++
				} else {
					paragraph.WriteString("\n")
				}
			case "lastRenderedPageBreak":
				flushParagraph()
				flushPage()
				pageNum++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flushParagraph()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}

	flushParagraph()
	flushPage()
	return segments, nil
}

func brType(el xml.StartElement) string {
	for _, attr := range el.Attr {
		if attr.Name.Local == "type" {
			return attr.Value
		}
	}
	return ""
}
