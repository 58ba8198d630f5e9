// Package chunker splits extracted text into overlapping passages.
package chunker

// Passage carries its originating rune offset range so every chunk can be
// traced back to its position in the source text.
type Passage struct {
	Text    string
	Start   int
	End     int
	Ordinal int
}

const (
	DefaultSize    = 512
	DefaultOverlap = 64
)

// Split is pure and deterministic: identical inputs always yield identical
// passages. Boundaries are rune counts, never bytes, so multi-byte text is
// not cut mid-character. An overlap at or above size falls back to half the
// size so the window always advances.
func Split(text string, size, overlap int) []Passage {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := size - overlap
	var passages []Passage
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		passages = append(passages, Passage{
			Text:    string(runes[i:end]),
			Start:   i,
			End:     end,
			Ordinal: len(passages),
		})
		if end == len(runes) {
			break
		}
	}
	return passages
}
