package agent

import (
	"strings"
	"unicode"

	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

// GroundingConfidence scores how much of an answer's vocabulary appears in
// the passages it was generated from, in [0, 1]. It is a cheap lexical
// heuristic attached to the reply as an annotation; it never blocks or
// rewrites the answer.
func GroundingConfidence(answer string, passages []vectorstore.Result) float64 {
	if len(passages) == 0 || strings.TrimSpace(answer) == "" {
		return 0
	}

	passageTerms := make(map[string]struct{})
	for _, p := range passages {
		for _, term := range tokenize(p.Content) {
			passageTerms[term] = struct{}{}
		}
	}
	if len(passageTerms) == 0 {
		return 0
	}

	answerTerms := tokenize(answer)
	if len(answerTerms) == 0 {
		return 0
	}

	grounded := 0
	for _, term := range answerTerms {
		if _, ok := passageTerms[term]; ok {
			grounded++
		}
	}
	return float64(grounded) / float64(len(answerTerms))
}

// tokenize lowercases and splits on non-letter, non-digit runes, dropping
// short stopword-like terms that would inflate overlap.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}
