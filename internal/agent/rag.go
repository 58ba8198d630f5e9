package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
	"github.com/dungca200/rag-chatbot-sub000/internal/model"
	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

const ragSystemPrompt = `You are a helpful assistant that answers strictly from the provided document excerpts.
Rules:
1. Use only information from the numbered excerpts below. Do not invent facts.
2. If the excerpts do not contain the answer, say so plainly instead of guessing.
3. When you use an excerpt, you may mention its source marker (e.g. "page 3").
Document excerpts:
%s`

const excerptRunes = 200

// RAGAgent generates a grounded answer from retrieved passages, streaming
// tokens as they arrive.
type RAGAgent struct {
	model ChatModel
}

func NewRAGAgent(model ChatModel) *RAGAgent {
	return &RAGAgent{model: model}
}

// Answer streams a response grounded in passages via onToken and returns the
// full text plus the source list. Sources are built only from the passages
// actually given to the model, never from its output.
func (a *RAGAgent) Answer(ctx context.Context, query string, history []ai.ChatMessage, passages []vectorstore.Result, onToken func(string) error) (string, []model.Source, error) {
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{
		Role:    "system",
		Content: fmt.Sprintf(ragSystemPrompt, buildContextText(passages)),
	})
	messages = append(messages, history...)
	messages = append(messages, ai.ChatMessage{Role: "user", Content: query})

	content, err := a.model.StreamComplete(ctx, messages, onToken)
	if err != nil {
		return "", nil, fmt.Errorf("grounded generation failed: %w", err)
	}
	return content, buildSources(passages), nil
}

// buildContextText renders passages as a numbered block the prompt can
// reference.
func buildContextText(passages []vectorstore.Result) string {
	if len(passages) == 0 {
		return "(no excerpts available)"
	}
	var sb strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&sb, "[%d] (%s, %s)\n%s\n\n", i+1, p.DocumentName, p.Marker, p.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func buildSources(passages []vectorstore.Result) []model.Source {
	sources := make([]model.Source, 0, len(passages))
	for _, p := range passages {
		sources = append(sources, model.Source{
			DocumentKey:  p.DocumentKey,
			DocumentName: p.DocumentName,
			Marker:       p.Marker,
			Excerpt:      truncateRunes(p.Content, excerptRunes),
			Score:        p.Score,
		})
	}
	return sources
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
