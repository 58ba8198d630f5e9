// Package agent contains the routing state machine and the specialized
// response agents behind it. Routing is a closed set of intents, never
// open-ended dispatch: every transition is enumerable and testable.
package agent

import (
	"context"

	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
)

// ChatModel is the language-model surface the agents consume. *ai.ChatModel
// satisfies it; tests substitute scripted fakes.
type ChatModel interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
	StreamComplete(ctx context.Context, messages []ai.ChatMessage, onToken func(string) error) (string, error)
}

// Embedder is the query-embedding surface the retriever consumes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
