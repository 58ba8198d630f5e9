package agent

import (
	"context"
	"fmt"

	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
)

const conversationSystemPrompt = `You are a helpful, concise assistant.
Answer from the conversation and general knowledge. You have no access to
the user's documents in this mode; if they ask about an uploaded file, tell
them to attach it or switch to a document question instead of guessing at
its contents.`

// ConversationAgent handles turns that need no document lookup.
type ConversationAgent struct {
	model ChatModel
}

func NewConversationAgent(model ChatModel) *ConversationAgent {
	return &ConversationAgent{model: model}
}

// Answer streams a plain conversational reply via onToken and returns the
// full text.
func (a *ConversationAgent) Answer(ctx context.Context, query string, history []ai.ChatMessage, onToken func(string) error) (string, error) {
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: conversationSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, ai.ChatMessage{Role: "user", Content: query})

	content, err := a.model.StreamComplete(ctx, messages, onToken)
	if err != nil {
		return "", fmt.Errorf("conversational generation failed: %w", err)
	}
	return content, nil
}
