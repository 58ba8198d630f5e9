package agent

import (
	"context"
	"strings"

	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
	"github.com/dungca200/rag-chatbot-sub000/internal/pkg/logger"
)

// Intent is the routing decision for one turn.
type Intent string

const (
	IntentRetrieval       Intent = "retrieval"
	IntentConversation    Intent = "conversation"
	IntentDocumentFocused Intent = "document_focused"
)

const intentSystemPrompt = `You route user messages for an assistant.
Reply with exactly one word:
"retrieval" if answering needs looking up stored factual material,
"conversation" if it is a greeting, small talk, or general reasoning that needs no lookup.`

// Classifier maps a user turn to an intent. It never fails: an attached
// document forces document_focused regardless of what the model would say,
// and any model error or unparseable reply falls back to conversation,
// which is the safe direction to be wrong in.
type Classifier struct {
	model ChatModel
}

func NewClassifier(model ChatModel) *Classifier {
	return &Classifier{model: model}
}

func (c *Classifier) Classify(ctx context.Context, text string, hasAttachedDocument bool) Intent {
	if hasAttachedDocument {
		return IntentDocumentFocused
	}

	reply, err := c.model.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: intentSystemPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		logger.Warnf("intent classification failed, defaulting to conversation: %v", err)
		return IntentConversation
	}

	intent, ok := parseIntent(reply)
	if !ok {
		logger.Warnf("unparseable intent %q, defaulting to conversation", reply)
		return IntentConversation
	}
	return intent
}

// parseIntent tolerates casing, punctuation, and models that wrap the label
// in a sentence.
func parseIntent(reply string) (Intent, bool) {
	normalized := strings.ToLower(strings.TrimSpace(reply))
	normalized = strings.Trim(normalized, `."'!`)

	hasRetrieval := strings.Contains(normalized, string(IntentRetrieval))
	hasConversation := strings.Contains(normalized, string(IntentConversation))
	switch {
	case hasRetrieval && !hasConversation:
		return IntentRetrieval, true
	case hasConversation && !hasRetrieval:
		return IntentConversation, true
	default:
		return "", false
	}
}
