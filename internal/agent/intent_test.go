package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
)

type fakeModel struct {
	reply     string
	err       error
	lastInput []ai.ChatMessage
}

func (m *fakeModel) Complete(_ context.Context, messages []ai.ChatMessage) (string, error) {
	m.lastInput = messages
	return m.reply, m.err
}

func (m *fakeModel) StreamComplete(_ context.Context, messages []ai.ChatMessage, onToken func(string) error) (string, error) {
	m.lastInput = messages
	if m.err != nil {
		return "", m.err
	}
	for _, token := range strings.SplitAfter(m.reply, " ") {
		if err := onToken(token); err != nil {
			return "", err
		}
	}
	return m.reply, nil
}

func TestClassifyAttachedDocumentOverride(t *testing.T) {
	model := &fakeModel{reply: "conversation"}
	classifier := NewClassifier(model)

	intent := classifier.Classify(context.Background(), "hello there", true)

	assert.Equal(t, IntentDocumentFocused, intent)
	assert.Nil(t, model.lastInput, "override must not call the model")
}

func TestClassifyReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Intent
	}{
		{"plain retrieval", "retrieval", IntentRetrieval},
		{"plain conversation", "conversation", IntentConversation},
		{"uppercase", "RETRIEVAL", IntentRetrieval},
		{"punctuated", `"conversation".`, IntentConversation},
		{"wrapped in sentence", "The intent is retrieval here.", IntentRetrieval},
		{"both labels", "retrieval or conversation", IntentConversation},
		{"garbage", "banana", IntentConversation},
		{"empty", "", IntentConversation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewClassifier(&fakeModel{reply: tt.reply})
			assert.Equal(t, tt.want, classifier.Classify(context.Background(), "question", false))
		})
	}
}

func TestClassifyModelFailureFallsBackToConversation(t *testing.T) {
	classifier := NewClassifier(&fakeModel{err: errors.New("provider down")})
	intent := classifier.Classify(context.Background(), "question", false)
	assert.Equal(t, IntentConversation, intent)
}
