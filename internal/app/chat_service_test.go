package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dungca200/rag-chatbot-sub000/internal/model"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short message", "What is the warranty period?", "What is the warranty period?"},
		{"collapses whitespace", "  hello\n\t world  ", "hello world"},
		{"truncates long message", "this message is far too long to serve as a conversation title without trimming", "this message is far too long to serve as..."},
		{"empty", "", "New Chat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deriveTitle(tt.content))
		})
	}
}

func TestTrimMessages(t *testing.T) {
	messages := []model.Message{
		{Content: "one"}, {Content: "two"}, {Content: "three"},
	}

	assert.Len(t, trimMessages(messages, 0), 3)
	assert.Len(t, trimMessages(messages, 5), 3)

	trimmed := trimMessages(messages, 2)
	assert.Len(t, trimmed, 2)
	assert.Equal(t, "two", trimmed[0].Content)
	assert.Equal(t, "three", trimmed[1].Content)
}

func TestToChatHistory(t *testing.T) {
	history := toChatHistory([]model.Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
		{Role: "", Content: "untagged"},
	})

	assert.Len(t, history, 3)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "user", history[2].Role)
}
