package stream

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dungca200/rag-chatbot-sub000/internal/model"
)

func TestSSEWriterFraming(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer := NewSSEWriter(recorder, recorder)

	require.NoError(t, writer.Emit(Created(42)))
	require.NoError(t, writer.Emit(Token("hel")))
	require.NoError(t, writer.Emit(Token("lo")))
	require.NoError(t, writer.Emit(Complete("hello", nil, 0.8)))
	require.NoError(t, writer.Emit(Done()))

	body := recorder.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.Len(t, frames, 5)

	assert.Equal(t, "event: conversation-created\ndata: {\"id\":42}", frames[0])
	assert.Equal(t, "event: token\ndata: {\"content\":\"hel\"}", frames[1])
	assert.Equal(t, "event: token\ndata: {\"content\":\"lo\"}", frames[2])
	assert.True(t, strings.HasPrefix(frames[3], "event: message-complete\ndata: "))
	assert.Equal(t, "event: done\ndata: {}", frames[4])
}

func TestSSEWriterEscapesNewlines(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer := NewSSEWriter(recorder, recorder)

	require.NoError(t, writer.Emit(Token("line one\nline two")))

	body := recorder.Body.String()
	// The payload is JSON, so the newline is escaped and cannot start a
	// stray frame line.
	assert.Contains(t, body, `\n`)
	assert.Equal(t, 1, strings.Count(body, "\n\n"))
	assert.Equal(t, 1, strings.Count(body, "event: "))
}

func TestSSEWriterDefersHeadersUntilFirstEvent(t *testing.T) {
	recorder := httptest.NewRecorder()
	writer := NewSSEWriter(recorder, recorder)

	// Nothing emitted yet, so the response can still become plain JSON.
	assert.False(t, writer.Started())
	assert.Empty(t, recorder.Header().Get("Content-Type"))

	require.NoError(t, writer.Emit(Token("hi")))
	assert.True(t, writer.Started())
	assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", recorder.Header().Get("Cache-Control"))
	assert.Equal(t, "no", recorder.Header().Get("X-Accel-Buffering"))
}

func TestCompleteNormalizesNilSources(t *testing.T) {
	event := Complete("answer", nil, 1.0)
	payload, ok := event.Data.(CompletePayload)
	require.True(t, ok)
	assert.NotNil(t, payload.Sources)
	assert.Empty(t, payload.Sources)
	assert.Equal(t, "assistant", payload.Role)
}

func TestCompleteKeepsSources(t *testing.T) {
	sources := []model.Source{{DocumentKey: "abc", DocumentName: "doc.pdf", Marker: "page 2", Score: 0.9}}
	event := Complete("answer", sources, 0.5)
	payload := event.Data.(CompletePayload)
	require.Len(t, payload.Sources, 1)
	assert.Equal(t, "doc.pdf", payload.Sources[0].DocumentName)
}
