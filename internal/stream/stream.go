// Package stream defines the ordered event protocol a conversational turn
// emits, and the SSE writer that puts it on the wire. The event set is
// closed: consumers tolerate unknown event types additively, but the
// producer never skips one silently.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dungca200/rag-chatbot-sub000/internal/model"
)

type EventType string

const (
	EventConversationCreated EventType = "conversation-created"
	EventToken               EventType = "token"
	EventMessageComplete     EventType = "message-complete"
	EventConversationTitle   EventType = "conversation-title"
	EventDone                EventType = "done"
	EventError               EventType = "error"
)

// Event is one frame of the turn lifecycle:
// conversation-created? token* message-complete conversation-title? done,
// or error at any point, which terminates the stream.
type Event struct {
	Type EventType
	Data interface{}
}

// Emitter receives events in emission order. Returning an error stops the
// producer; the transport uses this to propagate client disconnects.
type Emitter func(Event) error

type CreatedPayload struct {
	ID uint `json:"id"`
}

type TokenPayload struct {
	Content string `json:"content"`
}

type CompletePayload struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Sources    []model.Source `json:"sources"`
	Confidence float64        `json:"confidence"`
}

type TitlePayload struct {
	Title string `json:"title"`
}

// ErrorPayload carries a user-safe message only; internal error text never
// reaches it.
type ErrorPayload struct {
	Message string `json:"message"`
}

func Created(id uint) Event {
	return Event{Type: EventConversationCreated, Data: CreatedPayload{ID: id}}
}

func Token(content string) Event {
	return Event{Type: EventToken, Data: TokenPayload{Content: content}}
}

func Complete(content string, sources []model.Source, confidence float64) Event {
	if sources == nil {
		sources = []model.Source{}
	}
	return Event{Type: EventMessageComplete, Data: CompletePayload{
		Role:       "assistant",
		Content:    content,
		Sources:    sources,
		Confidence: confidence,
	}}
}

func Title(title string) Event {
	return Event{Type: EventConversationTitle, Data: TitlePayload{Title: title}}
}

func Done() Event {
	return Event{Type: EventDone}
}

func Error(message string) Event {
	return Event{Type: EventError, Data: ErrorPayload{Message: message}}
}

// SSEWriter renders events as newline-delimited `event:`/`data:` frame
// pairs and flushes after each one so tokens reach the client while
// generation is still in flight. Payloads are JSON, so embedded newlines
// are already escaped and cannot break framing. The stream headers are
// written with the first event, so a turn that fails before emitting
// anything can still get a plain JSON error response.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func NewSSEWriter(w http.ResponseWriter, flusher http.Flusher) *SSEWriter {
	return &SSEWriter{w: w, flusher: flusher}
}

// Started reports whether at least one event has been written.
func (s *SSEWriter) Started() bool {
	return s.started
}

func (s *SSEWriter) Emit(event Event) error {
	data := event.Data
	if data == nil {
		data = struct{}{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event failed: %w", event.Type, err)
	}
	if !s.started {
		header := s.w.Header()
		header.Set("Content-Type", "text/event-stream")
		header.Set("Cache-Control", "no-cache")
		header.Set("Connection", "keep-alive")
		header.Set("X-Accel-Buffering", "no")
		s.started = true
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return fmt.Errorf("write %s event failed: %w", event.Type, err)
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
