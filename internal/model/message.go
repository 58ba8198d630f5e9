package model

import (
	"encoding/json"
	"time"
)

// Source is a citation attached to an assistant message: the passage excerpt
// and where it came from. Derived at generation time, stored denormalized.
type Source struct {
	DocumentKey  string  `json:"document_key"`
	DocumentName string  `json:"document_name,omitempty"`
	Marker       string  `json:"marker,omitempty"`
	Excerpt      string  `json:"excerpt"`
	Score        float64 `json:"score"`
}

// Message is immutable once written and belongs to exactly one conversation.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Role           string    `gorm:"size:16;not null;index" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Sources        string    `gorm:"type:text" json:"-"` // JSON array of Source
	AttachedFile   string    `gorm:"size:256" json:"attached_file,omitempty"`
	Confidence     float64   `json:"confidence,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SourceList returns the parsed sources; empty on parse error.
func (m *Message) SourceList() []Source {
	if m.Sources == "" {
		return nil
	}
	var list []Source
	_ = json.Unmarshal([]byte(m.Sources), &list)
	return list
}

// SetSources stores the sources as JSON. A nil or empty slice stores "[]" so
// that an assistant message without citations is distinguishable from one
// that was never annotated.
func (m *Message) SetSources(list []Source) {
	if len(list) == 0 {
		m.Sources = "[]"
		return
	}
	b, _ := json.Marshal(list)
	m.Sources = string(b)
}
