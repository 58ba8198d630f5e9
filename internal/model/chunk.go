package model

import (
	"encoding/json"
	"time"
)

// Chunk is one vector-store row: a bounded span of document text plus its
// embedding. The embedding is stored as a JSON array of float32 for
// portability across MySQL versions (no vector column type required).
// ConversationID is zero for rows in a user's permanent scope.
type Chunk struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	ConversationID uint      `gorm:"index" json:"conversation_id"`
	DocumentKey    string    `gorm:"size:64;not null;index" json:"document_key"`
	DocumentName   string    `gorm:"size:255" json:"document_name,omitempty"`
	Ordinal        int       `gorm:"not null" json:"ordinal"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Marker         string    `gorm:"size:64" json:"marker,omitempty"`
	Embedding      string    `gorm:"type:text" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *Chunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
