package model

import "time"

// Document records an uploaded file and the key that correlates it with its
// indexed chunks. ConversationID is zero for documents in the user's
// permanent library; session-only documents carry the owning conversation.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	ConversationID uint      `gorm:"index" json:"conversation_id"`
	Name           string    `gorm:"size:256;not null" json:"name"`
	Size           int64     `gorm:"not null" json:"size"`
	MediaType      string    `gorm:"size:128" json:"media_type"`
	DocumentKey    string    `gorm:"size:64;not null;index" json:"document_key"`
	ChunkCount     int       `json:"chunk_count"`
	Persistent     bool      `gorm:"not null" json:"persistent"`
	Vectorized     bool      `gorm:"not null" json:"vectorized"`
	CreatedAt      time.Time `json:"created_at"`
}
