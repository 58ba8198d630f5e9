package vectorstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dungca200/rag-chatbot-sub000/internal/model"
)

// MySQLStore keeps passage vectors in a chunks table and ranks candidates
// in process. Scopes rarely exceed a few thousand rows, so a brute-force
// cosine pass over the scoped rows is simpler and cheaper than running a
// dedicated vector database next to MySQL.
type MySQLStore struct {
	db *gorm.DB
}

func NewMySQLStore(db *gorm.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) Upsert(ctx context.Context, scope Scope, documentKey string, entries []Entry) error {
	chunks := make([]model.Chunk, 0, len(entries))
	for _, e := range entries {
		c := model.Chunk{
			UserID:         scope.UserID,
			ConversationID: scope.ConversationID,
			DocumentKey:    documentKey,
			DocumentName:   e.DocumentName,
			Ordinal:        e.Ordinal,
			Content:        e.Content,
			Marker:         e.Marker,
		}
		c.SetEmbedding(e.Vector)
		chunks = append(chunks, c)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND conversation_id = ? AND document_key = ?", scope.UserID, scope.ConversationID, documentKey).
			Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.Create(&chunks).Error
	})
	if err != nil {
		return fmt.Errorf("upsert chunks failed: %w", err)
	}
	return nil
}

func (s *MySQLStore) Search(ctx context.Context, scope Scope, queryVec []float32, k int) ([]Result, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", scope.UserID)
	if scope.DocumentKey != "" {
		q = q.Where("document_key = ?", scope.DocumentKey).
			Where("conversation_id IN ?", []uint{0, scope.ConversationID})
	} else {
		q = q.Where("conversation_id = ?", scope.ConversationID)
	}

	var chunks []model.Chunk
	if err := q.Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("load scoped chunks failed: %w", err)
	}

	results := make([]Result, 0, len(chunks))
	for i := range chunks {
		results = append(results, Result{
			DocumentKey:  chunks[i].DocumentKey,
			DocumentName: chunks[i].DocumentName,
			Ordinal:      chunks[i].Ordinal,
			Content:      chunks[i].Content,
			Marker:       chunks[i].Marker,
			Score:        Cosine(queryVec, chunks[i].EmbeddingVector()),
		})
	}
	return rankResults(results, k), nil
}

func (s *MySQLStore) Delete(ctx context.Context, scope Scope, documentKey string) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND conversation_id = ? AND document_key = ?", scope.UserID, scope.ConversationID, documentKey).
		Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks failed: %w", err)
	}
	return nil
}

func (s *MySQLStore) Publish(ctx context.Context, scope Scope, stagingKey, documentKey string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND conversation_id = ? AND document_key = ?", scope.UserID, scope.ConversationID, documentKey).
			Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Chunk{}).
			Where("user_id = ? AND conversation_id = ? AND document_key = ?", scope.UserID, scope.ConversationID, stagingKey).
			Update("document_key", documentKey).Error
	})
	if err != nil {
		return fmt.Errorf("publish staged chunks failed: %w", err)
	}
	return nil
}

func (s *MySQLStore) PurgeConversation(ctx context.Context, userID, conversationID uint) error {
	if conversationID == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("purge conversation chunks failed: %w", err)
	}
	return nil
}
