package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dungca200/rag-chatbot-sub000/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Save(doc *model.Document) error {
	if err := r.db.Save(doc).Error; err != nil {
		return fmt.Errorf("save document failed: %w", err)
	}
	return nil
}

// ListByUserIDAndConversationID lists the user's documents; a zero
// conversationID returns the permanent library.
func (r *DocumentRepository) ListByUserIDAndConversationID(userID, conversationID uint) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) GetByIDAndUserID(id, userID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// GetByName finds the user's document with the same file name in the same
// scope, used to detect a re-upload that should replace the old record.
func (r *DocumentRepository) GetByName(userID, conversationID uint, name string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("user_id = ? AND conversation_id = ? AND name = ?", userID, conversationID, name).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by name failed: %w", err)
	}
	return &doc, nil
}

// GetByKeyAndUserID finds a document by its content-addressed key in either
// the permanent library or the given conversation.
func (r *DocumentRepository) GetByKeyAndUserID(documentKey string, userID, conversationID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("document_key = ? AND user_id = ? AND conversation_id IN ?",
		documentKey, userID, []uint{0, conversationID}).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document by key failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) CountByConversationID(userID, conversationID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Document{}).
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count documents failed: %w", err)
	}
	return count, nil
}

func (r *DocumentRepository) DeleteByIDAndUserID(id, userID uint) error {
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByConversationID(userID, conversationID uint) error {
	if err := r.db.Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete documents by conversation failed: %w", err)
	}
	return nil
}
