package app

import (
	"context"
	"errors"
	"strings"

	"github.com/dungca200/rag-chatbot-sub000/internal/ingest"
	"github.com/dungca200/rag-chatbot-sub000/internal/model"
	"github.com/dungca200/rag-chatbot-sub000/internal/pkg/logger"
	"github.com/dungca200/rag-chatbot-sub000/internal/repository"
	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

var ErrUploadTooLarge = errors.New("upload exceeds size limit")

const maxUploadBytes = 20 << 20

// DocumentService owns document lifecycle: ingestion, listing, deletion,
// and the replace-on-reupload rule. Uploading a file whose name already
// exists in the same scope but whose bytes changed replaces the old chunk
// set instead of accumulating a stale copy next to it.
type DocumentService struct {
	documentRepo *repository.DocumentRepository
	processor    *ingest.Processor
	store        vectorstore.Store
}

func NewDocumentService(documentRepo *repository.DocumentRepository, processor *ingest.Processor, store vectorstore.Store) *DocumentService {
	return &DocumentService{
		documentRepo: documentRepo,
		processor:    processor,
		store:        store,
	}
}

type UploadInput struct {
	UserID         uint
	ConversationID uint
	FileName       string
	MediaType      string
	Data           []byte
	Persist        bool
}

func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	if input.UserID == 0 || strings.TrimSpace(input.FileName) == "" || len(input.Data) == 0 {
		return nil, ErrInvalidInput
	}
	if len(input.Data) > maxUploadBytes {
		return nil, ErrUploadTooLarge
	}

	result, err := s.processor.Process(ctx, ingest.Upload{
		OwnerID:        input.UserID,
		ConversationID: input.ConversationID,
		FileName:       input.FileName,
		MediaType:      input.MediaType,
		Data:           input.Data,
		Persist:        input.Persist,
	})
	if err != nil {
		return nil, err
	}

	scopeConversationID := input.ConversationID
	if input.Persist {
		scopeConversationID = 0
	}

	existing, err := s.documentRepo.GetByName(input.UserID, scopeConversationID, input.FileName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.DocumentKey != result.DocumentKey {
			// Same name, new content: the old chunk set is now stale.
			scope := vectorstore.Scope{UserID: input.UserID, ConversationID: scopeConversationID}
			if err := s.store.Delete(ctx, scope, existing.DocumentKey); err != nil {
				logger.Warnf("delete superseded chunks for %s failed: %v", existing.DocumentKey, err)
			}
		}
		existing.Size = int64(len(input.Data))
		existing.MediaType = input.MediaType
		existing.DocumentKey = result.DocumentKey
		existing.ChunkCount = result.ChunkCount
		existing.Vectorized = true
		if err := s.documentRepo.Save(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	doc := &model.Document{
		UserID:         input.UserID,
		ConversationID: scopeConversationID,
		Name:           input.FileName,
		Size:           int64(len(input.Data)),
		MediaType:      input.MediaType,
		DocumentKey:    result.DocumentKey,
		ChunkCount:     result.ChunkCount,
		Persistent:     input.Persist,
		Vectorized:     true,
	}
	if err := s.documentRepo.Create(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns the user's documents in a scope; conversationID 0
// lists the permanent library.
func (s *DocumentService) ListDocuments(userID, conversationID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.documentRepo.ListByUserIDAndConversationID(userID, conversationID)
}

// DeleteDocument removes the record and its chunks. The vector delete runs
// first so a failure never leaves orphaned vectors behind a missing record.
func (s *DocumentService) DeleteDocument(ctx context.Context, userID, documentID uint) error {
	if userID == 0 || documentID == 0 {
		return ErrInvalidInput
	}

	doc, err := s.documentRepo.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	scope := vectorstore.Scope{UserID: userID, ConversationID: doc.ConversationID}
	if err := s.store.Delete(ctx, scope, doc.DocumentKey); err != nil {
		return err
	}
	return s.documentRepo.DeleteByIDAndUserID(documentID, userID)
}
