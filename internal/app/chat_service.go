package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dungca200/rag-chatbot-sub000/internal/agent"
	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
	"github.com/dungca200/rag-chatbot-sub000/internal/model"
	"github.com/dungca200/rag-chatbot-sub000/internal/pkg/logger"
	"github.com/dungca200/rag-chatbot-sub000/internal/repository"
	"github.com/dungca200/rag-chatbot-sub000/internal/stream"
	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrMessageEmpty         = errors.New("message content is empty")
	ErrMessageEnqueue       = errors.New("message enqueue failed")
	ErrTurnInProgress       = errors.New("a turn is already running for this conversation")
)

const titleMaxRunes = 40

// AsyncMessagePublisher hands a finished message to the persistence queue.
type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.Message) error
}

// HistoryCache is the read-through cache over conversation history.
type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, conversationID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, conversationID uint) error
	MarkDirty(ctx context.Context, conversationID uint) error
	IsDirty(ctx context.Context, conversationID uint) (bool, error)
}

// ChatService runs conversational turns end to end: conversation
// bookkeeping, history assembly, routing through the orchestrator, and
// asynchronous persistence of both sides of the exchange.
type ChatService struct {
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	documentRepo     *repository.DocumentRepository
	publisher        AsyncMessagePublisher
	historyCache     HistoryCache
	orchestrator     *agent.Orchestrator
	store            vectorstore.Store
	maxContext       int

	turnLocks sync.Map // conversationID -> *sync.Mutex
}

func NewChatService(
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	documentRepo *repository.DocumentRepository,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	orchestrator *agent.Orchestrator,
	store vectorstore.Store,
	maxContext int,
) *ChatService {
	if maxContext <= 0 {
		maxContext = 20
	}
	return &ChatService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		documentRepo:     documentRepo,
		publisher:        publisher,
		historyCache:     historyCache,
		orchestrator:     orchestrator,
		store:            store,
		maxContext:       maxContext,
	}
}

// TurnInput is one incoming user turn. A zero ConversationID starts a new
// conversation; PinnedDocumentKey restricts retrieval to that document.
type TurnInput struct {
	UserID            uint
	ConversationID    uint
	Content           string
	PinnedDocumentKey string
}

// StreamTurn executes a turn, emitting the full event sequence through
// emit. Exactly one turn runs per conversation at a time; a second caller
// gets ErrTurnInProgress instead of interleaved history. Nothing of the
// assistant's reply is persisted unless generation finishes cleanly.
func (s *ChatService) StreamTurn(ctx context.Context, input TurnInput, emit stream.Emitter) error {
	if input.UserID == 0 {
		return ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return ErrMessageEmpty
	}

	conversation, created, err := s.resolveConversation(input.UserID, input.ConversationID, content)
	if err != nil {
		return err
	}
	if created {
		if err := emit(stream.Created(conversation.ID)); err != nil {
			return err
		}
	}

	lock := s.lockFor(conversation.ID)
	if !lock.TryLock() {
		return ErrTurnInProgress
	}
	defer lock.Unlock()

	if input.PinnedDocumentKey != "" {
		doc, err := s.documentRepo.GetByKeyAndUserID(input.PinnedDocumentKey, input.UserID, conversation.ID)
		if err != nil {
			return err
		}
		if doc == nil {
			return ErrDocumentNotFound
		}
	}

	sessionDocs, err := s.documentRepo.CountByConversationID(input.UserID, conversation.ID)
	if err != nil {
		return err
	}

	history, err := s.loadHistory(ctx, conversation.ID)
	if err != nil {
		return err
	}

	userMessage := model.Message{
		ConversationID: conversation.ID,
		UserID:         input.UserID,
		Role:           "user",
		Content:        content,
		Sources:        "[]",
		CreatedAt:      time.Now(),
	}
	if s.publisher == nil {
		return ErrMessageEnqueue
	}
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, conversation.ID)
		_ = s.historyCache.DeleteHistory(ctx, conversation.ID)
	}
	if err := s.publisher.Publish(ctx, userMessage); err != nil {
		return ErrMessageEnqueue
	}

	result, err := s.orchestrator.RunTurn(ctx, agent.TurnRequest{
		UserID:              input.UserID,
		ConversationID:      conversation.ID,
		Query:               content,
		History:             toChatHistory(history),
		PinnedDocumentKey:   input.PinnedDocumentKey,
		HasSessionDocuments: sessionDocs > 0,
	}, emit)
	if err != nil {
		return err
	}

	assistantContent := strings.TrimSpace(result.Content)
	if assistantContent == "" {
		assistantContent = "The model returned an empty response."
	}

	assistantMessage := model.Message{
		ConversationID: conversation.ID,
		UserID:         input.UserID,
		Role:           "assistant",
		Content:        assistantContent,
		Confidence:     result.Confidence,
		CreatedAt:      time.Now(),
	}
	assistantMessage.SetSources(result.Sources)
	if err := s.publisher.Publish(ctx, assistantMessage); err != nil {
		return ErrMessageEnqueue
	}
	_ = s.conversationRepo.Touch(conversation.ID)

	if err := emit(stream.Complete(assistantContent, result.Sources, result.Confidence)); err != nil {
		return err
	}
	if created {
		if err := emit(stream.Title(conversation.Title)); err != nil {
			return err
		}
	}
	return emit(stream.Done())
}

func (s *ChatService) CreateConversation(userID uint, title string) (*model.Conversation, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New Chat"
	}
	conversation := &model.Conversation{UserID: userID, Title: title}
	if err := s.conversationRepo.Create(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *ChatService) ListConversations(userID uint) ([]model.Conversation, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.conversationRepo.ListByUserID(userID)
}

// DeleteConversation removes the conversation and everything scoped to it:
// messages, session documents, their vectors, and the cached history.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID uint) error {
	if userID == 0 || conversationID == 0 {
		return ErrInvalidInput
	}
	conversation, err := s.conversationRepo.GetByIDAndUserID(conversationID, userID)
	if err != nil {
		return err
	}
	if conversation == nil {
		return ErrConversationNotFound
	}

	if err := s.store.PurgeConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.documentRepo.DeleteByConversationID(userID, conversationID); err != nil {
		return err
	}
	if err := s.messageRepo.DeleteByConversationID(conversationID); err != nil {
		return err
	}
	if err := s.conversationRepo.DeleteByIDAndUserID(conversationID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, conversationID)
	}
	return nil
}

func (s *ChatService) GetHistory(userID, conversationID uint, limit int) ([]model.Message, error) {
	if userID == 0 || conversationID == 0 {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDAndUserID(conversationID, userID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}

	ctx := context.Background()
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, conversationID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conversationID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListByConversationID(conversationID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, conversationID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, conversationID, messages)
		}
	}
	return messages, nil
}

func (s *ChatService) resolveConversation(userID, conversationID uint, firstContent string) (*model.Conversation, bool, error) {
	if conversationID != 0 {
		conversation, err := s.conversationRepo.GetByIDAndUserID(conversationID, userID)
		if err != nil {
			return nil, false, err
		}
		if conversation == nil {
			return nil, false, ErrConversationNotFound
		}
		return conversation, false, nil
	}

	conversation := &model.Conversation{
		UserID: userID,
		Title:  deriveTitle(firstContent),
	}
	if err := s.conversationRepo.Create(conversation); err != nil {
		return nil, false, err
	}
	return conversation, true, nil
}

func (s *ChatService) loadHistory(ctx context.Context, conversationID uint) ([]model.Message, error) {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, conversationID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conversationID); cacheErr == nil && hit {
				return trimMessages(cached, s.maxContext), nil
			}
		} else if err != nil {
			logger.Warnf("history cache dirty check failed for conversation %d: %v", conversationID, err)
		}
	}
	return s.messageRepo.ListRecentByConversationID(conversationID, s.maxContext)
}

func (s *ChatService) lockFor(conversationID uint) *sync.Mutex {
	lock, _ := s.turnLocks.LoadOrStore(conversationID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func toChatHistory(messages []model.Message) []ai.ChatMessage {
	history := make([]ai.ChatMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		history = append(history, ai.ChatMessage{Role: role, Content: m.Content})
	}
	return history
}

func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}

// deriveTitle names a new conversation after its opening message.
func deriveTitle(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	if content == "" {
		return "New Chat"
	}
	return content
}
