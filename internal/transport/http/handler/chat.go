package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dungca200/rag-chatbot-sub000/internal/app"
	"github.com/dungca200/rag-chatbot-sub000/internal/pkg/logger"
	"github.com/dungca200/rag-chatbot-sub000/internal/stream"
	"github.com/dungca200/rag-chatbot-sub000/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type StreamTurnRequest struct {
	ConversationID uint   `json:"conversation_id"`
	Content        string `json:"content" binding:"required"`
	DocumentKey    string `json:"document_key" binding:"max=64"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// StreamTurn runs one chat turn over SSE. Errors before the first event go
// out as a normal JSON response; once streaming has begun, failure becomes
// a terminal error event with a user-safe message.
func (h *ChatHandler) StreamTurn(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req StreamTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	writer := stream.NewSSEWriter(c.Writer, flusher)
	err := h.chatService.StreamTurn(c.Request.Context(), app.TurnInput{
		UserID:            userID,
		ConversationID:    req.ConversationID,
		Content:           req.Content,
		PinnedDocumentKey: req.DocumentKey,
	}, writer.Emit)
	if err != nil {
		logger.Errorf("stream turn failed for user %d: %v", userID, err)
		if writer.Started() {
			_ = writer.Emit(stream.Error(safeTurnError(err)))
			return
		}
		writeTurnError(c, err)
	}
}

// writeTurnError maps a failure that happened before any event went out to
// a plain JSON response, so clients do not have to parse an SSE body for
// simple validation problems.
func writeTurnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrMessageEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, safeTurnError(err))
	case errors.Is(err, app.ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, safeTurnError(err))
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, safeTurnError(err))
	case errors.Is(err, app.ErrTurnInProgress):
		response.Error(c, http.StatusConflict, response.CodeTurnInProgress, safeTurnError(err))
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, safeTurnError(err))
	}
}

type CreateConversationRequest struct {
	Title string `json:"title" binding:"max=128"`
}

func (h *ChatHandler) CreateConversation(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	conversation, err := h.chatService.CreateConversation(userID, req.Title)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create conversation failed")
		}
		return
	}

	response.OK(c, conversation)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	conversations, err := h.chatService.ListConversations(userID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list conversations failed")
		}
		return
	}

	response.OK(c, conversations)
}

func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}

	if err := h.chatService.DeleteConversation(c.Request.Context(), userID, conversationID); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete conversation failed")
		}
		return
	}

	response.OK(c, gin.H{"deleted_conversation_id": conversationID})
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	conversationID, ok := parseQueryID(c, "conversation_id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation_id")
		return
	}

	limit := parseQueryInt(c, "limit", 100)
	history, err := h.chatService.GetHistory(userID, conversationID, limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrConversationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get history failed")
		}
		return
	}

	response.OK(c, history)
}

// safeTurnError maps a turn failure to text fit for the client; internal
// error detail stays in the log.
func safeTurnError(err error) string {
	switch {
	case errors.Is(err, app.ErrMessageEmpty):
		return "message content is empty"
	case errors.Is(err, app.ErrConversationNotFound):
		return "conversation not found"
	case errors.Is(err, app.ErrDocumentNotFound):
		return "document not found"
	case errors.Is(err, app.ErrTurnInProgress):
		return "a reply is already being generated for this conversation"
	case errors.Is(err, app.ErrMessageEnqueue):
		return "message could not be queued, try again"
	default:
		return "generation failed, try again"
	}
}
