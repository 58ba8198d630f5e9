package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dungca200/rag-chatbot-sub000/internal/app"
	"github.com/dungca200/rag-chatbot-sub000/internal/ingest"
	"github.com/dungca200/rag-chatbot-sub000/internal/parser"
	"github.com/dungca200/rag-chatbot-sub000/internal/transport/http/response"
)

const maxUploadSize = 20 << 20 // 20 MB

type DocumentHandler struct {
	documentService *app.DocumentService
}

func NewDocumentHandler(documentService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Upload accepts a multipart form with "file", optional "conversation_id",
// and "persist" ("true" indexes into the user's permanent library instead
// of the conversation).
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > maxUploadSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 20MB)")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	persist := strings.EqualFold(c.PostForm("persist"), "true")
	var conversationID uint
	if raw := c.PostForm("conversation_id"); raw != "" {
		id, ok := parsePostFormID(raw)
		if !ok {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation_id")
			return
		}
		conversationID = id
	}

	doc, err := h.documentService.Upload(c.Request.Context(), app.UploadInput{
		UserID:         userID,
		ConversationID: conversationID,
		FileName:       file.Filename,
		MediaType:      file.Header.Get("Content-Type"),
		Data:           data,
		Persist:        persist,
	})
	if err != nil {
		h.writeUploadError(c, err)
		return
	}

	response.OK(c, doc)
}

func (h *DocumentHandler) writeUploadError(c *gin.Context, err error) {
	var stageErr *ingest.StageError
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrUploadTooLarge),
		errors.Is(err, ingest.ErrInvalidUpload):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case parser.IsParseError(err):
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedDocument, err.Error())
	case errors.As(err, &stageErr):
		response.Error(c, http.StatusBadGateway, response.CodeInternalServer, "document processing failed at stage "+string(stageErr.Stage))
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
	}
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	conversationID := uint(0)
	if raw := c.Query("conversation_id"); raw != "" {
		id, ok := parsePostFormID(raw)
		if !ok {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation_id")
			return
		}
		conversationID = id
	}

	docs, err := h.documentService.ListDocuments(userID, conversationID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	documentID, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}

	if err := h.documentService.DeleteDocument(c.Request.Context(), userID, documentID); err != nil {
		switch {
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_document_id": documentID})
}
