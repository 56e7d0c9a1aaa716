package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unidoc-hub/internal/app"
	"unidoc-hub/internal/assistant"
	"unidoc-hub/internal/transport/http/response"
)

type AssistantHandler struct {
	conversationService *app.ConversationService
}

type ChatHistoryItem struct {
	Role    string `json:"role" binding:"required,oneof=ADMIN STUDENT"`
	Content string `json:"content" binding:"max=2000"`
}

type ChatRequest struct {
	Message        string            `json:"message" binding:"required,max=2000"`
	History        []ChatHistoryItem `json:"history" binding:"omitempty,dive"`
	ConversationID uint              `json:"conversation_id"`
}

type CreateConversationRequest struct {
	Title string `json:"title" binding:"max=128"`
}

func NewAssistantHandler(conversationService *app.ConversationService) *AssistantHandler {
	return &AssistantHandler{conversationService: conversationService}
}

func (h *AssistantHandler) Chat(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	history := make([]assistant.HistoryItem, 0, len(req.History))
	for _, it := range req.History {
		history = append(history, assistant.HistoryItem{Role: assistant.Role(it.Role), Content: it.Content})
	}

	result, err := h.conversationService.Chat(c.Request.Context(), app.ChatInput{
		UserID:         userID,
		Message:        req.Message,
		History:        history,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		writeConversationError(c, err, "chat failed")
		return
	}
	response.OK(c, result)
}

func (h *AssistantHandler) CreateConversation(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req CreateConversationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}
	conv, err := h.conversationService.Create(c.Request.Context(), userID, req.Title)
	if err != nil {
		writeConversationError(c, err, "create conversation failed")
		return
	}
	response.OK(c, conv)
}

func (h *AssistantHandler) ListConversations(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	convs, err := h.conversationService.List(c.Request.Context(), userID)
	if err != nil {
		writeConversationError(c, err, "list conversations failed")
		return
	}
	response.OK(c, convs)
}

func (h *AssistantHandler) Messages(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	convID, err := parseUintParam(c, "id")
	if err != nil || convID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}
	messages, err := h.conversationService.Messages(c.Request.Context(), userID, convID, queryInt(c, "limit", 50))
	if err != nil {
		writeConversationError(c, err, "get messages failed")
		return
	}
	response.OK(c, messages)
}

func (h *AssistantHandler) DeleteConversation(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	convID, err := parseUintParam(c, "id")
	if err != nil || convID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid conversation id")
		return
	}
	if err := h.conversationService.Delete(c.Request.Context(), userID, convID); err != nil {
		writeConversationError(c, err, "delete conversation failed")
		return
	}
	response.OK(c, gin.H{"deleted_conversation_id": convID})
}

func writeConversationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, err.Error())
	case errors.Is(err, app.ErrMessageEnqueue):
		response.Error(c, http.StatusServiceUnavailable, response.CodeMessageEnqueue, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
