package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unidoc-hub/internal/app"
	"unidoc-hub/internal/transport/http/response"
)

type NotificationHandler struct {
	notificationService *app.NotificationService
}

func NewNotificationHandler(notificationService *app.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List accepts unread=true and limit query parameters.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	items, err := h.notificationService.List(c.Request.Context(), userID, c.Query("unread") == "true", queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list notifications failed")
		return
	}
	response.OK(c, items)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	count, err := h.notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "count notifications failed")
		return
	}
	response.OK(c, gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid notification id")
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, app.ErrNotificationNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "mark notification failed")
		}
		return
	}
	response.OK(c, gin.H{"id": id})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "mark notifications failed")
		return
	}
	response.OK(c, gin.H{"updated": updated})
}
