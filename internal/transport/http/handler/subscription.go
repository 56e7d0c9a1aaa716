package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unidoc-hub/internal/app"
	"unidoc-hub/internal/transport/http/response"
)

type SubscriptionHandler struct {
	subscriptionService *app.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *app.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	subs, err := h.subscriptionService.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list subscriptions failed")
		return
	}
	response.OK(c, subs)
}

func (h *SubscriptionHandler) SubscribeSubject(c *gin.Context) {
	h.change(c, "subject_id", h.subscriptionService.SubscribeSubject)
}

func (h *SubscriptionHandler) UnsubscribeSubject(c *gin.Context) {
	h.change(c, "subject_id", h.subscriptionService.UnsubscribeSubject)
}

func (h *SubscriptionHandler) SubscribeFaculty(c *gin.Context) {
	h.change(c, "faculty_id", h.subscriptionService.SubscribeFaculty)
}

func (h *SubscriptionHandler) UnsubscribeFaculty(c *gin.Context) {
	h.change(c, "faculty_id", h.subscriptionService.UnsubscribeFaculty)
}

func (h *SubscriptionHandler) change(c *gin.Context, field string, apply func(ctx context.Context, userID, id uint) error) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid id")
		return
	}
	if err := apply(c.Request.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrSubjectNotFound), errors.Is(err, app.ErrFacultyNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update subscription failed")
		}
		return
	}
	response.OK(c, gin.H{field: id})
}
