package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"unidoc-hub/internal/app"
	"unidoc-hub/internal/transport/http/response"
)

type FeedbackHandler struct {
	feedbackService *app.FeedbackService
}

type RateRequest struct {
	Score int `json:"score" binding:"required,min=1,max=5"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

func NewFeedbackHandler(feedbackService *app.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

func (h *FeedbackHandler) Rate(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "score must be between 1 and 5")
		return
	}

	view, err := h.feedbackService.Rate(c.Request.Context(), userID, docID, req.Score)
	if err != nil {
		writeFeedbackError(c, err, "rate document failed")
		return
	}
	response.OK(c, view)
}

func (h *FeedbackHandler) GetRating(c *gin.Context) {
	userID, _ := getUserIDFromContext(c)
	docID, ok := parseDocumentID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	view, err := h.feedbackService.Rating(c.Request.Context(), userID, docID)
	if err != nil {
		writeFeedbackError(c, err, "get rating failed")
		return
	}
	response.OK(c, view)
}

func (h *FeedbackHandler) ListComments(c *gin.Context) {
	docID, ok := parseDocumentID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	comments, err := h.feedbackService.ListComments(c.Request.Context(), docID, queryInt(c, "limit", 50))
	if err != nil {
		writeFeedbackError(c, err, "list comments failed")
		return
	}
	response.OK(c, comments)
}

func (h *FeedbackHandler) AddComment(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docID, ok := parseDocumentID(c)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	comment, err := h.feedbackService.AddComment(c.Request.Context(), userID, docID, req.Content)
	if err != nil {
		writeFeedbackError(c, err, "add comment failed")
		return
	}
	response.OK(c, comment)
}

func (h *FeedbackHandler) DeleteComment(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	commentID, err := parseUintParam(c, "id")
	if err != nil || commentID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid comment id")
		return
	}
	if err := h.feedbackService.DeleteComment(c.Request.Context(), userID, isAdmin(c), commentID); err != nil {
		writeFeedbackError(c, err, "delete comment failed")
		return
	}
	response.OK(c, gin.H{"deleted_comment_id": commentID})
}

func writeFeedbackError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrCommentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
