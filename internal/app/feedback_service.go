package app

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/repository"
)

const maxCommentLength = 2000

type FeedbackService struct {
	feedbackRepo *repository.FeedbackRepository
	documentRepo *repository.DocumentRepository
}

type RatingView struct {
	repository.RatingSummary
	MyScore int `json:"my_score,omitempty"`
}

func NewFeedbackService(feedbackRepo *repository.FeedbackRepository, documentRepo *repository.DocumentRepository) *FeedbackService {
	return &FeedbackService{
		feedbackRepo: feedbackRepo,
		documentRepo: documentRepo,
	}
}

func (s *FeedbackService) Rate(ctx context.Context, userID uint, documentID uuid.UUID, score int) (*RatingView, error) {
	if userID == 0 || score < 1 || score > 5 {
		return nil, ErrInvalidInput
	}
	if err := s.requireActive(ctx, documentID); err != nil {
		return nil, err
	}
	if err := s.feedbackRepo.UpsertRating(ctx, &model.Rating{UserID: userID, DocumentID: documentID, Score: score}); err != nil {
		return nil, err
	}
	return s.Rating(ctx, userID, documentID)
}

// Rating returns the document's average and count plus the caller's own score.
func (s *FeedbackService) Rating(ctx context.Context, userID uint, documentID uuid.UUID) (*RatingView, error) {
	summary, err := s.feedbackRepo.RatingSummary(ctx, documentID)
	if err != nil {
		return nil, err
	}
	view := &RatingView{RatingSummary: *summary}
	if userID != 0 {
		mine, err := s.feedbackRepo.GetUserRating(ctx, userID, documentID)
		if err != nil {
			return nil, err
		}
		if mine != nil {
			view.MyScore = mine.Score
		}
	}
	return view, nil
}

func (s *FeedbackService) AddComment(ctx context.Context, userID uint, documentID uuid.UUID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if userID == 0 || content == "" || utf8.RuneCountInString(content) > maxCommentLength {
		return nil, ErrInvalidInput
	}
	if err := s.requireActive(ctx, documentID); err != nil {
		return nil, err
	}
	comment := &model.Comment{DocumentID: documentID, UserID: userID, Content: content}
	if err := s.feedbackRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *FeedbackService) ListComments(ctx context.Context, documentID uuid.UUID, limit int) ([]model.Comment, error) {
	return s.feedbackRepo.ListComments(ctx, documentID, limit)
}

// DeleteComment lets authors remove their own comments and admins remove any.
func (s *FeedbackService) DeleteComment(ctx context.Context, userID uint, isAdmin bool, commentID uint) error {
	if userID == 0 || commentID == 0 {
		return ErrInvalidInput
	}
	comment, err := s.feedbackRepo.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment == nil {
		return ErrCommentNotFound
	}
	if comment.UserID != userID && !isAdmin {
		return ErrForbidden
	}
	return s.feedbackRepo.DeleteComment(ctx, commentID)
}

func (s *FeedbackService) requireActive(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.documentRepo.GetByIDWithRelations(ctx, documentID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrDocumentNotFound
	}
	if err != nil {
		return err
	}
	if !doc.IsActive() {
		return ErrDocumentNotFound
	}
	return nil
}
