package app

import (
	"context"
	"fmt"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/repository"
)

// Publisher enqueues a JSON payload.
type Publisher interface {
	Publish(ctx context.Context, v any) error
}

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	publisher        Publisher
}

func NewNotificationService(notificationRepo *repository.NotificationRepository, publisher Publisher) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

// Notify queues ev for the notification worker. Events without recipients are dropped.
func (s *NotificationService) Notify(ctx context.Context, ev model.NotificationEvent) error {
	if len(ev.UserIDs) == 0 {
		return nil
	}
	if s.publisher == nil {
		return ErrMessageEnqueue
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMessageEnqueue, err)
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]model.Notification, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.notificationRepo.ListByUserID(ctx, userID, unreadOnly, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, ErrInvalidInput
	}
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	if userID == 0 || id == 0 {
		return ErrInvalidInput
	}
	found, err := s.notificationRepo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, ErrInvalidInput
	}
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
