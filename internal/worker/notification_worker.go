package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"unidoc-hub/internal/model"
)

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

// NotificationWorker turns queued notification events into in-app notifications.
type NotificationWorker struct {
	*queueConsumer
	store NotificationStore
}

func NewNotificationWorker(conn *amqp.Connection, store NotificationStore, queueName string) *NotificationWorker {
	w := &NotificationWorker{store: store}
	w.queueConsumer = newQueueConsumer(conn, queueName, "notification", w.handle)
	return w
}

func (w *NotificationWorker) handle(ctx context.Context, body []byte) error {
	var ev model.NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: decode event: %v", errPermanent, err)
	}
	if ev.Title == "" {
		return fmt.Errorf("%w: event without title", errPermanent)
	}

	var errs []error
	for _, uid := range ev.UserIDs {
		if uid == 0 {
			continue
		}
		n := &model.Notification{
			UserID:     uid,
			Title:      ev.Title,
			Body:       ev.Body,
			DocumentID: ev.DocumentID,
		}
		if err := w.store.Create(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", uid, err))
		}
	}
	return errors.Join(errs...)
}
