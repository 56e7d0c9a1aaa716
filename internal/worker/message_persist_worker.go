package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"unidoc-hub/internal/model"
)

type MessageStore interface {
	CreateMessage(ctx context.Context, msg *model.ConversationMessage) error
	Touch(ctx context.Context, conversationID uint) error
}

// MessagePersistWorker writes queued assistant conversation turns to MySQL.
type MessagePersistWorker struct {
	*queueConsumer
	store MessageStore
}

func NewMessagePersistWorker(conn *amqp.Connection, store MessageStore, queueName string) *MessagePersistWorker {
	w := &MessagePersistWorker{store: store}
	w.queueConsumer = newQueueConsumer(conn, queueName, "message_persist", w.handle)
	return w
}

func (w *MessagePersistWorker) handle(ctx context.Context, body []byte) error {
	var msg model.ConversationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: decode message: %v", errPermanent, err)
	}
	if msg.ConversationID == 0 || msg.Content == "" {
		return fmt.Errorf("%w: message without conversation or content", errPermanent)
	}
	if err := w.store.CreateMessage(ctx, &msg); err != nil {
		return err
	}
	return w.store.Touch(ctx, msg.ConversationID)
}
