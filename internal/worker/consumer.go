package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"unidoc-hub/internal/platform/rabbitmq"
)

// errPermanent marks a delivery that will never succeed and must not be requeued.
var errPermanent = errors.New("permanent failure")

type handleFunc func(ctx context.Context, body []byte) error

// queueConsumer runs handle for every delivery on one queue. A delivery whose
// handler fails is requeued once unless the error is permanent.
type queueConsumer struct {
	conn      *amqp.Connection
	queueName string
	handle    handleFunc
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newQueueConsumer(conn *amqp.Connection, queueName, name string, handle handleFunc) *queueConsumer {
	return &queueConsumer{
		conn:      conn,
		queueName: queueName,
		handle:    handle,
		logger:    slog.Default().With("worker", name, "queue", queueName),
	}
}

func (c *queueConsumer) Start(ctx context.Context) error {
	if c.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	ch, err := c.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmq.DeclareQueue(ch, c.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					c.logger.Warn("delivery channel closed")
					return
				}
				c.process(workerCtx, d)
			}
		}
	}()

	c.logger.Info("worker started")
	return nil
}

func (c *queueConsumer) process(ctx context.Context, d amqp.Delivery) {
	err := c.handle(ctx, d.Body)
	if err == nil {
		_ = d.Ack(false)
		return
	}
	requeue := !errors.Is(err, errPermanent) && !d.Redelivered
	c.logger.Error("handle delivery failed", "error", err, "requeue", requeue)
	_ = d.Nack(false, requeue)
}

func (c *queueConsumer) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}
