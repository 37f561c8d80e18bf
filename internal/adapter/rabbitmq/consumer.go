package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

type consumer struct {
	conn       Connection
	logger     logger.Logger
	retryDelay time.Duration
}

func NewConsumer(conn Connection, lgr logger.Logger, retryDelay time.Duration) interfaces.MessageConsumer {
	return &consumer{conn: conn, logger: lgr, retryDelay: retryDelay}
}

// ConsumeNotifications prints kds_status traffic until ctx is done,
// resubscribing after a flat delay whenever the channel drops.
func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	for {
		err := c.consumeNotifications(ctx, handler)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.logger.Error("consumer_disconnected", "Notifications consumer disconnected, resubscribing", "", map[string]interface{}{
			"retry_delay": c.retryDelay.String(),
		}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *consumer) consumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	queue, err := bindExclusiveQueue(ch, StatusExchange)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(queue, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			// a bad notification must not stop the subscriber
			_ = handler(ctx, msg.Body)
		}
	}
}
