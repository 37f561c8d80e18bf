package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

type publisher struct {
	conn Connection
	now  func() time.Time
}

func NewPublisher(conn Connection) interfaces.MessagePublisher {
	return &publisher{conn: conn, now: time.Now}
}

func (p *publisher) PublishEvent(ctx context.Context, msg interfaces.EventMessage) error {
	return p.publish(ctx, EventsExchange, amqp.Persistent, msg)
}

func (p *publisher) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	return p.publish(ctx, StatusExchange, amqp.Transient, msg)
}

func (p *publisher) publish(ctx context.Context, exchange string, mode uint8, msg any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := declareFanout(ch, exchange); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		DeliveryMode: mode,
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    p.now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", exchange, err)
	}

	return nil
}
