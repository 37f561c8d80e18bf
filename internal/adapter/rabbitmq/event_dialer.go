package rabbitmq

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	amqpAdapter "github.com/YelzhanWeb/kitchen-display/internal/adapter/amqp"
	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
	"github.com/YelzhanWeb/kitchen-display/internal/realtime"
)

// EventDialer is the realtime transport backed by the kds_events fanout.
// Each Dial opens a channel with its own exclusive queue, so every display
// sees every event. The broker connection is reused until it drops.
type EventDialer struct {
	endpoint string
	prefetch int
	logger   logger.Logger
	connect  func() (Connection, error)

	mu   sync.Mutex
	conn Connection
}

func NewEventDialer(endpoint string, prefetch int, lgr logger.Logger) *EventDialer {
	return &EventDialer{
		endpoint: endpoint,
		prefetch: prefetch,
		logger:   lgr,
		connect:  func() (Connection, error) { return Dial(endpoint) },
	}
}

func (d *EventDialer) Dial(ctx context.Context) (realtime.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := d.connection()
	if err != nil {
		return nil, realtime.AsConnectionError(d.endpoint, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		d.reset(conn)
		return nil, realtime.AsConnectionError(d.endpoint, err)
	}

	stream, err := d.subscribe(ch)
	if err != nil {
		ch.Close()
		return nil, realtime.AsConnectionError(d.endpoint, err)
	}
	return stream, nil
}

func (d *EventDialer) subscribe(ch Channel) (*eventStream, error) {
	closeChan := ch.NotifyClose()

	if err := ch.Qos(d.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	queue, err := bindExclusiveQueue(ch, EventsExchange)
	if err != nil {
		return nil, err
	}

	msgs, err := ch.Consume(queue, "", false, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return &eventStream{ch: ch, closeChan: closeChan, msgs: msgs, logger: d.logger}, nil
}

func (d *EventDialer) connection() (Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil && !d.conn.IsClosed() {
		return d.conn, nil
	}

	conn, err := d.connect()
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return conn, nil
}

func (d *EventDialer) reset(conn Connection) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == conn {
		d.conn.Close()
		d.conn = nil
	}
}

// Close drops the broker connection. A later Dial reconnects.
func (d *EventDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

type eventStream struct {
	ch        Channel
	closeChan <-chan *amqp.Error
	msgs      <-chan amqp.Delivery
	logger    logger.Logger
}

// Next returns the next decodable event. Bodies that fail to decode are
// dead-lettered and skipped.
func (s *eventStream) Next(ctx context.Context) (interfaces.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return interfaces.Event{}, ctx.Err()

		case err, ok := <-s.closeChan:
			if ok && err != nil {
				return interfaces.Event{}, fmt.Errorf("%w: %v", realtime.ErrStreamClosed, err)
			}
			return interfaces.Event{}, realtime.ErrStreamClosed

		case msg, ok := <-s.msgs:
			if !ok {
				return interfaces.Event{}, realtime.ErrStreamClosed
			}

			event, err := amqpAdapter.DecodeEvent(msg.Body)
			if err != nil {
				s.logger.Error("message_parse_failed", "Dropping undecodable event", msg.MessageId, nil, err)
				_ = msg.Nack(false, false)
				continue
			}

			_ = msg.Ack(false)
			return event, nil
		}
	}
}

func (s *eventStream) Close() error {
	return s.ch.Close()
}
