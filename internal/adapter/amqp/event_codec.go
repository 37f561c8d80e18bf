package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

var ErrInvalidEvent = errors.New("invalid event")

// DecodeEvent parses a kds_events body. newOrder payloads are fully
// validated; orderUpdate only needs an id and status, and orderComplete
// takes its id from orderId or, failing that, from data.id.
func DecodeEvent(body []byte) (interfaces.Event, error) {
	var msg interfaces.EventMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return interfaces.Event{}, fmt.Errorf("failed to parse event message: %w", err)
	}

	if !msg.Type.Valid() {
		return interfaces.Event{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, msg.Type)
	}

	switch msg.Type {
	case interfaces.EventNewOrder:
		if msg.Data == nil {
			return interfaces.Event{}, fmt.Errorf("%w: %s without data", ErrInvalidEvent, msg.Type)
		}
		if err := msg.Data.Validate(); err != nil {
			return interfaces.Event{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
		}
		return interfaces.Event{Kind: msg.Type, Order: msg.Data}, nil

	case interfaces.EventOrderUpdate:
		if msg.Data == nil || msg.Data.ID == "" {
			return interfaces.Event{}, fmt.Errorf("%w: %s without order id", ErrInvalidEvent, msg.Type)
		}
		return interfaces.Event{Kind: msg.Type, Order: msg.Data}, nil

	case interfaces.EventOrderComplete:
		id := msg.OrderID
		if id == "" && msg.Data != nil {
			id = msg.Data.ID
		}
		if id == "" {
			return interfaces.Event{}, fmt.Errorf("%w: %s without order id", ErrInvalidEvent, msg.Type)
		}
		return interfaces.Event{Kind: msg.Type, OrderID: id}, nil

	default:
		return interfaces.Event{Kind: msg.Type}, nil
	}
}

func EncodeEvent(e interfaces.Event) interfaces.EventMessage {
	return interfaces.EventMessage{
		Type:    e.Kind,
		Data:    e.Order,
		OrderID: e.OrderID,
	}
}
