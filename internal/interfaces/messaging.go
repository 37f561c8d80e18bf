package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

type EventKind string

const (
	EventNewOrder      EventKind = "newOrder"
	EventOrderUpdate   EventKind = "orderUpdate"
	EventOrderComplete EventKind = "orderComplete"
	EventOrderUnbump   EventKind = "orderUnbump"
)

func (k EventKind) Valid() bool {
	switch k {
	case EventNewOrder, EventOrderUpdate, EventOrderComplete, EventOrderUnbump:
		return true
	default:
		return false
	}
}

// Event is what the realtime channel delivers to the store.
// NewOrder and OrderUpdate carry Order; OrderComplete carries OrderID;
// OrderUnbump carries neither.
type Event struct {
	Kind    EventKind
	Order   *domain.Order
	OrderID string
}

// EventHandler consumes events one at a time, in delivery order
type EventHandler func(ctx context.Context, event Event) error

// Wire format on the kds_events exchange
type EventMessage struct {
	Type    EventKind     `json:"type"`
	Data    *domain.Order `json:"data,omitempty"`
	OrderID string        `json:"orderId,omitempty"`
}

// Published on the kds_status exchange after staff bump or unbump an order
type StatusUpdateMessage struct {
	OrderID     string        `json:"order_id"`
	OrderNumber string        `json:"order_number,omitempty"`
	OldStatus   domain.Status `json:"old_status"`
	NewStatus   domain.Status `json:"new_status"`
	ChangedBy   string        `json:"changed_by"`
	Timestamp   time.Time     `json:"timestamp"`
}

type MessagePublisher interface {
	PublishEvent(ctx context.Context, msg EventMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error
