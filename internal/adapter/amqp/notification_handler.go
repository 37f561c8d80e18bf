package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

// NotificationHandler prints kds_status updates for the
// notification-subscriber mode.
type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger, out io.Writer) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	label := msg.OrderID
	if msg.OrderNumber != "" {
		label = msg.OrderNumber
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", label),
		msg.OrderID, map[string]interface{}{
			"order_id":   msg.OrderID,
			"new_status": msg.NewStatus,
		})

	_, err := fmt.Fprintf(h.out, "Notification for order %s: Status changed from '%s' to '%s' by %s\n",
		label, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	return err
}
