package feed

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

type Service struct {
	publisher interfaces.MessagePublisher
	logger    logger.Logger
}

func NewService(publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{
		publisher: publisher,
		logger:    logger,
	}
}

// Publish sends every order as a newOrder event, in slice order. It stops at
// the first invalid order or failed publish and reports how many went out.
func (s *Service) Publish(ctx context.Context, orders []domain.Order) (int, error) {
	for i := range orders {
		o := orders[i]
		if err := o.Validate(); err != nil {
			s.logger.Error("validation_failed", "Order validation failed", "", map[string]interface{}{"order_id": o.ID}, err)
			return i, fmt.Errorf("order %d: %w", i, err)
		}

		msg := interfaces.EventMessage{Type: interfaces.EventNewOrder, Data: &o}
		if err := s.publisher.PublishEvent(ctx, msg); err != nil {
			s.logger.Error("rabbitmq_publish_failed", "Failed to publish order", "", map[string]interface{}{"order_id": o.ID}, err)
			return i, fmt.Errorf("failed to publish order %s: %w", o.ID, err)
		}

		s.logger.Debug("order_published", "Order published", "", map[string]interface{}{
			"order_id": o.ID,
			"priority": string(o.Priority),
		})
	}

	s.logger.Info("feed_published", fmt.Sprintf("Published %d orders", len(orders)), "", nil)
	return len(orders), nil
}

type ordersFile struct {
	Orders []domain.Order `yaml:"orders"`
}

// LoadOrders reads a YAML list of orders. Missing timestamps count back one
// minute per position from now so the file keeps its order; missing statuses
// default to In Progress.
func LoadOrders(path string, now time.Time) ([]domain.Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders file: %w", err)
	}
	return ParseOrders(data, now)
}

func ParseOrders(data []byte, now time.Time) ([]domain.Order, error) {
	var f ordersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse orders file: %w", err)
	}

	n := len(f.Orders)
	for i := range f.Orders {
		o := &f.Orders[i]
		if o.Timestamp.IsZero() {
			o.Timestamp = now.Add(-time.Duration(n-i) * time.Minute)
		}
		if o.Status == "" {
			o.Status = domain.StatusInProgress
		}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("order %d: %w", i, err)
		}
	}

	return f.Orders, nil
}
