package display

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/app/store"
	"github.com/YelzhanWeb/kitchen-display/internal/clock"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

// Connector is the part of the realtime channel the service drives.
type Connector interface {
	Connect()
	Disconnect()
}

type Options struct {
	// Station is recorded as changed_by on status updates
	Station string
	Clock   clock.Clock
}

type Service struct {
	store     *store.Store
	publisher interfaces.MessagePublisher
	ledger    interfaces.LedgerRepository
	logger    logger.Logger
	station   string
	clock     clock.Clock
	conn      Connector

	// latest holds the newest snapshot not yet mirrored into the ledger;
	// pending is signalled whenever it changes.
	latestMu sync.Mutex
	latest   []domain.Order
	pending  chan struct{}
	known    map[string]domain.Status
}

// NewService wires the store to the outside world. publisher and ledger may
// be nil.
func NewService(
	st *store.Store,
	publisher interfaces.MessagePublisher,
	ledger interfaces.LedgerRepository,
	logger logger.Logger,
	opts Options,
) *Service {
	if opts.Station == "" {
		opts.Station = "kds"
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	known := make(map[string]domain.Status)
	for _, o := range st.Snapshot() {
		known[o.ID] = o.Status
	}

	return &Service{
		store:     st,
		publisher: publisher,
		ledger:    ledger,
		logger:    logger,
		station:   opts.Station,
		clock:     opts.Clock,
		pending:   make(chan struct{}, 1),
		known:     known,
	}
}

// Attach sets the channel that Run connects and Reconnect retries.
func (s *Service) Attach(conn Connector) {
	s.conn = conn
}

// HandleEvent applies one channel event to the store. Replayed orders and
// events for unknown ids are logged and dropped.
func (s *Service) HandleEvent(ctx context.Context, event interfaces.Event) error {
	var err error

	switch event.Kind {
	case interfaces.EventNewOrder:
		if event.Order == nil {
			return fmt.Errorf("%w: newOrder without order", domain.ErrInvalidOrder)
		}
		err = s.store.ApplyNewOrder(*event.Order)
	case interfaces.EventOrderUpdate:
		if event.Order == nil {
			return fmt.Errorf("%w: orderUpdate without order", domain.ErrInvalidOrder)
		}
		err = s.store.ApplyUpdate(*event.Order)
	case interfaces.EventOrderComplete:
		err = s.store.ApplyComplete(event.OrderID)
	case interfaces.EventOrderUnbump:
		if id, ok := s.store.ApplyUnbump(); ok {
			s.logger.Debug("order_unbumped", "Order returned to the board by the channel", "", map[string]interface{}{"order_id": id})
		}
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}

	var dup *domain.DuplicateIDError
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &dup):
		s.logger.Debug("duplicate_order_ignored", "Order already on the board", "", map[string]interface{}{"order_id": dup.ID})
		return nil
	case errors.As(err, &nf):
		s.logger.Error("unknown_order", "Event references an unknown order", "", map[string]interface{}{
			"order_id": nf.ID,
			"event":    string(event.Kind),
		}, err)
		return nil
	}

	return err
}

// Complete bumps an order off the active board. A status update is published
// only when this call moved the order.
func (s *Service) Complete(ctx context.Context, orderID string) error {
	before, changed, err := s.store.CompleteOrder(orderID)
	if err != nil || !changed {
		return err
	}

	s.logger.Info("order_completed", fmt.Sprintf("Order %s bumped", before.DisplayTitle()), "", map[string]interface{}{"order_id": orderID})
	s.notify(ctx, before, domain.StatusComplete)
	return nil
}

// Unbump restores the most recently placed completed order. It reports
// false when there is nothing to restore.
func (s *Service) Unbump(ctx context.Context) (string, bool, error) {
	order, ok := s.store.UnbumpLatest()
	if !ok {
		return "", false, nil
	}

	s.logger.Info("order_unbumped", fmt.Sprintf("Order %s returned to the board", order.DisplayTitle()), "", map[string]interface{}{"order_id": order.ID})

	before := order
	before.Status = domain.StatusComplete
	s.notify(ctx, before, domain.StatusInProgress)
	return order.ID, true, nil
}

// Reconnect starts an immediate connection attempt, skipping any pending
// backoff.
func (s *Service) Reconnect() {
	if s.conn != nil {
		s.conn.Connect()
	}
}

func (s *Service) notify(ctx context.Context, before domain.Order, newStatus domain.Status) {
	if s.publisher == nil {
		return
	}

	msg := interfaces.StatusUpdateMessage{
		OrderID:   before.ID,
		OldStatus: before.Status,
		NewStatus: newStatus,
		ChangedBy: s.station,
		Timestamp: s.clock.Now(),
	}
	if before.OrderNumber != nil {
		msg.OrderNumber = *before.OrderNumber
	}

	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", "", map[string]interface{}{"order_id": before.ID}, err)
	}
}

// Run connects the channel and mirrors store changes into the ledger until
// ctx is done.
func (s *Service) Run(ctx context.Context) error {
	unsubscribe := s.store.Subscribe(s.enqueue)
	defer unsubscribe()

	if s.conn != nil {
		s.conn.Connect()
		defer s.conn.Disconnect()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.pending:
			s.mirror(ctx)
		}
	}
}

// enqueue runs inside the store's notification path and must not block.
func (s *Service) enqueue(snapshot []domain.Order) {
	if s.ledger == nil {
		return
	}

	s.latestMu.Lock()
	s.latest = snapshot
	s.latestMu.Unlock()

	select {
	case s.pending <- struct{}{}:
	default:
	}
}

func (s *Service) mirror(ctx context.Context) {
	s.latestMu.Lock()
	snapshot := s.latest
	s.latest = nil
	s.latestMu.Unlock()

	for _, o := range snapshot {
		prev, seen := s.known[o.ID]
		switch {
		case !seen:
			if err := s.ledger.Save(ctx, o); err != nil {
				s.logger.Error("ledger_save_failed", "Failed to record order", "", map[string]interface{}{"order_id": o.ID}, err)
				continue
			}
		case prev != o.Status:
			if err := s.ledger.UpdateStatus(ctx, o.ID, o.Status, s.station); err != nil {
				s.logger.Error("ledger_update_failed", "Failed to record status change", "", map[string]interface{}{
					"order_id": o.ID,
					"status":   string(o.Status),
				}, err)
				continue
			}
		default:
			continue
		}
		s.known[o.ID] = o.Status
	}
}

var _ interfaces.DisplayService = (*Service)(nil)
