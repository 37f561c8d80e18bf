// Package simulated is a local stand-in for the order feed. Each successful
// dial waits for the connect delay, then replays a fixed batch of new orders
// and stays open until closed.
package simulated

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/clock"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
	"github.com/YelzhanWeb/kitchen-display/internal/realtime"
)

const (
	Endpoint            = "simulated://demo"
	DefaultConnectDelay = time.Second
)

var errServerUnavailable = errors.New("failed to connect to server")

type Options struct {
	ConnectDelay time.Duration
	// FailFirst makes the first n dials fail, to exercise the retry path.
	FailFirst int
	// Orders builds the batch for a dial. Defaults to DemoOrders.
	Orders func(now time.Time) []domain.Order
	Clock  clock.Clock
}

type Dialer struct {
	opts Options

	mu    sync.Mutex
	dials int
}

func NewDialer(opts Options) *Dialer {
	if opts.ConnectDelay < 0 {
		opts.ConnectDelay = 0
	}
	if opts.Orders == nil {
		opts.Orders = DemoOrders
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	return &Dialer{opts: opts}
}

func (d *Dialer) Dial(ctx context.Context) (realtime.Stream, error) {
	d.mu.Lock()
	d.dials++
	attempt := d.dials
	d.mu.Unlock()

	ready := make(chan struct{})
	timer := d.opts.Clock.AfterFunc(d.opts.ConnectDelay, func() { close(ready) })

	select {
	case <-ready:
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	}

	if attempt <= d.opts.FailFirst {
		return nil, &domain.ConnectionError{Endpoint: Endpoint, Err: errServerUnavailable}
	}

	orders := d.opts.Orders(d.opts.Clock.Now())
	events := make([]interfaces.Event, len(orders))
	for i := range orders {
		o := orders[i]
		events[i] = interfaces.Event{Kind: interfaces.EventNewOrder, Order: &o}
	}

	return &stream{pending: events, closed: make(chan struct{})}, nil
}

// Dials reports how many times Dial was called.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type stream struct {
	mu      sync.Mutex
	pending []interfaces.Event

	closed    chan struct{}
	closeOnce sync.Once
}

func (s *stream) Next(ctx context.Context) (interfaces.Event, error) {
	s.mu.Lock()
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		return ev, nil
	}
	s.mu.Unlock()

	select {
	case <-s.closed:
		return interfaces.Event{}, realtime.ErrStreamClosed
	case <-ctx.Done():
		return interfaces.Event{}, ctx.Err()
	}
}

func (s *stream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}
