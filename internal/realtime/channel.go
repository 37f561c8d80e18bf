// Package realtime drives the connection that feeds order events into the
// store. It owns the connection state machine and the retry timer and knows
// nothing about the transport behind a Dialer.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/clock"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

type Backoff string

const (
	BackoffFlat        Backoff = "flat"
	BackoffExponential Backoff = "exponential"
)

const DefaultRetryDelay = 5 * time.Second

// ErrStreamClosed is returned by a Stream whose transport went away.
var ErrStreamClosed = errors.New("stream closed")

// Dialer opens a new event stream. Dial should honour ctx cancellation.
type Dialer interface {
	Dial(ctx context.Context) (Stream, error)
}

// Stream yields events in transport order. Next blocks until an event
// arrives, the stream fails, or ctx is done.
type Stream interface {
	Next(ctx context.Context) (interfaces.Event, error)
	Close() error
}

type Options struct {
	RetryDelay time.Duration
	MaxDelay   time.Duration
	Backoff    Backoff
	Clock      clock.Clock
}

// Status is the connection state as seen by the presentation layer.
type Status struct {
	State       State
	IsConnected bool
	LastError   *string
	Attempts    int
}

type Channel struct {
	dialer  Dialer
	handler interfaces.EventHandler
	logger  logger.Logger
	opts    Options

	mu       sync.Mutex
	state    State
	lastErr  error
	attempts int
	// gen invalidates goroutines and timers started for an earlier attempt
	gen       uint64
	cancel    context.CancelFunc
	timer     clock.Timer
	observers []func(Status)

	wg sync.WaitGroup
}

func NewChannel(dialer Dialer, handler interfaces.EventHandler, lgr logger.Logger, opts Options) *Channel {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Backoff == "" {
		opts.Backoff = BackoffFlat
	}
	if opts.MaxDelay < opts.RetryDelay {
		opts.MaxDelay = opts.RetryDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	return &Channel{
		dialer:  dialer,
		handler: handler,
		logger:  lgr,
		opts:    opts,
		state:   StateDisconnected,
	}
}

// OnStateChange registers fn to be called after every state transition.
func (c *Channel) OnStateChange(fn func(Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Connect starts a connection attempt in the background. It is a no-op
// while connecting or connected. From Reconnecting it dials immediately and
// drops the pending retry.
func (c *Channel) Connect() {
	c.mu.Lock()
	st, launch := c.startLocked()
	observers := c.observers
	c.mu.Unlock()

	if launch != nil {
		emit(observers, st)
		launch()
	}
}

// Disconnect cancels the pending retry and the active stream. Calling it
// again is harmless.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.gen++
	c.stopLocked()
	c.state = StateDisconnected
	st := c.statusLocked()
	observers := c.observers
	c.mu.Unlock()

	c.logger.Info("channel_disconnected", "Realtime channel disconnected", "", nil)
	emit(observers, st)
}

// Close disconnects and waits for the stream goroutine to exit.
func (c *Channel) Close() {
	c.Disconnect()
	c.wg.Wait()
}

func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// startLocked moves to Connecting and returns the function that starts the
// dial. The caller runs it after emitting the Connecting status.
func (c *Channel) startLocked() (Status, func()) {
	if c.state == StateConnecting || c.state == StateConnected {
		return Status{}, nil
	}

	c.gen++
	gen := c.gen
	c.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateConnecting

	c.wg.Add(1)
	return c.statusLocked(), func() { go c.run(ctx, gen) }
}

func (c *Channel) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Channel) run(ctx context.Context, gen uint64) {
	defer c.wg.Done()

	stream, err := c.dialer.Dial(ctx)
	if err != nil {
		c.fail(gen, err)
		return
	}
	defer stream.Close()

	if !c.connected(gen) {
		return
	}

	for {
		event, err := stream.Next(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.fail(gen, err)
			return
		}

		if err := c.handler(ctx, event); err != nil {
			c.logger.Error("event_handle_failed", "Failed to handle event", "", map[string]interface{}{
				"kind":     string(event.Kind),
				"order_id": eventOrderID(event),
			}, err)
		}
	}
}

func (c *Channel) connected(gen uint64) bool {
	c.mu.Lock()
	if gen != c.gen || c.state != StateConnecting {
		c.mu.Unlock()
		return false
	}
	c.state = StateConnected
	c.lastErr = nil
	c.attempts = 0
	st := c.statusLocked()
	observers := c.observers
	c.mu.Unlock()

	c.logger.Info("channel_connected", "Realtime channel connected", "", nil)
	emit(observers, st)
	return true
}

// fail records err and schedules the next attempt, unless gen is stale.
func (c *Channel) fail(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.lastErr = err
	c.attempts++
	c.state = StateReconnecting
	delay := c.delayLocked()
	c.timer = c.opts.Clock.AfterFunc(delay, func() { c.retry(gen) })

	st := c.statusLocked()
	observers := c.observers
	c.mu.Unlock()

	c.logger.Error("channel_failed", "Realtime channel failed, retry scheduled", "", map[string]interface{}{
		"attempts":    st.Attempts,
		"retry_delay": delay.String(),
	}, err)
	emit(observers, st)
}

func (c *Channel) retry(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateReconnecting {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	st, launch := c.startLocked()
	observers := c.observers
	c.mu.Unlock()

	if launch != nil {
		emit(observers, st)
		launch()
	}
}

func (c *Channel) delayLocked() time.Duration {
	if c.opts.Backoff != BackoffExponential {
		return c.opts.RetryDelay
	}

	delay := c.opts.RetryDelay
	for i := 1; i < c.attempts; i++ {
		delay *= 2
		if delay >= c.opts.MaxDelay {
			return c.opts.MaxDelay
		}
	}
	return delay
}

func (c *Channel) statusLocked() Status {
	st := Status{
		State:       c.state,
		IsConnected: c.state == StateConnected,
		Attempts:    c.attempts,
	}
	if c.lastErr != nil {
		msg := c.lastErr.Error()
		st.LastError = &msg
	}
	return st
}

func emit(observers []func(Status), st Status) {
	for _, fn := range observers {
		fn(st)
	}
}

func eventOrderID(e interfaces.Event) string {
	if e.Order != nil {
		return e.Order.ID
	}
	return e.OrderID
}

// AsConnectionError wraps a transport error for reporting.
func AsConnectionError(endpoint string, err error) error {
	var ce *domain.ConnectionError
	if errors.As(err, &ce) {
		return err
	}
	return &domain.ConnectionError{Endpoint: endpoint, Err: err}
}
