// Package store owns the authoritative in-memory collection of orders.
//
// Mutations are serialised: each Apply call runs to completion and notifies
// subscribers before the next one starts, so every listener observes the
// same sequence of snapshots. Listeners may call Snapshot but must not call
// any Apply method.
package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Listener receives the new snapshot after each state change
type Listener func(snapshot []domain.Order)

type entry struct {
	order domain.Order
	seq   uint64
}

type Store struct {
	logger logger.Logger

	// applyMu serialises mutation + notification
	applyMu sync.Mutex

	mu      sync.RWMutex
	byID    map[string]*entry
	ordered []*entry
	nextSeq uint64
	version uint64

	listenersMu sync.Mutex
	listeners   map[uint64]Listener
	nextSub     uint64
}

// New builds a store seeded with initial, which must be valid and have
// distinct ids.
func New(lgr logger.Logger, initial ...domain.Order) (*Store, error) {
	s := &Store{
		logger:    lgr,
		byID:      make(map[string]*entry, len(initial)),
		listeners: make(map[uint64]Listener),
	}

	for _, o := range initial {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("invalid initial order: %w", err)
		}
		if _, exists := s.byID[o.ID]; exists {
			return nil, &domain.DuplicateIDError{ID: o.ID}
		}
		s.insert(o)
	}

	return s, nil
}

func (s *Store) insert(o domain.Order) {
	e := &entry{order: o.Clone(), seq: s.nextSeq}
	s.nextSeq++
	s.byID[o.ID] = e
	s.ordered = append(s.ordered, e)
}

// ApplyNewOrder inserts a new in-progress order. A replayed id is rejected
// with *domain.DuplicateIDError and leaves the store untouched.
func (s *Store) ApplyNewOrder(o domain.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.Status != domain.StatusInProgress {
		return fmt.Errorf("%w: new order %s must be %q", domain.ErrInvalidOrder, o.ID, domain.StatusInProgress)
	}

	return s.mutate(func() (bool, error) {
		if _, exists := s.byID[o.ID]; exists {
			return false, &domain.DuplicateIDError{ID: o.ID}
		}
		s.insert(o)
		return true, nil
	})
}

// ApplyUpdate reconciles an order update. Only the status can change; every
// other field of the payload is ignored.
func (s *Store) ApplyUpdate(o domain.Order) error {
	if !o.Status.Valid() {
		return fmt.Errorf("%w: order %s: unknown status %q", domain.ErrInvalidOrder, o.ID, o.Status)
	}

	return s.mutate(func() (bool, error) {
		e, ok := s.byID[o.ID]
		if !ok {
			return false, &domain.NotFoundError{ID: o.ID}
		}
		if e.order.Status == o.Status {
			return false, nil
		}
		if err := e.order.TransitionTo(o.Status); err != nil {
			return false, err
		}
		return true, nil
	})
}

// ApplyComplete bumps an order. Completing a completed order is a no-op.
func (s *Store) ApplyComplete(orderID string) error {
	_, _, err := s.CompleteOrder(orderID)
	return err
}

// CompleteOrder is ApplyComplete that also returns the order as it was
// before the call and whether this call changed it.
func (s *Store) CompleteOrder(orderID string) (domain.Order, bool, error) {
	var (
		before  domain.Order
		changed bool
	)

	err := s.mutate(func() (bool, error) {
		e, ok := s.byID[orderID]
		if !ok {
			return false, &domain.NotFoundError{ID: orderID}
		}
		before = e.order.Clone()
		if e.order.Status == domain.StatusComplete {
			return false, nil
		}
		if err := e.order.TransitionTo(domain.StatusComplete); err != nil {
			return false, err
		}
		changed = true
		return true, nil
	})

	return before, changed, err
}

// ApplyUnbump returns the latest completed order to the board: greatest
// timestamp first, later insertion on equal timestamps. It reports the id it
// unbumped, or false when nothing is complete.
func (s *Store) ApplyUnbump() (string, bool) {
	o, ok := s.UnbumpLatest()
	return o.ID, ok
}

// UnbumpLatest is ApplyUnbump returning the restored order as it now stands.
func (s *Store) UnbumpLatest() (domain.Order, bool) {
	var (
		unbumped domain.Order
		ok       bool
	)

	_ = s.mutate(func() (bool, error) {
		var target *entry
		for _, e := range s.ordered {
			if e.order.Status != domain.StatusComplete {
				continue
			}
			if target == nil ||
				e.order.Timestamp.After(target.order.Timestamp) ||
				(e.order.Timestamp.Equal(target.order.Timestamp) && e.seq > target.seq) {
				target = e
			}
		}
		if target == nil {
			return false, nil
		}

		if err := target.order.TransitionTo(domain.StatusInProgress); err != nil {
			return false, err
		}
		unbumped, ok = target.order.Clone(), true
		return true, nil
	})

	return unbumped, ok
}

// mutate runs fn under the write lock and, if fn reports a change, notifies
// subscribers with the resulting snapshot before returning.
func (s *Store) mutate(fn func() (bool, error)) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	changed, err := fn()
	var snap []domain.Order
	var version uint64
	if changed {
		s.version++
		version = s.version
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if err != nil || !changed {
		return err
	}

	s.logger.Debug("store_mutated", "Order store changed", "", map[string]interface{}{
		"version": version,
		"orders":  len(snap),
	})
	s.notify(snap)
	return nil
}

func (s *Store) notify(snap []domain.Order) {
	s.listenersMu.Lock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		// each listener gets its own copy so none can disturb another
		l(cloneAll(snap))
	}
}

// Snapshot returns a deep copy of every order in insertion order.
func (s *Store) Snapshot() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Version increases by one on every state change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) snapshotLocked() []domain.Order {
	out := make([]domain.Order, len(s.ordered))
	for i, e := range s.ordered {
		out[i] = e.order.Clone()
	}
	return out
}

func (s *Store) Get(orderID string) (domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[orderID]
	if !ok {
		return domain.Order{}, false
	}
	return e.order.Clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ordered)
}

// Subscribe registers l and returns a function that removes it. Listeners
// run in registration order.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func cloneAll(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}
