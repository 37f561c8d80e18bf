package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Order represents a kitchen ticket as shown on the display
type Order struct {
	ID                  string      `json:"id" yaml:"id"`
	OrderNumber         *string     `json:"orderNumber,omitempty" yaml:"order_number,omitempty"`
	Platform            *string     `json:"platform,omitempty" yaml:"platform,omitempty"`
	TableNumber         *string     `json:"tableNumber,omitempty" yaml:"table_number,omitempty"`
	CustomerName        *string     `json:"customerName,omitempty" yaml:"customer_name,omitempty"`
	Timestamp           time.Time   `json:"timestamp" yaml:"timestamp"`
	Status              Status      `json:"status" yaml:"status"`
	Priority            Priority    `json:"priority" yaml:"priority"`
	Source              Source      `json:"source" yaml:"source"`
	OrderType           OrderType   `json:"orderType" yaml:"order_type"`
	EstimatedTime       *int        `json:"estimatedTime,omitempty" yaml:"estimated_time,omitempty"`
	Items               []OrderItem `json:"items" yaml:"items"`
	SpecialInstructions *string     `json:"specialInstructions,omitempty" yaml:"special_instructions,omitempty"`
}

// OrderItem represents a line item in an order
type OrderItem struct {
	ID                  string   `json:"id" yaml:"id"`
	Name                string   `json:"name" yaml:"name"`
	Quantity            int      `json:"quantity" yaml:"quantity"`
	SpecialInstructions *string  `json:"specialInstructions,omitempty" yaml:"special_instructions,omitempty"`
	Modifiers           []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
}

var (
	ErrInvalidOrder            = errors.New("invalid order")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// Validate applies the model invariants. Errors wrap ErrInvalidOrder.
func (o *Order) Validate() error {
	if o.ID == "" {
		return invalid("order id is required")
	}
	if !o.Status.Valid() {
		return invalid("order %s: unknown status %q", o.ID, o.Status)
	}
	if !o.Priority.Valid() {
		return invalid("order %s: unknown priority %q", o.ID, o.Priority)
	}
	if !o.Source.Valid() {
		return invalid("order %s: unknown source %q", o.ID, o.Source)
	}
	if !o.OrderType.Valid() {
		return invalid("order %s: unknown order type %q", o.ID, o.OrderType)
	}
	if o.EstimatedTime != nil && *o.EstimatedTime <= 0 {
		return invalid("order %s: estimated time must be positive", o.ID)
	}
	if len(o.Items) == 0 {
		return invalid("order %s: must have at least 1 item", o.ID)
	}

	seen := make(map[string]struct{}, len(o.Items))
	for i, item := range o.Items {
		if item.ID == "" {
			return invalid("order %s: items[%d] id is required", o.ID, i)
		}
		if _, dup := seen[item.ID]; dup {
			return invalid("order %s: duplicate item id %s", o.ID, item.ID)
		}
		seen[item.ID] = struct{}{}

		if item.Name == "" {
			return invalid("order %s: items[%d] name is required", o.ID, i)
		}
		if item.Quantity < 1 {
			return invalid("order %s: items[%d] quantity must be at least 1", o.ID, i)
		}
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
}

// CanTransitionTo checks if the order can move to the new status
func (o *Order) CanTransitionTo(newStatus Status) bool {
	validTransitions := map[Status]Status{
		StatusInProgress: StatusComplete,
		StatusComplete:   StatusInProgress,
	}

	next, ok := validTransitions[o.Status]
	return ok && next == newStatus
}

// TransitionTo flips the order status
func (o *Order) TransitionTo(newStatus Status) error {
	if !o.CanTransitionTo(newStatus) {
		return ErrInvalidStatusTransition
	}
	o.Status = newStatus
	return nil
}

// ItemCount sums item quantities
func (o *Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// DisplayTitle is the card heading: the table for table orders, the order type otherwise
func (o *Order) DisplayTitle() string {
	if o.OrderType == OrderTypeTable && o.TableNumber != nil && *o.TableNumber != "" {
		return *o.TableNumber
	}
	return string(o.OrderType)
}

// Clone returns a deep copy that shares no memory with o.
func (o Order) Clone() Order {
	c := o
	c.OrderNumber = cloneString(o.OrderNumber)
	c.Platform = cloneString(o.Platform)
	c.TableNumber = cloneString(o.TableNumber)
	c.CustomerName = cloneString(o.CustomerName)
	c.SpecialInstructions = cloneString(o.SpecialInstructions)
	if o.EstimatedTime != nil {
		v := *o.EstimatedTime
		c.EstimatedTime = &v
	}

	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		for i, item := range o.Items {
			ci := item
			ci.SpecialInstructions = cloneString(item.SpecialInstructions)
			ci.Modifiers = slices.Clone(item.Modifiers)
			c.Items[i] = ci
		}
	}

	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// ElapsedLabel formats how long ago ts was, relative to now
func ElapsedLabel(ts, now time.Time) string {
	minutes := int(now.Sub(ts) / time.Minute)
	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	default:
		return ts.Format("15:04")
	}
}
