package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func validOrder() Order {
	return Order{
		ID:          "ORD-001",
		OrderNumber: strPtr("#4501"),
		Timestamp:   time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		Status:      StatusInProgress,
		Priority:    PriorityHigh,
		Source:      SourceMobileApp,
		OrderType:   OrderTypePickup,
		Items: []OrderItem{
			{ID: "1", Name: "California Burrito", Quantity: 1, Modifiers: []string{"Extra cheese"}},
			{ID: "2", Name: "Fish Taco", Quantity: 3},
		},
	}
}

func TestOrder_Validate(t *testing.T) {
	testCases := map[string]struct {
		mutate        func(o *Order)
		expectedError string
	}{
		"should accept a well formed order": {
			mutate: func(o *Order) {},
		},
		"should reject missing id": {
			mutate:        func(o *Order) { o.ID = "" },
			expectedError: "order id is required",
		},
		"should reject unknown status": {
			mutate:        func(o *Order) { o.Status = "Cooking" },
			expectedError: `unknown status "Cooking"`,
		},
		"should reject unknown priority": {
			mutate:        func(o *Order) { o.Priority = "Urgent" },
			expectedError: `unknown priority "Urgent"`,
		},
		"should reject unknown source": {
			mutate:        func(o *Order) { o.Source = "Fax" },
			expectedError: `unknown source "Fax"`,
		},
		"should reject unknown order type": {
			mutate:        func(o *Order) { o.OrderType = "Drive Thru" },
			expectedError: `unknown order type "Drive Thru"`,
		},
		"should reject empty items": {
			mutate:        func(o *Order) { o.Items = nil },
			expectedError: "must have at least 1 item",
		},
		"should reject duplicate item ids": {
			mutate:        func(o *Order) { o.Items[1].ID = "1" },
			expectedError: "duplicate item id 1",
		},
		"should reject empty item name": {
			mutate:        func(o *Order) { o.Items[0].Name = "" },
			expectedError: "items[0] name is required",
		},
		"should reject non-positive quantity": {
			mutate:        func(o *Order) { o.Items[1].Quantity = 0 },
			expectedError: "items[1] quantity must be at least 1",
		},
		"should reject non-positive estimated time": {
			mutate:        func(o *Order) { o.EstimatedTime = intPtr(0) },
			expectedError: "estimated time must be positive",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			order := validOrder()
			tc.mutate(&order)

			err := order.Validate()

			if tc.expectedError != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidOrder))
				assert.Contains(t, err.Error(), tc.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOrder_TransitionTo(t *testing.T) {
	testCases := map[string]struct {
		from          Status
		to            Status
		expectedError error
	}{
		"should complete an in-progress order": {
			from: StatusInProgress,
			to:   StatusComplete,
		},
		"should unbump a completed order": {
			from: StatusComplete,
			to:   StatusInProgress,
		},
		"should reject completing twice": {
			from:          StatusComplete,
			to:            StatusComplete,
			expectedError: ErrInvalidStatusTransition,
		},
		"should reject unknown target status": {
			from:          StatusInProgress,
			to:            "Ready",
			expectedError: ErrInvalidStatusTransition,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			order := validOrder()
			order.Status = tc.from

			err := order.TransitionTo(tc.to)

			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				assert.Equal(t, tc.from, order.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, order.Status)
		})
	}
}

func TestOrder_Clone(t *testing.T) {
	original := validOrder()
	original.EstimatedTime = intPtr(12)
	original.SpecialInstructions = strPtr("Grey Honda HR-V")

	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.Items[0].Modifiers[0] = "No cheese"
	clone.Items[1].Quantity = 9
	*clone.OrderNumber = "#9999"
	*clone.EstimatedTime = 1
	*clone.SpecialInstructions = "changed"

	assert.Equal(t, "Extra cheese", original.Items[0].Modifiers[0])
	assert.Equal(t, 3, original.Items[1].Quantity)
	assert.Equal(t, "#4501", *original.OrderNumber)
	assert.Equal(t, 12, *original.EstimatedTime)
	assert.Equal(t, "Grey Honda HR-V", *original.SpecialInstructions)
}

func TestOrder_CloneKeepsEmptyModifiers(t *testing.T) {
	original := validOrder()
	original.Items[0].Modifiers = []string{}
	original.Items[1].Modifiers = nil

	clone := original.Clone()

	assert.Equal(t, original, clone)
	assert.NotNil(t, clone.Items[0].Modifiers)
	assert.Empty(t, clone.Items[0].Modifiers)
	assert.Nil(t, clone.Items[1].Modifiers)
}

func TestOrder_DisplayTitle(t *testing.T) {
	testCases := map[string]struct {
		orderType   OrderType
		tableNumber *string
		expected    string
	}{
		"should use table number for table orders": {
			orderType:   OrderTypeTable,
			tableNumber: strPtr("Table 6 - Outdoor"),
			expected:    "Table 6 - Outdoor",
		},
		"should fall back to order type for table orders without a table": {
			orderType: OrderTypeTable,
			expected:  "Table",
		},
		"should use order type otherwise": {
			orderType:   OrderTypeCurbside,
			tableNumber: strPtr("ignored"),
			expected:    "Curbside",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			order := validOrder()
			order.OrderType = tc.orderType
			order.TableNumber = tc.tableNumber

			assert.Equal(t, tc.expected, order.DisplayTitle())
		})
	}
}

func TestOrder_ItemCount(t *testing.T) {
	order := validOrder()
	assert.Equal(t, 4, order.ItemCount())
}

func TestElapsedLabel(t *testing.T) {
	ts := time.Date(2026, 10, 15, 9, 5, 0, 0, time.UTC)

	testCases := map[string]struct {
		now      time.Time
		expected string
	}{
		"should say just now under a minute": {
			now:      ts.Add(59 * time.Second),
			expected: "Just now",
		},
		"should count minutes under an hour": {
			now:      ts.Add(42*time.Minute + 30*time.Second),
			expected: "42m ago",
		},
		"should show clock time after an hour": {
			now:      ts.Add(2 * time.Hour),
			expected: "09:05",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ElapsedLabel(ts, tc.now))
		})
	}
}

func TestErrors_Error(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	testCases := map[string]struct {
		err      error
		expected string
	}{
		"should format duplicate id": {
			err:      &DuplicateIDError{ID: "ORD-1"},
			expected: "order with id ORD-1 already exists",
		},
		"should format not found": {
			err:      &NotFoundError{ID: "X"},
			expected: "order with id X not found",
		},
		"should format connection error with endpoint": {
			err:      &ConnectionError{Endpoint: "amqp://localhost:5672/", Err: cause},
			expected: "connection to amqp://localhost:5672/ failed: dial tcp: refused",
		},
		"should format connection error without endpoint": {
			err:      &ConnectionError{Err: cause},
			expected: "connection failed: dial tcp: refused",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}

	assert.ErrorIs(t, &ConnectionError{Err: cause}, cause)
}
