package simulated

import (
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

func ptr[T any](v T) *T { return &v }

// DemoOrders returns the ten sample tickets used by the demo feed, stamped
// relative to now. Every call returns fresh values.
func DemoOrders(now time.Time) []domain.Order {
	ago := func(ms int64) time.Time { return now.Add(-time.Duration(ms) * time.Millisecond) }

	return []domain.Order{
		{
			ID:          "ORD-001",
			OrderNumber: ptr("#4501"),
			Timestamp:   ago(300000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypePickup,
			Items: []domain.OrderItem{
				{ID: "1", Name: "California Burrito", Quantity: 1, Modifiers: []string{"Extra cheese", "Extra sour cream"}},
				{ID: "2", Name: "Chicken Chimichanga", Quantity: 1},
				{ID: "3", Name: "Fish Taco", Quantity: 3, Modifiers: []string{"No cabbage"}},
				{ID: "4", Name: "Margarita", Quantity: 3, Modifiers: []string{"Blended"}},
			},
			Priority:      domain.PriorityHigh,
			Source:        domain.SourceMobileApp,
			Platform:      ptr("Clover online"),
			EstimatedTime: ptr(12),
			CustomerName:  ptr("Kevin P."),
		},
		{
			ID:          "ORD-002",
			OrderNumber: ptr("#4502"),
			Timestamp:   ago(240000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypePickup,
			Items: []domain.OrderItem{
				{ID: "5", Name: "California Burrito", Quantity: 1},
				{ID: "6", Name: "Chicken Chimichanga", Quantity: 1},
				{ID: "7", Name: "Fish Taco", Quantity: 3, Modifiers: []string{"No cabbage"}},
				{ID: "8", Name: "Margarita", Quantity: 3, Modifiers: []string{"Blended"}},
			},
			Priority:     domain.PriorityNormal,
			Source:       domain.SourceWebsite,
			Platform:     ptr("Grubhub"),
			CustomerName: ptr("Cam H."),
		},
		{
			ID:          "ORD-003",
			OrderNumber: ptr("#4503"),
			Timestamp:   ago(180000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypeCurbside,
			Items: []domain.OrderItem{
				{ID: "9", Name: "Special", Quantity: 10, SpecialInstructions: ptr("Grey Honda HR-V")},
				{ID: "10", Name: "Chips & Guacamole", Quantity: 1},
				{ID: "11", Name: "Fish Taco", Quantity: 3, Modifiers: []string{"No cabbage"}},
				{ID: "12", Name: "Margarita", Quantity: 3, Modifiers: []string{"Blended"}},
			},
			Priority:     domain.PriorityNormal,
			Source:       domain.SourceMobileApp,
			Platform:     ptr("Clover online"),
			CustomerName: ptr("Chaz B."),
		},
		{
			ID:          "ORD-004",
			OrderNumber: ptr("#4504"),
			Timestamp:   ago(120000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypeDelivery,
			Items: []domain.OrderItem{
				{ID: "13", Name: "California Burrito", Quantity: 1, Modifiers: []string{"Extra cheese", "Extra sour cream"}},
				{ID: "14", Name: "Chicken Chimichanga", Quantity: 1},
				{ID: "15", Name: "Fish Taco", Quantity: 3, Modifiers: []string{"No cabbage"}},
				{ID: "16", Name: "Chips & Guacamole", Quantity: 1},
			},
			Priority:     domain.PriorityNormal,
			Source:       domain.SourceWebsite,
			Platform:     ptr("Grubhub"),
			CustomerName: ptr("Srushti K."),
		},
		{
			ID:          "ORD-005",
			OrderNumber: ptr("#4505"),
			Timestamp:   ago(60000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypeTable,
			TableNumber: ptr("Table 7 - Main Din..."),
			Items: []domain.OrderItem{
				{ID: "17", Name: "Fish Taco", Quantity: 2, Modifiers: []string{"Extra cabbage", "Extra salsa"}},
				{ID: "18", Name: "Chicken Molé", Quantity: 1},
				{ID: "19", Name: "Birria Taco", Quantity: 4, Modifiers: []string{"Extra consomé"}},
				{ID: "20", Name: "Al Pastor Taco", Quantity: 1},
				{ID: "21", Name: "Chips & Guacamole", Quantity: 1},
			},
			Priority:     domain.PriorityNormal,
			Source:       domain.SourceCloverPOS,
			CustomerName: ptr("Y876P23875360"),
		},
		{
			ID:          "ORD-006",
			OrderNumber: ptr("#4506"),
			Timestamp:   ago(420000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypeDelivery,
			Items: []domain.OrderItem{
				{ID: "22", Name: "Special", Quantity: 1},
				{ID: "23", Name: "Quesadilla", Quantity: 3, Modifiers: []string{"Kids"}},
				{ID: "24", Name: "116 Burger", Quantity: 1, Modifiers: []string{"Fries"}},
				{ID: "25", Name: "PB&J", Quantity: 1},
				{ID: "26", Name: "Granola", Quantity: 4, Modifiers: []string{"Kids"}},
			},
			Priority:     domain.PriorityLow,
			Source:       domain.SourceMobileApp,
			Platform:     ptr("Clover online"),
			CustomerName: ptr("Samantha G."),
		},
		{
			ID:          "ORD-007",
			OrderNumber: ptr("#4499"),
			Timestamp:   ago(360000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypeDineIn,
			Items: []domain.OrderItem{
				{ID: "27", Name: "Al Pastor Taco", Quantity: 5},
			},
			Priority: domain.PriorityNormal,
			Source:   domain.SourceCloverPOS,
			Platform: ptr("In-store"),
		},
		{
			ID:          "ORD-008",
			OrderNumber: ptr("#4507"),
			Timestamp:   ago(300000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypePickup,
			Items: []domain.OrderItem{
				{ID: "28", Name: "Special", Quantity: 1},
				{ID: "29", Name: "Quesadilla", Quantity: 2, Modifiers: []string{"Kids"}},
				{ID: "30", Name: "PB&J", Quantity: 1},
			},
			Priority:     domain.PriorityNormal,
			Source:       domain.SourceWebsite,
			Platform:     ptr("Grubhub"),
			CustomerName: ptr("Tatiana G."),
		},
		{
			ID:          "ORD-009",
			OrderNumber: ptr("#4508"),
			Timestamp:   ago(240000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypeDelivery,
			Items: []domain.OrderItem{
				{ID: "31", Name: "Special", Quantity: 1},
				{ID: "32", Name: "Quesadilla", Quantity: 2, Modifiers: []string{"Kids"}},
				{ID: "33", Name: "PB&J", Quantity: 1},
				{ID: "34", Name: "Granola", Quantity: 4, Modifiers: []string{"Kids"}},
			},
			Priority:     domain.PriorityNormal,
			Source:       domain.SourceWebsite,
			Platform:     ptr("Grubhub"),
			CustomerName: ptr("Julianna S."),
		},
		{
			ID:          "ORD-010",
			OrderNumber: ptr("#4509"),
			Timestamp:   ago(180000),
			Status:      domain.StatusInProgress,
			OrderType:   domain.OrderTypeTable,
			TableNumber: ptr("Table 6 - Outdoor"),
			Items: []domain.OrderItem{
				{ID: "35", Name: "Al Pastor Burrito", Quantity: 1, Modifiers: []string{"Extra cheese", "Extra sour cream"}},
				{ID: "36", Name: "Fish Taco", Quantity: 3, Modifiers: []string{"No cabbage"}},
			},
			Priority:     domain.PriorityNormal,
			Source:       domain.SourceCloverPOS,
			CustomerName: ptr("M876D23646212"),
		},
	}
}
