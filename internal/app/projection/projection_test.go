package projection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

var base = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func order(id string, p domain.Priority, ts time.Time, status domain.Status) domain.Order {
	return domain.Order{
		ID:        id,
		Timestamp: ts,
		Status:    status,
		Priority:  p,
		Source:    domain.SourceWebsite,
		OrderType: domain.OrderTypePickup,
		Items:     []domain.OrderItem{{ID: "1", Name: "Fish Taco", Quantity: 1}},
	}
}

func ids(orders []domain.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestActiveQueue(t *testing.T) {
	testCases := map[string]struct {
		orders   []domain.Order
		expected []string
	}{
		"should order by priority then oldest first": {
			orders: []domain.Order{
				order("A", domain.PriorityHigh, base, domain.StatusInProgress),
				order("B", domain.PriorityNormal, base.Add(time.Second), domain.StatusInProgress),
				order("C", domain.PriorityHigh, base.Add(2*time.Second), domain.StatusInProgress),
			},
			expected: []string{"A", "C", "B"},
		},
		"should rank high over normal over low at equal timestamps": {
			orders: []domain.Order{
				order("low", domain.PriorityLow, base, domain.StatusInProgress),
				order("high", domain.PriorityHigh, base, domain.StatusInProgress),
				order("normal", domain.PriorityNormal, base, domain.StatusInProgress),
			},
			expected: []string{"high", "normal", "low"},
		},
		"should drop completed orders": {
			orders: []domain.Order{
				order("done", domain.PriorityHigh, base, domain.StatusComplete),
				order("open", domain.PriorityLow, base, domain.StatusInProgress),
			},
			expected: []string{"open"},
		},
		"should keep insertion order on full ties": {
			orders: []domain.Order{
				order("first", domain.PriorityNormal, base, domain.StatusInProgress),
				order("second", domain.PriorityNormal, base, domain.StatusInProgress),
			},
			expected: []string{"first", "second"},
		},
		"should return empty queue for empty snapshot": {
			orders:   nil,
			expected: []string{},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			queue := ActiveQueue(tc.orders)

			assert.Equal(t, tc.expected, ids(queue))
			for _, o := range queue {
				assert.NotEqual(t, domain.StatusComplete, o.Status)
			}
		})
	}
}

func TestActiveQueue_DoesNotMutateInput(t *testing.T) {
	orders := []domain.Order{
		order("low", domain.PriorityLow, base, domain.StatusInProgress),
		order("high", domain.PriorityHigh, base, domain.StatusInProgress),
	}

	first := ActiveQueue(orders)
	second := ActiveQueue(orders)

	assert.Equal(t, []string{"low", "high"}, ids(orders))
	assert.Equal(t, first, second)
}

func TestHistoryList(t *testing.T) {
	mobile := order("mobile", domain.PriorityLow, base.Add(3*time.Minute), domain.StatusComplete)
	mobile.Source = domain.SourceMobileApp
	mobile.OrderType = domain.OrderTypeDelivery

	orders := []domain.Order{
		order("old-done", domain.PriorityHigh, base, domain.StatusComplete),
		order("open", domain.PriorityNormal, base.Add(time.Minute), domain.StatusInProgress),
		order("new-done", domain.PriorityNormal, base.Add(2*time.Minute), domain.StatusComplete),
		mobile,
	}

	from := base.Add(time.Minute)
	to := base.Add(2 * time.Minute)

	testCases := map[string]struct {
		filter   Filter
		expected []string
	}{
		"should return everything newest first without a filter": {
			filter:   Filter{},
			expected: []string{"mobile", "new-done", "open", "old-done"},
		},
		"should treat All as no constraint": {
			filter: Filter{
				Status:    domain.All,
				Priority:  domain.All,
				Source:    domain.All,
				OrderType: domain.All,
			},
			expected: []string{"mobile", "new-done", "open", "old-done"},
		},
		"should keep only completed orders newest first": {
			filter:   Filter{Status: domain.StatusComplete},
			expected: []string{"mobile", "new-done", "old-done"},
		},
		"should AND all constraints": {
			filter:   Filter{Status: domain.StatusComplete, Priority: domain.PriorityNormal},
			expected: []string{"new-done"},
		},
		"should filter by source": {
			filter:   Filter{Source: domain.SourceMobileApp},
			expected: []string{"mobile"},
		},
		"should filter by order type": {
			filter:   Filter{OrderType: domain.OrderTypeDelivery},
			expected: []string{"mobile"},
		},
		"should apply an inclusive date range": {
			filter:   Filter{DateFrom: &from, DateTo: &to},
			expected: []string{"new-done", "open"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ids(HistoryList(orders, tc.filter)))
		})
	}
}

func TestFilter_IsActive(t *testing.T) {
	now := base

	testCases := map[string]struct {
		filter   Filter
		expected bool
	}{
		"should be inactive when empty": {
			filter:   Filter{},
			expected: false,
		},
		"should be inactive when all set to All": {
			filter:   Filter{Status: domain.All, Source: domain.All},
			expected: false,
		},
		"should be active with a priority": {
			filter:   Filter{Priority: domain.PriorityLow},
			expected: true,
		},
		"should be active with a date bound": {
			filter:   Filter{DateTo: &now},
			expected: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.filter.IsActive())
		})
	}
}

func TestComputeAnalytics(t *testing.T) {
	asOf := time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC)

	yesterday := order("yesterday", domain.PriorityLow, asOf.Add(-24*time.Hour), domain.StatusComplete)
	yesterday.Items = []domain.OrderItem{{ID: "1", Name: "Special", Quantity: 10}}
	yesterday.Source = domain.SourceCloverPOS

	done := order("done", domain.PriorityHigh, asOf.Add(-time.Hour), domain.StatusComplete)
	done.Items = []domain.OrderItem{
		{ID: "1", Name: "Fish Taco", Quantity: 3},
		{ID: "2", Name: "Margarita", Quantity: 3},
	}

	open1 := order("open1", domain.PriorityNormal, asOf.Add(-30*time.Minute), domain.StatusInProgress)
	open2 := order("open2", domain.PriorityNormal, StartOfDay(asOf), domain.StatusInProgress)

	testCases := map[string]struct {
		orders   []domain.Order
		expected Analytics
	}{
		"should return zero strings for an empty snapshot": {
			orders: nil,
			expected: Analytics{
				AvgItemsPerOrder:  "0",
				CompletionRate:    "0",
				SourceBreakdown:   map[string]int{},
				PriorityBreakdown: map[string]int{},
			},
		},
		"should mix today counts with all-time totals": {
			orders: []domain.Order{yesterday, done, open1, open2},
			expected: Analytics{
				TodayOrders:       3,
				CompletedToday:    1,
				InProgressToday:   2,
				TotalItems:        18,
				AvgItemsPerOrder:  "4.5",
				CompletionRate:    "33.3",
				SourceBreakdown:   map[string]int{"Clover POS": 1, "Website": 3},
				PriorityBreakdown: map[string]int{"Low": 1, "High": 1, "Normal": 2},
			},
		},
		"should report zero completion rate when nothing is from today": {
			orders: []domain.Order{yesterday},
			expected: Analytics{
				TotalItems:        10,
				AvgItemsPerOrder:  "10.0",
				CompletionRate:    "0",
				SourceBreakdown:   map[string]int{"Clover POS": 1},
				PriorityBreakdown: map[string]int{"Low": 1},
			},
		},
		"should round a half-way average up": {
			orders: func() []domain.Order {
				out := make([]domain.Order, 4)
				for i, qty := range []int{3, 2, 2, 2} {
					out[i] = order(fmt.Sprintf("o%d", i), domain.PriorityNormal, asOf.Add(-time.Minute), domain.StatusInProgress)
					out[i].Items = []domain.OrderItem{{ID: "1", Name: "Fish Taco", Quantity: qty}}
				}
				return out
			}(),
			expected: Analytics{
				TodayOrders:       4,
				InProgressToday:   4,
				TotalItems:        9,
				AvgItemsPerOrder:  "2.3",
				CompletionRate:    "0.0",
				SourceBreakdown:   map[string]int{"Website": 4},
				PriorityBreakdown: map[string]int{"Normal": 4},
			},
		},
		"should round a half-way completion rate up": {
			orders: func() []domain.Order {
				out := make([]domain.Order, 16)
				for i := range out {
					status := domain.StatusInProgress
					if i == 0 {
						status = domain.StatusComplete
					}
					out[i] = order(fmt.Sprintf("o%d", i), domain.PriorityLow, asOf.Add(-time.Minute), status)
				}
				return out
			}(),
			expected: Analytics{
				TodayOrders:       16,
				CompletedToday:    1,
				InProgressToday:   15,
				TotalItems:        16,
				AvgItemsPerOrder:  "1.0",
				CompletionRate:    "6.3",
				SourceBreakdown:   map[string]int{"Website": 16},
				PriorityBreakdown: map[string]int{"Low": 16},
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ComputeAnalytics(tc.orders, asOf))
		})
	}
}

func TestSummaries(t *testing.T) {
	orders := []domain.Order{
		order("a", domain.PriorityLow, base, domain.StatusComplete),
		order("b", domain.PriorityLow, base, domain.StatusInProgress),
		order("c", domain.PriorityLow, base, domain.StatusInProgress),
	}

	assert.Equal(t, HistorySummary{InProgress: 2, Completed: 1, Total: 3}, Summarize(orders))
	assert.Equal(t, BoardSummary{TotalTickets: 2, CanUnbump: true}, Board(orders))
	assert.Equal(t, BoardSummary{TotalTickets: 2}, Board(orders[1:]))
}

func TestTopSource(t *testing.T) {
	testCases := map[string]struct {
		breakdown map[string]int
		expected  string
	}{
		"should return N/A when empty": {
			breakdown: map[string]int{},
			expected:  "N/A",
		},
		"should pick the largest source": {
			breakdown: map[string]int{"Website": 4, "Mobile App": 3, "Clover POS": 3},
			expected:  "Website",
		},
		"should break ties by name": {
			breakdown: map[string]int{"Website": 3, "Mobile App": 3},
			expected:  "Mobile App",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, TopSource(tc.breakdown))
		})
	}
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("PDT", -7*60*60)
	ts := time.Date(2026, 10, 15, 1, 30, 0, 0, loc)

	start := StartOfDay(ts)

	require.Equal(t, loc, start.Location())
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, loc), start)
}
