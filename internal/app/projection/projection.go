// Package projection derives the board, history and analytics views from a
// store snapshot. Every function is pure: inputs are never modified and the
// same input always yields the same output.
package projection

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Filter constrains HistoryList. Empty fields and domain.All match everything;
// the date range is inclusive on both ends.
type Filter struct {
	Status    domain.Status
	Priority  domain.Priority
	Source    domain.Source
	OrderType domain.OrderType
	DateFrom  *time.Time
	DateTo    *time.Time
}

func (f Filter) IsActive() bool {
	return constrained(string(f.Status)) ||
		constrained(string(f.Priority)) ||
		constrained(string(f.Source)) ||
		constrained(string(f.OrderType)) ||
		f.DateFrom != nil || f.DateTo != nil
}

func (f Filter) Matches(o domain.Order) bool {
	if constrained(string(f.Status)) && o.Status != f.Status {
		return false
	}
	if constrained(string(f.Priority)) && o.Priority != f.Priority {
		return false
	}
	if constrained(string(f.Source)) && o.Source != f.Source {
		return false
	}
	if constrained(string(f.OrderType)) && o.OrderType != f.OrderType {
		return false
	}
	if f.DateFrom != nil && o.Timestamp.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && o.Timestamp.After(*f.DateTo) {
		return false
	}
	return true
}

func constrained(v string) bool {
	return v != "" && v != domain.All
}

// ActiveQueue returns in-progress orders, highest priority first and oldest
// first within a priority.
func ActiveQueue(orders []domain.Order) []domain.Order {
	active := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == domain.StatusInProgress {
			active = append(active, o)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		ri, rj := active[i].Priority.Rank(), active[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return active[i].Timestamp.Before(active[j].Timestamp)
	})
	return active
}

// HistoryList applies f and sorts newest first.
func HistoryList(orders []domain.Order, f Filter) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if f.Matches(o) {
			out = append(out, o)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

type HistorySummary struct {
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Total      int `json:"total"`
}

func Summarize(orders []domain.Order) HistorySummary {
	s := HistorySummary{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case domain.StatusInProgress:
			s.InProgress++
		case domain.StatusComplete:
			s.Completed++
		}
	}
	return s
}

type BoardSummary struct {
	TotalTickets int  `json:"totalTickets"`
	CanUnbump    bool `json:"canUnbump"`
}

func Board(orders []domain.Order) BoardSummary {
	var s BoardSummary
	for _, o := range orders {
		switch o.Status {
		case domain.StatusInProgress:
			s.TotalTickets++
		case domain.StatusComplete:
			s.CanUnbump = true
		}
	}
	return s
}

// Analytics mixes two windows: the *Today counts cover orders since the
// start of asOf's day, while TotalItems, AvgItemsPerOrder and the breakdowns
// cover every order in the snapshot.
type Analytics struct {
	TodayOrders       int            `json:"todayOrders"`
	CompletedToday    int            `json:"completedToday"`
	InProgressToday   int            `json:"inProgressToday"`
	TotalItems        int            `json:"totalItems"`
	AvgItemsPerOrder  string         `json:"avgItemsPerOrder"`
	CompletionRate    string         `json:"completionRate"`
	SourceBreakdown   map[string]int `json:"sourceBreakdown"`
	PriorityBreakdown map[string]int `json:"priorityBreakdown"`
}

func ComputeAnalytics(orders []domain.Order, asOf time.Time) Analytics {
	dayStart := StartOfDay(asOf)

	a := Analytics{
		SourceBreakdown:   make(map[string]int),
		PriorityBreakdown: make(map[string]int),
	}

	for _, o := range orders {
		if !o.Timestamp.Before(dayStart) {
			a.TodayOrders++
			switch o.Status {
			case domain.StatusComplete:
				a.CompletedToday++
			case domain.StatusInProgress:
				a.InProgressToday++
			}
		}

		a.TotalItems += o.ItemCount()
		a.SourceBreakdown[string(o.Source)]++
		a.PriorityBreakdown[string(o.Priority)]++
	}

	a.AvgItemsPerOrder = "0"
	if len(orders) > 0 {
		a.AvgItemsPerOrder = oneDecimal(float64(a.TotalItems) / float64(len(orders)))
	}

	a.CompletionRate = "0"
	if a.TodayOrders > 0 {
		a.CompletionRate = oneDecimal(float64(a.CompletedToday) / float64(a.TodayOrders) * 100)
	}

	return a
}

// TopSource names the source with the most orders, "N/A" when there are none.
// Ties go to the alphabetically first source.
func TopSource(breakdown map[string]int) string {
	top, best := "N/A", 0
	for source, n := range breakdown {
		if n > best || (n == best && n > 0 && source < top) {
			top, best = source, n
		}
	}
	return top
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// oneDecimal rounds halves away from zero, so 2.25 reads "2.3".
func oneDecimal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}
