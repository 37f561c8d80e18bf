package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/app/projection"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Staff actions on the active board
type DisplayService interface {
	Complete(ctx context.Context, orderID string) error
	Unbump(ctx context.Context) (string, bool, error)
	Reconnect()
}

// Read side consumed by the presentation layer
type BoardService interface {
	Active(now time.Time) ActiveBoard
	History(filter projection.Filter) HistoryPage
	Analytics(asOf time.Time) AnalyticsReport
	Connection() ConnectionStatus
}

type BoardCard struct {
	domain.Order
	Title   string `json:"title"`
	Elapsed string `json:"elapsed"`
}

type ActiveBoard struct {
	Orders []BoardCard `json:"orders"`
	projection.BoardSummary
}

type HistoryPage struct {
	Orders []domain.Order `json:"orders"`
	projection.HistorySummary
	FiltersActive bool `json:"filtersActive"`
}

type AnalyticsReport struct {
	projection.Analytics
	TopSource string `json:"topSource"`
}

type ConnectionStatus struct {
	State       string  `json:"state"`
	IsConnected bool    `json:"isConnected"`
	LastError   *string `json:"lastError"`
	Attempts    int     `json:"attempts"`
}
