package board

import (
	"sync"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/app/projection"
	"github.com/YelzhanWeb/kitchen-display/internal/app/store"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
	"github.com/YelzhanWeb/kitchen-display/internal/realtime"
)

// StatusSource reports the realtime connection state.
type StatusSource interface {
	Status() realtime.Status
}

type Service struct {
	conn StatusSource

	mu       sync.Mutex
	snapshot []domain.Order
	// active is derived lazily from snapshot and dropped on every change
	active      []domain.Order
	unsubscribe func()
}

// NewService keeps the latest store snapshot in hand so reads never touch
// the store's locks.
func NewService(st *store.Store, conn StatusSource) *Service {
	s := &Service{conn: conn}
	s.unsubscribe = st.Subscribe(s.refresh)

	s.mu.Lock()
	if s.snapshot == nil {
		s.snapshot = st.Snapshot()
	}
	s.mu.Unlock()

	return s
}

func (s *Service) Close() {
	s.unsubscribe()
}

func (s *Service) refresh(snapshot []domain.Order) {
	s.mu.Lock()
	s.snapshot = snapshot
	s.active = nil
	s.mu.Unlock()
}

func (s *Service) orders() ([]domain.Order, []domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.active = projection.ActiveQueue(s.snapshot)
	}
	return s.snapshot, s.active
}

func (s *Service) Active(now time.Time) interfaces.ActiveBoard {
	all, active := s.orders()

	cards := make([]interfaces.BoardCard, 0, len(active))
	for _, o := range active {
		cards = append(cards, interfaces.BoardCard{
			Order:   o,
			Title:   o.DisplayTitle(),
			Elapsed: domain.ElapsedLabel(o.Timestamp, now),
		})
	}

	return interfaces.ActiveBoard{
		Orders:       cards,
		BoardSummary: projection.Board(all),
	}
}

func (s *Service) History(filter projection.Filter) interfaces.HistoryPage {
	all, _ := s.orders()
	list := projection.HistoryList(all, filter)

	// the header counts cover every order, whatever the filter
	return interfaces.HistoryPage{
		Orders:         list,
		HistorySummary: projection.Summarize(all),
		FiltersActive:  filter.IsActive(),
	}
}

func (s *Service) Analytics(asOf time.Time) interfaces.AnalyticsReport {
	all, _ := s.orders()
	a := projection.ComputeAnalytics(all, asOf)

	return interfaces.AnalyticsReport{
		Analytics: a,
		TopSource: projection.TopSource(a.SourceBreakdown),
	}
}

func (s *Service) Connection() interfaces.ConnectionStatus {
	if s.conn == nil {
		return interfaces.ConnectionStatus{State: string(realtime.StateDisconnected)}
	}

	st := s.conn.Status()
	return interfaces.ConnectionStatus{
		State:       string(st.State),
		IsConnected: st.IsConnected,
		LastError:   st.LastError,
		Attempts:    st.Attempts,
	}
}

var _ interfaces.BoardService = (*Service)(nil)
