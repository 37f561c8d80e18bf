package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/app/projection"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type mockDisplayService struct {
	mock.Mock
}

func (m *mockDisplayService) Complete(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *mockDisplayService) Unbump(ctx context.Context) (string, bool, error) {
	args := m.Called(ctx)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockDisplayService) Reconnect() {
	m.Called()
}

type mockBoardService struct {
	mock.Mock
}

func (m *mockBoardService) Active(now time.Time) interfaces.ActiveBoard {
	args := m.Called(now)
	return args.Get(0).(interfaces.ActiveBoard)
}

func (m *mockBoardService) History(filter projection.Filter) interfaces.HistoryPage {
	args := m.Called(filter)
	return args.Get(0).(interfaces.HistoryPage)
}

func (m *mockBoardService) Analytics(asOf time.Time) interfaces.AnalyticsReport {
	args := m.Called(asOf)
	return args.Get(0).(interfaces.AnalyticsReport)
}

func (m *mockBoardService) Connection() interfaces.ConnectionStatus {
	args := m.Called()
	return args.Get(0).(interfaces.ConnectionStatus)
}

func newTestHandler(display *mockDisplayService, board *mockBoardService) http.Handler {
	h := NewHandler(display, board, logger.Nop())
	h.now = func() time.Time { return now }
	return h.Routes()
}

func serve(t *testing.T, handler http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandler_ActiveOrders(t *testing.T) {
	board := &mockBoardService{}
	board.On("Active", now).Return(interfaces.ActiveBoard{
		Orders: []interfaces.BoardCard{{
			Order:   domain.Order{ID: "ORD-001", Status: domain.StatusInProgress},
			Title:   "Pickup",
			Elapsed: "5m ago",
		}},
		BoardSummary: projection.BoardSummary{TotalTickets: 1, CanUnbump: true},
	})

	rec := serve(t, newTestHandler(&mockDisplayService{}, board), http.MethodGet, "/orders/active")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), body["totalTickets"])
	assert.Equal(t, true, body["canUnbump"])
	card := body["orders"].([]any)[0].(map[string]any)
	assert.Equal(t, "ORD-001", card["id"])
	assert.Equal(t, "5m ago", card["elapsed"])
	board.AssertExpectations(t)
}

func TestHandler_OrderHistory(t *testing.T) {
	from := time.Date(2026, 10, 15, 11, 0, 0, 0, time.UTC)

	testCases := map[string]struct {
		query          string
		expectedFilter *projection.Filter
		expectedStatus int
		expectedError  string
	}{
		"should pass an empty filter without query": {
			query:          "",
			expectedFilter: &projection.Filter{},
			expectedStatus: http.StatusOK,
		},
		"should parse every field": {
			query: "?status=Complete&priority=High&source=Mobile+App&order_type=Dine+In&date_from=2026-10-15T11:00:00Z",
			expectedFilter: &projection.Filter{
				Status:    domain.StatusComplete,
				Priority:  domain.PriorityHigh,
				Source:    domain.SourceMobileApp,
				OrderType: domain.OrderTypeDineIn,
				DateFrom:  &from,
			},
			expectedStatus: http.StatusOK,
		},
		"should accept All": {
			query:          "?status=All&source=All",
			expectedFilter: &projection.Filter{Status: domain.All, Source: domain.All},
			expectedStatus: http.StatusOK,
		},
		"should reject an unknown priority": {
			query:          "?priority=Urgent",
			expectedStatus: http.StatusBadRequest,
			expectedError:  `invalid priority "Urgent"`,
		},
		"should reject a malformed date": {
			query:          "?date_to=yesterday",
			expectedStatus: http.StatusBadRequest,
			expectedError:  `invalid date_to: "yesterday" is not RFC3339`,
		},
		"should reject an inverted range": {
			query:          "?date_from=2026-10-15T12:00:00Z&date_to=2026-10-15T11:00:00Z",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "date_to is before date_from",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			board := &mockBoardService{}
			if tc.expectedFilter != nil {
				board.On("History", *tc.expectedFilter).Return(interfaces.HistoryPage{
					Orders:         []domain.Order{},
					HistorySummary: projection.HistorySummary{},
					FiltersActive:  tc.expectedFilter.IsActive(),
				})
			}

			rec := serve(t, newTestHandler(&mockDisplayService{}, board), http.MethodGet, "/orders/history"+tc.query)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, decode[ErrorResponse](t, rec).Error)
			}
			board.AssertExpectations(t)
		})
	}
}

func TestHandler_Analytics(t *testing.T) {
	asOf := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	testCases := map[string]struct {
		query          string
		expectedAsOf   time.Time
		expectedStatus int
	}{
		"should default to now": {
			expectedAsOf:   now,
			expectedStatus: http.StatusOK,
		},
		"should use as_of": {
			query:          "?as_of=2026-10-14T09:00:00Z",
			expectedAsOf:   asOf,
			expectedStatus: http.StatusOK,
		},
		"should reject a malformed as_of": {
			query:          "?as_of=monday",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			board := &mockBoardService{}
			if tc.expectedStatus == http.StatusOK {
				board.On("Analytics", mock.MatchedBy(func(got time.Time) bool { return got.Equal(tc.expectedAsOf) })).
					Return(interfaces.AnalyticsReport{TopSource: "Clover POS"})
			}

			rec := serve(t, newTestHandler(&mockDisplayService{}, board), http.MethodGet, "/analytics"+tc.query)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedStatus == http.StatusOK {
				assert.Equal(t, "Clover POS", decode[map[string]any](t, rec)["topSource"])
			}
			board.AssertExpectations(t)
		})
	}
}

func TestHandler_Complete(t *testing.T) {
	testCases := map[string]struct {
		mockErr        error
		expectedStatus int
		expectedBody   string
	}{
		"should complete an order": {
			expectedStatus: http.StatusOK,
			expectedBody:   `{"orderId":"ORD-002","status":"Complete"}`,
		},
		"should return 404 for an unknown order": {
			mockErr:        &domain.NotFoundError{ID: "ORD-002"},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"order with id ORD-002 not found"}`,
		},
		"should return 500 for other failures": {
			mockErr:        errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"failed to complete order"}`,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			display := &mockDisplayService{}
			display.On("Complete", mock.Anything, "ORD-002").Return(tc.mockErr).Once()

			rec := serve(t, newTestHandler(display, &mockBoardService{}), http.MethodPost, "/orders/ORD-002/complete")

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
			display.AssertExpectations(t)
		})
	}

	t.Run("should reject GET", func(t *testing.T) {
		rec := serve(t, newTestHandler(&mockDisplayService{}, &mockBoardService{}), http.MethodGet, "/orders/ORD-002/complete")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandler_Unbump(t *testing.T) {
	testCases := map[string]struct {
		id             string
		ok             bool
		err            error
		expectedStatus int
		expectedBody   string
	}{
		"should report the restored order": {
			id:             "ORD-004",
			ok:             true,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"orderId":"ORD-004","unbumped":true}`,
		},
		"should report nothing to unbump": {
			expectedStatus: http.StatusOK,
			expectedBody:   `{"unbumped":false}`,
		},
		"should return 500 on failure": {
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"failed to unbump order"}`,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			display := &mockDisplayService{}
			display.On("Unbump", mock.Anything).Return(tc.id, tc.ok, tc.err).Once()

			rec := serve(t, newTestHandler(display, &mockBoardService{}), http.MethodPost, "/orders/unbump")

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.JSONEq(t, tc.expectedBody, rec.Body.String())
			display.AssertExpectations(t)
		})
	}
}

func TestHandler_Connection(t *testing.T) {
	lastErr := "failed to connect to server"
	status := interfaces.ConnectionStatus{State: "reconnecting", LastError: &lastErr, Attempts: 2}

	t.Run("should report the connection status", func(t *testing.T) {
		board := &mockBoardService{}
		board.On("Connection").Return(status)

		rec := serve(t, newTestHandler(&mockDisplayService{}, board), http.MethodGet, "/connection")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"state":"reconnecting","isConnected":false,"lastError":"failed to connect to server","attempts":2}`, rec.Body.String())
	})

	t.Run("should trigger a manual reconnect", func(t *testing.T) {
		display := &mockDisplayService{}
		display.On("Reconnect").Return().Once()
		board := &mockBoardService{}
		board.On("Connection").Return(interfaces.ConnectionStatus{State: "connecting"})

		rec := serve(t, newTestHandler(display, board), http.MethodPost, "/connection/reconnect")

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.JSONEq(t, `{"state":"connecting","isConnected":false,"lastError":null,"attempts":0}`, rec.Body.String())
		display.AssertExpectations(t)
	})
}

func TestHandler_UnknownRoute(t *testing.T) {
	rec := serve(t, newTestHandler(&mockDisplayService{}, &mockBoardService{}), http.MethodGet, "/menu")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestMiddleware(t *testing.T) {
	t.Run("should reuse the caller's request id", func(t *testing.T) {
		var seen string
		h := LoggingMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	})

	t.Run("should turn a panic into a logged 500", func(t *testing.T) {
		var logs bytes.Buffer
		lgr := logger.NewWithWriter("kds", "debug", &logs)
		h := LoggingMiddleware(lgr)(RecoveryMiddleware(lgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("kaboom")
		})))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/active", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
		assert.Contains(t, logs.String(), `"action":"panic_recovered"`)
		assert.Contains(t, logs.String(), "kaboom")
	})
}
