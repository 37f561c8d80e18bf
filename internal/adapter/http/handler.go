package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/app/projection"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
	"github.com/YelzhanWeb/kitchen-display/internal/interfaces"
)

type Handler struct {
	display interfaces.DisplayService
	board   interfaces.BoardService
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(display interfaces.DisplayService, board interfaces.BoardService, logger logger.Logger) *Handler {
	return &Handler{
		display: display,
		board:   board,
		logger:  logger,
		now:     time.Now,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type CompleteResponse struct {
	OrderID string        `json:"orderId"`
	Status  domain.Status `json:"status"`
}

type UnbumpResponse struct {
	OrderID  string `json:"orderId,omitempty"`
	Unbumped bool   `json:"unbumped"`
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware(h.logger))
	r.Use(RecoveryMiddleware(h.logger))

	r.Get("/orders/active", h.activeOrders)
	r.Get("/orders/history", h.orderHistory)
	r.Post("/orders/unbump", h.unbump)
	r.Post("/orders/{id}/complete", h.complete)
	r.Get("/analytics", h.analytics)
	r.Get("/connection", h.connection)
	r.Post("/connection/reconnect", h.reconnect)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func (h *Handler) activeOrders(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.board.Active(h.now()))
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.board.History(filter))
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	asOf := h.now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid as_of: %q is not RFC3339", v))
			return
		}
		asOf = t
	}
	respondJSON(w, http.StatusOK, h.board.Analytics(asOf))
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	requestID := RequestIDFrom(r.Context())

	if err := h.display.Complete(r.Context(), id); err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("complete_failed", "Failed to complete order", requestID, map[string]interface{}{"order_id": id}, err)
		respondError(w, http.StatusInternalServerError, "failed to complete order")
		return
	}

	respondJSON(w, http.StatusOK, CompleteResponse{OrderID: id, Status: domain.StatusComplete})
}

func (h *Handler) unbump(w http.ResponseWriter, r *http.Request) {
	id, ok, err := h.display.Unbump(r.Context())
	if err != nil {
		h.logger.Error("unbump_failed", "Failed to unbump order", RequestIDFrom(r.Context()), nil, err)
		respondError(w, http.StatusInternalServerError, "failed to unbump order")
		return
	}
	respondJSON(w, http.StatusOK, UnbumpResponse{OrderID: id, Unbumped: ok})
}

func (h *Handler) connection(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.board.Connection())
}

func (h *Handler) reconnect(w http.ResponseWriter, r *http.Request) {
	h.display.Reconnect()
	h.logger.Info("manual_reconnect", "Manual reconnect requested", RequestIDFrom(r.Context()), nil)
	respondJSON(w, http.StatusAccepted, h.board.Connection())
}

// parseFilter reads the history query. Enum values must be known or "All";
// dates are RFC3339.
func parseFilter(r *http.Request) (projection.Filter, error) {
	q := r.URL.Query()
	var f projection.Filter

	if v := q.Get("status"); v != "" {
		f.Status = domain.Status(v)
		if v != domain.All && !f.Status.Valid() {
			return f, fmt.Errorf("invalid status %q", v)
		}
	}
	if v := q.Get("priority"); v != "" {
		f.Priority = domain.Priority(v)
		if v != domain.All && !f.Priority.Valid() {
			return f, fmt.Errorf("invalid priority %q", v)
		}
	}
	if v := q.Get("source"); v != "" {
		f.Source = domain.Source(v)
		if v != domain.All && !f.Source.Valid() {
			return f, fmt.Errorf("invalid source %q", v)
		}
	}
	if v := q.Get("order_type"); v != "" {
		f.OrderType = domain.OrderType(v)
		if v != domain.All && !f.OrderType.Valid() {
			return f, fmt.Errorf("invalid order_type %q", v)
		}
	}

	for _, bound := range []struct {
		key string
		dst **time.Time
	}{
		{"date_from", &f.DateFrom},
		{"date_to", &f.DateTo},
	} {
		v := q.Get(bound.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid %s: %q is not RFC3339", bound.key, v)
		}
		*bound.dst = &t
	}

	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return f, errors.New("date_to is before date_from")
	}

	return f, nil
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
