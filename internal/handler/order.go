package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/papertrader/internal/domain"
	"github.com/efreitasn/papertrader/internal/service"
)

// validOrderStatuses lists the accepted values of the status filter.
var validOrderStatuses = map[domain.OrderStatus]bool{
	domain.OrderStatusPending:  true,
	domain.OrderStatusFilled:   true,
	domain.OrderStatusRejected: true,
}

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	sessionSvc *service.SessionService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(sessionSvc *service.SessionService) *OrderHandler {
	return &OrderHandler{sessionSvc: sessionSvc}
}

// submitOrderRequest is the JSON request body for POST /sessions/{id}/orders.
type submitOrderRequest struct {
	Side       string   `json:"side"`
	Type       string   `json:"type"`
	Quantity   float64  `json:"quantity"`
	LimitPrice *float64 `json:"limit_price"`
}

// Submit handles POST /sessions/{session_id}/orders.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	side, err := domain.ParseSide(req.Side)
	if err != nil {
		mapError(w, err)
		return
	}

	res, err := h.sessionSvc.SubmitOrder(chi.URLParam(r, "session_id"), service.SubmitOrderRequest{
		Side:       side,
		Kind:       domain.OrderKind(req.Type),
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	status := domain.OrderStatusPending
	if res.Fill != nil {
		status = domain.OrderStatusFilled
	}
	WriteJSON(w, http.StatusCreated, buildOrder(res.Order, status, res.Fill, ""))
}

// List handles GET /sessions/{session_id}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *domain.OrderStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.OrderStatus(v)
		if !validOrderStatuses[s] {
			validationError(w, "status must be one of: pending, filled, rejected")
			return
		}
		status = &s
	}

	records, err := h.sessionSvc.ListOrders(chi.URLParam(r, "session_id"), status)
	if err != nil {
		mapError(w, err)
		return
	}

	result := make([]orderResponse, len(records))
	for i, rec := range records {
		result[i] = buildOrderRecord(rec)
	}
	WriteJSON(w, http.StatusOK, result)
}

// Get handles GET /sessions/{session_id}/orders/{order_id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseUint(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil {
		mapError(w, domain.ErrOrderNotFound)
		return
	}

	rec, err := h.sessionSvc.GetOrder(chi.URLParam(r, "session_id"), orderID)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildOrderRecord(rec))
}
