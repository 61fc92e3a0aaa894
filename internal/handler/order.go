package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/stockmatch/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	orderSvc *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc *service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// submitOrderRequest is the JSON request body for POST /orders.
type submitOrderRequest struct {
	AccountID    string     `json:"account_id"`
	InstrumentID string     `json:"instrument_id"`
	Side         string     `json:"side"`
	Price        moneyInput `json:"price"`
	Quantity     int64      `json:"quantity"`
}

// SubmitOrder handles POST /orders. A rejected order produces no state
// change. An order that was accepted but whose match aborted is reported
// with the error status of the cause, its order_id and the trades that
// settled before the failure, so the caller can
// retry through the rematch endpoint.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := h.orderSvc.Submit(r.Context(), service.SubmitOrderRequest{
		AccountID:    req.AccountID,
		InstrumentID: req.InstrumentID,
		Side:         req.Side,
		Price:        string(req.Price),
		Quantity:     req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildMatchResponse(res))
}

// GetOrder handles GET /orders/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderSvc.Get(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildOrderResponse(order))
}

// Rematch handles POST /orders/{order_id}/rematch.
func (h *OrderHandler) Rematch(w http.ResponseWriter, r *http.Request) {
	res, err := h.orderSvc.Rematch(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildMatchResponse(res))
}
