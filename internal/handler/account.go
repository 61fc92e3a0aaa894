package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/stockmatch/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
	orderSvc   *service.OrderService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService, orderSvc *service.OrderService) *AccountHandler {
	return &AccountHandler{
		accountSvc: accountSvc,
		orderSvc:   orderSvc,
	}
}

// registerAccountRequest is the JSON request body for POST /accounts.
type registerAccountRequest struct {
	AccountID       string         `json:"account_id"`
	Name            string         `json:"name"`
	InitialCash     *moneyInput    `json:"initial_cash"`
	InitialHoldings []holdingInput `json:"initial_holdings"`
}

type holdingInput struct {
	InstrumentID string     `json:"instrument_id"`
	Quantity     int64      `json:"quantity"`
	AveragePrice moneyInput `json:"average_price"`
}

type accountResponse struct {
	AccountID   string            `json:"account_id"`
	Name        string            `json:"name"`
	CashBalance string            `json:"cash_balance"`
	Holdings    []holdingResponse `json:"holdings"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// Register handles POST /accounts.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerAccountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	holdings := make([]service.HoldingInput, len(req.InitialHoldings))
	for i, hi := range req.InitialHoldings {
		holdings[i] = service.HoldingInput{
			InstrumentID: hi.InstrumentID,
			Quantity:     hi.Quantity,
			AveragePrice: string(hi.AveragePrice),
		}
	}
	var cash *string
	if req.InitialCash != nil {
		s := string(*req.InitialCash)
		cash = &s
	}

	snap, err := h.accountSvc.Register(r.Context(), service.RegisterAccountRequest{
		AccountID:       req.AccountID,
		Name:            req.Name,
		InitialCash:     cash,
		InitialHoldings: holdings,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildAccountResponse(snap))
}

// Get handles GET /accounts/{account_id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.accountSvc.Snapshot(r.Context(), chi.URLParam(r, "account_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildAccountResponse(snap))
}

// ListOrders handles GET /accounts/{account_id}/orders?status=open.
func (h *AccountHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderSvc.ListOrders(r.Context(), chi.URLParam(r, "account_id"), r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"orders": buildOrderResponses(orders)})
}

// ListHoldings handles GET /accounts/{account_id}/holdings.
func (h *AccountHandler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.orderSvc.Holdings(r.Context(), chi.URLParam(r, "account_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"holdings": buildHoldingResponses(holdings)})
}

// ListTrades handles GET /accounts/{account_id}/trades.
func (h *AccountHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.orderSvc.Trades(r.Context(), chi.URLParam(r, "account_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"trades": buildTradeResponses(trades)})
}

func buildAccountResponse(snap *service.AccountSnapshot) accountResponse {
	return accountResponse{
		AccountID:   snap.Account.AccountID,
		Name:        snap.Account.Name,
		CashBalance: money(snap.Account.CashBalance),
		Holdings:    buildHoldingResponses(snap.Holdings),
		CreatedAt:   timestamp(snap.Account.CreatedAt),
		UpdatedAt:   timestamp(snap.Account.UpdatedAt),
	}
}
