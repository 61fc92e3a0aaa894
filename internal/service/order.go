package service

import (
	"context"
	"fmt"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/engine"
)

// SubmitOrderRequest represents the raw input for order submission.
type SubmitOrderRequest struct {
	AccountID    string
	InstrumentID string
	Side         string
	Price        string
	Quantity     int64
}

// OrderService translates collaborator requests into engine calls.
type OrderService struct {
	engine *engine.Engine
}

// NewOrderService creates a new OrderService.
func NewOrderService(e *engine.Engine) *OrderService {
	return &OrderService{engine: e}
}

func invalidOrder(format string, args ...any) error {
	return &domain.ValidationError{
		Message: fmt.Sprintf(format, args...),
		Err:     domain.ErrInvalidOrderParameters,
	}
}

// Submit parses the request and admits the order.
func (s *OrderService) Submit(ctx context.Context, req SubmitOrderRequest) (*engine.Result, error) {
	if !accountIDRegex.MatchString(req.AccountID) {
		return nil, &domain.ValidationError{Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$"}
	}
	if !instrumentIDRegex.MatchString(req.InstrumentID) {
		return nil, &domain.ValidationError{Message: "instrument_id must match ^[A-Z]{1,10}$"}
	}
	side, err := domain.ParseSide(req.Side)
	if err != nil {
		return nil, invalidOrder("%s", err.Error())
	}
	price, err := domain.ParseMoney(req.Price)
	if err != nil {
		return nil, invalidOrder("price: %s", err.Error())
	}

	return s.engine.AdmitOrder(ctx, engine.OrderRequest{
		AccountID:    req.AccountID,
		InstrumentID: req.InstrumentID,
		Side:         side,
		Price:        price,
		Quantity:     req.Quantity,
	})
}

// Rematch retries matching for an accepted order.
func (s *OrderService) Rematch(ctx context.Context, orderID string) (*engine.Result, error) {
	return s.engine.Rematch(ctx, orderID)
}

// Get returns an order by ID.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.engine.GetOrder(ctx, orderID)
}

// ListOrders returns the account's orders. status may be "" for all orders
// or "open" for PENDING and PARTIAL ones.
func (s *OrderService) ListOrders(ctx context.Context, accountID, status string) ([]*domain.Order, error) {
	switch status {
	case "":
		return s.engine.GetOrders(ctx, accountID, false)
	case "open":
		return s.engine.GetOpenOrders(ctx, accountID)
	}
	return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown status filter %q, must be open", status)}
}

// Holdings returns the account's positions.
func (s *OrderService) Holdings(ctx context.Context, accountID string) ([]*domain.Holding, error) {
	return s.engine.GetHoldings(ctx, accountID)
}

// Trades returns the account's trades.
func (s *OrderService) Trades(ctx context.Context, accountID string) ([]*domain.Trade, error) {
	return s.engine.GetTrades(ctx, accountID)
}
