package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

// OrderRequest is a validated request to place a limit order.
type OrderRequest struct {
	AccountID    string
	InstrumentID string
	Side         domain.Side
	Price        int64 // cents
	Quantity     int64
}

// validateParameters applies the static rules. Failures carry
// domain.ErrInvalidOrderParameters.
func validateParameters(req OrderRequest) error {
	invalid := func(msg string) error {
		return &domain.ValidationError{Message: msg, Err: domain.ErrInvalidOrderParameters}
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return invalid("side must be BUY or SELL")
	}
	if req.Price <= 0 {
		return invalid("price must be > 0")
	}
	if req.Quantity <= 0 {
		return invalid("quantity must be > 0")
	}
	if _, err := domain.Notional(req.Price, req.Quantity); err != nil {
		return invalid("price x quantity is too large")
	}
	return nil
}

// checkBuy requires the full order value in cash. Open orders do not
// reserve funds.
func checkBuy(a *domain.Account, price, qty int64) error {
	required, err := domain.Notional(price, qty)
	if err != nil {
		return err
	}
	if a.CashBalance < required {
		return &domain.ShortfallError{Kind: domain.ErrInsufficientBalance, Required: required, Available: a.CashBalance}
	}
	return nil
}

// checkSell requires a holding covering the order quantity. h is nil when
// the account has no position.
func checkSell(h *domain.Holding, qty int64) error {
	if h == nil {
		return &domain.ShortfallError{Kind: domain.ErrNoPosition, Required: qty}
	}
	if h.Quantity < qty {
		return &domain.ShortfallError{Kind: domain.ErrInsufficientPosition, Required: qty, Available: h.Quantity}
	}
	return nil
}

// admit checks coverage and persists the order as PENDING within one unit.
func (e *Engine) admit(ctx context.Context, s store.Session, req OrderRequest, now time.Time) (*domain.Order, error) {
	order := &domain.Order{
		OrderID:           uuid.New().String(),
		AccountID:         req.AccountID,
		InstrumentID:      req.InstrumentID,
		Side:              req.Side,
		Price:             req.Price,
		Quantity:          req.Quantity,
		RemainingQuantity: req.Quantity,
		Status:            domain.OrderStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.Tx(ctx, func(tx store.Tx) error {
		accounts, err := tx.LockAccounts(ctx, req.AccountID)
		if err != nil {
			return err
		}

		switch req.Side {
		case domain.SideBuy:
			err = checkBuy(accounts[req.AccountID], req.Price, req.Quantity)
		case domain.SideSell:
			h, herr := tx.Holding(ctx, req.AccountID, req.InstrumentID)
			if herr != nil && !errors.Is(herr, domain.ErrHoldingNotFound) {
				return herr
			}
			err = checkSell(h, req.Quantity)
		}
		if err != nil {
			return err
		}
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
