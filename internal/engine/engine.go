// Package engine implements order admission, price-time matching and
// settlement on top of a store.Ledger.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

// Result is the outcome of an admitted order: its state after matching and
// the trades it produced, in execution order.
type Result struct {
	Order  *domain.Order
	Trades []*domain.Trade
}

// Engine is the matching-and-settlement core.
type Engine struct {
	ledger      store.Ledger
	metrics     *Metrics
	logger      *slog.Logger
	lockTimeout time.Duration
	now         func() time.Time
}

// New creates an Engine. lockTimeout bounds one admission and match attempt
// including every lock wait; zero disables the bound.
func New(ledger store.Ledger, metrics *Metrics, logger *slog.Logger, lockTimeout time.Duration) *Engine {
	return &Engine{
		ledger:      ledger,
		metrics:     metrics,
		logger:      logger,
		lockTimeout: lockTimeout,
		now:         time.Now,
	}
}

func (e *Engine) withLockTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.lockTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.lockTimeout)
}

// AdmitOrder validates the request, persists it as PENDING and matches it
// synchronously. Rejections return an error and create no order. Failures
// after acceptance return a *MatchError naming the order.
func (e *Engine) AdmitOrder(ctx context.Context, req OrderRequest) (*Result, error) {
	start := time.Now()
	defer func() { e.metrics.matchDuration.Observe(time.Since(start).Seconds()) }()

	if err := validateParameters(req); err != nil {
		return nil, e.reject(req, err)
	}

	ctx, cancel := e.withLockTimeout(ctx)
	defer cancel()

	s, err := e.ledger.OpenSession(ctx, req.InstrumentID)
	if err != nil {
		return nil, e.reject(req, err)
	}
	defer s.Release()

	order, err := e.admit(ctx, s, req, e.now().UTC())
	if err != nil {
		return nil, e.reject(req, err)
	}
	e.metrics.ordersAdmitted.WithLabelValues(string(req.Side)).Inc()
	e.logger.Debug("order admitted",
		slog.String("order_id", order.OrderID),
		slog.String("account_id", order.AccountID),
		slog.String("instrument_id", order.InstrumentID),
		slog.String("side", string(order.Side)),
		slog.Int64("price", order.Price),
		slog.Int64("quantity", order.Quantity),
	)

	return e.runMatch(ctx, s, order.OrderID)
}

// Rematch resumes matching for an accepted order, typically after a
// MatchError caused by a lock timeout. Orders that are no longer open are
// returned unchanged with no trades.
func (e *Engine) Rematch(ctx context.Context, orderID string) (*Result, error) {
	o, err := e.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.Open() {
		return &Result{Order: o, Trades: []*domain.Trade{}}, nil
	}

	ctx, cancel := e.withLockTimeout(ctx)
	defer cancel()

	s, err := e.ledger.OpenSession(ctx, o.InstrumentID)
	if err != nil {
		return nil, &MatchError{OrderID: orderID, Trades: []*domain.Trade{}, Err: err}
	}
	defer s.Release()

	return e.runMatch(ctx, s, orderID)
}

func (e *Engine) runMatch(ctx context.Context, s store.Session, orderID string) (*Result, error) {
	order, trades, err := e.match(ctx, s, orderID)
	if trades == nil {
		trades = []*domain.Trade{}
	}
	if err != nil {
		kind := errorKind(err)
		e.metrics.settlementFailures.WithLabelValues(kind).Inc()
		attrs := []any{
			slog.String("order_id", orderID),
			slog.Int("fills", len(trades)),
			slog.String("error", err.Error()),
		}
		if errors.Is(err, domain.ErrInvariantViolation) {
			e.logger.Error("invariant violation during match", attrs...)
		} else {
			e.logger.Warn("match aborted", attrs...)
		}
		return nil, &MatchError{OrderID: orderID, Trades: trades, Err: err}
	}
	return &Result{Order: order, Trades: trades}, nil
}

func (e *Engine) reject(req OrderRequest, err error) error {
	kind := errorKind(err)
	e.metrics.ordersRejected.WithLabelValues(kind).Inc()
	attrs := []any{
		slog.String("account_id", req.AccountID),
		slog.String("instrument_id", req.InstrumentID),
		slog.String("side", string(req.Side)),
		slog.String("reason", kind),
	}
	var se *domain.ShortfallError
	if errors.As(err, &se) {
		attrs = append(attrs, slog.Int64("required", se.Required), slog.Int64("available", se.Available))
	}
	e.logger.Info("order rejected", attrs...)
	return err
}

// GetOrder returns an order by ID.
func (e *Engine) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return e.ledger.GetOrder(ctx, orderID)
}

// GetOrders returns the account's orders newest first.
func (e *Engine) GetOrders(ctx context.Context, accountID string, openOnly bool) ([]*domain.Order, error) {
	if _, err := e.ledger.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return e.ledger.ListOrders(ctx, accountID, openOnly)
}

// GetOpenOrders returns the account's PENDING and PARTIAL orders.
func (e *Engine) GetOpenOrders(ctx context.Context, accountID string) ([]*domain.Order, error) {
	return e.GetOrders(ctx, accountID, true)
}

// GetHoldings returns the account's non-zero positions.
func (e *Engine) GetHoldings(ctx context.Context, accountID string) ([]*domain.Holding, error) {
	if _, err := e.ledger.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return e.ledger.ListHoldings(ctx, accountID)
}

// GetTrades returns trades in which the account bought or sold.
func (e *Engine) GetTrades(ctx context.Context, accountID string) ([]*domain.Trade, error) {
	if _, err := e.ledger.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return e.ledger.ListTrades(ctx, accountID)
}

// GetAccount returns the account's current balance snapshot.
func (e *Engine) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	return e.ledger.GetAccount(ctx, accountID)
}
