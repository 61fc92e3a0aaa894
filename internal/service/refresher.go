package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

// ReferencePriceRefresher periodically sets each instrument's reference
// price to the VWAP of its trades over a trailing window. With no trades in
// the window the last trade price is used; instruments that never traded
// are left alone. Matching never reads the reference price.
type ReferencePriceRefresher struct {
	interval    time.Duration
	window      time.Duration
	instruments store.Instruments
	queries     store.Queries
	logger      *slog.Logger
}

// NewReferencePriceRefresher creates a refresher with the given dependencies.
func NewReferencePriceRefresher(
	interval time.Duration,
	window time.Duration,
	instruments store.Instruments,
	queries store.Queries,
	logger *slog.Logger,
) *ReferencePriceRefresher {
	return &ReferencePriceRefresher{
		interval:    interval,
		window:      window,
		instruments: instruments,
		queries:     queries,
		logger:      logger,
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and refreshes every instrument. It stops when ctx is cancelled.
func (r *ReferencePriceRefresher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				if err := r.RefreshAll(ctx, t); err != nil && ctx.Err() == nil {
					r.logger.Warn("reference price refresh failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// RefreshAll refreshes every instrument as of now.
func (r *ReferencePriceRefresher) RefreshAll(ctx context.Context, now time.Time) error {
	instruments, err := r.instruments.ListInstruments(ctx)
	if err != nil {
		return err
	}
	for _, in := range instruments {
		price, ok, err := r.Compute(ctx, in.InstrumentID, now)
		if err != nil {
			return err
		}
		if !ok || price == in.ReferencePrice {
			continue
		}
		if err := r.instruments.SetReferencePrice(ctx, in.InstrumentID, price, now.UTC()); err != nil {
			return err
		}
		r.logger.Debug("reference price updated",
			slog.String("instrument_id", in.InstrumentID),
			slog.String("price", domain.FormatMoney(price)),
		)
	}
	return nil
}

// Compute returns the reference price of an instrument as of now. ok is
// false when the instrument never traded.
func (r *ReferencePriceRefresher) Compute(ctx context.Context, instrumentID string, now time.Time) (price int64, ok bool, err error) {
	trades, err := r.queries.TradesSince(ctx, instrumentID, now.Add(-r.window))
	if err != nil {
		return 0, false, err
	}
	if len(trades) > 0 {
		return vwap(trades), true, nil
	}

	last, err := r.queries.LastTrade(ctx, instrumentID)
	if err != nil || last == nil {
		return 0, false, err
	}
	return last.Price, true, nil
}

// vwap is sum(price × quantity) / sum(quantity), rounded half-to-even to
// the cent.
func vwap(trades []*domain.Trade) int64 {
	var value, qty decimal.Decimal
	for _, t := range trades {
		q := decimal.NewFromInt(t.Quantity)
		value = value.Add(decimal.NewFromInt(t.Price).Mul(q))
		qty = qty.Add(q)
	}
	return value.Div(qty).RoundBank(0).IntPart()
}
