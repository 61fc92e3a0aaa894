package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

// match fills the incoming order against the opposite side of the book
// until it is exhausted or no crossing order remains. Every fill is its
// own unit: the taker and the best maker are locked, both are decremented,
// the trade is recorded and settled, and the unit commits before the next
// maker is considered. A failing unit leaves earlier fills in place.
//
// The taker is re-read at the start of every unit, so calling match again
// for the same order continues where a previous call stopped.
func (e *Engine) match(ctx context.Context, s store.Session, orderID string) (*domain.Order, []*domain.Trade, error) {
	var (
		trades []*domain.Trade
		taker  *domain.Order
	)
	for {
		var trade *domain.Trade
		err := s.Tx(ctx, func(tx store.Tx) error {
			var err error
			taker, err = tx.LockOrder(ctx, orderID)
			if err != nil || !taker.Status.Open() {
				return err
			}

			maker, err := tx.BestCounterOrder(ctx, taker.Side.Opposite(), taker.Price)
			if err != nil || maker == nil {
				return err
			}

			qty := min(taker.RemainingQuantity, maker.RemainingQuantity)
			if err := taker.Fill(qty); err != nil {
				return err
			}
			if err := maker.Fill(qty); err != nil {
				return err
			}

			now := e.now().UTC()
			taker.UpdatedAt, maker.UpdatedAt = now, now
			buy, sell := taker, maker
			if taker.Side == domain.SideSell {
				buy, sell = maker, taker
			}
			t := &domain.Trade{
				TradeID:      uuid.New().String(),
				InstrumentID: taker.InstrumentID,
				BuyOrderID:   buy.OrderID,
				SellOrderID:  sell.OrderID,
				BuyerID:      buy.AccountID,
				SellerID:     sell.AccountID,
				Price:        maker.Price,
				Quantity:     qty,
				ExecutedAt:   now,
			}

			if err := tx.UpdateOrder(ctx, taker); err != nil {
				return err
			}
			if err := tx.UpdateOrder(ctx, maker); err != nil {
				return err
			}
			if err := tx.InsertTrade(ctx, t); err != nil {
				return err
			}
			if err := settle(ctx, tx, fill{
				BuyerID:      t.BuyerID,
				SellerID:     t.SellerID,
				InstrumentID: t.InstrumentID,
				Quantity:     t.Quantity,
				Price:        t.Price,
				At:           t.ExecutedAt,
			}); err != nil {
				return err
			}
			trade = t
			return nil
		})
		if err != nil {
			return nil, trades, err
		}
		if trade == nil {
			return taker, trades, nil
		}

		trades = append(trades, trade)
		e.metrics.tradesExecuted.Inc()
		e.metrics.quantityTraded.Add(float64(trade.Quantity))
		e.logger.Debug("trade executed",
			slog.String("trade_id", trade.TradeID),
			slog.String("instrument_id", trade.InstrumentID),
			slog.String("buy_order_id", trade.BuyOrderID),
			slog.String("sell_order_id", trade.SellOrderID),
			slog.Int64("price", trade.Price),
			slog.Int64("quantity", trade.Quantity),
		)
	}
}
