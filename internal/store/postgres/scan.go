package postgres

import (
	"github.com/jackc/pgx/v5"

	"github.com/efreitasn/stockmatch/internal/domain"
)

const (
	accountColumns    = `id, name, cash_balance, created_at, updated_at`
	instrumentColumns = `id, name, reference_price, created_at, updated_at`
	holdingColumns    = `account_id, instrument_id, quantity, average_price, updated_at`
	orderColumns      = `id, account_id, instrument_id, side, price, quantity, remaining_quantity, status, seq, created_at, updated_at`
	tradeColumns      = `id, instrument_id, buy_order_id, sell_order_id, buyer_id, seller_id, price, quantity, seq, executed_at`
)

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.AccountID, &a.Name, &a.CashBalance, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func scanInstrument(row pgx.Row) (*domain.Instrument, error) {
	var in domain.Instrument
	err := row.Scan(&in.InstrumentID, &in.Name, &in.ReferencePrice, &in.CreatedAt, &in.UpdatedAt)
	return &in, err
}

func scanHolding(row pgx.Row) (*domain.Holding, error) {
	var h domain.Holding
	err := row.Scan(&h.AccountID, &h.InstrumentID, &h.Quantity, &h.AveragePrice, &h.UpdatedAt)
	return &h, err
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o            domain.Order
		side, status string
	)
	err := row.Scan(&o.OrderID, &o.AccountID, &o.InstrumentID, &side, &o.Price,
		&o.Quantity, &o.RemainingQuantity, &status, &o.Sequence, &o.CreatedAt, &o.UpdatedAt)
	o.Side = domain.Side(side)
	o.Status = domain.OrderStatus(status)
	return &o, err
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	err := row.Scan(&t.TradeID, &t.InstrumentID, &t.BuyOrderID, &t.SellOrderID,
		&t.BuyerID, &t.SellerID, &t.Price, &t.Quantity, &t.Sequence, &t.ExecutedAt)
	return &t, err
}

// collect scans every row with scan, which works for pgx.CollectableRow
// because it satisfies pgx.Row.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = make([]T, 0)
	}
	return result, nil
}
