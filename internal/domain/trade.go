package domain

import "time"

// Trade is the immutable record of one fill between a buy and a sell order.
// Price is always the resting order's price.
type Trade struct {
	TradeID      string
	InstrumentID string
	BuyOrderID   string
	SellOrderID  string
	BuyerID      string
	SellerID     string
	Price        int64 // cents
	Quantity     int64
	Sequence     int64
	ExecutedAt   time.Time
}

// Involves reports whether the account is on either side of the trade.
func (t *Trade) Involves(accountID string) bool {
	return t.BuyerID == accountID || t.SellerID == accountID
}
