package domain

// PriorityKey is the part of a resting order that determines its rank.
type PriorityKey struct {
	Price    int64
	Sequence int64
	OrderID  string
}

// KeyOf extracts the ranking key of an order.
func KeyOf(o *Order) PriorityKey {
	return PriorityKey{Price: o.Price, Sequence: o.Sequence, OrderID: o.OrderID}
}

// PriceTimePriority ranks resting orders of one side. Better price first
// (highest for BUY, lowest for SELL), then earlier arrival. OrderID only
// separates keys that should never collide.
type PriceTimePriority struct {
	Side Side
}

// Less reports whether a ranks ahead of b.
func (p PriceTimePriority) Less(a, b PriorityKey) bool {
	if a.Price != b.Price {
		if p.Side == SideBuy {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	}
	if a.Sequence != b.Sequence {
		return a.Sequence < b.Sequence
	}
	return a.OrderID < b.OrderID
}

// Crosses reports whether a resting order at restingPrice is compatible
// with an incoming order limited at limit.
func (p PriceTimePriority) Crosses(restingPrice, limit int64) bool {
	if p.Side == SideBuy {
		return restingPrice >= limit
	}
	return restingPrice <= limit
}
