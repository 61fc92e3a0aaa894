package domain

import "time"

// Holding is an account's position in one instrument. A holding with zero
// quantity is never stored; absence means no position.
type Holding struct {
	AccountID    string
	InstrumentID string
	Quantity     int64
	AveragePrice int64 // cents
	UpdatedAt    time.Time
}

// Acquire adds a purchase to the position, moving the average price to
// the quantity-weighted mean.
func (h *Holding) Acquire(qty, price int64) error {
	if qty <= 0 {
		return invariantf("acquire of %d on holding %s/%s", qty, h.AccountID, h.InstrumentID)
	}
	h.AveragePrice = WeightedAverage(h.Quantity, h.AveragePrice, qty, price)
	h.Quantity += qty
	return nil
}

// Release removes sold quantity. Going below zero is an invariant violation
// and leaves the holding unchanged.
func (h *Holding) Release(qty int64) error {
	if qty <= 0 || qty > h.Quantity {
		return invariantf("release of %d from holding %s/%s with quantity %d", qty, h.AccountID, h.InstrumentID, h.Quantity)
	}
	h.Quantity -= qty
	return nil
}

// Empty reports whether the holding must be deleted.
func (h *Holding) Empty() bool {
	return h.Quantity == 0
}

// Clone returns a copy safe to mutate independently.
func (h *Holding) Clone() *Holding {
	c := *h
	return &c
}
