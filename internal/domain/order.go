package domain

import (
	"fmt"
	"strings"
	"time"
)

// Side is the tagged variant for the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("side must be %q or %q", SideBuy, SideSell)
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPartial   OrderStatus = "PARTIAL"
	OrderStatusCompleted OrderStatus = "COMPLETED"
)

// Open reports whether an order in this status may still be matched.
func (s OrderStatus) Open() bool {
	return s == OrderStatusPending || s == OrderStatusPartial
}

// StatusFor derives the status implied by an order's quantities.
func StatusFor(quantity, remaining int64) OrderStatus {
	switch {
	case remaining == 0:
		return OrderStatusCompleted
	case remaining == quantity:
		return OrderStatusPending
	default:
		return OrderStatusPartial
	}
}

// Order is a limit instruction to buy or sell an instrument.
// Sequence is the arrival position assigned when the order is persisted
// and breaks ties between orders at the same price.
type Order struct {
	OrderID           string
	AccountID         string
	InstrumentID      string
	Side              Side
	Price             int64 // cents
	Quantity          int64
	RemainingQuantity int64
	Status            OrderStatus
	Sequence          int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FilledQuantity returns how much of the order has executed.
func (o *Order) FilledQuantity() int64 {
	return o.Quantity - o.RemainingQuantity
}

// Fill decrements the remaining quantity and advances the status.
func (o *Order) Fill(qty int64) error {
	if !o.Status.Open() {
		return invariantf("fill on %s order %s", o.Status, o.OrderID)
	}
	if qty <= 0 || qty > o.RemainingQuantity {
		return invariantf("fill of %d exceeds remaining %d on order %s", qty, o.RemainingQuantity, o.OrderID)
	}
	o.RemainingQuantity -= qty
	o.Status = StatusFor(o.Quantity, o.RemainingQuantity)
	return nil
}

// CheckConsistency verifies the status agrees with the remaining quantity.
func (o *Order) CheckConsistency() error {
	if o.RemainingQuantity < 0 || o.RemainingQuantity > o.Quantity {
		return invariantf("order %s remaining %d outside [0, %d]", o.OrderID, o.RemainingQuantity, o.Quantity)
	}
	if want := StatusFor(o.Quantity, o.RemainingQuantity); o.Status != want {
		return invariantf("order %s status %s, want %s", o.OrderID, o.Status, want)
	}
	return nil
}

// Clone returns a shallow copy safe to mutate independently.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
