package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Monetary values are int64 cents throughout the core. Strings cross the
// API boundary in fixed-point form ("148.50").

var maxCents = decimal.NewFromInt(math.MaxInt64)

// ParseMoney converts a fixed-point string to cents. It rejects values
// with more than two decimal places and values that do not fit in int64.
func ParseMoney(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid monetary value %q", s)
	}
	if !d.Equal(d.Truncate(2)) {
		return 0, fmt.Errorf("monetary values must have at most 2 decimal places")
	}
	cents := d.Shift(2)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, s)
	}
	return cents.IntPart(), nil
}

// FormatMoney renders cents as a fixed-point string with two decimals.
func FormatMoney(c int64) string {
	return decimal.New(c, -2).StringFixed(2)
}

// Notional returns price × quantity in cents, failing on int64 overflow.
func Notional(price, quantity int64) (int64, error) {
	if price < 0 || quantity < 0 {
		return 0, fmt.Errorf("%w: negative notional operand", ErrAmountOverflow)
	}
	if quantity != 0 && price > math.MaxInt64/quantity {
		return 0, fmt.Errorf("%w: %d x %d", ErrAmountOverflow, price, quantity)
	}
	return price * quantity, nil
}

// WeightedAverage returns the quantity-weighted mean of an existing
// position and a new purchase, rounded half-to-even to the cent.
func WeightedAverage(heldQty, heldAvg, addQty, addPrice int64) int64 {
	total := decimal.NewFromInt(heldQty + addQty)
	if total.IsZero() {
		return 0
	}
	value := decimal.NewFromInt(heldQty).Mul(decimal.NewFromInt(heldAvg)).
		Add(decimal.NewFromInt(addQty).Mul(decimal.NewFromInt(addPrice)))
	return value.Div(total).RoundBank(0).IntPart()
}
