package domain

import (
	"errors"
	"testing"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		input   string
		want    Side
		wantErr bool
	}{
		{"BUY", SideBuy, false},
		{"buy", SideBuy, false},
		{" Sell ", SideSell, false},
		{"bid", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSide(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSide(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSide(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSide_Opposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell {
		t.Errorf("SideBuy.Opposite() = %q, want SELL", SideBuy.Opposite())
	}
	if SideSell.Opposite() != SideBuy {
		t.Errorf("SideSell.Opposite() = %q, want BUY", SideSell.Opposite())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		quantity, remaining int64
		want                OrderStatus
	}{
		{1000, 1000, OrderStatusPending},
		{1000, 400, OrderStatusPartial},
		{1000, 1, OrderStatusPartial},
		{1000, 0, OrderStatusCompleted},
		{1, 0, OrderStatusCompleted},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.quantity, tt.remaining); got != tt.want {
			t.Errorf("StatusFor(%d, %d) = %s, want %s", tt.quantity, tt.remaining, got, tt.want)
		}
	}
}

func newOpenOrder(qty int64) *Order {
	return &Order{
		OrderID:           "ord-1",
		Side:              SideBuy,
		Price:             10000,
		Quantity:          qty,
		RemainingQuantity: qty,
		Status:            OrderStatusPending,
	}
}

func TestOrder_Fill(t *testing.T) {
	o := newOpenOrder(1000)

	if err := o.Fill(600); err != nil {
		t.Fatalf("Fill(600) error = %v", err)
	}
	if o.RemainingQuantity != 400 || o.Status != OrderStatusPartial {
		t.Errorf("after Fill(600): remaining=%d status=%s, want 400 PARTIAL", o.RemainingQuantity, o.Status)
	}
	if o.FilledQuantity() != 600 {
		t.Errorf("FilledQuantity() = %d, want 600", o.FilledQuantity())
	}

	if err := o.Fill(400); err != nil {
		t.Fatalf("Fill(400) error = %v", err)
	}
	if o.RemainingQuantity != 0 || o.Status != OrderStatusCompleted {
		t.Errorf("after Fill(400): remaining=%d status=%s, want 0 COMPLETED", o.RemainingQuantity, o.Status)
	}
}

func TestOrder_FillRejectsInvalidQuantities(t *testing.T) {
	tests := []struct {
		name string
		qty  int64
	}{
		{"zero", 0},
		{"negative", -1},
		{"over remaining", 1001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOpenOrder(1000)
			err := o.Fill(tt.qty)
			if !errors.Is(err, ErrInvariantViolation) {
				t.Fatalf("Fill(%d) error = %v, want ErrInvariantViolation", tt.qty, err)
			}
			if o.RemainingQuantity != 1000 || o.Status != OrderStatusPending {
				t.Errorf("order mutated by rejected fill: remaining=%d status=%s", o.RemainingQuantity, o.Status)
			}
		})
	}
}

func TestOrder_FillCompletedOrder(t *testing.T) {
	o := newOpenOrder(1)
	if err := o.Fill(1); err != nil {
		t.Fatalf("Fill(1) error = %v", err)
	}
	if err := o.Fill(1); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("Fill on completed order error = %v, want ErrInvariantViolation", err)
	}
}

func TestOrder_CheckConsistency(t *testing.T) {
	o := newOpenOrder(10)
	if err := o.CheckConsistency(); err != nil {
		t.Errorf("CheckConsistency() on fresh order = %v", err)
	}
	o.RemainingQuantity = 0
	if err := o.CheckConsistency(); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("CheckConsistency() with stale status = %v, want ErrInvariantViolation", err)
	}
}
