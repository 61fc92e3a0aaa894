package domain

import (
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"zero", "0", 0, false},
		{"whole dollars", "100", 10000, false},
		{"one decimal place", "1.5", 150, false},
		{"two decimal places", "148.50", 14850, false},
		{"small amount", "0.01", 1, false},
		{"large amount", "1000000.00", 100000000, false},
		{"negative value", "-50.25", -5025, false},
		{"trailing zeros beyond cents", "1.100", 110, false},
		{"three decimal places", "1.234", 0, true},
		{"many decimal places", "0.001", 0, true},
		{"not a number", "abc", 0, true},
		{"empty", "", 0, true},
		{"overflow", "99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseMoney(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseMoney(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("ParseMoney(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{100, "1.00"},
		{14850, "148.50"},
		{10000000, "100000.00"},
		{-5025, "-50.25"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.input); got != tt.want {
			t.Errorf("FormatMoney(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNotional(t *testing.T) {
	got, err := Notional(10000, 1000)
	if err != nil {
		t.Fatalf("Notional() error = %v", err)
	}
	if got != 10000000 {
		t.Errorf("Notional() = %d, want 10000000", got)
	}

	if _, err := Notional(1<<40, 1<<40); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("Notional() overflow error = %v, want ErrAmountOverflow", err)
	}
}

func TestWeightedAverage(t *testing.T) {
	tests := []struct {
		name                         string
		heldQty, heldAvg, qty, price int64
		want                         int64
	}{
		{"first purchase", 0, 0, 10, 10000, 10000},
		{"same price", 10, 10000, 10, 10000, 10000},
		{"exact mean", 100, 10000, 100, 12000, 11000},
		{"uneven weights", 300, 10000, 100, 14000, 11000},
		{"tie rounds to even down", 100, 1000, 100, 2001, 1500},
		{"tie rounds to even up", 1, 1000, 1, 1003, 1002},
		{"non-tie rounds nearest", 2, 1000, 1, 1001, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedAverage(tt.heldQty, tt.heldAvg, tt.qty, tt.price)
			if got != tt.want {
				t.Errorf("WeightedAverage(%d, %d, %d, %d) = %d, want %d",
					tt.heldQty, tt.heldAvg, tt.qty, tt.price, got, tt.want)
			}
		})
	}
}
