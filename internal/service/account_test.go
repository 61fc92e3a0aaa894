package service

import (
	"context"
	"errors"
	"testing"

	"github.com/efreitasn/stockmatch/internal/domain"
)

func TestRegister_DefaultCash(t *testing.T) {
	s := newTestServices(t)

	snap, err := s.accounts.Register(context.Background(), RegisterAccountRequest{AccountID: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Account.CashBalance != 10000000 {
		t.Errorf("got cash_balance %d, want %d", snap.Account.CashBalance, 10000000)
	}
	if snap.Account.Name != "alice" {
		t.Errorf("got name %q, want account id as fallback", snap.Account.Name)
	}
}

func TestRegister_WithCashAndHoldings(t *testing.T) {
	s := newTestServices(t)
	s.mustCreateInstrument(t, "ACME", "Acme Corp")
	ctx := context.Background()

	_, err := s.accounts.Register(ctx, RegisterAccountRequest{
		AccountID:   "bob",
		Name:        "Bob",
		InitialCash: strPtr("1000.50"),
		InitialHoldings: []HoldingInput{
			{InstrumentID: "ACME", Quantity: 100, AveragePrice: "12.34"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := s.accounts.Snapshot(ctx, "bob")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Account.CashBalance != 100050 {
		t.Errorf("got cash_balance %d, want 100050", snap.Account.CashBalance)
	}
	if len(snap.Holdings) != 1 || snap.Holdings[0].Quantity != 100 || snap.Holdings[0].AveragePrice != 1234 {
		t.Errorf("got holdings %+v, want ACME 100 @ 1234", snap.Holdings)
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	s := newTestServices(t)
	s.mustCreateInstrument(t, "ACME", "Acme Corp")

	tests := []struct {
		name string
		req  RegisterAccountRequest
	}{
		{"bad id", RegisterAccountRequest{AccountID: "has space"}},
		{"empty id", RegisterAccountRequest{AccountID: ""}},
		{"negative cash", RegisterAccountRequest{AccountID: "a", InitialCash: strPtr("-1")}},
		{"cash precision", RegisterAccountRequest{AccountID: "a", InitialCash: strPtr("1.001")}},
		{"bad symbol", RegisterAccountRequest{AccountID: "a", InitialHoldings: []HoldingInput{{InstrumentID: "acme", Quantity: 1}}}},
		{"zero quantity", RegisterAccountRequest{AccountID: "a", InitialHoldings: []HoldingInput{{InstrumentID: "ACME", Quantity: 0}}}},
		{"duplicate holding", RegisterAccountRequest{AccountID: "a", InitialHoldings: []HoldingInput{
			{InstrumentID: "ACME", Quantity: 1}, {InstrumentID: "ACME", Quantity: 2},
		}}},
		{"bad average price", RegisterAccountRequest{AccountID: "a", InitialHoldings: []HoldingInput{{InstrumentID: "ACME", Quantity: 1, AveragePrice: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.accounts.Register(context.Background(), tt.req)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	if _, err := s.accounts.Register(ctx, RegisterAccountRequest{AccountID: "alice"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.accounts.Register(ctx, RegisterAccountRequest{AccountID: "alice"}); !errors.Is(err, domain.ErrAccountAlreadyExists) {
		t.Fatalf("expected ErrAccountAlreadyExists, got %v", err)
	}
}

func TestRegister_UnknownInstrumentHolding(t *testing.T) {
	s := newTestServices(t)
	_, err := s.accounts.Register(context.Background(), RegisterAccountRequest{
		AccountID:       "alice",
		InitialHoldings: []HoldingInput{{InstrumentID: "NOPE", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrInstrumentNotFound) {
		t.Fatalf("expected ErrInstrumentNotFound, got %v", err)
	}
}

func TestSnapshot_NotFound(t *testing.T) {
	s := newTestServices(t)
	if _, err := s.accounts.Snapshot(context.Background(), "ghost"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
