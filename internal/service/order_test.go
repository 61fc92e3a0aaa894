package service

import (
	"context"
	"errors"
	"testing"

	"github.com/efreitasn/stockmatch/internal/domain"
)

func setupMarket(t *testing.T) *testServices {
	t.Helper()
	s := newTestServices(t)
	s.mustCreateInstrument(t, "ACME", "Acme Corp")
	ctx := context.Background()
	if _, err := s.accounts.Register(ctx, RegisterAccountRequest{AccountID: "buyer"}); err != nil {
		t.Fatalf("Register(buyer): %v", err)
	}
	if _, err := s.accounts.Register(ctx, RegisterAccountRequest{
		AccountID:       "seller",
		InitialHoldings: []HoldingInput{{InstrumentID: "ACME", Quantity: 1000}},
	}); err != nil {
		t.Fatalf("Register(seller): %v", err)
	}
	return s
}

func TestSubmit_MatchesAndLists(t *testing.T) {
	s := setupMarket(t)
	ctx := context.Background()

	if _, err := s.orders.Submit(ctx, SubmitOrderRequest{
		AccountID: "buyer", InstrumentID: "ACME", Side: "buy", Price: "100", Quantity: 1000,
	}); err != nil {
		t.Fatalf("Submit(buy): %v", err)
	}
	res, err := s.orders.Submit(ctx, SubmitOrderRequest{
		AccountID: "seller", InstrumentID: "ACME", Side: "SELL", Price: "100.00", Quantity: 600,
	})
	if err != nil {
		t.Fatalf("Submit(sell): %v", err)
	}
	if len(res.Trades) != 1 || res.Trades[0].Quantity != 600 {
		t.Fatalf("expected one fill of 600, got %+v", res.Trades)
	}

	open, err := s.orders.ListOrders(ctx, "buyer", "open")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(open) != 1 || open[0].Status != domain.OrderStatusPartial {
		t.Errorf("open orders = %+v, want one PARTIAL", open)
	}
	all, _ := s.orders.ListOrders(ctx, "seller", "")
	if len(all) != 1 || all[0].Status != domain.OrderStatusCompleted {
		t.Errorf("seller orders = %+v, want one COMPLETED", all)
	}

	holdings, _ := s.orders.Holdings(ctx, "buyer")
	if len(holdings) != 1 || holdings[0].Quantity != 600 {
		t.Errorf("buyer holdings = %+v, want 600 ACME", holdings)
	}
	trades, _ := s.orders.Trades(ctx, "seller")
	if len(trades) != 1 {
		t.Errorf("seller trades = %d, want 1", len(trades))
	}
	got, err := s.orders.Get(ctx, res.Order.OrderID)
	if err != nil || got.Status != domain.OrderStatusCompleted {
		t.Errorf("Get(sell) = %+v, %v", got, err)
	}
}

func TestSubmit_InvalidInput(t *testing.T) {
	s := setupMarket(t)
	tests := []struct {
		name       string
		req        SubmitOrderRequest
		wantParams bool
	}{
		{"bad account", SubmitOrderRequest{AccountID: "", InstrumentID: "ACME", Side: "buy", Price: "1", Quantity: 1}, false},
		{"bad instrument", SubmitOrderRequest{AccountID: "buyer", InstrumentID: "acme", Side: "buy", Price: "1", Quantity: 1}, false},
		{"bad side", SubmitOrderRequest{AccountID: "buyer", InstrumentID: "ACME", Side: "hold", Price: "1", Quantity: 1}, true},
		{"bad price", SubmitOrderRequest{AccountID: "buyer", InstrumentID: "ACME", Side: "buy", Price: "abc", Quantity: 1}, true},
		{"price precision", SubmitOrderRequest{AccountID: "buyer", InstrumentID: "ACME", Side: "buy", Price: "1.001", Quantity: 1}, true},
		{"zero price", SubmitOrderRequest{AccountID: "buyer", InstrumentID: "ACME", Side: "buy", Price: "0", Quantity: 1}, true},
		{"negative quantity", SubmitOrderRequest{AccountID: "buyer", InstrumentID: "ACME", Side: "buy", Price: "1", Quantity: -5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.orders.Submit(context.Background(), tt.req)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if got := errors.Is(err, domain.ErrInvalidOrderParameters); got != tt.wantParams {
				t.Errorf("errors.Is(ErrInvalidOrderParameters) = %v, want %v", got, tt.wantParams)
			}
		})
	}
}

func TestListOrders_UnknownStatus(t *testing.T) {
	s := setupMarket(t)
	_, err := s.orders.ListOrders(context.Background(), "buyer", "done")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRematch_CompletedOrderIsNoop(t *testing.T) {
	s := setupMarket(t)
	ctx := context.Background()
	if _, err := s.orders.Submit(ctx, SubmitOrderRequest{AccountID: "seller", InstrumentID: "ACME", Side: "sell", Price: "10", Quantity: 1}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res, err := s.orders.Submit(ctx, SubmitOrderRequest{AccountID: "buyer", InstrumentID: "ACME", Side: "buy", Price: "10", Quantity: 1})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	again, err := s.orders.Rematch(ctx, res.Order.OrderID)
	if err != nil {
		t.Fatalf("Rematch: %v", err)
	}
	if len(again.Trades) != 0 || again.Order.Status != domain.OrderStatusCompleted {
		t.Errorf("Rematch = %d trades status %s, want 0 COMPLETED", len(again.Trades), again.Order.Status)
	}
}
