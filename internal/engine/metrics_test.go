package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/efreitasn/stockmatch/internal/domain"
)

func TestMetrics_CountAdmissionsRejectionsAndTrades(t *testing.T) {
	e, l := newTestEngine(t)
	registerAccount(t, l, "buyer", cash100k, nil)
	registerAccount(t, l, "seller", 0, map[string]int64{"ACME": 10})

	mustAdmit(t, e, limit("seller", "ACME", domain.SideSell, price100, 10))
	mustAdmit(t, e, limit("buyer", "ACME", domain.SideBuy, price100, 4))
	_, _ = e.AdmitOrder(context.Background(), limit("buyer", "ACME", domain.SideSell, price100, 5))

	if got := testutil.ToFloat64(e.metrics.ordersAdmitted.WithLabelValues("SELL")); got != 1 {
		t.Errorf("orders_admitted_total{side=SELL} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.metrics.ordersAdmitted.WithLabelValues("BUY")); got != 1 {
		t.Errorf("orders_admitted_total{side=BUY} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.metrics.ordersRejected.WithLabelValues("insufficient_position")); got != 1 {
		t.Errorf("orders_rejected_total{reason=insufficient_position} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.metrics.tradesExecuted); got != 1 {
		t.Errorf("trades_executed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.metrics.quantityTraded); got != 4 {
		t.Errorf("quantity_traded_total = %v, want 4", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("stockmatch")
	m.tradesExecuted.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "stockmatch_trades_executed_total 1") {
		t.Errorf("exposition missing trades counter:\n%s", rec.Body.String())
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&domain.ShortfallError{Kind: domain.ErrNoPosition}, "no_position"},
		{&domain.ValidationError{Message: "x"}, "invalid_order_parameters"},
		{domain.ErrLockTimeout, "lock_timeout"},
		{context.Canceled, "internal"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
