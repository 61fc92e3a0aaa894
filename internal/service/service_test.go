package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/efreitasn/stockmatch/internal/engine"
	"github.com/efreitasn/stockmatch/internal/store/memory"
)

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type testServices struct {
	ledger      *memory.Ledger
	accounts    *AccountService
	instruments *InstrumentService
	orders      *OrderService
	logger      *slog.Logger
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	ledger := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := engine.New(ledger, engine.NewMetrics("test"), logger, time.Second)
	s := &testServices{
		ledger:      ledger,
		accounts:    NewAccountService(ledger, ledger, 10000000),
		instruments: NewInstrumentService(ledger),
		orders:      NewOrderService(e),
		logger:      logger,
	}
	s.accounts.now = func() time.Time { return baseTime }
	s.instruments.now = func() time.Time { return baseTime }
	return s
}

func (s *testServices) mustCreateInstrument(t *testing.T, id, name string) {
	t.Helper()
	if _, err := s.instruments.Create(context.Background(), CreateInstrumentRequest{InstrumentID: id, Name: name}); err != nil {
		t.Fatalf("Create(%s): %v", id, err)
	}
}

func strPtr(s string) *string { return &s }
