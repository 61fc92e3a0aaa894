// Package memory implements store.Ledger in process memory. Writes made
// inside a session transaction are staged and applied on commit, so a
// failed unit leaves no trace.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/efreitasn/stockmatch/internal/book"
	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

type holdingKey struct {
	accountID    string
	instrumentID string
}

// Ledger is a thread-safe in-memory store.Ledger.
type Ledger struct {
	mu            sync.RWMutex
	accounts      map[string]*domain.Account
	instruments   map[string]*domain.Instrument
	names         map[string]string // lower(name) → instrument_id
	orders        map[string]*domain.Order
	accountOrders map[string][]string // account_id → order ids (arrival order)
	holdings      map[holdingKey]*domain.Holding
	trades        map[string][]*domain.Trade // instrument_id → trades (chronological)
	accountTrades map[string][]*domain.Trade // account_id → trades (chronological)

	books           *book.Set
	instrumentLocks *lockSet
	accountLocks    *lockSet
	orderSeq        atomic.Int64
	tradeSeq        atomic.Int64
}

var _ store.Ledger = (*Ledger)(nil)

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		accounts:        make(map[string]*domain.Account),
		instruments:     make(map[string]*domain.Instrument),
		names:           make(map[string]string),
		orders:          make(map[string]*domain.Order),
		accountOrders:   make(map[string][]string),
		holdings:        make(map[holdingKey]*domain.Holding),
		trades:          make(map[string][]*domain.Trade),
		accountTrades:   make(map[string][]*domain.Trade),
		books:           book.NewSet(),
		instrumentLocks: newLockSet(),
		accountLocks:    newLockSet(),
	}
}

func (l *Ledger) Ping(context.Context) error { return nil }

func (l *Ledger) Close() {}

// CreateAccount adds an account with its seed holdings.
func (l *Ledger) CreateAccount(_ context.Context, a *domain.Account, holdings []*domain.Holding) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.accounts[a.AccountID]; exists {
		return domain.ErrAccountAlreadyExists
	}
	for _, h := range holdings {
		if _, ok := l.instruments[h.InstrumentID]; !ok {
			return domain.ErrInstrumentNotFound
		}
		if h.Quantity <= 0 {
			return &domain.ValidationError{Message: "holding quantity must be > 0"}
		}
	}
	l.accounts[a.AccountID] = a.Clone()
	for _, h := range holdings {
		l.holdings[holdingKey{a.AccountID, h.InstrumentID}] = h.Clone()
	}
	return nil
}

// GetAccount returns a snapshot of the account.
func (l *Ledger) GetAccount(_ context.Context, accountID string) (*domain.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

// CreateInstrument adds an instrument to the catalog.
func (l *Ledger) CreateInstrument(_ context.Context, in *domain.Instrument) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	name := strings.ToLower(in.Name)
	if _, exists := l.instruments[in.InstrumentID]; exists {
		return domain.ErrInstrumentAlreadyExists
	}
	if _, exists := l.names[name]; exists {
		return domain.ErrInstrumentAlreadyExists
	}
	c := *in
	l.instruments[in.InstrumentID] = &c
	l.names[name] = in.InstrumentID
	return nil
}

// GetInstrument returns a snapshot of the instrument.
func (l *Ledger) GetInstrument(_ context.Context, instrumentID string) (*domain.Instrument, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	in, ok := l.instruments[instrumentID]
	if !ok {
		return nil, domain.ErrInstrumentNotFound
	}
	c := *in
	return &c, nil
}

// ListInstruments returns all instruments ordered by ID.
func (l *Ledger) ListInstruments(_ context.Context) ([]*domain.Instrument, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.collectInstruments(func(*domain.Instrument) bool { return true }), nil
}

// SearchInstruments matches the ID exactly or the name by prefix,
// ignoring case on the name.
func (l *Ledger) SearchInstruments(_ context.Context, query string) ([]*domain.Instrument, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prefix := strings.ToLower(query)
	return l.collectInstruments(func(in *domain.Instrument) bool {
		return in.InstrumentID == query || strings.HasPrefix(strings.ToLower(in.Name), prefix)
	}), nil
}

func (l *Ledger) collectInstruments(keep func(*domain.Instrument) bool) []*domain.Instrument {
	result := make([]*domain.Instrument, 0, len(l.instruments))
	for _, in := range l.instruments {
		if keep(in) {
			c := *in
			result = append(result, &c)
		}
	}
	slices.SortFunc(result, func(a, b *domain.Instrument) int {
		return strings.Compare(a.InstrumentID, b.InstrumentID)
	})
	return result
}

// SetReferencePrice records an externally computed reference price.
func (l *Ledger) SetReferencePrice(_ context.Context, instrumentID string, price int64, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	in, ok := l.instruments[instrumentID]
	if !ok {
		return domain.ErrInstrumentNotFound
	}
	in.ReferencePrice = price
	in.UpdatedAt = at
	return nil
}

// GetOrder returns a snapshot of the order.
func (l *Ledger) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	o, ok := l.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// ListOrders returns the account's orders newest first.
func (l *Ledger) ListOrders(_ context.Context, accountID string, openOnly bool) ([]*domain.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := l.accountOrders[accountID]
	result := make([]*domain.Order, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		o := l.orders[ids[i]]
		if openOnly && !o.Status.Open() {
			continue
		}
		result = append(result, o.Clone())
	}
	return result, nil
}

// ListHoldings returns the account's holdings ordered by instrument.
func (l *Ledger) ListHoldings(_ context.Context, accountID string) ([]*domain.Holding, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*domain.Holding, 0)
	for k, h := range l.holdings {
		if k.accountID == accountID {
			result = append(result, h.Clone())
		}
	}
	slices.SortFunc(result, func(a, b *domain.Holding) int {
		return strings.Compare(a.InstrumentID, b.InstrumentID)
	})
	return result, nil
}

// ListTrades returns the account's trades newest first.
func (l *Ledger) ListTrades(_ context.Context, accountID string) ([]*domain.Trade, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	trades := l.accountTrades[accountID]
	result := make([]*domain.Trade, 0, len(trades))
	for i := len(trades) - 1; i >= 0; i-- {
		c := *trades[i]
		result = append(result, &c)
	}
	return result, nil
}

// TradesSince returns the instrument's trades executed at or after since.
func (l *Ledger) TradesSince(_ context.Context, instrumentID string, since time.Time) ([]*domain.Trade, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*domain.Trade, 0)
	for _, t := range l.trades[instrumentID] {
		if t.ExecutedAt.Before(since) {
			continue
		}
		c := *t
		result = append(result, &c)
	}
	return result, nil
}

// LastTrade returns the instrument's most recent trade, or nil.
func (l *Ledger) LastTrade(_ context.Context, instrumentID string) (*domain.Trade, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	trades := l.trades[instrumentID]
	if len(trades) == 0 {
		return nil, nil
	}
	c := *trades[len(trades)-1]
	return &c, nil
}
