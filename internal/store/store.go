// Package store defines the persistence contracts of the matching core.
// Implementations live in the memory and postgres subpackages.
package store

import (
	"context"
	"time"

	"github.com/efreitasn/stockmatch/internal/domain"
)

// Accounts manages participant accounts.
type Accounts interface {
	// CreateAccount stores the account and its seed holdings atomically.
	// It returns domain.ErrAccountAlreadyExists on a duplicate ID.
	CreateAccount(ctx context.Context, a *domain.Account, holdings []*domain.Holding) error
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// Instruments manages the instrument catalog.
type Instruments interface {
	// CreateInstrument returns domain.ErrInstrumentAlreadyExists when the ID
	// or the case-folded name is taken.
	CreateInstrument(ctx context.Context, in *domain.Instrument) error
	GetInstrument(ctx context.Context, instrumentID string) (*domain.Instrument, error)
	ListInstruments(ctx context.Context) ([]*domain.Instrument, error)
	// SearchInstruments matches the ID exactly or the name by
	// case-insensitive prefix.
	SearchInstruments(ctx context.Context, query string) ([]*domain.Instrument, error)
	SetReferencePrice(ctx context.Context, instrumentID string, price int64, at time.Time) error
}

// Queries are read-only views used outside the matching path.
type Queries interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	// ListOrders returns the account's orders newest first.
	ListOrders(ctx context.Context, accountID string, openOnly bool) ([]*domain.Order, error)
	// ListHoldings returns the account's holdings ordered by instrument.
	ListHoldings(ctx context.Context, accountID string) ([]*domain.Holding, error)
	// ListTrades returns trades where the account bought or sold, newest first.
	ListTrades(ctx context.Context, accountID string) ([]*domain.Trade, error)
	// TradesSince returns the instrument's trades executed at or after
	// since, oldest first.
	TradesSince(ctx context.Context, instrumentID string, since time.Time) ([]*domain.Trade, error)
	// LastTrade returns the instrument's most recent trade, or nil when it
	// never traded.
	LastTrade(ctx context.Context, instrumentID string) (*domain.Trade, error)
}

// Matcher opens exclusive matching sessions per instrument.
type Matcher interface {
	// OpenSession blocks until the instrument's matching lock is held or
	// ctx is done, in which case it returns domain.ErrLockTimeout.
	OpenSession(ctx context.Context, instrumentID string) (Session, error)
}

// Ledger is the full durable store the engine runs on.
type Ledger interface {
	Accounts
	Instruments
	Queries
	Matcher
	Ping(ctx context.Context) error
	Close()
}

// Session holds one instrument's matching lock. Each Tx call is an atomic
// unit: its writes become visible when fn returns nil and are discarded
// otherwise.
type Session interface {
	Tx(ctx context.Context, fn func(Tx) error) error
	Release()
}

// Tx is the read-modify-write surface of a single atomic unit. Rows read
// through it are locked until the unit ends.
type Tx interface {
	// LockAccounts locks and returns the accounts keyed by ID. Locks are
	// taken in ascending ID order; duplicates are collapsed.
	LockAccounts(ctx context.Context, accountIDs ...string) (map[string]*domain.Account, error)
	UpdateAccount(ctx context.Context, a *domain.Account) error

	// Holding returns domain.ErrHoldingNotFound when there is no position.
	Holding(ctx context.Context, accountID, instrumentID string) (*domain.Holding, error)
	PutHolding(ctx context.Context, h *domain.Holding) error
	DeleteHolding(ctx context.Context, accountID, instrumentID string) error

	// InsertOrder assigns the order's arrival Sequence.
	InsertOrder(ctx context.Context, o *domain.Order) error
	// LockOrder returns the current state of an order of this session's
	// instrument.
	LockOrder(ctx context.Context, orderID string) (*domain.Order, error)
	// BestCounterOrder returns the best-ranked open order on side that
	// crosses limit, or nil when none is eligible.
	BestCounterOrder(ctx context.Context, side domain.Side, limit int64) (*domain.Order, error)
	UpdateOrder(ctx context.Context, o *domain.Order) error

	// InsertTrade assigns the trade's Sequence.
	InsertTrade(ctx context.Context, t *domain.Trade) error
}
