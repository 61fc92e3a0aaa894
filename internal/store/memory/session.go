package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/efreitasn/stockmatch/internal/book"
	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

var errSessionReleased = errors.New("matching session already released")

type session struct {
	ledger       *Ledger
	instrumentID string
	book         *book.Book
	released     bool
}

// OpenSession takes the instrument's matching lock.
func (l *Ledger) OpenSession(ctx context.Context, instrumentID string) (store.Session, error) {
	if _, err := l.GetInstrument(ctx, instrumentID); err != nil {
		return nil, err
	}
	if err := l.instrumentLocks.acquire(ctx, instrumentID); err != nil {
		return nil, err
	}
	return &session{
		ledger:       l,
		instrumentID: instrumentID,
		book:         l.books.GetOrCreate(instrumentID),
	}, nil
}

func (s *session) Release() {
	if s.released {
		return
	}
	s.released = true
	s.ledger.instrumentLocks.release(s.instrumentID)
}

// Tx runs fn against a staging area and applies it when fn succeeds.
// Account locks taken inside fn are released when Tx returns.
func (s *session) Tx(ctx context.Context, fn func(store.Tx) error) error {
	if s.released {
		return errSessionReleased
	}
	tx := &memTx{
		session:  s,
		accounts: make(map[string]*domain.Account),
		holdings: make(map[holdingKey]*domain.Holding),
		orders:   make(map[string]*domain.Order),
	}
	defer tx.unlock()

	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTx struct {
	session  *session
	locked   []string
	accounts map[string]*domain.Account
	holdings map[holdingKey]*domain.Holding // nil value marks a deletion
	orders   map[string]*domain.Order
	created  []string
	trades   []*domain.Trade
}

var _ store.Tx = (*memTx)(nil)

func (tx *memTx) unlock() {
	for _, id := range tx.locked {
		tx.session.ledger.accountLocks.release(id)
	}
	tx.locked = nil
}

func (tx *memTx) LockAccounts(ctx context.Context, accountIDs ...string) (map[string]*domain.Account, error) {
	ids := slices.Clone(accountIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	l := tx.session.ledger
	result := make(map[string]*domain.Account, len(ids))
	for _, id := range ids {
		if a, ok := tx.accounts[id]; ok {
			result[id] = a.Clone()
			continue
		}
		a, err := l.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := l.accountLocks.acquire(ctx, id); err != nil {
			return nil, err
		}
		tx.locked = append(tx.locked, id)
		// Re-read under the lock; a concurrent unit may have committed.
		if a, err = l.GetAccount(ctx, id); err != nil {
			return nil, err
		}
		tx.accounts[id] = a
		result[id] = a.Clone()
	}
	return result, nil
}

func (tx *memTx) requireLocked(accountID string) error {
	if _, ok := tx.accounts[accountID]; !ok {
		return fmt.Errorf("%w: account %s used without lock", domain.ErrInvariantViolation, accountID)
	}
	return nil
}

func (tx *memTx) UpdateAccount(_ context.Context, a *domain.Account) error {
	if err := tx.requireLocked(a.AccountID); err != nil {
		return err
	}
	if a.CashBalance < 0 {
		return fmt.Errorf("%w: account %s balance %d", domain.ErrInvariantViolation, a.AccountID, a.CashBalance)
	}
	tx.accounts[a.AccountID] = a.Clone()
	return nil
}

func (tx *memTx) Holding(_ context.Context, accountID, instrumentID string) (*domain.Holding, error) {
	if err := tx.requireLocked(accountID); err != nil {
		return nil, err
	}
	key := holdingKey{accountID, instrumentID}
	if h, staged := tx.holdings[key]; staged {
		if h == nil {
			return nil, domain.ErrHoldingNotFound
		}
		return h.Clone(), nil
	}

	l := tx.session.ledger
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.holdings[key]
	if !ok {
		return nil, domain.ErrHoldingNotFound
	}
	return h.Clone(), nil
}

func (tx *memTx) PutHolding(_ context.Context, h *domain.Holding) error {
	if err := tx.requireLocked(h.AccountID); err != nil {
		return err
	}
	if h.Quantity <= 0 {
		return fmt.Errorf("%w: holding %s/%s quantity %d", domain.ErrInvariantViolation, h.AccountID, h.InstrumentID, h.Quantity)
	}
	tx.holdings[holdingKey{h.AccountID, h.InstrumentID}] = h.Clone()
	return nil
}

func (tx *memTx) DeleteHolding(_ context.Context, accountID, instrumentID string) error {
	if err := tx.requireLocked(accountID); err != nil {
		return err
	}
	tx.holdings[holdingKey{accountID, instrumentID}] = nil
	return nil
}

func (tx *memTx) InsertOrder(_ context.Context, o *domain.Order) error {
	if o.InstrumentID != tx.session.instrumentID {
		return fmt.Errorf("%w: order for %s in %s session", domain.ErrInvariantViolation, o.InstrumentID, tx.session.instrumentID)
	}
	if err := o.CheckConsistency(); err != nil {
		return err
	}
	o.Sequence = tx.session.ledger.orderSeq.Add(1)
	tx.orders[o.OrderID] = o.Clone()
	tx.created = append(tx.created, o.OrderID)
	return nil
}

func (tx *memTx) LockOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if o, ok := tx.orders[orderID]; ok {
		return o.Clone(), nil
	}
	o, err := tx.session.ledger.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.InstrumentID != tx.session.instrumentID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// BestCounterOrder takes the head of the book when it crosses, walking
// past orders this unit already closed.
func (tx *memTx) BestCounterOrder(ctx context.Context, side domain.Side, limit int64) (*domain.Order, error) {
	head, ok := tx.session.book.BestCrossing(side, limit)
	if !ok {
		return nil, nil
	}
	if !tx.closed(head.OrderID) {
		return tx.LockOrder(ctx, head.OrderID)
	}

	priority := domain.PriceTimePriority{Side: side}
	var found string
	tx.session.book.Walk(side, func(e book.Entry) bool {
		if !priority.Crosses(e.Price, limit) {
			return false
		}
		if tx.closed(e.OrderID) {
			return true
		}
		found = e.OrderID
		return false
	})
	if found == "" {
		return nil, nil
	}
	return tx.LockOrder(ctx, found)
}

// closed reports whether the order was completed earlier in this unit and
// is still on the committed book.
func (tx *memTx) closed(orderID string) bool {
	staged, ok := tx.orders[orderID]
	return ok && !staged.Status.Open()
}

func (tx *memTx) UpdateOrder(ctx context.Context, o *domain.Order) error {
	if _, err := tx.LockOrder(ctx, o.OrderID); err != nil {
		return err
	}
	if err := o.CheckConsistency(); err != nil {
		return err
	}
	tx.orders[o.OrderID] = o.Clone()
	return nil
}

func (tx *memTx) InsertTrade(_ context.Context, t *domain.Trade) error {
	t.Sequence = tx.session.ledger.tradeSeq.Add(1)
	c := *t
	tx.trades = append(tx.trades, &c)
	return nil
}

func (tx *memTx) commit() {
	l := tx.session.ledger
	l.mu.Lock()
	for id, a := range tx.accounts {
		l.accounts[id] = a
	}
	for k, h := range tx.holdings {
		if h == nil {
			delete(l.holdings, k)
			continue
		}
		l.holdings[k] = h
	}
	for id, o := range tx.orders {
		l.orders[id] = o
	}
	for _, id := range tx.created {
		o := l.orders[id]
		l.accountOrders[o.AccountID] = append(l.accountOrders[o.AccountID], id)
	}
	for _, t := range tx.trades {
		l.trades[t.InstrumentID] = append(l.trades[t.InstrumentID], t)
		l.accountTrades[t.BuyerID] = append(l.accountTrades[t.BuyerID], t)
		if t.SellerID != t.BuyerID {
			l.accountTrades[t.SellerID] = append(l.accountTrades[t.SellerID], t)
		}
	}
	l.mu.Unlock()

	for _, o := range tx.orders {
		tx.session.book.Apply(o)
	}
}
