package book

import (
	"sync"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/google/btree"
)

// Entry is one open order resting on a side of the book.
type Entry struct {
	domain.PriorityKey
	AccountID string
	Remaining int64
}

// EntryOf builds the book entry for an open order.
func EntryOf(o *domain.Order) Entry {
	return Entry{
		PriorityKey: domain.KeyOf(o),
		AccountID:   o.AccountID,
		Remaining:   o.RemainingQuantity,
	}
}

func lessFor(side domain.Side) btree.LessFunc[Entry] {
	p := domain.PriceTimePriority{Side: side}
	return func(a, b Entry) bool {
		return p.Less(a.PriorityKey, b.PriorityKey)
	}
}

type indexed struct {
	side  domain.Side
	entry Entry
}

// Book maintains the open BUY and SELL orders of a single instrument
// using B-trees ordered by price-time priority, with a secondary index for
// removal by order ID. Min() of either tree is the best-ranked order.
type Book struct {
	mu    sync.RWMutex
	bids  *btree.BTreeG[Entry]
	asks  *btree.BTreeG[Entry]
	index map[string]indexed
}

// New creates an empty book.
func New() *Book {
	const degree = 32
	return &Book{
		bids:  btree.NewG(degree, lessFor(domain.SideBuy)),
		asks:  btree.NewG(degree, lessFor(domain.SideSell)),
		index: make(map[string]indexed),
	}
}

func (b *Book) tree(side domain.Side) *btree.BTreeG[Entry] {
	if side == domain.SideBuy {
		return b.bids
	}
	return b.asks
}

// Apply reflects the current state of an order: open orders are inserted
// or refreshed, completed orders are removed.
func (b *Book) Apply(o *domain.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removeLocked(o.OrderID)
	if !o.Status.Open() || o.RemainingQuantity == 0 {
		return
	}
	e := EntryOf(o)
	b.tree(o.Side).ReplaceOrInsert(e)
	b.index[o.OrderID] = indexed{side: o.Side, entry: e}
}

func (b *Book) removeLocked(orderID string) {
	ix, ok := b.index[orderID]
	if !ok {
		return
	}
	delete(b.index, orderID)
	b.tree(ix.side).Delete(ix.entry)
}

// BestCrossing returns the best-ranked order on side that is compatible
// with an incoming order of the opposite side limited at limit. Since the
// tree is ranked by price, only the head needs checking.
func (b *Book) BestCrossing(side domain.Side, limit int64) (Entry, bool) {
	b.mu.RLock()
	e, ok := b.tree(side).Min()
	b.mu.RUnlock()
	if !ok || !(domain.PriceTimePriority{Side: side}).Crosses(e.Price, limit) {
		return Entry{}, false
	}
	return e, true
}

// Walk iterates side in priority order until fn returns false.
func (b *Book) Walk(side domain.Side, fn func(Entry) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	b.tree(side).Ascend(fn)
}

// Set is a thread-safe map of instrument ID to Book.
type Set struct {
	mu    sync.RWMutex
	books map[string]*Book
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{books: make(map[string]*Book)}
}

// GetOrCreate returns the book for the instrument, creating it if needed.
func (s *Set) GetOrCreate(instrumentID string) *Book {
	s.mu.RLock()
	b, ok := s.books[instrumentID]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.books[instrumentID]; ok {
		return b
	}
	b = New()
	s.books[instrumentID] = b
	return b
}
