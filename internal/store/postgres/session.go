package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

// sessionLockClass namespaces the instrument advisory locks.
const sessionLockClass int32 = 0x534d

var errSessionReleased = errors.New("matching session already released")

type session struct {
	conn         *pgxpool.Conn
	instrumentID string
	released     bool
}

// OpenSession pins a connection and takes the instrument's advisory lock on
// it. If the wait is abandoned the connection is closed instead of being
// returned to the pool, so a lock granted at the last moment cannot leak.
func (l *Ledger) OpenSession(ctx context.Context, instrumentID string) (store.Session, error) {
	if _, err := l.GetInstrument(ctx, instrumentID); err != nil {
		return nil, err
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, lockErr(ctx, "acquire connection for instrument "+instrumentID, err)
	}
	_, err = conn.Exec(ctx, `SELECT pg_advisory_lock($1, hashtext($2))`, sessionLockClass, instrumentID)
	if err != nil {
		discard(conn)
		return nil, lockErr(ctx, "instrument "+instrumentID, err)
	}
	return &session{conn: conn, instrumentID: instrumentID}, nil
}

// discard closes the underlying connection, dropping any session-level
// locks, and hands the dead connection back so the pool replaces it.
func discard(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = conn.Conn().Close(ctx)
	conn.Release()
}

func (s *session) Release() {
	if s.released {
		return
	}
	s.released = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.conn.Exec(ctx, `SELECT pg_advisory_unlock($1, hashtext($2))`, sessionLockClass, s.instrumentID); err != nil {
		discard(s.conn)
		return
	}
	s.conn.Release()
}

// Tx runs fn inside one database transaction on the session connection.
func (s *session) Tx(ctx context.Context, fn func(store.Tx) error) error {
	if s.released {
		return errSessionReleased
	}
	return pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		return fn(&pgTx{
			tx:           tx,
			instrumentID: s.instrumentID,
			locked:       make(map[string]bool),
		})
	})
}

type pgTx struct {
	tx           pgx.Tx
	instrumentID string
	locked       map[string]bool
}

var _ store.Tx = (*pgTx)(nil)

func (t *pgTx) LockAccounts(ctx context.Context, accountIDs ...string) (map[string]*domain.Account, error) {
	ids := slices.Clone(accountIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	rows, err := t.tx.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, lockErr(ctx, "accounts", err)
	}
	accounts, err := collect(rows, scanAccount)
	if err != nil {
		return nil, lockErr(ctx, "accounts", err)
	}
	if len(accounts) != len(ids) {
		return nil, domain.ErrAccountNotFound
	}

	result := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		t.locked[a.AccountID] = true
		result[a.AccountID] = a
	}
	return result, nil
}

func (t *pgTx) requireLocked(accountID string) error {
	if !t.locked[accountID] {
		return fmt.Errorf("%w: account %s used without lock", domain.ErrInvariantViolation, accountID)
	}
	return nil
}

func (t *pgTx) UpdateAccount(ctx context.Context, a *domain.Account) error {
	if err := t.requireLocked(a.AccountID); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx,
		`UPDATE accounts SET cash_balance = $2, updated_at = $3 WHERE id = $1`,
		a.AccountID, a.CashBalance, a.UpdatedAt)
	return checkErr(err)
}

func (t *pgTx) Holding(ctx context.Context, accountID, instrumentID string) (*domain.Holding, error) {
	if err := t.requireLocked(accountID); err != nil {
		return nil, err
	}
	h, err := scanHolding(t.tx.QueryRow(ctx,
		`SELECT `+holdingColumns+` FROM holdings
		WHERE account_id = $1 AND instrument_id = $2 FOR UPDATE`, accountID, instrumentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrHoldingNotFound
	}
	if err != nil {
		return nil, lockErr(ctx, "holding "+accountID+"/"+instrumentID, err)
	}
	return h, nil
}

func (t *pgTx) PutHolding(ctx context.Context, h *domain.Holding) error {
	if err := t.requireLocked(h.AccountID); err != nil {
		return err
	}
	if h.Quantity <= 0 {
		return fmt.Errorf("%w: holding %s/%s quantity %d", domain.ErrInvariantViolation, h.AccountID, h.InstrumentID, h.Quantity)
	}
	_, err := t.tx.Exec(ctx,
		`INSERT INTO holdings (`+holdingColumns+`) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, instrument_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, average_price = EXCLUDED.average_price, updated_at = EXCLUDED.updated_at`,
		h.AccountID, h.InstrumentID, h.Quantity, h.AveragePrice, h.UpdatedAt)
	return checkErr(err)
}

func (t *pgTx) DeleteHolding(ctx context.Context, accountID, instrumentID string) error {
	if err := t.requireLocked(accountID); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx,
		`DELETE FROM holdings WHERE account_id = $1 AND instrument_id = $2`, accountID, instrumentID)
	return err
}

func (t *pgTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	if o.InstrumentID != t.instrumentID {
		return fmt.Errorf("%w: order for %s in %s session", domain.ErrInvariantViolation, o.InstrumentID, t.instrumentID)
	}
	if err := o.CheckConsistency(); err != nil {
		return err
	}
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders (id, account_id, instrument_id, side, price, quantity, remaining_quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq`,
		o.OrderID, o.AccountID, o.InstrumentID, string(o.Side), o.Price, o.Quantity,
		o.RemainingQuantity, string(o.Status), o.CreatedAt, o.UpdatedAt,
	).Scan(&o.Sequence)
	return checkErr(err)
}

func (t *pgTx) LockOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND instrument_id = $2 FOR UPDATE`,
		orderID, t.instrumentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, lockErr(ctx, "order "+orderID, err)
	}
	return o, nil
}

// bestCounterQueries rank the open orders of one side by price priority
// then arrival, matching PriceTimePriority.
var bestCounterQueries = map[domain.Side]string{
	domain.SideSell: `SELECT ` + orderColumns + ` FROM orders
		WHERE instrument_id = $1 AND side = 'SELL' AND status IN ('PENDING', 'PARTIAL') AND price <= $2
		ORDER BY price ASC, seq ASC, id ASC
		LIMIT 1 FOR UPDATE`,
	domain.SideBuy: `SELECT ` + orderColumns + ` FROM orders
		WHERE instrument_id = $1 AND side = 'BUY' AND status IN ('PENDING', 'PARTIAL') AND price >= $2
		ORDER BY price DESC, seq ASC, id ASC
		LIMIT 1 FOR UPDATE`,
}

func (t *pgTx) BestCounterOrder(ctx context.Context, side domain.Side, limit int64) (*domain.Order, error) {
	query, ok := bestCounterQueries[side]
	if !ok {
		return nil, fmt.Errorf("%w: unknown side %q", domain.ErrInvariantViolation, side)
	}
	o, err := scanOrder(t.tx.QueryRow(ctx, query, t.instrumentID, limit))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, lockErr(ctx, "best "+string(side)+" order", err)
	}
	return o, nil
}

func (t *pgTx) UpdateOrder(ctx context.Context, o *domain.Order) error {
	if err := o.CheckConsistency(); err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE orders SET remaining_quantity = $2, status = $3, updated_at = $4
		WHERE id = $1 AND instrument_id = $5`,
		o.OrderID, o.RemainingQuantity, string(o.Status), o.UpdatedAt, t.instrumentID)
	if err != nil {
		return checkErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (t *pgTx) InsertTrade(ctx context.Context, tr *domain.Trade) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO trades (id, instrument_id, buy_order_id, sell_order_id, buyer_id, seller_id, price, quantity, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`,
		tr.TradeID, tr.InstrumentID, tr.BuyOrderID, tr.SellOrderID, tr.BuyerID, tr.SellerID,
		tr.Price, tr.Quantity, tr.ExecutedAt,
	).Scan(&tr.Sequence)
	return checkErr(err)
}
