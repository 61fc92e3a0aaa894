package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

// Ledger is a PostgreSQL-backed store.Ledger.
type Ledger struct {
	pool *pgxpool.Pool
}

var _ store.Ledger = (*Ledger)(nil)

// New wraps a pool whose database has been migrated with MigrateUp.
func New(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

func (l *Ledger) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

func (l *Ledger) Close() {
	l.pool.Close()
}

// CreateAccount inserts the account and its seed holdings in one
// transaction.
func (l *Ledger) CreateAccount(ctx context.Context, a *domain.Account, holdings []*domain.Holding) error {
	for _, h := range holdings {
		if h.Quantity <= 0 {
			return &domain.ValidationError{Message: "holding quantity must be > 0"}
		}
	}

	return pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5)`,
			a.AccountID, a.Name, a.CashBalance, a.CreatedAt, a.UpdatedAt)
		if pgCode(err) == codeUniqueViolation {
			return domain.ErrAccountAlreadyExists
		}
		if err != nil {
			return err
		}

		for _, h := range holdings {
			_, err := tx.Exec(ctx,
				`INSERT INTO holdings (`+holdingColumns+`) VALUES ($1, $2, $3, $4, $5)`,
				a.AccountID, h.InstrumentID, h.Quantity, h.AveragePrice, h.UpdatedAt)
			if pgCode(err) == codeForeignKeyViolation {
				return domain.ErrInstrumentNotFound
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Ledger) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	a, err := scanAccount(l.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	return a, err
}

// CreateInstrument relies on the primary key and the unique index on
// lower(name) to reject duplicates.
func (l *Ledger) CreateInstrument(ctx context.Context, in *domain.Instrument) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO instruments (`+instrumentColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		in.InstrumentID, in.Name, in.ReferencePrice, in.CreatedAt, in.UpdatedAt)
	if pgCode(err) == codeUniqueViolation {
		return domain.ErrInstrumentAlreadyExists
	}
	return err
}

func (l *Ledger) GetInstrument(ctx context.Context, instrumentID string) (*domain.Instrument, error) {
	in, err := scanInstrument(l.pool.QueryRow(ctx,
		`SELECT `+instrumentColumns+` FROM instruments WHERE id = $1`, instrumentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInstrumentNotFound
	}
	return in, err
}

func (l *Ledger) ListInstruments(ctx context.Context) ([]*domain.Instrument, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+instrumentColumns+` FROM instruments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInstrument)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (l *Ledger) SearchInstruments(ctx context.Context, query string) ([]*domain.Instrument, error) {
	prefix := likeEscaper.Replace(strings.ToLower(query)) + "%"
	rows, err := l.pool.Query(ctx,
		`SELECT `+instrumentColumns+` FROM instruments
		WHERE id = $1 OR lower(name) LIKE $2
		ORDER BY id`, query, prefix)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInstrument)
}

func (l *Ledger) SetReferencePrice(ctx context.Context, instrumentID string, price int64, at time.Time) error {
	tag, err := l.pool.Exec(ctx,
		`UPDATE instruments SET reference_price = $2, updated_at = $3 WHERE id = $1`,
		instrumentID, price, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInstrumentNotFound
	}
	return nil
}

func (l *Ledger) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := scanOrder(l.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	return o, err
}

func (l *Ledger) ListOrders(ctx context.Context, accountID string, openOnly bool) ([]*domain.Order, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		WHERE account_id = $1 AND (NOT $2 OR status IN ('PENDING', 'PARTIAL'))
		ORDER BY seq DESC`, accountID, openOnly)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOrder)
}

func (l *Ledger) ListHoldings(ctx context.Context, accountID string) ([]*domain.Holding, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+holdingColumns+` FROM holdings WHERE account_id = $1 ORDER BY instrument_id`, accountID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanHolding)
}

func (l *Ledger) ListTrades(ctx context.Context, accountID string) ([]*domain.Trade, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+tradeColumns+` FROM trades
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY seq DESC`, accountID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTrade)
}

func (l *Ledger) TradesSince(ctx context.Context, instrumentID string, since time.Time) ([]*domain.Trade, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+tradeColumns+` FROM trades
		WHERE instrument_id = $1 AND executed_at >= $2
		ORDER BY seq`, instrumentID, since)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTrade)
}

func (l *Ledger) LastTrade(ctx context.Context, instrumentID string) (*domain.Trade, error) {
	t, err := scanTrade(l.pool.QueryRow(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE instrument_id = $1 ORDER BY seq DESC LIMIT 1`, instrumentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return t, err
}
