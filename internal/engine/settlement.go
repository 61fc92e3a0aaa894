package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

// fill is the economic content of one trade handed to settlement.
type fill struct {
	BuyerID      string
	SellerID     string
	InstrumentID string
	Quantity     int64
	Price        int64
	At           time.Time
}

// settle moves cash from buyer to seller and the position from seller to
// buyer inside tx. A buyer short of cash yields a ShortfallError; a seller
// without enough position is an invariant violation. When buyer and seller
// are the same account both legs apply to the same rows.
func settle(ctx context.Context, tx store.Tx, f fill) error {
	cost, err := domain.Notional(f.Price, f.Quantity)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvariantViolation, err)
	}

	accounts, err := tx.LockAccounts(ctx, f.BuyerID, f.SellerID)
	if err != nil {
		return err
	}
	buyer, seller := accounts[f.BuyerID], accounts[f.SellerID]

	if err := buyer.Debit(cost); err != nil {
		return err
	}
	if err := seller.Credit(cost); err != nil {
		return err
	}
	buyer.UpdatedAt, seller.UpdatedAt = f.At, f.At
	if err := tx.UpdateAccount(ctx, buyer); err != nil {
		return err
	}
	if seller != buyer {
		if err := tx.UpdateAccount(ctx, seller); err != nil {
			return err
		}
	}

	bought, err := tx.Holding(ctx, f.BuyerID, f.InstrumentID)
	switch {
	case errors.Is(err, domain.ErrHoldingNotFound):
		bought = &domain.Holding{AccountID: f.BuyerID, InstrumentID: f.InstrumentID}
	case err != nil:
		return err
	}
	if err := bought.Acquire(f.Quantity, f.Price); err != nil {
		return err
	}
	bought.UpdatedAt = f.At
	if err := tx.PutHolding(ctx, bought); err != nil {
		return err
	}

	sold, err := tx.Holding(ctx, f.SellerID, f.InstrumentID)
	switch {
	case errors.Is(err, domain.ErrHoldingNotFound):
		return fmt.Errorf("%w: seller %s has no %s holding to deliver", domain.ErrInvariantViolation, f.SellerID, f.InstrumentID)
	case err != nil:
		return err
	}
	if err := sold.Release(f.Quantity); err != nil {
		return err
	}
	sold.UpdatedAt = f.At
	if sold.Empty() {
		return tx.DeleteHolding(ctx, f.SellerID, f.InstrumentID)
	}
	return tx.PutHolding(ctx, sold)
}
