package domain

import (
	"math"
	"time"
)

// Account is a participant's cash ledger entry.
type Account struct {
	AccountID   string
	Name        string
	CashBalance int64 // cents
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Debit removes amount from the balance. A balance short of amount yields
// a ShortfallError and leaves the account untouched.
func (a *Account) Debit(amount int64) error {
	if amount < 0 {
		return invariantf("negative debit %d on account %s", amount, a.AccountID)
	}
	if a.CashBalance < amount {
		return &ShortfallError{Kind: ErrInsufficientBalance, Required: amount, Available: a.CashBalance}
	}
	a.CashBalance -= amount
	return nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount int64) error {
	if amount < 0 {
		return invariantf("negative credit %d on account %s", amount, a.AccountID)
	}
	if a.CashBalance > math.MaxInt64-amount {
		return invariantf("credit of %d overflows account %s", amount, a.AccountID)
	}
	a.CashBalance += amount
	return nil
}

// Clone returns a copy safe to mutate independently.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
