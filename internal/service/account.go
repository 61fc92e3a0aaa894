package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

var (
	accountIDRegex    = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	instrumentIDRegex = regexp.MustCompile(`^[A-Z]{1,10}$`)
)

// RegisterAccountRequest represents the input for account registration.
// A nil InitialCash falls back to the configured default balance.
type RegisterAccountRequest struct {
	AccountID       string
	Name            string
	InitialCash     *string
	InitialHoldings []HoldingInput
}

// HoldingInput represents a seed position in a registration request.
type HoldingInput struct {
	InstrumentID string
	Quantity     int64
	AveragePrice string // optional, defaults to "0"
}

// AccountSnapshot is an account's balance together with its positions.
type AccountSnapshot struct {
	Account  *domain.Account
	Holdings []*domain.Holding
}

// AccountService handles account registration and balance queries.
type AccountService struct {
	accounts    store.Accounts
	queries     store.Queries
	defaultCash int64
	now         func() time.Time
}

// NewAccountService creates a new AccountService. defaultCash is in cents.
func NewAccountService(accounts store.Accounts, queries store.Queries, defaultCash int64) *AccountService {
	return &AccountService{
		accounts:    accounts,
		queries:     queries,
		defaultCash: defaultCash,
		now:         time.Now,
	}
}

// Register validates the request and creates the account with its seed
// holdings.
func (s *AccountService) Register(ctx context.Context, req RegisterAccountRequest) (*AccountSnapshot, error) {
	if !accountIDRegex.MatchString(req.AccountID) {
		return nil, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.AccountID
	}

	cash := s.defaultCash
	if req.InitialCash != nil {
		c, err := domain.ParseMoney(*req.InitialCash)
		if err != nil {
			return nil, &domain.ValidationError{Message: "initial_cash: " + err.Error()}
		}
		if c < 0 {
			return nil, &domain.ValidationError{Message: "initial_cash must be >= 0"}
		}
		cash = c
	}

	now := s.now().UTC()
	seen := make(map[string]bool)
	holdings := make([]*domain.Holding, 0, len(req.InitialHoldings))
	for _, h := range req.InitialHoldings {
		if !instrumentIDRegex.MatchString(h.InstrumentID) {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("holding instrument_id must match ^[A-Z]{1,10}$, got %q", h.InstrumentID),
			}
		}
		if h.Quantity <= 0 {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("holding quantity must be > 0 for instrument %s", h.InstrumentID),
			}
		}
		if seen[h.InstrumentID] {
			return nil, &domain.ValidationError{
				Message: fmt.Sprintf("duplicate instrument in initial_holdings: %s", h.InstrumentID),
			}
		}
		seen[h.InstrumentID] = true

		var avg int64
		if h.AveragePrice != "" {
			p, err := domain.ParseMoney(h.AveragePrice)
			if err != nil || p < 0 {
				return nil, &domain.ValidationError{
					Message: fmt.Sprintf("holding average_price must be a non-negative amount for instrument %s", h.InstrumentID),
				}
			}
			avg = p
		}
		holdings = append(holdings, &domain.Holding{
			AccountID:    req.AccountID,
			InstrumentID: h.InstrumentID,
			Quantity:     h.Quantity,
			AveragePrice: avg,
			UpdatedAt:    now,
		})
	}

	account := &domain.Account{
		AccountID:   req.AccountID,
		Name:        name,
		CashBalance: cash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.accounts.CreateAccount(ctx, account, holdings); err != nil {
		return nil, err
	}
	return &AccountSnapshot{Account: account, Holdings: holdings}, nil
}

// Snapshot returns the account's balance and holdings.
func (s *AccountService) Snapshot(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	a, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.queries.ListHoldings(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &AccountSnapshot{Account: a, Holdings: holdings}, nil
}
