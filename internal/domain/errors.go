package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrAccountAlreadyExists    = errors.New("account_already_exists")
	ErrAccountNotFound         = errors.New("account_not_found")
	ErrInstrumentAlreadyExists = errors.New("instrument_already_exists")
	ErrInstrumentNotFound      = errors.New("instrument_not_found")
	ErrOrderNotFound           = errors.New("order_not_found")
	ErrHoldingNotFound         = errors.New("holding_not_found")
	ErrInvalidOrderParameters  = errors.New("invalid_order_parameters")
	ErrInsufficientBalance     = errors.New("insufficient_balance")
	ErrInsufficientPosition    = errors.New("insufficient_position")
	ErrNoPosition              = errors.New("no_position")
	ErrInvariantViolation      = errors.New("invariant_violation")
	ErrAmountOverflow          = errors.New("amount_overflow")
	ErrLockTimeout             = errors.New("lock_timeout")
)

// ValidationError represents a request validation failure.
// Err optionally classifies the failure, e.g. ErrInvalidOrderParameters.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ShortfallError reports a rejected affordability or coverage check
// together with the amounts involved. Kind is one of
// ErrInsufficientBalance, ErrInsufficientPosition or ErrNoPosition.
// Amounts are cents for balances and units for positions.
type ShortfallError struct {
	Kind      error
	Required  int64
	Available int64
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("%s: required %d, available %d", e.Kind, e.Required, e.Available)
}

func (e *ShortfallError) Unwrap() error {
	return e.Kind
}

// invariantf wraps ErrInvariantViolation with a formatted description.
func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
