package engine

import (
	"errors"
	"fmt"

	"github.com/efreitasn/stockmatch/internal/domain"
)

// MatchError reports a match attempt that was aborted after the incoming
// order had been accepted. Trades settled before the failure stand and the
// order remains open; retrying with Rematch is safe for transient causes.
type MatchError struct {
	OrderID string
	Trades  []*domain.Trade
	Err     error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("match aborted for order %s after %d fills: %v", e.OrderID, len(e.Trades), e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

var kinds = []error{
	domain.ErrInvalidOrderParameters,
	domain.ErrInsufficientBalance,
	domain.ErrInsufficientPosition,
	domain.ErrNoPosition,
	domain.ErrAccountNotFound,
	domain.ErrInstrumentNotFound,
	domain.ErrOrderNotFound,
	domain.ErrInvariantViolation,
	domain.ErrLockTimeout,
}

// errorKind returns the machine-readable kind of err for metric labels.
func errorKind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return domain.ErrInvalidOrderParameters.Error()
	}
	return "internal"
}
