package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/engine"
)

var notFound = []error{
	domain.ErrAccountNotFound,
	domain.ErrInstrumentNotFound,
	domain.ErrOrderNotFound,
	domain.ErrHoldingNotFound,
}

var conflicts = []error{
	domain.ErrAccountAlreadyExists,
	domain.ErrInstrumentAlreadyExists,
	domain.ErrInsufficientBalance,
	domain.ErrInsufficientPosition,
	domain.ErrNoPosition,
}

// writeDomainError maps an error from the service layer to an HTTP
// response. Validation 400, missing resources 404, duplicates and
// rejections 409, lock timeouts 503, everything else 500.
func writeDomainError(w http.ResponseWriter, err error) {
	resp := errorResponse{Message: err.Error()}
	status := http.StatusInternalServerError

	var matchErr *engine.MatchError
	if errors.As(err, &matchErr) {
		resp.OrderID = matchErr.OrderID
		resp.Trades = buildTradeResponses(matchErr.Trades)
	}

	var validationErr *domain.ValidationError
	var shortfall *domain.ShortfallError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
		resp.Error = "validation_error"
		if errors.Is(err, domain.ErrInvalidOrderParameters) {
			resp.Error = domain.ErrInvalidOrderParameters.Error()
		}
		resp.Message = validationErr.Message
	case errors.As(err, &shortfall):
		status = http.StatusConflict
		resp.Error = shortfall.Kind.Error()
		if errors.Is(shortfall.Kind, domain.ErrInsufficientBalance) {
			resp.Required, resp.Available = money(shortfall.Required), money(shortfall.Available)
		} else {
			resp.Required, resp.Available = shortfall.Required, shortfall.Available
		}
	case errors.Is(err, domain.ErrLockTimeout):
		status = http.StatusServiceUnavailable
		resp.Error = domain.ErrLockTimeout.Error()
		w.Header().Set("Retry-After", "1")
	case errors.Is(err, domain.ErrAmountOverflow):
		status = http.StatusBadRequest
		resp.Error = domain.ErrAmountOverflow.Error()
	case errors.Is(err, domain.ErrInvariantViolation):
		resp.Error = domain.ErrInvariantViolation.Error()
	default:
		if kind, ok := firstMatch(err, notFound); ok {
			status = http.StatusNotFound
			resp.Error = kind
		} else if kind, ok := firstMatch(err, conflicts); ok {
			status = http.StatusConflict
			resp.Error = kind
		} else {
			resp.Error = "internal_error"
			resp.Message = "An unexpected error occurred"
		}
	}

	WriteJSON(w, status, resp)
}

func firstMatch(err error, targets []error) (string, bool) {
	for _, t := range targets {
		if errors.Is(err, t) {
			return t.Error(), true
		}
	}
	return "", false
}
