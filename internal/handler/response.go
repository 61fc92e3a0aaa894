package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/efreitasn/stockmatch/internal/domain"
)

// WriteJSON writes a JSON response with the given status code and data.
// Sets Content-Type to application/json before writing the status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Write error intentionally ignored in response helper
}

// errorResponse is the standard error response format. Shortfall
// rejections carry the required and available amounts; aborted matches
// carry the accepted order's ID and the trades settled before the abort.
type errorResponse struct {
	Error     string          `json:"error"`
	Message   string          `json:"message"`
	Required  any             `json:"required,omitempty"`
	Available any             `json:"available,omitempty"`
	OrderID   string          `json:"order_id,omitempty"`
	Trades    []tradeResponse `json:"trades,omitempty"`
}

// WriteError writes a standard error response with the given status code,
// error code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// ParseJSON decodes the request body as JSON into v.
// It validates that the Content-Type header is application/json and
// returns an error for missing/incorrect content type or malformed JSON.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("Request body must be valid JSON with Content-Type: application/json")
	}

	return nil
}

// moneyInput accepts a monetary amount either as a JSON string ("148.50")
// or as a bare JSON number (148.5). The literal digits are kept so that no
// float rounding happens before ParseMoney sees them.
type moneyInput string

func (m *moneyInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = moneyInput(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = moneyInput(n.String())
	return nil
}

func money(cents int64) string {
	return domain.FormatMoney(cents)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
