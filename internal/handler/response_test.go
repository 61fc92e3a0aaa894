package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/engine"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})

	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want %q", got, "application/json")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusCreated)
	}
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["status"] != "ok" {
		t.Errorf("body status = %q, want %q", result["status"], "ok")
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, "invalid_request", "missing required field")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if raw["error"] != "invalid_request" || raw["message"] != "missing required field" {
		t.Errorf("body = %v", raw)
	}
	for _, k := range []string{"required", "available", "order_id", "trades"} {
		if _, ok := raw[k]; ok {
			t.Errorf("plain error should omit %q", k)
		}
	}
}

func TestParseJSON(t *testing.T) {
	type target struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     bool
	}{
		{"valid", "application/json", `{"name":"test"}`, false},
		{"charset", "application/json; charset=utf-8", `{"name":"test"}`, false},
		{"missing content type", "", `{"name":"test"}`, true},
		{"wrong content type", "text/plain", `{"name":"test"}`, true},
		{"malformed", "application/json", `{invalid json}`, true},
		{"unknown field", "application/json", `{"name":"test","unknown_field":"value"}`, true},
		{"empty body", "application/json", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			var v target
			err := ParseJSON(r, &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && v.Name != "test" {
				t.Errorf("name = %q, want %q", v.Name, "test")
			}
		})
	}
}

func TestMoneyInput(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`"148.50"`, "148.50", false},
		{`148.5`, "148.5", false},
		{`100`, "100", false},
		{`0.1`, "0.1", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var m moneyInput
			err := json.Unmarshal([]byte(tt.raw), &m)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if string(m) != tt.want {
				t.Errorf("got %q, want %q", m, tt.want)
			}
		})
	}
}

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"validation", &domain.ValidationError{Message: "bad"}, http.StatusBadRequest, "validation_error"},
		{"order parameters", &domain.ValidationError{Message: "bad", Err: domain.ErrInvalidOrderParameters}, http.StatusBadRequest, "invalid_order_parameters"},
		{"account not found", fmt.Errorf("lookup: %w", domain.ErrAccountNotFound), http.StatusNotFound, "account_not_found"},
		{"order not found", domain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
		{"duplicate", domain.ErrInstrumentAlreadyExists, http.StatusConflict, "instrument_already_exists"},
		{"no position", &domain.ShortfallError{Kind: domain.ErrNoPosition, Required: 5}, http.StatusConflict, "no_position"},
		{"lock timeout", fmt.Errorf("%w: instrument ACME", domain.ErrLockTimeout), http.StatusServiceUnavailable, "lock_timeout"},
		{"invariant", fmt.Errorf("%w: negative holding", domain.ErrInvariantViolation), http.StatusInternalServerError, "invariant_violation"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeDomainError(w, tt.err)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var resp errorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error != tt.wantKind {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantKind)
			}
		})
	}
}

func TestWriteDomainError_ShortfallAmounts(t *testing.T) {
	w := httptest.NewRecorder()
	writeDomainError(w, &domain.ShortfallError{Kind: domain.ErrInsufficientBalance, Required: 100000, Available: 99999})

	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["required"] != "1000.00" || raw["available"] != "999.99" {
		t.Errorf("required/available = %v/%v, want 1000.00/999.99", raw["required"], raw["available"])
	}

	w = httptest.NewRecorder()
	writeDomainError(w, &domain.ShortfallError{Kind: domain.ErrInsufficientPosition, Required: 10, Available: 3})
	raw = nil
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["required"] != float64(10) || raw["available"] != float64(3) {
		t.Errorf("required/available = %v/%v, want 10/3", raw["required"], raw["available"])
	}
}

func TestWriteDomainError_MatchError(t *testing.T) {
	w := httptest.NewRecorder()
	writeDomainError(w, &engine.MatchError{
		OrderID: "o-1",
		Trades:  []*domain.Trade{{TradeID: "t-1", Price: 10000, Quantity: 2}},
		Err:     fmt.Errorf("%w: instrument ACME", domain.ErrLockTimeout),
	})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	var resp errorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OrderID != "o-1" || len(resp.Trades) != 1 || resp.Trades[0].Price != "100.00" {
		t.Errorf("got order_id %q trades %+v", resp.OrderID, resp.Trades)
	}
}
