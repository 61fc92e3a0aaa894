package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/stockmatch/internal/service"
)

// InstrumentHandler handles HTTP requests for the instrument catalog.
type InstrumentHandler struct {
	instrumentSvc *service.InstrumentService
}

// NewInstrumentHandler creates a new InstrumentHandler.
func NewInstrumentHandler(instrumentSvc *service.InstrumentService) *InstrumentHandler {
	return &InstrumentHandler{instrumentSvc: instrumentSvc}
}

type createInstrumentRequest struct {
	InstrumentID   string     `json:"instrument_id"`
	Name           string     `json:"name"`
	ReferencePrice moneyInput `json:"reference_price"`
}

type referencePriceRequest struct {
	Price moneyInput `json:"price"`
}

// Create handles POST /instruments.
func (h *InstrumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInstrumentRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	in, err := h.instrumentSvc.Create(r.Context(), service.CreateInstrumentRequest{
		InstrumentID:   req.InstrumentID,
		Name:           req.Name,
		ReferencePrice: string(req.ReferencePrice),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, buildInstrumentResponse(in))
}

// List handles GET /instruments.
func (h *InstrumentHandler) List(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.instrumentSvc.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"instruments": buildInstrumentResponses(instruments)})
}

// Search handles GET /instruments/search?q=.
func (h *InstrumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.instrumentSvc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"instruments": buildInstrumentResponses(instruments)})
}

// Get handles GET /instruments/{instrument_id}.
func (h *InstrumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	in, err := h.instrumentSvc.Get(r.Context(), chi.URLParam(r, "instrument_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildInstrumentResponse(in))
}

// SetReferencePrice handles PUT /instruments/{instrument_id}/reference-price.
func (h *InstrumentHandler) SetReferencePrice(w http.ResponseWriter, r *http.Request) {
	var req referencePriceRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	in, err := h.instrumentSvc.SetReferencePrice(r.Context(), chi.URLParam(r, "instrument_id"), string(req.Price))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildInstrumentResponse(in))
}
