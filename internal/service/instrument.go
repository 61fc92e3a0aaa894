package service

import (
	"context"
	"strings"
	"time"

	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/store"
)

// CreateInstrumentRequest represents the input for adding an instrument.
type CreateInstrumentRequest struct {
	InstrumentID   string
	Name           string
	ReferencePrice string // optional
}

// InstrumentService manages the instrument catalog.
type InstrumentService struct {
	instruments store.Instruments
	now         func() time.Time
}

// NewInstrumentService creates a new InstrumentService.
func NewInstrumentService(instruments store.Instruments) *InstrumentService {
	return &InstrumentService{
		instruments: instruments,
		now:         time.Now,
	}
}

// Create validates and stores a new instrument.
func (s *InstrumentService) Create(ctx context.Context, req CreateInstrumentRequest) (*domain.Instrument, error) {
	if !instrumentIDRegex.MatchString(req.InstrumentID) {
		return nil, &domain.ValidationError{Message: "instrument_id must match ^[A-Z]{1,10}$"}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		return nil, &domain.ValidationError{Message: "name must be between 1 and 100 characters"}
	}

	var price int64
	if req.ReferencePrice != "" {
		p, err := domain.ParseMoney(req.ReferencePrice)
		if err != nil {
			return nil, &domain.ValidationError{Message: "reference_price: " + err.Error()}
		}
		if p <= 0 {
			return nil, &domain.ValidationError{Message: "reference_price must be > 0"}
		}
		price = p
	}

	now := s.now().UTC()
	in := &domain.Instrument{
		InstrumentID:   req.InstrumentID,
		Name:           name,
		ReferencePrice: price,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.instruments.CreateInstrument(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// Get returns an instrument by ID.
func (s *InstrumentService) Get(ctx context.Context, instrumentID string) (*domain.Instrument, error) {
	return s.instruments.GetInstrument(ctx, instrumentID)
}

// List returns the whole catalog.
func (s *InstrumentService) List(ctx context.Context) ([]*domain.Instrument, error) {
	return s.instruments.ListInstruments(ctx)
}

// Search finds instruments by exact ID or by name prefix.
func (s *InstrumentService) Search(ctx context.Context, query string) ([]*domain.Instrument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Message: "q must not be empty"}
	}
	return s.instruments.SearchInstruments(ctx, query)
}

// SetReferencePrice overrides the informational price of an instrument.
func (s *InstrumentService) SetReferencePrice(ctx context.Context, instrumentID, price string) (*domain.Instrument, error) {
	p, err := domain.ParseMoney(price)
	if err != nil {
		return nil, &domain.ValidationError{Message: "reference_price: " + err.Error()}
	}
	if p <= 0 {
		return nil, &domain.ValidationError{Message: "reference_price must be > 0"}
	}
	if err := s.instruments.SetReferencePrice(ctx, instrumentID, p, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.instruments.GetInstrument(ctx, instrumentID)
}
