package handler

import (
	"github.com/efreitasn/stockmatch/internal/domain"
	"github.com/efreitasn/stockmatch/internal/engine"
)

type orderResponse struct {
	OrderID           string `json:"order_id"`
	AccountID         string `json:"account_id"`
	InstrumentID      string `json:"instrument_id"`
	Side              string `json:"side"`
	Price             string `json:"price"`
	Quantity          int64  `json:"quantity"`
	FilledQuantity    int64  `json:"filled_quantity"`
	RemainingQuantity int64  `json:"remaining_quantity"`
	Status            string `json:"status"`
	Sequence          int64  `json:"sequence"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// matchResponse is returned by order submission and rematch: the order's
// state after matching plus the trades this call produced.
type matchResponse struct {
	orderResponse
	Trades []tradeResponse `json:"trades"`
}

type tradeResponse struct {
	TradeID      string `json:"trade_id"`
	InstrumentID string `json:"instrument_id"`
	BuyOrderID   string `json:"buy_order_id"`
	SellOrderID  string `json:"sell_order_id"`
	BuyerID      string `json:"buyer_id"`
	SellerID     string `json:"seller_id"`
	Price        string `json:"price"`
	Quantity     int64  `json:"quantity"`
	ExecutedAt   string `json:"executed_at"`
}

type holdingResponse struct {
	InstrumentID string `json:"instrument_id"`
	Quantity     int64  `json:"quantity"`
	AveragePrice string `json:"average_price"`
	UpdatedAt    string `json:"updated_at"`
}

type instrumentResponse struct {
	InstrumentID   string  `json:"instrument_id"`
	Name           string  `json:"name"`
	ReferencePrice *string `json:"reference_price"`
	UpdatedAt      string  `json:"updated_at"`
}

func buildOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		OrderID:           o.OrderID,
		AccountID:         o.AccountID,
		InstrumentID:      o.InstrumentID,
		Side:              string(o.Side),
		Price:             money(o.Price),
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity(),
		RemainingQuantity: o.RemainingQuantity,
		Status:            string(o.Status),
		Sequence:          o.Sequence,
		CreatedAt:         timestamp(o.CreatedAt),
		UpdatedAt:         timestamp(o.UpdatedAt),
	}
}

func buildMatchResponse(res *engine.Result) matchResponse {
	return matchResponse{
		orderResponse: buildOrderResponse(res.Order),
		Trades:        buildTradeResponses(res.Trades),
	}
}

func buildOrderResponses(orders []*domain.Order) []orderResponse {
	result := make([]orderResponse, len(orders))
	for i, o := range orders {
		result[i] = buildOrderResponse(o)
	}
	return result
}

func buildTradeResponses(trades []*domain.Trade) []tradeResponse {
	result := make([]tradeResponse, len(trades))
	for i, t := range trades {
		result[i] = tradeResponse{
			TradeID:      t.TradeID,
			InstrumentID: t.InstrumentID,
			BuyOrderID:   t.BuyOrderID,
			SellOrderID:  t.SellOrderID,
			BuyerID:      t.BuyerID,
			SellerID:     t.SellerID,
			Price:        money(t.Price),
			Quantity:     t.Quantity,
			ExecutedAt:   timestamp(t.ExecutedAt),
		}
	}
	return result
}

func buildHoldingResponses(holdings []*domain.Holding) []holdingResponse {
	result := make([]holdingResponse, len(holdings))
	for i, h := range holdings {
		result[i] = holdingResponse{
			InstrumentID: h.InstrumentID,
			Quantity:     h.Quantity,
			AveragePrice: money(h.AveragePrice),
			UpdatedAt:    timestamp(h.UpdatedAt),
		}
	}
	return result
}

func buildInstrumentResponse(in *domain.Instrument) instrumentResponse {
	resp := instrumentResponse{
		InstrumentID: in.InstrumentID,
		Name:         in.Name,
		UpdatedAt:    timestamp(in.UpdatedAt),
	}
	if in.ReferencePrice > 0 {
		p := money(in.ReferencePrice)
		resp.ReferencePrice = &p
	}
	return resp
}

func buildInstrumentResponses(instruments []*domain.Instrument) []instrumentResponse {
	result := make([]instrumentResponse, len(instruments))
	for i, in := range instruments {
		result[i] = buildInstrumentResponse(in)
	}
	return result
}
