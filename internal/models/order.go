package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest venue-neutral order submission
type OrderRequest struct {
	Symbol string
	Kind   MarketKind
	Type   string // market, limit, stop_market
	Side   Side
	Amount decimal.Decimal
	// Price is zero for market orders.
	Price     decimal.Decimal
	StopPrice decimal.Decimal
	// Params carries venue specific fields shaped by the venue dialect.
	Params map[string]string
}

// Order order as reported by a venue
type Order struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Type      string          `json:"type"`
	Side      Side            `json:"side"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Filled    decimal.Decimal `json:"filled"`
	Price     decimal.Decimal `json:"price"`
	StopPrice decimal.Decimal `json:"stop_price"`
	// Conditional marks orders living on a separate trigger book (OKX algo orders).
	Conditional bool      `json:"conditional,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ticker last traded price
type Ticker struct {
	Symbol string
	Last   decimal.Decimal
}
