package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MarketKind instrument family an order targets
type MarketKind string

const (
	MarketSpot    MarketKind = "spot"
	MarketLinear  MarketKind = "futures-linear"
	MarketInverse MarketKind = "futures-inverse"
)

// IsFutures reports whether the kind is a derivative market
func (k MarketKind) IsFutures() bool {
	return k == MarketLinear || k == MarketInverse
}

// Side order direction
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the reducing side for a position opened with s
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Action what an intent does to exposure
type Action string

const (
	ActionEntry Action = "entry"
	ActionClose Action = "close"
	// ActionPlain is a spot buy or sell without position semantics
	ActionPlain Action = "plain"
)

// OrderType venue-neutral order type
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// MarginMode futures margin mode
type MarginMode string

const (
	MarginIsolated MarginMode = "isolated"
	MarginCross    MarginMode = "cross"
)

// TakeProfitLeg one of the four optional exit legs attached to an entry
type TakeProfitLeg struct {
	Enabled    bool
	Price      decimal.Decimal
	QtyPercent decimal.Decimal
}

// OrderIntent normalized trading instruction derived from an alert
type OrderIntent struct {
	Exchange        string
	Base            string
	Quote           string
	Kind            MarketKind
	Side            Side
	Action          Action
	Type            OrderType
	Amount          *decimal.Decimal
	Percent         *decimal.Decimal
	Price           *decimal.Decimal
	Leverage        int
	MarginMode      MarginMode
	TakeProfits     [4]TakeProfitLeg
	StopLoss        *decimal.Decimal
	UseTotalBalance bool

	// Resolved is filled in once sizing succeeds and reused by dependent legs.
	Resolved *decimal.Decimal
}

// Symbol unified BASE/QUOTE form
func (i *OrderIntent) Symbol() string {
	return strings.ToUpper(i.Base) + "/" + strings.ToUpper(i.Quote)
}

// IsEntry whether the intent opens or adds to a position
func (i *OrderIntent) IsEntry() bool { return i.Action == ActionEntry }

// IsClose whether the intent reduces a position
func (i *OrderIntent) IsClose() bool { return i.Action == ActionClose }

// IsSpotBuy plain spot purchase
func (i *OrderIntent) IsSpotBuy() bool {
	return i.Action == ActionPlain && i.Side == SideBuy
}

// IsSpotSell plain spot sale
func (i *OrderIntent) IsSpotSell() bool {
	return i.Action == ActionPlain && i.Side == SideSell
}
