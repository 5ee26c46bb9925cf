package okx

import (
	"github.com/shopspring/decimal"

	"signal_trade/internal/exchange"
	"signal_trade/internal/models"
)

// Dialect OKX parameter shaping: tdMode on every order, posSide in
// long/short mode, reduceOnly on one-way exits.
type Dialect struct {
	Mode     models.PositionMode
	Swallow  bool
	TakerFee decimal.Decimal
}

func tdMode(leg exchange.Leg) string {
	if leg.MarginMode == models.MarginIsolated {
		return string(models.MarginIsolated)
	}
	return string(models.MarginCross)
}

func (d Dialect) OrderParams(leg exchange.Leg) map[string]string {
	if !leg.Kind.IsFutures() {
		// spot market sizes are in base units
		return map[string]string{"tdMode": "cash", "tgtCcy": "base_ccy"}
	}

	params := map[string]string{"tdMode": tdMode(leg)}
	if d.Mode == models.PositionModeHedge {
		params["posSide"] = string(leg.PositionSide())
		return params
	}
	if leg.Action == models.ActionClose {
		params["reduceOnly"] = "true"
	}
	return params
}

func (d Dialect) ReduceParams(leg exchange.Leg) map[string]string {
	leg.Action = models.ActionClose
	return d.OrderParams(leg)
}

// LeverageParams posSide is only accepted for isolated margin in long/short mode
func (d Dialect) LeverageParams(leg exchange.Leg) map[string]string {
	params := map[string]string{"mgnMode": tdMode(leg)}
	if d.Mode == models.PositionModeHedge && leg.MarginMode == models.MarginIsolated {
		params["posSide"] = string(leg.PositionSide())
	}
	return params
}

func (d Dialect) IsStopOrder(order models.Order) bool {
	return order.Conditional
}

func (d Dialect) SwallowLeverageErrors() bool {
	return d.Swallow
}

// DefaultLeverage OKX keeps per-instrument leverage, so entries without one reset it to 1x
func (d Dialect) DefaultLeverage() int {
	return 1
}

// SellFeeRate spot buys are charged in the base asset, leaving less than the bought amount
func (d Dialect) SellFeeRate() decimal.Decimal {
	return d.TakerFee
}
