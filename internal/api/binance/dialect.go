package binance

import (
	"strings"

	"github.com/shopspring/decimal"

	"signal_trade/internal/exchange"
	"signal_trade/internal/models"
)

// Dialect Binance parameter shaping. Hedge mode tags every futures order with
// positionSide; one-way mode marks exits reduceOnly.
type Dialect struct {
	Mode    models.PositionMode
	Swallow bool
}

func (d Dialect) OrderParams(leg exchange.Leg) map[string]string {
	params := map[string]string{}
	if !leg.Kind.IsFutures() {
		return params
	}
	if d.Mode == models.PositionModeHedge {
		params["positionSide"] = strings.ToUpper(string(leg.PositionSide()))
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

func (d Dialect) LeverageParams(exchange.Leg) map[string]string {
	return nil
}

func (d Dialect) IsStopOrder(order models.Order) bool {
	// STOP, STOP_MARKET, STOP_LOSS, STOP_LOSS_LIMIT
	return strings.Contains(strings.ToUpper(order.Type), "STOP")
}

func (d Dialect) SwallowLeverageErrors() bool {
	return d.Swallow
}

func (d Dialect) DefaultLeverage() int {
	return 0
}

// SellFeeRate zero; spot fees are taken from the received asset or BNB
func (d Dialect) SellFeeRate() decimal.Decimal {
	return decimal.Zero
}
