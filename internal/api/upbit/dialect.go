package upbit

import (
	"github.com/shopspring/decimal"

	"signal_trade/internal/exchange"
	"signal_trade/internal/models"
)

// Dialect Upbit needs no venue params; it has no stop orders or leverage.
type Dialect struct{}

func (Dialect) OrderParams(exchange.Leg) map[string]string    { return map[string]string{} }
func (Dialect) ReduceParams(exchange.Leg) map[string]string   { return map[string]string{} }
func (Dialect) LeverageParams(exchange.Leg) map[string]string { return nil }
func (Dialect) IsStopOrder(models.Order) bool                 { return false }
func (Dialect) SwallowLeverageErrors() bool                   { return true }
func (Dialect) DefaultLeverage() int                          { return 0 }
func (Dialect) SellFeeRate() decimal.Decimal                  { return decimal.Zero }
