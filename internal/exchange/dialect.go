package exchange

import (
	"github.com/shopspring/decimal"

	"signal_trade/internal/models"
)

// Leg describes the order a dialect shapes parameters for
type Leg struct {
	Kind       models.MarketKind
	Side       models.Side // side of the order being placed
	Action     models.Action
	MarginMode models.MarginMode
}

// PositionSide direction of the position the leg acts on
func (l Leg) PositionSide() models.PositionSide {
	opens := l.Action != models.ActionClose
	if (l.Side == models.SideBuy) == opens {
		return models.PositionLong
	}
	return models.PositionShort
}

// Dialect per-venue parameter shaping for the shared order engine
type Dialect interface {
	// OrderParams params for entry, close and plain spot orders
	OrderParams(leg Leg) map[string]string
	// ReduceParams params for reduce-only exits (take-profit, stop-loss, fallback close)
	ReduceParams(leg Leg) map[string]string
	LeverageParams(leg Leg) map[string]string
	IsStopOrder(order models.Order) bool
	// SwallowLeverageErrors whether a failing leverage call may be ignored
	SwallowLeverageErrors() bool
	// DefaultLeverage leverage set on futures entries that name none; 0 keeps the account setting
	DefaultLeverage() int
	// SellFeeRate fraction withheld from amount-sized spot sells so the fee-reduced balance covers them
	SellFeeRate() decimal.Decimal
}
