package exchange

import (
	"fmt"

	"github.com/shopspring/decimal"

	"signal_trade/internal/models"
)

// TruncateToStep floors value to a multiple of step
func TruncateToStep(value, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return value
	}
	return value.Div(step).Floor().Mul(step)
}

// RoundToStep rounds value to the nearest multiple of step
func RoundToStep(value, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return value
	}
	return value.Div(step).Round(0).Mul(step)
}

// StepPrecision number of decimal places a step allows, e.g. 0.010 -> 2
func StepPrecision(step decimal.Decimal) int32 {
	if !step.IsPositive() {
		return 8
	}
	for p := int32(0); p < 18; p++ {
		shifted := step.Shift(p)
		if shifted.Equal(shifted.Truncate(0)) {
			return p
		}
	}
	return 18
}

// AmountToPrecision truncates an amount to the market's lot step
func AmountToPrecision(m *models.Market, amount decimal.Decimal) (decimal.Decimal, error) {
	if m == nil {
		return decimal.Zero, fmt.Errorf("%w: nil market", ErrMarketNotFound)
	}
	out := TruncateToStep(amount, m.AmountStep)
	return out.Truncate(StepPrecision(m.AmountStep)), nil
}

// PriceToPrecision rounds a price to the market's tick
func PriceToPrecision(m *models.Market, price decimal.Decimal) (decimal.Decimal, error) {
	if m == nil {
		return decimal.Zero, fmt.Errorf("%w: nil market", ErrMarketNotFound)
	}
	out := RoundToStep(price, m.PriceStep)
	return out.Round(StepPrecision(m.PriceStep)), nil
}
