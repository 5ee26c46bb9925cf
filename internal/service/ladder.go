package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"signal_trade/internal/models"
)

// LadderDigits rounding digits of take-profit quantities per base asset
type LadderDigits struct {
	ByBase  map[string]int32
	Default int32
}

// For digits used for base
func (l LadderDigits) For(base string) int32 {
	if d, ok := l.ByBase[strings.ToUpper(base)]; ok {
		return d
	}
	return l.Default
}

// PlanLadder splits entryQty across the enabled take-profit legs.
// Each enabled leg gets round(entryQty*pct/100, digits). A positive remainder goes to the
// highest-indexed enabled leg; an overshoot is taken back from the highest legs down, never
// below zero. Enabled quantities always sum to |entryQty|. Disabled legs are zero.
func PlanLadder(entryQty decimal.Decimal, legs [4]models.TakeProfitLeg, digits int32) [4]decimal.Decimal {
	var out [4]decimal.Decimal
	qty := entryQty.Abs()

	used := decimal.Zero
	last := -1
	for i, leg := range legs {
		if !leg.Enabled {
			continue
		}
		out[i] = qty.Mul(leg.QtyPercent).Div(hundred).Round(digits)
		if out[i].IsNegative() {
			out[i] = decimal.Zero
		}
		used = used.Add(out[i])
		last = i
	}
	if last < 0 {
		return out
	}

	remainder := qty.Sub(used)
	switch {
	case remainder.IsPositive():
		out[last] = out[last].Add(remainder)
	case remainder.IsNegative():
		excess := remainder.Neg()
		for i := last; i >= 0 && excess.IsPositive(); i-- {
			if !legs[i].Enabled {
				continue
			}
			take := decimal.Min(out[i], excess)
			out[i] = out[i].Sub(take)
			excess = excess.Sub(take)
		}
	}
	return out
}
