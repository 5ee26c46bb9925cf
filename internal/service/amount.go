package service

import (
	"context"

	"github.com/shopspring/decimal"

	"signal_trade/internal/exchange"
	"signal_trade/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)
	// percentHaircut points of balance held back on linear sizing for fees and slippage
	percentHaircut = decimal.RequireFromString("0.5")
)

// ResolveAmount turns an intent's amount or percent into an order quantity rounded
// to venue precision. Contract instruments are sized in whole contracts.
// The result is cached on intent.Resolved.
func ResolveAmount(ctx context.Context, ex exchange.Exchange, intent *models.OrderIntent) (decimal.Decimal, error) {
	if intent.Amount != nil && intent.Percent != nil {
		return decimal.Zero, ErrAmbiguousSizing
	}
	if intent.Amount == nil && intent.Percent == nil {
		return decimal.Zero, ErrMissingSizing
	}

	symbol := intent.Symbol()
	market, err := ex.Market(intent.Kind, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	var qty decimal.Decimal
	if intent.Amount != nil {
		qty, err = sizeFromAmount(ctx, ex, intent, market)
	} else {
		qty, err = sizeFromPercent(ctx, ex, intent, market)
	}
	if err != nil {
		return decimal.Zero, err
	}
	if qty.IsNegative() {
		qty = decimal.Zero
	}

	qty, err = ex.AmountToPrecision(intent.Kind, symbol, qty)
	if err != nil {
		return decimal.Zero, err
	}
	intent.Resolved = &qty
	return qty, nil
}

func sizeFromAmount(ctx context.Context, ex exchange.Exchange, intent *models.OrderIntent, market *models.Market) (decimal.Decimal, error) {
	amount := *intent.Amount
	if !market.Contract {
		return amount, nil
	}

	if market.Inverse {
		price, err := ex.FetchTicker(ctx, intent.Kind, intent.Symbol())
		if err != nil {
			return decimal.Zero, err
		}
		return amount.Mul(price).Div(contractSize(market)).Floor(), nil
	}
	return amount.Div(contractSize(market)).Floor(), nil
}

func sizeFromPercent(ctx context.Context, ex exchange.Exchange, intent *models.OrderIntent, market *models.Market) (decimal.Decimal, error) {
	pct := *intent.Percent

	switch {
	case intent.IsEntry() || intent.IsSpotBuy():
		if intent.Kind == models.MarketInverse {
			free, err := availableBalance(ctx, ex, intent, intent.Base)
			if err != nil {
				return decimal.Zero, err
			}
			part := free.Mul(pct).Div(hundred)
			if !market.Contract {
				return part, nil
			}
			price, err := ex.FetchTicker(ctx, intent.Kind, intent.Symbol())
			if err != nil {
				return decimal.Zero, err
			}
			return part.Mul(price).Div(contractSize(market)).Floor(), nil
		}

		free, err := availableBalance(ctx, ex, intent, intent.Quote)
		if err != nil {
			return decimal.Zero, err
		}
		cash := free.Mul(pct.Sub(percentHaircut)).Div(hundred)
		price, err := ex.FetchTicker(ctx, intent.Kind, intent.Symbol())
		if err != nil {
			return decimal.Zero, err
		}
		if !price.IsPositive() {
			return decimal.Zero, ErrMinAmount
		}
		qty := cash.Div(price)
		if market.Contract {
			qty = qty.Div(contractSize(market)).Floor()
		}
		return qty, nil

	case intent.IsClose():
		size, err := closeSize(ctx, ex, intent)
		if err != nil {
			return decimal.Zero, err
		}
		return size.Mul(pct).Div(hundred), nil

	case intent.IsSpotSell():
		free, err := availableBalance(ctx, ex, intent, intent.Base)
		if err != nil {
			return decimal.Zero, err
		}
		return free.Mul(pct).Div(hundred), nil
	}
	return decimal.Zero, ErrMissingSizing
}

// closeSize size of the position a close intent reduces: close/buy targets the short
// book and close/sell the long book.
func closeSize(ctx context.Context, ex exchange.Exchange, intent *models.OrderIntent) (decimal.Decimal, error) {
	positions, err := ex.FetchPositions(ctx, intent.Kind, intent.Symbol())
	if err != nil {
		return decimal.Zero, err
	}
	if len(positions) == 0 {
		return decimal.Zero, ErrPositionNone
	}

	var long, short decimal.Decimal
	for _, p := range positions {
		if p.Contracts().IsZero() {
			continue
		}
		if p.IsLong() {
			long = long.Add(p.Contracts())
		} else {
			short = short.Add(p.Contracts())
		}
	}

	if intent.Side == models.SideBuy {
		if short.IsZero() {
			return decimal.Zero, ErrShortPositionNone
		}
		return short, nil
	}
	if long.IsZero() {
		return decimal.Zero, ErrLongPositionNone
	}
	return long, nil
}

func availableBalance(ctx context.Context, ex exchange.Exchange, intent *models.OrderIntent, asset string) (decimal.Decimal, error) {
	var (
		balance decimal.Decimal
		err     error
	)
	if intent.UseTotalBalance {
		balance, err = ex.FetchTotalBalance(ctx, intent.Kind, asset)
	} else {
		balance, err = ex.FetchFreeBalance(ctx, intent.Kind, asset)
	}
	if err != nil {
		return decimal.Zero, err
	}
	if !balance.IsPositive() {
		return decimal.Zero, ErrFreeAmountNone
	}
	return balance, nil
}

func contractSize(m *models.Market) decimal.Decimal {
	if m.ContractSize.IsPositive() {
		return m.ContractSize
	}
	return decimal.NewFromInt(1)
}
