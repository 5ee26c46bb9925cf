package binance

import (
	"strings"

	"github.com/shopspring/decimal"

	"signal_trade/internal/models"
)

// defaultStep used when a symbol carries no LOT_SIZE or PRICE_FILTER
var defaultStep = decimal.New(1, -8)

// tradable reports whether an exchangeInfo symbol accepts orders for kind
func tradable(s models.BinanceSymbol, kind models.MarketKind) bool {
	switch kind {
	case models.MarketSpot:
		return s.Status == "TRADING"
	case models.MarketLinear:
		return s.Status == "TRADING" && s.ContractType == "PERPETUAL"
	case models.MarketInverse:
		return s.ContractStat == "TRADING" && s.ContractType == "PERPETUAL"
	}
	return false
}

// toMarket converts an exchangeInfo symbol into market metadata
func toMarket(s models.BinanceSymbol, kind models.MarketKind) *models.Market {
	m := &models.Market{
		ID:           s.Symbol,
		Base:         strings.ToUpper(s.BaseAsset),
		Quote:        strings.ToUpper(s.QuoteAsset),
		Kind:         kind,
		ContractSize: decimal.NewFromInt(1),
		AmountStep:   defaultStep,
		PriceStep:    defaultStep,
	}
	if kind == models.MarketInverse {
		// COIN-M sizes are whole USD contracts
		m.Contract = true
		m.Inverse = true
		if s.ContractSize > 0 {
			m.ContractSize = decimal.NewFromFloat(s.ContractSize)
		}
	}

	for _, f := range s.Filters {
		switch f.FilterType {
		case "LOT_SIZE":
			if step, err := decimal.NewFromString(f.StepSize); err == nil && step.IsPositive() {
				m.AmountStep = step
			}
			if min, err := decimal.NewFromString(f.MinQty); err == nil {
				m.MinAmount = min
			}
		case "PRICE_FILTER":
			if tick, err := decimal.NewFromString(f.TickSize); err == nil && tick.IsPositive() {
				m.PriceStep = tick
			}
		}
	}
	return m
}

// unifiedSymbol BASE/QUOTE key of a market
func unifiedSymbol(m *models.Market) string {
	return m.Base + "/" + m.Quote
}
