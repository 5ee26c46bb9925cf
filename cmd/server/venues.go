package main

import (
	"signal_trade/internal/api/binance"
	"signal_trade/internal/api/okx"
	"signal_trade/internal/api/upbit"
	"signal_trade/internal/config"
	"signal_trade/internal/exchange"
	"signal_trade/internal/logger"
)

// buildVenues one client per enabled venue
func buildVenues(cfg *config.Config) []exchange.Exchange {
	var venues []exchange.Exchange
	if cfg.Binance.Enabled {
		venues = append(venues, binance.NewClient(cfg.Binance))
	}
	if cfg.OKX.Enabled {
		venues = append(venues, okx.NewClient(cfg.OKX))
	}
	if cfg.Upbit.Enabled {
		venues = append(venues, upbit.NewClient(cfg.Upbit))
	}
	for _, v := range venues {
		logger.Infof("venue enabled: %s", v.Name())
	}
	return venues
}
