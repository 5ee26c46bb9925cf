package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"signal_trade/internal/config"
	"signal_trade/internal/exchange"
	"signal_trade/internal/ledger"
	"signal_trade/internal/logger"
	"signal_trade/internal/models"
)

// ExecResult outcome of one alert; Entry is set for entries, Order otherwise
type ExecResult struct {
	Order *models.Order `json:"order,omitempty"`
	Entry *EntryResult  `json:"entry,omitempty"`
}

// TradingService routes alerts to the engine of the named venue
type TradingService struct {
	engines map[string]*Engine
	hedge   *HedgeReconciler
}

// NewTradingService builds one engine per venue. The hedge reconciler is only wired
// when the domestic venue is among them.
func NewTradingService(cfg *config.Config, venues []exchange.Exchange, store ledger.Store) *TradingService {
	ts := &TradingService{engines: make(map[string]*Engine, len(venues))}
	for _, v := range venues {
		ts.engines[strings.ToUpper(v.Name())] = NewEngine(v, cfg.Trading)
	}

	if domestic, ok := ts.engines[strings.ToUpper(cfg.Hedge.Domestic)]; ok && store != nil {
		ts.hedge = NewHedgeReconciler(domestic, cfg.Hedge.DomesticQuote, store)
	} else {
		logger.Warnf("hedge disabled: domestic venue %q not configured", cfg.Hedge.Domestic)
	}
	return ts
}

// Engine engine of a venue by name
func (ts *TradingService) Engine(name string) (*Engine, error) {
	e, ok := ts.engines[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExchange, name)
	}
	return e, nil
}

// Venues configured venue names
func (ts *TradingService) Venues() []string {
	names := make([]string, 0, len(ts.engines))
	for name := range ts.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one order intent. changeSL rebinds the stop of the open position instead.
func (ts *TradingService) Execute(ctx context.Context, intent *models.OrderIntent, changeSL bool) (*ExecResult, error) {
	engine, err := ts.Engine(intent.Exchange)
	if err != nil {
		return nil, err
	}

	switch {
	case changeSL:
		order, err := engine.RebindStop(ctx, intent)
		return &ExecResult{Order: order}, err
	case intent.IsEntry():
		entry, err := engine.Entry(ctx, intent)
		if err != nil {
			return nil, err
		}
		return &ExecResult{Order: entry.Entry, Entry: entry}, nil
	case intent.IsClose():
		order, err := engine.Close(ctx, intent)
		return &ExecResult{Order: order}, err
	case intent.Side == models.SideBuy:
		order, err := engine.MarketBuy(ctx, intent)
		return &ExecResult{Order: order}, err
	default:
		order, err := engine.MarketSell(ctx, intent)
		return &ExecResult{Order: order}, err
	}
}

// Hedge opens (on) or closes the hedge described by req
func (ts *TradingService) Hedge(ctx context.Context, req HedgeRequest, on bool) (*HedgeResult, error) {
	if ts.hedge == nil {
		return nil, fmt.Errorf("hedge is not configured")
	}
	foreign, err := ts.Engine(req.Exchange)
	if err != nil {
		return nil, err
	}
	if on {
		return ts.hedge.Open(ctx, foreign, req)
	}
	return ts.hedge.Close(ctx, foreign, req)
}

// HedgeExposure ledger totals per venue for base
func (ts *TradingService) HedgeExposure(ctx context.Context, base string) (map[string]*models.HedgeSummary, error) {
	if ts.hedge == nil {
		return nil, fmt.Errorf("hedge is not configured")
	}
	return ts.hedge.Exposure(ctx, base)
}
