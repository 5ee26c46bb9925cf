package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"signal_trade/internal/ledger"
	"signal_trade/internal/logger"
	"signal_trade/internal/models"
)

// Hedge legs
const (
	legForeign  = "foreign"
	legDomestic = "domestic"
)

// HedgeRequest open or close a synthetic hedge for one base asset
type HedgeRequest struct {
	Exchange string // foreign futures venue
	Base     string
	Quote    string
	Amount   *decimal.Decimal
	Leverage int
}

// HedgeResult outcome of a hedge open or close
type HedgeResult struct {
	Foreign        *models.Order   `json:"foreign,omitempty"`
	Domestic       *models.Order   `json:"domestic,omitempty"`
	ForeignAmount  decimal.Decimal `json:"foreign_amount"`
	DomesticAmount decimal.Decimal `json:"domestic_amount"`
	Message        string          `json:"message,omitempty"`
}

// HedgeReconciler pairs a futures short on a foreign venue with a spot buy on the domestic
// venue. The ledger is the only record of hedge exposure; venue positions are not consulted.
type HedgeReconciler struct {
	domestic      *Engine
	domesticQuote string
	store         ledger.Store
	locks         keyedMutex
}

// NewHedgeReconciler reconciler with domestic as the spot leg venue
func NewHedgeReconciler(domestic *Engine, domesticQuote string, store ledger.Store) *HedgeReconciler {
	return &HedgeReconciler{
		domestic:      domestic,
		domesticQuote: strings.ToUpper(domesticQuote),
		store:         store,
	}
}

// Open shorts req.Amount on foreign, records the fill in base units, then buys the same
// amount on the domestic venue. A failed domestic buy unwinds the foreign ledger total for the base.
func (h *HedgeReconciler) Open(ctx context.Context, foreign *Engine, req HedgeRequest) (*HedgeResult, error) {
	if req.Amount == nil || !req.Amount.IsPositive() {
		return nil, ErrHedgeAmountMissing
	}
	base := strings.ToUpper(req.Base)
	unlock := h.locks.Lock(base)
	defer unlock()

	foreignName := foreign.Exchange().Name()
	amount := *req.Amount
	shortIntent := &models.OrderIntent{
		Exchange: foreignName,
		Base:     base,
		Quote:    req.Quote,
		Kind:     models.MarketLinear,
		Side:     models.SideSell,
		Action:   models.ActionEntry,
		Type:     models.OrderMarket,
		Amount:   &amount,
		Leverage: req.Leverage,
	}
	market, err := foreign.Exchange().Market(shortIntent.Kind, shortIntent.Symbol())
	if err != nil {
		return nil, &HedgeError{Leg: legForeign, Cause: err}
	}
	entry, err := foreign.Entry(ctx, shortIntent)
	if err != nil {
		return nil, &HedgeError{Leg: legForeign, Cause: err}
	}
	// the ledger and the spot leg work in base units, not contracts
	foreignFilled := baseAmount(market, filledOr(entry.Entry, *shortIntent.Resolved))

	_, err = h.store.Create(ctx, models.HedgeRecord{
		Exchange: foreignName,
		Base:     base,
		Quote:    strings.ToUpper(req.Quote),
		Amount:   foreignFilled,
	})
	if err != nil {
		// the short is live but unrecorded; close it directly
		logger.Errorf("[hedge] record %s short of %s failed, closing it: %v", foreignName, base, err)
		if _, cerr := foreign.Close(ctx, closeIntent(foreignName, base, req.Quote, foreignFilled)); cerr != nil {
			observeHedge(foreignName, "unwind_failed")
			return nil, fmt.Errorf("unwind unrecorded short: %w", cerr)
		}
		observeHedge(foreignName, "unwound")
		return nil, &HedgeError{Leg: legForeign, Unwound: true, Cause: err}
	}

	result := &HedgeResult{Foreign: entry.Entry, ForeignAmount: foreignFilled}

	domesticName := h.domestic.Exchange().Name()
	buyAmount := foreignFilled
	buyIntent := &models.OrderIntent{
		Exchange: domesticName,
		Base:     base,
		Quote:    h.domesticQuote,
		Kind:     models.MarketSpot,
		Side:     models.SideBuy,
		Action:   models.ActionPlain,
		Type:     models.OrderMarket,
		Amount:   &buyAmount,
	}
	buy, err := h.domestic.MarketBuy(ctx, buyIntent)
	if err != nil {
		logger.Errorf("[hedge] %s buy of %s failed, unwinding %s short: %v", domesticName, base, foreignName, err)
		if uerr := h.unwind(ctx, foreign, base, req.Quote); uerr != nil {
			observeHedge(foreignName, "unwind_failed")
			return nil, uerr
		}
		observeHedge(foreignName, "unwound")
		return nil, &HedgeError{Leg: legDomestic, Unwound: true, Cause: err}
	}

	domesticFilled := filledOr(buy, *buyIntent.Resolved)
	if o, ferr := h.domestic.Exchange().FetchOrder(ctx, models.MarketSpot, buyIntent.Symbol(), buy.ID); ferr == nil {
		domesticFilled = filledOr(o, domesticFilled)
	} else {
		logger.Warnf("[hedge] fetch %s order %s failed, recording requested amount: %v", domesticName, buy.ID, ferr)
	}

	if _, err := h.store.Create(ctx, models.HedgeRecord{
		Exchange: domesticName,
		Base:     base,
		Quote:    h.domesticQuote,
		Amount:   domesticFilled,
	}); err != nil {
		return nil, fmt.Errorf("record %s buy of %s: %w", domesticName, base, err)
	}

	result.Domestic = buy
	result.DomesticAmount = domesticFilled
	observeHedge(foreignName, "opened")
	logger.WithFields(logger.Fields{
		"base":     base,
		"foreign":  foreignName,
		"short":    foreignFilled.String(),
		"domestic": domesticName,
		"bought":   domesticFilled.String(),
	}).Info("hedge opened")
	return result, nil
}

// Close closes both legs with the ledger totals. When either venue has nothing recorded
// the hedge is left as is and the result message says which side was empty.
func (h *HedgeReconciler) Close(ctx context.Context, foreign *Engine, req HedgeRequest) (*HedgeResult, error) {
	base := strings.ToUpper(req.Base)
	unlock := h.locks.Lock(base)
	defer unlock()

	records, err := h.store.List(ctx, base)
	if err != nil {
		return nil, err
	}
	foreignName := foreign.Exchange().Name()
	domesticName := h.domestic.Exchange().Name()
	sums := models.Summarize(records)
	foreignSum := summaryOf(sums, foreignName)
	domesticSum := summaryOf(sums, domesticName)

	result := &HedgeResult{ForeignAmount: foreignSum.Amount, DomesticAmount: domesticSum.Amount}
	switch {
	case !foreignSum.Amount.IsPositive() && !domesticSum.Amount.IsPositive():
		result.Message = fmt.Sprintf("nothing to close on %s and %s", foreignName, domesticName)
	case !foreignSum.Amount.IsPositive():
		result.Message = fmt.Sprintf("nothing to close on %s", foreignName)
	case !domesticSum.Amount.IsPositive():
		result.Message = fmt.Sprintf("nothing to close on %s", domesticName)
	}
	if result.Message != "" {
		logger.Infof("[hedge] %s: %s", base, result.Message)
		return result, nil
	}

	closed, err := foreign.Close(ctx, closeIntent(foreignName, base, req.Quote, foreignSum.Amount))
	if err != nil {
		return nil, &HedgeError{Leg: legForeign, Cause: err}
	}
	result.Foreign = closed
	if err := h.deleteAll(ctx, foreignSum.IDs); err != nil {
		return result, err
	}

	sellAmount := domesticSum.Amount
	sold, err := h.domestic.MarketSell(ctx, &models.OrderIntent{
		Exchange: domesticName,
		Base:     base,
		Quote:    h.domesticQuote,
		Kind:     models.MarketSpot,
		Side:     models.SideSell,
		Action:   models.ActionPlain,
		Type:     models.OrderMarket,
		Amount:   &sellAmount,
	})
	if err != nil {
		return result, &HedgeError{Leg: legDomestic, Cause: err}
	}
	result.Domestic = sold
	if err := h.deleteAll(ctx, domesticSum.IDs); err != nil {
		return result, err
	}

	observeHedge(foreignName, "closed")
	logger.WithFields(logger.Fields{
		"base":     base,
		"foreign":  foreignSum.Amount.String(),
		"domestic": domesticSum.Amount.String(),
	}).Info("hedge closed")
	return result, nil
}

// Exposure ledger totals per venue for base
func (h *HedgeReconciler) Exposure(ctx context.Context, base string) (map[string]*models.HedgeSummary, error) {
	records, err := h.store.List(ctx, base)
	if err != nil {
		return nil, err
	}
	return models.Summarize(records), nil
}

// unwind closes everything the ledger holds for the foreign venue and base, then forgets it
func (h *HedgeReconciler) unwind(ctx context.Context, foreign *Engine, base, quote string) error {
	records, err := h.store.List(ctx, base)
	if err != nil {
		return fmt.Errorf("unwind: list ledger: %w", err)
	}
	sum := summaryOf(models.Summarize(records), foreign.Exchange().Name())
	if !sum.Amount.IsPositive() {
		return nil
	}

	if _, err := foreign.Close(ctx, closeIntent(foreign.Exchange().Name(), base, quote, sum.Amount)); err != nil {
		return fmt.Errorf("unwind: close foreign short: %w", err)
	}
	return h.deleteAll(ctx, sum.IDs)
}

func (h *HedgeReconciler) deleteAll(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := h.store.Delete(ctx, id); err != nil && !errors.Is(err, ledger.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete ledger record %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func closeIntent(exchangeName, base, quote string, amount decimal.Decimal) *models.OrderIntent {
	return &models.OrderIntent{
		Exchange: exchangeName,
		Base:     base,
		Quote:    quote,
		Kind:     models.MarketLinear,
		Side:     models.SideBuy,
		Action:   models.ActionClose,
		Type:     models.OrderMarket,
		Amount:   &amount,
	}
}

func summaryOf(sums map[string]*models.HedgeSummary, exchangeName string) *models.HedgeSummary {
	if s, ok := sums[exchangeName]; ok {
		return s
	}
	return &models.HedgeSummary{Exchange: exchangeName}
}

// baseAmount converts a linear contract count to base units; other quantities pass through
func baseAmount(m *models.Market, qty decimal.Decimal) decimal.Decimal {
	if m.Contract && !m.Inverse {
		return qty.Mul(contractSize(m))
	}
	return qty
}

func filledOr(o *models.Order, fallback decimal.Decimal) decimal.Decimal {
	if o != nil && o.Filled.IsPositive() {
		return o.Filled
	}
	return fallback
}

// keyedMutex serialises hedge operations per base asset within this process
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
