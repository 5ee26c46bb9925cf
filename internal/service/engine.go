package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"signal_trade/internal/config"
	"signal_trade/internal/exchange"
	"signal_trade/internal/logger"
	"signal_trade/internal/models"
)

// Submission stages used for retry budgets, logs and metrics
const (
	stageEntry      = "entry"
	stageClose      = "close"
	stageMarket     = "market"
	stageTakeProfit = "take_profit"
	stageStopLoss   = "stop_loss"
	stageFallback   = "fallback_close"
)

const orderTypeStopMarket = "stop_market"

// Engine order engine bound to one venue
type Engine struct {
	ex        exchange.Exchange
	submitter *RetryingSubmitter
	retry     config.RetryConfig
	settle    time.Duration
	offset    decimal.Decimal // breakeven offset as a fraction
	digits    LadderDigits
	sleep     func(time.Duration)
}

// NewEngine engine for ex using the trading settings
func NewEngine(ex exchange.Exchange, cfg config.TradingConfig) *Engine {
	offset, err := decimal.NewFromString(cfg.BreakevenOffsetPercent)
	if err != nil {
		offset = decimal.RequireFromString("0.1")
	}
	return &Engine{
		ex:        ex,
		submitter: NewRetryingSubmitter(ex.Name()),
		retry:     cfg.Retry,
		settle:    cfg.SettleDelay,
		offset:    offset.Div(hundred),
		digits:    LadderDigits{ByBase: cfg.LadderDigits, Default: cfg.DefaultLadderDigits},
		sleep:     time.Sleep,
	}
}

// Exchange venue the engine trades on
func (e *Engine) Exchange() exchange.Exchange {
	return e.ex
}

// Close reduces an open futures position at market, or at the intent price for limit closes
func (e *Engine) Close(ctx context.Context, intent *models.OrderIntent) (*models.Order, error) {
	qty, err := ResolveAmount(ctx, e.ex, intent)
	if err != nil {
		return nil, err
	}
	if qty.IsZero() {
		return nil, ErrMinAmount
	}

	req := e.request(intent, qty, models.ActionClose)
	return e.submit(ctx, stageClose, e.retry.Close, intent, req)
}

// MarketBuy plain spot buy
func (e *Engine) MarketBuy(ctx context.Context, intent *models.OrderIntent) (*models.Order, error) {
	return e.plainOrder(ctx, intent, models.SideBuy)
}

// MarketSell plain spot sell
func (e *Engine) MarketSell(ctx context.Context, intent *models.OrderIntent) (*models.Order, error) {
	return e.plainOrder(ctx, intent, models.SideSell)
}

func (e *Engine) plainOrder(ctx context.Context, intent *models.OrderIntent, side models.Side) (*models.Order, error) {
	intent.Side = side
	intent.Action = models.ActionPlain
	qty, err := ResolveAmount(ctx, e.ex, intent)
	if err != nil {
		return nil, err
	}
	if side == models.SideSell && intent.Amount != nil {
		if qty, err = e.withholdSellFee(intent, qty); err != nil {
			return nil, err
		}
	}
	if qty.IsZero() {
		return nil, ErrMinAmount
	}

	req := e.request(intent, qty, models.ActionPlain)
	return e.submit(ctx, stageMarket, e.retry.Market, intent, req)
}

// withholdSellFee shrinks an amount-sized sell by the venue's sell fee rate. Percent sells
// already read the post-fee balance.
func (e *Engine) withholdSellFee(intent *models.OrderIntent, qty decimal.Decimal) (decimal.Decimal, error) {
	rate := e.ex.Dialect().SellFeeRate()
	if !rate.IsPositive() {
		return qty, nil
	}
	net, err := e.ex.AmountToPrecision(intent.Kind, intent.Symbol(), qty.Mul(decimal.NewFromInt(1).Sub(rate)))
	if err != nil {
		return decimal.Zero, err
	}
	intent.Resolved = &net
	return net, nil
}

// request builds the primary order of an intent
func (e *Engine) request(intent *models.OrderIntent, qty decimal.Decimal, action models.Action) models.OrderRequest {
	req := models.OrderRequest{
		Symbol: intent.Symbol(),
		Kind:   intent.Kind,
		Type:   string(models.OrderMarket),
		Side:   intent.Side,
		Amount: qty,
		Params: e.ex.Dialect().OrderParams(exchange.Leg{
			Kind:       intent.Kind,
			Side:       intent.Side,
			Action:     action,
			MarginMode: intent.MarginMode,
		}),
	}
	if intent.Type == models.OrderLimit && intent.Price != nil {
		req.Type = string(models.OrderLimit)
		req.Price = *intent.Price
	}
	return req
}

// submit runs req through the retrying submitter and wraps exhaustion in an OrderError
func (e *Engine) submit(ctx context.Context, stage string, budget config.RetryBudget, intent *models.OrderIntent, req models.OrderRequest) (*models.Order, error) {
	res := e.submitter.Submit(stage, budget, func() (*models.Order, error) {
		return e.ex.CreateOrder(ctx, req)
	})
	observeOrder(e.ex.Name(), stage, res.Cause)
	if err := res.Err(stage); err != nil {
		return nil, &OrderError{Stage: stage, Intent: intent, Cause: err}
	}

	logger.WithFields(logger.Fields{
		"exchange": e.ex.Name(),
		"stage":    stage,
		"symbol":   req.Symbol,
		"side":     req.Side,
		"amount":   req.Amount.String(),
		"order_id": res.Order.ID,
		"attempts": res.Attempts,
	}).Info("order placed")
	return res.Order, nil
}

// cancelStopOrders cancels every open stop-type order of symbol; failures are logged and skipped
func (e *Engine) cancelStopOrders(ctx context.Context, kind models.MarketKind, symbol string) []string {
	orders, err := e.ex.FetchOpenOrders(ctx, kind, symbol)
	if err != nil {
		logger.Warnf("[%s] fetch open orders for %s failed, stale stops kept: %v", e.ex.Name(), symbol, err)
		return nil
	}

	dialect := e.ex.Dialect()
	var cancelled []string
	for _, o := range orders {
		if !dialect.IsStopOrder(o) {
			continue
		}
		if err := e.ex.CancelOrder(ctx, kind, symbol, o); err != nil {
			logger.Warnf("[%s] cancel stop order %s on %s failed: %v", e.ex.Name(), o.ID, symbol, err)
			continue
		}
		cancelled = append(cancelled, o.ID)
	}
	if len(cancelled) > 0 {
		logger.Infof("[%s] cancelled %d stop order(s) on %s", e.ex.Name(), len(cancelled), symbol)
	}
	return cancelled
}

// stopRequest reduce-only stop market order closing qty when stopPrice trades
func (e *Engine) stopRequest(kind models.MarketKind, symbol string, side models.Side, qty, stopPrice decimal.Decimal, margin models.MarginMode) models.OrderRequest {
	if p, err := e.ex.PriceToPrecision(kind, symbol, stopPrice); err == nil {
		stopPrice = p
	}
	return models.OrderRequest{
		Symbol:    symbol,
		Kind:      kind,
		Type:      orderTypeStopMarket,
		Side:      side,
		Amount:    qty,
		StopPrice: stopPrice,
		Params: e.ex.Dialect().ReduceParams(exchange.Leg{
			Kind:       kind,
			Side:       side,
			Action:     models.ActionClose,
			MarginMode: margin,
		}),
	}
}

func (e *Engine) setLeverage(ctx context.Context, intent *models.OrderIntent) error {
	dialect := e.ex.Dialect()
	params := dialect.LeverageParams(exchange.Leg{
		Kind:       intent.Kind,
		Side:       intent.Side,
		Action:     intent.Action,
		MarginMode: intent.MarginMode,
	})

	err := e.ex.SetLeverage(ctx, intent.Kind, intent.Symbol(), intent.Leverage, params)
	if err == nil {
		return nil
	}
	if dialect.SwallowLeverageErrors() {
		logger.Warnf("[%s] set leverage %dx on %s ignored: %v", e.ex.Name(), intent.Leverage, intent.Symbol(), err)
		return nil
	}
	return fmt.Errorf("set leverage %dx on %s: %w", intent.Leverage, intent.Symbol(), err)
}
