package service

import (
	"context"

	"github.com/shopspring/decimal"

	"signal_trade/internal/logger"
	"signal_trade/internal/models"
)

// RebindStop moves the protective stop of an open position next to its entry price.
// Long positions get a sell stop offset below entry, shorts a buy stop offset above.
// If the new stop cannot be placed the position is closed at market instead.
// A flat symbol returns (nil, nil) without touching orders.
func (e *Engine) RebindStop(ctx context.Context, intent *models.OrderIntent) (*models.Order, error) {
	symbol := intent.Symbol()
	positions, err := e.ex.FetchPositions(ctx, intent.Kind, symbol)
	if err != nil {
		return nil, err
	}

	var pos *models.Position
	for i := range positions {
		if !positions[i].Contracts().IsZero() {
			pos = &positions[i]
			break
		}
	}
	if pos == nil {
		logger.Infof("[%s] no open position on %s, stop unchanged", e.ex.Name(), symbol)
		return nil, nil
	}

	e.cancelStopOrders(ctx, intent.Kind, symbol)

	one := decimal.NewFromInt(1)
	side := models.SideBuy
	factor := one.Add(e.offset)
	if pos.IsLong() {
		side = models.SideSell
		factor = one.Sub(e.offset)
	}
	stopPrice := pos.EntryPrice.Mul(factor)
	qty := pos.Contracts()

	req := e.stopRequest(intent.Kind, symbol, side, qty, stopPrice, intent.MarginMode)
	order, err := e.submit(ctx, stageStopLoss, e.retry.StopLoss, intent, req)
	if err == nil {
		logger.Infof("[%s] stop on %s moved to %s", e.ex.Name(), symbol, req.StopPrice)
		return order, nil
	}

	logger.Errorf("[%s] new stop on %s failed, closing position at market: %v", e.ex.Name(), symbol, err)
	closeReq := models.OrderRequest{
		Symbol: symbol,
		Kind:   intent.Kind,
		Type:   string(models.OrderMarket),
		Side:   side,
		Amount: qty,
		Params: req.Params,
	}
	return e.submit(ctx, stageFallback, e.retry.Close, intent, closeReq)
}
