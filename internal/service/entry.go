package service

import (
	"context"
	"fmt"

	"signal_trade/internal/exchange"
	"signal_trade/internal/logger"
	"signal_trade/internal/models"
)

// EntryResult entry order plus the outcome of its protective legs.
// A failed leg never rolls back the entry; it is listed in LegErrors.
type EntryResult struct {
	Entry       *models.Order
	TakeProfits [4]*models.Order
	StopLoss    *models.Order
	Cancelled   []string
	LegErrors   []error
}

// Entry opens or adds to a position and attaches the take-profit ladder and stop-loss.
//
// Steps: size, set leverage (the dialect default when the intent names none), submit entry, wait for settlement, cancel stale stops,
// submit take-profit legs, submit stop-loss. The settle wait is a fixed delay, not a
// confirmation that the venue has processed the fill.
func (e *Engine) Entry(ctx context.Context, intent *models.OrderIntent) (*EntryResult, error) {
	intent.Action = models.ActionEntry
	qty, err := ResolveAmount(ctx, e.ex, intent)
	if err != nil {
		return nil, err
	}
	if qty.IsZero() {
		return nil, ErrMinAmount
	}

	if intent.Kind.IsFutures() {
		if intent.Leverage == 0 {
			intent.Leverage = e.ex.Dialect().DefaultLeverage()
		}
		if intent.Leverage > 0 {
			if err := e.setLeverage(ctx, intent); err != nil {
				return nil, err
			}
		}
	}

	entry, err := e.submit(ctx, stageEntry, e.retry.Entry, intent, e.request(intent, qty, models.ActionEntry))
	if err != nil {
		return nil, err
	}
	result := &EntryResult{Entry: entry}

	// protective legs are reduce-only and only exist on derivatives
	if !intent.Kind.IsFutures() {
		return result, nil
	}

	e.sleep(e.settle)
	result.Cancelled = e.cancelStopOrders(ctx, intent.Kind, intent.Symbol())

	e.placeTakeProfits(ctx, intent, result)
	e.placeStopLoss(ctx, intent, result)

	if len(result.LegErrors) > 0 {
		logger.WithFields(logger.Fields{
			"exchange": e.ex.Name(),
			"symbol":   intent.Symbol(),
			"entry_id": entry.ID,
			"failed":   len(result.LegErrors),
		}).Warn("entry placed with failed protective legs")
	}
	return result, nil
}

func (e *Engine) placeTakeProfits(ctx context.Context, intent *models.OrderIntent, result *EntryResult) {
	symbol := intent.Symbol()
	exitSide := intent.Side.Opposite()
	params := e.ex.Dialect().ReduceParams(exchange.Leg{
		Kind:       intent.Kind,
		Side:       exitSide,
		Action:     models.ActionClose,
		MarginMode: intent.MarginMode,
	})

	plan := PlanLadder(*intent.Resolved, intent.TakeProfits, e.digits.For(intent.Base))
	for i, leg := range intent.TakeProfits {
		if !leg.Enabled || !plan[i].IsPositive() || !leg.Price.IsPositive() {
			continue
		}

		price := leg.Price
		if p, err := e.ex.PriceToPrecision(intent.Kind, symbol, price); err == nil {
			price = p
		}
		req := models.OrderRequest{
			Symbol: symbol,
			Kind:   intent.Kind,
			Type:   string(models.OrderLimit),
			Side:   exitSide,
			Amount: plan[i],
			Price:  price,
			Params: params,
		}

		order, err := e.submit(ctx, stageTakeProfit, e.retry.TakeProfit, intent, req)
		if err != nil {
			logger.Errorf("[%s] take-profit %d on %s failed: %v", e.ex.Name(), i+1, symbol, err)
			result.LegErrors = append(result.LegErrors, fmt.Errorf("take-profit %d: %w", i+1, err))
			continue
		}
		result.TakeProfits[i] = order
	}
}

func (e *Engine) placeStopLoss(ctx context.Context, intent *models.OrderIntent, result *EntryResult) {
	if intent.StopLoss == nil || !intent.StopLoss.IsPositive() {
		return
	}

	req := e.stopRequest(intent.Kind, intent.Symbol(), intent.Side.Opposite(), *intent.Resolved, *intent.StopLoss, intent.MarginMode)
	order, err := e.submit(ctx, stageStopLoss, e.retry.StopLoss, intent, req)
	if err != nil {
		logger.Errorf("[%s] stop-loss on %s failed: %v", e.ex.Name(), intent.Symbol(), err)
		result.LegErrors = append(result.LegErrors, fmt.Errorf("stop-loss: %w", err))
		return
	}
	result.StopLoss = order
}
