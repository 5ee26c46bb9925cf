package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_trade/internal/models"
)

func TestRebindStopFlatPositionTouchesNothing(t *testing.T) {
	ex := newFakeExchange("BINANCE")
	ex.positions = []models.Position{{Side: models.PositionNet, Size: dec("0"), EntryPrice: dec("100")}}
	ex.open = []models.Order{{ID: "s1", Type: orderTypeStopMarket}}

	order, err := testEngine(ex).RebindStop(context.Background(), futuresIntent(models.SideBuy, models.ActionEntry))
	require.NoError(t, err)
	assert.Nil(t, order)
	assert.Zero(t, ex.openOrderCalls)
	assert.Empty(t, ex.cancelled)
	assert.Empty(t, ex.attempts)
}

func TestRebindStopLongAndShort(t *testing.T) {
	cases := []struct {
		name     string
		position models.Position
		side     models.Side
		stop     string
	}{
		{"long", models.Position{Side: models.PositionNet, Size: dec("1.5"), EntryPrice: dec("100")}, models.SideSell, "99.9"},
		{"short", models.Position{Side: models.PositionShort, Size: dec("-2"), EntryPrice: dec("100")}, models.SideBuy, "100.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ex := newFakeExchange("BINANCE")
			ex.positions = []models.Position{tc.position}
			ex.open = []models.Order{{ID: "s1", Type: orderTypeStopMarket}}

			order, err := testEngine(ex).RebindStop(context.Background(), futuresIntent(models.SideBuy, models.ActionEntry))
			require.NoError(t, err)
			require.NotNil(t, order)
			assert.Equal(t, []string{"s1"}, ex.cancelled)

			require.Len(t, ex.created, 1)
			req := ex.created[0]
			assert.Equal(t, orderTypeStopMarket, req.Type)
			assert.Equal(t, tc.side, req.Side)
			assert.Equal(t, tc.stop, req.StopPrice.String())
			assert.True(t, req.Amount.Equal(tc.position.Size.Abs()))
			assert.Equal(t, "true", req.Params["reduceOnly"])
		})
	}
}

func TestRebindStopFallsBackToMarketClose(t *testing.T) {
	ex := newFakeExchange("BINANCE")
	ex.positions = []models.Position{{Side: models.PositionLong, Size: dec("1"), EntryPrice: dec("100")}}
	ex.createErr = func(req models.OrderRequest) error {
		if req.Type == orderTypeStopMarket {
			return errors.New("would trigger immediately")
		}
		return nil
	}

	order, err := testEngine(ex).RebindStop(context.Background(), futuresIntent(models.SideBuy, models.ActionEntry))
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, ex.created, 1)
	assert.Equal(t, "market", ex.created[0].Type)
	assert.Equal(t, models.SideSell, ex.created[0].Side)
	assert.Equal(t, "true", ex.created[0].Params["reduceOnly"])
}

func TestRebindStopFallbackFailurePropagates(t *testing.T) {
	ex := newFakeExchange("BINANCE")
	ex.positions = []models.Position{{Side: models.PositionShort, Size: dec("-1"), EntryPrice: dec("100")}}
	cause := errors.New("exchange down")
	ex.createErr = func(models.OrderRequest) error { return cause }

	order, err := testEngine(ex).RebindStop(context.Background(), futuresIntent(models.SideBuy, models.ActionEntry))
	assert.Nil(t, order)
	var orderErr *OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, stageFallback, orderErr.Stage)
	assert.ErrorIs(t, err, cause)
}
