package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_trade/internal/models"
)

func spotIntent(side models.Side) *models.OrderIntent {
	return &models.OrderIntent{
		Exchange: "OKX",
		Base:     "BTC",
		Quote:    "USDT",
		Kind:     models.MarketSpot,
		Side:     side,
		Action:   models.ActionPlain,
		Type:     models.OrderMarket,
	}
}

func TestMarketSellWithholdsFee(t *testing.T) {
	ctx := context.Background()

	t.Run("amount sell", func(t *testing.T) {
		ex := newFakeExchange("OKX")
		ex.sellFee = dec("0.001")
		intent := spotIntent(models.SideSell)
		intent.Amount = decp("2")

		_, err := testEngine(ex).MarketSell(ctx, intent)
		require.NoError(t, err)
		require.Len(t, ex.created, 1)
		assert.Equal(t, "1.998", ex.created[0].Amount.String())
		assert.Equal(t, "1.998", intent.Resolved.String())
	})

	t.Run("percent sell reads the net balance", func(t *testing.T) {
		ex := newFakeExchange("OKX")
		ex.sellFee = dec("0.001")
		ex.free["BTC"] = dec("2")
		intent := spotIntent(models.SideSell)
		intent.Percent = decp("50")

		_, err := testEngine(ex).MarketSell(ctx, intent)
		require.NoError(t, err)
		require.Len(t, ex.created, 1)
		assert.Equal(t, "1", ex.created[0].Amount.String())
	})

	t.Run("buy untouched", func(t *testing.T) {
		ex := newFakeExchange("OKX")
		ex.sellFee = dec("0.001")
		intent := spotIntent(models.SideBuy)
		intent.Amount = decp("2")

		_, err := testEngine(ex).MarketBuy(ctx, intent)
		require.NoError(t, err)
		require.Len(t, ex.created, 1)
		assert.Equal(t, "2", ex.created[0].Amount.String())
	})

	t.Run("no fee rate", func(t *testing.T) {
		ex := newFakeExchange("UPBIT")
		intent := spotIntent(models.SideSell)
		intent.Amount = decp("2")

		_, err := testEngine(ex).MarketSell(ctx, intent)
		require.NoError(t, err)
		assert.Equal(t, "2", ex.created[0].Amount.String())
	})

	t.Run("fee rounds below the step", func(t *testing.T) {
		ex := newFakeExchange("OKX")
		ex.sellFee = dec("0.001")
		intent := spotIntent(models.SideSell)
		intent.Amount = decp("0.001")

		_, err := testEngine(ex).MarketSell(ctx, intent)
		assert.ErrorIs(t, err, ErrMinAmount)
		assert.Empty(t, ex.attempts)
	})
}
