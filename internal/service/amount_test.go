package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_trade/internal/models"
)

func TestResolveAmountSizingErrors(t *testing.T) {
	ctx := context.Background()
	ex := newFakeExchange("BINANCE")

	for _, action := range []models.Action{models.ActionEntry, models.ActionClose, models.ActionPlain} {
		for _, side := range []models.Side{models.SideBuy, models.SideSell} {
			both := futuresIntent(side, action)
			both.Amount = decp("1")
			both.Percent = decp("10")
			_, err := ResolveAmount(ctx, ex, both)
			assert.ErrorIs(t, err, ErrAmbiguousSizing)

			neither := futuresIntent(side, action)
			_, err = ResolveAmount(ctx, ex, neither)
			assert.ErrorIs(t, err, ErrMissingSizing)
		}
	}
}

func TestResolveAmountFixedAmount(t *testing.T) {
	ctx := context.Background()

	t.Run("plain amount truncated to lot step", func(t *testing.T) {
		ex := newFakeExchange("BINANCE")
		intent := futuresIntent(models.SideBuy, models.ActionEntry)
		intent.Amount = decp("1.23456")

		qty, err := ResolveAmount(ctx, ex, intent)
		require.NoError(t, err)
		assert.Equal(t, "1.234", qty.String())
		require.NotNil(t, intent.Resolved)
		assert.True(t, intent.Resolved.Equal(qty))
	})

	t.Run("inverse contracts from notional", func(t *testing.T) {
		ex := newFakeExchange("BINANCE")
		ex.market.Contract = true
		ex.market.Inverse = true
		ex.market.ContractSize = dec("100")
		ex.market.AmountStep = dec("1")
		ex.price = dec("30000")
		intent := futuresIntent(models.SideBuy, models.ActionEntry)
		intent.Kind = models.MarketInverse
		intent.Amount = decp("0.0205")

		qty, err := ResolveAmount(ctx, ex, intent)
		require.NoError(t, err)
		// 0.0205 * 30000 / 100 = 6.15
		assert.Equal(t, "6", qty.String())
	})

	t.Run("linear contracts from base amount", func(t *testing.T) {
		ex := newFakeExchange("OKX")
		ex.market.Contract = true
		ex.market.ContractSize = dec("0.01")
		ex.market.AmountStep = dec("1")
		intent := futuresIntent(models.SideSell, models.ActionEntry)
		intent.Amount = decp("0.155")

		qty, err := ResolveAmount(ctx, ex, intent)
		require.NoError(t, err)
		assert.Equal(t, "15", qty.String())
	})
}

func TestResolveAmountPercentEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("linear keeps half a point back", func(t *testing.T) {
		ex := newFakeExchange("BINANCE")
		ex.free["USDT"] = dec("1000")
		intent := futuresIntent(models.SideBuy, models.ActionEntry)
		intent.Percent = decp("50.5")

		qty, err := ResolveAmount(ctx, ex, intent)
		require.NoError(t, err)
		// 1000 * 50% / 100
		assert.Equal(t, "5", qty.String())
	})

	t.Run("inverse contracts from base balance", func(t *testing.T) {
		ex := newFakeExchange("BINANCE")
		ex.market.Contract = true
		ex.market.Inverse = true
		ex.market.ContractSize = dec("100")
		ex.market.AmountStep = dec("1")
		ex.price = dec("30000")
		ex.free["BTC"] = dec("2")
		intent := futuresIntent(models.SideSell, models.ActionEntry)
		intent.Kind = models.MarketInverse
		intent.Percent = decp("50")

		qty, err := ResolveAmount(ctx, ex, intent)
		require.NoError(t, err)
		assert.Equal(t, "300", qty.String())
	})

	t.Run("total balance when requested", func(t *testing.T) {
		ex := newFakeExchange("BINANCE")
		ex.total["USDT"] = dec("2000")
		intent := futuresIntent(models.SideBuy, models.ActionEntry)
		intent.Percent = decp("10.5")
		intent.UseTotalBalance = true

		qty, err := ResolveAmount(ctx, ex, intent)
		require.NoError(t, err)
		assert.Equal(t, "2", qty.String())
	})

	t.Run("zero balance", func(t *testing.T) {
		ex := newFakeExchange("BINANCE")
		intent := futuresIntent(models.SideBuy, models.ActionEntry)
		intent.Percent = decp("10")

		_, err := ResolveAmount(ctx, ex, intent)
		assert.ErrorIs(t, err, ErrFreeAmountNone)
	})
}

func TestResolveAmountPercentClose(t *testing.T) {
	ctx := context.Background()

	ex := newFakeExchange("BINANCE")
	ex.positions = []models.Position{
		{Symbol: "BTC/USDT", Side: models.PositionShort, Size: dec("-4")},
		{Symbol: "BTC/USDT", Side: models.PositionLong, Size: dec("0")},
	}

	closeBuy := futuresIntent(models.SideBuy, models.ActionClose)
	closeBuy.Percent = decp("50")
	qty, err := ResolveAmount(ctx, ex, closeBuy)
	require.NoError(t, err)
	assert.Equal(t, "2", qty.String())

	closeSell := futuresIntent(models.SideSell, models.ActionClose)
	closeSell.Percent = decp("50")
	_, err = ResolveAmount(ctx, ex, closeSell)
	assert.ErrorIs(t, err, ErrLongPositionNone)

	ex.positions = nil
	_, err = ResolveAmount(ctx, ex, closeBuy)
	assert.ErrorIs(t, err, ErrPositionNone)
}

func TestResolveAmountNetPositionDirection(t *testing.T) {
	ex := newFakeExchange("BINANCE")
	ex.positions = []models.Position{{Side: models.PositionNet, Size: dec("-1.5")}}

	intent := futuresIntent(models.SideBuy, models.ActionClose)
	intent.Percent = decp("100")
	qty, err := ResolveAmount(context.Background(), ex, intent)
	require.NoError(t, err)
	assert.Equal(t, "1.5", qty.String())
}

func TestCloseWithoutShortSubmitsNothing(t *testing.T) {
	ex := newFakeExchange("BINANCE")
	ex.positions = []models.Position{{Side: models.PositionLong, Size: dec("3")}}
	engine := testEngine(ex)

	intent := futuresIntent(models.SideBuy, models.ActionClose)
	intent.Percent = decp("50")
	order, err := engine.Close(context.Background(), intent)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrShortPositionNone)
	assert.Empty(t, ex.attempts)
}

func TestResolveAmountSpotSell(t *testing.T) {
	ex := newFakeExchange("UPBIT")
	ex.free["BTC"] = dec("10")
	intent := &models.OrderIntent{
		Base: "BTC", Quote: "KRW", Kind: models.MarketSpot,
		Side: models.SideSell, Action: models.ActionPlain, Percent: decp("25"),
	}

	qty, err := ResolveAmount(context.Background(), ex, intent)
	require.NoError(t, err)
	assert.True(t, qty.Equal(decimal.RequireFromString("2.5")))
}
