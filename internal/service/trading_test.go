package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_trade/internal/config"
	"signal_trade/internal/exchange"
	"signal_trade/internal/ledger"
	"signal_trade/internal/models"
)

func newTestService(t *testing.T) (*TradingService, *fakeExchange, *fakeExchange) {
	t.Helper()
	store, err := ledger.OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	binance := newFakeExchange("BINANCE")
	upbit := newFakeExchange("UPBIT")
	ts := NewTradingService(config.GetDefaultConfig(), []exchange.Exchange{binance, upbit}, store)
	for _, e := range ts.engines {
		e.sleep = noSleep
		e.submitter.sleep = noSleep
	}
	return ts, binance, upbit
}

func TestExecuteDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("entry", func(t *testing.T) {
		ts, binance, _ := newTestService(t)
		intent := futuresIntent(models.SideSell, models.ActionEntry)
		intent.Amount = decp("1")

		res, err := ts.Execute(ctx, intent, false)
		require.NoError(t, err)
		require.NotNil(t, res.Entry)
		assert.Same(t, res.Entry.Entry, res.Order)
		assert.Len(t, binance.created, 1)
	})

	t.Run("close", func(t *testing.T) {
		ts, binance, _ := newTestService(t)
		binance.positions = []models.Position{{Side: models.PositionLong, Size: dec("2")}}
		intent := futuresIntent(models.SideSell, models.ActionClose)
		intent.Percent = decp("100")

		res, err := ts.Execute(ctx, intent, false)
		require.NoError(t, err)
		require.NotNil(t, res.Order)
		require.Len(t, binance.created, 1)
		assert.Equal(t, "2", binance.created[0].Amount.String())
		assert.Equal(t, "true", binance.created[0].Params["reduceOnly"])
	})

	t.Run("spot buy and sell", func(t *testing.T) {
		ts, _, upbit := newTestService(t)
		buy := &models.OrderIntent{Exchange: "upbit", Base: "BTC", Quote: "KRW", Kind: models.MarketSpot,
			Side: models.SideBuy, Action: models.ActionPlain, Type: models.OrderMarket, Amount: decp("0.5")}
		_, err := ts.Execute(ctx, buy, false)
		require.NoError(t, err)

		sell := *buy
		sell.Side = models.SideSell
		_, err = ts.Execute(ctx, &sell, false)
		require.NoError(t, err)

		require.Len(t, upbit.created, 2)
		assert.Equal(t, models.SideBuy, upbit.created[0].Side)
		assert.Equal(t, models.SideSell, upbit.created[1].Side)
	})

	t.Run("change stop", func(t *testing.T) {
		ts, binance, _ := newTestService(t)
		res, err := ts.Execute(ctx, futuresIntent(models.SideBuy, models.ActionEntry), true)
		require.NoError(t, err)
		assert.Nil(t, res.Order)
		assert.Empty(t, binance.attempts)
	})

	t.Run("unknown exchange", func(t *testing.T) {
		ts, _, _ := newTestService(t)
		intent := futuresIntent(models.SideBuy, models.ActionEntry)
		intent.Exchange = "KRAKEN"
		_, err := ts.Execute(ctx, intent, false)
		assert.ErrorIs(t, err, ErrUnknownExchange)
	})
}

func TestHedgeThroughService(t *testing.T) {
	ts, _, upbit := newTestService(t)
	upbit.filled = dec("1")
	ctx := context.Background()

	_, err := ts.Hedge(ctx, HedgeRequest{Exchange: "BINANCE", Base: "BTC", Quote: "USDT", Amount: decp("1")}, true)
	require.NoError(t, err)

	exposure, err := ts.HedgeExposure(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, "1", exposure["BINANCE"].Amount.String())
	assert.Equal(t, "1", exposure["UPBIT"].Amount.String())

	_, err = ts.Hedge(ctx, HedgeRequest{Exchange: "BINANCE", Base: "BTC", Quote: "USDT"}, false)
	require.NoError(t, err)
	exposure, err = ts.HedgeExposure(ctx, "BTC")
	require.NoError(t, err)
	assert.Empty(t, exposure)
}

func TestVenues(t *testing.T) {
	ts, _, _ := newTestService(t)
	assert.Equal(t, []string{"BINANCE", "UPBIT"}, ts.Venues())
}
