package api

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_trade/internal/models"
)

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestParseSide(t *testing.T) {
	tests := []struct {
		raw    string
		action models.Action
		side   models.Side
	}{
		{"entry/buy", models.ActionEntry, models.SideBuy},
		{"ENTRY/SELL", models.ActionEntry, models.SideSell},
		{"close/buy", models.ActionClose, models.SideBuy},
		{"close/sell", models.ActionClose, models.SideSell},
		{"buy", models.ActionPlain, models.SideBuy},
		{" sell ", models.ActionPlain, models.SideSell},
	}
	for _, tt := range tests {
		action, side, err := parseSide(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.action, action, tt.raw)
		assert.Equal(t, tt.side, side, tt.raw)
	}

	for _, bad := range []string{"", "hold", "open/buy", "entry/hold"} {
		_, _, err := parseSide(bad)
		assert.ErrorIs(t, err, ErrInvalidAlert, bad)
	}
}

func TestAlertKindInference(t *testing.T) {
	tests := []struct {
		name  string
		alert Alert
		want  models.MarketKind
	}{
		{"entry on USDT is linear", Alert{Side: "entry/buy", Quote: "USDT"}, models.MarketLinear},
		{"entry on USD is inverse", Alert{Side: "entry/sell", Quote: "usd"}, models.MarketInverse},
		{"plain side is spot", Alert{Side: "buy", Quote: "KRW"}, models.MarketSpot},
		{"explicit inverse", Alert{Side: "close/buy", Quote: "USDT", Market: "inverse"}, models.MarketInverse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.alert.Exchange, tt.alert.Base = "binance", "btc"
			intent, err := tt.alert.Intent()
			require.NoError(t, err)
			assert.Equal(t, tt.want, intent.Kind)
			assert.Equal(t, "BINANCE", intent.Exchange)
			assert.Equal(t, "BTC/"+intent.Quote, intent.Symbol())
		})
	}
}

func TestAlertInvalid(t *testing.T) {
	tests := []struct {
		name  string
		alert Alert
	}{
		{"plain on futures", Alert{Side: "buy", Quote: "USDT", Market: "futures"}},
		{"entry on spot", Alert{Side: "entry/buy", Quote: "USDT", Market: "spot"}},
		{"limit without price", Alert{Side: "entry/buy", Quote: "USDT", Type: "limit"}},
		{"unknown type", Alert{Side: "entry/buy", Quote: "USDT", Type: "iceberg"}},
		{"unknown margin", Alert{Side: "entry/buy", Quote: "USDT", MarginMode: "portfolio"}},
		{"unknown market", Alert{Side: "entry/buy", Quote: "USDT", Market: "options"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.alert.Intent()
			assert.ErrorIs(t, err, ErrInvalidAlert)
		})
	}
}

func TestAlertTakeProfitsAndStop(t *testing.T) {
	off := false
	alert := Alert{
		Exchange:      "OKX",
		Base:          "ETH",
		Quote:         "USDT",
		Side:          "entry/buy",
		Type:          "limit",
		Price:         decp("3000"),
		Percent:       decp("20"),
		Leverage:      5,
		MarginMode:    "ISOLATED",
		TP1Price:      decp("3100"),
		TP1QtyPercent: decp("50"),
		TP2Price:      decp("3200"),
		TP2QtyPercent: decp("50"),
		UseTP2:        &off,
		TP3QtyPercent: decp("25"),
		SLPrice:       decp("2900"),
		IsTotal:       true,
	}

	intent, err := alert.Intent()
	require.NoError(t, err)
	assert.Equal(t, models.OrderLimit, intent.Type)
	assert.Equal(t, models.MarginIsolated, intent.MarginMode)
	assert.Equal(t, 5, intent.Leverage)
	assert.True(t, intent.UseTotalBalance)
	assert.True(t, intent.StopLoss.Equal(decimal.NewFromInt(2900)))

	assert.True(t, intent.TakeProfits[0].Enabled)
	assert.False(t, intent.TakeProfits[1].Enabled, "explicit use_tp2=false")
	assert.False(t, intent.TakeProfits[2].Enabled, "no price")
	assert.False(t, intent.TakeProfits[3].Enabled)
}

func TestHedgeAlertRequest(t *testing.T) {
	h := HedgeAlert{Exchange: "binance", Base: "sol", Amount: decp("2"), Leverage: 3, Hedge: "on"}
	req, on, err := h.Request()
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, "BINANCE", req.Exchange)
	assert.Equal(t, "SOL", req.Base)
	assert.Equal(t, "USDT", req.Quote)
	assert.Equal(t, 3, req.Leverage)

	h.Hedge = "OFF"
	_, on, err = h.Request()
	require.NoError(t, err)
	assert.False(t, on)

	h.Hedge = "toggle"
	_, _, err = h.Request()
	assert.ErrorIs(t, err, ErrInvalidAlert)
}
