package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_trade/internal/exchange"
)

func TestMarketMonitorInitialLoad(t *testing.T) {
	ok := newFakeExchange("BINANCE")
	broken := newFakeExchange("OKX")
	broken.loadErr = errors.New("maintenance")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMarketMonitor([]exchange.Exchange{ok, broken}, time.Hour)
	require.NoError(t, m.Start(ctx))

	updates := m.LastUpdate()
	assert.Contains(t, updates, "BINANCE")
	assert.NotContains(t, updates, "OKX")
	assert.Equal(t, 1, ok.loads)
	assert.Equal(t, 1, broken.loads)
}

func TestMarketMonitorFailsWhenNothingLoads(t *testing.T) {
	broken := newFakeExchange("OKX")
	broken.loadErr = errors.New("maintenance")

	m := NewMarketMonitor([]exchange.Exchange{broken}, time.Hour)
	assert.Error(t, m.Start(context.Background()))
	assert.Empty(t, m.LastUpdate())
}

func TestMarketMonitorRefreshes(t *testing.T) {
	venue := newFakeExchange("BINANCE")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMarketMonitor([]exchange.Exchange{venue}, 10*time.Millisecond)
	require.NoError(t, m.Start(ctx))

	assert.Eventually(t, func() bool {
		venue.mu.Lock()
		defer venue.mu.Unlock()
		return venue.loads >= 3
	}, time.Second, 5*time.Millisecond)
}
