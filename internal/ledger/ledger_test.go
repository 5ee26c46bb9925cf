package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_trade/internal/config"
	"signal_trade/internal/models"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	mem, err := OpenBadger("")
	require.NoError(t, err)
	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		mem.Close()
		lite.Close()
	})
	return map[string]Store{"badger": mem, "sqlite": lite}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			start := time.Now().UTC().Add(-time.Minute)
			a, err := s.Create(ctx, models.HedgeRecord{Exchange: "BINANCE", Base: "btc", Quote: "USDT",
				Amount: decimal.RequireFromString("0.5"), CreatedAt: start})
			require.NoError(t, err)
			assert.NotEmpty(t, a.ID)
			assert.Equal(t, "BTC", a.Base)

			_, err = s.Create(ctx, models.HedgeRecord{Exchange: "UPBIT", Base: "BTC", Quote: "KRW",
				Amount: decimal.RequireFromString("0.499"), CreatedAt: start.Add(time.Second)})
			require.NoError(t, err)
			_, err = s.Create(ctx, models.HedgeRecord{Exchange: "BINANCE", Base: "ETH", Quote: "USDT",
				Amount: decimal.NewFromInt(2)})
			require.NoError(t, err)

			recs, err := s.List(ctx, "BTC")
			require.NoError(t, err)
			require.Len(t, recs, 2)
			assert.Equal(t, "BINANCE", recs[0].Exchange)
			assert.True(t, recs[0].Amount.Equal(decimal.RequireFromString("0.5")))

			require.NoError(t, s.Delete(ctx, a.ID))
			assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)

			recs, err = s.List(ctx, "btc")
			require.NoError(t, err)
			require.Len(t, recs, 1)
			assert.Equal(t, "UPBIT", recs[0].Exchange)
		})
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	s, err := Open(config.LedgerConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "x", "l.db")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(config.LedgerConfig{Driver: "pocketbase"})
	assert.Error(t, err)
}
