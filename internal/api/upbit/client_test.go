package upbit

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_trade/internal/config"
	"signal_trade/internal/exchange"
	"signal_trade/internal/models"
)

type request struct {
	method string
	path   string
	query  string
	body   map[string]string
	auth   string
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]request) {
	t.Helper()
	var calls []request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := request{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.body)
		}
		calls = append(calls, rec)

		switch r.URL.Path {
		case "/v1/market/all":
			_, _ = w.Write([]byte(`[{"market":"KRW-BTC"},{"market":"KRW-SOL"},{"market":"BTC-ETH"}]`))
		case "/v1/ticker":
			_, _ = w.Write([]byte(`[{"market":"KRW-SOL","trade_price":251234.5}]`))
		default:
			handler(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.UpbitConfig{AccessKey: "access", SecretKey: "secret", BaseURL: srv.URL, RateLimit: 1000})
	require.NoError(t, c.LoadMarkets(context.Background()))
	return c, &calls
}

func parseClaims(t *testing.T, auth string) jwt.MapClaims {
	t.Helper()
	require.True(t, strings.HasPrefix(auth, "Bearer "))
	token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	return token.Claims.(jwt.MapClaims)
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestToken(t *testing.T) {
	token, err := Token("access", "secret", "market=KRW-BTC")
	require.NoError(t, err)
	claims := parseClaims(t, "Bearer "+token)
	assert.Equal(t, "access", claims["access_key"])
	assert.NotEmpty(t, claims["nonce"])
	assert.Equal(t, sha512Hex("market=KRW-BTC"), claims["query_hash"])
	assert.Equal(t, "SHA512", claims["query_hash_alg"])

	bare, err := Token("access", "secret", "")
	require.NoError(t, err)
	assert.NotContains(t, parseClaims(t, "Bearer "+bare), "query_hash")
}

func TestLoadMarkets(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	m, err := c.Market(models.MarketSpot, "sol/krw")
	require.NoError(t, err)
	assert.Equal(t, "KRW-SOL", m.ID)
	assert.Equal(t, "SOL", m.Base)
	assert.Equal(t, "KRW", m.Quote)

	_, err = c.Market(models.MarketSpot, "ETH/BTC")
	require.NoError(t, err)

	_, err = c.Market(models.MarketLinear, "SOL/KRW")
	assert.ErrorIs(t, err, exchange.ErrUnsupported)
}

func TestPriceToPrecision(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		in, want string
	}{
		{"95123456", "95123000"},
		{"1234567", "1234500"},
		{"251234.5", "251200"},
		{"54321.9", "54320"},
		{"1234.56", "1234"},
		{"512.34", "512.3"},
	}
	for _, tt := range tests {
		got, err := c.PriceToPrecision(models.MarketSpot, "BTC/KRW", decimal.RequireFromString(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

func TestMarketBuySendsQuoteBudget(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uuid":"9ca023a5-851b-4fec-9f0a-48cd83c2eaae","side":"bid","ord_type":"price","price":"502469","state":"wait","market":"KRW-SOL","created_at":"2024-01-02T12:00:00+09:00"}`))
	})

	order, err := c.CreateOrder(context.Background(), models.OrderRequest{
		Symbol: "SOL/KRW",
		Kind:   models.MarketSpot,
		Type:   "market",
		Side:   models.SideBuy,
		Amount: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "9ca023a5-851b-4fec-9f0a-48cd83c2eaae", order.ID)
	assert.Equal(t, models.SideBuy, order.Side)
	assert.True(t, order.Amount.Equal(decimal.NewFromInt(2)))

	last := (*calls)[len(*calls)-1]
	assert.Equal(t, http.MethodPost, last.method)
	assert.Equal(t, "/v1/orders", last.path)
	assert.Equal(t, map[string]string{"market": "KRW-SOL", "side": "bid", "ord_type": "price", "price": "502469"}, last.body)

	claims := parseClaims(t, last.auth)
	assert.Equal(t, sha512Hex("market=KRW-SOL&ord_type=price&price=502469&side=bid"), claims["query_hash"])
}

func TestMarketSellSendsVolume(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uuid":"u-1","side":"ask","ord_type":"market","volume":"1.5","state":"wait","market":"KRW-SOL"}`))
	})

	_, err := c.CreateOrder(context.Background(), models.OrderRequest{
		Symbol: "SOL/KRW",
		Kind:   models.MarketSpot,
		Type:   "market",
		Side:   models.SideSell,
		Amount: decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)

	last := (*calls)[len(*calls)-1]
	assert.Equal(t, map[string]string{"market": "KRW-SOL", "side": "ask", "ord_type": "market", "volume": "1.5"}, last.body)
}

func TestFetchOrderFill(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uuid":"u-1","side":"bid","ord_type":"price","price":"502469","state":"cancel","market":"KRW-SOL","executed_volume":"1.99987"}`))
	})

	order, err := c.FetchOrder(context.Background(), models.MarketSpot, "SOL/KRW", "u-1")
	require.NoError(t, err)
	assert.True(t, order.Filled.Equal(decimal.RequireFromString("1.99987")))

	last := (*calls)[len(*calls)-1]
	assert.Equal(t, "uuid=u-1", last.query)
	assert.Equal(t, sha512Hex("uuid=u-1"), parseClaims(t, last.auth)["query_hash"])
}

func TestAPIError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"name":"insufficient_funds_bid","message":"not enough KRW"}}`))
	})

	_, err := c.FetchFreeBalance(context.Background(), models.MarketSpot, "KRW")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "insufficient_funds_bid", apiErr.Name)
}

func TestFuturesUnsupported(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	_, err := c.FetchPositions(ctx, models.MarketLinear, "SOL/KRW")
	assert.ErrorIs(t, err, exchange.ErrUnsupported)
	assert.ErrorIs(t, c.SetLeverage(ctx, models.MarketLinear, "SOL/KRW", 3, nil), exchange.ErrUnsupported)
	_, err = c.CreateOrder(ctx, models.OrderRequest{Symbol: "SOL/KRW", Kind: models.MarketInverse, Type: "market", Side: models.SideBuy})
	assert.ErrorIs(t, err, exchange.ErrUnsupported)
}
