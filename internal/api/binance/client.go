package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"signal_trade/internal/config"
	"signal_trade/internal/exchange"
	"signal_trade/internal/logger"
	"signal_trade/internal/models"
)

const (
	// Name venue name used in alerts and the ledger
	Name = "BINANCE"

	SpotBaseURL     = "https://api.binance.com"
	FuturesBaseURL  = "https://fapi.binance.com" // USDⓈ-M
	DeliveryBaseURL = "https://dapi.binance.com" // COIN-M
)

// endpoints of one API family
type endpoints struct {
	exchangeInfo string
	ticker       string
	balance      string
	positions    string
	openOrders   string
	order        string
	leverage     string
}

var familyEndpoints = map[models.MarketKind]endpoints{
	models.MarketSpot: {
		exchangeInfo: "/api/v3/exchangeInfo",
		ticker:       "/api/v3/ticker/price",
		balance:      "/api/v3/account",
		openOrders:   "/api/v3/openOrders",
		order:        "/api/v3/order",
	},
	models.MarketLinear: {
		exchangeInfo: "/fapi/v1/exchangeInfo",
		ticker:       "/fapi/v1/ticker/price",
		balance:      "/fapi/v2/balance",
		positions:    "/fapi/v2/positionRisk",
		openOrders:   "/fapi/v1/openOrders",
		order:        "/fapi/v1/order",
		leverage:     "/fapi/v1/leverage",
	},
	models.MarketInverse: {
		exchangeInfo: "/dapi/v1/exchangeInfo",
		ticker:       "/dapi/v1/ticker/price",
		balance:      "/dapi/v1/balance",
		positions:    "/dapi/v1/positionRisk",
		openOrders:   "/dapi/v1/openOrders",
		order:        "/dapi/v1/order",
		leverage:     "/dapi/v1/leverage",
	},
}

const dualSideEndpoint = "/fapi/v1/positionSide/dual"

// APIError error body returned by Binance
type APIError struct {
	Code       int    `json:"code"`
	Msg        string `json:"msg"`
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance: code=%d msg=%s status=%d", e.Code, e.Msg, e.StatusCode)
}

// Client Binance spot, USDⓈ-M and COIN-M REST client implementing exchange.Exchange
type Client struct {
	http      map[models.MarketKind]*resty.Client
	apiKey    string
	secretKey string
	limiter   *rate.Limiter
	now       func() time.Time

	configuredMode string
	swallow        bool

	mu      sync.RWMutex
	markets map[models.MarketKind]map[string]*models.Market
	mode    models.PositionMode
}

// NewClient client from config; empty base URLs fall back to production
func NewClient(cfg config.BinanceConfig) *Client {
	base := func(custom, def string) string {
		if custom != "" {
			return strings.TrimRight(custom, "/")
		}
		return def
	}
	newHTTP := func(url string) *resty.Client {
		return resty.New().
			SetBaseURL(url).
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/x-www-form-urlencoded")
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 10
	}

	mode := models.PositionModeOneWay
	if cfg.PositionMode == string(models.PositionModeHedge) {
		mode = models.PositionModeHedge
	}

	return &Client{
		http: map[models.MarketKind]*resty.Client{
			models.MarketSpot:    newHTTP(base(cfg.SpotBaseURL, SpotBaseURL)),
			models.MarketLinear:  newHTTP(base(cfg.FuturesBaseURL, FuturesBaseURL)),
			models.MarketInverse: newHTTP(base(cfg.DeliveryBaseURL, DeliveryBaseURL)),
		},
		apiKey:         cfg.APIKey,
		secretKey:      cfg.SecretKey,
		limiter:        rate.NewLimiter(rate.Limit(limit), int(limit)),
		now:            time.Now,
		configuredMode: cfg.PositionMode,
		swallow:        cfg.SwallowLeverageErrors,
		markets:        make(map[models.MarketKind]map[string]*models.Market),
		mode:           mode,
	}
}

func (c *Client) Name() string { return Name }

// Dialect parameter shaping for the current position mode
func (c *Client) Dialect() exchange.Dialect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Dialect{Mode: c.mode, Swallow: c.swallow}
}

// do sends one request; signed requests carry timestamp, recvWindow and signature
func (c *Client) do(ctx context.Context, kind models.MarketKind, method, path string, params map[string]string, signed bool, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var query string
	if signed {
		if c.apiKey == "" || c.secretKey == "" {
			return errors.New("binance: api key and secret are required")
		}
		query = signedQuery(params, c.secretKey, c.now())
	} else {
		query = BuildQueryString(params)
	}

	url := path
	if query != "" {
		url += "?" + query
	}

	req := c.http[kind].R().SetContext(ctx)
	if c.apiKey != "" {
		req.SetHeader("X-MBX-APIKEY", c.apiKey)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return errors.Wrapf(err, "binance %s %s", method, path)
	}
	if resp.StatusCode() != http.StatusOK {
		return handleHTTPError(resp.StatusCode(), resp.Body())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "binance: decode %s", path)
	}
	return nil
}

func handleHTTPError(statusCode int, body []byte) error {
	var errResp models.BinanceErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != 0 {
		return &APIError{Code: errResp.Code, Msg: errResp.Msg, StatusCode: statusCode}
	}
	return fmt.Errorf("binance: status %d: %s", statusCode, string(body))
}

// LoadMarkets loads exchangeInfo of every family and detects the futures position mode
func (c *Client) LoadMarkets(ctx context.Context) error {
	loaded := make(map[models.MarketKind]map[string]*models.Market, len(familyEndpoints))
	for kind, ep := range familyEndpoints {
		var info models.BinanceExchangeInfo
		if err := c.do(ctx, kind, http.MethodGet, ep.exchangeInfo, nil, false, &info); err != nil {
			return errors.Wrapf(err, "load %s markets", kind)
		}
		markets := make(map[string]*models.Market)
		for _, s := range info.Symbols {
			if !tradable(s, kind) {
				continue
			}
			m := toMarket(s, kind)
			markets[unifiedSymbol(m)] = m
		}
		loaded[kind] = markets
	}

	mode := c.currentMode()
	if c.configuredMode == "auto" && c.apiKey != "" {
		var dual struct {
			DualSidePosition bool `json:"dualSidePosition"`
		}
		if err := c.do(ctx, models.MarketLinear, http.MethodGet, dualSideEndpoint, map[string]string{}, true, &dual); err != nil {
			logger.Warnf("[%s] position mode detection failed, keeping %s: %v", Name, mode, err)
		} else if dual.DualSidePosition {
			mode = models.PositionModeHedge
		} else {
			mode = models.PositionModeOneWay
		}
	}

	c.mu.Lock()
	c.markets = loaded
	c.mode = mode
	c.mu.Unlock()

	logger.Infof("[%s] markets loaded: spot=%d usdm=%d coinm=%d mode=%s", Name,
		len(loaded[models.MarketSpot]), len(loaded[models.MarketLinear]), len(loaded[models.MarketInverse]), mode)
	return nil
}

func (c *Client) currentMode() models.PositionMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Market metadata of symbol (BASE/QUOTE) for kind
func (c *Client) Market(kind models.MarketKind, symbol string) (*models.Market, error) {
	base, quote, err := exchange.SplitSymbol(symbol)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.markets[kind][base+"/"+quote]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s on %s", exchange.ErrMarketNotFound, kind, symbol, Name)
	}
	return m, nil
}

func (c *Client) AmountToPrecision(kind models.MarketKind, symbol string, amount decimal.Decimal) (decimal.Decimal, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return exchange.AmountToPrecision(m, amount)
}

func (c *Client) PriceToPrecision(kind models.MarketKind, symbol string, price decimal.Decimal) (decimal.Decimal, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return exchange.PriceToPrecision(m, price)
}

func (c *Client) FetchTicker(ctx context.Context, kind models.MarketKind, symbol string) (decimal.Decimal, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return decimal.Zero, err
	}

	var raw json.RawMessage
	if err := c.do(ctx, kind, http.MethodGet, familyEndpoints[kind].ticker, map[string]string{"symbol": m.ID}, false, &raw); err != nil {
		return decimal.Zero, err
	}

	// COIN-M answers with an array even for a single symbol
	var tickers []models.BinanceTicker
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &tickers); err != nil {
			return decimal.Zero, err
		}
	} else {
		var t models.BinanceTicker
		if err := json.Unmarshal(raw, &t); err != nil {
			return decimal.Zero, err
		}
		tickers = append(tickers, t)
	}
	for _, t := range tickers {
		if t.Symbol == m.ID {
			return decimal.NewFromString(t.Price)
		}
	}
	return decimal.Zero, fmt.Errorf("binance: no ticker for %s", m.ID)
}

func (c *Client) FetchFreeBalance(ctx context.Context, kind models.MarketKind, asset string) (decimal.Decimal, error) {
	free, _, err := c.balance(ctx, kind, asset)
	return free, err
}

func (c *Client) FetchTotalBalance(ctx context.Context, kind models.MarketKind, asset string) (decimal.Decimal, error) {
	_, total, err := c.balance(ctx, kind, asset)
	return total, err
}

func (c *Client) balance(ctx context.Context, kind models.MarketKind, asset string) (decimal.Decimal, decimal.Decimal, error) {
	asset = strings.ToUpper(asset)
	ep := familyEndpoints[kind].balance

	if kind == models.MarketSpot {
		var account models.BinanceSpotAccount
		if err := c.do(ctx, kind, http.MethodGet, ep, map[string]string{}, true, &account); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		for _, b := range account.Balances {
			if b.Asset == asset {
				free, _ := decimal.NewFromString(b.Free)
				locked, _ := decimal.NewFromString(b.Locked)
				return free, free.Add(locked), nil
			}
		}
		return decimal.Zero, decimal.Zero, nil
	}

	var balances []models.BinanceFuturesBalance
	if err := c.do(ctx, kind, http.MethodGet, ep, map[string]string{}, true, &balances); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	for _, b := range balances {
		if b.Asset == asset {
			free, _ := decimal.NewFromString(b.AvailableBalance)
			total, _ := decimal.NewFromString(b.Balance)
			return free, total, nil
		}
	}
	return decimal.Zero, decimal.Zero, nil
}

func (c *Client) FetchPositions(ctx context.Context, kind models.MarketKind, symbol string) ([]models.Position, error) {
	if !kind.IsFutures() {
		return nil, exchange.ErrUnsupported
	}
	m, err := c.Market(kind, symbol)
	if err != nil {
		return nil, err
	}

	params := map[string]string{"symbol": m.ID}
	if kind == models.MarketInverse {
		params = map[string]string{"pair": m.Base + m.Quote}
	}
	var risks []models.BinancePositionRisk
	if err := c.do(ctx, kind, http.MethodGet, familyEndpoints[kind].positions, params, true, &risks); err != nil {
		return nil, err
	}

	var out []models.Position
	for _, r := range risks {
		if r.Symbol != m.ID {
			continue
		}
		size, _ := decimal.NewFromString(r.PositionAmt)
		entry, _ := decimal.NewFromString(r.EntryPrice)
		out = append(out, models.Position{
			Symbol:     symbol,
			Side:       positionSide(r.PositionSide),
			Size:       size,
			EntryPrice: entry,
		})
	}
	return out, nil
}

func positionSide(s string) models.PositionSide {
	switch s {
	case "LONG":
		return models.PositionLong
	case "SHORT":
		return models.PositionShort
	}
	return models.PositionNet
}

func (c *Client) FetchOpenOrders(ctx context.Context, kind models.MarketKind, symbol string) ([]models.Order, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return nil, err
	}
	var orders []models.BinanceOrder
	if err := c.do(ctx, kind, http.MethodGet, familyEndpoints[kind].openOrders, map[string]string{"symbol": m.ID}, true, &orders); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o, symbol))
	}
	return out, nil
}

func (c *Client) FetchOrder(ctx context.Context, kind models.MarketKind, symbol, id string) (*models.Order, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return nil, err
	}
	var o models.BinanceOrder
	if err := c.do(ctx, kind, http.MethodGet, familyEndpoints[kind].order, map[string]string{"symbol": m.ID, "orderId": id}, true, &o); err != nil {
		return nil, err
	}
	order := toOrder(o, symbol)
	return &order, nil
}

func (c *Client) CancelOrder(ctx context.Context, kind models.MarketKind, symbol string, order models.Order) error {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return err
	}
	return c.do(ctx, kind, http.MethodDelete, familyEndpoints[kind].order, map[string]string{"symbol": m.ID, "orderId": order.ID}, true, nil)
}

func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	m, err := c.Market(req.Kind, req.Symbol)
	if err != nil {
		return nil, err
	}
	qty, err := exchange.AmountToPrecision(m, req.Amount)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"symbol":           m.ID,
		"side":             strings.ToUpper(string(req.Side)),
		"quantity":         qty.String(),
		"newClientOrderId": "st-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
		"newOrderRespType": "RESULT",
	}
	switch req.Type {
	case string(models.OrderLimit):
		price, _ := exchange.PriceToPrecision(m, req.Price)
		params["type"] = "LIMIT"
		params["timeInForce"] = "GTC"
		params["price"] = price.String()
	case "stop_market":
		stop, _ := exchange.PriceToPrecision(m, req.StopPrice)
		params["type"] = "STOP_MARKET"
		if req.Kind == models.MarketSpot {
			params["type"] = "STOP_LOSS"
		}
		params["stopPrice"] = stop.String()
	default:
		params["type"] = "MARKET"
	}
	for k, v := range req.Params {
		params[k] = v
	}

	var o models.BinanceOrder
	if err := c.do(ctx, req.Kind, http.MethodPost, familyEndpoints[req.Kind].order, params, true, &o); err != nil {
		return nil, err
	}
	order := toOrder(o, req.Symbol)
	return &order, nil
}

func (c *Client) SetLeverage(ctx context.Context, kind models.MarketKind, symbol string, leverage int, params map[string]string) error {
	if !kind.IsFutures() {
		return exchange.ErrUnsupported
	}
	m, err := c.Market(kind, symbol)
	if err != nil {
		return err
	}
	p := map[string]string{"symbol": m.ID, "leverage": strconv.Itoa(leverage)}
	for k, v := range params {
		p[k] = v
	}
	return c.do(ctx, kind, http.MethodPost, familyEndpoints[kind].leverage, p, true, nil)
}

func toOrder(o models.BinanceOrder, symbol string) models.Order {
	amount, _ := decimal.NewFromString(o.OrigQty)
	filled, _ := decimal.NewFromString(o.ExecutedQty)
	price, _ := decimal.NewFromString(o.Price)
	if avg, err := decimal.NewFromString(o.AvgPrice); err == nil && avg.IsPositive() {
		price = avg
	}
	stop, _ := decimal.NewFromString(o.StopPrice)

	ts := o.UpdateTime
	if ts == 0 {
		ts = o.TransactTime
	}
	if ts == 0 {
		ts = o.Time
	}
	return models.Order{
		ID:        strconv.FormatInt(o.OrderID, 10),
		Symbol:    symbol,
		Type:      o.Type,
		Side:      models.Side(strings.ToLower(o.Side)),
		Status:    o.Status,
		Amount:    amount,
		Filled:    filled,
		Price:     price,
		StopPrice: stop,
		CreatedAt: time.UnixMilli(ts),
	}
}

// Markets loaded markets of kind sorted by symbol
func (c *Client) Markets(kind models.MarketKind) []*models.Market {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Market, 0, len(c.markets[kind]))
	for _, m := range c.markets[kind] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
