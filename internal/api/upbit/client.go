package upbit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
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
	Name = "UPBIT"

	BaseURL = "https://api.upbit.com"
)

const (
	sideBid = "bid"
	sideAsk = "ask"

	ordTypeLimit  = "limit"
	ordTypePrice  = "price"  // market buy sized in quote currency
	ordTypeMarket = "market" // market sell sized in volume
)

var volumeStep = decimal.New(1, -8)

// APIError error body returned by Upbit
type APIError struct {
	Name       string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upbit: %s: %s (status %d)", e.Name, e.Message, e.StatusCode)
}

// Client Upbit spot REST client. Futures operations return exchange.ErrUnsupported.
type Client struct {
	http      *resty.Client
	accessKey string
	secretKey string
	limiter   *rate.Limiter

	mu      sync.RWMutex
	markets map[string]*models.Market
}

func NewClient(cfg config.UpbitConfig) *Client {
	base := BaseURL
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 8
	}
	return &Client{
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json"),
		accessKey: cfg.AccessKey,
		secretKey: cfg.SecretKey,
		limiter:   rate.NewLimiter(rate.Limit(limit), int(limit)),
		markets:   make(map[string]*models.Market),
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Dialect() exchange.Dialect { return Dialect{} }

// do sends one request. GET and DELETE carry params in the query, POST in a JSON body.
func (c *Client) do(ctx context.Context, method, path string, params map[string]string, signed bool, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	query := encodeParams(params)
	req := c.http.R().SetContext(ctx)
	url := path
	if method == http.MethodPost {
		body := make(map[string]string, len(params))
		for k, v := range params {
			if v != "" {
				body[k] = v
			}
		}
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	} else if query != "" {
		url += "?" + query
	}

	if signed {
		if c.accessKey == "" || c.secretKey == "" {
			return errors.New("upbit: access key and secret are required")
		}
		token, err := Token(c.accessKey, c.secretKey, query)
		if err != nil {
			return errors.Wrap(err, "upbit: sign request")
		}
		req.SetAuthToken(token)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return errors.Wrapf(err, "upbit %s %s", method, path)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		var errResp models.UpbitErrorResponse
		if json.Unmarshal(resp.Body(), &errResp) == nil && errResp.Error.Name != "" {
			return &APIError{Name: errResp.Error.Name, Message: errResp.Error.Message, StatusCode: resp.StatusCode()}
		}
		return fmt.Errorf("upbit: status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "upbit: decode %s", path)
	}
	return nil
}

// LoadMarkets loads every listed market; Upbit ids are QUOTE-BASE
func (c *Client) LoadMarkets(ctx context.Context) error {
	var listed []models.UpbitMarket
	if err := c.do(ctx, http.MethodGet, "/v1/market/all", nil, false, &listed); err != nil {
		return errors.Wrap(err, "load markets")
	}

	markets := make(map[string]*models.Market, len(listed))
	for _, l := range listed {
		parts := strings.SplitN(l.Market, "-", 2)
		if len(parts) != 2 {
			continue
		}
		m := &models.Market{
			ID:           l.Market,
			Base:         strings.ToUpper(parts[1]),
			Quote:        strings.ToUpper(parts[0]),
			Kind:         models.MarketSpot,
			ContractSize: decimal.NewFromInt(1),
			AmountStep:   volumeStep,
		}
		markets[m.Base+"/"+m.Quote] = m
	}

	c.mu.Lock()
	c.markets = markets
	c.mu.Unlock()
	logger.Infof("[%s] markets loaded: spot=%d", Name, len(markets))
	return nil
}

func (c *Client) Market(kind models.MarketKind, symbol string) (*models.Market, error) {
	if kind != models.MarketSpot {
		return nil, fmt.Errorf("%w: %s markets on %s", exchange.ErrUnsupported, kind, Name)
	}
	base, quote, err := exchange.SplitSymbol(symbol)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.markets[base+"/"+quote]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", exchange.ErrMarketNotFound, symbol, Name)
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

// PriceToPrecision rounds to the KRW tick of the price band
func (c *Client) PriceToPrecision(kind models.MarketKind, symbol string, price decimal.Decimal) (decimal.Decimal, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if m.Quote != "KRW" {
		return price.Round(8), nil
	}
	tick := krwTick(price)
	return exchange.TruncateToStep(price, tick).Truncate(exchange.StepPrecision(tick)), nil
}

var krwBands = []struct {
	min  decimal.Decimal
	tick decimal.Decimal
}{
	{decimal.NewFromInt(2000000), decimal.NewFromInt(1000)},
	{decimal.NewFromInt(1000000), decimal.NewFromInt(500)},
	{decimal.NewFromInt(500000), decimal.NewFromInt(100)},
	{decimal.NewFromInt(100000), decimal.NewFromInt(50)},
	{decimal.NewFromInt(10000), decimal.NewFromInt(10)},
	{decimal.NewFromInt(1000), decimal.NewFromInt(1)},
	{decimal.NewFromInt(100), decimal.New(1, -1)},
	{decimal.NewFromInt(10), decimal.New(1, -2)},
	{decimal.NewFromInt(1), decimal.New(1, -3)},
}

func krwTick(price decimal.Decimal) decimal.Decimal {
	for _, b := range krwBands {
		if price.GreaterThanOrEqual(b.min) {
			return b.tick
		}
	}
	return decimal.New(1, -4)
}

func (c *Client) FetchTicker(ctx context.Context, kind models.MarketKind, symbol string) (decimal.Decimal, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	var tickers []models.UpbitTicker
	if err := c.do(ctx, http.MethodGet, "/v1/ticker", map[string]string{"markets": m.ID}, false, &tickers); err != nil {
		return decimal.Zero, err
	}
	for _, t := range tickers {
		if t.Market == m.ID {
			return decimal.NewFromFloat(t.TradePrice), nil
		}
	}
	return decimal.Zero, fmt.Errorf("upbit: no ticker for %s", m.ID)
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
	if kind != models.MarketSpot {
		return decimal.Zero, decimal.Zero, exchange.ErrUnsupported
	}
	var accounts []models.UpbitAccount
	if err := c.do(ctx, http.MethodGet, "/v1/accounts", nil, true, &accounts); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	asset = strings.ToUpper(asset)
	for _, a := range accounts {
		if strings.ToUpper(a.Currency) == asset {
			free, _ := decimal.NewFromString(a.Balance)
			locked, _ := decimal.NewFromString(a.Locked)
			return free, free.Add(locked), nil
		}
	}
	return decimal.Zero, decimal.Zero, nil
}

func (c *Client) FetchPositions(context.Context, models.MarketKind, string) ([]models.Position, error) {
	return nil, exchange.ErrUnsupported
}

func (c *Client) SetLeverage(context.Context, models.MarketKind, string, int, map[string]string) error {
	return exchange.ErrUnsupported
}

func (c *Client) FetchOpenOrders(ctx context.Context, kind models.MarketKind, symbol string) ([]models.Order, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return nil, err
	}
	var orders []models.UpbitOrder
	if err := c.do(ctx, http.MethodGet, "/v1/orders/open", map[string]string{"market": m.ID}, true, &orders); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o, symbol))
	}
	return out, nil
}

func (c *Client) FetchOrder(ctx context.Context, kind models.MarketKind, symbol, id string) (*models.Order, error) {
	if _, err := c.Market(kind, symbol); err != nil {
		return nil, err
	}
	var o models.UpbitOrder
	if err := c.do(ctx, http.MethodGet, "/v1/order", map[string]string{"uuid": id}, true, &o); err != nil {
		return nil, err
	}
	order := toOrder(o, symbol)
	return &order, nil
}

func (c *Client) CancelOrder(ctx context.Context, kind models.MarketKind, symbol string, order models.Order) error {
	if _, err := c.Market(kind, symbol); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/v1/order", map[string]string{"uuid": order.ID}, true, nil)
}

// CreateOrder market buys are sent as ord_type=price with a quote budget of amount x last price
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	if req.Kind != models.MarketSpot {
		return nil, exchange.ErrUnsupported
	}
	m, err := c.Market(req.Kind, req.Symbol)
	if err != nil {
		return nil, err
	}
	qty, err := exchange.AmountToPrecision(m, req.Amount)
	if err != nil {
		return nil, err
	}

	params := map[string]string{"market": m.ID, "side": sideAsk}
	if req.Side == models.SideBuy {
		params["side"] = sideBid
	}

	switch {
	case req.Type == string(models.OrderLimit):
		price, err := c.PriceToPrecision(req.Kind, req.Symbol, req.Price)
		if err != nil {
			return nil, err
		}
		params["ord_type"] = ordTypeLimit
		params["price"] = price.String()
		params["volume"] = qty.String()
	case req.Type == string(models.OrderMarket) && req.Side == models.SideBuy:
		last, err := c.FetchTicker(ctx, req.Kind, req.Symbol)
		if err != nil {
			return nil, err
		}
		cost := qty.Mul(last)
		if m.Quote == "KRW" {
			cost = cost.Floor()
		}
		params["ord_type"] = ordTypePrice
		params["price"] = cost.String()
	case req.Type == string(models.OrderMarket):
		params["ord_type"] = ordTypeMarket
		params["volume"] = qty.String()
	default:
		return nil, fmt.Errorf("%w: %s orders on %s", exchange.ErrUnsupported, req.Type, Name)
	}

	var o models.UpbitOrder
	if err := c.do(ctx, http.MethodPost, "/v1/orders", params, true, &o); err != nil {
		return nil, err
	}
	order := toOrder(o, req.Symbol)
	if order.Amount.IsZero() {
		order.Amount = qty
	}
	return &order, nil
}

func toOrder(o models.UpbitOrder, symbol string) models.Order {
	side := models.SideSell
	if o.Side == sideBid {
		side = models.SideBuy
	}
	amount, _ := decimal.NewFromString(o.Volume)
	filled, _ := decimal.NewFromString(o.ExecutedVolume)
	price, _ := decimal.NewFromString(o.Price)
	created, _ := time.Parse(time.RFC3339, o.CreatedAt)
	return models.Order{
		ID:        o.UUID,
		Symbol:    symbol,
		Type:      o.OrdType,
		Side:      side,
		Status:    o.State,
		Amount:    amount,
		Filled:    filled,
		Price:     price,
		CreatedAt: created,
	}
}

// Markets loaded markets sorted by id; Upbit lists spot only
func (c *Client) Markets(kind models.MarketKind) []*models.Market {
	if kind != models.MarketSpot {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Market, 0, len(c.markets))
	for _, m := range c.markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
