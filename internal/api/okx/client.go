package okx

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
	Name = "OKX"

	BaseURL = "https://www.okx.com"
)

const (
	pathInstruments  = "/api/v5/public/instruments"
	pathTicker       = "/api/v5/market/ticker"
	pathAccountCfg   = "/api/v5/account/config"
	pathBalance      = "/api/v5/account/balance"
	pathPositions    = "/api/v5/account/positions"
	pathSetLeverage  = "/api/v5/account/set-leverage"
	pathOrder        = "/api/v5/trade/order"
	pathOrderAlgo    = "/api/v5/trade/order-algo"
	pathOrdersOpen   = "/api/v5/trade/orders-pending"
	pathAlgoOpen     = "/api/v5/trade/orders-algo-pending"
	pathCancelOrder  = "/api/v5/trade/cancel-order"
	pathCancelAlgos  = "/api/v5/trade/cancel-algos"
	algoConditional  = "conditional"
	instStateLive    = "live"
	longShortPosMode = "long_short_mode"
)

// boolParams order params OKX expects as JSON booleans
var boolParams = map[string]bool{"reduceOnly": true}

// APIError non-zero code in an OKX envelope or order result
type APIError struct {
	Code string
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("okx: code=%s msg=%s", e.Code, e.Msg)
}

// Client OKX v5 REST client implementing exchange.Exchange
type Client struct {
	http       *resty.Client
	apiKey     string
	secretKey  string
	passphrase string
	limiter    *rate.Limiter
	now        func() time.Time

	configuredMode string
	swallow        bool
	takerFee       decimal.Decimal

	mu      sync.RWMutex
	markets map[models.MarketKind]map[string]*models.Market
	mode    models.PositionMode
}

// NewClient client from config; an empty base URL falls back to production
func NewClient(cfg config.OKXConfig) *Client {
	base := BaseURL
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 10
	}
	fee, err := decimal.NewFromString(cfg.TakerFee)
	if err != nil || fee.IsNegative() {
		fee = decimal.Zero
	}
	mode := models.PositionModeOneWay
	if cfg.PositionMode == string(models.PositionModeHedge) {
		mode = models.PositionModeHedge
	}

	return &Client{
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json"),
		apiKey:         cfg.APIKey,
		secretKey:      cfg.SecretKey,
		passphrase:     cfg.Passphrase,
		limiter:        rate.NewLimiter(rate.Limit(limit), int(limit)),
		now:            time.Now,
		configuredMode: cfg.PositionMode,
		swallow:        cfg.SwallowLeverageErrors,
		takerFee:       fee,
		markets:        make(map[models.MarketKind]map[string]*models.Market),
		mode:           mode,
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Dialect() exchange.Dialect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Dialect{Mode: c.mode, Swallow: c.swallow, TakerFee: c.takerFee}
}

// do sends one request and decodes the data array of the envelope into out
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body interface{}, signed bool, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	requestPath := path
	if qs := encodeQuery(query); qs != "" {
		requestPath += "?" + qs
	}

	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "okx: encode body")
		}
		payload = string(raw)
	}

	req := c.http.R().SetContext(ctx)
	if payload != "" {
		req.SetBody(payload)
	}
	if signed {
		if c.apiKey == "" || c.secretKey == "" || c.passphrase == "" {
			return errors.New("okx: api key, secret and passphrase are required")
		}
		ts := Timestamp(c.now())
		req.SetHeaders(map[string]string{
			"OK-ACCESS-KEY":        c.apiKey,
			"OK-ACCESS-SIGN":       Sign(ts, method, requestPath, payload, c.secretKey),
			"OK-ACCESS-TIMESTAMP":  ts,
			"OK-ACCESS-PASSPHRASE": c.passphrase,
		})
	}

	resp, err := req.Execute(method, requestPath)
	if err != nil {
		return errors.Wrapf(err, "okx %s %s", method, path)
	}

	var env models.OKXResponse
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("okx: status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	if env.Code != "0" {
		// order endpoints put the reason in the per-item sMsg
		var items []models.OKXOrder
		if json.Unmarshal(env.Data, &items) == nil && len(items) > 0 && items[0].SCode != "" && items[0].SCode != "0" {
			return &APIError{Code: items[0].SCode, Msg: items[0].SMsg}
		}
		return &APIError{Code: env.Code, Msg: env.Msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrapf(err, "okx: decode %s", path)
	}
	return nil
}

func encodeQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// instID venue instrument id of a market
func instID(kind models.MarketKind, base, quote string) string {
	if kind.IsFutures() {
		return base + "-" + quote + "-SWAP"
	}
	return base + "-" + quote
}

func toMarket(inst models.OKXInstrument) (*models.Market, bool) {
	parts := strings.Split(inst.InstID, "-")
	if len(parts) < 2 || inst.State != instStateLive {
		return nil, false
	}

	m := &models.Market{
		ID:           inst.InstID,
		Base:         strings.ToUpper(parts[0]),
		Quote:        strings.ToUpper(parts[1]),
		Kind:         models.MarketSpot,
		ContractSize: decimal.NewFromInt(1),
	}
	switch inst.InstType {
	case "SPOT":
	case "SWAP":
		m.Contract = true
		m.Kind = models.MarketLinear
		if inst.CtType == "inverse" {
			m.Kind = models.MarketInverse
			m.Inverse = true
		}
		if v, err := decimal.NewFromString(inst.CtVal); err == nil && v.IsPositive() {
			m.ContractSize = v
		}
	default:
		return nil, false
	}
	m.AmountStep, _ = decimal.NewFromString(inst.LotSz)
	m.PriceStep, _ = decimal.NewFromString(inst.TickSz)
	m.MinAmount, _ = decimal.NewFromString(inst.MinSz)
	return m, true
}

// LoadMarkets loads spot and swap instruments and detects the position mode
func (c *Client) LoadMarkets(ctx context.Context) error {
	loaded := map[models.MarketKind]map[string]*models.Market{
		models.MarketSpot:    {},
		models.MarketLinear:  {},
		models.MarketInverse: {},
	}
	for _, instType := range []string{"SPOT", "SWAP"} {
		var insts []models.OKXInstrument
		if err := c.do(ctx, http.MethodGet, pathInstruments, map[string]string{"instType": instType}, nil, false, &insts); err != nil {
			return errors.Wrapf(err, "load %s instruments", instType)
		}
		for _, inst := range insts {
			if m, ok := toMarket(inst); ok {
				loaded[m.Kind][m.Base+"/"+m.Quote] = m
			}
		}
	}

	mode := c.currentMode()
	if c.configuredMode == "auto" && c.apiKey != "" {
		var cfg []struct {
			PosMode string `json:"posMode"`
		}
		if err := c.do(ctx, http.MethodGet, pathAccountCfg, nil, nil, true, &cfg); err != nil || len(cfg) == 0 {
			logger.Warnf("[%s] position mode detection failed, keeping %s: %v", Name, mode, err)
		} else if cfg[0].PosMode == longShortPosMode {
			mode = models.PositionModeHedge
		} else {
			mode = models.PositionModeOneWay
		}
	}

	c.mu.Lock()
	c.markets = loaded
	c.mode = mode
	c.mu.Unlock()

	logger.Infof("[%s] markets loaded: spot=%d linear=%d inverse=%d mode=%s", Name,
		len(loaded[models.MarketSpot]), len(loaded[models.MarketLinear]), len(loaded[models.MarketInverse]), mode)
	return nil
}

func (c *Client) currentMode() models.PositionMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

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
	var tickers []models.OKXTicker
	if err := c.do(ctx, http.MethodGet, pathTicker, map[string]string{"instId": m.ID}, nil, false, &tickers); err != nil {
		return decimal.Zero, err
	}
	if len(tickers) == 0 {
		return decimal.Zero, fmt.Errorf("okx: no ticker for %s", m.ID)
	}
	return decimal.NewFromString(tickers[0].Last)
}

// FetchFreeBalance available balance of the trading account; OKX keeps one account for every kind
func (c *Client) FetchFreeBalance(ctx context.Context, _ models.MarketKind, asset string) (decimal.Decimal, error) {
	free, _, err := c.balance(ctx, asset)
	return free, err
}

func (c *Client) FetchTotalBalance(ctx context.Context, _ models.MarketKind, asset string) (decimal.Decimal, error) {
	_, total, err := c.balance(ctx, asset)
	return total, err
}

func (c *Client) balance(ctx context.Context, asset string) (decimal.Decimal, decimal.Decimal, error) {
	asset = strings.ToUpper(asset)
	var balances []models.OKXBalance
	if err := c.do(ctx, http.MethodGet, pathBalance, map[string]string{"ccy": asset}, nil, true, &balances); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	for _, b := range balances {
		for _, d := range b.Details {
			if strings.ToUpper(d.Ccy) != asset {
				continue
			}
			free, _ := decimal.NewFromString(d.AvailBal)
			total, err := decimal.NewFromString(d.Eq)
			if err != nil {
				total, _ = decimal.NewFromString(d.CashBal)
			}
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
	var rows []models.OKXPosition
	if err := c.do(ctx, http.MethodGet, pathPositions, map[string]string{"instId": m.ID}, nil, true, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Position, 0, len(rows))
	for _, r := range rows {
		if r.InstID != m.ID {
			continue
		}
		size, _ := decimal.NewFromString(r.Pos)
		entry, _ := decimal.NewFromString(r.AvgPx)
		side := models.PositionSide(r.PosSide)
		if side != models.PositionLong && side != models.PositionShort {
			side = models.PositionNet
		}
		out = append(out, models.Position{Symbol: symbol, Side: side, Size: size, EntryPrice: entry})
	}
	return out, nil
}

// FetchOpenOrders regular pending orders followed by pending conditional algo orders
func (c *Client) FetchOpenOrders(ctx context.Context, kind models.MarketKind, symbol string) ([]models.Order, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return nil, err
	}

	var pending []models.OKXOrder
	if err := c.do(ctx, http.MethodGet, pathOrdersOpen, map[string]string{"instId": m.ID}, nil, true, &pending); err != nil {
		return nil, err
	}
	var algos []models.OKXAlgoOrder
	if err := c.do(ctx, http.MethodGet, pathAlgoOpen, map[string]string{"instId": m.ID, "ordType": algoConditional}, nil, true, &algos); err != nil {
		return nil, err
	}

	out := make([]models.Order, 0, len(pending)+len(algos))
	for _, o := range pending {
		out = append(out, toOrder(o, symbol))
	}
	for _, a := range algos {
		out = append(out, toAlgoOrder(a, symbol))
	}
	return out, nil
}

func (c *Client) FetchOrder(ctx context.Context, kind models.MarketKind, symbol, id string) (*models.Order, error) {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return nil, err
	}
	var orders []models.OKXOrder
	if err := c.do(ctx, http.MethodGet, pathOrder, map[string]string{"instId": m.ID, "ordId": id}, nil, true, &orders); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("okx: order %s not found", id)
	}
	order := toOrder(orders[0], symbol)
	return &order, nil
}

func (c *Client) CancelOrder(ctx context.Context, kind models.MarketKind, symbol string, order models.Order) error {
	m, err := c.Market(kind, symbol)
	if err != nil {
		return err
	}
	if order.Conditional {
		body := []map[string]string{{"algoId": order.ID, "instId": m.ID}}
		return c.do(ctx, http.MethodPost, pathCancelAlgos, nil, body, true, nil)
	}
	return c.do(ctx, http.MethodPost, pathCancelOrder, nil, map[string]string{"instId": m.ID, "ordId": order.ID}, true, nil)
}

// CreateOrder places regular orders on trade/order and stop orders as conditional algo orders
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	m, err := c.Market(req.Kind, req.Symbol)
	if err != nil {
		return nil, err
	}
	qty, err := exchange.AmountToPrecision(m, req.Amount)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"instId": m.ID,
		"side":   string(req.Side),
		"sz":     qty.String(),
	}
	for k, v := range req.Params {
		if boolParams[k] {
			b, _ := strconv.ParseBool(v)
			body[k] = b
			continue
		}
		body[k] = v
	}
	if _, ok := body["tdMode"]; !ok {
		body["tdMode"] = "cash"
		if req.Kind.IsFutures() {
			body["tdMode"] = string(models.MarginCross)
		}
	}

	if req.Type == "stop_market" {
		stop, _ := exchange.PriceToPrecision(m, req.StopPrice)
		body["ordType"] = algoConditional
		body["slTriggerPx"] = stop.String()
		body["slOrdPx"] = "-1"
		delete(body, "tgtCcy")

		var algos []models.OKXAlgoOrder
		if err := c.do(ctx, http.MethodPost, pathOrderAlgo, nil, body, true, &algos); err != nil {
			return nil, err
		}
		if len(algos) == 0 {
			return nil, errors.New("okx: empty algo order response")
		}
		if algos[0].SCode != "" && algos[0].SCode != "0" {
			return nil, &APIError{Code: algos[0].SCode, Msg: algos[0].SMsg}
		}
		return &models.Order{
			ID:          algos[0].AlgoID,
			Symbol:      req.Symbol,
			Type:        algoConditional,
			Side:        req.Side,
			Status:      "live",
			Amount:      qty,
			StopPrice:   stop,
			Conditional: true,
			CreatedAt:   c.now(),
		}, nil
	}

	body["clOrdId"] = "st" + strings.ReplaceAll(uuid.NewString(), "-", "")[:30]
	body["ordType"] = string(models.OrderMarket)
	if req.Type == string(models.OrderLimit) {
		price, _ := exchange.PriceToPrecision(m, req.Price)
		body["ordType"] = string(models.OrderLimit)
		body["px"] = price.String()
		// tgtCcy applies to spot market orders only
		delete(body, "tgtCcy")
	}

	var orders []models.OKXOrder
	if err := c.do(ctx, http.MethodPost, pathOrder, nil, body, true, &orders); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, errors.New("okx: empty order response")
	}
	if orders[0].SCode != "" && orders[0].SCode != "0" {
		return nil, &APIError{Code: orders[0].SCode, Msg: orders[0].SMsg}
	}
	return &models.Order{
		ID:        orders[0].OrdID,
		Symbol:    req.Symbol,
		Type:      body["ordType"].(string),
		Side:      req.Side,
		Status:    "live",
		Amount:    qty,
		Price:     req.Price,
		CreatedAt: c.now(),
	}, nil
}

func (c *Client) SetLeverage(ctx context.Context, kind models.MarketKind, symbol string, leverage int, params map[string]string) error {
	if !kind.IsFutures() {
		return exchange.ErrUnsupported
	}
	m, err := c.Market(kind, symbol)
	if err != nil {
		return err
	}
	body := map[string]string{
		"instId":  m.ID,
		"lever":   strconv.Itoa(leverage),
		"mgnMode": string(models.MarginCross),
	}
	for k, v := range params {
		body[k] = v
	}
	return c.do(ctx, http.MethodPost, pathSetLeverage, nil, body, true, nil)
}

func toOrder(o models.OKXOrder, symbol string) models.Order {
	amount, _ := decimal.NewFromString(o.Sz)
	filled, _ := decimal.NewFromString(o.AccFillSz)
	price, _ := decimal.NewFromString(o.Px)
	if avg, err := decimal.NewFromString(o.AvgPx); err == nil && avg.IsPositive() {
		price = avg
	}
	ms, _ := strconv.ParseInt(o.CTime, 10, 64)
	return models.Order{
		ID:        o.OrdID,
		Symbol:    symbol,
		Type:      o.OrdType,
		Side:      models.Side(o.Side),
		Status:    o.State,
		Amount:    amount,
		Filled:    filled,
		Price:     price,
		CreatedAt: time.UnixMilli(ms),
	}
}

func toAlgoOrder(a models.OKXAlgoOrder, symbol string) models.Order {
	amount, _ := decimal.NewFromString(a.Sz)
	stop, _ := decimal.NewFromString(a.SlTriggerPx)
	ms, _ := strconv.ParseInt(a.CTime, 10, 64)
	return models.Order{
		ID:          a.AlgoID,
		Symbol:      symbol,
		Type:        a.OrdType,
		Side:        models.Side(a.Side),
		Status:      a.State,
		Amount:      amount,
		StopPrice:   stop,
		Conditional: true,
		CreatedAt:   time.UnixMilli(ms),
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
