package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"signal_trade/internal/config"
	"signal_trade/internal/exchange"
	"signal_trade/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type fakeDialect struct {
	swallow  bool
	leverage int
	sellFee  decimal.Decimal
}

func (d fakeDialect) OrderParams(leg exchange.Leg) map[string]string {
	if leg.Action == models.ActionClose {
		return map[string]string{"reduceOnly": "true"}
	}
	return map[string]string{}
}

func (d fakeDialect) ReduceParams(exchange.Leg) map[string]string {
	return map[string]string{"reduceOnly": "true"}
}

func (d fakeDialect) LeverageParams(exchange.Leg) map[string]string { return nil }

func (d fakeDialect) IsStopOrder(o models.Order) bool { return o.Type == orderTypeStopMarket }

func (d fakeDialect) SwallowLeverageErrors() bool { return d.swallow }

func (d fakeDialect) DefaultLeverage() int { return d.leverage }

func (d fakeDialect) SellFeeRate() decimal.Decimal { return d.sellFee }

// fakeExchange in-memory venue recording every call
type fakeExchange struct {
	name      string
	market    models.Market
	price     decimal.Decimal
	free      map[string]decimal.Decimal
	total     map[string]decimal.Decimal
	positions []models.Position
	open      []models.Order
	filled    decimal.Decimal
	swallow   bool
	leverage  int // dialect default leverage
	sellFee   decimal.Decimal

	loadErr     error
	leverageErr error
	createErr   func(req models.OrderRequest) error
	cancelErr   map[string]error

	mu             sync.Mutex
	loads          int
	attempts       []models.OrderRequest
	created        []models.OrderRequest
	cancelled      []string
	leverageCalls  int
	leverageSet    []int
	openOrderCalls int
	nextID         int
	calls          []string // call sequence, e.g. "create:market", "cancel:old-stop"
}

func newFakeExchange(name string) *fakeExchange {
	return &fakeExchange{
		name: name,
		market: models.Market{
			ID:         "BTCUSDT",
			AmountStep: dec("0.001"),
			PriceStep:  dec("0.01"),
		},
		price: dec("100"),
		free:  map[string]decimal.Decimal{},
		total: map[string]decimal.Decimal{},
	}
}

func (f *fakeExchange) Name() string { return f.name }

func (f *fakeExchange) LoadMarkets(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.loadErr
}

func (f *fakeExchange) Dialect() exchange.Dialect { return fakeDialect{swallow: f.swallow, leverage: f.leverage, sellFee: f.sellFee} }

func (f *fakeExchange) Market(models.MarketKind, string) (*models.Market, error) {
	m := f.market
	return &m, nil
}

func (f *fakeExchange) FetchTicker(context.Context, models.MarketKind, string) (decimal.Decimal, error) {
	return f.price, nil
}

func (f *fakeExchange) FetchFreeBalance(_ context.Context, _ models.MarketKind, asset string) (decimal.Decimal, error) {
	return f.free[asset], nil
}

func (f *fakeExchange) FetchTotalBalance(_ context.Context, _ models.MarketKind, asset string) (decimal.Decimal, error) {
	return f.total[asset], nil
}

func (f *fakeExchange) FetchPositions(context.Context, models.MarketKind, string) ([]models.Position, error) {
	return f.positions, nil
}

func (f *fakeExchange) FetchOpenOrders(context.Context, models.MarketKind, string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openOrderCalls++
	return f.open, nil
}

func (f *fakeExchange) FetchOrder(_ context.Context, _ models.MarketKind, symbol, id string) (*models.Order, error) {
	return &models.Order{ID: id, Symbol: symbol, Filled: f.filled}, nil
}

func (f *fakeExchange) CreateOrder(_ context.Context, req models.OrderRequest) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, req)
	if f.createErr != nil {
		if err := f.createErr(req); err != nil {
			return nil, err
		}
	}
	f.nextID++
	f.created = append(f.created, req)
	f.calls = append(f.calls, "create:"+req.Type)
	return &models.Order{
		ID:        fmt.Sprintf("%s-%d", f.name, f.nextID),
		Symbol:    req.Symbol,
		Type:      req.Type,
		Side:      req.Side,
		Amount:    req.Amount,
		Price:     req.Price,
		StopPrice: req.StopPrice,
		CreatedAt: time.Now(),
	}, nil
}

func (f *fakeExchange) CancelOrder(_ context.Context, _ models.MarketKind, _ string, o models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.cancelErr[o.ID]; err != nil {
		return err
	}
	f.cancelled = append(f.cancelled, o.ID)
	f.calls = append(f.calls, "cancel:"+o.ID)
	return nil
}

func (f *fakeExchange) SetLeverage(_ context.Context, _ models.MarketKind, _ string, leverage int, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leverageCalls++
	f.leverageSet = append(f.leverageSet, leverage)
	f.calls = append(f.calls, "leverage")
	return f.leverageErr
}

func (f *fakeExchange) AmountToPrecision(_ models.MarketKind, _ string, amount decimal.Decimal) (decimal.Decimal, error) {
	return exchange.AmountToPrecision(&f.market, amount)
}

func (f *fakeExchange) PriceToPrecision(_ models.MarketKind, _ string, price decimal.Decimal) (decimal.Decimal, error) {
	return exchange.PriceToPrecision(&f.market, price)
}

// createdOfType requests that succeeded with the given order type
func (f *fakeExchange) createdOfType(typ string) []models.OrderRequest {
	var out []models.OrderRequest
	for _, r := range f.created {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func noSleep(time.Duration) {}

func testEngine(ex exchange.Exchange) *Engine {
	e := NewEngine(ex, config.GetDefaultConfig().Trading)
	e.sleep = noSleep
	e.submitter.sleep = noSleep
	return e
}

func futuresIntent(side models.Side, action models.Action) *models.OrderIntent {
	return &models.OrderIntent{
		Exchange: "BINANCE",
		Base:     "BTC",
		Quote:    "USDT",
		Kind:     models.MarketLinear,
		Side:     side,
		Action:   action,
		Type:     models.OrderMarket,
	}
}
