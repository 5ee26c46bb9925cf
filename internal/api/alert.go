package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"signal_trade/internal/models"
	"signal_trade/internal/service"
)

// ErrInvalidAlert alert body cannot be turned into an order intent
var ErrInvalidAlert = errors.New("invalid alert")

// tradingViewPlaceholder body TradingView sends when the alert message was never filled in
const tradingViewPlaceholder = "{{strategy.order.alert_message}}"

// Alert webhook order payload
type Alert struct {
	Password   string           `json:"password"`
	Exchange   string           `json:"exchange" binding:"required"`
	Base       string           `json:"base" binding:"required"`
	Quote      string           `json:"quote" binding:"required"`
	Type       string           `json:"type,omitempty"` // market (default) or limit
	Side       string           `json:"side" binding:"required"`
	Market     string           `json:"market,omitempty"` // spot, futures or inverse; inferred when empty
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Percent    *decimal.Decimal `json:"percent,omitempty"`
	Price      *decimal.Decimal `json:"price,omitempty"`
	Leverage   int              `json:"leverage,omitempty"`
	MarginMode string           `json:"margin_mode,omitempty"`

	TP1Price      *decimal.Decimal `json:"tp1_price,omitempty"`
	TP1QtyPercent *decimal.Decimal `json:"tp1_qty_percent,omitempty"`
	UseTP1        *bool            `json:"use_tp1,omitempty"`
	TP2Price      *decimal.Decimal `json:"tp2_price,omitempty"`
	TP2QtyPercent *decimal.Decimal `json:"tp2_qty_percent,omitempty"`
	UseTP2        *bool            `json:"use_tp2,omitempty"`
	TP3Price      *decimal.Decimal `json:"tp3_price,omitempty"`
	TP3QtyPercent *decimal.Decimal `json:"tp3_qty_percent,omitempty"`
	UseTP3        *bool            `json:"use_tp3,omitempty"`
	TP4Price      *decimal.Decimal `json:"tp4_price,omitempty"`
	TP4QtyPercent *decimal.Decimal `json:"tp4_qty_percent,omitempty"`
	UseTP4        *bool            `json:"use_tp4,omitempty"`

	SLPrice  *decimal.Decimal `json:"sl_price,omitempty"`
	IsTotal  bool             `json:"is_total,omitempty"`
	ChangeSL bool             `json:"change_sl,omitempty"`
}

// HedgeAlert hedge toggle payload
type HedgeAlert struct {
	Password string           `json:"password"`
	Exchange string           `json:"exchange" binding:"required"`
	Base     string           `json:"base" binding:"required"`
	Quote    string           `json:"quote"`
	Amount   *decimal.Decimal `json:"amount"`
	Leverage int              `json:"leverage"`
	Hedge    string           `json:"hedge" binding:"required"` // ON or OFF
}

// parseSide splits "entry/buy" style sides into action and side
func parseSide(raw string) (models.Action, models.Side, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	action := models.ActionPlain
	if prefix, rest, ok := strings.Cut(s, "/"); ok {
		switch prefix {
		case "entry":
			action = models.ActionEntry
		case "close":
			action = models.ActionClose
		default:
			return "", "", fmt.Errorf("%w: side %q", ErrInvalidAlert, raw)
		}
		s = rest
	}
	switch models.Side(s) {
	case models.SideBuy, models.SideSell:
		return action, models.Side(s), nil
	}
	return "", "", fmt.Errorf("%w: side %q", ErrInvalidAlert, raw)
}

func parseKind(market, quote string, action models.Action) (models.MarketKind, error) {
	switch strings.ToLower(market) {
	case "spot":
		return models.MarketSpot, nil
	case "futures", "linear", "swap":
		return models.MarketLinear, nil
	case "inverse":
		return models.MarketInverse, nil
	case "":
	default:
		return "", fmt.Errorf("%w: market %q", ErrInvalidAlert, market)
	}

	if action == models.ActionPlain {
		return models.MarketSpot, nil
	}
	// coin margined perpetuals are quoted in USD
	if strings.EqualFold(quote, "USD") {
		return models.MarketInverse, nil
	}
	return models.MarketLinear, nil
}

func takeProfitLeg(price, qty *decimal.Decimal, use *bool) models.TakeProfitLeg {
	leg := models.TakeProfitLeg{}
	if price != nil {
		leg.Price = *price
	}
	if qty != nil {
		leg.QtyPercent = *qty
	}
	if use != nil {
		leg.Enabled = *use
	} else {
		leg.Enabled = leg.Price.IsPositive() && leg.QtyPercent.IsPositive()
	}
	return leg
}

// Intent validates the alert and converts it into an order intent
func (a *Alert) Intent() (*models.OrderIntent, error) {
	action, side, err := parseSide(a.Side)
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(a.Market, a.Quote, action)
	if err != nil {
		return nil, err
	}
	if action == models.ActionPlain && kind != models.MarketSpot {
		return nil, fmt.Errorf("%w: plain %s needs a spot market", ErrInvalidAlert, side)
	}
	if action != models.ActionPlain && kind == models.MarketSpot {
		return nil, fmt.Errorf("%w: %s needs a futures market", ErrInvalidAlert, action)
	}

	orderType := models.OrderMarket
	switch strings.ToLower(a.Type) {
	case "", "market":
	case "limit":
		if a.Price == nil || !a.Price.IsPositive() {
			return nil, fmt.Errorf("%w: limit order without price", ErrInvalidAlert)
		}
		orderType = models.OrderLimit
	default:
		return nil, fmt.Errorf("%w: type %q", ErrInvalidAlert, a.Type)
	}

	margin := models.MarginMode(strings.ToLower(a.MarginMode))
	if margin != "" && margin != models.MarginCross && margin != models.MarginIsolated {
		return nil, fmt.Errorf("%w: margin mode %q", ErrInvalidAlert, a.MarginMode)
	}

	return &models.OrderIntent{
		Exchange:   strings.ToUpper(a.Exchange),
		Base:       strings.ToUpper(a.Base),
		Quote:      strings.ToUpper(a.Quote),
		Kind:       kind,
		Side:       side,
		Action:     action,
		Type:       orderType,
		Amount:     a.Amount,
		Percent:    a.Percent,
		Price:      a.Price,
		Leverage:   a.Leverage,
		MarginMode: margin,
		TakeProfits: [4]models.TakeProfitLeg{
			takeProfitLeg(a.TP1Price, a.TP1QtyPercent, a.UseTP1),
			takeProfitLeg(a.TP2Price, a.TP2QtyPercent, a.UseTP2),
			takeProfitLeg(a.TP3Price, a.TP3QtyPercent, a.UseTP3),
			takeProfitLeg(a.TP4Price, a.TP4QtyPercent, a.UseTP4),
		},
		StopLoss:        a.SLPrice,
		UseTotalBalance: a.IsTotal,
	}, nil
}

// Request converts the hedge payload; the bool reports ON
func (h *HedgeAlert) Request() (service.HedgeRequest, bool, error) {
	var on bool
	switch strings.ToUpper(h.Hedge) {
	case "ON":
		on = true
	case "OFF":
	default:
		return service.HedgeRequest{}, false, fmt.Errorf("%w: hedge %q", ErrInvalidAlert, h.Hedge)
	}
	quote := strings.ToUpper(h.Quote)
	if quote == "" {
		quote = "USDT"
	}
	return service.HedgeRequest{
		Exchange: strings.ToUpper(h.Exchange),
		Base:     strings.ToUpper(h.Base),
		Quote:    quote,
		Amount:   h.Amount,
		Leverage: h.Leverage,
	}, on, nil
}
