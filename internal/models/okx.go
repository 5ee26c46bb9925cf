package models

import "encoding/json"

// OKXResponse envelope of every OKX v5 response
type OKXResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// OKXInstrument public/instruments entry
type OKXInstrument struct {
	InstID   string `json:"instId"`
	InstType string `json:"instType"` // SPOT, SWAP
	BaseCcy  string `json:"baseCcy"`
	QuoteCcy string `json:"quoteCcy"`
	Settle   string `json:"settleCcy"`
	CtVal    string `json:"ctVal"`
	CtValCcy string `json:"ctValCcy"`
	CtType   string `json:"ctType"` // linear, inverse
	LotSz    string `json:"lotSz"`
	TickSz   string `json:"tickSz"`
	MinSz    string `json:"minSz"`
	State    string `json:"state"`
}

// OKXTicker market/ticker entry
type OKXTicker struct {
	InstID string `json:"instId"`
	Last   string `json:"last"`
}

// OKXBalance account/balance entry
type OKXBalance struct {
	Details []struct {
		Ccy      string `json:"ccy"`
		AvailBal string `json:"availBal"`
		CashBal  string `json:"cashBal"`
		Eq       string `json:"eq"`
	} `json:"details"`
}

// OKXPosition account/positions entry
type OKXPosition struct {
	InstID  string `json:"instId"`
	Pos     string `json:"pos"`
	PosSide string `json:"posSide"` // long, short, net
	AvgPx   string `json:"avgPx"`
	MgnMode string `json:"mgnMode"`
}

// OKXOrder trade/order and orders-pending entry
type OKXOrder struct {
	OrdID     string `json:"ordId"`
	ClOrdID   string `json:"clOrdId"`
	InstID    string `json:"instId"`
	OrdType   string `json:"ordType"`
	Side      string `json:"side"`
	Sz        string `json:"sz"`
	Px        string `json:"px"`
	AvgPx     string `json:"avgPx"`
	AccFillSz string `json:"accFillSz"`
	State     string `json:"state"`
	CTime     string `json:"cTime"`
	SCode     string `json:"sCode"`
	SMsg      string `json:"sMsg"`
}

// OKXAlgoOrder trade/order-algo and orders-algo-pending entry
type OKXAlgoOrder struct {
	AlgoID      string `json:"algoId"`
	InstID      string `json:"instId"`
	OrdType     string `json:"ordType"` // conditional, oco, trigger
	Side        string `json:"side"`
	Sz          string `json:"sz"`
	SlTriggerPx string `json:"slTriggerPx"`
	State       string `json:"state"`
	CTime       string `json:"cTime"`
	SCode       string `json:"sCode"`
	SMsg        string `json:"sMsg"`
}
