package models

// BinanceExchangeInfo exchangeInfo response shared by spot, fapi and dapi
type BinanceExchangeInfo struct {
	Symbols []BinanceSymbol `json:"symbols"`
}

// BinanceSymbol instrument entry of exchangeInfo
type BinanceSymbol struct {
	Symbol       string          `json:"symbol"`
	Pair         string          `json:"pair,omitempty"`
	ContractType string          `json:"contractType,omitempty"` // PERPETUAL for swaps, empty on spot
	Status       string          `json:"status,omitempty"`       // spot and fapi
	ContractStat string          `json:"contractStatus,omitempty"`
	BaseAsset    string          `json:"baseAsset"`
	QuoteAsset   string          `json:"quoteAsset"`
	ContractSize float64         `json:"contractSize,omitempty"` // dapi only, USD per contract
	Filters      []BinanceFilter `json:"filters,omitempty"`
}

// BinanceFilter symbol filter
type BinanceFilter struct {
	FilterType string `json:"filterType"` // LOT_SIZE, PRICE_FILTER ...
	MinQty     string `json:"minQty,omitempty"`
	MaxQty     string `json:"maxQty,omitempty"`
	StepSize   string `json:"stepSize,omitempty"`
	MinPrice   string `json:"minPrice,omitempty"`
	MaxPrice   string `json:"maxPrice,omitempty"`
	TickSize   string `json:"tickSize,omitempty"`
}

// BinanceOrder order payload returned by order endpoints
type BinanceOrder struct {
	OrderID       int64  `json:"orderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	ClientOrderID string `json:"clientOrderId"`
	Price         string `json:"price"`
	AvgPrice      string `json:"avgPrice"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	Type          string `json:"type"`
	OrigType      string `json:"origType"`
	Side          string `json:"side"`
	PositionSide  string `json:"positionSide"`
	StopPrice     string `json:"stopPrice"`
	ReduceOnly    bool   `json:"reduceOnly"`
	Time          int64  `json:"time"`
	UpdateTime    int64  `json:"updateTime"`
	TransactTime  int64  `json:"transactTime"`
}

// BinancePositionRisk positionRisk entry
type BinancePositionRisk struct {
	Symbol       string `json:"symbol"`
	PositionAmt  string `json:"positionAmt"` // signed; negative is short
	EntryPrice   string `json:"entryPrice"`
	MarkPrice    string `json:"markPrice"`
	Leverage     string `json:"leverage"`
	MarginType   string `json:"marginType"`
	PositionSide string `json:"positionSide"` // BOTH/LONG/SHORT
}

// BinanceSpotAccount spot account balances
type BinanceSpotAccount struct {
	Balances []struct {
		Asset  string `json:"asset"`
		Free   string `json:"free"`
		Locked string `json:"locked"`
	} `json:"balances"`
}

// BinanceFuturesBalance fapi/dapi balance entry
type BinanceFuturesBalance struct {
	Asset            string `json:"asset"`
	Balance          string `json:"balance"`
	AvailableBalance string `json:"availableBalance"`
}

// BinanceTicker ticker/price entry
type BinanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// BinanceErrorResponse error body
type BinanceErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}
