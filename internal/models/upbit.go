package models

// UpbitMarket market/all entry
type UpbitMarket struct {
	Market      string `json:"market"` // KRW-BTC
	KoreanName  string `json:"korean_name"`
	EnglishName string `json:"english_name"`
}

// UpbitTicker ticker entry
type UpbitTicker struct {
	Market     string  `json:"market"`
	TradePrice float64 `json:"trade_price"`
}

// UpbitAccount accounts entry
type UpbitAccount struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Locked   string `json:"locked"`
}

// UpbitOrder orders/order entry
type UpbitOrder struct {
	UUID            string `json:"uuid"`
	Side            string `json:"side"`     // bid, ask
	OrdType         string `json:"ord_type"` // limit, price, market
	Price           string `json:"price"`
	State           string `json:"state"`
	Market          string `json:"market"`
	Volume          string `json:"volume"`
	RemainingVolume string `json:"remaining_volume"`
	ExecutedVolume  string `json:"executed_volume"`
	CreatedAt       string `json:"created_at"`
}

// UpbitErrorResponse error body
type UpbitErrorResponse struct {
	Error struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}
