package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HedgeRecord filled amount of one hedge leg on one venue
type HedgeRecord struct {
	ID        string          `json:"id"`
	Exchange  string          `json:"exchange"`
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// HedgeSummary aggregated ledger exposure of one venue for a base asset
type HedgeSummary struct {
	Exchange string          `json:"exchange"`
	Amount   decimal.Decimal `json:"amount"`
	IDs      []string        `json:"ids"`
}

// Summarize groups records by exchange
func Summarize(records []HedgeRecord) map[string]*HedgeSummary {
	out := make(map[string]*HedgeSummary)
	for _, r := range records {
		s, ok := out[r.Exchange]
		if !ok {
			s = &HedgeSummary{Exchange: r.Exchange}
			out[r.Exchange] = s
		}
		s.Amount = s.Amount.Add(r.Amount)
		s.IDs = append(s.IDs, r.ID)
	}
	return out
}
