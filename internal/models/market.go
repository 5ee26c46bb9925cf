package models

import "github.com/shopspring/decimal"

// Market instrument metadata loaded from a venue
type Market struct {
	ID    string
	Base  string
	Quote string
	Kind  MarketKind
	// Contract is set when amounts are expressed in whole contracts.
	Contract     bool
	Inverse      bool
	ContractSize decimal.Decimal
	AmountStep   decimal.Decimal
	PriceStep    decimal.Decimal
	MinAmount    decimal.Decimal
}
