package models

import "github.com/shopspring/decimal"

// PositionSide side tag reported by the venue
type PositionSide string

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
	// PositionNet one-way mode position, direction given by the sign of Size
	PositionNet PositionSide = "net"
)

// PositionMode account position mode
type PositionMode string

const (
	PositionModeOneWay PositionMode = "one-way"
	PositionModeHedge  PositionMode = "hedge"
)

// Position open futures position
type Position struct {
	Symbol     string          `json:"symbol"`
	Side       PositionSide    `json:"side"`
	Size       decimal.Decimal `json:"size"` // signed; negative is short
	EntryPrice decimal.Decimal `json:"entry_price"`
}

// IsLong direction of the position regardless of how the venue tags it
func (p Position) IsLong() bool {
	switch p.Side {
	case PositionLong:
		return true
	case PositionShort:
		return false
	}
	return p.Size.IsPositive()
}

// Contracts absolute size
func (p Position) Contracts() decimal.Decimal {
	return p.Size.Abs()
}
