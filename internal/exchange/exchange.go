package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"signal_trade/internal/models"
)

var (
	// ErrUnsupported returned for operations a venue does not offer, e.g. positions on a spot-only venue
	ErrUnsupported = errors.New("operation not supported by venue")
	// ErrMarketNotFound symbol is not listed for the requested market kind
	ErrMarketNotFound = errors.New("market not found")
)

// Exchange capability set the order engine needs from a venue.
// The market kind is passed on every call; adapters keep no mutable default type.
type Exchange interface {
	Name() string
	LoadMarkets(ctx context.Context) error
	Market(kind models.MarketKind, symbol string) (*models.Market, error)

	FetchTicker(ctx context.Context, kind models.MarketKind, symbol string) (decimal.Decimal, error)
	FetchFreeBalance(ctx context.Context, kind models.MarketKind, asset string) (decimal.Decimal, error)
	FetchTotalBalance(ctx context.Context, kind models.MarketKind, asset string) (decimal.Decimal, error)
	FetchPositions(ctx context.Context, kind models.MarketKind, symbol string) ([]models.Position, error)
	FetchOpenOrders(ctx context.Context, kind models.MarketKind, symbol string) ([]models.Order, error)
	FetchOrder(ctx context.Context, kind models.MarketKind, symbol, id string) (*models.Order, error)

	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
	CancelOrder(ctx context.Context, kind models.MarketKind, symbol string, order models.Order) error
	SetLeverage(ctx context.Context, kind models.MarketKind, symbol string, leverage int, params map[string]string) error

	AmountToPrecision(kind models.MarketKind, symbol string, amount decimal.Decimal) (decimal.Decimal, error)
	PriceToPrecision(kind models.MarketKind, symbol string, price decimal.Decimal) (decimal.Decimal, error)

	Dialect() Dialect
}

// SplitSymbol splits BASE/QUOTE into its assets
func SplitSymbol(symbol string) (string, string, error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid symbol %q", symbol)
	}
	return strings.ToUpper(parts[0]), strings.ToUpper(parts[1]), nil
}
