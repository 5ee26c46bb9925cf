package ledger

import (
	"context"
	"fmt"

	"signal_trade/internal/config"
	"signal_trade/internal/models"
)

// Store persisted hedge ledger, append and delete only
type Store interface {
	// List records of a base asset, oldest first
	List(ctx context.Context, base string) ([]models.HedgeRecord, error)
	// Create stores rec, assigning ID and CreatedAt when unset
	Create(ctx context.Context, rec models.HedgeRecord) (models.HedgeRecord, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open opens the store selected by cfg.Driver
func Open(cfg config.LedgerConfig) (Store, error) {
	switch cfg.Driver {
	case "badger":
		return OpenBadger(cfg.Path)
	case "sqlite":
		return OpenSQLite(cfg.Path)
	}
	return nil, fmt.Errorf("unknown ledger driver %q", cfg.Driver)
}
