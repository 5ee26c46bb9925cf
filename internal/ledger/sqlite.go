package ledger

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"signal_trade/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS hedge_records (
	id         TEXT PRIMARY KEY,
	exchange   TEXT NOT NULL,
	base       TEXT NOT NULL,
	quote      TEXT NOT NULL,
	amount     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hedge_records_base ON hedge_records(base);
`

// SQLiteStore ledger on a SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database file at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) List(ctx context.Context, base string) ([]models.HedgeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exchange, base, quote, amount, created_at FROM hedge_records WHERE base = ? ORDER BY created_at, id`,
		strings.ToUpper(base))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HedgeRecord
	for rows.Next() {
		var (
			rec     models.HedgeRecord
			amount  string
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.Exchange, &rec.Base, &rec.Quote, &amount, &created); err != nil {
			return nil, err
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, rec models.HedgeRecord) (models.HedgeRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Base = strings.ToUpper(rec.Base)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hedge_records (id, exchange, base, quote, amount, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Exchange, rec.Base, rec.Quote, rec.Amount.String(), rec.CreatedAt.UnixMilli())
	return rec, err
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM hedge_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
