package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"signal_trade/internal/models"
)

// ErrNotFound record id unknown to the ledger
var ErrNotFound = errors.New("ledger: record not found")

// keys: hedge:<BASE>:<id> holds the record, idx:<id> holds its hedge key
const (
	recordPrefix = "hedge:"
	indexPrefix  = "idx:"
)

// BadgerStore ledger on an embedded Badger database
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens or creates the database under dir; an empty dir keeps it in memory
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if strings.TrimSpace(dir) == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func recordKey(base, id string) []byte {
	return []byte(recordPrefix + strings.ToUpper(base) + ":" + id)
}

func (s *BadgerStore) List(_ context.Context, base string) ([]models.HedgeRecord, error) {
	prefix := []byte(recordPrefix + strings.ToUpper(base) + ":")
	var out []models.HedgeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec models.HedgeRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *BadgerStore) Create(_ context.Context, rec models.HedgeRecord) (models.HedgeRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Base = strings.ToUpper(rec.Base)

	val, err := json.Marshal(rec)
	if err != nil {
		return rec, err
	}
	key := recordKey(rec.Base, rec.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, val); err != nil {
			return err
		}
		return txn.Set([]byte(indexPrefix+rec.ID), key)
	})
	return rec, err
}

func (s *BadgerStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		idx := []byte(indexPrefix + id)
		item, err := txn.Get(idx)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(idx)
	})
}

func (s *BadgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
