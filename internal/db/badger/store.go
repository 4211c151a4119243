// Package badger is an embedded db.Store on BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch/internal/db"
)

var _ db.Store = (*Store)(nil)

// Store wraps a BadgerDB instance.
type Store struct {
	db *badger.DB
}

// zapAdapter adapts zap to badger.Logger.
type zapAdapter struct {
	log *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, items ...any)   { a.log.Errorf(msg, items...) }
func (a *zapAdapter) Warningf(msg string, items ...any) { a.log.Warnf(msg, items...) }
func (a *zapAdapter) Infof(msg string, items ...any)    { a.log.Debugf(msg, items...) }
func (a *zapAdapter) Debugf(msg string, items ...any)   { a.log.Debugf(msg, items...) }

// Open opens a BadgerDB database at path, creating the directory if needed.
// An empty path opens an in-memory database.
func Open(path string, log *zap.Logger) (*Store, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, &db.Error{Op: db.OpOpen, Err: err}
		}
		opts = badger.DefaultOptions(path)
	}
	if log == nil {
		log = zap.NewNop()
	}
	opts.Logger = &zapAdapter{log: log.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}
	return &Store{db: bdb}, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("ping: badger is closed")
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns once Ping succeeds.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.PollReady(ctx, timeout, s.Ping)
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// MGet reads every key in one read transaction.
func (s *Store) MGet(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	err := s.db.View(func(tx *badger.Txn) error {
		for i, k := range keys {
			item, err := tx.Get([]byte(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if out[i], err = item.ValueCopy(nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

func (s *Store) Del(_ context.Context, key string) error {
	err := s.db.Update(func(tx *badger.Txn) error {
		return tx.Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return true, nil
}

// Scan iterates keys only, in key order.
func (s *Store) Scan(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := tx.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}
