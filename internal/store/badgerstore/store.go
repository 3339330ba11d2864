// SPDX-License-Identifier: MPL-2.0

// Package badgerstore persists host state in BadgerDB.
package badgerstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/abstractsdk/abstract/internal/store"

	"github.com/charmbracelet/log"
	badgerdb "github.com/dgraph-io/badger/v3"
)

type (
	// Options configures the store.
	Options struct {
		// Path is the data directory. Ignored when InMemory is set.
		Path string
		// InMemory keeps all data in memory.
		InMemory bool
		// SyncWrites fsyncs every commit.
		SyncWrites bool
		// Logger receives badger's own log output. Nil silences it.
		Logger *log.Logger
	}

	// Store is a store.KVStore backed by BadgerDB. Every write and every batch runs
	// in its own badger transaction.
	Store struct {
		db *badgerdb.DB
	}

	// badgerLogger forwards badger's printf-style logging to a charm logger.
	badgerLogger struct {
		logger *log.Logger
	}
)

var (
	_ store.KVStore = (*Store)(nil)
	_ store.Batcher = (*Store)(nil)
)

// Open opens or creates a store.
func Open(opts Options) (*Store, error) {
	var bopts badgerdb.Options
	if opts.InMemory {
		bopts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("badger store path is required")
		}
		if err := os.MkdirAll(opts.Path, 0o700); err != nil {
			return nil, fmt.Errorf("create badger data directory: %w", err)
		}
		bopts = badgerdb.DefaultOptions(opts.Path).WithSyncWrites(opts.SyncWrites)
	}
	if opts.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{logger: opts.Logger.WithPrefix("badger")})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badgerdb.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns a copy of the value at key or nil.
func (s *Store) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	return value, nil
}

// Has reports whether key exists.
func (s *Store) Has(key []byte) (bool, error) {
	found := false
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("badger has: %w", err)
	}
	return found, nil
}

// Set writes key.
func (s *Store) Set(key, value []byte) error {
	return s.ApplyBatch([]store.Op{{Key: key, Value: value}})
}

// Delete removes key.
func (s *Store) Delete(key []byte) error {
	return s.ApplyBatch([]store.Op{{Key: key}})
}

// ApplyBatch applies ops in one transaction.
func (s *Store) ApplyBatch(ops []store.Op) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		for _, op := range ops {
			if op.Value == nil {
				if err := txn.Delete(op.Key); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set(op.Key, op.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger write: %w", err)
	}
	return nil
}

// Scan visits keys in [start, end) from a consistent snapshot.
func (s *Store) Scan(start, end []byte, fn func(key, value []byte) error) error {
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(start); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if end != nil && bytes.Compare(key, end) >= 0 {
				return nil
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, store.ErrStopScan) {
		return nil
	}
	return err
}

func (l *badgerLogger) Errorf(format string, args ...any)   { l.logger.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...any) { l.logger.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...any)    { l.logger.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...any)   { l.logger.Debugf(format, args...) }
