package progress

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV is a durable KV backed by a badger database directory on the device.
type BadgerKV struct {
	db *badger.DB
}

// BadgerOptions configures OpenBadgerKV.
type BadgerOptions struct {
	// ReadOnly opens an existing database for inspection.
	ReadOnly bool
	// InMemory keeps the database in memory; Path is ignored.
	InMemory bool
}

// OpenBadgerKV opens (or creates) the progress database at path.
func OpenBadgerKV(path string, opts BadgerOptions) (*BadgerKV, error) {
	bopts := badger.DefaultOptions(path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil
	bopts.SyncWrites = true
	bopts.ReadOnly = opts.ReadOnly
	if !opts.ReadOnly {
		bopts.CompactL0OnClose = true
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open progress db: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

// Get returns the value stored under key.
func (b *BadgerKV) Get(key string) (string, error) {
	var value string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	return value, err
}

// Set stores value under key.
func (b *BadgerKV) Set(key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	}
	return err
}

// Keys returns every key with the given prefix.
func (b *BadgerKV) Keys(prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// Close releases the database.
func (b *BadgerKV) Close() error {
	return b.db.Close()
}
