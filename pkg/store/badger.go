package store

import (
	"errors"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
)

// filePrefix namespaces DOS file entries inside the badger keyspace. The
// filename is percent-encoded so arbitrary filename characters round-trip
// through the key.
const filePrefix = "dos:file:"

// BadgerStore is a badger-backed Store. One instance owns one volume
// directory.
type BadgerStore struct {
	logger *slog.Logger
	db     *badger.DB
}

var _ Store = &BadgerStore{}

type BadgerConfig struct {
	Logger    *slog.Logger
	Directory string
}

func NewBadgerStore(config BadgerConfig) (*BadgerStore, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	valuesDir := filepath.Join(config.Directory, "values")
	if err := os.MkdirAll(valuesDir, 0755); err != nil {
		return nil, &ErrInternal{Err: err}
	}

	dbOpts := badger.DefaultOptions(valuesDir).
		WithLogger(newBadgerLogger(config.Logger.WithGroup("store"))).
		WithLoggingLevel(badger.WARNING).
		WithMemTableSize(16 << 20) // 16MB MemTableSize

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, &ErrInternal{Err: err}
	}

	return &BadgerStore{
		logger: config.Logger.WithGroup("badger"),
		db:     db,
	}, nil
}

func (b *BadgerStore) Close() error {
	if err := b.db.Close(); err != nil {
		b.logger.Error("error closing store db", "error", err)
		return &ErrInternal{Err: err}
	}
	return nil
}

func fileKey(name string) []byte {
	return []byte(filePrefix + url.QueryEscape(name))
}

func (b *BadgerStore) Get(name string) (string, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fileKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return &ErrKeyNotFound{Key: name}
			}
			return &ErrInternal{Err: err}
		}
		value, err = item.ValueCopy(nil)
		if err != nil {
			return &ErrInternal{Err: err}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (b *BadgerStore) Set(name string, content string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(fileKey(name), []byte(content)); err != nil {
			return &ErrInternal{Err: err}
		}
		return nil
	})
}

func (b *BadgerStore) Delete(name string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(fileKey(name)); err != nil {
			return &ErrInternal{Err: err}
		}
		return nil
	})
}

// List returns every stored filename, decoded from its key form.
func (b *BadgerStore) List() ([]string, error) {
	var names []string
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(filePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			encoded := string(it.Item().Key())[len(filePrefix):]
			name, err := url.QueryUnescape(encoded)
			if err != nil {
				b.logger.Warn("skipping undecodable key", "key", encoded, "error", err)
				continue
			}
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
