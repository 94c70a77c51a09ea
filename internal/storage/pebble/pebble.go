// Package pebble implements storage.KV on top of a local PebbleDB directory.
package pebble

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/storage"
)

var _ storage.KV = (*Store)(nil)

// Store is a storage.KV persisted in a PebbleDB directory. Every write is
// synced before it returns.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the database in dir.
func Open(dir string) (*Store, error) {
	opts := &pebble.Options{
		// Documents are small and rewritten wholesale; keep the memtable modest.
		MemTableSize: 4 << 20,
	}
	db, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, errors.Wrap(err, "pebble open")
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "pebble get %s", key)
	}
	defer func() { _ = closer.Close() }()
	return append([]byte(nil), v...), nil
}

// Set replaces the value stored under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if err := s.db.Set([]byte(key), value, pebble.Sync); err != nil {
		return errors.Wrapf(err, "pebble set %s", key)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	if err := s.db.Delete([]byte(key), pebble.Sync); err != nil {
		return errors.Wrapf(err, "pebble delete %s", key)
	}
	return nil
}

// Ping checks that the database answers reads. It is used as a readiness
// probe.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.Get(ctx, storage.KeyCart); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}
