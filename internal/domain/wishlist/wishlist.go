// Package wishlist implements the saved-products store.
package wishlist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/internal/observable"
	"github.com/xenking/storefront/internal/storage"
)

// Entry is a saved product.
type Entry struct {
	Product product.Product `json:"product"`
	AddedAt time.Time       `json:"addedAt"`
}

// Store owns the wishlist. At most one entry exists per product id.
type Store struct {
	kv   storage.KV
	sink notify.Sink
	now  func() time.Time

	mu      sync.Mutex
	entries []Entry
	version uint64

	subject *observable.Subject[[]Entry]
}

// Open restores the wishlist from kv.
func Open(ctx context.Context, kv storage.KV, sink notify.Sink) (*Store, error) {
	var entries []Entry
	err := storage.Restore(ctx, kv, storage.KeyWishlist, func(rec storage.Record) error {
		if rec.Version != storage.SchemaVersion {
			return errors.Errorf("unsupported wishlist version %d", rec.Version)
		}
		var stored []Entry
		if err := json.Unmarshal(rec.Data, &stored); err != nil {
			return errors.Wrap(err, "decode wishlist")
		}
		for _, e := range stored {
			if indexOf(entries, e.Product.ID) < 0 {
				entries = append(entries, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = notify.Discard
	}
	return &Store{
		kv:      kv,
		sink:    sink,
		now:     time.Now,
		entries: entries,
		subject: observable.New(clone(entries)),
	}, nil
}

// Add saves p. Adding a product that is already saved changes nothing.
func (s *Store) Add(ctx context.Context, p product.Product) error {
	changed, err := s.mutate(ctx, func(entries []Entry) ([]Entry, bool) {
		if indexOf(entries, p.ID) >= 0 {
			return entries, false
		}
		return append(entries, Entry{Product: p, AddedAt: s.now()}), true
	})
	if err == nil && changed {
		s.sink.Notify(ctx, notify.Success("Added to wishlist", p.Name))
	}
	return err
}

// Remove deletes the entry for productID if present.
func (s *Store) Remove(ctx context.Context, productID int) error {
	var name string
	changed, err := s.mutate(ctx, func(entries []Entry) ([]Entry, bool) {
		i := indexOf(entries, productID)
		if i < 0 {
			return entries, false
		}
		name = entries[i].Product.Name
		return append(entries[:i], entries[i+1:]...), true
	})
	if err == nil && changed {
		s.sink.Notify(ctx, notify.Info("Removed from wishlist", name))
	}
	return err
}

// Toggle removes p when saved and adds it otherwise. It reports whether p is
// saved afterwards.
func (s *Store) Toggle(ctx context.Context, p product.Product) (bool, error) {
	var added bool
	_, err := s.mutate(ctx, func(entries []Entry) ([]Entry, bool) {
		if i := indexOf(entries, p.ID); i >= 0 {
			return append(entries[:i], entries[i+1:]...), true
		}
		added = true
		return append(entries, Entry{Product: p, AddedAt: s.now()}), true
	})
	if err != nil {
		return false, err
	}
	if added {
		s.sink.Notify(ctx, notify.Success("Added to wishlist", p.Name))
	} else {
		s.sink.Notify(ctx, notify.Info("Removed from wishlist", p.Name))
	}
	return added, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, func(entries []Entry) ([]Entry, bool) {
		return []Entry{}, len(entries) > 0
	})
	return err
}

// Contains reports whether productID is saved.
func (s *Store) Contains(productID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.entries, productID) >= 0
}

// Entries returns a copy of the saved entries in insertion order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.entries)
}

// Subscribe calls fn with the current entries and again after every change.
func (s *Store) Subscribe(fn func([]Entry)) (unsubscribe func()) {
	return s.subject.Subscribe(fn)
}

func (s *Store) mutate(ctx context.Context, fn func([]Entry) ([]Entry, bool)) (bool, error) {
	s.mu.Lock()
	next, changed := fn(clone(s.entries))
	if !changed {
		s.mu.Unlock()
		return false, nil
	}
	if err := storage.Save(ctx, s.kv, storage.KeyWishlist, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.entries = next
	s.version++
	version, snapshot := s.version, clone(next)
	s.mu.Unlock()

	s.subject.Publish(version, snapshot)
	return true, nil
}

func indexOf(entries []Entry, productID int) int {
	for i, e := range entries {
		if e.Product.ID == productID {
			return i
		}
	}
	return -1
}

func clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
