package cart

import (
	"context"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/internal/observable"
	"github.com/xenking/storefront/internal/storage"
)

// Store owns the cart. Every mutation is written to storage before it
// becomes visible; a failed write leaves the cart unchanged.
type Store struct {
	kv   storage.KV
	sink notify.Sink

	mu      sync.Mutex
	lines   []Line
	version uint64

	subject *observable.Subject[[]Line]
}

// Open restores the cart from kv. Stored state that cannot be decoded is
// discarded and the cart starts empty.
func Open(ctx context.Context, kv storage.KV, sink notify.Sink) (*Store, error) {
	var lines []Line
	err := storage.Restore(ctx, kv, storage.KeyCart, func(rec storage.Record) error {
		decoded, err := decodeLines(rec)
		if err != nil {
			return err
		}
		lines = decoded
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
		lines:   lines,
		subject: observable.New(cloneLines(lines)),
	}, nil
}

// AddItem adds quantity units of p in the given variant, merging into an
// existing line with the same key, and emits a success notification.
func (s *Store) AddItem(ctx context.Context, p product.Product, variant string, quantity int) error {
	if err := s.add(ctx, p, variant, quantity); err != nil {
		return err
	}
	detail := p.Name + " added to cart"
	if quantity > 1 {
		detail = p.Name + " x" + strconv.Itoa(quantity) + " added to cart"
	}
	s.sink.Notify(ctx, notify.Success("Added to cart", detail))
	return nil
}

// AddItemSilent is AddItem without the user-facing notification.
func (s *Store) AddItemSilent(ctx context.Context, p product.Product, variant string, quantity int) error {
	return s.add(ctx, p, variant, quantity)
}

func (s *Store) add(ctx context.Context, p product.Product, variant string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	var addErr error
	err := s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		lines, addErr = appendLine(lines, Line{Product: p, Variant: variant, Quantity: quantity})
		return lines, addErr == nil
	})
	if addErr != nil {
		return addErr
	}
	return err
}

// SetQuantity sets the absolute quantity of a line. A quantity of zero or
// less removes it. A missing line is left alone.
func (s *Store) SetQuantity(ctx context.Context, productID int, variant string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID, variant)
	}
	return s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		i := indexOf(lines, Key{ProductID: productID, Variant: variant})
		if i < 0 || lines[i].Quantity == quantity {
			return lines, false
		}
		lines[i].Quantity = quantity
		return lines, true
	})
}

// RemoveItem deletes a line if present.
func (s *Store) RemoveItem(ctx context.Context, productID int, variant string) error {
	return s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		i := indexOf(lines, Key{ProductID: productID, Variant: variant})
		if i < 0 {
			return lines, false
		}
		return append(lines[:i], lines[i+1:]...), true
	})
}

// Subtract removes the quantities of ordered from the matching lines. Lines
// that reach zero are dropped and lines missing from ordered are kept.
func (s *Store) Subtract(ctx context.Context, ordered []Line) error {
	return s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		changed := false
		for _, o := range ordered {
			i := indexOf(lines, o.Key())
			if i < 0 || o.Quantity < 1 {
				continue
			}
			changed = true
			if lines[i].Quantity <= o.Quantity {
				lines = append(lines[:i], lines[i+1:]...)
				continue
			}
			lines[i].Quantity -= o.Quantity
		}
		return lines, changed
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(lines []Line) ([]Line, bool) {
		return []Line{}, len(lines) > 0
	})
}

// Lines returns a copy of the cart lines.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

// Total returns the sum of price times quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.lines)
}

// Count returns the number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.lines)
}

// Subscribe calls fn with the current lines and again after every change.
// fn must treat the slice as read-only.
func (s *Store) Subscribe(fn func([]Line)) (unsubscribe func()) {
	return s.subject.Subscribe(fn)
}

func (s *Store) mutate(ctx context.Context, fn func([]Line) ([]Line, bool)) error {
	s.mu.Lock()
	next, changed := fn(cloneLines(s.lines))
	if !changed {
		s.mu.Unlock()
		return nil
	}
	if err := storage.Save(ctx, s.kv, storage.KeyCart, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.lines = next
	s.version++
	version, snapshot := s.version, cloneLines(next)
	s.mu.Unlock()

	s.subject.Publish(version, snapshot)
	return nil
}
