package order

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/storage"
)

var _ Repository = (*History)(nil)

// History is a Repository kept under a single storage key.
type History struct {
	kv storage.KV

	mu     sync.Mutex
	orders []Order
}

// OpenHistory restores the order history from kv.
func OpenHistory(ctx context.Context, kv storage.KV) (*History, error) {
	var orders []Order
	err := storage.Restore(ctx, kv, storage.KeyOrders, func(rec storage.Record) error {
		if rec.Version != storage.SchemaVersion {
			return errors.Errorf("unsupported orders version %d", rec.Version)
		}
		var stored []Order
		if err := json.Unmarshal(rec.Data, &stored); err != nil {
			return errors.Wrap(err, "decode orders")
		}
		orders = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &History{kv: kv, orders: orders}, nil
}

// Create appends o.
func (h *History) Create(ctx context.Context, o *Order) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := append(cloneOrders(h.orders), *o)
	if err := storage.Save(ctx, h.kv, storage.KeyOrders, next); err != nil {
		return errors.Wrap(err, "save order")
	}
	h.orders = next
	return nil
}

// List returns all orders, newest first.
func (h *History) List(_ context.Context) ([]Order, error) {
	h.mu.Lock()
	out := cloneOrders(h.orders)
	h.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get returns the order with the given id or ErrOrderNotFound.
func (h *History) Get(_ context.Context, id string) (*Order, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.orders {
		if h.orders[i].ID == id {
			o := h.orders[i]
			return &o, nil
		}
	}
	return nil, ErrOrderNotFound
}

// UpdateStatus sets the status of an existing order.
func (h *History) UpdateStatus(ctx context.Context, id string, status Status) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := cloneOrders(h.orders)
	for i := range next {
		if next[i].ID != id {
			continue
		}
		if next[i].Status == status {
			return nil
		}
		next[i].Status = status
		if err := storage.Save(ctx, h.kv, storage.KeyOrders, next); err != nil {
			return errors.Wrap(err, "save order status")
		}
		h.orders = next
		return nil
	}
	return ErrOrderNotFound
}

func cloneOrders(orders []Order) []Order {
	out := make([]Order, len(orders))
	copy(out, orders)
	return out
}
